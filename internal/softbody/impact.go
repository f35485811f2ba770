package softbody

import (
	"errors"
	"fmt"
	gomath "math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// ErrVertexOutOfRange is returned by ImpactAt for an index outside the mesh.
var ErrVertexOutOfRange = errors.New("vertex index out of range")

// Region is a probe volume.
type Region interface {
	// Center is the point the nearest-vertex search starts from.
	Center() r3.Vec
	// Bound is the radius of a sphere around Center enclosing the region.
	Bound() float64
	// Distance returns the distance from p to the region, zero inside it.
	Distance(p r3.Vec) float64
}

// Sphere is a ball probe. A zero radius makes it a point probe.
type Sphere struct {
	Origin r3.Vec
	Radius float64
}

func (s Sphere) Center() r3.Vec { return s.Origin }
func (s Sphere) Bound() float64 { return s.Radius }

func (s Sphere) Distance(p r3.Vec) float64 {
	return gomath.Max(0, math.Distance(s.Origin, p)-s.Radius)
}

// AABB is an axis-aligned box probe.
type AABB struct {
	Min, Max r3.Vec
}

func (b AABB) Center() r3.Vec { return r3.Scale(0.5, r3.Add(b.Min, b.Max)) }
func (b AABB) Bound() float64 { return 0.5 * math.Distance(b.Min, b.Max) }

func (b AABB) Distance(p r3.Vec) float64 {
	q := r3.Vec{
		X: gomath.Max(b.Min.X, gomath.Min(p.X, b.Max.X)),
		Y: gomath.Max(b.Min.Y, gomath.Min(p.Y, b.Max.Y)),
		Z: gomath.Max(b.Min.Z, gomath.Min(p.Z, b.Max.Z)),
	}
	return math.Distance(p, q)
}

// Probe is an external object striking the mesh during one tick.
type Probe struct {
	Region   Region
	Velocity r3.Vec
}

// Nearest returns the vertex closest to the region and its distance, if it
// lies within the impact tolerance. Equally distant vertices resolve to the
// lowest index.
func (e *Engine) Nearest(region Region) (vertex int, dist float64, ok bool) {
	tol := e.params.Impact.Tolerance
	e.points = e.points[:0]
	for i, p := range e.mesh.Positions {
		e.points = append(e.points, vertexPoint{pos: p, index: i})
	}
	tree := kdtree.New(e.points, false)

	reach := region.Bound() + tol
	keeper := kdtree.NewDistKeeper(reach * reach)
	tree.NearestSet(keeper, &vertexPoint{pos: region.Center(), index: -1})

	vertex, dist = -1, gomath.Inf(1)
	for _, c := range keeper.Heap {
		vp, isPoint := c.Comparable.(*vertexPoint)
		if !isPoint {
			continue
		}
		d := region.Distance(vp.pos)
		if d < dist || (d == dist && vp.index < vertex) {
			vertex, dist = vp.index, d
		}
	}
	if vertex < 0 || dist > tol {
		return -1, 0, false
	}
	return vertex, dist, true
}

// ImpactAt displaces vertex by impulse and every vertex within Impact.Depth
// hops of it by impulse halved once per hop. Each vertex moves at most once,
// at its shortest hop distance.
func (e *Engine) ImpactAt(vertex int, impulse r3.Vec) error {
	n := e.mesh.VertexCount()
	if vertex < 0 || vertex >= n {
		return fmt.Errorf("%w: %d (vertex count %d)", ErrVertexOutOfRange, vertex, n)
	}
	e.ensureScratch()
	clear(e.visited)

	pos := e.mesh.Positions
	graph := &e.mesh.Graph
	depth := e.params.Impact.Depth

	queue := append(e.queue[:0], hop{vertex: vertex})
	e.visited[vertex] = true
	for head := 0; head < len(queue); head++ {
		h := queue[head]
		pos[h.vertex] = r3.Add(pos[h.vertex], r3.Scale(gomath.Ldexp(1, -h.depth), impulse))
		if h.depth == depth {
			continue
		}
		for _, next := range graph.NeighborsOf(h.vertex) {
			if e.visited[next] {
				continue
			}
			e.visited[next] = true
			queue = append(queue, hop{vertex: next, depth: h.depth + 1})
		}
	}
	e.queue = queue[:0]
	return nil
}

// vertexPoint is a mesh vertex stored in a k-d tree.
type vertexPoint struct {
	pos   r3.Vec
	index int
}

func (p *vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*vertexPoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	case 2:
		return p.pos.Z - q.pos.Z
	}
	panic("unreachable")
}

func (p *vertexPoint) Dims() int { return 3 }

// Distance returns the squared distance, as kdtree expects.
func (p *vertexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(*vertexPoint)
	return r3.Norm2(r3.Sub(p.pos, q.pos))
}

type vertexPoints []vertexPoint

// Index returns the ith element of the list of points.
func (vp vertexPoints) Index(i int) kdtree.Comparable { return &vp[i] }

// Len returns the length of the list.
func (vp vertexPoints) Len() int { return len(vp) }

// Pivot partitions the list based on the dimension specified.
func (vp vertexPoints) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: d, points: vp}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (vp vertexPoints) Slice(start, end int) kdtree.Interface { return vp[start:end] }

type kdPlane struct {
	dim    kdtree.Dim
	points vertexPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.points[i].Compare(&p.points[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p kdPlane) Len() int {
	return len(p.points)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
