// Package mesh owns triangle mesh storage and its derived adjacency.
//
// A Mesh is split into static Geometry (faces, edges, rest quantities,
// neighbour graph) written once by Build, and dynamic State (positions,
// velocities, force accumulators, centroid body) written only by the
// deformation engine. Both are indexed in parallel by vertex.
package mesh

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// Color is an RGB vertex colour as stored by the source file.
type Color struct {
	R, G, B float32
}

// Attributes are per-vertex scalars carried through from the source format.
// The simulation never reads them.
type Attributes struct {
	Confidence float32
	Intensity  float32
	Color      Color
}

// Face is a triangle with its cached unit normal.
type Face struct {
	Vertices [3]int
	// Normal is refreshed by UpdateNormals. Readers that depend on it must
	// run after the refresh for the current positions.
	Normal r3.Vec
}

// Edge joins two vertices shared by exactly two faces.
type Edge struct {
	Vertices [2]int
	Faces    [2]int
	// RestLength is the edge length at build time, the spring's natural length.
	RestLength float64
}

// Other returns the endpoint of e that is not v.
func (e Edge) Other(v int) int {
	if e.Vertices[0] == v {
		return e.Vertices[1]
	}
	return e.Vertices[0]
}

// Body is a point mass with position, velocity and a force accumulator.
type Body struct {
	Position r3.Vec
	Velocity r3.Vec
	Force    r3.Vec
}

// Geometry is the part of a mesh fixed at build time.
type Geometry struct {
	Attributes []Attributes
	Faces      []Face
	Edges      []Edge
	// CenterRest holds each vertex's rest distance to the centroid.
	CenterRest []float64
	Graph      Graph
}

// State is the part of a mesh mutated by the simulation every tick.
type State struct {
	Positions  []r3.Vec
	Velocities []r3.Vec
	// Forces is the per-vertex accumulator, zero between steps.
	Forces []r3.Vec
	// Centroid is the pseudo-body modelling whole-object volume elasticity.
	Centroid Body
}

// Mesh is a triangle mesh ready for simulation.
//
// The mesh exclusively owns every slice reachable from it. Callers may read
// Positions and Faces between ticks but must not keep references across a
// Reload.
type Mesh struct {
	Geometry
	State
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// EdgeCount returns the number of two-face edges.
func (m *Mesh) EdgeCount() int { return len(m.Edges) }

// UpdateNormals recomputes every face normal from the current positions.
// Degenerate triangles get a zero normal.
func (m *Mesh) UpdateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		m.Faces[i].Normal = triangleNormal(
			m.Positions[f.Vertices[0]],
			m.Positions[f.Vertices[1]],
			m.Positions[f.Vertices[2]],
		)
	}
}

// triangleNormal returns the unit normal of a counter-clockwise triangle.
func triangleNormal(p0, p1, p2 r3.Vec) r3.Vec {
	return math.UnitOrZero(r3.Cross(r3.Sub(p0, p1), r3.Sub(p1, p2)))
}

// EdgeLength returns the current length of edge i.
func (m *Mesh) EdgeLength(i int) float64 {
	e := m.Edges[i]
	return math.Distance(m.Positions[e.Vertices[0]], m.Positions[e.Vertices[1]])
}

// Bounds returns the axis-aligned bounding box of the current positions.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Positions) == 0 {
		return r3.Box{}
	}
	box := r3.Box{
		Min: r3.Vec{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)},
		Max: r3.Vec{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)},
	}
	for _, p := range m.Positions {
		box.Min.X = gomath.Min(box.Min.X, p.X)
		box.Min.Y = gomath.Min(box.Min.Y, p.Y)
		box.Min.Z = gomath.Min(box.Min.Z, p.Z)
		box.Max.X = gomath.Max(box.Max.X, p.X)
		box.Max.Y = gomath.Max(box.Max.Y, p.Y)
		box.Max.Z = gomath.Max(box.Max.Z, p.Z)
	}
	return box
}

// Reload replaces the mesh with one built from src. The new mesh is built in
// full before anything is swapped, so on error m is left untouched.
func (m *Mesh) Reload(src Source, opts BuildOptions) error {
	staged, err := Build(src, opts)
	if err != nil {
		return err
	}
	*m = *staged
	return nil
}

// centroidOf returns the mean of the points.
func centroidOf(points []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}
