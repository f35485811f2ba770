// Package silhouette finds the view-dependent outline of a mesh.
//
// An edge is on the silhouette when exactly one of its two faces points
// toward the viewer. Face normals must be current: call
// mesh.Mesh.UpdateNormals after the last tick and before extracting.
package silhouette

import (
	"iter"
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/mesh"
)

// FacingEpsilon is the smallest normal·view product that counts as facing
// the viewer. Faces seen exactly edge-on are treated as back-facing.
const FacingEpsilon = 1e-9

// Segment is one silhouette edge in current positions.
type Segment struct {
	Edge int
	A, B r3.Vec
}

// Extractor computes silhouettes. It keeps per-face scratch between calls
// and is not safe for concurrent use.
type Extractor struct {
	front []bool
}

// Segments returns the silhouette edges of m seen along view. The view
// vector points from the scene toward the viewer.
//
// The sequence reads m lazily and may be ranged over more than once; each
// pass reflects the positions at the time it runs. The mesh must not be
// ticked while a pass is in progress.
func (x *Extractor) Segments(m *mesh.Mesh, view r3.Vec) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		x.classify(m, view)
		for i, e := range m.Edges {
			if x.front[e.Faces[0]] == x.front[e.Faces[1]] {
				continue
			}
			s := Segment{
				Edge: i,
				A:    m.Positions[e.Vertices[0]],
				B:    m.Positions[e.Vertices[1]],
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Edges returns the indices of the silhouette edges of m seen along view.
func (x *Extractor) Edges(m *mesh.Mesh, view r3.Vec) []int {
	var out []int
	for s := range x.Segments(m, view) {
		out = append(out, s.Edge)
	}
	return out
}

// Segments is a convenience for one-off extraction with a fresh Extractor.
func Segments(m *mesh.Mesh, view r3.Vec) iter.Seq[Segment] {
	var x Extractor
	return x.Segments(m, view)
}

func (x *Extractor) classify(m *mesh.Mesh, view r3.Vec) {
	if cap(x.front) < len(m.Faces) {
		x.front = make([]bool, len(m.Faces))
	}
	x.front = x.front[:len(m.Faces)]
	for i, f := range m.Faces {
		x.front[i] = r3.Dot(f.Normal, view) > FacingEpsilon
	}
}

// YawView returns the horizontal view direction of a camera turned by yaw
// radians about the vertical axis. Yaw zero looks down the z axis.
func YawView(yaw float64) r3.Vec {
	s, c := gomath.Sincos(-yaw)
	return r3.Vec{X: s, Z: c}
}

// GroundView projects dir onto the ground plane, dropping its vertical
// component. A vertical dir yields the zero vector, for which no edge is
// on the silhouette.
func GroundView(dir r3.Vec) r3.Vec {
	dir.Y = 0
	n := r3.Norm(dir)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, dir)
}
