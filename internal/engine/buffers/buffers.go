// Package buffers flattens meshes and overlays into interleaved float32
// vertex data ready for upload.
package buffers

import (
	"iter"
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/silhouette"
)

// Vertex layouts.
const (
	LitStride  = 6 // position, normal
	LineStride = 3 // position
)

// AppendTriangles appends every face of m as three flat-shaded vertices.
// Face normals must be current.
func AppendTriangles(dst []float32, m *mesh.Mesh) []float32 {
	for _, f := range m.Faces {
		n := f.Normal
		for _, v := range f.Vertices {
			p := m.Positions[v]
			dst = append(dst,
				float32(p.X), float32(p.Y), float32(p.Z),
				float32(n.X), float32(n.Y), float32(n.Z),
			)
		}
	}
	return dst
}

// AppendSegments appends each silhouette segment as a line.
func AppendSegments(dst []float32, segs iter.Seq[silhouette.Segment]) []float32 {
	for s := range segs {
		dst = appendLine(dst, s.A, s.B)
	}
	return dst
}

// AppendWireSphere appends a latitude/longitude wire sphere as lines.
func AppendWireSphere(dst []float32, center r3.Vec, radius float64, rings, segments int) []float32 {
	point := func(i, j int) r3.Vec {
		st, ct := gomath.Sincos(gomath.Pi * float64(i) / float64(rings))
		sp, cp := gomath.Sincos(2 * gomath.Pi * float64(j) / float64(segments))
		return r3.Add(center, r3.Scale(radius, r3.Vec{X: st * cp, Y: ct, Z: st * sp}))
	}
	for i := 1; i < rings; i++ {
		for j := range segments {
			dst = appendLine(dst, point(i, j), point(i, j+1))
		}
	}
	for j := range segments {
		for i := range rings {
			dst = appendLine(dst, point(i, j), point(i+1, j))
		}
	}
	return dst
}

// AppendAxes appends the X, Y and Z axes from the origin, in that order.
func AppendAxes(dst []float32, length float64) []float32 {
	dst = appendLine(dst, r3.Vec{}, r3.Vec{X: length})
	dst = appendLine(dst, r3.Vec{}, r3.Vec{Y: length})
	return appendLine(dst, r3.Vec{}, r3.Vec{Z: length})
}

func appendLine(dst []float32, a, b r3.Vec) []float32 {
	return append(dst,
		float32(a.X), float32(a.Y), float32(a.Z),
		float32(b.X), float32(b.Y), float32(b.Z),
	)
}
