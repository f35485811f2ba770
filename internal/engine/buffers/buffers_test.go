package buffers

import (
	gomath "math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/silhouette"
)

func TestAppendTriangles(t *testing.T) {
	m, err := mesh.Build(mesh.Cube(1), mesh.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	buf := AppendTriangles(nil, m)
	if want := m.FaceCount() * 3 * LitStride; len(buf) != want {
		t.Fatalf("expected %d floats, got %d", want, len(buf))
	}

	// Second vertex of the first face.
	f := m.Faces[0]
	p := m.Positions[f.Vertices[1]]
	got := buf[LitStride : 2*LitStride]
	want := []float32{
		float32(p.X), float32(p.Y), float32(p.Z),
		float32(f.Normal.X), float32(f.Normal.Y), float32(f.Normal.Z),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected vertex %v, got %v", want, got)
		}
	}

	// Reusing the buffer must not grow it.
	again := AppendTriangles(buf[:0], m)
	if len(again) != len(buf) || &again[0] != &buf[0] {
		t.Error("expected the staging buffer to be reused")
	}
}

func TestAppendSegments(t *testing.T) {
	m, err := mesh.Build(mesh.Cube(1), mesh.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	buf := AppendSegments(nil, silhouette.Segments(m, r3.Vec{Z: 1}))
	if len(buf) != 4*2*LineStride {
		t.Fatalf("expected 4 lines, got %d floats", len(buf))
	}
	for i := 2; i < len(buf); i += LineStride {
		if buf[i] != 0.5 {
			t.Errorf("expected outline on the front face z=0.5, got z=%v", buf[i])
		}
	}
}

func TestAppendWireSphere(t *testing.T) {
	center := r3.Vec{X: 1, Y: -2, Z: 0.5}
	buf := AppendWireSphere(nil, center, 0.25, 5, 5)

	lines := (5-1)*5 + 5*5
	if len(buf) != lines*2*LineStride {
		t.Fatalf("expected %d lines, got %d floats", lines, len(buf))
	}
	for i := 0; i < len(buf); i += LineStride {
		p := r3.Vec{X: float64(buf[i]), Y: float64(buf[i+1]), Z: float64(buf[i+2])}
		if d := r3.Norm(r3.Sub(p, center)); gomath.Abs(d-0.25) > 1e-6 {
			t.Fatalf("vertex %v is %v from the center, expected 0.25", p, d)
		}
	}
}

func TestAppendAxes(t *testing.T) {
	buf := AppendAxes(nil, 2)
	want := []float32{
		0, 0, 0, 2, 0, 0,
		0, 0, 0, 0, 2, 0,
		0, 0, 0, 0, 0, 2,
	}
	if len(buf) != len(want) {
		t.Fatalf("expected %d floats, got %d", len(want), len(buf))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], buf[i])
		}
	}
}
