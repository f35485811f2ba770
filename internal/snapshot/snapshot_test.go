package snapshot

import (
	"errors"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/fauxgl"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/engine/camera"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/pkg/math"
)

func buildCube(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build(mesh.Cube(1), mesh.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func gray(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestMatrix(t *testing.T) {
	cam := camera.NewTurntableCamera()
	cam.Yaw = 0.9
	cam.Pitch = 0.2
	m := cam.MVP(1.5)
	fm := Matrix(m)

	for _, p := range []math.Vec3{{X: 0.3, Y: -0.2, Z: 0.5}, {X: -1, Y: 1, Z: 0}} {
		want := m.TransformPoint(p)
		got := fm.MulPosition(fauxgl.V(float64(p.X), float64(p.Y), float64(p.Z)))
		d := r3.Norm(r3.Sub(r3.Vec{X: got.X, Y: got.Y, Z: got.Z}, math.FromVec3(want)))
		if d > 1e-5 {
			t.Errorf("point %v: expected %v, got %v", p, want, got)
		}
	}
}

func TestRender_FilledCube(t *testing.T) {
	m := buildCube(t)
	opts := Options{Width: 64, Height: 48, Supersample: 2, Filled: true}

	img, err := Render(m, camera.NewTurntableCamera(), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("expected 64x48 image, got %v", b)
	}

	// Front face lit head-on: 0.6 * (0.7 + 0.5) = 0.72.
	if c := gray(img, 32, 24); c < 180 || c > 188 {
		t.Errorf("expected lit surface near 184 at the centre, got %d", c)
	}
	if c := gray(img, 2, 2); c > 30 {
		t.Errorf("expected background in the corner, got %d", c)
	}
}

func TestRender_SilhouetteOnly(t *testing.T) {
	m := buildCube(t)
	opts := Options{Width: 64, Height: 48, Supersample: 2, Silhouette: true}

	img, err := Render(m, camera.NewTurntableCamera(), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// The cube spans 0.6 of the 1.2 view height: a 24 pixel square
	// centred in the image, with its left side at x=20.
	var edge uint8
	for x := 18; x <= 22; x++ {
		edge = max(edge, gray(img, x, 24))
	}
	if edge < 128 {
		t.Errorf("expected a bright outline near x=20, got %d", edge)
	}
	if c := gray(img, 32, 24); c > 30 {
		t.Errorf("expected an unfilled interior, got %d", c)
	}
}

func TestRender_InvalidSize(t *testing.T) {
	if _, err := Render(buildCube(t), camera.NewTurntableCamera(), Options{}); err == nil {
		t.Error("expected error for empty image size")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Width, opts.Height, opts.Supersample = 32, 24, 1
	opts.Wireframe = true
	m := buildCube(t)

	for _, name := range []string{"cube.png", "cube.bmp", "cube.TIFF"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, m, camera.NewTurntableCamera(), opts); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("expected output file: %v", err)
			}
			defer f.Close()
			img, _, err := image.Decode(f)
			if err != nil {
				t.Fatalf("failed to decode output: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
				t.Errorf("expected 32x24 image, got %v", b)
			}
		})
	}

	err := Save(filepath.Join(dir, "cube.jpg"), m, camera.NewTurntableCamera(), opts)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWireframe(t *testing.T) {
	m := buildCube(t)
	if got := len(Wireframe(m)); got != 36 {
		t.Errorf("expected 36 lines, got %d", got)
	}
	if got := len(Outline(m, r3.Vec{Z: 1})); got != 4 {
		t.Errorf("expected 4 outline lines, got %d", got)
	}
}
