// Package snapshot renders a mesh to an image on the CPU, without a window
// or GPU. It draws the same layers as the interactive viewer from the same
// camera.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/engine/camera"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/silhouette"
	"github.com/Faultbox/softmesh/pkg/math"
)

// ErrUnsupportedFormat is returned for output extensions with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Colours and lighting, matching the viewer.
var (
	Background      = fauxgl.Gray(0.1)
	SurfaceColor    = fauxgl.Gray(0.6)
	WireframeColor  = fauxgl.Color{R: 1, G: 1, B: 0, A: 1}
	SilhouetteColor = fauxgl.White
	Ambient         = fauxgl.Gray(0.7)
	Diffuse         = fauxgl.Gray(0.5)
)

// lineBias pulls lines toward the eye so they win against the surface
// they lie on.
const lineBias = -1e-4

// Options controls the output image.
type Options struct {
	Width, Height int
	// Supersample renders at this multiple of the output size and
	// downsamples for antialiasing. Values below 1 mean 1.
	Supersample int

	Filled     bool
	Wireframe  bool
	Silhouette bool
}

// DefaultOptions renders the filled mesh with its outline.
func DefaultOptions() Options {
	return Options{
		Width:       800,
		Height:      600,
		Supersample: 4,
		Filled:      true,
		Silhouette:  true,
	}
}

// Render draws m as seen by cam. Face normals must be current.
func Render(m *mesh.Mesh, cam *camera.TurntableCamera, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	ss := max(1, opts.Supersample)

	ctx := fauxgl.NewContext(opts.Width*ss, opts.Height*ss)
	ctx.ClearColorBufferWith(Background)
	ctx.Cull = fauxgl.CullNone

	aspect := float32(opts.Width) / float32(opts.Height)
	matrix := Matrix(cam.MVP(aspect))
	view := cam.ViewDirection()

	if opts.Filled {
		light := fauxgl.V(view.X, view.Y, view.Z)
		shader := fauxgl.NewPhongShader(matrix, light, light.MulScalar(float64(cam.Distance)))
		shader.ObjectColor = SurfaceColor
		shader.AmbientColor = Ambient
		shader.DiffuseColor = Diffuse
		shader.SpecularPower = 0
		ctx.Shader = shader
		ctx.DrawTriangles(Triangles(m))
	}

	ctx.DepthBias = lineBias
	if opts.Wireframe {
		ctx.Shader = fauxgl.NewSolidColorShader(matrix, WireframeColor)
		ctx.LineWidth = float64(ss)
		ctx.DrawLines(Wireframe(m))
	}
	if opts.Silhouette {
		ctx.Shader = fauxgl.NewSolidColorShader(matrix, SilhouetteColor)
		ctx.LineWidth = float64(2 * ss)
		ctx.DrawLines(Outline(m, view))
	}

	img := ctx.Image()
	if ss > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

// Save renders m and writes it to path.
func Save(path string, m *mesh.Mesh, cam *camera.TurntableCamera, opts Options) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	img, err := Render(m, cam, opts)
	if err != nil {
		return err
	}
	return WriteImage(path, img)
}

// WriteImage encodes img to path. The extension picks the encoding:
// .png, .bmp, .tif or .tiff.
func WriteImage(path string, img image.Image) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".png" {
		if err := fauxgl.SavePNG(path, img); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if ext == ".bmp" {
		err = bmp.Encode(f, img)
	} else {
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func checkFormat(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".bmp", ".tif", ".tiff":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Matrix converts a column-major GPU matrix to fauxgl's row-major form.
func Matrix(m math.Mat4) fauxgl.Matrix {
	at := func(row, col int) float64 { return float64(m[col*4+row]) }
	return fauxgl.Matrix{
		X00: at(0, 0), X01: at(0, 1), X02: at(0, 2), X03: at(0, 3),
		X10: at(1, 0), X11: at(1, 1), X12: at(1, 2), X13: at(1, 3),
		X20: at(2, 0), X21: at(2, 1), X22: at(2, 2), X23: at(2, 3),
		X30: at(3, 0), X31: at(3, 1), X32: at(3, 2), X33: at(3, 3),
	}
}

// Triangles converts the faces of m with their flat normals.
func Triangles(m *mesh.Mesh) []*fauxgl.Triangle {
	out := make([]*fauxgl.Triangle, len(m.Faces))
	for i, f := range m.Faces {
		n := fauxgl.V(f.Normal.X, f.Normal.Y, f.Normal.Z)
		var v [3]fauxgl.Vertex
		for k, idx := range f.Vertices {
			p := m.Positions[idx]
			v[k] = fauxgl.Vertex{Position: fauxgl.V(p.X, p.Y, p.Z), Normal: n}
		}
		out[i] = fauxgl.NewTriangle(v[0], v[1], v[2])
	}
	return out
}

// Wireframe returns every face side as a line. Sides shared by two faces
// appear twice.
func Wireframe(m *mesh.Mesh) []*fauxgl.Line {
	out := make([]*fauxgl.Line, 0, 3*len(m.Faces))
	for _, f := range m.Faces {
		for k := range 3 {
			a := m.Positions[f.Vertices[k]]
			b := m.Positions[f.Vertices[(k+1)%3]]
			out = append(out, fauxgl.NewLineForPoints(fauxgl.V(a.X, a.Y, a.Z), fauxgl.V(b.X, b.Y, b.Z)))
		}
	}
	return out
}

// Outline returns the silhouette of m seen along view as lines.
func Outline(m *mesh.Mesh, view r3.Vec) []*fauxgl.Line {
	var out []*fauxgl.Line
	for s := range silhouette.Segments(m, view) {
		out = append(out, fauxgl.NewLineForPoints(
			fauxgl.V(s.A.X, s.A.Y, s.A.Z),
			fauxgl.V(s.B.X, s.B.Y, s.B.Z),
		))
	}
	return out
}
