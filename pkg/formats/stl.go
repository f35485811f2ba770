package formats

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hschendel/stl"
)

// ErrEmptySTL is returned when an STL solid has no triangles.
var ErrEmptySTL = errors.New("STL solid has no triangles")

// IndexedSTL is an STL solid with coincident corners welded into shared
// vertices, so adjacency can be derived from vertex indices.
type IndexedSTL struct {
	Name     string
	Vertices [][3]float32
	Faces    [][3]int
	// Welded counts corners that were merged into an existing vertex.
	Welded int
	// Collapsed counts triangles dropped because welding left them with
	// a repeated corner.
	Collapsed int
}

// ReadSTL reads an ASCII or binary STL stream and welds its vertices.
// Corners are snapped to a grid of size tol and merged when they land in
// the same cell; tol <= 0 merges only corners with equal coordinates.
func ReadSTL(r io.ReadSeeker, tol float32) (*IndexedSTL, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	return weldSTL(solid, tol)
}

// ParseSTLFile reads an STL file from disk and welds its vertices.
func ParseSTLFile(path string, tol float32) (*IndexedSTL, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return weldSTL(solid, tol)
}

type weldKey [3]int64

func weldSTL(solid *stl.Solid, tol float32) (*IndexedSTL, error) {
	if len(solid.Triangles) == 0 {
		return nil, ErrEmptySTL
	}

	out := &IndexedSTL{
		Name:  solid.Name,
		Faces: make([][3]int, 0, len(solid.Triangles)),
	}
	lookup := make(map[weldKey]int, len(solid.Triangles)/2)

	for ti, tri := range solid.Triangles {
		var face [3]int
		for c, corner := range tri.Vertices {
			if !finite32(corner) {
				return nil, fmt.Errorf("triangle %d corner %d: non-finite coordinate", ti, c)
			}
			key := quantize(corner, tol)
			idx, ok := lookup[key]
			if ok {
				out.Welded++
			} else {
				idx = len(out.Vertices)
				lookup[key] = idx
				out.Vertices = append(out.Vertices, [3]float32(corner))
			}
			face[c] = idx
		}
		if face[0] == face[1] || face[0] == face[2] || face[1] == face[2] {
			out.Collapsed++
			continue
		}
		out.Faces = append(out.Faces, face)
	}
	if len(out.Faces) == 0 {
		return nil, fmt.Errorf("%w: all %d triangles collapsed", ErrEmptySTL, out.Collapsed)
	}
	return out, nil
}

// quantize snaps a corner to the weld grid.
func quantize(v stl.Vec3, tol float32) weldKey {
	for i := range v {
		if v[i] == 0 {
			v[i] = 0 // -0 and +0 share a cell
		}
	}
	if tol <= 0 {
		return weldKey{
			int64(math.Float32bits(v[0])),
			int64(math.Float32bits(v[1])),
			int64(math.Float32bits(v[2])),
		}
	}
	return weldKey{
		int64(math.Round(float64(v[0] / tol))),
		int64(math.Round(float64(v[1] / tol))),
		int64(math.Round(float64(v[2] / tol))),
	}
}

func finite32(v stl.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
