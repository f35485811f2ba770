package mesh

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/formats"
)

// ErrUnsupportedFormat is returned for file extensions with no loader.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// LoadOptions controls file loading.
type LoadOptions struct {
	// WeldTolerance is the grid size STL corners are snapped to before
	// coincident corners are merged.
	WeldTolerance float32
}

// LoadFile reads a mesh file and returns its raw description. The format is
// chosen by extension: .ply (ASCII) or .stl (ASCII or binary). A path of the
// form "primitive:<name>" returns a built-in shape.
func LoadFile(path string, opts LoadOptions) (Source, error) {
	if name, ok := strings.CutPrefix(path, "primitive:"); ok {
		src, found := Primitive(name)
		if !found {
			return Source{}, fmt.Errorf("%w: unknown primitive %q", ErrUnsupportedFormat, name)
		}
		return src, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		ply, err := formats.ParsePLYFile(path)
		if err != nil {
			return Source{}, fmt.Errorf("loading %s: %w", path, err)
		}
		return FromPLY(ply), nil
	case ".stl":
		solid, err := formats.ParseSTLFile(path, opts.WeldTolerance)
		if err != nil {
			return Source{}, fmt.Errorf("loading %s: %w", path, err)
		}
		return FromSTL(solid), nil
	default:
		return Source{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromPLY converts a parsed PLY file.
func FromPLY(ply *formats.PLY) Source {
	src := Source{
		Positions:  make([]r3.Vec, len(ply.Vertices)),
		Attributes: make([]Attributes, len(ply.Vertices)),
		Faces:      ply.Faces,
	}
	for i, v := range ply.Vertices {
		src.Positions[i] = r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
		src.Attributes[i] = Attributes{
			Confidence: v.Confidence,
			Intensity:  v.Intensity,
			Color:      Color{R: v.R, G: v.G, B: v.B},
		}
	}
	return src
}

// FromSTL converts a welded STL solid. STL carries no per-vertex attributes.
func FromSTL(solid *formats.IndexedSTL) Source {
	src := Source{
		Positions: make([]r3.Vec, len(solid.Vertices)),
		Faces:     make([][]int, len(solid.Faces)),
	}
	for i, v := range solid.Vertices {
		src.Positions[i] = r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	for i, f := range solid.Faces {
		src.Faces[i] = []int{f[0], f[1], f[2]}
	}
	return src
}
