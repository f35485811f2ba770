package mesh

import (
	"errors"
	"fmt"
	gomath "math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/pkg/math"
)

// Source validation errors.
var (
	ErrEmptyMesh       = errors.New("mesh has no vertices or no faces")
	ErrAttributeCount  = errors.New("attribute count does not match vertex count")
	ErrFaceTooSmall    = errors.New("face has fewer than 3 vertices")
	ErrIndexOutOfRange = errors.New("vertex index out of range")
	ErrDegenerateFace  = errors.New("face repeats a vertex")
	ErrNonFinite       = errors.New("vertex position is not finite")
)

// Source is the raw vertex/face description produced by a loader.
type Source struct {
	Positions []r3.Vec
	// Attributes is either empty or parallel to Positions.
	Attributes []Attributes
	// Faces lists vertex indices per polygon. Polygons with more than three
	// vertices are fan-triangulated.
	Faces [][]int
}

// BuildOptions controls mesh construction.
type BuildOptions struct {
	Strategy Strategy
	// Normalize recentres the mesh on its centroid and scales it so every
	// coordinate lies in [-1, 1].
	Normalize bool
}

// Validate checks that src can be built without touching any index
// outside its arrays.
func (src Source) Validate() error {
	if len(src.Positions) == 0 || len(src.Faces) == 0 {
		return ErrEmptyMesh
	}
	if len(src.Attributes) != 0 && len(src.Attributes) != len(src.Positions) {
		return fmt.Errorf("%w: %d attributes for %d vertices",
			ErrAttributeCount, len(src.Attributes), len(src.Positions))
	}
	for i, p := range src.Positions {
		if !math.IsFinite(p) {
			return fmt.Errorf("%w: vertex %d", ErrNonFinite, i)
		}
	}
	for i, f := range src.Faces {
		if len(f) < 3 {
			return fmt.Errorf("%w: face %d has %d", ErrFaceTooSmall, i, len(f))
		}
		for j, idx := range f {
			if idx < 0 || idx >= len(src.Positions) {
				return fmt.Errorf("%w: face %d index %d = %d (vertex count %d)",
					ErrIndexOutOfRange, i, j, idx, len(src.Positions))
			}
			for _, prev := range f[:j] {
				if prev == idx {
					return fmt.Errorf("%w: face %d vertex %d", ErrDegenerateFace, i, idx)
				}
			}
		}
	}
	return nil
}

// Build validates src and constructs a mesh with adjacency, rest lengths,
// rest centroid distances and zeroed dynamic state. src is not modified.
func Build(src Source, opts BuildOptions) (*Mesh, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	positions := slices.Clone(src.Positions)
	if opts.Normalize {
		normalize(positions)
	}

	faces := triangulate(src.Faces)
	edges, dropped := FindEdges(faces, positions, opts.Strategy)

	centroid := centroidOf(positions)
	centerRest := make([]float64, len(positions))
	for i, p := range positions {
		centerRest[i] = math.Distance(centroid, p)
	}

	attrs := make([]Attributes, len(positions))
	copy(attrs, src.Attributes)

	m := &Mesh{
		Geometry: Geometry{
			Attributes: attrs,
			Faces:      faces,
			Edges:      edges,
			CenterRest: centerRest,
			Graph:      NewGraph(len(positions), edges),
		},
		State: State{
			Positions:  positions,
			Velocities: make([]r3.Vec, len(positions)),
			Forces:     make([]r3.Vec, len(positions)),
			Centroid:   Body{Position: centroid},
		},
	}
	m.UpdateNormals()

	logger.Debug("mesh built",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()),
		zap.Int("edges", m.EdgeCount()),
		zap.Int("dropped_edges", dropped),
		zap.Stringer("strategy", opts.Strategy),
	)
	if open := openEdges(faces, edges); open > 0 {
		logger.Debug("mesh is not closed", zap.Int("open_edges", open))
	}
	return m, nil
}

// triangulate fans every polygon around its first vertex.
func triangulate(polys [][]int) []Face {
	faces := make([]Face, 0, len(polys))
	for _, p := range polys {
		for k := 1; k+1 < len(p); k++ {
			faces = append(faces, Face{Vertices: [3]int{p[0], p[k], p[k+1]}})
		}
	}
	return faces
}

// normalize centres the points on their mean and scales them into [-1, 1].
func normalize(points []r3.Vec) {
	c := centroidOf(points)
	var extent float64
	for i, p := range points {
		p = r3.Sub(p, c)
		points[i] = p
		extent = gomath.Max(extent, gomath.Max(gomath.Abs(p.X), gomath.Max(gomath.Abs(p.Y), gomath.Abs(p.Z))))
	}
	if extent == 0 {
		return
	}
	for i := range points {
		points[i] = r3.Scale(1/extent, points[i])
	}
}

// openEdges counts triangle sides that did not become two-face edges.
func openEdges(faces []Face, edges []Edge) int {
	return 3*len(faces) - 2*len(edges)
}
