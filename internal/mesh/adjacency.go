package mesh

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// Strategy selects the edge discovery algorithm.
type Strategy int

const (
	// StrategyIndexed keys a hash map by vertex pair. Linear in face count.
	StrategyIndexed Strategy = iota
	// StrategyPairwise compares every pair of faces. Quadratic in face count.
	StrategyPairwise
)

// String returns the strategy name as used in config files.
func (s Strategy) String() string {
	switch s {
	case StrategyIndexed:
		return "indexed"
	case StrategyPairwise:
		return "pairwise"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "indexed", "hash":
		return StrategyIndexed, nil
	case "pairwise", "brute":
		return StrategyPairwise, nil
	default:
		return 0, fmt.Errorf("unknown adjacency strategy %q", s)
	}
}

// FindEdges returns every vertex pair shared by exactly two faces, ordered by
// (Faces[0], Faces[1]). Vertices appear in the order they occur in the lower
// face. Pairs shared by three or more faces are non-manifold and dropped; the
// number of such pairs is returned alongside.
//
// Both strategies produce identical output.
func FindEdges(faces []Face, positions []r3.Vec, strategy Strategy) ([]Edge, int) {
	var (
		edges   []Edge
		dropped int
	)
	if strategy == StrategyPairwise {
		edges, dropped = pairwiseEdges(faces)
	} else {
		edges, dropped = indexedEdges(faces)
	}
	for i := range edges {
		e := &edges[i]
		e.RestLength = math.Distance(positions[e.Vertices[0]], positions[e.Vertices[1]])
	}
	return edges, dropped
}

// shared returns the vertices of a that also occur in b, in a's order.
func shared(a, b [3]int) (out [3]int, n int) {
	for _, va := range a {
		for _, vb := range b {
			if va == vb {
				out[n] = va
				n++
				break
			}
		}
	}
	return out, n
}

type pairKey [2]int

func keyOf(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func pairwiseEdges(faces []Face) ([]Edge, int) {
	edges := make([]Edge, 0, 3*len(faces))
	for i := range faces {
		for j := i + 1; j < len(faces); j++ {
			common, n := shared(faces[i].Vertices, faces[j].Vertices)
			if n != 2 {
				continue
			}
			edges = append(edges, Edge{
				Vertices: [2]int{common[0], common[1]},
				Faces:    [2]int{i, j},
			})
		}
	}

	// A pair bordering k > 2 faces yields k(k-1)/2 candidates, so any pair
	// seen more than once is non-manifold.
	seen := make(map[pairKey]int, len(edges))
	for _, e := range edges {
		seen[keyOf(e.Vertices[0], e.Vertices[1])]++
	}
	dropped := 0
	for _, n := range seen {
		if n > 1 {
			dropped++
		}
	}
	if dropped == 0 {
		return edges, 0
	}
	edges = slices.DeleteFunc(edges, func(e Edge) bool {
		return seen[keyOf(e.Vertices[0], e.Vertices[1])] > 1
	})
	return edges, dropped
}

// pairSlot collects the faces bordering one vertex pair.
type pairSlot struct {
	faces [2]int
	order [2]int
	count int
}

// sides lists the corner pairs of a triangle in ascending position order.
var sides = [3][2]int{{0, 1}, {0, 2}, {1, 2}}

func indexedEdges(faces []Face) ([]Edge, int) {
	slots := make(map[pairKey]pairSlot, 3*len(faces)/2)
	for fi, f := range faces {
		for _, s := range sides {
			a, b := f.Vertices[s[0]], f.Vertices[s[1]]
			k := keyOf(a, b)
			slot := slots[k]
			if slot.count == 0 {
				slot.order = [2]int{a, b}
			}
			if slot.count < 2 {
				slot.faces[slot.count] = fi
			}
			slot.count++
			slots[k] = slot
		}
	}

	edges := make([]Edge, 0, 3*len(faces))
	dropped := 0
	for _, slot := range slots {
		switch {
		case slot.count > 2:
			dropped++
		case slot.count == 2:
			// Duplicate triangles share all three vertices and never form an edge.
			if _, n := shared(faces[slot.faces[0]].Vertices, faces[slot.faces[1]].Vertices); n != 2 {
				continue
			}
			edges = append(edges, Edge{Vertices: slot.order, Faces: slot.faces})
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(a.Faces[0], b.Faces[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.Faces[1], b.Faces[1])
	})
	return edges, dropped
}
