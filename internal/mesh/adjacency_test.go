package mesh

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFindEdges_StrategiesAgree(t *testing.T) {
	sources := map[string]Source{
		"cube":        Cube(1),
		"tetrahedron": Tetrahedron(1),
		"sphere":      UVSphere(1, 7, 9),
		"fan":         nonManifoldFan(),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			pair := mustBuild(t, src, BuildOptions{Strategy: StrategyPairwise})
			idx := mustBuild(t, src, BuildOptions{Strategy: StrategyIndexed})

			if !slices.Equal(pair.Edges, idx.Edges) {
				t.Errorf("edge lists differ:\npairwise %v\nindexed  %v", pair.Edges, idx.Edges)
			}
		})
	}
}

// nonManifoldFan has three triangles on the 0-1 pair and one ordinary edge 1-2.
func nonManifoldFan() Source {
	return Source{
		Positions: []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {Y: -1}, {X: 1, Y: 1}},
		Faces:     [][]int{{0, 1, 2}, {1, 0, 3}, {0, 1, 4}, {1, 5, 2}},
	}
}

func TestFindEdges_DropsNonManifoldPairs(t *testing.T) {
	src := nonManifoldFan()
	faces := triangulate(src.Faces)

	for _, s := range []Strategy{StrategyPairwise, StrategyIndexed} {
		t.Run(s.String(), func(t *testing.T) {
			edges, dropped := FindEdges(faces, src.Positions, s)
			if dropped != 1 {
				t.Errorf("expected 1 dropped pair, got %d", dropped)
			}
			if len(edges) != 1 {
				t.Fatalf("expected 1 edge, got %v", edges)
			}
			if edges[0].Vertices != [2]int{1, 2} || edges[0].Faces != [2]int{0, 3} {
				t.Errorf("expected edge [1 2] on faces [0 3], got %+v", edges[0])
			}
			if math.Abs(edges[0].RestLength-math.Sqrt2) > 1e-12 {
				t.Errorf("unexpected rest length %v", edges[0].RestLength)
			}
		})
	}
}

func TestFindEdges_DuplicateTriangle(t *testing.T) {
	faces := []Face{{Vertices: [3]int{0, 1, 2}}, {Vertices: [3]int{2, 1, 0}}}
	positions := []r3.Vec{{}, {X: 1}, {Y: 1}}

	for _, s := range []Strategy{StrategyPairwise, StrategyIndexed} {
		edges, _ := FindEdges(faces, positions, s)
		if len(edges) != 0 {
			t.Errorf("%s: expected no edges between identical triangles, got %v", s, edges)
		}
	}
}

func TestGraph_CubeNeighbors(t *testing.T) {
	m := mustBuild(t, Cube(1), BuildOptions{})

	got := slices.Sorted(slices.Values(m.Graph.NeighborsOf(0)))
	if !slices.Equal(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("expected neighbours 1..6 of vertex 0, got %v", got)
	}

	total := 0
	for v := range m.VertexCount() {
		total += m.Graph.Degree(v)
		for _, n := range m.Graph.NeighborsOf(v) {
			if !slices.Contains(m.Graph.NeighborsOf(n), v) {
				t.Errorf("neighbour relation not symmetric for %d-%d", v, n)
			}
		}
	}
	if total != 2*m.EdgeCount() {
		t.Errorf("expected degree sum %d, got %d", 2*m.EdgeCount(), total)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyIndexed, false},
		{"indexed", StrategyIndexed, false},
		{"Pairwise", StrategyPairwise, false},
		{"quadtree", 0, true},
	}

	for _, tc := range tests {
		got, err := ParseStrategy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseStrategy(%q): unexpected error state %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStrategy(%q): expected %s, got %s", tc.in, tc.want, got)
		}
	}
}
