package mesh

// Graph is the vertex neighbour relation in compressed sparse row form.
// The neighbours of v are Neighbors[Offsets[v]:Offsets[v+1]].
type Graph struct {
	Offsets   []int
	Neighbors []int
}

// NewGraph builds the neighbour relation of vertexCount vertices from the
// edge list. Both directions of every edge are recorded.
func NewGraph(vertexCount int, edges []Edge) Graph {
	offsets := make([]int, vertexCount+1)
	for _, e := range edges {
		offsets[e.Vertices[0]+1]++
		offsets[e.Vertices[1]+1]++
	}
	for v := 1; v <= vertexCount; v++ {
		offsets[v] += offsets[v-1]
	}

	neighbors := make([]int, offsets[vertexCount])
	fill := make([]int, vertexCount)
	copy(fill, offsets[:vertexCount])
	for _, e := range edges {
		a, b := e.Vertices[0], e.Vertices[1]
		neighbors[fill[a]] = b
		fill[a]++
		neighbors[fill[b]] = a
		fill[b]++
	}
	return Graph{Offsets: offsets, Neighbors: neighbors}
}

// NeighborsOf returns the vertices sharing an edge with v. The returned
// slice aliases the graph and must not be modified.
func (g Graph) NeighborsOf(v int) []int {
	return g.Neighbors[g.Offsets[v]:g.Offsets[v+1]]
}

// Degree returns the number of neighbours of v.
func (g Graph) Degree(v int) int {
	return g.Offsets[v+1] - g.Offsets[v]
}

// VertexCount returns the number of vertices the graph was built for.
func (g Graph) VertexCount() int {
	if len(g.Offsets) == 0 {
		return 0
	}
	return len(g.Offsets) - 1
}
