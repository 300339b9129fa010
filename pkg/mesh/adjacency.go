package mesh

// Adjacency maps every vertex to the faces touching it and the distinct
// materials of those faces. It is a pure function of the mesh it was built
// from and must be rebuilt after any face or vertex edit.
type Adjacency struct {
	VertexFaces     [][]int // face indices per vertex, ascending
	VertexMaterials [][]int // distinct material indices per vertex, ascending
}

// BuildAdjacency indexes vertex-face and vertex-material relations.
// An empty mesh yields empty tables.
func BuildAdjacency(m *Mesh) *Adjacency {
	adj := &Adjacency{
		VertexFaces:     make([][]int, len(m.Vertices)),
		VertexMaterials: make([][]int, len(m.Vertices)),
	}

	for fi, f := range m.Faces {
		for _, v := range f.V {
			adj.VertexFaces[v] = append(adj.VertexFaces[v], fi)
			adj.VertexMaterials[v] = insertSorted(adj.VertexMaterials[v], f.Material)
		}
	}
	return adj
}

// MaterialVertices lists, for every material index in [0, count), the
// vertices touching a face of that material in ascending index order.
func (a *Adjacency) MaterialVertices(count int) [][]int {
	out := make([][]int, count)
	for v, mats := range a.VertexMaterials {
		for _, mat := range mats {
			if mat >= 0 && mat < count {
				out[mat] = append(out[mat], v)
			}
		}
	}
	return out
}

// Neighbors returns the distinct vertices sharing a face with v, ascending.
func (a *Adjacency) Neighbors(m *Mesh, v int) []int {
	var out []int
	for _, fi := range a.VertexFaces[v] {
		for _, u := range m.Faces[fi].V {
			if u != v {
				out = insertSorted(out, u)
			}
		}
	}
	return out
}

// insertSorted adds x to an ascending slice if it is not already present.
// Per-vertex material and neighbor sets are tiny, so a linear insert wins
// over a map.
func insertSorted(s []int, x int) []int {
	i := 0
	for i < len(s) && s[i] < x {
		i++
	}
	if i < len(s) && s[i] == x {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = x
	return s
}
