// Package partition splits a mesh's vertex set into groups.
//
// ByMaterial is the budget-bounded, material-priority partitioner: it walks
// materials in slot order and grows groups one face-hop at a time, sealing a
// group as soon as it reaches the budget. Grid is the simpler spatial split
// over the XY bounding box.
package partition

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshsplit/pkg/mesh"
)

// ErrInvalidBudget is returned when the vertex budget is below 1.
var ErrInvalidBudget = errors.New("vertex budget must be at least 1")

// Group is a set of source vertex indices, in the order they were assigned.
type Group []int

// builder accumulates groups under a hard size limit.
type builder struct {
	budget   int
	assigned []bool
	current  Group
	groups   []Group
}

func newBuilder(vertexCount, budget int) *builder {
	return &builder{
		budget:   budget,
		assigned: make([]bool, vertexCount),
	}
}

// add places v in the current group, sealing the group first if it is full.
// Already-assigned vertices are ignored.
func (b *builder) add(v int) bool {
	if b.assigned[v] {
		return false
	}
	if len(b.current) >= b.budget {
		b.seal()
	}
	b.current = append(b.current, v)
	b.assigned[v] = true
	return true
}

func (b *builder) seal() {
	if len(b.current) == 0 {
		return
	}
	if len(b.current) > b.budget {
		panic(fmt.Sprintf("partition: sealed group of %d vertices exceeds budget %d", len(b.current), b.budget))
	}
	b.groups = append(b.groups, b.current)
	b.current = nil
}

// pull adds every other vertex of the faces incident to v whose material is mat.
func (b *builder) pull(m *mesh.Mesh, adj *mesh.Adjacency, v, mat int) {
	for _, fi := range adj.VertexFaces[v] {
		f := m.Faces[fi]
		if f.Material != mat {
			continue
		}
		for _, u := range f.V {
			if u != v {
				b.add(u)
			}
		}
	}
}

// ByMaterial partitions the vertices of m into groups of at most budget
// vertices. Materials are visited in ascending slot order; for each, every
// unassigned vertex touching that material is added, followed by a one-hop
// pull of the other vertices of its same-material faces. Vertices reached by
// no material (no faces, or only NoMaterial faces) are swept up afterwards in
// index order, pulling through NoMaterial faces.
//
// The result is a true partition: every vertex appears in exactly one group.
func ByMaterial(m *mesh.Mesh, adj *mesh.Adjacency, materialCount, budget int) ([]Group, error) {
	if budget < 1 {
		return nil, fmt.Errorf("budget %d: %w", budget, ErrInvalidBudget)
	}
	b := newBuilder(len(m.Vertices), budget)

	perMaterial := adj.MaterialVertices(materialCount)
	for mat := 0; mat < materialCount; mat++ {
		for _, v := range perMaterial[mat] {
			if !b.add(v) {
				continue
			}
			b.pull(m, adj, v, mat)
		}
	}

	for v := range m.Vertices {
		if !b.add(v) {
			continue
		}
		b.pull(m, adj, v, mesh.NoMaterial)
	}

	b.seal()
	return b.groups, nil
}
