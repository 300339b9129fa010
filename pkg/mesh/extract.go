package mesh

import "github.com/Faultbox/meshsplit/pkg/math"

// Extract materializes a vertex group as an independent mesh. Vertices keep
// their source index order; only faces whose three vertices are all in the
// group are kept, remapped to the local vertex range. Faces spanning groups
// are dropped. Material indices and the material table are copied as-is.
// Group indices outside the vertex range are ignored.
func Extract(m *Mesh, group []int) *Mesh {
	local := make([]int, len(m.Vertices))
	for i := range local {
		local[i] = -1
	}
	for _, v := range group {
		if v >= 0 && v < len(m.Vertices) {
			local[v] = 0
		}
	}

	out := &Mesh{
		Name:      m.Name,
		Materials: make([]Material, len(m.Materials)),
	}
	copy(out.Materials, m.Materials)

	out.Vertices = make([]math.Vec3, 0, len(group))
	for v := range m.Vertices {
		if local[v] < 0 {
			continue
		}
		local[v] = len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices[v])
	}

	for _, f := range m.Faces {
		a, b, c := local[f.V[0]], local[f.V[1]], local[f.V[2]]
		if a < 0 || b < 0 || c < 0 {
			continue
		}
		out.Faces = append(out.Faces, Face{V: [3]int{a, b, c}, Material: f.Material})
	}
	return out
}
