package mesh

import "github.com/Faultbox/meshsplit/pkg/math"

// SplitByPlane divides the mesh at the plane perpendicular to axis through
// coordinate pos. Each face goes to the side holding its centroid, so the
// face count is conserved; vertices shared by faces on both sides are
// duplicated into each half. Either half may come back empty.
func (m *Mesh) SplitByPlane(axis int, pos float64) (below, above *Mesh) {
	below = &Mesh{Name: m.Name, Materials: append([]Material(nil), m.Materials...)}
	above = &Mesh{Name: m.Name, Materials: append([]Material(nil), m.Materials...)}

	belowIdx := newRemapper(len(m.Vertices))
	aboveIdx := newRemapper(len(m.Vertices))

	for i, f := range m.Faces {
		dst, idx := above, aboveIdx
		if m.FaceCentroid(i).Axis(axis) < pos {
			dst, idx = below, belowIdx
		}
		var nf Face
		nf.Material = f.Material
		for j, v := range f.V {
			nf.V[j] = idx.get(v, &dst.Vertices, m.Vertices)
		}
		dst.Faces = append(dst.Faces, nf)
	}
	return below, above
}

// remapper assigns local indices to source vertices on first use.
type remapper []int

func newRemapper(n int) remapper {
	r := make(remapper, n)
	for i := range r {
		r[i] = -1
	}
	return r
}

func (r remapper) get(src int, dst *[]math.Vec3, vertices []math.Vec3) int {
	if r[src] < 0 {
		r[src] = len(*dst)
		*dst = append(*dst, vertices[src])
	}
	return r[src]
}
