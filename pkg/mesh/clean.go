package mesh

import (
	gomath "math"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// degenerateArea is the triangle area below which a face is treated as zero-area.
const degenerateArea = 1e-12

// CleanStats reports what a hygiene pass removed.
type CleanStats struct {
	VerticesBefore int `yaml:"vertices_before"`
	VerticesAfter  int `yaml:"vertices_after"`
	Merged         int `yaml:"merged"`
	Degenerate     int `yaml:"degenerate_faces"`
	Unreferenced   int `yaml:"unreferenced"`
}

// Clean runs the hygiene pass: merge vertices closer than epsilon, drop
// zero-area faces, then drop vertices no face references. Order matters:
// merging creates degenerate faces, and dropping faces orphans vertices.
func (m *Mesh) Clean(epsilon float64) CleanStats {
	stats := CleanStats{VerticesBefore: len(m.Vertices)}
	stats.Merged = m.MergeByDistance(epsilon)
	stats.Degenerate = m.RemoveDegenerateFaces()
	stats.Unreferenced = m.RemoveUnreferencedVertices()
	stats.VerticesAfter = len(m.Vertices)
	return stats
}

type cellKey [3]int64

func cellOf(p math.Vec3, size float64) cellKey {
	return cellKey{
		int64(gomath.Floor(p.X / size)),
		int64(gomath.Floor(p.Y / size)),
		int64(gomath.Floor(p.Z / size)),
	}
}

// MergeByDistance welds every vertex onto the earliest vertex within epsilon
// of it, using a uniform hash grid with cell size epsilon so only the 27
// surrounding cells need checking. Faces are remapped; the vertex array is
// compacted. Returns the number of vertices removed.
func (m *Mesh) MergeByDistance(epsilon float64) int {
	if epsilon <= 0 || len(m.Vertices) < 2 {
		return 0
	}

	epsSq := epsilon * epsilon
	grid := make(map[cellKey][]int)
	remap := make([]int, len(m.Vertices))
	kept := make([]math.Vec3, 0, len(m.Vertices))

	for i, p := range m.Vertices {
		c := cellOf(p, epsilon)
		target := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, r := range grid[cellKey{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if kept[r].DistanceSq(p) <= epsSq {
							target = r
							break search
						}
					}
				}
			}
		}
		if target < 0 {
			target = len(kept)
			kept = append(kept, p)
			grid[c] = append(grid[c], target)
		}
		remap[i] = target
	}

	removed := len(m.Vertices) - len(kept)
	if removed == 0 {
		return 0
	}
	for i := range m.Faces {
		for j := range m.Faces[i].V {
			m.Faces[i].V[j] = remap[m.Faces[i].V[j]]
		}
	}
	m.Vertices = kept
	return removed
}

// RemoveDegenerateFaces removes faces that repeat a vertex index or have
// near-zero area. Returns the number of faces removed.
func (m *Mesh) RemoveDegenerateFaces() int {
	if len(m.Faces) == 0 {
		return 0
	}

	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		if f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2] {
			removed++
			continue
		}
		n := math.TriangleNormal(m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]])
		if n.Length()*0.5 <= degenerateArea {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	return removed
}

// RemoveUnreferencedVertices drops vertices not used by any face, compacting
// the vertex array and remapping face indices. Returns the number removed.
func (m *Mesh) RemoveUnreferencedVertices() int {
	if len(m.Vertices) == 0 {
		return 0
	}

	referenced := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		referenced[f.V[0]] = true
		referenced[f.V[1]] = true
		referenced[f.V[2]] = true
	}

	newIndex := make([]int, len(m.Vertices))
	newVertices := make([]math.Vec3, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if referenced[i] {
			newIndex[i] = len(newVertices)
			newVertices = append(newVertices, v)
		}
	}

	removed := len(m.Vertices) - len(newVertices)
	if removed == 0 {
		return 0
	}
	for i := range m.Faces {
		m.Faces[i].V[0] = newIndex[m.Faces[i].V[0]]
		m.Faces[i].V[1] = newIndex[m.Faces[i].V[1]]
		m.Faces[i].V[2] = newIndex[m.Faces[i].V[2]]
	}
	m.Vertices = newVertices
	return removed
}
