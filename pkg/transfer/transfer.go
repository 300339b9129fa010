// Package transfer re-derives face materials on fragments from the mesh they
// were cut from.
//
// A Snapshot is taken once, before any splitting: it keeps the source
// positions, each vertex's dominant material and a spatial index over the
// positions. Transfer then maps every fragment vertex to the snapshot vertex
// at (nearly) the same position and votes per face.
package transfer

import (
	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/mesh"
	"github.com/Faultbox/meshsplit/pkg/spatial"
)

// DefaultEpsilon is the match distance used by the reference pipeline.
const DefaultEpsilon = 0.001

// Snapshot is an immutable view of a source mesh. It is safe for concurrent
// use by multiple Transfer calls.
type Snapshot struct {
	positions []math.Vec3
	dominant  []int
	materials []mesh.Material
	index     *spatial.Index
}

// NewSnapshot copies the positions of m and precomputes the dominant
// material of every vertex. m may be modified afterwards.
//
// Material slots holding the same material (by name) are folded into one,
// keeping the first slot's position, so the snapshot's slot list has no
// duplicates.
func NewSnapshot(m *mesh.Mesh) *Snapshot {
	slots, remap := distinctSlots(m.Materials)

	s := &Snapshot{
		positions: append([]math.Vec3(nil), m.Vertices...),
		dominant:  dominantMaterials(m, remap),
		materials: slots,
	}
	s.index = spatial.New(s.positions)
	return s
}

// Len returns the number of snapshot vertices.
func (s *Snapshot) Len() int {
	return len(s.positions)
}

// Dominant returns the dominant material slot of snapshot vertex v, or
// NoMaterial when no material face touches it.
func (s *Snapshot) Dominant(v int) int {
	return s.dominant[v]
}

// Materials returns a copy of the snapshot's slot list.
func (s *Snapshot) Materials() []mesh.Material {
	return append([]mesh.Material(nil), s.materials...)
}

// distinctSlots folds duplicate material slots together. remap[i] is the
// distinct slot for original slot i.
func distinctSlots(table []mesh.Material) ([]mesh.Material, []int) {
	var out []mesh.Material
	remap := make([]int, len(table))
	seen := make(map[string]int)
	for i, mat := range table {
		if j, ok := seen[mat.Name]; ok {
			remap[i] = j
			continue
		}
		seen[mat.Name] = len(out)
		remap[i] = len(out)
		out = append(out, mat)
	}
	return out, remap
}

// dominantMaterials tallies incident face materials per vertex, counting
// each face under its distinct slot remap[material], and keeps the most
// frequent. Ties go to the lowest slot; faces without a material are ignored.
func dominantMaterials(m *mesh.Mesh, remap []int) []int {
	counts := make([]map[int]int, len(m.Vertices))
	for _, f := range m.Faces {
		if f.Material == mesh.NoMaterial {
			continue
		}
		for _, v := range f.V {
			if counts[v] == nil {
				counts[v] = make(map[int]int, 2)
			}
			counts[v][remap[f.Material]]++
		}
	}

	dominant := make([]int, len(m.Vertices))
	for v, tally := range counts {
		dominant[v] = argmax(tally)
	}
	return dominant
}

// argmax returns the key with the highest count, lowest key on ties, or
// NoMaterial for an empty tally.
func argmax(tally map[int]int) int {
	best, bestCount := mesh.NoMaterial, 0
	for mat, n := range tally {
		if n > bestCount || (n == bestCount && mat < best) {
			best, bestCount = mat, n
		}
	}
	return best
}

// Stats summarizes one Transfer call.
type Stats struct {
	Vertices   int     `yaml:"vertices"`
	Matched    int     `yaml:"matched"`
	Faces      int     `yaml:"faces"`
	Defaulted  int     `yaml:"defaulted_faces"`
	Confidence float64 `yaml:"confidence"`
}

// Transfer rewrites the face materials of frag from snap. Each fragment
// vertex within eps (strictly) of a snapshot vertex takes that vertex's
// dominant material as a hint; each face takes the most common hint among
// its corners, lowest slot on ties, or slot 0 when no corner has a hint.
// The fragment's slot list is replaced by the snapshot's. If the snapshot
// has no slots at all, unhinted faces get NoMaterial instead of 0.
//
// Transfer only reads snap and is deterministic.
func Transfer(frag *mesh.Mesh, snap *Snapshot, eps float64) Stats {
	stats := Stats{Vertices: len(frag.Vertices), Faces: len(frag.Faces)}

	hints := make([]int, len(frag.Vertices))
	for v, p := range frag.Vertices {
		hints[v] = mesh.NoMaterial
		id, ok := snap.index.Within(p, eps)
		if !ok {
			continue
		}
		stats.Matched++
		hints[v] = snap.dominant[id]
	}

	fallback := 0
	if len(snap.materials) == 0 {
		fallback = mesh.NoMaterial
	}

	tally := make(map[int]int, 3)
	for i := range frag.Faces {
		for k := range tally {
			delete(tally, k)
		}
		for _, v := range frag.Faces[i].V {
			if h := hints[v]; h != mesh.NoMaterial {
				tally[h]++
			}
		}
		mat := argmax(tally)
		if mat == mesh.NoMaterial {
			mat = fallback
			stats.Defaulted++
		}
		frag.Faces[i].Material = mat
	}

	frag.Materials = snap.Materials()
	if stats.Vertices > 0 {
		stats.Confidence = float64(stats.Matched) / float64(stats.Vertices)
	}
	return stats
}
