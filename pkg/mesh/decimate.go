package mesh

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/meshsplit/pkg/math"
)

const (
	maxPlanarPasses   = 16
	maxCollapsePasses = 32
)

// DissolvePlanar removes interior vertices whose surrounding faces are
// coplanar within maxAngle radians and share one material, collapsing each
// onto a ring neighbor that keeps every remaining triangle's orientation.
// Boundary vertices and material borders are never touched. Passes repeat
// until nothing changes or the vertex count reaches limit (0 = no limit).
// Returns the number of vertices removed.
func (m *Mesh) DissolvePlanar(maxAngle float64, limit int) int {
	before := len(m.Vertices)
	cosLimit := gomath.Cos(maxAngle)
	for pass := 0; pass < maxPlanarPasses; pass++ {
		if limit > 0 && len(m.Vertices) <= limit {
			break
		}
		if m.dissolvePlanarPass(cosLimit, limit) == 0 {
			break
		}
	}
	return before - len(m.Vertices)
}

func (m *Mesh) dissolvePlanarPass(cosLimit float64, limit int) int {
	adj := BuildAdjacency(m)
	remap := identityRemap(len(m.Vertices))
	// A collapse invalidates the fans of v and its ring, so each pass only
	// touches vertices whose neighborhoods are still pristine.
	locked := make([]bool, len(m.Vertices))
	alive := len(m.Vertices)
	collapsed := 0

	for v := range m.Vertices {
		if limit > 0 && alive-collapsed <= limit {
			break
		}
		if locked[v] {
			continue
		}
		faces := adj.VertexFaces[v]
		if len(faces) < 3 || !m.isPlanarFan(faces, cosLimit) {
			continue
		}
		ring := adj.Neighbors(m, v)
		if !m.isClosedFan(faces, ring) {
			continue
		}
		u := m.collapseTarget(v, faces, ring)
		if u < 0 {
			continue
		}
		remap[v] = u
		locked[v] = true
		for _, w := range ring {
			locked[w] = true
		}
		collapsed++
	}

	if collapsed == 0 {
		return 0
	}
	m.applyRemap(remap)
	m.RemoveDegenerateFaces()
	m.RemoveUnreferencedVertices()
	return collapsed
}

// isPlanarFan reports whether all faces share one material and their normals
// lie within the angular limit of the first face's normal.
func (m *Mesh) isPlanarFan(faces []int, cosLimit float64) bool {
	ref := m.FaceNormal(faces[0]).Normalize()
	if ref == (math.Vec3{}) {
		return false
	}
	mat := m.Faces[faces[0]].Material
	for _, fi := range faces[1:] {
		if m.Faces[fi].Material != mat {
			return false
		}
		n := m.FaceNormal(fi).Normalize()
		if n.Dot(ref) < cosLimit {
			return false
		}
	}
	return true
}

// isClosedFan reports whether every ring edge is shared by exactly two fan
// faces, i.e. the vertex is interior to a manifold patch.
func (m *Mesh) isClosedFan(faces, ring []int) bool {
	for _, w := range ring {
		count := 0
		for _, fi := range faces {
			f := m.Faces[fi].V
			if f[0] == w || f[1] == w || f[2] == w {
				count++
			}
		}
		if count != 2 {
			return false
		}
	}
	return true
}

// collapseTarget picks the lowest ring vertex u such that moving v onto u
// leaves every surviving fan triangle non-degenerate with its normal still
// facing the same way. Returns -1 if none qualifies.
func (m *Mesh) collapseTarget(v int, faces, ring []int) int {
	for _, u := range ring {
		ok := true
		for _, fi := range faces {
			f := m.Faces[fi].V
			if f[0] == u || f[1] == u || f[2] == u {
				continue // becomes degenerate and is dropped
			}
			before := m.FaceNormal(fi)
			var p [3]math.Vec3
			for j, w := range f {
				if w == v {
					w = u
				}
				p[j] = m.Vertices[w]
			}
			after := math.TriangleNormal(p[0], p[1], p[2])
			if after.Length()*0.5 <= degenerateArea || after.Dot(before) <= 0 {
				ok = false
				break
			}
		}
		if ok {
			return u
		}
	}
	return -1
}

// CollapseEdges greedily collapses the shortest edges to their midpoints
// until at most target vertices remain or no edge can be collapsed. Within
// a pass each vertex takes part in at most one collapse, which spreads the
// reduction over the surface. Returns the number of vertices removed.
func (m *Mesh) CollapseEdges(target int) int {
	if target < 3 {
		target = 3
	}
	before := len(m.Vertices)
	for pass := 0; pass < maxCollapsePasses && len(m.Vertices) > target; pass++ {
		if m.collapsePass(target) == 0 {
			break
		}
	}
	return before - len(m.Vertices)
}

type edge struct {
	a, b  int
	lenSq float64
}

func (m *Mesh) collapsePass(target int) int {
	edges := m.sortedEdges()
	remap := identityRemap(len(m.Vertices))
	locked := make([]bool, len(m.Vertices))
	alive := len(m.Vertices)
	collapsed := 0

	for _, e := range edges {
		if alive-collapsed <= target {
			break
		}
		if locked[e.a] || locked[e.b] {
			continue
		}
		m.Vertices[e.a] = m.Vertices[e.a].Lerp(m.Vertices[e.b], 0.5)
		remap[e.b] = e.a
		locked[e.a] = true
		locked[e.b] = true
		collapsed++
	}

	if collapsed == 0 {
		return 0
	}
	m.applyRemap(remap)
	m.RemoveDegenerateFaces()
	m.RemoveUnreferencedVertices()
	return collapsed
}

// sortedEdges returns the unique edges ordered by length, then by index.
func (m *Mesh) sortedEdges() []edge {
	edges := make([]edge, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		for j := 0; j < 3; j++ {
			a, b := f.V[j], f.V[(j+1)%3]
			if a > b {
				a, b = b, a
			}
			edges = append(edges, edge{a: a, b: b, lenSq: m.Vertices[a].DistanceSq(m.Vertices[b])})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].lenSq != edges[j].lenSq {
			return edges[i].lenSq < edges[j].lenSq
		}
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})

	unique := edges[:0]
	for _, e := range edges {
		if n := len(unique); n > 0 && unique[n-1].a == e.a && unique[n-1].b == e.b {
			continue
		}
		unique = append(unique, e)
	}
	return unique
}

func identityRemap(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

func (m *Mesh) applyRemap(remap []int) {
	for i := range m.Faces {
		for j := range m.Faces[i].V {
			m.Faces[i].V[j] = remap[m.Faces[i].V[j]]
		}
	}
}
