// Package mesh provides the triangle mesh model used by the partitioner:
// indexed vertices, per-face material indices, and the editing operations
// (extraction, hygiene, plane splitting, decimation) that work on it.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// NoMaterial marks a face that has no material slot assigned.
const NoMaterial = -1

// Mesh validation errors. All of them wrap ErrInvalidMesh.
var (
	ErrInvalidMesh   = errors.New("invalid mesh")
	ErrNoFaces       = fmt.Errorf("%w: mesh has no faces", ErrInvalidMesh)
	ErrVertexIndex   = fmt.Errorf("%w: face vertex index out of range", ErrInvalidMesh)
	ErrMaterialIndex = fmt.Errorf("%w: face material index out of range", ErrInvalidMesh)
	ErrPolygonSize   = fmt.Errorf("%w: polygon has fewer than 3 vertices", ErrInvalidMesh)
)

// Material is an opaque material handle. Only its slot position matters to
// the partitioner; the name identifies it for exporters.
type Material struct {
	Name string `yaml:"name"`
}

// Face is a triangle referencing three vertex indices and one material slot.
type Face struct {
	V        [3]int
	Material int
}

// Mesh is a triangulated mesh with a material table.
// Material slot order is significant: it is the partitioner's priority order.
type Mesh struct {
	Name      string
	Vertices  []math.Vec3
	Faces     []Face
	Materials []Material
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// Validate checks the structural invariants: at least one face, every face
// vertex index in range, every material index in range or NoMaterial.
func (m *Mesh) Validate() error {
	if len(m.Faces) == 0 {
		return ErrNoFaces
	}
	for i, f := range m.Faces {
		for _, v := range f.V {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("face %d vertex %d: %w", i, v, ErrVertexIndex)
			}
		}
		if f.Material != NoMaterial && (f.Material < 0 || f.Material >= len(m.Materials)) {
			return fmt.Errorf("face %d material %d (table has %d): %w", i, f.Material, len(m.Materials), ErrMaterialIndex)
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() math.Box3 {
	return math.BoundsOf(m.Vertices)
}

// FaceCentroid returns the centroid of face i.
func (m *Mesh) FaceCentroid(i int) math.Vec3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]
	return a.Add(b).Add(c).Scale(1.0 / 3.0)
}

// FaceNormal returns the unnormalized normal of face i (length = 2 * area).
func (m *Mesh) FaceNormal(i int) math.Vec3 {
	f := m.Faces[i]
	return math.TriangleNormal(m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]])
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Name:      m.Name,
		Vertices:  make([]math.Vec3, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Faces, m.Faces)
	copy(out.Materials, m.Materials)
	return out
}

// MaterialsUsed returns the distinct material indices referenced by faces,
// in ascending order. NoMaterial is included if any face lacks a material.
func (m *Mesh) MaterialsUsed() []int {
	seen := make(map[int]bool)
	for _, f := range m.Faces {
		seen[f.Material] = true
	}
	used := make([]int, 0, len(seen))
	if seen[NoMaterial] {
		used = append(used, NoMaterial)
	}
	for i := range m.Materials {
		if seen[i] {
			used = append(used, i)
		}
	}
	return used
}

// FromPolygons builds a triangulated mesh from n-gon polygons by fanning each
// polygon around its first vertex. materials[i] is the material of polygon i;
// a nil slice assigns NoMaterial everywhere.
func FromPolygons(name string, vertices []math.Vec3, polygons [][]int, materials []int, table []Material) (*Mesh, error) {
	m := &Mesh{
		Name:      name,
		Vertices:  vertices,
		Materials: table,
	}
	for i, poly := range polygons {
		if len(poly) < 3 {
			return nil, fmt.Errorf("polygon %d: %w", i, ErrPolygonSize)
		}
		mat := NoMaterial
		if materials != nil {
			mat = materials[i]
		}
		for j := 1; j+1 < len(poly); j++ {
			m.Faces = append(m.Faces, Face{
				V:        [3]int{poly[0], poly[j], poly[j+1]},
				Material: mat,
			})
		}
	}
	return m, nil
}
