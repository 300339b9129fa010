// Package meshio moves meshes in and out of files for the CLI: glTF/GLB
// sources, one GLB per fragment and a YAML run report.
package meshio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/mesh"
)

// ErrNoGeometry is returned when a glTF file holds no triangle primitives.
var ErrNoGeometry = errors.New("no triangle geometry")

// maxUint16Vertices is the largest vertex count written with uint16 indices.
// 65535 is the primitive restart value and may not appear in an index buffer.
const maxUint16Vertices = 65535

// yUpToZUp rotates glTF's +Y up frame into the Z up frame used by the
// partitioner and resolver: (x, y, z) becomes (x, -z, y).
var yUpToZUp = math.Mat4{
	1, 0, 0, 0,
	0, 0, 1, 0,
	0, -1, 0, 0,
	0, 0, 0, 1,
}

// toYUp is the inverse of yUpToZUp.
func toYUp(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.X, Y: v.Z, Z: -v.Y}
}

// Load reads a .gltf or .glb file and joins every triangle primitive reachable
// from the default scene into one mesh, with node transforms applied and
// positions rotated to Z up. Each glTF material becomes a slot; primitives
// without one get NoMaterial. The mesh is named after the file.
func Load(path string) (*mesh.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	m := &mesh.Mesh{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	for i, mat := range doc.Materials {
		name := mat.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		m.Materials = append(m.Materials, mesh.Material{Name: name})
	}

	for _, root := range rootNodes(doc) {
		if err := loadNode(doc, root, yUpToZUp, m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}
	return m, nil
}

// rootNodes returns the nodes of the default scene, or every parentless node
// when the file has no scenes.
func rootNodes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil {
			scene = int(*doc.Scene)
		}
		return doc.Scenes[scene].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// nodeMatrix returns a node's local transform, from its matrix when one is
// set and from TRS otherwise.
func nodeMatrix(n *gltf.Node) math.Mat4 {
	local := math.FromColumnMajor(n.MatrixOrDefault())
	if local != math.Identity() {
		return local
	}
	return math.FromTRS(
		math.FromArray(n.TranslationOrDefault()),
		math.QuatFromArray(n.RotationOrDefault()),
		math.FromArray(n.ScaleOrDefault()),
	)
}

func loadNode(doc *gltf.Document, idx uint32, parent math.Mat4, m *mesh.Mesh) error {
	if int(idx) >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	node := doc.Nodes[idx]
	world := parent.Mul(nodeMatrix(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", idx, *node.Mesh)
		}
		// Primitives of one mesh usually share a position accessor.
		bases := make(map[uint32]int)
		for pi, prim := range doc.Meshes[*node.Mesh].Primitives {
			if err := loadPrimitive(doc, prim, world, bases, m); err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *node.Mesh, pi, err)
			}
		}
	}

	for _, child := range node.Children {
		if err := loadNode(doc, child, world, m); err != nil {
			return err
		}
	}
	return nil
}

func loadPrimitive(doc *gltf.Document, prim *gltf.Primitive, world math.Mat4, bases map[uint32]int, m *mesh.Mesh) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	if int(posIdx) >= len(doc.Accessors) {
		return fmt.Errorf("position accessor %d out of range", posIdx)
	}
	count := int(doc.Accessors[posIdx].Count)
	base, shared := bases[posIdx]
	if !shared {
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("reading positions: %w", err)
		}
		base = len(m.Vertices)
		bases[posIdx] = base
		for _, p := range positions {
			m.Vertices = append(m.Vertices, world.TransformPoint(math.FromArray(p)))
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		var err error
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%d indices is not a triangle list", len(indices))
	}

	material := mesh.NoMaterial
	if prim.Material != nil {
		material = int(*prim.Material)
	}

	// Mirroring transforms flip winding.
	flip := world.Determinant3() < 0
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if a >= count || b >= count || c >= count {
			return fmt.Errorf("triangle %d references vertex beyond %d", i/3, count)
		}
		if flip {
			b, c = c, b
		}
		m.Faces = append(m.Faces, mesh.Face{
			V:        [3]int{base + a, base + b, base + c},
			Material: material,
		})
	}
	return nil
}

// SaveGLB writes m as a binary glTF with one node and one primitive per used
// material, all sharing a single position accessor. Positions are rotated
// back to glTF's Y up. Indices are written as uint16 when the vertex count
// allows it.
func SaveGLB(path string, m *mesh.Mesh) error {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "meshsplit"

	positions := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = toYUp(v).Array()
	}
	posAccessor := modeler.WritePosition(doc, positions)

	for _, mat := range m.Materials {
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: mat.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		})
	}

	gm := &gltf.Mesh{Name: m.Name}
	for _, mat := range m.MaterialsUsed() {
		var indices []uint32
		for _, f := range m.Faces {
			if f.Material != mat {
				continue
			}
			indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
		}

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(posAccessor),
			},
			Indices: gltf.Index(uint32(writeIndices(doc, indices, len(m.Vertices)))),
		}
		if mat != mesh.NoMaterial {
			prim.Material = gltf.Index(uint32(mat))
		}
		gm.Primitives = append(gm.Primitives, prim)
	}

	doc.Meshes = []*gltf.Mesh{gm}
	doc.Nodes = []*gltf.Node{{Name: m.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(0))

	return gltf.SaveBinary(doc, path)
}

func writeIndices(doc *gltf.Document, indices []uint32, vertexCount int) uint32 {
	if vertexCount > maxUint16Vertices {
		return uint32(modeler.WriteIndices(doc, indices))
	}
	small := make([]uint16, len(indices))
	for i, v := range indices {
		small[i] = uint16(v)
	}
	return uint32(modeler.WriteIndices(doc, small))
}
