package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshsplit/pkg/math"
)

func TestValidate(t *testing.T) {
	verts := []math.Vec3{{X: 0}, {X: 1}, {Y: 1}}
	tests := []struct {
		name    string
		mesh    *Mesh
		wantErr error
	}{
		{
			name:    "valid",
			mesh:    &Mesh{Vertices: verts, Faces: []Face{{V: [3]int{0, 1, 2}, Material: 0}}, Materials: []Material{{Name: "m"}}},
			wantErr: nil,
		},
		{
			name:    "no material sentinel",
			mesh:    &Mesh{Vertices: verts, Faces: []Face{{V: [3]int{0, 1, 2}, Material: NoMaterial}}},
			wantErr: nil,
		},
		{
			name:    "no faces",
			mesh:    &Mesh{Vertices: verts},
			wantErr: ErrNoFaces,
		},
		{
			name:    "vertex out of range",
			mesh:    &Mesh{Vertices: verts, Faces: []Face{{V: [3]int{0, 1, 3}, Material: NoMaterial}}},
			wantErr: ErrVertexIndex,
		},
		{
			name:    "material out of range",
			mesh:    &Mesh{Vertices: verts, Faces: []Face{{V: [3]int{0, 1, 2}, Material: 1}}, Materials: []Material{{Name: "m"}}},
			wantErr: ErrMaterialIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("error %v should wrap ErrInvalidMesh", err)
			}
		})
	}
}

func TestFromPolygons(t *testing.T) {
	verts := []math.Vec3{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 2}}
	m, err := FromPolygons("quad", verts, [][]int{{0, 1, 2, 3}, {1, 4, 2}}, []int{1, 0}, []Material{{Name: "a"}, {Name: "b"}})
	if err != nil {
		t.Fatalf("FromPolygons failed: %v", err)
	}
	if m.FaceCount() != 3 {
		t.Fatalf("expected 3 triangles, got %d", m.FaceCount())
	}
	if m.Faces[0].V != [3]int{0, 1, 2} || m.Faces[1].V != [3]int{0, 2, 3} {
		t.Errorf("unexpected fan: %v %v", m.Faces[0].V, m.Faces[1].V)
	}
	if m.Faces[0].Material != 1 || m.Faces[2].Material != 0 {
		t.Errorf("materials not carried: %+v", m.Faces)
	}

	_, err = FromPolygons("bad", verts, [][]int{{0, 1}}, nil, nil)
	if !errors.Is(err, ErrPolygonSize) {
		t.Errorf("expected ErrPolygonSize, got %v", err)
	}
}

func TestMaterialsUsed(t *testing.T) {
	m := makeGrid(2, 1, func(x, y int) int { return 1 })
	m.Faces[0].Material = NoMaterial
	got := m.MaterialsUsed()
	if len(got) != 2 || got[0] != NoMaterial || got[1] != 1 {
		t.Errorf("MaterialsUsed = %v, want [-1 1]", got)
	}
}

func TestClone(t *testing.T) {
	m := makeGrid(1, 1, nil)
	c := m.Clone()
	c.Vertices[0].X = 42
	c.Faces[0].Material = 1
	if m.Vertices[0].X == 42 || m.Faces[0].Material == 1 {
		t.Error("Clone shares storage with the original")
	}
}

func TestBuildAdjacency(t *testing.T) {
	// Two triangles sharing edge 1-2, different materials.
	m := &Mesh{
		Vertices: []math.Vec3{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {X: 5}},
		Faces: []Face{
			{V: [3]int{0, 1, 2}, Material: 1},
			{V: [3]int{1, 3, 2}, Material: 0},
		},
		Materials: []Material{{Name: "a"}, {Name: "b"}},
	}
	adj := BuildAdjacency(m)

	if got := adj.VertexFaces[1]; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("VertexFaces[1] = %v, want [0 1]", got)
	}
	if got := adj.VertexMaterials[2]; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("VertexMaterials[2] = %v, want [0 1]", got)
	}
	if len(adj.VertexFaces[4]) != 0 {
		t.Errorf("isolated vertex should have no faces, got %v", adj.VertexFaces[4])
	}
	per := adj.MaterialVertices(2)
	if len(per[0]) != 3 || per[0][0] != 1 || per[0][2] != 3 {
		t.Errorf("MaterialVertices[0] = %v, want [1 2 3]", per[0])
	}
	if len(per[1]) != 3 || per[1][0] != 0 {
		t.Errorf("MaterialVertices[1] = %v, want [0 1 2]", per[1])
	}
	if got := adj.Neighbors(m, 1); len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Neighbors(1) = %v, want [0 2 3]", got)
	}

	empty := BuildAdjacency(&Mesh{})
	if len(empty.VertexFaces) != 0 || len(empty.VertexMaterials) != 0 {
		t.Error("empty mesh should give empty tables")
	}
}

func TestExtract(t *testing.T) {
	// 2x1 grid: vertices 0..2 bottom row, 3..5 top row.
	m := makeGrid(2, 1, func(x, y int) int { return x })

	// Left column only: faces of the left quad survive.
	frag := Extract(m, []int{4, 0, 1, 3})
	if frag.VertexCount() != 4 {
		t.Fatalf("expected 4 vertices, got %d", frag.VertexCount())
	}
	// Source order is preserved: 0, 1, 3, 4.
	want := []math.Vec3{m.Vertices[0], m.Vertices[1], m.Vertices[3], m.Vertices[4]}
	for i, v := range want {
		if frag.Vertices[i] != v {
			t.Errorf("vertex %d = %v, want %v", i, frag.Vertices[i], v)
		}
	}
	if frag.FaceCount() != 2 {
		t.Fatalf("expected 2 faces, got %d", frag.FaceCount())
	}
	for _, f := range frag.Faces {
		if f.Material != 0 {
			t.Errorf("material changed: %d", f.Material)
		}
	}
	if err := frag.Validate(); err != nil {
		t.Errorf("extracted fragment invalid: %v", err)
	}
	if len(frag.Materials) != len(m.Materials) {
		t.Errorf("material table not copied")
	}

	// A group that straddles both quads without owning a whole face keeps no faces.
	frag = Extract(m, []int{1, 4})
	if frag.FaceCount() != 0 || frag.VertexCount() != 2 {
		t.Errorf("boundary faces should be dropped: %d faces, %d vertices", frag.FaceCount(), frag.VertexCount())
	}
}

func TestSplitByPlane(t *testing.T) {
	m := makeGrid(4, 2, nil)
	below, above := m.SplitByPlane(math.AxisX, 2)

	if below.FaceCount()+above.FaceCount() != m.FaceCount() {
		t.Fatalf("face count not conserved: %d + %d != %d", below.FaceCount(), above.FaceCount(), m.FaceCount())
	}
	if below.FaceCount() != 8 || above.FaceCount() != 8 {
		t.Errorf("expected 8/8 split, got %d/%d", below.FaceCount(), above.FaceCount())
	}
	for i := range below.Faces {
		if below.FaceCentroid(i).X >= 2 {
			t.Errorf("below face %d centroid on wrong side", i)
		}
	}
	for i := range above.Faces {
		if above.FaceCentroid(i).X < 2 {
			t.Errorf("above face %d centroid on wrong side", i)
		}
	}
	// The seam column x=2 has 3 vertices, shared by both halves.
	if below.VertexCount()+above.VertexCount() != m.VertexCount()+3 {
		t.Errorf("vertex total %d, want %d", below.VertexCount()+above.VertexCount(), m.VertexCount()+3)
	}
	if err := below.Validate(); err != nil {
		t.Errorf("below invalid: %v", err)
	}
	if err := above.Validate(); err != nil {
		t.Errorf("above invalid: %v", err)
	}

	// A plane outside the mesh leaves one side empty.
	below, above = m.SplitByPlane(math.AxisZ, 10)
	if above.FaceCount() != 0 || below.FaceCount() != m.FaceCount() {
		t.Errorf("expected everything below, got %d/%d", below.FaceCount(), above.FaceCount())
	}
}
