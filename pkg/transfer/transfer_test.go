package transfer

import (
	"testing"

	"github.com/Faultbox/meshsplit/internal/synth"
	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/mesh"
)

// twoTriangles has a material-0 triangle at the origin and a material-1
// triangle at x=10.
func twoTriangles() *mesh.Mesh {
	return &mesh.Mesh{
		Name: "src",
		Vertices: []math.Vec3{
			{}, {X: 1}, {Y: 1},
			{X: 10}, {X: 11}, {X: 10, Y: 1},
		},
		Faces: []mesh.Face{
			{V: [3]int{0, 1, 2}, Material: 0},
			{V: [3]int{3, 4, 5}, Material: 1},
		},
		Materials: []mesh.Material{{Name: "stone"}, {Name: "grass"}},
	}
}

func offset(vs []math.Vec3, d float64) []math.Vec3 {
	out := make([]math.Vec3, len(vs))
	for i, v := range vs {
		out[i] = v.Add(math.Vec3{Z: d})
	}
	return out
}

func TestTransferMatchDistance(t *testing.T) {
	snap := NewSnapshot(twoTriangles())

	tests := []struct {
		name    string
		offset  float64
		want    int
		matched int
	}{
		{"exact", 0, 1, 3},
		{"inside epsilon", 0.0005, 1, 3},
		{"outside epsilon", 0.002, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag := &mesh.Mesh{
				Vertices: offset(twoTriangles().Vertices[3:], tt.offset),
				Faces:    []mesh.Face{{V: [3]int{0, 1, 2}, Material: mesh.NoMaterial}},
			}
			stats := Transfer(frag, snap, DefaultEpsilon)
			if frag.Faces[0].Material != tt.want {
				t.Errorf("material = %d, want %d", frag.Faces[0].Material, tt.want)
			}
			if stats.Matched != tt.matched {
				t.Errorf("matched = %d, want %d", stats.Matched, tt.matched)
			}
			if len(frag.Materials) != 2 {
				t.Errorf("fragment slots = %d, want 2", len(frag.Materials))
			}
		})
	}
}

func TestTransferFaceVote(t *testing.T) {
	snap := NewSnapshot(twoTriangles())

	// Two corners on grass, one on stone, plus a corner that matches nothing.
	frag := &mesh.Mesh{
		Vertices: []math.Vec3{{X: 10}, {X: 11}, {}, {X: 50}},
		Faces: []mesh.Face{
			{V: [3]int{0, 1, 2}},
			{V: [3]int{2, 3, 3}},
			{V: [3]int{0, 2, 3}},
		},
	}
	stats := Transfer(frag, snap, DefaultEpsilon)

	want := []int{1, 0, 0}
	for i, w := range want {
		if frag.Faces[i].Material != w {
			t.Errorf("face %d material = %d, want %d", i, frag.Faces[i].Material, w)
		}
	}
	if stats.Matched != 3 || stats.Defaulted != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", stats.Confidence)
	}
}

func TestDominantMaterial(t *testing.T) {
	// Vertex 0 touches two faces of slot 1 and one of slot 0; vertex 1 one
	// of each (tie); vertex 4 only an unmaterialed face.
	m := &mesh.Mesh{
		Vertices: make([]math.Vec3, 6),
		Faces: []mesh.Face{
			{V: [3]int{0, 1, 2}, Material: 1},
			{V: [3]int{0, 2, 3}, Material: 1},
			{V: [3]int{0, 1, 3}, Material: 0},
			{V: [3]int{4, 4, 4}, Material: mesh.NoMaterial},
		},
		Materials: []mesh.Material{{Name: "a"}, {Name: "b"}},
	}
	for i := range m.Vertices {
		m.Vertices[i] = math.Vec3{X: float64(i)}
	}

	snap := NewSnapshot(m)
	tests := []struct {
		v, want int
	}{
		{0, 1},
		{1, 0},
		{2, 1},
		{3, 0},
		{4, mesh.NoMaterial},
		{5, mesh.NoMaterial},
	}
	for _, tt := range tests {
		if got := snap.Dominant(tt.v); got != tt.want {
			t.Errorf("dominant(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestDistinctSlots(t *testing.T) {
	m := twoTriangles()
	m.Materials = []mesh.Material{{Name: "stone"}, {Name: "stone"}}

	snap := NewSnapshot(m)
	mats := snap.Materials()
	if len(mats) != 1 || mats[0].Name != "stone" {
		t.Fatalf("expected one distinct slot, got %+v", mats)
	}
	if snap.Dominant(4) != 0 {
		t.Errorf("duplicate slot not folded: dominant = %d", snap.Dominant(4))
	}
}

func TestDominantCountsFoldedSlots(t *testing.T) {
	// Vertex 0 touches one face of each slot. Slots 1 and 2 are both "moss",
	// so moss outvotes stone 2 to 1.
	m := &mesh.Mesh{
		Vertices: []math.Vec3{{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1}},
		Faces: []mesh.Face{
			{V: [3]int{0, 1, 2}, Material: 0},
			{V: [3]int{0, 2, 3}, Material: 1},
			{V: [3]int{0, 3, 4}, Material: 2},
		},
		Materials: []mesh.Material{{Name: "stone"}, {Name: "moss"}, {Name: "moss"}},
	}

	snap := NewSnapshot(m)
	if n := len(snap.Materials()); n != 2 {
		t.Fatalf("expected 2 distinct slots, got %d", n)
	}
	if got := snap.Dominant(0); got != 1 {
		t.Errorf("dominant = %d, want 1 (moss)", got)
	}
}

func TestTransferEmptyMaterialTable(t *testing.T) {
	m := twoTriangles()
	m.Materials = nil
	for i := range m.Faces {
		m.Faces[i].Material = mesh.NoMaterial
	}
	snap := NewSnapshot(m)

	frag := &mesh.Mesh{
		Vertices: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Faces:    []mesh.Face{{V: [3]int{0, 1, 2}, Material: 5}},
	}
	stats := Transfer(frag, snap, DefaultEpsilon)
	if frag.Faces[0].Material != mesh.NoMaterial {
		t.Errorf("material = %d, want NoMaterial", frag.Faces[0].Material)
	}
	if stats.Defaulted != 1 {
		t.Errorf("defaulted = %d, want 1", stats.Defaulted)
	}
	if err := frag.Validate(); err != nil {
		t.Errorf("fragment invalid: %v", err)
	}
}

func TestTransferDeterministic(t *testing.T) {
	checker := func(x, y int) int { return (x*7 + y*3) % 4 }
	src := synth.Plane("src", 20, 20, 0.5, []string{"a", "b", "c", "d"}, checker)
	snap := NewSnapshot(src)

	frag := mesh.Extract(src, []int{0, 1, 2, 21, 22, 23, 42, 43, 44})
	a := frag.Clone()
	b := frag.Clone()
	Transfer(a, snap, DefaultEpsilon)
	Transfer(b, snap, DefaultEpsilon)

	for i := range a.Faces {
		if a.Faces[i].Material != b.Faces[i].Material {
			t.Fatalf("face %d differs: %d vs %d", i, a.Faces[i].Material, b.Faces[i].Material)
		}
	}
	if err := a.Validate(); err != nil {
		t.Errorf("fragment invalid after transfer: %v", err)
	}
}

func TestTransferPreservesUniformMaterial(t *testing.T) {
	src := synth.Plane("src", 6, 6, 1, []string{"a", "b"}, synth.Halves(3))
	snap := NewSnapshot(src)

	// Left two columns only touch slot 0.
	frag := mesh.Extract(src, []int{0, 1, 2, 7, 8, 9, 14, 15, 16})
	for i := range frag.Faces {
		frag.Faces[i].Material = mesh.NoMaterial
	}
	stats := Transfer(frag, snap, DefaultEpsilon)
	for i, f := range frag.Faces {
		if f.Material != 0 {
			t.Errorf("face %d material = %d, want 0", i, f.Material)
		}
	}
	if stats.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", stats.Confidence)
	}
}
