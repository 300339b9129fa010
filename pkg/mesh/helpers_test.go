package mesh

import (
	gomath "math"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// makeGrid creates a flat XY grid of cols x rows unit quads (two triangles
// each). matFn chooses the material of the quad at (x, y); nil means 0.
func makeGrid(cols, rows int, matFn func(x, y int) int) *Mesh {
	m := &Mesh{
		Name:      "grid",
		Materials: []Material{{Name: "a"}, {Name: "b"}},
	}
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			m.Vertices = append(m.Vertices, math.Vec3{X: float64(x), Y: float64(y)})
		}
	}
	idx := func(x, y int) int { return y*(cols+1) + x }
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mat := 0
			if matFn != nil {
				mat = matFn(x, y)
			}
			a, b, c, d := idx(x, y), idx(x+1, y), idx(x+1, y+1), idx(x, y+1)
			m.Faces = append(m.Faces,
				Face{V: [3]int{a, b, c}, Material: mat},
				Face{V: [3]int{a, c, d}, Material: mat},
			)
		}
	}
	return m
}

func totalArea(m *Mesh) float64 {
	var area float64
	for i := range m.Faces {
		area += m.FaceNormal(i).Length() * 0.5
	}
	return area
}

func approxEqual(a, b float64) bool {
	return gomath.Abs(a-b) < 1e-9
}
