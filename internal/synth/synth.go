// Package synth generates meshes for tests and the CLI's synth command:
// flat grids with per-quad materials, and solid primitives tessellated from
// signed distance functions with sdfx.
package synth

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/mesh"
)

// ErrNoShapes is returned when Tessellate is given nothing to build.
var ErrNoShapes = errors.New("no shapes to tessellate")

// defaultCells is the marching cubes resolution along the longest axis.
const defaultCells = 64

// MaterialFunc chooses the material slot of the quad at grid cell (x, y).
type MaterialFunc func(x, y int) int

// Plane builds a flat XY grid of cols x rows quads with the given spacing,
// two triangles per quad: (cols+1)*(rows+1) vertices and 2*cols*rows faces.
// materials names the slots; matFn nil puts everything in slot 0.
func Plane(name string, cols, rows int, spacing float64, materials []string, matFn MaterialFunc) *mesh.Mesh {
	table := make([]mesh.Material, 0, len(materials))
	for _, n := range materials {
		table = append(table, mesh.Material{Name: n})
	}
	if len(table) == 0 {
		table = []mesh.Material{{Name: "default"}}
	}

	vertices := make([]math.Vec3, 0, (cols+1)*(rows+1))
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			vertices = append(vertices, math.Vec3{X: float64(x) * spacing, Y: float64(y) * spacing})
		}
	}

	idx := func(x, y int) int { return y*(cols+1) + x }
	quads := make([][]int, 0, cols*rows)
	mats := make([]int, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mat := 0
			if matFn != nil {
				mat = matFn(x, y)
			}
			quads = append(quads, []int{idx(x, y), idx(x+1, y), idx(x+1, y+1), idx(x, y+1)})
			mats = append(mats, mat)
		}
	}

	// Quads always have four corners, so fanning cannot fail.
	m, _ := mesh.FromPolygons(name, vertices, quads, mats, table)
	return m
}

// Halves returns a MaterialFunc giving slot 0 to quads left of column split
// and slot 1 to the rest.
func Halves(split int) MaterialFunc {
	return func(x, y int) int {
		if x < split {
			return 0
		}
		return 1
	}
}

// ShapeKind selects the primitive of a Shape.
type ShapeKind int

const (
	Box ShapeKind = iota
	Cylinder
	Sphere
)

// String returns the primitive name.
func (k ShapeKind) String() string {
	switch k {
	case Box:
		return "box"
	case Cylinder:
		return "cylinder"
	case Sphere:
		return "sphere"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// ParseShapeKind converts a primitive name to a ShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "box":
		return Box, nil
	case "cylinder":
		return Cylinder, nil
	case "sphere":
		return Sphere, nil
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// Shape is one solid primitive. Size is the box extent, (radius, _, height)
// for a cylinder and (radius, _, _) for a sphere. Each shape gets its own
// material slot named Material.
type Shape struct {
	Kind     ShapeKind `yaml:"kind"`
	Size     math.Vec3 `yaml:"size"`
	Center   math.Vec3 `yaml:"center"`
	Material string    `yaml:"material"`
}

func (s Shape) sdf3() (sdf.SDF3, error) {
	var (
		solid sdf.SDF3
		err   error
	)
	switch s.Kind {
	case Box:
		solid, err = sdf.Box3D(v3.Vec{X: s.Size.X, Y: s.Size.Y, Z: s.Size.Z}, 0)
	case Cylinder:
		solid, err = sdf.Cylinder3D(s.Size.Z, s.Size.X, 0)
	case Sphere:
		solid, err = sdf.Sphere3D(s.Size.X)
	default:
		err = fmt.Errorf("unknown shape kind %d", int(s.Kind))
	}
	if err != nil {
		return nil, err
	}
	m := sdf.Translate3d(v3.Vec{X: s.Center.X, Y: s.Center.Y, Z: s.Center.Z})
	return sdf.Transform3D(solid, m), nil
}

// Tessellate converts each shape to triangles with marching cubes (cells
// along the longest axis, 0 for the default) and concatenates them into one
// mesh, one material slot per shape. Marching cubes emits unshared corners,
// so the result is welded with the given epsilon.
func Tessellate(name string, shapes []Shape, cells int, weld float64) (*mesh.Mesh, error) {
	if len(shapes) == 0 {
		return nil, ErrNoShapes
	}
	if cells <= 0 {
		cells = defaultCells
	}

	m := &mesh.Mesh{Name: name}
	for i, s := range shapes {
		solid, err := s.sdf3()
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, s.Kind, err)
		}
		matName := s.Material
		if matName == "" {
			matName = fmt.Sprintf("%s_%d", s.Kind, i)
		}
		m.Materials = append(m.Materials, mesh.Material{Name: matName})

		triangles := render.ToTriangles(solid, render.NewMarchingCubesUniform(cells))
		for _, tri := range triangles {
			base := len(m.Vertices)
			for j := 0; j < 3; j++ {
				v := tri[j]
				m.Vertices = append(m.Vertices, math.Vec3{X: v.X, Y: v.Y, Z: v.Z})
			}
			m.Faces = append(m.Faces, mesh.Face{
				V:        [3]int{base, base + 1, base + 2},
				Material: i,
			})
		}
	}

	m.Clean(weld)
	return m, nil
}
