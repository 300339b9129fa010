package partition

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshsplit/pkg/mesh"
)

// ErrInvalidGrid is returned for grids with fewer than one column or row.
var ErrInvalidGrid = errors.New("grid needs at least one column and one row")

// Grid divides the XY bounding box of m (the ground plane, Z is up) into
// cols x rows equal cells and returns one group per non-empty cell, ordered
// row by row. A vertex belongs
// to the last cell whose closed interval contains it on each axis. Vertices
// within seam of an interior grid line are also added to the cell on the
// other side of that line (and to all four cells around a grid corner), so
// faces straddling a seam survive extraction on at least one side.
//
// With seam > 0 groups may overlap; every vertex is in at least one group.
// Groups are not budget-bounded.
func Grid(m *mesh.Mesh, cols, rows int, seam float64) ([]Group, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%dx%d: %w", cols, rows, ErrInvalidGrid)
	}

	bounds := m.Bounds()
	xLines := gridLines(bounds.Min.X, bounds.Max.X, cols)
	yLines := gridLines(bounds.Min.Y, bounds.Max.Y, rows)

	cells := make([]Group, cols*rows)
	member := make([]map[int]bool, cols*rows)
	for i := range member {
		member[i] = make(map[int]bool)
	}
	put := func(cx, cy, v int) {
		if cx < 0 || cy < 0 || cx >= cols || cy >= rows {
			return
		}
		c := cy*cols + cx
		if member[c][v] {
			return
		}
		member[c][v] = true
		cells[c] = append(cells[c], v)
	}

	for v, p := range m.Vertices {
		xi := intervalOf(p.X, xLines)
		yi := intervalOf(p.Y, yLines)
		put(xi, yi, v)

		if seam <= 0 {
			continue
		}
		nearX := nearLines(p.X, xLines, seam)
		nearY := nearLines(p.Y, yLines, seam)
		for _, lx := range nearX {
			put(lx-1, yi, v)
			put(lx, yi, v)
		}
		for _, ly := range nearY {
			put(xi, ly-1, v)
			put(xi, ly, v)
		}
		for _, lx := range nearX {
			for _, ly := range nearY {
				put(lx-1, ly-1, v)
				put(lx, ly-1, v)
				put(lx-1, ly, v)
				put(lx, ly, v)
			}
		}
	}

	var groups []Group
	for _, c := range cells {
		if len(c) > 0 {
			groups = append(groups, c)
		}
	}
	return groups, nil
}

// gridLines returns n+1 evenly spaced coordinates from lo to hi.
func gridLines(lo, hi float64, n int) []float64 {
	lines := make([]float64, n+1)
	for i := range lines {
		lines[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return lines
}

// intervalOf returns the last interval [lines[i], lines[i+1]] containing x.
func intervalOf(x float64, lines []float64) int {
	idx := 0
	for i := 0; i+1 < len(lines); i++ {
		if x >= lines[i] && x <= lines[i+1] {
			idx = i
		}
	}
	return idx
}

// nearLines returns the indices of interior lines within threshold of x.
// An axis with zero extent has no seams: its lines all coincide.
func nearLines(x float64, lines []float64, threshold float64) []int {
	if lines[0] == lines[len(lines)-1] {
		return nil
	}
	var near []int
	for i := 1; i+1 < len(lines); i++ {
		if gomath.Abs(x-lines[i]) < threshold {
			near = append(near, i)
		}
	}
	return near
}
