package math

import "math"

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox returns an inverted box that any Include call will overwrite.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Include grows the box to contain p.
func (b Box3) Include(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Size returns the extent along each axis.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box3) Center() Vec3 {
	return b.Min.Lerp(b.Max, 0.5)
}

// PlaneAt returns the coordinate at fraction t of the box extent along axis.
func (b Box3) PlaneAt(axis int, t float64) float64 {
	lo, hi := b.Min.Axis(axis), b.Max.Axis(axis)
	return lo + (hi-lo)*t
}

// BoundsOf returns the bounding box of the given points.
func BoundsOf(points []Vec3) Box3 {
	b := EmptyBox()
	for _, p := range points {
		b = b.Include(p)
	}
	return b
}
