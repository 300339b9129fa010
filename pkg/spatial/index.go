// Package spatial provides nearest-neighbor lookup over 3D points.
//
// Index is a k-d tree built once over a fixed point set, with support for
// inserting further exact points afterwards. It is safe for concurrent
// queries once no more inserts happen.
package spatial

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// point is a tree entry: a position and the caller's identifier for it.
// Query points carry ID -1.
type point struct {
	pos math.Vec3
	id  int
}

var _ kdtree.Comparable = point{}

// Compare returns the signed distance from c to p along dimension d.
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	return p.pos.Axis(int(d)) - q.pos.Axis(int(d))
}

// Dims returns the number of dimensions.
func (p point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p point) Distance(c kdtree.Comparable) float64 {
	return p.pos.DistanceSq(c.(point).pos)
}

// points implements kdtree.Interface for bulk construction.
type points []point

func (p points) Index(i int) kdtree.Comparable { return p[i] }
func (p points) Len() int                      { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// Pivot partitions the slice about the median-of-medians along d.
func (p points) Pivot(d kdtree.Dim) int {
	pl := plane{dim: d, points: p}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts points along one dimension.
type plane struct {
	dim kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool {
	return p.points[i].pos.Axis(int(p.dim)) < p.points[j].pos.Axis(int(p.dim))
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// Index is a nearest-neighbor structure over identified points.
type Index struct {
	tree *kdtree.Tree
}

// New builds a balanced index over positions; each point's identifier is its
// position in the slice. The slice is not retained.
func New(positions []math.Vec3) *Index {
	pts := make(points, len(positions))
	for i, p := range positions {
		pts[i] = point{pos: p, id: i}
	}
	if len(pts) == 0 {
		return &Index{tree: &kdtree.Tree{}}
	}
	return &Index{tree: kdtree.New(pts, false)}
}

// Insert adds one point with the given identifier. Inserted points are not
// rebalanced, so bulk data should go through New.
func (x *Index) Insert(pos math.Vec3, id int) {
	x.tree.Insert(point{pos: pos, id: id}, false)
}

// Len returns the number of indexed points.
func (x *Index) Len() int {
	return x.tree.Len()
}

// Nearest returns the identifier of the point closest to q and the
// Euclidean distance to it. ok is false when the index is empty.
func (x *Index) Nearest(q math.Vec3) (id int, dist float64, ok bool) {
	if x.tree.Root == nil {
		return -1, gomath.Inf(1), false
	}
	c, d := x.tree.Nearest(point{pos: q, id: -1})
	if c == nil {
		return -1, gomath.Inf(1), false
	}
	return c.(point).id, gomath.Sqrt(d), true
}

// Within returns the identifier of the nearest point if it lies strictly
// closer than eps to q.
func (x *Index) Within(q math.Vec3, eps float64) (id int, ok bool) {
	id, dist, found := x.Nearest(q)
	if !found || dist >= eps {
		return -1, false
	}
	return id, true
}
