package types

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box. An empty box has Min = +inf and
// Max = -inf so that growing it with any point or box yields that point
// or box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create an empty box.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Create a box from its corners.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Create the tightest box enclosing a set of points.
func AABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box.Grow(p)
	}
	return box
}

// Grow box to include point.
func (b *AABB) Grow(p Vec3) {
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// Grow box to include another box.
func (b *AABB) GrowAABB(o AABB) {
	b.Min = MinVec3(b.Min, o.Min)
	b.Max = MaxVec3(b.Max, o.Max)
}

// Get the union of two boxes.
func (b AABB) Union(o AABB) AABB {
	b.GrowAABB(o)
	return b
}

// Check if the box contains nothing.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get box extents along each axis. Empty boxes have zero extents.
func (b AABB) Lengths() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Get half the surface area. This is the SAH cost proxy.
func (b AABB) HalfArea() float32 {
	l := b.Lengths()
	return l[0]*l[1] + l[1]*l[2] + l[2]*l[0]
}

// Get the surface area.
func (b AABB) Area() float32 {
	return 2 * b.HalfArea()
}

// Get box center.
func (b AABB) Centroid() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the index of the axis with the largest extent.
func (b AABB) LongestAxis() int {
	l := b.Lengths()
	axis := 0
	if l[1] > l[axis] {
		axis = 1
	}
	if l[2] > l[axis] {
		axis = 2
	}
	return axis
}

// Check whether o lies inside b. Empty boxes are contained in anything.
func (b AABB) Contains(o AABB) bool {
	if o.IsEmpty() {
		return true
	}
	return o.Min[0] >= b.Min[0] && o.Min[1] >= b.Min[1] && o.Min[2] >= b.Min[2] &&
		o.Max[0] <= b.Max[0] && o.Max[1] <= b.Max[1] && o.Max[2] <= b.Max[2]
}

// Check whether p lies inside b.
func (b AABB) ContainsPoint(p Vec3) bool {
	return p[0] >= b.Min[0] && p[1] >= b.Min[1] && p[2] >= b.Min[2] &&
		p[0] <= b.Max[0] && p[1] <= b.Max[1] && p[2] <= b.Max[2]
}

// Get the 8 box corners.
func (b AABB) Corners() [8]Vec3 {
	var out [8]Vec3
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<uint(axis)) != 0 {
				out[i][axis] = b.Max[axis]
			} else {
				out[i][axis] = b.Min[axis]
			}
		}
	}
	return out
}

// Transform the box by m and re-bound its 8 corners. The result
// over-approximates the transformed volume.
func (b AABB) Transform(m Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out.Grow(m.TransformPoint(c))
	}
	return out
}

// Test ray against the box using the 4-lane slab method. Returns the
// entry and exit distances and whether the box is hit. A box is hit when
// tmax >= 0 && tmin <= tmax; zero-thickness boxes therefore still report
// a hit. Empty boxes never hit.
func (b AABB) IntersectRay(r *Ray) (tmin, tmax float32, hit bool) {
	near, far := b.slabBounds(r)
	o := Lane4{r.Origin[0], r.Origin[1], r.Origin[2], 0}
	inv := Lane4{r.InvDir[0], r.InvDir[1], r.InvDir[2], 0}

	tn := near.Sub(o).Mul(inv)
	tf := far.Sub(o).Mul(inv)
	tn[3] = math32.Inf(-1)
	tf[3] = math32.Inf(1)

	tmin = tn.HMax()
	tmax = tf.HMin()
	return tmin, tmax, tmax >= 0 && tmin <= tmax
}

// Scalar version of IntersectRay. Both functions produce identical results.
func (b AABB) IntersectRayScalar(r *Ray) (tmin, tmax float32, hit bool) {
	tmin = math32.Inf(-1)
	tmax = math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		lo, hi := b.Min[axis], b.Max[axis]
		if r.InvDir[axis] < 0 {
			lo, hi = hi, lo
		}
		tmin = MaxNum(tmin, (lo-r.Origin[axis])*r.InvDir[axis])
		tmax = MinNum(tmax, (hi-r.Origin[axis])*r.InvDir[axis])
	}
	return tmin, tmax, tmax >= 0 && tmin <= tmax
}

func (b AABB) slabBounds(r *Ray) (near, far Lane4) {
	for axis := 0; axis < 3; axis++ {
		if r.InvDir[axis] < 0 {
			near[axis], far[axis] = b.Max[axis], b.Min[axis]
		} else {
			near[axis], far[axis] = b.Min[axis], b.Max[axis]
		}
	}
	return near, far
}
