package primitive

import (
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

// Box is a solid axis-aligned box.
type Box struct {
	types.AABB
}

// Create a box centered at center with the given half extents.
func NewBox(center, halfExtents types.Vec3) *Box {
	return &Box{AABB: types.NewAABB(center.Sub(halfExtents), center.Add(halfExtents))}
}

func (b *Box) Bounds() types.AABB {
	return b.AABB
}

func (b *Box) Intersect(ray *types.Ray) (float32, types.Vec3, bool) {
	tmin, tmax, hit := b.AABB.IntersectRay(ray)
	if !hit {
		return 0, types.Vec3{}, false
	}

	t := tmin
	if t <= types.RayEpsilon {
		t = tmax
	}
	if t <= types.RayEpsilon || t >= ray.T {
		return 0, types.Vec3{}, false
	}
	return t, b.normalAt(ray.At(t)), true
}

// Pick the face whose plane lies closest to p.
func (b *Box) normalAt(p types.Vec3) types.Vec3 {
	var normal types.Vec3
	best := math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if d := math32.Abs(p[axis] - b.Min[axis]); d < best {
			best = d
			normal = types.Vec3{}
			normal[axis] = -1
		}
		if d := math32.Abs(p[axis] - b.Max[axis]); d < best {
			best = d
			normal = types.Vec3{}
			normal[axis] = 1
		}
	}
	return normal
}
