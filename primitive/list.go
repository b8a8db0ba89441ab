package primitive

import "github.com/achilleasa/polaris-rt/types"

// List is the primitive collection a BVH is built over. Hits are recorded
// on the ray using the primitive's index in the list.
type List struct {
	prims []Primitive
}

// Create a list from a set of primitives.
func NewList(prims ...Primitive) *List {
	return &List{prims: prims}
}

// Append primitives to the list. Any BVH built over the list must be
// rebuilt afterwards.
func (l *List) Add(prims ...Primitive) {
	l.prims = append(l.prims, prims...)
}

func (l *List) Len() int {
	return len(l.prims)
}

// Get primitive at index i.
func (l *List) At(i int) Primitive {
	return l.prims[i]
}

func (l *List) Bounds(i int) types.AABB {
	return l.prims[i].Bounds()
}

// Get the bounds of all primitives in the list.
func (l *List) TotalBounds() types.AABB {
	box := types.EmptyAABB()
	for _, p := range l.prims {
		box.GrowAABB(p.Bounds())
	}
	return box
}

// Intersect primitive i and record the hit on the ray if it is the
// closest so far.
func (l *List) Intersect(i int, ray *types.Ray) bool {
	t, normal, ok := l.prims[i].Intersect(ray)
	if !ok {
		return false
	}
	return ray.Record(t, int32(i), normal)
}

// Test every primitive. This is the reference nearest-hit query.
func (l *List) TraceRay(ray *types.Ray) {
	for i := range l.prims {
		l.Intersect(i, ray)
	}
}

// Check whether any primitive is hit closer than tMax.
func (l *List) Occluded(ray *types.Ray, tMax float32) bool {
	probe := *ray
	probe.Reset(tMax)
	for _, p := range l.prims {
		if _, _, ok := p.Intersect(&probe); ok {
			return true
		}
	}
	return false
}
