package types

import "github.com/chewxy/math32"

// Minimum distance along a ray for an intersection to count. Prevents
// secondary rays from hitting the surface they originate from.
const RayEpsilon float32 = 1e-4

// Hit identifies the surface found by a nearest-hit query.
type Hit struct {
	// Primitive index inside the collection that produced the hit.
	Primitive int32

	// Instance index for hits on instanced geometry; -1 otherwise.
	Instance int32

	// World-space surface normal at the hit point.
	Normal Vec3
}

// Ray is a half-line with a running closest-hit distance. Intersection
// routines only update the hit when they find something closer than T.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	InvDir Vec3

	// Distance to the closest hit found so far.
	T float32

	Hit Hit
}

// Create a ray with no hit recorded.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: dir.Recip(),
		T:      math32.Inf(1),
		Hit:    Hit{Primitive: -1, Instance: -1},
	}
}

// Check whether the ray recorded a hit.
func (r *Ray) IsValid() bool {
	return r.Hit.Primitive >= 0
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Clear the hit and reset the search distance to tMax.
func (r *Ray) Reset(tMax float32) {
	r.T = tMax
	r.Hit = Hit{Primitive: -1, Instance: -1}
}

// Record a hit if t lies in (RayEpsilon, T). Returns true if the ray was updated.
func (r *Ray) Record(t float32, primitive int32, normal Vec3) bool {
	if t <= RayEpsilon || t >= r.T {
		return false
	}
	r.T = t
	r.Hit = Hit{Primitive: primitive, Instance: -1, Normal: normal}
	return true
}
