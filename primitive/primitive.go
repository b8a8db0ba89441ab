// Package primitive implements the intersectable shapes stored in BVH
// leaves together with the List collection that a BVH is built over.
package primitive

import "github.com/achilleasa/polaris-rt/types"

// Primitive is a shape that can be bounded and intersected.
type Primitive interface {
	// World-space bounds.
	Bounds() types.AABB

	// Find the closest intersection with distance in (RayEpsilon, ray.T).
	// Implementations must not modify the ray.
	Intersect(ray *types.Ray) (t float32, normal types.Vec3, ok bool)
}

// Tracer is implemented by acceleration structures that can be nested
// inside an Object primitive.
type Tracer interface {
	TraceRay(ray *types.Ray)
	Bounds() types.AABB
}
