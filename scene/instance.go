package scene

import "github.com/achilleasa/polaris-rt/types"

// Instance places a sub-scene into world space. Instances are produced by
// Graph.Flatten and never change afterwards.
type Instance struct {
	// The leaf object this instance was flattened from.
	Object ObjectID

	// World-space bounds of the transformed sub-scene.
	Bounds types.AABB

	// Local to world transform and its inverse.
	Transform types.Mat4
	Inverse   types.Mat4

	// Maps local normals to world space: transpose(Inverse).
	NormalMat types.Mat4

	Scene SubScene
}

func newInstance(id ObjectID, world, inverse types.Mat4, bounds types.AABB, sub SubScene) Instance {
	return Instance{
		Object:    id,
		Bounds:    bounds,
		Transform: world,
		Inverse:   inverse,
		NormalMat: inverse.Transpose(),
		Scene:     sub,
	}
}

// Transform the ray into the instance's local space. The direction is
// not normalized so hit distances are the same in both spaces.
func (inst *Instance) localRay(ray *types.Ray) types.Ray {
	local := *ray
	local.Origin = inst.Inverse.TransformPoint(ray.Origin)
	local.Dir = inst.Inverse.TransformDir(ray.Dir)
	local.InvDir = local.Dir.Recip()
	local.Hit = types.Hit{Primitive: -1, Instance: -1}
	return local
}

// Intersect the instanced sub-scene. On a hit closer than ray.T the ray
// records the sub-scene primitive, the instance object id and the world
// space normal.
func (inst *Instance) Intersect(ray *types.Ray) bool {
	local := inst.localRay(ray)
	inst.Scene.TraceRay(&local)
	if !local.IsValid() || local.T >= ray.T {
		return false
	}

	ray.T = local.T
	ray.Hit = types.Hit{
		Primitive: local.Hit.Primitive,
		Instance:  int32(inst.Object),
		Normal:    inst.NormalMat.TransformDir(local.Hit.Normal).Normalize(),
	}
	return true
}

// Check whether the instanced sub-scene occludes the ray before tMax.
func (inst *Instance) Occluded(ray *types.Ray, tMax float32) bool {
	local := inst.localRay(ray)
	return inst.Scene.TraceShadowRay(&local, tMax)
}
