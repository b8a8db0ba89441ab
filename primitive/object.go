package primitive

import "github.com/achilleasa/polaris-rt/types"

// Object nests a whole acceleration structure as a single primitive.
type Object struct {
	Scene Tracer
}

// Wrap a tracer as a primitive.
func NewObject(scene Tracer) *Object {
	return &Object{Scene: scene}
}

func (o *Object) Bounds() types.AABB {
	return o.Scene.Bounds()
}

func (o *Object) Intersect(ray *types.Ray) (float32, types.Vec3, bool) {
	probe := *ray
	probe.Hit = types.Hit{Primitive: -1, Instance: -1}
	o.Scene.TraceRay(&probe)
	if !probe.IsValid() {
		return 0, types.Vec3{}, false
	}
	return probe.T, probe.Hit.Normal, true
}
