package primitive

import (
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

type Sphere struct {
	Center types.Vec3
	Radius float32
}

// Create new sphere primitive.
func NewSphere(center types.Vec3, radius float32) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

func (s *Sphere) Bounds() types.AABB {
	r := types.XYZ(s.Radius, s.Radius, s.Radius)
	return types.NewAABB(s.Center.Sub(r), s.Center.Add(r))
}

func (s *Sphere) Intersect(ray *types.Ray) (float32, types.Vec3, bool) {
	oc := ray.Origin.Sub(s.Center)
	a := ray.Dir.Dot(ray.Dir)
	halfB := oc.Dot(ray.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return 0, types.Vec3{}, false
	}

	sqrtDisc := math32.Sqrt(disc)
	t := (-halfB - sqrtDisc) / a
	if t <= types.RayEpsilon {
		// Origin inside the sphere; use the far root
		t = (-halfB + sqrtDisc) / a
	}
	if t <= types.RayEpsilon || t >= ray.T {
		return 0, types.Vec3{}, false
	}
	return t, ray.At(t).Sub(s.Center).Mul(1 / s.Radius), true
}
