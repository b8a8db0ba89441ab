package tlas

import (
	"github.com/achilleasa/polaris-rt/scene"
	"github.com/achilleasa/polaris-rt/types"
)

// instanceSet adapts a flattened instance list to the bvh.Primitives
// interface.
type instanceSet []scene.Instance

func (s instanceSet) Len() int {
	return len(s)
}

func (s instanceSet) Bounds(i int) types.AABB {
	return s[i].Bounds
}

func (s instanceSet) Intersect(i int, ray *types.Ray) bool {
	if _, _, hit := s[i].Bounds.IntersectRay(ray); !hit {
		return false
	}
	return s[i].Intersect(ray)
}

func (s instanceSet) traceLinear(ray *types.Ray) {
	for i := range s {
		s.Intersect(i, ray)
	}
}

func (s instanceSet) occludedLinear(ray *types.Ray, tMax float32) bool {
	for i := range s {
		if tmin, _, hit := s[i].Bounds.IntersectRay(ray); hit && tmin < tMax && s[i].Occluded(ray, tMax) {
			return true
		}
	}
	return false
}
