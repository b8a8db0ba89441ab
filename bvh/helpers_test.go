package bvh

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

func randomScene(rng *rand.Rand, count int) *primitive.List {
	rnd := func(scale float32) float32 { return (rng.Float32()*2 - 1) * scale }

	list := primitive.NewList()
	for i := 0; i < count; i++ {
		center := types.XYZ(rnd(10), rnd(10), rnd(10))
		if i%3 == 0 {
			list.Add(primitive.NewSphere(center, 0.1+rng.Float32()*0.5))
			continue
		}
		list.Add(primitive.NewTriangle(
			center.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
			center.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
			center.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
		))
	}
	return list
}

func randomRays(rng *rand.Rand, count int) []types.Ray {
	rnd := func(scale float32) float32 { return (rng.Float32()*2 - 1) * scale }

	rays := make([]types.Ray, count)
	for i := range rays {
		origin := types.XYZ(rnd(15), rnd(15), rnd(15))
		target := types.XYZ(rnd(10), rnd(10), rnd(10))
		rays[i] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func expectSameHit(t *testing.T, label string, rayIndex int, exp, got *types.Ray) {
	t.Helper()
	if exp.IsValid() != got.IsValid() {
		t.Fatalf("[%s ray %d] expected hit to be %t; got %t", label, rayIndex, exp.IsValid(), got.IsValid())
	}
	if !exp.IsValid() {
		return
	}
	if math32.Abs(exp.T-got.T) > 1e-4*math32.Max(1, exp.T) {
		t.Fatalf("[%s ray %d] expected t = %f; got %f", label, rayIndex, exp.T, got.T)
	}
	if exp.Hit.Primitive != got.Hit.Primitive {
		t.Fatalf("[%s ray %d] expected hit primitive %d; got %d", label, rayIndex, exp.Hit.Primitive, got.Hit.Primitive)
	}
}

// boxSet is a primitive collection of solid boxes.
type boxSet []types.AABB

func (bs boxSet) Len() int { return len(bs) }
func (bs boxSet) Bounds(i int) types.AABB { return bs[i] }
func (bs boxSet) Intersect(i int, ray *types.Ray) bool {
	tmin, _, hit := bs[i].IntersectRay(ray)
	if !hit {
		return false
	}
	return ray.Record(tmin, int32(i), types.Vec3{})
}

var allStrategies = []SplitStrategy{CentralSplit, FullSAH, BinnedSAH}

func buildWith(prims Primitives, strategy SplitStrategy) *BVH {
	opts := DefaultOptions()
	opts.Strategy = strategy
	tree := New(prims, opts)
	tree.ConstructBVH()
	return tree
}
