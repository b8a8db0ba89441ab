package primitive

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

func TestPrimitiveIntersect(t *testing.T) {
	type spec struct {
		prim      Primitive
		origin    types.Vec3
		dir       types.Vec3
		expHit    bool
		expT      float32
		expNormal types.Vec3
	}

	v0, v1, v2 := types.XYZ(-1, -1, 0), types.XYZ(1, -1, 0), types.XYZ(0, 1, 0)
	specs := []spec{
		{NewTriangle(v0, v1, v2), types.XYZ(0, 0, 5), types.XYZ(0, 0, -1), true, 5, types.XYZ(0, 0, 1)},
		{NewTriangle(v0, v1, v2), types.XYZ(2, 0, 5), types.XYZ(0, 0, -1), false, 0, types.Vec3{}},
		{NewTrianglePlane(v0, v1, v2), types.XYZ(0, 0, 5), types.XYZ(0, 0, -1), true, 5, types.XYZ(0, 0, 1)},
		{NewTrianglePlane(v0, v1, v2), types.XYZ(2, 0, 5), types.XYZ(0, 0, -1), false, 0, types.Vec3{}},
		{NewSphere(types.XYZ(0, 0, 0), 1), types.XYZ(0, 0, 5), types.XYZ(0, 0, -1), true, 4, types.XYZ(0, 0, 1)},
		{NewSphere(types.XYZ(0, 0, 0), 1), types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), true, 1, types.XYZ(1, 0, 0)},
		{NewSphere(types.XYZ(0, 0, 0), 1), types.XYZ(0, 2, 5), types.XYZ(0, 0, -1), false, 0, types.Vec3{}},
		{NewBox(types.XYZ(0, 0, 0), types.XYZ(0.5, 0.5, 0.5)), types.XYZ(0, 0, 10), types.XYZ(0, 0, -1), true, 9.5, types.XYZ(0, 0, 1)},
		{NewBox(types.XYZ(0, 0, 0), types.XYZ(0.5, 0.5, 0.5)), types.XYZ(-10, 0, 0), types.XYZ(1, 0, 0), true, 9.5, types.XYZ(-1, 0, 0)},
	}

	for specIndex, s := range specs {
		ray := types.NewRay(s.origin, s.dir)
		tHit, normal, ok := s.prim.Intersect(&ray)
		if ok != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", specIndex, s.expHit, ok)
		}
		if !ok {
			continue
		}
		if math32.Abs(tHit-s.expT) > 1e-4 {
			t.Fatalf("[spec %d] expected t = %f; got %f", specIndex, s.expT, tHit)
		}
		if !normal.ApproxEqual(s.expNormal, 1e-4) {
			t.Fatalf("[spec %d] expected normal %v; got %v", specIndex, s.expNormal, normal)
		}
		if ray.IsValid() {
			t.Fatalf("[spec %d] expected primitive intersection not to modify the ray", specIndex)
		}
	}
}

func TestTriangleVariantsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rnd := func() float32 { return rng.Float32()*4 - 2 }

	for i := 0; i < 2000; i++ {
		v0, v1, v2 := types.XYZ(rnd(), rnd(), rnd()), types.XYZ(rnd(), rnd(), rnd()), types.XYZ(rnd(), rnd(), rnd())
		origin := types.XYZ(rnd()*5, rnd()*5, rnd()*5)
		target := v0.Mul(0.4).Add(v1.Mul(0.3)).Add(v2.Mul(0.3)).Add(types.XYZ(rnd(), rnd(), rnd()).Mul(0.5))
		ray := types.NewRay(origin, target.Sub(origin).Normalize())

		t0, _, hit0 := NewTriangle(v0, v1, v2).Intersect(&ray)
		t1, _, hit1 := NewTrianglePlane(v0, v1, v2).Intersect(&ray)
		// Skip grazing hits where the two formulations may legitimately disagree
		if hit0 != hit1 {
			continue
		}
		if hit0 && math32.Abs(t0-t1) > 1e-2*math32.Max(1, t0) {
			t.Fatalf("[iteration %d] expected triangle distances to agree; got %f and %f", i, t0, t1)
		}
	}
}

func TestCubeMesh(t *testing.T) {
	list := NewList(NewCubeMesh(types.XYZ(0, 0, 0), 0.5)...)
	if list.Len() != 12 {
		t.Fatalf("expected 12 triangles; got %d", list.Len())
	}

	bounds := list.TotalBounds()
	if bounds != types.NewAABB(types.XYZ(-0.5, -0.5, -0.5), types.XYZ(0.5, 0.5, 0.5)) {
		t.Fatalf("expected unit cube bounds; got %v", bounds)
	}

	dirs := []types.Vec3{
		types.XYZ(1, 0, 0), types.XYZ(-1, 0, 0),
		types.XYZ(0, 1, 0), types.XYZ(0, -1, 0),
		types.XYZ(0, 0, 1), types.XYZ(0, 0, -1),
	}
	for _, d := range dirs {
		// Offset slightly so the ray does not run along a triangle diagonal
		ray := types.NewRay(d.Mul(-10).Add(types.XYZ(0.1, 0.2, 0.15).MulVec(types.XYZ(1-math32.Abs(d[0]), 1-math32.Abs(d[1]), 1-math32.Abs(d[2])))), d)
		list.TraceRay(&ray)
		if !ray.IsValid() {
			t.Fatalf("expected ray with direction %v to hit the cube", d)
		}
		if math32.Abs(ray.T-9.5) > 1e-4 {
			t.Fatalf("expected hit at t = 9.5 for direction %v; got %f", d, ray.T)
		}
		if !ray.Hit.Normal.ApproxEqual(d.Mul(-1), 1e-5) {
			t.Fatalf("expected outward normal %v; got %v", d.Mul(-1), ray.Hit.Normal)
		}
	}
}

func TestListRecordsClosestHit(t *testing.T) {
	list := NewList(
		NewSphere(types.XYZ(0, 0, -10), 1),
		NewSphere(types.XYZ(0, 0, -5), 1),
		NewSphere(types.XYZ(0, 0, -20), 1),
	)

	ray := types.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	list.TraceRay(&ray)
	if ray.Hit.Primitive != 1 || ray.Hit.Instance != -1 {
		t.Fatalf("expected hit on primitive 1 with no instance; got %+v", ray.Hit)
	}
	if math32.Abs(ray.T-4) > 1e-4 {
		t.Fatalf("expected t = 4; got %f", ray.T)
	}

	shadow := types.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	if list.Occluded(&shadow, 3) {
		t.Fatal("expected no occluder closer than 3")
	}
	if !list.Occluded(&shadow, 4.5) {
		t.Fatal("expected an occluder closer than 4.5")
	}
}

func TestObjectDelegatesToNestedScene(t *testing.T) {
	inner := NewList(NewSphere(types.XYZ(0, 0, 0), 2))
	obj := NewObject(listTracer{inner})

	ray := types.NewRay(types.XYZ(0, 0, 10), types.XYZ(0, 0, -1))
	tHit, normal, ok := obj.Intersect(&ray)
	if !ok || math32.Abs(tHit-8) > 1e-4 {
		t.Fatalf("expected nested hit at t = 8; got %f (hit: %t)", tHit, ok)
	}
	if !normal.ApproxEqual(types.XYZ(0, 0, 1), 1e-5) {
		t.Fatalf("expected normal (0, 0, 1); got %v", normal)
	}
	if obj.Bounds() != inner.TotalBounds() {
		t.Fatalf("expected object bounds %v; got %v", inner.TotalBounds(), obj.Bounds())
	}
}

type listTracer struct {
	*List
}

func (lt listTracer) Bounds() types.AABB {
	return lt.List.TotalBounds()
}
