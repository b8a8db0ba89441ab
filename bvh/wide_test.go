package bvh

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/polaris-rt/types"
)

func TestWideMatchesFlat(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	prims := randomScene(rng, 600)
	rays := randomRays(rng, 2000)

	for _, strategy := range allStrategies {
		flat := buildWith(prims, strategy)
		wide := NewWideBVH(flat)
		wide.MergeNodes()

		for rayIndex, r := range rays {
			exp := r
			flat.TraceRay(&exp)

			got := r
			wide.TraceRay(&got)
			expectSameHit(t, strategy.String()+"/wide", rayIndex, &exp, &got)

			got = r
			wide.TraceRayStack(&got)
			expectSameHit(t, strategy.String()+"/wide-stack", rayIndex, &exp, &got)

			got = r
			wide.TraceDebug(&got)
			expectSameHit(t, strategy.String()+"/wide-debug", rayIndex, &exp, &got)

			tMax := rng.Float32() * 30
			if expOcc, gotOcc := flat.TraceShadowRay(&r, tMax), wide.TraceShadowRay(&r, tMax); expOcc != gotOcc {
				t.Fatalf("[%s ray %d] expected wide occlusion to be %t; got %t", strategy, rayIndex, expOcc, gotOcc)
			}
		}
	}
}

func TestWideParallelMerge(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	prims := randomScene(rng, 3000)
	rays := randomRays(rng, 500)

	bc := NewBuildContext(4)
	flat := New(prims, DefaultOptions())
	flat.ConstructBVHParallel(bc)

	sequential := NewWideBVH(flat)
	sequential.MergeNodes()
	parallel := NewWideBVH(flat)
	parallel.MergeNodesParallel(bc)

	if sequential.NodeCount() != parallel.NodeCount() {
		t.Fatalf("expected parallel merge to produce %d nodes; got %d", sequential.NodeCount(), parallel.NodeCount())
	}

	for rayIndex, r := range rays {
		exp := r
		sequential.TraceRay(&exp)
		got := r
		parallel.TraceRay(&got)
		expectSameHit(t, "parallel-merge", rayIndex, &exp, &got)
	}
}

func TestWideSlotInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	prims := randomScene(rng, 700)
	flat := buildWith(prims, BinnedSAH)
	wide := NewWideBVH(flat)
	wide.MergeNodes()

	// Every primitive must be reachable through exactly one leaf slot
	seen := make([]int, prims.Len())
	var walk func(idx int32, parent types.AABB)
	walk = func(idx int32, parent types.AABB) {
		node := wide.Node(int(idx))
		for slot := 0; slot < 4; slot++ {
			if !node.Valid(slot) {
				if !node.Bounds(slot).IsEmpty() {
					t.Fatalf("expected unused slot %d of node %d to hold an empty box", slot, idx)
				}
				continue
			}
			if !parent.Contains(node.Bounds(slot)) {
				t.Fatalf("expected slot %d of node %d to lie inside its parent", slot, idx)
			}
			if node.Count[slot] == -1 {
				walk(node.Child[slot], node.Bounds(slot))
				continue
			}
			for _, primIndex := range flat.Indices()[node.Child[slot] : node.Child[slot]+node.Count[slot]] {
				seen[primIndex]++
			}
		}
	}
	walk(0, flat.Bounds())

	for primIndex, count := range seen {
		if count != 1 {
			t.Fatalf("expected primitive %d to be referenced once; got %d", primIndex, count)
		}
	}
	if wide.Bounds() != flat.Bounds() {
		t.Fatalf("expected wide root bounds %v; got %v", flat.Bounds(), wide.Bounds())
	}

	ws := wide.Stats()
	if ws.Occupancy <= 0.5 {
		t.Fatalf("expected wide nodes to be more than half full; got %.2f", ws.Occupancy)
	}
}

func TestWideSingleLeafRoot(t *testing.T) {
	prims := boxSet{
		types.NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)),
		types.NewAABB(types.XYZ(4, -1, -1), types.XYZ(5, 1, 1)),
	}
	wide := NewWideBVH(buildWith(prims, BinnedSAH))
	wide.MergeNodes()

	if wide.NodeCount() != 1 {
		t.Fatalf("expected a single wide node; got %d", wide.NodeCount())
	}
	node := wide.Node(0)
	if node.Count[0] != 2 || node.Valid(1) || node.Valid(2) || node.Valid(3) {
		t.Fatalf("expected a single leaf slot with 2 primitives; got counts %v", node.Count)
	}

	ray := types.NewRay(types.XYZ(4.5, 0, 10), types.XYZ(0, 0, -1))
	wide.TraceRay(&ray)
	if ray.Hit.Primitive != 1 {
		t.Fatalf("expected hit on primitive 1; got %d", ray.Hit.Primitive)
	}
}

func TestSortSlots(t *testing.T) {
	type spec struct {
		tmin     types.Lane4
		mask     types.Mask4
		expOrder [4]int
	}

	specs := []spec{
		{types.Lane4{4, 3, 2, 1}, types.MaskAll, [4]int{3, 2, 1, 0}},
		{types.Lane4{1, 2, 3, 4}, types.MaskAll, [4]int{0, 1, 2, 3}},
		{types.Lane4{3, 1, 4, 2}, types.MaskAll, [4]int{1, 3, 0, 2}},
		// slot 1 is a miss and sorts last
		{types.Lane4{3, 0, 4, 2}, types.Mask4(0xD), [4]int{3, 0, 2, 1}},
	}

	for specIndex, s := range specs {
		if got := sortSlots(s.tmin, s.mask); got != s.expOrder {
			t.Fatalf("[spec %d] expected order %v; got %v", specIndex, s.expOrder, got)
		}
	}
}

func BenchmarkTraceRay(b *testing.B) {
	rng := rand.New(rand.NewSource(20))
	prims := randomScene(rng, 20000)
	rays := randomRays(rng, 1024)
	flat := buildWith(prims, BinnedSAH)
	wide := NewWideBVH(flat)
	wide.MergeNodes()

	b.Run("flat", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			r := rays[i%len(rays)]
			flat.TraceRay(&r)
		}
	})
	b.Run("flat-stack", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			r := rays[i%len(rays)]
			flat.TraceRayStack(&r)
		}
	})
	b.Run("wide", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			r := rays[i%len(rays)]
			wide.TraceRay(&r)
		}
	})
	b.Run("wide-stack", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			r := rays[i%len(rays)]
			wide.TraceRayStack(&r)
		}
	})
}
