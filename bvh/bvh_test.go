package bvh

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

func TestEmptyPrimitiveSet(t *testing.T) {
	tree := New(primitive.NewList(), DefaultOptions())
	tree.ConstructBVH()

	if tree.CanUseBVH() {
		t.Fatal("expected empty tree to be unusable")
	}
	if tree.GetPrimitiveCount() != 0 {
		t.Fatalf("expected primitive count to be 0; got %d", tree.GetPrimitiveCount())
	}

	ray := types.NewRay(types.XYZ(0, 0, 10), types.XYZ(0, 0, -1))
	tree.TraceRay(&ray)
	tree.TraceRayStack(&ray)
	if ray.IsValid() {
		t.Fatal("expected ray not to hit anything")
	}
	if tree.TraceShadowRay(&ray, 100) {
		t.Fatal("expected shadow ray not to be occluded")
	}
	if !tree.Bounds().IsEmpty() {
		t.Fatalf("expected empty bounds; got %v", tree.Bounds())
	}
}

func TestThreeCubes(t *testing.T) {
	centers := []types.Vec3{types.XYZ(-2, 0, 0), types.XYZ(0, 0, 0), types.XYZ(2, 0, 0)}

	boxes := primitive.NewList()
	meshes := primitive.NewList()
	for _, c := range centers {
		boxes.Add(primitive.NewBox(c, types.XYZ(0.5, 0.5, 0.5)))
		meshes.Add(primitive.NewCubeMesh(c, 0.5)...)
	}

	for _, strategy := range allStrategies {
		for _, prims := range []*primitive.List{boxes, meshes} {
			tree := buildWith(prims, strategy)
			wide := NewWideBVH(tree)
			wide.MergeNodes()

			traces := map[string]func(*types.Ray){
				"flat":       tree.TraceRay,
				"flat-stack": tree.TraceRayStack,
				"wide":       wide.TraceRay,
				"wide-stack": wide.TraceRayStack,
			}
			for name, trace := range traces {
				ray := types.NewRay(types.XYZ(0, 0, 10), types.XYZ(0, 0, -1))
				trace(&ray)
				if !ray.IsValid() {
					t.Fatalf("[%s/%s] expected ray to hit the middle cube", strategy, name)
				}
				if math32.Abs(ray.T-9.5) > 1e-4 {
					t.Fatalf("[%s/%s] expected hit at t = 9.5; got %f", strategy, name, ray.T)
				}
				// The middle cube owns primitive 1 (boxes) or primitives 12-23 (meshes)
				hitCube := int(ray.Hit.Primitive) * len(centers) / prims.Len()
				if hitCube != 1 {
					t.Fatalf("[%s/%s] expected hit on cube 1; got primitive %d", strategy, name, ray.Hit.Primitive)
				}
			}
		}
	}
}

func TestContainmentAndPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	prims := randomScene(rng, 500)

	for _, strategy := range allStrategies {
		for _, parallel := range []bool{false, true} {
			opts := DefaultOptions()
			opts.Strategy = strategy
			tree := New(prims, opts)
			if parallel {
				tree.ConstructBVHParallel(NewBuildContext(4))
			} else {
				tree.ConstructBVH()
			}

			seen := make([]uint32, 0, prims.Len())
			var walk func(idx int32, ancestors []int32)
			walk = func(idx int32, ancestors []int32) {
				node := tree.Node(int(idx))
				path := append(ancestors, idx)
				if !node.IsLeaf() {
					walk(node.Meta.LeftFirst, path)
					walk(node.Meta.LeftFirst+1, path)
					return
				}

				for _, primIndex := range tree.Indices()[node.Meta.LeftFirst : node.Meta.LeftFirst+node.Meta.Count] {
					seen = append(seen, primIndex)
					for _, a := range path {
						if !tree.GetNodeBounds(int(a)).Contains(prims.Bounds(int(primIndex))) {
							t.Fatalf("[%s parallel=%t] expected node %d to contain primitive %d", strategy, parallel, a, primIndex)
						}
					}
				}
			}
			walk(0, nil)

			if len(seen) != prims.Len() {
				t.Fatalf("[%s parallel=%t] expected leaves to reference %d primitives; got %d", strategy, parallel, prims.Len(), len(seen))
			}
			sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
			for i, primIndex := range seen {
				if int(primIndex) != i {
					t.Fatalf("[%s parallel=%t] expected leaf ranges to form a permutation; primitive %d missing or duplicated", strategy, parallel, i)
				}
			}
		}
	}
}

func TestTraversalMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	prims := randomScene(rng, 400)
	rays := randomRays(rng, 2000)

	for _, strategy := range allStrategies {
		tree := buildWith(prims, strategy)
		for rayIndex, r := range rays {
			exp := r
			prims.TraceRay(&exp)

			got := r
			tree.TraceRay(&got)
			expectSameHit(t, strategy.String()+"/recursive", rayIndex, &exp, &got)

			got = r
			tree.TraceRayStack(&got)
			expectSameHit(t, strategy.String()+"/stack", rayIndex, &exp, &got)

			got = r
			if steps := tree.TraceDebug(&got); steps < 1 {
				t.Fatalf("[%s ray %d] expected debug traversal to take at least one step; got %d", strategy, rayIndex, steps)
			}
			expectSameHit(t, strategy.String()+"/debug", rayIndex, &exp, &got)
		}
	}
}

func TestRaysAlongBoxFacePlanes(t *testing.T) {
	// Strips whose left edge lies on x = 0, stacked along z
	prims := primitive.NewList()
	for i := 0; i < 16; i++ {
		z := float32(-i)
		prims.Add(primitive.NewTriangle(
			types.XYZ(0, 0, z),
			types.XYZ(1, 0, z),
			types.XYZ(0, 1, z),
		))
	}

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
	}
	specs := []spec{
		{types.XYZ(0, 0.5, 10), types.XYZ(0, 0, -1)},
		{types.XYZ(0.25, 0, 10), types.XYZ(0, 0, -1)},
		{types.XYZ(0, 0, 10), types.XYZ(0, 0, -1)},
		{types.XYZ(0, 0.5, -20), types.XYZ(0, 0, 1)},
	}

	for _, strategy := range allStrategies {
		tree := buildWith(prims, strategy)
		wide := NewWideBVH(tree)
		wide.MergeNodes()

		for specIndex, s := range specs {
			exp := types.NewRay(s.origin, s.dir)
			prims.TraceRay(&exp)
			if !exp.IsValid() {
				t.Fatalf("[spec %d] expected brute force to hit a strip", specIndex)
			}

			traces := map[string]func(*types.Ray){
				"flat":       tree.TraceRay,
				"flat-stack": tree.TraceRayStack,
				"wide":       wide.TraceRay,
				"wide-stack": wide.TraceRayStack,
			}
			for name, trace := range traces {
				got := types.NewRay(s.origin, s.dir)
				trace(&got)
				expectSameHit(t, strategy.String()+"/"+name, specIndex, &exp, &got)
			}

			shadow := types.NewRay(s.origin, s.dir)
			if !tree.TraceShadowRay(&shadow, math32.Inf(1)) || !wide.TraceShadowRay(&shadow, math32.Inf(1)) {
				t.Fatalf("[%s spec %d] expected shadow ray to be occluded", strategy, specIndex)
			}

			root := tree.Bounds()
			if _, _, hit := root.IntersectRayScalar(&shadow); !hit {
				t.Fatalf("[%s spec %d] expected scalar slab test to hit the root bounds", strategy, specIndex)
			}
		}
	}
}

func TestShadowConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	prims := randomScene(rng, 300)
	rays := randomRays(rng, 2000)
	tree := buildWith(prims, BinnedSAH)

	for rayIndex, r := range rays {
		tMax := rng.Float32() * 30
		exp := prims.Occluded(&r, tMax)
		before := r
		if got := tree.TraceShadowRay(&r, tMax); got != exp {
			t.Fatalf("[ray %d] expected occluded to be %t for tMax %f; got %t", rayIndex, exp, tMax, got)
		}
		if r != before {
			t.Fatalf("[ray %d] expected shadow query not to modify the ray", rayIndex)
		}
	}
}

func TestIdempotentRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	prims := randomScene(rng, 2000)
	rays := randomRays(rng, 500)

	sequential := buildWith(prims, BinnedSAH)
	bc := NewBuildContext(4)
	parallel := New(prims, DefaultOptions())
	parallel.ConstructBVHParallel(bc)
	rebuilt := buildWith(prims, BinnedSAH)
	rebuilt.ConstructBVH()

	if bc.Forks() == 0 {
		t.Fatal("expected parallel build to fork at least once")
	}
	if bc.Peak() > bc.Threads() {
		t.Fatalf("expected at most %d concurrent workers; got %d", bc.Threads(), bc.Peak())
	}
	if bc.InFlight() != 0 {
		t.Fatalf("expected no workers in flight after build; got %d", bc.InFlight())
	}
	if sequential.NodeCount() != rebuilt.NodeCount() {
		t.Fatalf("expected sequential rebuild to produce %d nodes; got %d", sequential.NodeCount(), rebuilt.NodeCount())
	}

	for rayIndex, r := range rays {
		exp := r
		sequential.TraceRay(&exp)

		got := r
		parallel.TraceRay(&got)
		expectSameHit(t, "parallel", rayIndex, &exp, &got)

		got = r
		rebuilt.TraceRay(&got)
		expectSameHit(t, "rebuilt", rayIndex, &exp, &got)
	}
}

func TestSmallSetStaysSingleLeaf(t *testing.T) {
	prims := boxSet{
		types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)),
		types.NewAABB(types.XYZ(5, 0, 0), types.XYZ(6, 1, 1)),
		types.NewAABB(types.XYZ(10, 0, 0), types.XYZ(11, 1, 1)),
	}
	tree := buildWith(prims, BinnedSAH)

	root := tree.Node(0)
	if !root.IsLeaf() || root.Meta.Count != 3 || root.Meta.LeftFirst != 0 {
		t.Fatalf("expected root to be a leaf spanning all primitives; got %+v", root.Meta)
	}
	if tree.NodeCount() != 1 {
		t.Fatalf("expected a single node; got %d", tree.NodeCount())
	}
}

func TestAcceptancePolicy(t *testing.T) {
	// Zero-area boxes along the X axis: every split costs exactly as much
	// as leaving the node unsplit.
	var prims boxSet
	for i := 0; i < 8; i++ {
		p := types.XYZ(float32(i), 0, 0)
		prims = append(prims, types.NewAABB(p, p))
	}

	type spec struct {
		acceptance Acceptance
		expSplit   bool
	}
	specs := []spec{
		{StrictlyCheaper, false},
		{CheaperOrEqual, true},
	}

	for specIndex, s := range specs {
		opts := DefaultOptions()
		opts.Acceptance = s.acceptance
		tree := New(prims, opts)
		tree.ConstructBVH()

		if split := !tree.Node(0).IsLeaf(); split != s.expSplit {
			t.Fatalf("[spec %d] expected root split to be %t; got %t", specIndex, s.expSplit, split)
		}
	}
}

func TestMaxDepthLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	prims := randomScene(rng, 256)

	opts := DefaultOptions()
	opts.MaxDepth = 3
	tree := New(prims, opts)
	tree.ConstructBVH()

	if stats := tree.Stats(); stats.MaxDepth > 3 {
		t.Fatalf("expected max depth 3; got %d", stats.MaxDepth)
	}
}

func TestPoolExhaustion(t *testing.T) {
	tree := New(boxSet{}, DefaultOptions())
	tree.nodes = make([]Node, 4)
	tree.poolPtr = firstPoolNode

	if idx, ok := tree.allocPair(nil); !ok || idx != 2 {
		t.Fatalf("expected first pair at index 2; got %d (ok: %t)", idx, ok)
	}
	if _, ok := tree.allocPair(nil); ok {
		t.Fatal("expected allocation to fail once the pool is exhausted")
	}
}

func TestStatsTable(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tree := buildWith(randomScene(rng, 100), BinnedSAH)
	wide := NewWideBVH(tree)
	wide.MergeNodes()

	stats := tree.Stats()
	if stats.Leaves != stats.Interior+1 {
		t.Fatalf("expected %d leaves for %d interior nodes; got %d", stats.Interior+1, stats.Interior, stats.Leaves)
	}
	if stats.Nodes+1 != tree.NodeCount() {
		t.Fatalf("expected node count %d to match pool usage %d", stats.Nodes+1, tree.NodeCount())
	}

	ws := wide.Stats()
	table := StatsTable(stats, &ws)
	for _, exp := range []string{"binned", "Primitives", "Occupancy"} {
		if !strings.Contains(table, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, table)
		}
	}
}
