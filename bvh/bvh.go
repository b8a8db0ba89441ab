// Package bvh implements a binary bounding volume hierarchy over an
// abstract primitive collection and a 4-wide variant derived from it.
package bvh

import (
	"time"

	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/types"
)

// Primitives is the collection a BVH is built over.
type Primitives interface {
	// Number of primitives. Must not change after the BVH is built.
	Len() int

	// Bounds of primitive i.
	Bounds(i int) types.AABB

	// Intersect primitive i and record the hit on the ray if it is closer
	// than ray.T. Returns true if the ray was updated.
	Intersect(i int, ray *types.Ray) bool
}

// Accelerator is implemented by all ray query structures.
type Accelerator interface {
	TraceRay(ray *types.Ray)
	TraceShadowRay(ray *types.Ray, tMax float32) bool
	TraceDebug(ray *types.Ray) int
	GetPrimitiveCount() int
	Bounds() types.AABB
}

// Index of the first allocatable node. Slot 1 is left unused so that
// sibling pairs start at even indices.
const firstPoolNode = 2

// BVH is a binary tree stored in a preallocated node pool. The root lives
// at index 0 and the children of an interior node occupy two consecutive
// pool slots.
type BVH struct {
	logger log.Logger
	prims  Primitives
	opts   Options

	nodes   []Node
	indices []uint32
	poolPtr int32

	// Per-primitive data cached for the duration of a build.
	primBounds []types.AABB
	centroids  []types.Vec3

	buildTime time.Duration
	canUse    bool
}

// Create a new BVH over prims. The tree is empty until one of the
// construct methods is called.
func New(prims Primitives, opts Options) *BVH {
	return &BVH{
		logger: log.New("bvh"),
		prims:  prims,
		opts:   opts.withDefaults(),
	}
}

// Build the tree on the calling goroutine.
func (t *BVH) ConstructBVH() {
	t.construct(nil)
}

// Build the tree forking subtrees onto workers as long as the context's
// thread budget allows.
func (t *BVH) ConstructBVHParallel(bc *BuildContext) {
	t.construct(bc)
}

func (t *BVH) construct(bc *BuildContext) {
	start := time.Now()
	count := t.prims.Len()
	t.canUse = false
	if count == 0 {
		t.nodes = nil
		t.indices = nil
		t.poolPtr = 0
		return
	}

	t.nodes = make([]Node, 2*count)
	t.indices = make([]uint32, count)
	t.primBounds = make([]types.AABB, count)
	t.centroids = make([]types.Vec3, count)
	for i := 0; i < count; i++ {
		t.indices[i] = uint32(i)
		t.primBounds[i] = t.prims.Bounds(i)
		t.centroids[i] = t.primBounds[i].Centroid()
	}

	t.poolPtr = firstPoolNode
	t.nodes[0] = Node{
		Bounds: t.rangeBounds(0, int32(count)),
		Meta:   Meta{LeftFirst: 0, Count: int32(count)},
	}
	t.subdivide(0, 0, bc)

	t.primBounds = nil
	t.centroids = nil
	t.buildTime = time.Since(start)
	t.canUse = true

	if t.poolPtr == firstPoolNode {
		t.logger.Debugf("BVH root left unsplit (%d primitives)", count)
	}
	t.logger.Debugf(
		"BVH tree build time: %d ms, primitives: %d, nodes: %d, strategy: %s",
		t.buildTime.Nanoseconds()/1e6, count, t.NodeCount(), t.opts.Strategy,
	)
}

// Split node idx if it is worth it and recurse into its children.
func (t *BVH) subdivide(idx int32, depth int, bc *BuildContext) {
	node := &t.nodes[idx]
	first, count := node.Meta.LeftFirst, node.Meta.Count
	if int(count) < t.opts.MaxLeafPrims || depth >= t.opts.MaxDepth {
		return
	}

	best, found := t.findSplit(node.Bounds, first, count)
	if !found || !t.opts.Acceptance.accept(best.cost, node.Bounds.HalfArea()*float32(count)) {
		return
	}

	leftCount := t.partition(first, count, best.axis, best.pos) - first
	if leftCount == 0 || leftCount == count {
		return
	}

	left, ok := t.allocPair(bc)
	if !ok {
		return
	}

	t.nodes[left] = Node{
		Bounds: t.rangeBounds(first, leftCount),
		Meta:   Meta{LeftFirst: first, Count: leftCount},
	}
	t.nodes[left+1] = Node{
		Bounds: t.rangeBounds(first+leftCount, count-leftCount),
		Meta:   Meta{LeftFirst: first + leftCount, Count: count - leftCount},
	}
	node.Meta = Meta{LeftFirst: left, Count: -1}

	// Children own disjoint index ranges so they can be built concurrently
	bc.forkJoin(
		func() { t.subdivide(left, depth+1, bc) },
		func() { t.subdivide(left+1, depth+1, bc) },
	)
}

// Reserve two consecutive pool slots. Fails once the pool is exhausted.
func (t *BVH) allocPair(bc *BuildContext) (int32, bool) {
	bc.lockNodes()
	defer bc.unlockNodes()

	if int(t.poolPtr)+2 > len(t.nodes) {
		return 0, false
	}
	idx := t.poolPtr
	t.poolPtr += 2
	return idx, true
}

// Reorder indices[first:first+count] so that primitives whose centroid
// lies at or below pos along axis come first. Returns the index of the
// first primitive on the right side.
func (t *BVH) partition(first, count int32, axis int, pos float32) int32 {
	i, j := first, first+count-1
	for i <= j {
		if t.centroids[t.indices[i]][axis] <= pos {
			i++
			continue
		}
		t.indices[i], t.indices[j] = t.indices[j], t.indices[i]
		j--
	}
	return i
}

// Get the bounds of the primitives in indices[first:first+count].
func (t *BVH) rangeBounds(first, count int32) types.AABB {
	box := types.EmptyAABB()
	for _, primIndex := range t.indices[first : first+count] {
		box.GrowAABB(t.primBounds[primIndex])
	}
	return box
}

// Check whether the tree was built and contains primitives.
func (t *BVH) CanUseBVH() bool {
	return t.canUse
}

// Get the primitive collection.
func (t *BVH) Primitives() Primitives {
	return t.prims
}

// Get the build options.
func (t *BVH) Options() Options {
	return t.opts
}

func (t *BVH) GetPrimitiveCount() int {
	return len(t.indices)
}

// Get the number of pool slots in use (including the unused slot 1).
func (t *BVH) NodeCount() int {
	if t.poolPtr == firstPoolNode {
		return 1
	}
	return int(t.poolPtr)
}

// Get the bounds of node index. Out of range indices yield an empty box.
func (t *BVH) GetNodeBounds(index int) types.AABB {
	if index < 0 || index >= len(t.nodes) {
		return types.EmptyAABB()
	}
	return t.nodes[index].Bounds
}

// Get node index. The returned node must not be modified.
func (t *BVH) Node(index int) *Node {
	return &t.nodes[index]
}

// Get the index permutation. Leaf ranges index into this slice.
func (t *BVH) Indices() []uint32 {
	return t.indices
}

// Get the root bounds.
func (t *BVH) Bounds() types.AABB {
	if !t.canUse {
		return types.EmptyAABB()
	}
	return t.nodes[0].Bounds
}
