// Package tlas composes a static acceleration structure with a double
// buffered BVH over dynamic scene instances.
package tlas

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/scene"
	"github.com/achilleasa/polaris-rt/types"
)

// An immutable dynamic tree. Readers load a snapshot pointer once per
// query so a concurrent rebuild can never expose a partial tree.
type snapshot struct {
	instances instanceSet
	tree      *bvh.BVH
	buildTime time.Duration
}

// TopLevel answers ray queries against a static structure and the
// instances produced by flattening a game object graph. Two dynamic
// slots are maintained: the active one is read by queries while the
// other may be rebuilt in the background.
type TopLevel struct {
	logger log.Logger
	opts   Options
	bc     *bvh.BuildContext

	static bvh.Accelerator
	graph  *scene.Graph

	// Instances captured at construction; used until a dynamic tree is ready.
	linear instanceSet

	slots  [2]atomic.Pointer[snapshot]
	canUse [2]atomic.Bool
	active atomic.Int32

	rebuilds atomic.Int64
}

// Create a top-level structure. Either static or graph may be nil. If bc
// is nil a build context sized to the core count is used.
func New(static bvh.Accelerator, graph *scene.Graph, bc *bvh.BuildContext, opts Options) *TopLevel {
	if bc == nil {
		bc = bvh.NewBuildContext(0)
	}
	tl := &TopLevel{
		logger: log.New("tlas"),
		opts:   opts,
		bc:     bc,
		static: static,
		graph:  graph,
	}
	if graph != nil {
		tl.linear = instanceSet(graph.Flatten())
	}
	return tl
}

// Rebuild dynamic slot from the current state of the object graph in
// the background. Only the inactive slot may be rebuilt; the active slot
// fails with ErrSlotActive. The slot is marked stale immediately and
// becomes ready once the new tree is published. If ctx is cancelled
// before publishing the slot stays stale and the future reports the
// context error.
func (tl *TopLevel) ConstructNewDynamicBVHParallel(ctx context.Context, slot int) *bvh.Future {
	switch {
	case slot != 0 && slot != 1:
		return bvh.Go(func() error { return ErrInvalidSlot })
	case slot == tl.GetActiveDynamicTreeIndex():
		return bvh.Go(func() error { return ErrSlotActive })
	}

	tl.canUse[slot].Store(false)
	return bvh.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		var instances instanceSet
		if tl.graph != nil {
			instances = instanceSet(tl.graph.Flatten())
		}
		tree := bvh.New(instances, tl.opts.BVH)
		tree.ConstructBVHParallel(tl.bc)

		if err := ctx.Err(); err != nil {
			tl.logger.Infof("dynamic tree rebuild for slot %d cancelled: %v", slot, err)
			return err
		}

		snap := &snapshot{
			instances: instances,
			tree:      tree,
			buildTime: time.Since(start),
		}
		tl.slots[slot].Store(snap)
		tl.canUse[slot].Store(true)
		tl.rebuilds.Add(1)

		tl.logger.Debugf(
			"dynamic tree rebuild time: %d ms, slot: %d, instances: %d",
			snap.buildTime.Nanoseconds()/1e6, slot, len(instances),
		)
		return nil
	})
}

// Make the inactive slot active. Returns false if the inactive slot is
// not ready, in which case nothing changes.
func (tl *TopLevel) SwapDynamicTrees() bool {
	current := tl.active.Load()
	next := 1 - current
	if !tl.canUse[next].Load() {
		return false
	}
	return tl.active.CompareAndSwap(current, next)
}

// Rebuild the inactive slot, wait for it and swap it in.
func (tl *TopLevel) Rebuild(ctx context.Context) error {
	if err := tl.ConstructNewDynamicBVHParallel(ctx, tl.GetInActiveDynamicTreeIndex()).Wait(); err != nil {
		return err
	}
	if !tl.SwapDynamicTrees() {
		return ErrSlotStale
	}
	return nil
}

// Get the slot read by queries.
func (tl *TopLevel) GetActiveDynamicTreeIndex() int {
	return int(tl.active.Load())
}

// Get the slot available for rebuilding.
func (tl *TopLevel) GetInActiveDynamicTreeIndex() int {
	return 1 - int(tl.active.Load())
}

// Check whether slot holds a tree that may be read.
func (tl *TopLevel) CanUseDynamicBVH(slot int) bool {
	if slot != 0 && slot != 1 {
		return false
	}
	return tl.canUse[slot].Load()
}

// Get the number of completed dynamic rebuilds.
func (tl *TopLevel) Rebuilds() int64 {
	return tl.rebuilds.Load()
}

// Get the active dynamic tree or nil if it is not ready.
func (tl *TopLevel) dynamic() *snapshot {
	slot := tl.active.Load()
	if !tl.canUse[slot].Load() {
		return nil
	}
	return tl.slots[slot].Load()
}

// Get the instances visible to queries.
func (tl *TopLevel) Instances() []scene.Instance {
	if snap := tl.dynamic(); snap != nil {
		return snap.instances
	}
	return tl.linear
}

// Find the closest hit across the static structure and the dynamic
// instances. Static hits report Instance == -1.
func (tl *TopLevel) TraceRay(ray *types.Ray) {
	if tl.static != nil {
		tl.static.TraceRay(ray)
	}
	if snap := tl.dynamic(); snap != nil {
		snap.tree.TraceRay(ray)
		return
	}
	tl.linear.traceLinear(ray)
}

// Check whether anything is hit closer than tMax. Each structure is
// traversed at most once and the search stops at the first occluder.
func (tl *TopLevel) TraceShadowRay(ray *types.Ray, tMax float32) bool {
	if tl.static != nil && tl.static.TraceShadowRay(ray, tMax) {
		return true
	}
	if snap := tl.dynamic(); snap != nil {
		return snap.tree.TraceShadowRay(ray, tMax)
	}
	return tl.linear.occludedLinear(ray, tMax)
}

// Run a nearest-hit query and return the total number of traversal steps.
func (tl *TopLevel) TraceDebug(ray *types.Ray) int {
	steps := 0
	if tl.static != nil {
		steps += tl.static.TraceDebug(ray)
	}
	if snap := tl.dynamic(); snap != nil {
		return steps + snap.tree.TraceDebug(ray)
	}
	tl.linear.traceLinear(ray)
	return steps + len(tl.linear)
}

// Get the number of static primitives plus the number of dynamic instances.
func (tl *TopLevel) GetPrimitiveCount() int {
	count := len(tl.Instances())
	if tl.static != nil {
		count += tl.static.GetPrimitiveCount()
	}
	return count
}

// Get the bounds of the static structure and all visible instances.
func (tl *TopLevel) Bounds() types.AABB {
	box := types.EmptyAABB()
	if tl.static != nil {
		box.GrowAABB(tl.static.Bounds())
	}
	for _, inst := range tl.Instances() {
		box.GrowAABB(inst.Bounds)
	}
	return box
}
