package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/scene"
	"github.com/achilleasa/polaris-rt/tlas"
)

// DriverStats tracks the dynamic tree rebuild activity.
type DriverStats struct {
	// Background rebuilds started and completed rebuilds swapped in.
	Rebuilds int
	Swaps    int

	// Ticks where a rebuild was due but the previous one was still running.
	Skipped int

	// Rebuilds that were cancelled or failed to swap.
	Failed int

	// Number of running animations.
	Animations int

	// Currently active dynamic slot.
	ActiveSlot int
}

// Driver advances animations on the object graph and keeps the dynamic
// trees of a top-level BVH in sync with it. A new tree is built in the
// background for the inactive slot at most once per rebuild interval and
// swapped in only after its build has been joined.
type Driver struct {
	logger log.Logger

	mu         sync.Mutex
	graph      *scene.Graph
	scene      *tlas.TopLevel
	interval   time.Duration
	clock      func() time.Time
	animations []*Animation

	pending      *bvh.Future
	pendingVer   uint64
	builtVersion uint64
	lastRebuild  time.Time
	stats        DriverStats
}

// Create a driver for the given graph and top-level BVH.
func NewDriver(graph *scene.Graph, tl *tlas.TopLevel, interval time.Duration) (*Driver, error) {
	if graph == nil {
		return nil, ErrGraphNotDefined
	}
	if tl == nil {
		return nil, ErrSceneNotDefined
	}
	if interval < 0 {
		interval = 0
	}
	return &Driver{
		logger:   log.New("driver"),
		graph:    graph,
		scene:    tl,
		interval: interval,
		clock:    time.Now,
	}, nil
}

// Register an animation.
func (d *Driver) Animate(anims ...*Animation) {
	d.mu.Lock()
	d.animations = append(d.animations, anims...)
	d.mu.Unlock()
}

// Advance all animations by dt, swap in a finished rebuild and start a new
// one if the graph changed and the rebuild interval has elapsed.
func (d *Driver) Tick(ctx context.Context, dt time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stepAnimations(dt)

	if d.pending != nil && d.pending.Ready() {
		// Failed rebuilds are logged and counted by join; frames keep
		// using the active tree and the next due tick retries.
		_ = d.join()
	}

	now := d.clock()
	if now.Sub(d.lastRebuild) < d.interval || d.graph.Version() == d.builtVersion {
		return nil
	}
	if d.pending != nil {
		d.stats.Skipped++
		return nil
	}
	return d.startRebuild(ctx, now)
}

// Wait for any in-flight rebuild and swap it in. If the graph changed since
// the last rebuild a new tree is built synchronously and swapped in as well.
func (d *Driver) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.wait(ctx); err != nil {
		return err
	}
	if d.graph.Version() == d.builtVersion && d.scene.CanUseDynamicBVH(d.scene.GetActiveDynamicTreeIndex()) {
		return nil
	}
	if err := d.startRebuild(ctx, d.clock()); err != nil {
		return err
	}
	return d.wait(ctx)
}

// Build and swap in a new dynamic tree immediately. Fails with
// ErrRebuildPending if a background rebuild is still running.
func (d *Driver) ForceRebuild(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		return ErrRebuildPending
	}
	if err := d.startRebuild(ctx, d.clock()); err != nil {
		return err
	}
	return d.wait(ctx)
}

// Check whether a background rebuild is in flight.
func (d *Driver) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Get rebuild statistics.
func (d *Driver) Stats() DriverStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := d.stats
	stats.ActiveSlot = d.scene.GetActiveDynamicTreeIndex()
	for _, anim := range d.animations {
		if !anim.Done() {
			stats.Animations++
		}
	}
	return stats
}

// Wait for any in-flight rebuild without swapping it in.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		if err := d.pending.Wait(); err != nil {
			d.logger.Debugf("discarding dynamic tree rebuild on close: %v", err)
		}
		d.pending = nil
	}
}

// Start a background rebuild of the inactive slot. Must be called with d.mu held.
func (d *Driver) startRebuild(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slot := d.scene.GetInActiveDynamicTreeIndex()
	d.pendingVer = d.graph.Version()
	d.lastRebuild = now
	d.pending = d.scene.ConstructNewDynamicBVHParallel(ctx, slot)
	d.stats.Rebuilds++
	d.logger.Debugf("started dynamic tree rebuild for slot %d (graph version %d)", slot, d.pendingVer)
	return nil
}

// Join the pending rebuild and swap it in. Must be called with d.mu held.
func (d *Driver) join() error {
	err := d.pending.Wait()
	d.pending = nil
	if err != nil {
		d.stats.Failed++
		d.logger.Warningf("dynamic tree rebuild failed: %v", err)
		return err
	}
	if !d.scene.SwapDynamicTrees() {
		d.stats.Failed++
		d.logger.Warning("dynamic tree rebuild finished but the slot is not ready")
		return ErrSwapFailed
	}
	d.builtVersion = d.pendingVer
	d.stats.Swaps++
	return nil
}

// Block until the pending rebuild completes or ctx is cancelled and swap
// it in. Must be called with d.mu held.
func (d *Driver) wait(ctx context.Context) error {
	if d.pending == nil {
		return nil
	}
	select {
	case <-d.pending.Done():
		return d.join()
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// Advance animations and drop the ones that finished or whose object is gone.
func (d *Driver) stepAnimations(dt time.Duration) {
	if dt <= 0 {
		return
	}
	live := d.animations[:0]
	for _, anim := range d.animations {
		if err := anim.step(d.graph, dt); err != nil {
			d.logger.Warningf("dropping %s animation for object %d: %v", anim.Kind, anim.Object, err)
			continue
		}
		if !anim.Done() {
			live = append(live, anim)
		}
	}
	d.animations = live
}
