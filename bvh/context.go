package bvh

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/semaphore"
)

// BuildContext carries the state shared by parallel builds: a budget of
// worker threads, counters describing how that budget was used and the
// locks guarding the node pool allocators. A context may be shared by
// several builds; each pool lock is held only for the duration of a
// single allocation.
type BuildContext struct {
	threads int64
	budget  *semaphore.Weighted

	inFlight atomic.Int32
	peak     atomic.Int32
	forks    atomic.Int64

	// Guards flat node pool allocation.
	nodeMu sync.Mutex

	// Guards wide node pool allocation.
	wideMu sync.Mutex
}

// Create a build context allowing up to threads concurrent workers. If
// threads is <= 0 the number of logical cores is used.
func NewBuildContext(threads int) *BuildContext {
	if threads <= 0 {
		threads = CoreCount()
	}
	return &BuildContext{
		threads: int64(threads),
		budget:  semaphore.NewWeighted(int64(threads)),
	}
}

// Get the number of logical cores.
func CoreCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Get the thread budget.
func (bc *BuildContext) Threads() int {
	return int(bc.threads)
}

// Get the number of forked workers that are currently running.
func (bc *BuildContext) InFlight() int {
	return int(bc.inFlight.Load())
}

// Get the max number of workers that ran concurrently.
func (bc *BuildContext) Peak() int {
	return int(bc.peak.Load())
}

// Get the total number of forked workers.
func (bc *BuildContext) Forks() int64 {
	return bc.forks.Load()
}

// Run fn on a new worker if the thread budget allows it. Returns nil if
// the budget is exhausted, in which case the caller should run the work
// inline.
func (bc *BuildContext) tryFork(fn func()) *Future {
	if bc == nil || !bc.budget.TryAcquire(1) {
		return nil
	}

	n := bc.inFlight.Add(1)
	for {
		peak := bc.peak.Load()
		if n <= peak || bc.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	bc.forks.Add(1)

	return Go(func() error {
		defer func() {
			bc.inFlight.Add(-1)
			bc.budget.Release(1)
		}()
		fn()
		return nil
	})
}

// Run left and right, forking left onto a worker when possible.
func (bc *BuildContext) forkJoin(left, right func()) {
	if f := bc.tryFork(left); f != nil {
		right()
		_ = f.Wait()
		return
	}
	left()
	right()
}

func (bc *BuildContext) lockNodes() {
	if bc != nil {
		bc.nodeMu.Lock()
	}
}

func (bc *BuildContext) unlockNodes() {
	if bc != nil {
		bc.nodeMu.Unlock()
	}
}

func (bc *BuildContext) lockWide() {
	if bc != nil {
		bc.wideMu.Lock()
	}
}

func (bc *BuildContext) unlockWide() {
	if bc != nil {
		bc.wideMu.Unlock()
	}
}
