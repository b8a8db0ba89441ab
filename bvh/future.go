package bvh

import "golang.org/x/sync/errgroup"

// Future is a handle to work running in the background.
type Future struct {
	group errgroup.Group
	done  chan struct{}
}

// Run fn in the background and return a future for joining it.
func Go(fn func() error) *Future {
	f := &Future{done: make(chan struct{})}
	f.group.Go(func() error {
		defer close(f.done)
		return fn()
	})
	return f
}

// Block until the work completes and return its error.
func (f *Future) Wait() error {
	return f.group.Wait()
}

// Get a channel that is closed once the work completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Check whether the work has completed without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
