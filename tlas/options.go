package tlas

import "github.com/achilleasa/polaris-rt/bvh"

// Options control how the dynamic instance BVHs are built.
type Options struct {
	// Build options for the instance BVH. The split strategy and
	// acceptance policy are shared with the static tree builder.
	BVH bvh.Options
}

// Get the default options: binned SAH over instance bounds, splitting
// down to single instances whenever the SAH allows it.
func DefaultOptions() Options {
	opts := bvh.DefaultOptions()
	opts.MaxLeafPrims = 2
	return Options{BVH: opts}
}
