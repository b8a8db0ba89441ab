package renderer

import (
	"time"

	"github.com/achilleasa/polaris-rt/tracer"
	"github.com/achilleasa/polaris-rt/types"
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Simulation time advanced for animations on every rendered frame.
	FrameTime time.Duration

	// Minimum wall-clock time between two dynamic tree rebuilds.
	RebuildInterval time.Duration

	// Direction towards the light used for shadow rays.
	LightDir types.Vec3
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		FrameW:          512,
		FrameH:          512,
		FrameTime:       time.Second / 30,
		RebuildInterval: time.Second,
		LightDir:        tracer.DefaultLightDir,
	}
}
