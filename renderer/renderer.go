package renderer

import (
	"context"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/tracer"
	"github.com/achilleasa/polaris-rt/types"
)

type Renderer interface {
	// Render frame.
	Render() error

	// Get the frame written by the last Render call.
	Frame() *tracer.Frame

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

type defaultRenderer struct {
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	options   Options
	scheduler tracer.BlockScheduler
	tracers   []tracer.Tracer
	driver    *Driver
	frame     *tracer.Frame

	frameCount uint32
	stats      FrameStats
}

// Create a renderer that splits each frame into blocks traced against
// accel. The driver is optional; when set it is ticked before every frame
// so animations and dynamic tree swaps land between frames.
func NewDefault(accel bvh.Accelerator, camera *tracer.Camera, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, driver *Driver, opts Options) (Renderer, error) {
	switch {
	case accel == nil:
		return nil, ErrSceneNotDefined
	case camera == nil:
		return nil, ErrCameraNotDefined
	case len(tracers) == 0:
		return nil, ErrNoTracers
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		defaults := DefaultOptions()
		opts.FrameW, opts.FrameH = defaults.FrameW, defaults.FrameH
	}
	if scheduler == nil {
		scheduler = tracer.PerfectScheduler()
	}

	camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	ctx, cancel := context.WithCancel(context.Background())
	r := &defaultRenderer{
		logger:    log.New("renderer"),
		ctx:       ctx,
		cancel:    cancel,
		options:   opts,
		scheduler: scheduler,
		tracers:   tracers,
		driver:    driver,
		frame:     tracer.NewFrame(opts.FrameW, opts.FrameH),
	}

	for _, tr := range tracers {
		if err := tr.Setup(r.frame); err != nil {
			r.Close()
			return nil, err
		}
		tr.AppendChange(tracer.SetAccelerator, accel)
		tr.AppendChange(tracer.UpdateCamera, camera)
		if opts.LightDir != (types.Vec3{}) {
			tr.AppendChange(tracer.SetLightDirection, opts.LightDir)
		}
	}

	return r, nil
}

// Render a frame.
func (r *defaultRenderer) Render() error {
	if r.ctx.Err() != nil {
		return ErrInterrupted
	}

	if r.driver != nil {
		if err := r.driver.Tick(r.ctx, r.options.FrameTime); err != nil {
			return err
		}
	}

	start := time.Now()
	blockAssignments := r.scheduler.Schedule(r.tracers, r.options.FrameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))
	var blockY uint32
	pending := 0
	for idx, tr := range r.tracers {
		if blockAssignments[idx] == 0 {
			continue
		}
		tr.Enqueue(tracer.BlockRequest{
			BlockY:     blockY,
			BlockH:     blockAssignments[idx],
			FrameCount: r.frameCount,
			DoneChan:   doneChan,
			ErrChan:    errChan,
		})
		blockY += blockAssignments[idx]
		pending++
	}

	var err error
	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		case <-r.ctx.Done():
			return ErrInterrupted
		}
	}
	if err != nil {
		return err
	}

	r.frameCount++
	r.updateStats(blockAssignments, time.Since(start))
	return nil
}

// Get the frame written by the last Render call.
func (r *defaultRenderer) Frame() *tracer.Frame {
	return r.frame
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	r.cancel()
	if r.driver != nil {
		r.driver.Close()
	}
	for _, tr := range r.tracers {
		tr.Close()
	}
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

func (r *defaultRenderer) updateStats(blockAssignments []uint32, renderTime time.Duration) {
	stats := FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
		FrameCount: r.frameCount,
		Coverage:   r.frame.Coverage(),
	}

	var shadowRays, occluded uint64
	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		stat := TracerStat{
			Id:           tr.Id(),
			IsPrimary:    idx == 0,
			BlockH:       blockAssignments[idx],
			FramePercent: 100 * float32(blockAssignments[idx]) / float32(r.options.FrameH),
			RenderTime:   time.Duration(trStats.BlockTime),
			Rays:         trStats.Rays,
		}
		if trStats.Rays > 0 {
			stat.AvgSteps = float32(trStats.Steps) / float32(trStats.Rays)
		}
		stats.Tracers[idx] = stat
		shadowRays += trStats.ShadowRays
		occluded += trStats.Occluded
	}
	if shadowRays > 0 {
		stats.OccludedRatio = float32(occluded) / float32(shadowRays)
	}
	if r.driver != nil {
		stats.Driver = r.driver.Stats()
	}

	r.stats = stats
	r.logger.Debugf("rendered frame %d in %d ms", r.frameCount, renderTime.Nanoseconds()/1e6)
}
