package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/polaris-rt/asset/reader"
	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/renderer"
	"github.com/achilleasa/polaris-rt/tlas"
	"github.com/achilleasa/polaris-rt/tracer"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
	"github.com/tanema/gween/ease"
	"github.com/urfave/cli"
)

// Render still frames.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, world, bc, err := loadWorld(ctx)
	if err != nil {
		return err
	}

	tl := tlas.New(world.Static, world.Graph, bc, tlas.DefaultOptions())
	if err = tl.Rebuild(context.Background()); err != nil {
		return err
	}

	r, err := newRenderer(ctx, sc, tl, nil)
	if err != nil {
		return err
	}
	defer r.Close()

	for frame := 0; frame < ctx.Int("frames"); frame++ {
		if err = r.Render(); err != nil {
			return err
		}
	}

	reportFrame(r)
	return nil
}

// Render frames while animating the scene's game objects.
func RenderAnimation(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, world, bc, err := loadWorld(ctx)
	if err != nil {
		return err
	}
	roots := world.Graph.Roots()
	if len(roots) == 0 {
		return fmt.Errorf("scene %s contains no game objects to animate", ctx.Args().First())
	}

	tl := tlas.New(world.Static, world.Graph, bc, tlas.DefaultOptions())
	driver, err := renderer.NewDriver(world.Graph, tl, ctx.Duration("rebuild-interval"))
	if err != nil {
		return err
	}

	// Alternate between spinning and sliding root objects
	period := ctx.Duration("period")
	for index, id := range roots {
		var anim *renderer.Animation
		if index%2 == 0 {
			anim = renderer.NewSpin(id, types.XYZ(0, 1, 0), 2*math32.Pi, period, ease.Linear)
		} else {
			anim = renderer.NewTranslation(id, types.XYZ(1, 0, 0), float32(ctx.Float64("distance")), period, ease.InOutQuad)
		}
		anim.PingPong = true
		driver.Animate(anim)
	}

	r, err := newRenderer(ctx, sc, tl, driver)
	if err != nil {
		return err
	}
	defer r.Close()

	start := time.Now()
	frames := ctx.Int("frames")
	for frame := 0; frame < frames; frame++ {
		if err = r.Render(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	logger.Noticef("rendered %d frames in %s (%.1f fps)", frames, elapsed, float64(frames)/elapsed.Seconds())

	reportFrame(r)
	return nil
}

func newRenderer(ctx *cli.Context, sc *reader.Scene, accel bvh.Accelerator, driver *renderer.Driver) (renderer.Renderer, error) {
	opts := renderer.DefaultOptions()
	opts.FrameW = uint32(ctx.Int("width"))
	opts.FrameH = uint32(ctx.Int("height"))
	if fps := ctx.Int("fps"); fps > 0 {
		opts.FrameTime = time.Second / time.Duration(fps)
	}

	scheduler := tracer.PerfectScheduler()
	if ctx.Bool("naive") {
		scheduler = tracer.NaiveScheduler()
	}

	return renderer.NewDefault(accel, sceneCamera(sc), scheduler, newCPUTracers(ctx.Int("tracers")), driver, opts)
}

// Display frame statistics for the last rendered frame.
func reportFrame(r renderer.Renderer) {
	logger.Noticef("frame statistics\n%s", r.Stats().Table())

	frame := r.Frame()
	minDepth, maxDepth := frame.DepthRange()
	avgHeat, maxHeat := frame.HeatStats()
	logger.Noticef(
		"coverage: %.1f%%, depth range: [%.3f, %.3f], traversal steps: avg %.1f, max %d",
		frame.Coverage()*100, minDepth, maxDepth, avgHeat, maxHeat,
	)
}
