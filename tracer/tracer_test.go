package tracer

import (
	"testing"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

func threeCubeScene(extra ...primitive.Primitive) bvh.Accelerator {
	list := primitive.NewList()
	for _, x := range []float32{-2, 0, 2} {
		list.Add(primitive.NewCubeMesh(types.XYZ(x, 0, 0), 0.5)...)
	}
	list.Add(extra...)

	tree := bvh.New(list, bvh.DefaultOptions())
	tree.ConstructBVH()
	return tree
}

func testCamera(frameW, frameH uint32) *Camera {
	camera := NewCamera(45)
	camera.Position = types.XYZ(0, 0, 10)
	camera.LookAt = types.XYZ(0, 0, 0)
	camera.SetupProjection(float32(frameW) / float32(frameH))
	return camera
}

func renderBlock(t *testing.T, tr Tracer, blockY, blockH uint32) error {
	t.Helper()
	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(BlockRequest{
		BlockY:   blockY,
		BlockH:   blockH,
		DoneChan: doneChan,
		ErrChan:  errChan,
	})

	select {
	case rows := <-doneChan:
		if rows != blockH {
			t.Fatalf("expected tracer to complete %d rows; got %d", blockH, rows)
		}
		return nil
	case err := <-errChan:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for block")
	}
	return nil
}

func TestCameraCenterRay(t *testing.T) {
	camera := testCamera(1, 1)
	ray := camera.Ray(0, 0, 1, 1)
	if !ray.Dir.ApproxEqual(types.XYZ(0, 0, -1), 1e-5) {
		t.Fatalf("expected center ray to point down -Z; got %v", ray.Dir)
	}
	if ray.Origin != types.XYZ(0, 0, 10) {
		t.Fatalf("expected ray origin to be the camera position; got %v", ray.Origin)
	}

	// Row 0 is the top of the frame
	top := camera.Ray(1, 0, 3, 3)
	bottom := camera.Ray(1, 2, 3, 3)
	if top.Dir[1] <= 0 || bottom.Dir[1] >= 0 {
		t.Fatalf("expected top row ray to point up and bottom row ray to point down; got %v and %v", top.Dir, bottom.Dir)
	}
}

func TestCameraYaw(t *testing.T) {
	camera := testCamera(1, 1)
	camera.Yaw = math32.Pi / 2
	camera.Update()

	ray := camera.Ray(0, 0, 1, 1)
	if !ray.Dir.ApproxEqual(types.XYZ(-1, 0, 0), 1e-5) {
		t.Fatalf("expected yawed center ray to point down -X; got %v", ray.Dir)
	}
	if camera.Yaw != 0 {
		t.Fatalf("expected yaw delta to be consumed; got %f", camera.Yaw)
	}
}

func TestCPUTracerDepth(t *testing.T) {
	const frameW, frameH = 32, 32
	frame := NewFrame(frameW, frameH)

	tr := NewCPUTracer("cpu-0", 1)
	defer tr.Close()
	if err := tr.Setup(frame); err != nil {
		t.Fatal(err)
	}
	tr.AppendChange(SetAccelerator, threeCubeScene())
	tr.AppendChange(UpdateCamera, testCamera(frameW, frameH))

	if err := renderBlock(t, tr, 0, frameH); err != nil {
		t.Fatal(err)
	}

	if depth := frame.DepthAt(16, 16); math32.Abs(depth-9.5) > 0.05 {
		t.Fatalf("expected center pixel depth to be close to 9.5; got %f", depth)
	}
	if depth := frame.DepthAt(0, 0); !math32.IsInf(depth, 1) {
		t.Fatalf("expected corner pixel to miss; got depth %f", depth)
	}
	if coverage := frame.Coverage(); coverage <= 0 || coverage >= 1 {
		t.Fatalf("expected partial frame coverage; got %f", coverage)
	}
	min, max := frame.DepthRange()
	if min < 9.4 || max > 12 {
		t.Fatalf("expected depth range within [9.4, 12]; got [%f, %f]", min, max)
	}

	stats := tr.Stats()
	if stats.Rays != frameW*frameH {
		t.Fatalf("expected %d primary rays; got %d", frameW*frameH, stats.Rays)
	}
	if stats.Hits == 0 || stats.Hits >= stats.Rays {
		t.Fatalf("expected some but not all rays to hit; got %d hits", stats.Hits)
	}
	if avg, maxHeat := frame.HeatStats(); avg <= 0 || maxHeat == 0 {
		t.Fatalf("expected non-zero traversal heat; got avg %f max %d", avg, maxHeat)
	}
}

func TestCPUTracerStatsSnapshot(t *testing.T) {
	const frameW, frameH = 16, 16
	frame := NewFrame(frameW, frameH)

	tr := NewCPUTracer("cpu-0", 1)
	defer tr.Close()
	if err := tr.Setup(frame); err != nil {
		t.Fatal(err)
	}
	tr.AppendChange(SetAccelerator, threeCubeScene())
	tr.AppendChange(UpdateCamera, testCamera(frameW, frameH))

	if err := renderBlock(t, tr, 0, frameH); err != nil {
		t.Fatal(err)
	}
	full := tr.Stats()

	// Poll stats while further blocks are rendered
	stop := make(chan struct{})
	polled := make(chan int)
	go func() {
		count := 0
		for {
			select {
			case <-stop:
				polled <- count
				return
			default:
			}
			if stats := tr.Stats(); stats.BlockH != 0 {
				count++
			}
		}
	}()
	for blockY := uint32(0); blockY < frameH; blockY += 4 {
		if err := renderBlock(t, tr, blockY, 4); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	if count := <-polled; count == 0 {
		t.Fatal("expected concurrent stats reads to observe rendered blocks")
	}

	if full.BlockH != frameH || full.Rays != frameW*frameH {
		t.Fatalf("expected earlier stats snapshot to be unaffected by later blocks; got %d rows and %d rays", full.BlockH, full.Rays)
	}
	if last := tr.Stats(); last.BlockH != 4 || last.Rays != frameW*4 {
		t.Fatalf("expected stats for the last 4 row block; got %d rows and %d rays", last.BlockH, last.Rays)
	}
}

func TestCPUTracerShadows(t *testing.T) {
	const frameW, frameH = 32, 32
	light := types.XYZ(0, 0.6, 0.8)
	lit := ambient + (1-ambient)*0.8

	specs := []struct {
		occluders []primitive.Primitive
		expShade  float32
	}{
		{nil, lit},
		{[]primitive.Primitive{primitive.NewBox(types.XYZ(0, 3, 4.5), types.XYZ(3, 0.5, 0.5))}, ambient},
	}

	for index, s := range specs {
		frame := NewFrame(frameW, frameH)
		tr := NewCPUTracer("cpu-0", 1)
		if err := tr.Setup(frame); err != nil {
			t.Fatal(err)
		}
		tr.AppendChange(SetAccelerator, threeCubeScene(s.occluders...))
		tr.AppendChange(UpdateCamera, testCamera(frameW, frameH))
		tr.AppendChange(SetLightDirection, light)

		if err := renderBlock(t, tr, 0, frameH); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		tr.Close()

		if shade := frame.Shade[frame.offset(16, 16)]; math32.Abs(shade-s.expShade) > 1e-3 {
			t.Fatalf("[spec %d] expected center pixel shade %f; got %f", index, s.expShade, shade)
		}
	}
}

func TestCPUTracerErrors(t *testing.T) {
	frame := NewFrame(4, 4)
	tr := NewCPUTracer("cpu-0", 1)
	defer tr.Close()
	if err := tr.Setup(frame); err != nil {
		t.Fatal(err)
	}

	if err := renderBlock(t, tr, 0, 4); err != ErrNoSceneData {
		t.Fatalf("expected error %v; got %v", ErrNoSceneData, err)
	}

	tr.AppendChange(SetAccelerator, threeCubeScene())
	if err := renderBlock(t, tr, 0, 4); err != ErrNoCamera {
		t.Fatalf("expected error %v; got %v", ErrNoCamera, err)
	}

	tr.AppendChange(UpdateCamera, testCamera(4, 4))
	if err := renderBlock(t, tr, 2, 4); err != ErrBlockOutOfRange {
		t.Fatalf("expected error %v; got %v", ErrBlockOutOfRange, err)
	}

	tr.AppendChange(UpdateCamera, "not a camera")
	if err := renderBlock(t, tr, 0, 4); err == nil {
		t.Fatal("expected an error when applying an invalid camera change")
	}
}
