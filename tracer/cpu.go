package tracer

import (
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

// Shadow ray origins are pushed off the surface by this amount.
const shadowBias float32 = 1e-3

// Shade value for lit surfaces facing away from the light and for shadowed surfaces.
const ambient float32 = 0.1

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[ChangeType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *Stats

	speed float32

	frame    *Frame
	scene    bvh.Accelerator
	camera   *Camera
	lightDir types.Vec3
}

// Create a new tracer that renders blocks on a single goroutine. The speed
// value is reported to the block scheduler before any timing feedback exists.
func NewCPUTracer(id string, speed float32) Tracer {
	if speed <= 0 {
		speed = 1
	}
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		updateBuffer: make(map[ChangeType]interface{}),
		blockReqChan: make(chan BlockRequest, 1),
		stats:        &Stats{},
		speed:        speed,
		lightDir:     DefaultLightDir,
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

func (tr *cpuTracer) SpeedEstimate() float32 {
	return tr.speed
}

// Attach frame and start the worker.
func (tr *cpuTracer) Setup(frame *Frame) error {
	if frame == nil {
		return ErrNotSetup
	}
	tr.Lock()
	defer tr.Unlock()

	tr.frame = frame
	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown the worker.
func (tr *cpuTracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.Unlock()

	// The worker may be holding the lock while applying changes so wait
	// for it to exit without holding it.
	if closeChan != nil {
		close(closeChan)
		tr.wg.Wait()
	}

	tr.Lock()
	tr.frame = nil
	tr.scene = nil
	tr.Unlock()
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- ErrBusy
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) AppendChange(changeType ChangeType, data interface{}) {
	tr.Lock()
	tr.updateBuffer[changeType] = data
	tr.Unlock()
}

// Apply all pending changes from the update buffer.
func (tr *cpuTracer) ApplyPendingChanges() error {
	tr.Lock()
	defer tr.Unlock()
	return tr.commitUpdates()
}

// Retrieve a copy of the last block statistics.
func (tr *cpuTracer) Stats() *Stats {
	tr.Lock()
	defer tr.Unlock()
	stats := *tr.stats
	return &stats
}

// Commit queued changes. This method is meant to be called while holding tr.Lock()
func (tr *cpuTracer) commitUpdates() error {
	for changeType, data := range tr.updateBuffer {
		switch changeType {
		case SetAccelerator:
			accel, ok := data.(bvh.Accelerator)
			if !ok {
				return fmt.Errorf("tracer: expected a bvh.Accelerator; got %T", data)
			}
			tr.scene = accel
		case UpdateCamera:
			camera, ok := data.(*Camera)
			if !ok {
				return fmt.Errorf("tracer: expected a *Camera; got %T", data)
			}
			tr.camera = camera
		case SetLightDirection:
			dir, ok := data.(types.Vec3)
			if !ok {
				return fmt.Errorf("tracer: expected a light direction vector; got %T", data)
			}
			tr.lightDir = dir.Normalize()
		default:
			return fmt.Errorf("tracer: unsupported change type %d", changeType)
		}
	}

	tr.updateBuffer = make(map[ChangeType]interface{})
	return nil
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	closeChan := make(chan struct{})
	tr.closeChan = closeChan

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()
				if err := tr.ApplyPendingChanges(); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				updateTime := time.Since(startTime)

				stats, err := tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				stats.UpdateTime = updateTime.Nanoseconds()
				stats.BlockTime = time.Since(startTime).Nanoseconds()
				tr.Lock()
				*tr.stats = stats
				tr.Unlock()

				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Trace a primary ray per pixel of the block and a shadow ray towards the
// light for every pixel that hit a surface.
func (tr *cpuTracer) renderBlock(blockReq *BlockRequest) (Stats, error) {
	tr.Lock()
	frame, scene, camera, lightDir := tr.frame, tr.scene, tr.camera, tr.lightDir
	tr.Unlock()

	stats := Stats{BlockH: blockReq.BlockH}
	switch {
	case frame == nil:
		return stats, ErrNotSetup
	case scene == nil:
		return stats, ErrNoSceneData
	case camera == nil:
		return stats, ErrNoCamera
	case blockReq.BlockY+blockReq.BlockH > frame.H:
		return stats, ErrBlockOutOfRange
	}

	for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
		for x := uint32(0); x < frame.W; x++ {
			offset := frame.offset(x, y)
			ray := camera.Ray(x, y, frame.W, frame.H)
			steps := scene.TraceDebug(&ray)

			stats.Rays++
			stats.Steps += uint64(steps)
			frame.Heat[offset] = uint32(steps)
			frame.Shade[offset] = 0

			if !ray.IsValid() {
				frame.Depth[offset] = math32.Inf(1)
				continue
			}
			stats.Hits++
			frame.Depth[offset] = ray.T

			normal := ray.Hit.Normal
			if normal.Dot(ray.Dir) > 0 {
				normal = normal.Mul(-1)
			}
			lambert := normal.Dot(lightDir)
			if lambert <= 0 {
				frame.Shade[offset] = ambient
				continue
			}

			stats.ShadowRays++
			origin := ray.At(ray.T).Add(normal.Mul(shadowBias))
			shadowRay := types.NewRay(origin, lightDir)
			if scene.TraceShadowRay(&shadowRay, math32.Inf(1)) {
				stats.Occluded++
				frame.Shade[offset] = ambient
				continue
			}
			frame.Shade[offset] = ambient + (1-ambient)*lambert
		}
	}

	return stats, nil
}
