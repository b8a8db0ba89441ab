package tracer

import "github.com/achilleasa/polaris-rt/types"

type ChangeType uint8

const (
	SetAccelerator ChangeType = iota
	UpdateCamera
	SetLightDirection
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// Number of frames rendered so far.
	FrameCount uint32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block (in nanoseconds)
	BlockTime int64

	// The time spent applying pending changes before rendering (in nanoseconds).
	UpdateTime int64

	// Primary rays traced, primary rays that hit something and the total
	// number of traversal steps for the block.
	Rays  uint64
	Hits  uint64
	Steps uint64

	// Shadow rays traced and the number of them that were occluded.
	ShadowRays uint64
	Occluded   uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline single core implementation.
	SpeedEstimate() float32

	// Attach the frame the tracer writes into and start processing requests.
	Setup(frame *Frame) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve last frame statistics.
	Stats() *Stats
}

// The default light direction used for shadow rays.
var DefaultLightDir = types.XYZ(0.3, 1, 0.5).Normalize()
