package tracer

import "github.com/chewxy/math32"

// Frame holds the per-pixel outputs of the block tracers. Rows are
// stored top to bottom; each tracer only writes the rows of its block.
type Frame struct {
	W, H uint32

	// Distance to the closest hit; +Inf for rays that escaped the scene.
	Depth []float32

	// Number of traversal steps spent on each primary ray.
	Heat []uint32

	// Ambient plus lambert term towards the light. Shadowed pixels only get
	// the ambient term and missed pixels are 0.
	Shade []float32
}

// Allocate a frame with the given dimensions.
func NewFrame(w, h uint32) *Frame {
	size := int(w) * int(h)
	return &Frame{
		W:     w,
		H:     h,
		Depth: make([]float32, size),
		Heat:  make([]uint32, size),
		Shade: make([]float32, size),
	}
}

// Get the fraction of pixels whose primary ray hit something.
func (f *Frame) Coverage() float32 {
	if len(f.Depth) == 0 {
		return 0
	}
	hits := 0
	for _, d := range f.Depth {
		if !math32.IsInf(d, 1) {
			hits++
		}
	}
	return float32(hits) / float32(len(f.Depth))
}

// Get the min and max depth over all pixels that hit something. Both
// values are +Inf when nothing was hit.
func (f *Frame) DepthRange() (float32, float32) {
	min, max := math32.Inf(1), math32.Inf(1)
	for _, d := range f.Depth {
		if math32.IsInf(d, 1) {
			continue
		}
		if d < min {
			min = d
		}
		if math32.IsInf(max, 1) || d > max {
			max = d
		}
	}
	return min, max
}

// Get the average and maximum number of traversal steps per pixel.
func (f *Frame) HeatStats() (float32, uint32) {
	if len(f.Heat) == 0 {
		return 0, 0
	}
	var total uint64
	var max uint32
	for _, h := range f.Heat {
		total += uint64(h)
		if h > max {
			max = h
		}
	}
	return float32(total) / float32(len(f.Heat)), max
}

// Get the index of pixel (x, y).
func (f *Frame) offset(x, y uint32) int {
	return int(y)*int(f.W) + int(x)
}

// Get the depth value at pixel (x, y).
func (f *Frame) DepthAt(x, y uint32) float32 {
	return f.Depth[f.offset(x, y)]
}
