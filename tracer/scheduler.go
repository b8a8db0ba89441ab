package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler splits the frame using the tracer speed estimates
// and ignores any feedback from previously rendered frames.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	return speedAssignment(tracers, frameH)
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// When previous frame information is available the scheduler uses the
// following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if len(sch.blockAssignment) != len(tracers) || !haveFeedback(tracers) {
		sch.blockAssignment = speedAssignment(tracers, frameH)
		return sch.blockAssignment
	}

	// Use last frame statistics
	var total float64
	var stats *Stats
	for _, tr := range tracers {
		stats = tr.Stats()
		total += float64(stats.BlockH) / float64(stats.BlockTime)
	}

	scaler := float64(frameH) / total
	rows := make([]float64, len(tracers))
	for idx, tr := range tracers {
		stats = tr.Stats()
		rows[idx] = float64(stats.BlockH) / float64(stats.BlockTime) * scaler
	}
	sch.blockAssignment = distributeRows(rows, frameH)
	return sch.blockAssignment
}

// Check that every tracer has timing information for its last block.
func haveFeedback(tracers []Tracer) bool {
	for _, tr := range tracers {
		stats := tr.Stats()
		if stats == nil || stats.BlockH == 0 || stats.BlockTime <= 0 {
			return false
		}
	}
	return true
}

// Split rows proportionally to each tracer's speed estimate.
func speedAssignment(tracers []Tracer, frameH uint32) []uint32 {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.SpeedEstimate())
	}
	scaler := float64(frameH) / total

	rows := make([]float64, len(tracers))
	for idx, tr := range tracers {
		rows[idx] = float64(tr.SpeedEstimate()) * scaler
	}
	return distributeRows(rows, frameH)
}

// Round fractional row counts so that every tracer receives at least one row
// (frame height permitting) and the assignments add up to frameH. Rounding
// leftovers go to the first tracer and any excess is taken from the last of the
// largest blocks.
func distributeRows(rows []float64, frameH uint32) []uint32 {
	assignment := make([]uint32, len(rows))
	if len(rows) == 0 {
		return assignment
	}

	var scheduledRows uint32
	for idx, r := range rows {
		assignment[idx] = uint32(math.Max(1.0, math.Floor(r)))
		scheduledRows += assignment[idx]
	}

	// In case rows don't add up to the frame height append the missing ones to the first tracer
	if scheduledRows < frameH {
		assignment[0] += frameH - scheduledRows
		return assignment
	}

	for scheduledRows > frameH {
		largest := 0
		for idx := range assignment {
			if assignment[idx] >= assignment[largest] {
				largest = idx
			}
		}
		if assignment[largest] == 0 {
			break
		}
		assignment[largest]--
		scheduledRows--
	}
	return assignment
}
