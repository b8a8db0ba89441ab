package bvh

import (
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

type splitCandidate struct {
	axis int
	pos  float32
	cost float32
}

// Pick the cheapest split plane for indices[first:first+count] using the
// configured strategy. Returns false if no candidate plane separates the
// primitives.
func (t *BVH) findSplit(bounds types.AABB, first, count int32) (splitCandidate, bool) {
	best := splitCandidate{cost: math32.Inf(1)}

	switch t.opts.Strategy {
	case CentralSplit:
		axis := bounds.LongestAxis()
		pos := bounds.Min[axis] + bounds.Lengths()[axis]*0.5
		best = splitCandidate{axis: axis, pos: pos, cost: t.splitCost(first, count, axis, pos)}
	case FullSAH:
		for _, primIndex := range t.indices[first : first+count] {
			for axis := 0; axis < 3; axis++ {
				pos := t.centroids[primIndex][axis]
				if cost := t.splitCost(first, count, axis, pos); cost < best.cost {
					best = splitCandidate{axis: axis, pos: pos, cost: cost}
				}
			}
		}
	default:
		lengths := bounds.Lengths()
		bins := float32(t.opts.Bins)
		for axis := 0; axis < 3; axis++ {
			if lengths[axis] == 0 {
				continue
			}
			for i := 1; i < t.opts.Bins; i++ {
				pos := bounds.Min[axis] + lengths[axis]*float32(i)/bins
				if cost := t.splitCost(first, count, axis, pos); cost < best.cost {
					best = splitCandidate{axis: axis, pos: pos, cost: cost}
				}
			}
		}
	}

	return best, !math32.IsInf(best.cost, 1)
}

// Evaluate the SAH cost of splitting indices[first:first+count] at pos:
//
// left count * left half area + right count * right half area
//
// Splits that leave one side empty cost +inf.
func (t *BVH) splitCost(first, count int32, axis int, pos float32) float32 {
	left, right := types.EmptyAABB(), types.EmptyAABB()
	var leftCount, rightCount int
	for _, primIndex := range t.indices[first : first+count] {
		if t.centroids[primIndex][axis] <= pos {
			left.GrowAABB(t.primBounds[primIndex])
			leftCount++
		} else {
			right.GrowAABB(t.primBounds[primIndex])
			rightCount++
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return math32.Inf(1)
	}
	return float32(leftCount)*left.HalfArea() + float32(rightCount)*right.HalfArea()
}
