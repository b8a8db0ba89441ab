package bvh

import (
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

// Slab test the ray against all 4 slots of a wide node. Returns the entry
// distance per slot and a mask of slots that are hit closer than ray.T.
func intersectWide(node *WideNode, ray *types.Ray) (types.Lane4, types.Mask4) {
	nearX, farX := node.MinX, node.MaxX
	if ray.InvDir[0] < 0 {
		nearX, farX = farX, nearX
	}
	nearY, farY := node.MinY, node.MaxY
	if ray.InvDir[1] < 0 {
		nearY, farY = farY, nearY
	}
	nearZ, farZ := node.MinZ, node.MaxZ
	if ray.InvDir[2] < 0 {
		nearZ, farZ = farZ, nearZ
	}

	ox, oy, oz := types.Splat4(ray.Origin[0]), types.Splat4(ray.Origin[1]), types.Splat4(ray.Origin[2])
	ix, iy, iz := types.Splat4(ray.InvDir[0]), types.Splat4(ray.InvDir[1]), types.Splat4(ray.InvDir[2])

	tmin := types.Max4(
		types.Max4(nearX.Sub(ox).Mul(ix), nearY.Sub(oy).Mul(iy)),
		nearZ.Sub(oz).Mul(iz),
	)
	tmax := types.Min4(
		types.Min4(farX.Sub(ox).Mul(ix), farY.Sub(oy).Mul(iy)),
		farZ.Sub(oz).Mul(iz),
	)

	mask := tmax.Ge(types.Splat4(0)) & tmin.Le(tmax) & tmin.Lt(types.Splat4(ray.T))
	for i := 0; i < 4; i++ {
		if node.Count[i] == 0 {
			mask &^= 1 << uint(i)
		}
	}
	return tmin, mask
}

// Order slots by entry distance using a 5 comparator sorting network.
// Slots that were not hit sort last.
func sortSlots(tmin types.Lane4, mask types.Mask4) [4]int {
	inf := math32.Inf(1)
	dist := types.Select4(mask, tmin, types.Splat4(inf))
	order := [4]int{0, 1, 2, 3}

	cmpSwap := func(a, b int) {
		if dist[order[b]] < dist[order[a]] {
			order[a], order[b] = order[b], order[a]
		}
	}
	cmpSwap(0, 1)
	cmpSwap(2, 3)
	cmpSwap(0, 2)
	cmpSwap(1, 3)
	cmpSwap(1, 2)
	return order
}

// Find the closest primitive hit by the ray.
func (w *WideBVH) TraceRay(ray *types.Ray) {
	if !w.CanUseBVH() {
		return
	}
	w.traceNode(0, ray)
}

func (w *WideBVH) traceNode(idx int32, ray *types.Ray) {
	node := &w.nodes[idx]
	tmin, mask := intersectWide(node, ray)
	if !mask.Any() {
		return
	}

	for _, slot := range sortSlots(tmin, mask) {
		if !mask.Lane(slot) {
			break
		}
		// Skip slots that start beyond a hit found in an earlier slot
		if tmin[slot] >= ray.T {
			continue
		}
		if node.Count[slot] == -1 {
			w.traceNode(node.Child[slot], ray)
			continue
		}
		w.intersectLeaf(node.Child[slot], node.Count[slot], ray)
	}
}

// Stack based version of TraceRay. Both methods report identical hits.
func (w *WideBVH) TraceRayStack(ray *types.Ray) {
	if !w.CanUseBVH() {
		return
	}

	var buf [stackSize]stackEntry
	stack := append(buf[:0], stackEntry{node: 0, tmin: math32.Inf(-1)})
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if entry.tmin >= ray.T {
			continue
		}

		node := &w.nodes[entry.node]
		tmin, mask := intersectWide(node, ray)
		if !mask.Any() {
			continue
		}

		order := sortSlots(tmin, mask)

		// Test leaves in near to far order; push interior slots far to near
		// so that the nearest one is popped first.
		for _, slot := range order {
			if !mask.Lane(slot) {
				break
			}
			if node.Count[slot] >= 0 && tmin[slot] < ray.T {
				w.intersectLeaf(node.Child[slot], node.Count[slot], ray)
			}
		}
		for i := 3; i >= 0; i-- {
			slot := order[i]
			if mask.Lane(slot) && node.Count[slot] == -1 {
				stack = append(stack, stackEntry{node: node.Child[slot], tmin: tmin[slot]})
			}
		}
	}
}

// Check whether any primitive is hit at a distance below tMax. Stops at
// the first hit found. The caller's ray is not modified.
func (w *WideBVH) TraceShadowRay(ray *types.Ray, tMax float32) bool {
	if !w.CanUseBVH() {
		return false
	}
	probe := *ray
	probe.Reset(tMax)
	return w.occluded(0, &probe)
}

func (w *WideBVH) occluded(idx int32, ray *types.Ray) bool {
	node := &w.nodes[idx]
	_, mask := intersectWide(node, ray)
	for slot := 0; slot < 4; slot++ {
		if !mask.Lane(slot) {
			continue
		}
		if node.Count[slot] == -1 {
			if w.occluded(node.Child[slot], ray) {
				return true
			}
			continue
		}
		first, count := node.Child[slot], node.Count[slot]
		for _, primIndex := range w.flat.indices[first : first+count] {
			if w.flat.prims.Intersect(int(primIndex), ray) {
				return true
			}
		}
	}
	return false
}

// Run a nearest-hit query and return the number of node visits plus
// primitive tests it took.
func (w *WideBVH) TraceDebug(ray *types.Ray) int {
	if !w.CanUseBVH() {
		return 0
	}
	steps := 0
	w.traceDebugNode(0, ray, &steps)
	return steps
}

func (w *WideBVH) traceDebugNode(idx int32, ray *types.Ray, steps *int) {
	*steps++
	node := &w.nodes[idx]
	tmin, mask := intersectWide(node, ray)
	for _, slot := range sortSlots(tmin, mask) {
		if !mask.Lane(slot) {
			break
		}
		if tmin[slot] >= ray.T {
			continue
		}
		if node.Count[slot] == -1 {
			w.traceDebugNode(node.Child[slot], ray, steps)
			continue
		}
		*steps += int(node.Count[slot])
		w.intersectLeaf(node.Child[slot], node.Count[slot], ray)
	}
}

func (w *WideBVH) intersectLeaf(first, count int32, ray *types.Ray) {
	for _, primIndex := range w.flat.indices[first : first+count] {
		w.flat.prims.Intersect(int(primIndex), ray)
	}
}
