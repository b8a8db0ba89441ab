package bvh

import "github.com/achilleasa/polaris-rt/types"

// Max depth of the explicit traversal stacks before they spill to the heap.
const stackSize = 2 * DefaultMaxDepth

type stackEntry struct {
	node int32
	tmin float32
}

// Find the closest primitive hit by the ray. The hit is recorded on the
// ray; rays that miss are left untouched.
func (t *BVH) TraceRay(ray *types.Ray) {
	if !t.canUse {
		return
	}
	if _, ok := t.nodeHit(0, ray); !ok {
		return
	}
	t.traceNode(0, ray)
}

func (t *BVH) traceNode(idx int32, ray *types.Ray) {
	node := &t.nodes[idx]
	if node.IsLeaf() {
		t.intersectLeaf(node.Meta, ray)
		return
	}

	near, far := node.Meta.LeftFirst, node.Meta.LeftFirst+1
	tNear, hitNear := t.nodeHit(near, ray)
	tFar, hitFar := t.nodeHit(far, ray)
	if hitNear && hitFar {
		if tFar < tNear {
			near, far = far, near
			tFar = tNear
		}
		t.traceNode(near, ray)
		// The near side may have found something closer than the far box
		if tFar < ray.T {
			t.traceNode(far, ray)
		}
		return
	}

	if hitNear {
		t.traceNode(near, ray)
	} else if hitFar {
		t.traceNode(far, ray)
	}
}

// Stack based version of TraceRay. Both methods report identical hits.
func (t *BVH) TraceRayStack(ray *types.Ray) {
	if !t.canUse {
		return
	}
	tRoot, ok := t.nodeHit(0, ray)
	if !ok {
		return
	}

	var buf [stackSize]stackEntry
	stack := append(buf[:0], stackEntry{node: 0, tmin: tRoot})
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if entry.tmin >= ray.T {
			continue
		}

		node := &t.nodes[entry.node]
		if node.IsLeaf() {
			t.intersectLeaf(node.Meta, ray)
			continue
		}

		near, far := node.Meta.LeftFirst, node.Meta.LeftFirst+1
		tNear, hitNear := t.nodeHit(near, ray)
		tFar, hitFar := t.nodeHit(far, ray)
		if hitNear && hitFar && tFar < tNear {
			near, far = far, near
			tNear, tFar = tFar, tNear
		}

		// Push the far child first so the near child is popped next
		if hitFar {
			stack = append(stack, stackEntry{node: far, tmin: tFar})
		}
		if hitNear {
			stack = append(stack, stackEntry{node: near, tmin: tNear})
		}
	}
}

// Check whether any primitive is hit at a distance below tMax. Stops at
// the first hit found. The caller's ray is not modified.
func (t *BVH) TraceShadowRay(ray *types.Ray, tMax float32) bool {
	if !t.canUse {
		return false
	}
	probe := *ray
	probe.Reset(tMax)
	if _, ok := t.nodeHit(0, &probe); !ok {
		return false
	}
	return t.occluded(0, &probe)
}

func (t *BVH) occluded(idx int32, ray *types.Ray) bool {
	node := &t.nodes[idx]
	if node.IsLeaf() {
		for _, primIndex := range t.leafIndices(node.Meta) {
			if t.prims.Intersect(int(primIndex), ray) {
				return true
			}
		}
		return false
	}

	left := node.Meta.LeftFirst
	if _, ok := t.nodeHit(left, ray); ok && t.occluded(left, ray) {
		return true
	}
	if _, ok := t.nodeHit(left+1, ray); ok && t.occluded(left+1, ray) {
		return true
	}
	return false
}

// Run a nearest-hit query and return the number of node visits plus
// primitive tests it took.
func (t *BVH) TraceDebug(ray *types.Ray) int {
	if !t.canUse {
		return 0
	}
	steps := 1
	if _, ok := t.nodeHit(0, ray); ok {
		t.traceDebugNode(0, ray, &steps)
	}
	return steps
}

func (t *BVH) traceDebugNode(idx int32, ray *types.Ray, steps *int) {
	node := &t.nodes[idx]
	if node.IsLeaf() {
		*steps += int(node.Meta.Count)
		t.intersectLeaf(node.Meta, ray)
		return
	}

	*steps += 2
	near, far := node.Meta.LeftFirst, node.Meta.LeftFirst+1
	tNear, hitNear := t.nodeHit(near, ray)
	tFar, hitFar := t.nodeHit(far, ray)
	if hitNear && hitFar {
		if tFar < tNear {
			near, far = far, near
			tFar = tNear
		}
		t.traceDebugNode(near, ray, steps)
		if tFar < ray.T {
			t.traceDebugNode(far, ray, steps)
		}
		return
	}

	if hitNear {
		t.traceDebugNode(near, ray, steps)
	} else if hitFar {
		t.traceDebugNode(far, ray, steps)
	}
}

// Slab test node idx against the ray. The box counts as hit only if it
// starts closer than the current closest hit.
func (t *BVH) nodeHit(idx int32, ray *types.Ray) (float32, bool) {
	tmin, _, hit := t.nodes[idx].Bounds.IntersectRay(ray)
	return tmin, hit && tmin < ray.T
}

func (t *BVH) intersectLeaf(meta Meta, ray *types.Ray) {
	for _, primIndex := range t.leafIndices(meta) {
		t.prims.Intersect(int(primIndex), ray)
	}
}

func (t *BVH) leafIndices(meta Meta) []uint32 {
	return t.indices[meta.LeftFirst : meta.LeftFirst+meta.Count]
}
