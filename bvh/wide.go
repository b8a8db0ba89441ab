package bvh

import (
	"time"

	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/types"
)

// WideBVH is a 4-ary view of a flat BVH. Every wide node collapses one
// binary interior node and its children into up to 4 slots. Leaf slots
// reference primitive ranges in the flat tree's index permutation.
type WideBVH struct {
	logger log.Logger
	flat   *BVH

	nodes   []WideNode
	poolPtr int32

	buildTime time.Duration
}

// Create a wide BVH over a built flat tree. Call MergeNodes or
// MergeNodesParallel to populate it.
func NewWideBVH(flat *BVH) *WideBVH {
	return &WideBVH{
		logger: log.New("bvh"),
		flat:   flat,
	}
}

// Get the flat tree this wide tree was derived from.
func (w *WideBVH) Flat() *BVH {
	return w.flat
}

// Collapse the flat tree into wide nodes on the calling goroutine.
func (w *WideBVH) MergeNodes() {
	w.merge(nil)
}

// Collapse the flat tree into wide nodes forking subtrees onto workers as
// long as the context's thread budget allows.
func (w *WideBVH) MergeNodesParallel(bc *BuildContext) {
	w.merge(bc)
}

func (w *WideBVH) merge(bc *BuildContext) {
	start := time.Now()
	w.nodes = nil
	w.poolPtr = 0
	if !w.flat.CanUseBVH() {
		return
	}

	// Each wide node replaces one flat interior node
	interior := (int(w.flat.poolPtr) - firstPoolNode) / 2
	w.nodes = make([]WideNode, interior+1)
	w.poolPtr = 1

	root := w.flat.Node(0)
	if root.IsLeaf() {
		w.setSingleLeaf(0, root)
	} else {
		w.mergeNode(0, 0, bc)
	}

	w.buildTime = time.Since(start)
	w.logger.Debugf(
		"wide BVH merge time: %d ms, flat nodes: %d, wide nodes: %d",
		w.buildTime.Nanoseconds()/1e6, w.flat.NodeCount(), w.poolPtr,
	)
}

// Fill wide node wideIdx from flat interior node flatIdx.
func (w *WideBVH) mergeNode(wideIdx, flatIdx int32, bc *BuildContext) {
	flatNode := w.flat.Node(int(flatIdx))
	if flatNode.IsLeaf() {
		w.logger.Warningf("wide BVH: flat node %d is already a leaf; storing it in a single slot", flatIdx)
		w.setSingleLeaf(wideIdx, flatNode)
		return
	}

	// Pull in grandchildren for interior children
	var slots [4]int32
	slotCount := 0
	for c := flatNode.Meta.LeftFirst; c <= flatNode.Meta.LeftFirst+1; c++ {
		child := w.flat.Node(int(c))
		if child.IsLeaf() {
			slots[slotCount] = c
			slotCount++
			continue
		}
		slots[slotCount] = child.Meta.LeftFirst
		slots[slotCount+1] = child.Meta.LeftFirst + 1
		slotCount += 2
	}

	node := &w.nodes[wideIdx]
	var pending [4]int32
	for i := 0; i < 4; i++ {
		if i >= slotCount {
			node.Invalidate(i)
			continue
		}

		src := w.flat.Node(int(slots[i]))
		node.SetBounds(i, src.Bounds)
		if src.IsLeaf() {
			node.Child[i] = src.Meta.LeftFirst
			node.Count[i] = src.Meta.Count
			continue
		}

		node.Child[i] = w.alloc(bc)
		node.Count[i] = -1
		pending[i] = slots[i]
	}

	w.mergeSlots(node, &pending, 0, 4, bc)
}

// Recurse into the interior slots in [from, to), splitting the range
// between the calling goroutine and a worker.
func (w *WideBVH) mergeSlots(node *WideNode, pending *[4]int32, from, to int, bc *BuildContext) {
	if to-from == 1 {
		if node.Count[from] == -1 {
			w.mergeNode(node.Child[from], pending[from], bc)
		}
		return
	}

	mid := (from + to) / 2
	bc.forkJoin(
		func() { w.mergeSlots(node, pending, from, mid, bc) },
		func() { w.mergeSlots(node, pending, mid, to, bc) },
	)
}

func (w *WideBVH) setSingleLeaf(wideIdx int32, leaf *Node) {
	node := &w.nodes[wideIdx]
	node.SetBounds(0, leaf.Bounds)
	node.Child[0] = leaf.Meta.LeftFirst
	node.Count[0] = leaf.Meta.Count
	for i := 1; i < 4; i++ {
		node.Invalidate(i)
	}
}

// Reserve a wide node slot.
func (w *WideBVH) alloc(bc *BuildContext) int32 {
	bc.lockWide()
	defer bc.unlockWide()

	idx := w.poolPtr
	w.poolPtr++
	return idx
}

// Check whether the wide tree can be traversed.
func (w *WideBVH) CanUseBVH() bool {
	return w.poolPtr > 0
}

func (w *WideBVH) GetPrimitiveCount() int {
	return w.flat.GetPrimitiveCount()
}

// Get the number of wide nodes.
func (w *WideBVH) NodeCount() int {
	return int(w.poolPtr)
}

// Get wide node index. The returned node must not be modified.
func (w *WideBVH) Node(index int) *WideNode {
	return &w.nodes[index]
}

// Get the bounds of wide node index.
func (w *WideBVH) GetNodeBounds(index int) types.AABB {
	if index < 0 || index >= int(w.poolPtr) {
		return types.EmptyAABB()
	}
	return w.nodes[index].TotalBounds()
}

// Get the root bounds.
func (w *WideBVH) Bounds() types.AABB {
	if !w.CanUseBVH() {
		return types.EmptyAABB()
	}
	return w.nodes[0].TotalBounds()
}
