package bvh

import "github.com/achilleasa/polaris-rt/types"

// Meta describes what a node references. Leaves (Count > -1) reference
// Count primitives starting at LeftFirst in the index permutation.
// Interior nodes (Count == -1) have their two children stored at
// LeftFirst and LeftFirst+1 in the node pool.
type Meta struct {
	LeftFirst int32
	Count     int32
}

// Node is a flat BVH node.
type Node struct {
	Bounds types.AABB
	Meta   Meta
}

// Check if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Meta.Count > -1
}

// WideNode stores the bounds of up to 4 children as structure of arrays
// so all 4 boxes can be slab tested at once. Child holds a wide node index
// for interior slots (Count == -1) or the first primitive index for leaf
// slots (Count >= 0). Unused slots have an empty box and a zero count.
type WideNode struct {
	MinX, MinY, MinZ types.Lane4
	MaxX, MaxY, MaxZ types.Lane4

	Child [4]int32
	Count [4]int32
}

// Set the bounds of slot i.
func (n *WideNode) SetBounds(i int, box types.AABB) {
	n.MinX[i], n.MinY[i], n.MinZ[i] = box.Min[0], box.Min[1], box.Min[2]
	n.MaxX[i], n.MaxY[i], n.MaxZ[i] = box.Max[0], box.Max[1], box.Max[2]
}

// Get the bounds of slot i.
func (n *WideNode) Bounds(i int) types.AABB {
	return types.NewAABB(
		types.XYZ(n.MinX[i], n.MinY[i], n.MinZ[i]),
		types.XYZ(n.MaxX[i], n.MaxY[i], n.MaxZ[i]),
	)
}

// Invalidate slot i so ray tests against it always fail.
func (n *WideNode) Invalidate(i int) {
	n.SetBounds(i, types.EmptyAABB())
	n.Child[i] = 0
	n.Count[i] = 0
}

// Check whether slot i references anything.
func (n *WideNode) Valid(i int) bool {
	return n.Count[i] != 0
}

// Get the union of all slot bounds.
func (n *WideNode) TotalBounds() types.AABB {
	box := types.EmptyAABB()
	for i := 0; i < 4; i++ {
		if n.Valid(i) {
			box.GrowAABB(n.Bounds(i))
		}
	}
	return box
}
