package scene

import "github.com/achilleasa/polaris-rt/types"

// Walk the hierarchy depth first and emit one instance per leaf with its
// accumulated world transform, inverse and world bounds. World bounds are
// cached per leaf and only recomputed for subtrees that changed since the
// previous call. Leaves whose sub-scene is empty are skipped.
func (g *Graph) Flatten() []Instance {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Instance, 0, g.alive)
	ident := types.Ident4()
	for _, root := range g.roots {
		out = g.flatten(root, ident, ident, out)
	}
	return out
}

func (g *Graph) flatten(id ObjectID, parentWorld, parentInv types.Mat4, out []Instance) []Instance {
	obj := &g.objects[id]
	world := parentWorld.Mul4(obj.local)
	inverse := obj.local.Inv().Mul4(parentInv)

	if obj.sub == nil {
		for _, child := range obj.children {
			out = g.flatten(child, world, inverse, out)
		}
		obj.dirty = false
		return out
	}

	if obj.dirty {
		obj.worldBounds = obj.sub.Bounds().Transform(world)
		obj.dirty = false
	}
	if obj.worldBounds.IsEmpty() {
		return out
	}
	return append(out, newInstance(id, world, inverse, obj.worldBounds, obj.sub))
}

// Get the cached world bounds of object id as of the last Flatten call.
// Group objects report the union of their leaves.
func (g *Graph) WorldBounds(id ObjectID) (types.AABB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.get(id); err != nil {
		return types.EmptyAABB(), err
	}
	return g.cachedBounds(id), nil
}

func (g *Graph) cachedBounds(id ObjectID) types.AABB {
	obj := &g.objects[id]
	if obj.sub != nil {
		return obj.worldBounds
	}
	box := types.EmptyAABB()
	for _, child := range obj.children {
		box.GrowAABB(g.cachedBounds(child))
	}
	return box
}

// Check whether object id has pending transform changes that the next
// Flatten call will pick up.
func (g *Graph) IsDirty(id ObjectID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	return err == nil && obj.dirty
}
