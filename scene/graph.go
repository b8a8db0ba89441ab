// Package scene implements the game object hierarchy that places static
// sub-scenes into the world and flattens them into instance records.
package scene

import (
	"sync"

	"github.com/achilleasa/polaris-rt/types"
)

// ObjectID indexes a game object inside a Graph.
type ObjectID int32

// NoObject is used as the parent of root objects.
const NoObject ObjectID = -1

// SubScene is the static geometry referenced by leaf game objects.
type SubScene interface {
	TraceRay(ray *types.Ray)
	TraceShadowRay(ray *types.Ray, tMax float32) bool
	Bounds() types.AABB
}

// GameObject is a node in the transform hierarchy. Group objects own
// child objects; leaf objects own a sub-scene.
type GameObject struct {
	Name string

	parent   ObjectID
	children []ObjectID
	local    types.Mat4
	sub      SubScene
	alive    bool

	// Set when the world bounds of this object need to be recomputed.
	dirty       bool
	worldBounds types.AABB
}

// Graph stores game objects in an arena. Object ids are reused after
// an object is destroyed.
type Graph struct {
	mu sync.Mutex

	objects []GameObject
	free    []ObjectID
	roots   []ObjectID
	alive   int

	// Incremented by every mutation.
	version uint64
}

// Create an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add a group object under parent (or as a root if parent is NoObject).
func (g *Graph) AddGroup(parent ObjectID, name string, local types.Mat4) (ObjectID, error) {
	return g.add(parent, name, local, nil)
}

// Add a leaf object referencing sub under parent (or as a root if parent
// is NoObject).
func (g *Graph) AddLeaf(parent ObjectID, name string, sub SubScene, local types.Mat4) (ObjectID, error) {
	if sub == nil {
		return NoObject, ErrNoSubScene
	}
	return g.add(parent, name, local, sub)
}

func (g *Graph) add(parent ObjectID, name string, local types.Mat4, sub SubScene) (ObjectID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if parent != NoObject {
		p, err := g.get(parent)
		if err != nil {
			return NoObject, err
		}
		if p.sub != nil {
			return NoObject, ErrLeafParent
		}
	}

	obj := GameObject{
		Name:        name,
		parent:      parent,
		local:       local,
		sub:         sub,
		alive:       true,
		dirty:       true,
		worldBounds: types.EmptyAABB(),
	}

	var id ObjectID
	if n := len(g.free); n > 0 {
		id = g.free[n-1]
		g.free = g.free[:n-1]
		g.objects[id] = obj
	} else {
		id = ObjectID(len(g.objects))
		g.objects = append(g.objects, obj)
	}

	if parent == NoObject {
		g.roots = append(g.roots, id)
	} else {
		g.objects[parent].children = append(g.objects[parent].children, id)
	}
	g.alive++
	g.version++
	return id, nil
}

// Translate object id by delta in its parent's space.
func (g *Graph) Move(id ObjectID, delta types.Vec3) error {
	return g.updateLocal(id, func(local types.Mat4) types.Mat4 {
		return types.Translate4(delta).Mul4(local)
	})
}

// Rotate object id around axis (in its own space) by angle radians.
func (g *Graph) Rotate(id ObjectID, axis types.Vec3, angle float32) error {
	return g.updateLocal(id, func(local types.Mat4) types.Mat4 {
		return local.Mul4(types.Rotate4(axis, angle))
	})
}

// Replace the local transform of object id.
func (g *Graph) SetTransform(id ObjectID, local types.Mat4) error {
	return g.updateLocal(id, func(types.Mat4) types.Mat4 {
		return local
	})
}

func (g *Graph) updateLocal(id ObjectID, fn func(types.Mat4) types.Mat4) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return err
	}
	obj.local = fn(obj.local)
	g.markDirty(id)
	g.version++
	return nil
}

// Flag the subtree rooted at id for a world bounds refresh.
func (g *Graph) markDirty(id ObjectID) {
	obj := &g.objects[id]
	obj.dirty = true
	for _, child := range obj.children {
		g.markDirty(child)
	}
}

// Remove object id and all of its descendants.
func (g *Graph) Destroy(id ObjectID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return err
	}

	if obj.parent == NoObject {
		g.roots = removeID(g.roots, id)
	} else {
		parent := &g.objects[obj.parent]
		parent.children = removeID(parent.children, id)
	}
	g.release(id)
	g.version++
	return nil
}

func (g *Graph) release(id ObjectID) {
	obj := &g.objects[id]
	for _, child := range obj.children {
		g.release(child)
	}
	*obj = GameObject{parent: NoObject}
	g.free = append(g.free, id)
	g.alive--
}

// Get the local transform of object id.
func (g *Graph) Transform(id ObjectID) (types.Mat4, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return types.Mat4{}, err
	}
	return obj.local, nil
}

// Get the world transform of object id: the product of all ancestor
// transforms and its own.
func (g *Graph) WorldTransform(id ObjectID) (types.Mat4, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return types.Mat4{}, err
	}
	world := obj.local
	for p := obj.parent; p != NoObject; p = g.objects[p].parent {
		world = g.objects[p].local.Mul4(world)
	}
	return world, nil
}

// Check whether object id is a leaf.
func (g *Graph) IsLeaf(id ObjectID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	return err == nil && obj.sub != nil
}

// Get the name of object id.
func (g *Graph) Name(id ObjectID) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if obj, err := g.get(id); err == nil {
		return obj.Name
	}
	return ""
}

// Get the children of object id.
func (g *Graph) Children(id ObjectID) []ObjectID {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return nil
	}
	return append([]ObjectID(nil), obj.children...)
}

// Get the parent of object id.
func (g *Graph) Parent(id ObjectID) ObjectID {
	g.mu.Lock()
	defer g.mu.Unlock()

	obj, err := g.get(id)
	if err != nil {
		return NoObject
	}
	return obj.parent
}

// Get the root objects.
func (g *Graph) Roots() []ObjectID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ObjectID(nil), g.roots...)
}

// Get the number of live objects.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.alive
}

// Get the mutation counter. It changes whenever an object is added,
// moved or destroyed.
func (g *Graph) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

func (g *Graph) get(id ObjectID) (*GameObject, error) {
	if id < 0 || int(id) >= len(g.objects) || !g.objects[id].alive {
		return nil, ErrInvalidObject
	}
	return &g.objects[id], nil
}

func removeID(ids []ObjectID, id ObjectID) []ObjectID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
