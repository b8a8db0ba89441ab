package reader

import (
	"fmt"

	"github.com/achilleasa/polaris-rt/bvh"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/scene"
)

// World is the runtime representation of a scene: unreferenced meshes
// are merged into a single static tree while node placements become game
// objects that reference per-mesh trees.
type World struct {
	// Tree over all meshes not referenced by any node. Nil if every mesh
	// is instanced.
	Static *bvh.BVH

	Graph *scene.Graph

	// Game object for each entry in Scene.Nodes.
	Objects []scene.ObjectID

	// Tree for each entry in Scene.Meshes. Nil for meshes that are only
	// part of the static tree.
	MeshTrees []*bvh.BVH
}

// Build the BVHs and object graph for this scene. If bc is nil the trees
// are built on the calling goroutine.
func (sc *Scene) Build(opts bvh.Options, bc *bvh.BuildContext) (*World, error) {
	referenced := make([]bool, len(sc.Meshes))
	for nodeIndex, node := range sc.Nodes {
		if node.Parent >= nodeIndex {
			return nil, fmt.Errorf("reader: node %q is listed before its parent", node.Name)
		}
		if node.Mesh == NoMesh {
			continue
		}
		if node.Mesh < 0 || node.Mesh >= len(sc.Meshes) {
			return nil, fmt.Errorf("reader: node %q references unknown mesh %d", node.Name, node.Mesh)
		}
		referenced[node.Mesh] = true
	}

	construct := func(tree *bvh.BVH) {
		if bc == nil {
			tree.ConstructBVH()
			return
		}
		tree.ConstructBVHParallel(bc)
	}

	world := &World{
		Graph:     scene.NewGraph(),
		Objects:   make([]scene.ObjectID, len(sc.Nodes)),
		MeshTrees: make([]*bvh.BVH, len(sc.Meshes)),
	}

	static := primitive.NewList()
	for meshIndex, mesh := range sc.Meshes {
		if !referenced[meshIndex] {
			static.Add(mesh.Triangles...)
			continue
		}
		tree := bvh.New(primitive.NewList(mesh.Triangles...), opts)
		construct(tree)
		world.MeshTrees[meshIndex] = tree
	}
	if static.Len() != 0 {
		world.Static = bvh.New(static, opts)
		construct(world.Static)
	}

	for nodeIndex, node := range sc.Nodes {
		parent := scene.NoObject
		if node.Parent >= 0 {
			parent = world.Objects[node.Parent]
		}

		var (
			id  scene.ObjectID
			err error
		)
		if node.Mesh == NoMesh {
			id, err = world.Graph.AddGroup(parent, node.Name, node.Local)
		} else {
			id, err = world.Graph.AddLeaf(parent, node.Name, world.MeshTrees[node.Mesh], node.Local)
		}
		if err != nil {
			return nil, fmt.Errorf("reader: could not add node %q: %v", node.Name, err)
		}
		world.Objects[nodeIndex] = id
	}

	return world, nil
}
