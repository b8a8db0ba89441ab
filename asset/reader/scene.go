// Package reader loads scene descriptions into meshes and a node hierarchy
// that can be turned into static BVHs and game objects.
package reader

import (
	"fmt"

	"github.com/achilleasa/polaris-rt/asset"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
)

// Meshes that are not referenced by any node.
const NoMesh = -1

// Mesh is a named set of triangles in model space.
type Mesh struct {
	Name      string
	Triangles []primitive.Primitive
}

// Get the model-space bounds of the mesh.
func (m *Mesh) Bounds() types.AABB {
	box := types.EmptyAABB()
	for _, tri := range m.Triangles {
		box.GrowAABB(tri.Bounds())
	}
	return box
}

// Node places a mesh (or groups other nodes) in the scene. Parents are
// always listed before their children.
type Node struct {
	Name string

	// Index into Scene.Meshes or NoMesh for group nodes.
	Mesh int

	// Index into Scene.Nodes or -1 for root nodes.
	Parent int

	// Transform relative to the parent node.
	Local types.Mat4
}

// Camera settings specified by the scene file.
type Camera struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
	FOV  float32
}

// Scene is the output of a Reader.
type Scene struct {
	Meshes []*Mesh
	Nodes  []*Node
	Camera Camera
}

func newScene() *Scene {
	return &Scene{
		Camera: Camera{
			Eye:  types.XYZ(0, 0, 0),
			Look: types.XYZ(0, 0, -1),
			Up:   types.XYZ(0, 1, 0),
			FOV:  45,
		},
	}
}

// Get the total number of triangles over all meshes.
func (sc *Scene) TriangleCount() int {
	count := 0
	for _, mesh := range sc.Meshes {
		count += len(mesh.Triangles)
	}
	return count
}

// Find a mesh by name. Returns NoMesh if it does not exist.
func (sc *Scene) MeshIndex(name string) int {
	for index, mesh := range sc.Meshes {
		if mesh.Name == name {
			return index
		}
	}
	return NoMesh
}

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*Scene, error)
}

// Read scene from a local file or http(s) URL. The reader is selected by
// the file extension.
func ReadScene(filename string) (*Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	reader, err := readerFor(res.Ext())
	if err != nil {
		return nil, err
	}
	return reader.Read(res)
}

func readerFor(ext string) (Reader, error) {
	switch ext {
	case ".obj":
		return newWavefrontReader(), nil
	case ".gltf", ".glb":
		return newGLTFReader(), nil
	}
	return nil, fmt.Errorf("reader: unsupported file format %q", ext)
}
