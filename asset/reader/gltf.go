package reader

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/polaris-rt/asset"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

type gltfSceneReader struct {
	logger log.Logger

	scene *Scene

	// Maps glTF mesh indices to scene mesh indices; meshes without
	// triangles map to NoMesh.
	meshMap []int
}

// Create a new glTF/GLB scene reader.
func newGLTFReader() *gltfSceneReader {
	return &gltfSceneReader{
		logger: log.New("gltf scene reader"),
		scene:  newScene(),
	}
}

// Read scene definition. Buffers must be embedded in the document (GLB
// or base64 data URIs).
func (r *gltfSceneReader) Read(sceneRes *asset.Resource) (*Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	data, err := sceneRes.Bytes()
	if err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	if err = gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("reader: could not decode %s: %v", sceneRes.Path(), err)
	}

	if err = r.readMeshes(doc); err != nil {
		return nil, fmt.Errorf("reader: %s: %v", sceneRes.Path(), err)
	}
	if err = r.readNodes(doc); err != nil {
		return nil, fmt.Errorf("reader: %s: %v", sceneRes.Path(), err)
	}

	r.logger.Noticef(
		"parsed scene in %d ms (meshes: %d, triangles: %d, nodes: %d)",
		time.Since(start).Nanoseconds()/1e6, len(r.scene.Meshes), r.scene.TriangleCount(), len(r.scene.Nodes),
	)
	return r.scene, nil
}

// Convert the triangle primitives of each glTF mesh into a Mesh.
func (r *gltfSceneReader) readMeshes(doc *gltf.Document) error {
	r.meshMap = make([]int, len(doc.Meshes))
	for meshIndex, gltfMesh := range doc.Meshes {
		name := gltfMesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		mesh := &Mesh{Name: name}

		for primIndex, prim := range gltfMesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				r.logger.Warningf(`skipping primitive %d of mesh "%s": unsupported mode %v`, primIndex, name, prim.Mode)
				continue
			}
			posAccessor, exists := prim.Attributes[gltf.POSITION]
			if !exists {
				return fmt.Errorf(`primitive %d of mesh "%s" has no POSITION attribute`, primIndex, name)
			}

			positions, err := modeler.ReadPosition(doc, doc.Accessors[posAccessor], nil)
			if err != nil {
				return fmt.Errorf(`could not read positions for mesh "%s": %v`, name, err)
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return fmt.Errorf(`could not read indices for mesh "%s": %v`, name, err)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			for i := 0; i+2 < len(indices); i += 3 {
				var verts [3]types.Vec3
				for v := 0; v < 3; v++ {
					index := int(indices[i+v])
					if index >= len(positions) {
						return fmt.Errorf(`index %d out of bounds for mesh "%s"`, index, name)
					}
					verts[v] = types.Vec3(positions[index])
				}
				mesh.Triangles = append(mesh.Triangles, primitive.NewTriangle(verts[0], verts[1], verts[2]))
			}
		}

		if len(mesh.Triangles) == 0 {
			r.logger.Warningf(`dropping mesh "%s" as it contains no triangles`, name)
			r.meshMap[meshIndex] = NoMesh
			continue
		}
		r.scene.Meshes = append(r.scene.Meshes, mesh)
		r.meshMap[meshIndex] = len(r.scene.Meshes) - 1
	}
	return nil
}

// Walk the node hierarchy of the default scene so parents are emitted
// before their children.
func (r *gltfSceneReader) readNodes(doc *gltf.Document) error {
	var roots []int
	switch {
	case len(doc.Scenes) != 0:
		sceneIndex := 0
		if doc.Scene != nil {
			sceneIndex = int(*doc.Scene)
		}
		if sceneIndex >= len(doc.Scenes) {
			return fmt.Errorf("default scene %d out of bounds", sceneIndex)
		}
		for _, nodeIndex := range doc.Scenes[sceneIndex].Nodes {
			roots = append(roots, int(nodeIndex))
		}
	default:
		// Without scenes every node that is not a child is a root
		isChild := make([]bool, len(doc.Nodes))
		for _, node := range doc.Nodes {
			for _, child := range node.Children {
				if int(child) < len(isChild) {
					isChild[child] = true
				}
			}
		}
		for nodeIndex := range doc.Nodes {
			if !isChild[nodeIndex] {
				roots = append(roots, nodeIndex)
			}
		}
	}

	visited := make([]bool, len(doc.Nodes))
	for _, root := range roots {
		if err := r.readNode(doc, root, -1, visited); err != nil {
			return err
		}
	}
	return nil
}

func (r *gltfSceneReader) readNode(doc *gltf.Document, nodeIndex, parent int, visited []bool) error {
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of bounds", nodeIndex)
	}
	if visited[nodeIndex] {
		return fmt.Errorf("node %d is referenced more than once", nodeIndex)
	}
	visited[nodeIndex] = true

	gltfNode := doc.Nodes[nodeIndex]
	name := gltfNode.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", nodeIndex)
	}

	mesh := NoMesh
	if gltfNode.Mesh != nil && int(*gltfNode.Mesh) < len(r.meshMap) {
		mesh = r.meshMap[*gltfNode.Mesh]
	}

	node := &Node{Name: name, Mesh: mesh, Parent: parent, Local: nodeTransform(gltfNode)}
	nodeID := len(r.scene.Nodes)
	r.scene.Nodes = append(r.scene.Nodes, node)

	// Mesh nodes cannot have children in the object graph so the mesh is
	// moved into a child leaf and the node becomes a group.
	if mesh != NoMesh && len(gltfNode.Children) != 0 {
		node.Mesh = NoMesh
		r.scene.Nodes = append(r.scene.Nodes, &Node{
			Name:   name + "_mesh",
			Mesh:   mesh,
			Parent: nodeID,
			Local:  types.Ident4(),
		})
	}

	for _, child := range gltfNode.Children {
		if err := r.readNode(doc, int(child), nodeID, visited); err != nil {
			return err
		}
	}
	return nil
}

// Get the local transform of a node. A non-identity matrix takes precedence
// over the TRS properties.
func nodeTransform(node *gltf.Node) types.Mat4 {
	var matrix [16]float64
	for i := range matrix {
		matrix[i] = float64(node.Matrix[i])
	}
	if matrix != identityMatrix && matrix != [16]float64{} {
		var m types.Mat4
		for i, v := range matrix {
			m[i] = float32(v)
		}
		return m
	}

	translation := types.XYZ(float32(node.Translation[0]), float32(node.Translation[1]), float32(node.Translation[2]))
	rotation := types.Quat{
		V: types.XYZ(float32(node.Rotation[0]), float32(node.Rotation[1]), float32(node.Rotation[2])),
		W: float32(node.Rotation[3]),
	}
	if rotation.V == (types.Vec3{}) && rotation.W == 0 {
		rotation = types.QuatIdent()
	}
	scale := types.XYZ(float32(node.Scale[0]), float32(node.Scale[1]), float32(node.Scale[2]))
	if scale == (types.Vec3{}) {
		scale = types.XYZ(1, 1, 1)
	}
	return types.Compose4(translation, rotation.Normalize(), scale)
}
