package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/polaris-rt/asset"
	"github.com/achilleasa/polaris-rt/log"
	"github.com/achilleasa/polaris-rt/primitive"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

var errIndexOutOfBounds = errors.New("index out of bounds")

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	scene *Scene

	// Named group nodes (index into scene.Nodes).
	groups map[string]int

	// List of parsed vertices.
	vertexList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:     log.New("wavefront scene reader"),
		scene:      newScene(),
		groups:     make(map[string]int),
		vertexList: make([]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Noticef(
		"parsed scene in %d ms (meshes: %d, triangles: %d, nodes: %d)",
		time.Since(start).Nanoseconds()/1e6, len(r.scene.Meshes), r.scene.TriangleCount(), len(r.scene.Nodes),
	)
	return r.scene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	errMsg := strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	)
	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex offset we can apply it while parsing
	// faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedMesh()
			r.scene.Meshes = append(r.scene.Meshes, &Mesh{Name: lineTokens[1]})
		case "f":
			triangles, err := r.parseFace(lineTokens, relVertexOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			// If no object has been defined create a default one
			if len(r.scene.Meshes) == 0 {
				r.scene.Meshes = append(r.scene.Meshes, &Mesh{Name: "default"})
			}
			mesh := r.scene.Meshes[len(r.scene.Meshes)-1]
			mesh.Triangles = append(mesh.Triangles, triangles...)
		case "camera_fov":
			r.scene.Camera.FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_eye":
			r.scene.Camera.Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_look":
			r.scene.Camera.Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_up":
			r.scene.Camera.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "instance", "group":
			r.verifyLastParsedMesh()
			node, err := r.parsePlacement(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			if lineTokens[0] == "group" {
				if _, exists := r.groups[node.Name]; exists {
					return r.emitError(res.Path(), lineNum, `group "%s" already defined`, node.Name)
				}
				r.groups[node.Name] = len(r.scene.Nodes)
			}
			r.scene.Nodes = append(r.scene.Nodes, node)
		case "vn", "vt", "usemtl", "mtllib", "s", "l":
			// Shading attributes do not affect intersection tests
		default:
			r.logger.Debugf("[%s: %d] ignoring unsupported statement %q", res.Path(), lineNum, lineTokens[0])
		}
	}
	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.verifyLastParsedMesh()
	return nil
}

// Drop the last parsed mesh if it contains no primitives.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.scene.Meshes) - 1
	if lastMeshIndex >= 0 && len(r.scene.Meshes[lastMeshIndex].Triangles) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.scene.Meshes[lastMeshIndex].Name)
		r.scene.Meshes = r.scene.Meshes[:lastMeshIndex]
	}
}

// Parse a placement definition. Definitions use the following formats:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ [parent_group]
// group group_name tX tY tZ yaw pitch roll sX sY sZ [parent_group]
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ	      : scale
func (r *wavefrontSceneReader) parsePlacement(lineTokens []string) (*Node, error) {
	if len(lineTokens) != 11 && len(lineTokens) != 12 {
		return nil, fmt.Errorf(`unsupported syntax for "%s"; expected 10 or 11 arguments: name tX tY tZ yaw pitch roll sX sY sZ [parent]; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	node := &Node{Name: lineTokens[1], Mesh: NoMesh, Parent: -1}
	if lineTokens[0] == "instance" {
		node.Mesh = r.scene.MeshIndex(lineTokens[1])
		if node.Mesh == NoMesh {
			return nil, fmt.Errorf(`unknown mesh with name "%s"`, lineTokens[1])
		}
	}

	var values [9]float32
	for index := range values {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return nil, err
		}
		values[index] = float32(v)
	}

	if len(lineTokens) == 12 {
		parent, exists := r.groups[lineTokens[11]]
		if !exists {
			return nil, fmt.Errorf(`unknown parent group "%s"`, lineTokens[11])
		}
		node.Parent = parent
	}

	// Generate final matrix: M = T * R * S
	const deg2rad float32 = math32.Pi / 180
	rotation := types.QuatFromEuler(values[3]*deg2rad, values[4]*deg2rad, values[5]*deg2rad)
	node.Local = types.Compose4(
		types.XYZ(values[0], values[1], values[2]),
		rotation,
		types.XYZ(values[6], values[7], values[8]),
	)
	return node, nil
}

// Parse face definition. Each face definitions consists of 3 or 4
// arguments, one for each vertex. Each vertex argument is comprised of
// 1, 2 or 3 indices separated by a slash character. Only the vertex
// index is used. Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex list.
//
// Quad faces are split into two triangles.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset int) ([]primitive.Primitive, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertices [4]types.Vec3
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	triangles := []primitive.Primitive{primitive.NewTriangle(vertices[0], vertices[1], vertices[2])}
	if len(lineTokens) == 5 {
		triangles = append(triangles, primitive.NewTriangle(vertices[0], vertices[2], vertices[3]))
	}
	return triangles, nil
}

// Given an index for a face vertex calculate the proper offset into the
// vertex list. Wavefront format can also use negative indices to reference
// elements from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}

	if vOffset < 0 || vOffset >= coordListLen {
		return -1, errIndexOutOfBounds
	}

	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}

	return v, nil
}
