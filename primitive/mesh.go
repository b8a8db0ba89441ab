package primitive

import "github.com/achilleasa/polaris-rt/types"

// Triangulate an axis-aligned cube into 12 triangles with outward facing
// normals.
func NewCubeMesh(center types.Vec3, halfExtent float32) []Primitive {
	h := halfExtent
	v := func(x, y, z float32) types.Vec3 {
		return center.Add(types.XYZ(x*h, y*h, z*h))
	}

	// Each face is listed counter-clockwise when viewed from outside
	faces := [6][4]types.Vec3{
		{v(-1, -1, 1), v(1, -1, 1), v(1, 1, 1), v(-1, 1, 1)},     // +z
		{v(1, -1, -1), v(-1, -1, -1), v(-1, 1, -1), v(1, 1, -1)}, // -z
		{v(1, -1, 1), v(1, -1, -1), v(1, 1, -1), v(1, 1, 1)},     // +x
		{v(-1, -1, -1), v(-1, -1, 1), v(-1, 1, 1), v(-1, 1, -1)}, // -x
		{v(-1, 1, 1), v(1, 1, 1), v(1, 1, -1), v(-1, 1, -1)},     // +y
		{v(-1, -1, -1), v(1, -1, -1), v(1, -1, 1), v(-1, -1, 1)}, // -y
	}

	out := make([]Primitive, 0, 12)
	for _, f := range faces {
		out = append(out, NewTriangle(f[0], f[1], f[2]), NewTriangle(f[0], f[2], f[3]))
	}
	return out
}
