package types

import "github.com/go-gl/mathgl/mgl32"

// Mat4 is a column-major 4x4 matrix laid out the same way as mgl32.Mat4.
type Mat4 mgl32.Mat4

// Create identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Create a rotation matrix around an arbitrary axis (angle in radians).
func Rotate4(axis Vec3, angle float32) Mat4 {
	return QuatFromAxisAngle(axis, angle).Mat4()
}

// Compose a matrix from translation, rotation and scale (applied in
// scale, rotate, translate order).
func Compose4(t Vec3, r Quat, s Vec3) Mat4 {
	return Translate4(t).Mul4(r.Mat4()).Mul4(Scale4(s))
}

// Build a matrix from 16 column-major components.
func Mat4FromSlice(m []float32) Mat4 {
	var out Mat4
	copy(out[:], m)
	return out
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a Vec4.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Calculate the matrix inverse. Singular matrices yield the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Get the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Transform a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Transform a direction (w = 0). The result is not normalized.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Get the translation component.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Approximate equality check.
func (m Mat4) ApproxEqual(m2 Mat4, eps float32) bool {
	return mgl32.Mat4(m).ApproxEqualThreshold(mgl32.Mat4(m2), eps)
}

// Create a perspective projection matrix. The field of view is specified in degrees.
func Perspective4(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far))
}

// Create a view matrix for an eye looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}
