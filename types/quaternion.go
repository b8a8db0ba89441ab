package types

import "github.com/go-gl/mathgl/mgl32"

// Quat wraps a mathgl quaternion so rotations can be expressed using our
// own vector types.
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion from an axis vector and an angle (in radians).
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return quatFromMgl(mgl32.QuatRotate(angle, mgl32.Vec3(axis.Normalize())))
}

// Create a quaternion from euler angles (in radians) applied in yaw (Y),
// pitch (X), roll (Z) order.
func QuatFromEuler(yaw, pitch, roll float32) Quat {
	return quatFromMgl(mgl32.AnglesToQuat(yaw, pitch, roll, mgl32.YXZ))
}

// Rotates a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	return Vec3(q.mgl().Rotate(mgl32.Vec3(v)))
}

// Multiplies two quaternions. Multiplication is NOT commutative.
func (q Quat) Mul(q2 Quat) Quat {
	return quatFromMgl(q.mgl().Mul(q2.mgl()))
}

// Normalizes the quaternion, returning its versor (unit quaternion).
func (q Quat) Normalize() Quat {
	return quatFromMgl(q.mgl().Normalize())
}

// The inverse of a quaternion.
func (q Quat) Inverse() Quat {
	return quatFromMgl(q.mgl().Inverse())
}

// Returns the homogeneous 3D rotation matrix corresponding to the quaternion.
func (q Quat) Mat4() Mat4 {
	return Mat4(q.mgl().Normalize().Mat4())
}

func (q Quat) mgl() mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3(q.V)}
}

func quatFromMgl(q mgl32.Quat) Quat {
	return Quat{V: Vec3(q.V), W: q.W}
}
