package tracer

import (
	"fmt"

	"github.com/achilleasa/polaris-rt/types"
)

// Stores the ray directions at the four corners of the camera frustrum. It is
// used as a shortcut for generating per pixel rays via interpolation of the
// corner rays.
type Frustrum [4]types.Vec4

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A pinhole camera that generates primary rays.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Rotation deltas (in radians) applied by the next Update call.
	Pitch float32
	Yaw   float32

	ViewMat  types.Mat4
	ProjMat  types.Mat4
	Frustrum Frustrum

	// Vertical field of view in degrees.
	FOV float32
}

// Create a camera at the origin looking down the -Z axis.
func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = types.Perspective4(c.FOV, aspect, 1, 1000)
	c.Update()
}

// Place the camera at eye looking towards target and refresh the frustrum.
func (c *Camera) Look(eye, target types.Vec3) {
	c.Position = eye
	c.LookAt = target
	c.Update()
}

// Apply pending pitch/yaw deltas and recalculate the view matrix and frustrum.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	if c.Pitch != 0 || c.Yaw != 0 {
		pitchQuat := types.QuatFromAxisAngle(dir.Cross(c.Up), c.Pitch)
		yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)
		dir = pitchQuat.Mul(yawQuat).Normalize().Rotate(dir)
		c.Pitch, c.Yaw = 0, 0
	}
	c.LookAt = c.Position.Add(dir)

	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
	c.updateFrustrum()
}

func (c *Camera) InvViewProjMat() types.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat).Inv()
}

// Generate a ray vector for each corner of the camera frustrum by
// multiplying clip space vectors for each corner with the inv proj/view
// matrix, applying perspective and subtracting the camera eye position.
func (c *Camera) updateFrustrum() {
	invProjViewMat := c.InvViewProjMat()
	corners := [4]types.Vec4{
		types.XYZW(-1, 1, -1, 1),
		types.XYZW(1, 1, -1, 1),
		types.XYZW(-1, -1, -1, 1),
		types.XYZW(1, -1, -1, 1),
	}
	for i, corner := range corners {
		v := invProjViewMat.Mul4x1(corner)
		c.Frustrum[i] = v.Mul(1.0 / v[3]).Vec3().Sub(c.Position).Vec4(0)
	}
}

// Generate the primary ray through the center of pixel (x, y) of a
// frameW x frameH frame. Row 0 is the top of the frame.
func (c *Camera) Ray(x, y, frameW, frameH uint32) types.Ray {
	u := (float32(x) + 0.5) / float32(frameW)
	v := (float32(y) + 0.5) / float32(frameH)

	tl, tr := c.Frustrum[0].Vec3(), c.Frustrum[1].Vec3()
	bl, br := c.Frustrum[2].Vec3(), c.Frustrum[3].Vec3()
	top := tl.Add(tr.Sub(tl).Mul(u))
	bottom := bl.Add(br.Sub(bl).Mul(u))
	dir := top.Add(bottom.Sub(top).Mul(v)).Normalize()

	return types.NewRay(c.Position, dir)
}
