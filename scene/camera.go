package scene

import (
	"github.com/chewxy/math32"

	"scene-viewer/math"
)

// Projection produces a clip-space matrix. Two variants exist: Perspective
// and Orthographic.
type Projection interface {
	Matrix() math.Mat4
}

type Perspective struct {
	Fovy   float32 // vertical field of view in radians
	Aspect float32
	Near   float32
	Far    float32
}

func (p Perspective) Matrix() math.Mat4 {
	return math.Mat4Perspective(p.Fovy, p.Aspect, p.Near, p.Far)
}

type Orthographic struct {
	Left   float32
	Right  float32
	Bottom float32
	Top    float32
	Near   float32
	Far    float32
}

func (o Orthographic) Matrix() math.Mat4 {
	return math.Mat4Orthographic(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
}

// Camera holds a view basis and a projection. Up, Right and Forward stay
// mutually orthogonal unit vectors; they are recomputed whenever Eye or
// Center change.
type Camera struct {
	Eye     math.Vec3
	Center  math.Vec3
	Up      math.Vec3
	Right   math.Vec3
	Forward math.Vec3

	Projection Projection

	// Cached view matrix
	viewMatrix math.Mat4
	dirty      bool
}

func NewCamera(eye, center, up math.Vec3, projection Projection) *Camera {
	c := &Camera{
		Eye:        eye,
		Center:     center,
		Projection: projection,
	}
	c.updateBasis(up)
	return c
}

func (c *Camera) SetEye(eye math.Vec3) {
	c.Eye = eye
	c.updateBasis(c.Up)
}

func (c *Camera) SetCenter(center math.Vec3) {
	c.Center = center
	c.updateBasis(c.Up)
}

func (c *Camera) LookAt(eye, center, up math.Vec3) {
	c.Eye = eye
	c.Center = center
	c.updateBasis(up)
}

func (c *Camera) updateBasis(up math.Vec3) {
	c.Forward = c.Center.Sub(c.Eye).Normalize()
	right := c.Forward.Cross(up)
	if right.LengthSqr() < 1e-8 {
		// View direction is parallel to up; pick a stable substitute.
		right = c.Forward.Cross(math.Vec3Front)
		if right.LengthSqr() < 1e-8 {
			right = c.Forward.Cross(math.Vec3Right)
		}
	}
	c.Right = right.Normalize()
	c.Up = c.Right.Cross(c.Forward)
	c.dirty = true
}

func (c *Camera) ViewMatrix() math.Mat4 {
	if c.dirty {
		c.viewMatrix = math.Mat4LookAt(c.Eye, c.Center, c.Up)
		c.dirty = false
	}
	return c.viewMatrix
}

func (c *Camera) ProjectionMatrix() math.Mat4 {
	return c.Projection.Matrix()
}

// SetAspect updates the aspect ratio of a perspective projection.
// Orthographic cameras are unaffected.
func (c *Camera) SetAspect(aspect float32) {
	if p, ok := c.Projection.(Perspective); ok {
		p.Aspect = aspect
		c.Projection = p
	}
}

// OrbitCamera keeps the eye on a sphere around Center, driven by yaw/pitch
// and a zoom distance. Used for viewer navigation.
type OrbitCamera struct {
	Camera
	Distance float32
	Yaw      float32
	Pitch    float32
}

func NewOrbitCamera(center math.Vec3, distance, fovy, aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		Distance: distance,
		Yaw:      0,
		Pitch:    0.3,
	}
	c.Camera = *NewCamera(center.Add(math.Vec3{Z: distance}), center, math.Vec3Up, Perspective{
		Fovy:   fovy,
		Aspect: aspect,
		Near:   0.1,
		Far:    1000,
	})
	c.apply()
	return c
}

func (c *OrbitCamera) apply() {
	// Clamp pitch just short of the poles
	if c.Pitch > 1.5 {
		c.Pitch = 1.5
	}
	if c.Pitch < -1.5 {
		c.Pitch = -1.5
	}

	sinPitch, cosPitch := math32.Sincos(c.Pitch)
	sinYaw, cosYaw := math32.Sincos(c.Yaw)

	offset := math.Vec3{
		X: c.Distance * cosPitch * sinYaw,
		Y: c.Distance * sinPitch,
		Z: c.Distance * cosPitch * cosYaw,
	}
	c.LookAt(c.Center.Add(offset), c.Center, math.Vec3Up)
}

func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.apply()
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance += delta
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.apply()
}
