package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-viewer/math"
)

func assertOrthonormalBasis(t *testing.T, c *Camera) {
	t.Helper()
	assert.InDelta(t, 1, c.Forward.Length(), 1e-4, "forward must be unit length")
	assert.InDelta(t, 1, c.Right.Length(), 1e-4, "right must be unit length")
	assert.InDelta(t, 1, c.Up.Length(), 1e-4, "up must be unit length")
	assert.InDelta(t, 0, c.Forward.Dot(c.Right), 1e-4)
	assert.InDelta(t, 0, c.Forward.Dot(c.Up), 1e-4)
	assert.InDelta(t, 0, c.Right.Dot(c.Up), 1e-4)
}

func TestCameraBasisStaysOrthonormal(t *testing.T) {
	c := NewCamera(
		math.Vec3{X: 0, Y: 2, Z: 8},
		math.Vec3Zero,
		math.Vec3Up,
		Perspective{Fovy: 1, Aspect: 1.5, Near: 0.1, Far: 100},
	)
	assertOrthonormalBasis(t, c)

	c.SetEye(math.Vec3{X: 4, Y: -1, Z: 2})
	assertOrthonormalBasis(t, c)

	c.SetCenter(math.Vec3{X: -3, Y: 5, Z: 1})
	assertOrthonormalBasis(t, c)

	c.LookAt(math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3Zero, math.Vec3Up)
	assertOrthonormalBasis(t, c)
}

func TestCameraBasisVerticalView(t *testing.T) {
	// Looking straight down, the requested up vector is parallel to the
	// view direction; the basis must still come out orthonormal.
	c := NewCamera(math.Vec3{Y: 10}, math.Vec3Zero, math.Vec3Up,
		Orthographic{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1})
	assertOrthonormalBasis(t, c)
}

func TestCameraViewMatrixMapsEyeToOrigin(t *testing.T) {
	eye := math.Vec3{X: 2, Y: 3, Z: 5}
	c := NewCamera(eye, math.Vec3Zero, math.Vec3Up,
		Perspective{Fovy: 1, Aspect: 1, Near: 0.1, Far: 10})

	p := c.ViewMatrix().MulVec(eye.ToVec4(1))
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 0, p.Y, 1e-4)
	assert.InDelta(t, 0, p.Z, 1e-4)
}

func TestCameraSetAspect(t *testing.T) {
	c := NewCamera(math.Vec3{Z: 5}, math.Vec3Zero, math.Vec3Up,
		Perspective{Fovy: 1, Aspect: 1, Near: 0.1, Far: 10})

	c.SetAspect(2)
	persp, ok := c.Projection.(Perspective)
	require.True(t, ok)
	assert.Equal(t, float32(2), persp.Aspect)

	// Orthographic cameras ignore aspect updates.
	o := NewCamera(math.Vec3{Z: 5}, math.Vec3Zero, math.Vec3Up,
		Orthographic{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1})
	o.SetAspect(2)
	_, ok = o.Projection.(Orthographic)
	assert.True(t, ok)
}

func TestOrbitCameraKeepsDistance(t *testing.T) {
	c := NewOrbitCamera(math.Vec3Zero, 10, 1, 1.5)

	for _, step := range []struct{ yaw, pitch float32 }{
		{0.3, 0.1}, {1.2, -0.4}, {-2.0, 0.9},
	} {
		c.Orbit(step.yaw, step.pitch)
		assert.InDelta(t, 10, c.Eye.Sub(c.Center).Length(), 1e-3)
		assertOrthonormalBasis(t, &c.Camera)
	}

	c.Zoom(-5)
	assert.InDelta(t, 5, c.Eye.Sub(c.Center).Length(), 1e-3)

	// Distance is clamped above zero.
	c.Zoom(-100)
	assert.Greater(t, c.Distance, float32(0))
}
