package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"scene-viewer/core"
	"scene-viewer/math"
)

// LightKind selects the lighting model for a light node.
// The integer values match the `kind` field of the u_lights shader array.
type LightKind int32

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightPoint
)

func (k LightKind) String() string {
	switch k {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	}
	return fmt.Sprintf("LightKind(%d)", int32(k))
}

// MaxLights matches the u_lights array size declared in the shading programs.
const MaxLights = 8

// ErrDegenerateSceneScale reports a zero scene bounding scale, which leaves
// shadow camera bounds undefined. Callers must guarantee a non-degenerate
// scene before deriving shadow cameras.
var ErrDegenerateSceneScale = errors.New("scene: degenerate scene scale")

// Light is the payload of a light node. Slot is a stable index into the
// shader's u_lights uniform array for the light's lifetime.
type Light struct {
	Slot      int
	Kind      LightKind
	Color     core.Color
	Intensity float32
}

// Direction returns the light's world-space direction: the canonical down
// vector rotated by the node's world rotation.
func (l *Light) Direction(world math.Mat4) math.Vec3 {
	return world.RotateVec3(math.Vec3Down).Normalize()
}

// ShadowCamera derives the depth-capturing camera for this light from the
// owning node's world matrix and the scene's bounding scale.
//
// Directional lights get an orthographic camera whose cube bounds span
// ±|sceneScale| on every axis, looking back at the scene center along the
// light direction; the view volume contains the whole scene regardless of
// where the light node sits.
//
// Point lights get a perspective camera at the light's position, aspect 1,
// with the field of view widened until it covers the scene's extreme extent
// (clamped to 180°). A single frustum covers at most a hemisphere; full
// point-light coverage would need a cube map.
//
// Ambient lights carry no direction or position and return a nil camera.
func (l *Light) ShadowCamera(world math.Mat4, sceneScale math.Vec3) (*Camera, error) {
	radius := sceneScale.Length()
	if radius == 0 {
		return nil, ErrDegenerateSceneScale
	}
	center := math.Vec3Zero

	switch l.Kind {
	case LightAmbient:
		return nil, nil

	case LightDirectional:
		dir := l.Direction(world)
		eye := center.Sub(dir.Mul(radius))
		return NewCamera(eye, center, math.Vec3Up, Orthographic{
			Left:   -radius,
			Right:  radius,
			Bottom: -radius,
			Top:    radius,
			Near:   -radius,
			Far:    radius,
		}), nil

	case LightPoint:
		eye := math.Vec3{X: world[3][0], Y: world[3][1], Z: world[3][2]}
		toExtent := sceneScale.Sub(eye).Normalize()
		toCenter := center.Sub(eye).Normalize()
		d := toExtent.Dot(toCenter)
		if d > 1 {
			d = 1
		} else if d < -1 {
			d = -1
		}
		fovy := 2 * math32.Acos(d)
		if fovy > math32.Pi {
			fovy = math32.Pi
		}
		far := center.Sub(eye).Length() + radius
		return NewCamera(eye, center, math.Vec3Up, Perspective{
			Fovy:   fovy,
			Aspect: 1,
			Near:   0.1,
			Far:    far,
		}), nil
	}
	return nil, fmt.Errorf("scene: unknown light kind %d", l.Kind)
}

// UniformSetter is the subset of a shader program the scene writes light
// state through.
type UniformSetter interface {
	SetUniform1i(name string, value int32)
	SetUniform1f(name string, value float32)
	SetUniform3f(name string, value math.Vec3)
}

// Shader is the shading-program surface the render passes drive. Uniform
// names are fixed string keys that must match the program's declarations.
type Shader interface {
	UniformSetter
	Use()
	Unuse()
	SetUniformMat4(name string, value math.Mat4)
}

// UpdateUniforms uploads this light's slot of the u_lights array.
func (l *Light) UpdateUniforms(sh UniformSetter, world math.Mat4) {
	base := fmt.Sprintf("u_lights[%d]", l.Slot)
	sh.SetUniform1i(base+".kind", int32(l.Kind))
	sh.SetUniform3f(base+".color", l.Color.Vec3())
	sh.SetUniform1f(base+".intensity", l.Intensity)
	sh.SetUniform3f(base+".position", math.Vec3{X: world[3][0], Y: world[3][1], Z: world[3][2]})
	sh.SetUniform3f(base+".direction", l.Direction(world))
}
