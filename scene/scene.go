package scene

import (
	"scene-viewer/math"
)

// Scene manages a node graph and the active navigation camera.
type Scene struct {
	Root   *Node
	Camera *Camera

	// Primary shadow casters: the first directional and first point light
	// found in traversal order. Resolved once by TrackPrimaryLights after
	// the scene is built, not re-scanned per frame. Either may be nil.
	PrimaryDirectional *Node
	PrimaryPoint       *Node
}

func NewScene() *Scene {
	return &Scene{
		Root: NewNode("root"),
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
	if node == s.PrimaryDirectional || node == s.PrimaryPoint {
		s.TrackPrimaryLights()
	}
}

// TrackPrimaryLights records the first directional and first point light in
// traversal order. Later lights of the same kind keep contributing to
// shading but do not cast shadows.
func (s *Scene) TrackPrimaryLights() {
	s.PrimaryDirectional = nil
	s.PrimaryPoint = nil
	s.Root.Traverse(func(n *Node) {
		if n.Light == nil {
			return
		}
		switch n.Light.Kind {
		case LightDirectional:
			if s.PrimaryDirectional == nil {
				s.PrimaryDirectional = n
			}
		case LightPoint:
			if s.PrimaryPoint == nil {
				s.PrimaryPoint = n
			}
		}
	})
}

// BoundingScale is the scene's bounding-scale proxy, taken from the root
// node's transform. Shadow camera derivation treats its length as the
// scene's bounding-sphere radius.
func (s *Scene) BoundingScale() math.Vec3 {
	return s.Root.Transform.Scale
}

// Lights returns all light nodes in traversal order.
func (s *Scene) Lights() []*Node {
	var lights []*Node
	s.Root.Traverse(func(n *Node) {
		if n.Light != nil {
			lights = append(lights, n)
		}
	})
	return lights
}

// Bounds returns the world-space AABB of all visible meshes.
func (s *Scene) Bounds() AABB {
	var out AABB
	first := true
	s.Root.Traverse(func(n *Node) {
		if !n.Visible || n.Mesh == nil {
			return
		}
		box := ComputeAABB(n.Mesh, n.GetWorldMatrix())
		if first {
			out = box
			first = false
		} else {
			out = out.Union(box)
		}
	})
	return out
}
