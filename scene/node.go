package scene

import (
	"scene-viewer/core"
	"scene-viewer/math"
)

// NodeKind categorizes scene graph nodes for draw-call filtering.
type NodeKind int

const (
	KindModel NodeKind = iota
	KindLight
)

// KindSet is a node-kind exclusion filter for draw calls.
type KindSet uint32

func Kinds(kinds ...NodeKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

func (s KindSet) Has(k NodeKind) bool {
	return s&(1<<uint(k)) != 0
}

// Node represents an object in the scene graph.
type Node struct {
	Name      string
	Kind      NodeKind
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Light     *Light
	Visible   bool
	Id        uint32

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      math.Mat4
}

var nodeIdCounter uint32 = 0

func NewNode(name string) *Node {
	nodeIdCounter++
	return &Node{
		Name:             name,
		Kind:             KindModel,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Id:               nodeIdCounter,
		worldMatrixDirty: true,
	}
}

// NewLightNode creates a node of kind KindLight carrying the given light.
func NewLightNode(name string, light *Light) *Node {
	n := NewNode(name)
	n.Kind = KindLight
	n.Light = light
	return n
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	child.MarkWorldMatrixDirty()
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

func (n *Node) GetWorldMatrix() math.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul(localMatrix)
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos math.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot math.Quaternion) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale math.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

func (n *Node) Translate(delta math.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

func (n *Node) Rotate(axis math.Vec3, angle float32) {
	rotation := math.QuaternionFromAxisAngle(axis, angle)
	n.Transform.Rotation = n.Transform.Rotation.Mul(rotation).Normalize()
	n.MarkWorldMatrixDirty()
}

// Traverse visits this node and all of its descendants.
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
