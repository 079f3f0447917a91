package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-viewer/core"
	"scene-viewer/math"
)

func TestTrackPrimaryLightsFirstOfEachKind(t *testing.T) {
	s := NewScene()
	ambient := NewLightNode("ambient", &Light{Slot: 0, Kind: LightAmbient})
	sun := NewLightNode("sun", &Light{Slot: 1, Kind: LightDirectional})
	sun2 := NewLightNode("sun2", &Light{Slot: 2, Kind: LightDirectional})
	lamp := NewLightNode("lamp", &Light{Slot: 3, Kind: LightPoint})
	s.AddNode(ambient)
	s.AddNode(sun)
	s.AddNode(sun2)
	s.AddNode(lamp)

	s.TrackPrimaryLights()

	assert.Same(t, sun, s.PrimaryDirectional, "first directional wins")
	assert.Same(t, lamp, s.PrimaryPoint)
}

func TestTrackPrimaryLightsAmbientOnly(t *testing.T) {
	s := NewScene()
	s.AddNode(NewLightNode("ambient", &Light{Kind: LightAmbient}))
	s.TrackPrimaryLights()

	assert.Nil(t, s.PrimaryDirectional)
	assert.Nil(t, s.PrimaryPoint)
}

func TestRemoveNodeRetracksPrimaries(t *testing.T) {
	s := NewScene()
	sun := NewLightNode("sun", &Light{Slot: 0, Kind: LightDirectional})
	sun2 := NewLightNode("sun2", &Light{Slot: 1, Kind: LightDirectional})
	s.AddNode(sun)
	s.AddNode(sun2)
	s.TrackPrimaryLights()
	require.Same(t, sun, s.PrimaryDirectional)

	s.RemoveNode(sun)
	assert.Same(t, sun2, s.PrimaryDirectional, "next directional takes over")

	s.RemoveNode(sun2)
	assert.Nil(t, s.PrimaryDirectional)
}

func TestRemoveNonPrimaryKeepsTracking(t *testing.T) {
	s := NewScene()
	sun := NewLightNode("sun", &Light{Kind: LightDirectional})
	sun2 := NewLightNode("sun2", &Light{Kind: LightDirectional})
	s.AddNode(sun)
	s.AddNode(sun2)
	s.TrackPrimaryLights()

	s.RemoveNode(sun2)
	assert.Same(t, sun, s.PrimaryDirectional)
}

func TestLightsTraversalOrder(t *testing.T) {
	s := NewScene()
	a := NewLightNode("a", &Light{Kind: LightAmbient})
	b := NewLightNode("b", &Light{Kind: LightPoint})
	child := NewLightNode("child", &Light{Kind: LightDirectional})
	a.AddChild(child)
	s.AddNode(a)
	s.AddNode(b)

	lights := s.Lights()
	require.Len(t, lights, 3)
	assert.Same(t, a, lights[0])
	assert.Same(t, child, lights[1], "children visit before later siblings")
	assert.Same(t, b, lights[2])
}

func TestBoundingScaleFollowsRoot(t *testing.T) {
	s := NewScene()
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, s.BoundingScale())

	s.Root.SetScale(math.Vec3{X: 3, Y: 0, Z: 4})
	assert.Equal(t, math.Vec3{X: 3, Y: 0, Z: 4}, s.BoundingScale())
}

func TestSceneBoundsUnion(t *testing.T) {
	s := NewScene()

	a := NewNode("a")
	a.Mesh = CreateCube(2)
	a.SetPosition(math.Vec3{X: -5})
	s.AddNode(a)

	b := NewNode("b")
	b.Mesh = CreateCube(2)
	b.SetPosition(math.Vec3{X: 5})
	s.AddNode(b)

	hidden := NewNode("hidden")
	hidden.Mesh = CreateCube(2)
	hidden.SetPosition(math.Vec3{Y: 100})
	hidden.Visible = false
	s.AddNode(hidden)

	box := s.Bounds()
	assert.InDelta(t, -6, box.Min.X, 1e-4)
	assert.InDelta(t, 6, box.Max.X, 1e-4)
	assert.InDelta(t, 1, box.Max.Y, 1e-4, "hidden node must not contribute")
}

func TestKindSet(t *testing.T) {
	s := Kinds(KindLight)
	assert.True(t, s.Has(KindLight))
	assert.False(t, s.Has(KindModel))

	both := Kinds(KindModel, KindLight)
	assert.True(t, both.Has(KindModel))
	assert.True(t, both.Has(KindLight))

	var none KindSet
	assert.False(t, none.Has(KindLight))
}

func TestNodeWorldMatrixDirtyPropagation(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	child.SetPosition(math.Vec3{X: 1})
	w := child.GetWorldMatrix()
	assert.InDelta(t, 1, w[3][0], 1e-4)

	// Moving the parent must invalidate the child's cached world matrix.
	parent.SetPosition(math.Vec3{X: 2, Y: 3, Z: 4})
	w = child.GetWorldMatrix()
	assert.InDelta(t, 3, w[3][0], 1e-4)
	assert.InDelta(t, 3, w[3][1], 1e-4)
	assert.InDelta(t, 4, w[3][2], 1e-4)
}

func TestNodeFind(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	root.AddChild(mid)
	mid.AddChild(leaf)

	assert.Same(t, leaf, root.Find("leaf"))
	assert.Nil(t, root.Find("missing"))
}

func TestCreateGridLines(t *testing.T) {
	g := CreateGrid(10, 4)
	assert.True(t, g.Lines)
	// (divisions+1) lines per axis, two vertices each
	assert.Len(t, g.Vertices, 2*2*5)
	assert.Equal(t, uint32(len(g.Vertices)), g.IndexCount)
	require.NotNil(t, g.Material)
	assert.Equal(t, core.ColorBlack, g.Material.Specular)
}

func TestCreateCubeBounds(t *testing.T) {
	c := CreateCube(2)
	require.True(t, c.HasLocalAABB)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, c.LocalAABB.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, c.LocalAABB.Max)
	assert.Equal(t, uint32(36), c.IndexCount)
}

func TestDefaultMaterial(t *testing.T) {
	m := DefaultMaterial()
	assert.Equal(t, core.Color{R: 1, G: 1, B: 1, A: 1}, m.Albedo)
	assert.InDelta(t, 0.3, m.Specular.R, 1e-6)
	assert.InDelta(t, 32, m.Shininess, 1e-6)
	assert.Nil(t, m.AlbedoTexture)
}
