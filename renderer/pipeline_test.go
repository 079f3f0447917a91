package renderer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-viewer/core"
	"scene-viewer/math"
	"scene-viewer/scene"
)

// ── Recording fakes ───────────────────────────────────────────────────────────

type fakeShader struct {
	name     string
	inUse    bool
	uniforms map[string]interface{}
}

func newFakeShader(name string) *fakeShader {
	return &fakeShader{name: name, uniforms: make(map[string]interface{})}
}

func (f *fakeShader) Use()   { f.inUse = true }
func (f *fakeShader) Unuse() { f.inUse = false }

func (f *fakeShader) SetUniform1i(name string, v int32)       { f.uniforms[name] = v }
func (f *fakeShader) SetUniform1f(name string, v float32)     { f.uniforms[name] = v }
func (f *fakeShader) SetUniform3f(name string, v math.Vec3)   { f.uniforms[name] = v }
func (f *fakeShader) SetUniformMat4(name string, v math.Mat4) { f.uniforms[name] = v }

func (f *fakeShader) mat4(t *testing.T, name string) math.Mat4 {
	t.Helper()
	v, ok := f.uniforms[name].(math.Mat4)
	require.True(t, ok, "uniform %q not set as mat4", name)
	return v
}

type fakeFBO struct {
	name      string
	width     int
	height    int
	allocs    int // incremented only when dimensions actually change
	bound     bool
	binds     int
	colorTex  uint32
	depthTex  uint32
	resizeErr error
}

func (f *fakeFBO) Resize(w, h int) error {
	if f.resizeErr != nil {
		return f.resizeErr
	}
	if w == f.width && h == f.height {
		return nil
	}
	f.width, f.height = w, h
	f.allocs++
	return nil
}

func (f *fakeFBO) Bind()   { f.bound = true; f.binds++ }
func (f *fakeFBO) Unbind() { f.bound = false }

func (f *fakeFBO) ColorTexture() uint32 { return f.colorTex }
func (f *fakeFBO) DepthTexture() uint32 { return f.depthTex }

type sceneDraw struct {
	shader  string
	exclude scene.KindSet
	// state observed at draw time
	view       math.Mat4
	projection math.Mat4
	boundUnits map[int32]uint32
	offscreen  bool
}

type quadDraw struct {
	filterIndex int32
	boundUnits  map[int32]uint32
}

type clearCall struct {
	color     core.Color
	offscreen bool
}

type fakeBackend struct {
	boundUnits map[int32]uint32
	draws      []sceneDraw
	gizmos     []*scene.Node
	quads      []quadDraw
	clears     []clearCall

	// Offscreen targets currently bound, for tagging draws and clears.
	fbos []*fakeFBO
}

func newFakeBackend(fbos ...*fakeFBO) *fakeBackend {
	return &fakeBackend{boundUnits: make(map[int32]uint32), fbos: fbos}
}

func (b *fakeBackend) SetViewport(width, height int) {}

func (b *fakeBackend) Clear(color core.Color) {
	b.clears = append(b.clears, clearCall{color: color, offscreen: b.offscreenBound()})
}

func (b *fakeBackend) offscreenBound() bool {
	for _, fbo := range b.fbos {
		if fbo.bound {
			return true
		}
	}
	return false
}

func (b *fakeBackend) DrawScene(sh scene.Shader, s *scene.Scene, exclude scene.KindSet) {
	fs := sh.(*fakeShader)
	offscreen := b.offscreenBound()
	b.draws = append(b.draws, sceneDraw{
		shader:     fs.name,
		exclude:    exclude,
		view:       fs.mat4OrZero("u_view"),
		projection: fs.mat4OrZero("u_projection"),
		boundUnits: copyUnits(b.boundUnits),
		offscreen:  offscreen,
	})
}

func (f *fakeShader) mat4OrZero(name string) math.Mat4 {
	if v, ok := f.uniforms[name].(math.Mat4); ok {
		return v
	}
	return math.Mat4Zero()
}

func (b *fakeBackend) DrawGizmo(sh scene.Shader, node *scene.Node) {
	b.gizmos = append(b.gizmos, node)
}

func (b *fakeBackend) DrawFilterQuad(sh scene.Shader, filterIndex int32) {
	b.quads = append(b.quads, quadDraw{
		filterIndex: filterIndex,
		boundUnits:  copyUnits(b.boundUnits),
	})
}

func (b *fakeBackend) BindTexture(unit int32, tex uint32) {
	b.boundUnits[unit] = tex
}

func (b *fakeBackend) UnbindTexture(unit int32) {
	delete(b.boundUnits, unit)
}

func copyUnits(src map[int32]uint32) map[int32]uint32 {
	out := make(map[int32]uint32, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

type fixture struct {
	pipeline *Pipeline
	backend  *fakeBackend
	scene    *scene.Scene

	phong    *fakeShader
	textured *fakeShader
	shadow   *fakeShader
	gizmo    *fakeShader
	filter   *fakeShader

	shadowDir   *fakeFBO
	shadowPoint *fakeFBO
	filterFBO   *fakeFBO
}

func newFixture() *fixture {
	s := scene.NewScene()
	s.Root.SetScale(math.Vec3{X: 5, Y: 5, Z: 5})
	cam := scene.NewCamera(
		math.Vec3{X: 0, Y: 2, Z: 8},
		math.Vec3Zero,
		math.Vec3Up,
		scene.Perspective{Fovy: 1.0472, Aspect: 16.0 / 9.0, Near: 0.1, Far: 100},
	)
	s.SetCamera(cam)

	cube := scene.NewNode("cube")
	cube.Mesh = scene.CreateCube(1)
	s.AddNode(cube)

	f := &fixture{
		scene:       s,
		phong:       newFakeShader("phong"),
		textured:    newFakeShader("textured"),
		shadow:      newFakeShader("shadow"),
		gizmo:       newFakeShader("gizmo"),
		filter:      newFakeShader("filter"),
		shadowDir:   &fakeFBO{name: "shadow_dir", colorTex: 0, depthTex: 31},
		shadowPoint: &fakeFBO{name: "shadow_point", colorTex: 0, depthTex: 32},
		filterFBO:   &fakeFBO{name: "filter", colorTex: 11, depthTex: 12},
	}
	f.backend = newFakeBackend(f.shadowDir, f.shadowPoint, f.filterFBO)
	f.pipeline = NewPipeline(Config{
		Backend: f.backend,
		Scene:   s,
		Shaders: map[Technique]scene.Shader{
			TechniquePhong:    f.phong,
			TechniqueTextured: f.textured,
			TechniqueShadow:   f.shadow,
		},
		GizmoShader:       f.gizmo,
		FilterShader:      f.filter,
		ShadowDirectional: f.shadowDir,
		ShadowPoint:       f.shadowPoint,
		FilterTarget:      f.filterFBO,
	})
	return f
}

func (f *fixture) addLight(name string, kind scene.LightKind, slot int, pos math.Vec3) *scene.Node {
	n := scene.NewLightNode(name, &scene.Light{
		Slot:      slot,
		Kind:      kind,
		Color:     core.ColorWhite,
		Intensity: 1,
	})
	n.SetPosition(pos)
	f.scene.AddNode(n)
	f.scene.TrackPrimaryLights()
	return n
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestShadowFrameWithBothLights(t *testing.T) {
	f := newFixture()
	dir := f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})
	point := f.addLight("lamp", scene.LightPoint, 1, math.Vec3{X: 3, Y: 4, Z: 0})

	f.pipeline.Technique = TechniqueShadow
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	// Two depth passes into the shadow targets, then the composite.
	require.Len(t, f.backend.draws, 3)
	assert.True(t, f.backend.draws[0].offscreen, "first depth pass draws offscreen")
	assert.True(t, f.backend.draws[1].offscreen, "second depth pass draws offscreen")
	assert.False(t, f.backend.draws[2].offscreen, "composite draws to the default target")

	// Every draw excludes light gizmo nodes.
	for i, d := range f.backend.draws {
		assert.True(t, d.exclude.Has(scene.KindLight), "draw %d must exclude lights", i)
		assert.False(t, d.exclude.Has(scene.KindModel), "draw %d must keep geometry", i)
	}

	// Both combined shadow matrices are non-identity.
	identity := math.Mat4Identity()
	assert.NotEqual(t, identity, f.shadow.mat4(t, "u_shadow_pv_directional"))
	assert.NotEqual(t, identity, f.shadow.mat4(t, "u_shadow_pv_point"))

	// Shadow maps are rendered at the fixed resolution.
	assert.Equal(t, ShadowMapSize, f.shadowDir.width)
	assert.Equal(t, ShadowMapSize, f.shadowPoint.height)

	// Both gizmos drawn as annotations.
	assert.Equal(t, []*scene.Node{dir, point}, f.backend.gizmos)

	// Reserved shadow units are cleared after the frame.
	assert.Empty(t, f.backend.boundUnits)
}

func TestShadowCompositeSamplesReservedUnits(t *testing.T) {
	f := newFixture()
	f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})
	f.addLight("lamp", scene.LightPoint, 1, math.Vec3{X: 3, Y: 4, Z: 0})

	f.pipeline.Technique = TechniqueShadow
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	composite := f.backend.draws[2]
	assert.Equal(t, f.shadowDir.DepthTexture(), composite.boundUnits[int32(UnitShadowDirectional)])
	assert.Equal(t, f.shadowPoint.DepthTexture(), composite.boundUnits[int32(UnitShadowPoint)])

	// Shadow sampling never lands on the material or filter units.
	for unit := range composite.boundUnits {
		assert.NotEqual(t, int32(UnitAlbedo), unit)
		assert.NotEqual(t, int32(UnitFilterColor), unit)
		assert.NotEqual(t, int32(UnitFilterDepth), unit)
	}
}

func TestShadowFrameMissingPointLight(t *testing.T) {
	f := newFixture()
	dir := f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})

	f.pipeline.Technique = TechniqueShadow
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	// One depth pass plus the composite; the point slot falls back to identity.
	require.Len(t, f.backend.draws, 2)
	assert.Equal(t, math.Mat4Identity(), f.shadow.mat4(t, "u_shadow_pv_point"))
	assert.NotEqual(t, math.Mat4Identity(), f.shadow.mat4(t, "u_shadow_pv_directional"))

	assert.Equal(t, 0, f.shadowPoint.binds, "missing light must not bind its depth target")
	assert.Equal(t, []*scene.Node{dir}, f.backend.gizmos)

	// The composite still samples the point depth map even though no depth
	// pass ever rendered into it. With the identity matrix the lookup can
	// land inside the map, so the texture's cleared-at-allocation contents
	// (depth 1.0, unoccluded) are what keep the fallback lit.
	composite := f.backend.draws[1]
	assert.Equal(t, f.shadowPoint.DepthTexture(), composite.boundUnits[int32(UnitShadowPoint)])
	assert.Equal(t, f.shadowDir.DepthTexture(), composite.boundUnits[int32(UnitShadowDirectional)])
}

func TestShadowFrameAmbientOnly(t *testing.T) {
	f := newFixture()
	f.addLight("ambient", scene.LightAmbient, 0, math.Vec3Zero)

	f.pipeline.Technique = TechniqueShadow
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	// No depth passes: only the composite draw, both matrices identity.
	require.Len(t, f.backend.draws, 1)
	assert.False(t, f.backend.draws[0].offscreen)
	assert.Equal(t, math.Mat4Identity(), f.shadow.mat4(t, "u_shadow_pv_directional"))
	assert.Equal(t, math.Mat4Identity(), f.shadow.mat4(t, "u_shadow_pv_point"))
	assert.Equal(t, 0, f.shadowDir.binds)
	assert.Equal(t, 0, f.shadowPoint.binds)
	assert.Empty(t, f.backend.gizmos)
}

func TestDepthPassRestoresCameraUniforms(t *testing.T) {
	f := newFixture()
	f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})
	f.addLight("lamp", scene.LightPoint, 1, math.Vec3{X: 3, Y: 4, Z: 0})

	mainView := f.scene.Camera.ViewMatrix()
	mainProj := f.scene.Camera.ProjectionMatrix()

	f.pipeline.Technique = TechniqueShadow
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	// Depth passes saw the shadow cameras, not the navigation camera.
	assert.NotEqual(t, mainView, f.backend.draws[0].view)
	assert.NotEqual(t, mainView, f.backend.draws[1].view)

	// The composite saw the restored navigation camera.
	assert.Equal(t, mainView, f.backend.draws[2].view)
	assert.Equal(t, mainProj, f.backend.draws[2].projection)

	// And the shader's camera uniforms end the frame at the main camera.
	assert.Equal(t, mainView, f.shadow.mat4(t, "u_view"))
	assert.Equal(t, mainProj, f.shadow.mat4(t, "u_projection"))
	assert.Equal(t, f.scene.Camera.Eye, f.shadow.uniforms["u_eye"])
}

func TestDegenerateSceneScaleFailsShadowFrame(t *testing.T) {
	f := newFixture()
	f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})
	f.scene.Root.SetScale(math.Vec3Zero)

	f.pipeline.Technique = TechniqueShadow
	err := f.pipeline.RenderFrame(800, 600)
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrDegenerateSceneScale)
}

func TestPixelFilterPass(t *testing.T) {
	f := newFixture()
	dir := f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})

	f.pipeline.Technique = TechniqueTextured
	f.pipeline.FilterIndex = 2
	require.NoError(t, f.pipeline.RenderFrame(1024, 768))

	// The offscreen target tracks canvas dimensions.
	assert.Equal(t, 1024, f.filterFBO.width)
	assert.Equal(t, 768, f.filterFBO.height)
	assert.Equal(t, 1, f.filterFBO.binds)

	// Scene drawn into the filter target with the textured shader, no gizmos.
	require.Len(t, f.backend.draws, 1)
	assert.Equal(t, "textured", f.backend.draws[0].shader)
	assert.True(t, f.backend.draws[0].offscreen)
	assert.True(t, f.backend.draws[0].exclude.Has(scene.KindLight))

	// The quad received the selected filter with both textures on their units.
	require.Len(t, f.backend.quads, 1)
	assert.Equal(t, int32(2), f.backend.quads[0].filterIndex)
	assert.Equal(t, f.filterFBO.ColorTexture(), f.backend.quads[0].boundUnits[int32(UnitFilterColor)])
	assert.Equal(t, f.filterFBO.DepthTexture(), f.backend.quads[0].boundUnits[int32(UnitFilterDepth)])

	// Gizmos drawn unfiltered afterwards; filter units released.
	assert.Equal(t, []*scene.Node{dir}, f.backend.gizmos)
	assert.Empty(t, f.backend.boundUnits)
}

func TestPixelFilterClearsOffscreenTarget(t *testing.T) {
	f := newFixture()
	f.pipeline.Technique = TechniquePhong
	f.pipeline.FilterIndex = 0

	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	// The filter target is cleared with the pipeline's clear color while
	// bound, before the scene draw; relying on whatever clear color the GL
	// state happens to hold would paint the first frame's backdrop black.
	require.Len(t, f.backend.clears, 2)
	assert.True(t, f.backend.clears[0].offscreen, "first clear targets the filter FBO")
	assert.Equal(t, f.pipeline.ClearColor, f.backend.clears[0].color)
	assert.False(t, f.backend.clears[1].offscreen, "second clear targets the screen")
	assert.Equal(t, f.pipeline.ClearColor, f.backend.clears[1].color)
}

func TestNegativeFilterIndexSkipsFilterPass(t *testing.T) {
	f := newFixture()

	f.pipeline.Technique = TechniqueTextured
	f.pipeline.FilterIndex = -1
	require.NoError(t, f.pipeline.RenderFrame(800, 600))

	assert.Empty(t, f.backend.quads)
	assert.Equal(t, 0, f.filterFBO.binds)
	require.Len(t, f.backend.draws, 1)
	assert.False(t, f.backend.draws[0].offscreen)
}

func TestFilterTargetResizeIsIdempotent(t *testing.T) {
	f := newFixture()
	f.pipeline.Technique = TechniquePhong
	f.pipeline.FilterIndex = 0

	require.NoError(t, f.pipeline.RenderFrame(800, 600))
	require.NoError(t, f.pipeline.RenderFrame(800, 600))
	assert.Equal(t, 1, f.filterFBO.allocs, "unchanged dimensions must not reallocate")

	require.NoError(t, f.pipeline.RenderFrame(640, 480))
	assert.Equal(t, 2, f.filterFBO.allocs)
}

func TestRenderNormalUploadsLights(t *testing.T) {
	f := newFixture()
	f.addLight("ambient", scene.LightAmbient, 0, math.Vec3Zero)
	f.addLight("sun", scene.LightDirectional, 1, math.Vec3{Y: 10})

	f.pipeline.RenderNormal(800, 600, scene.Kinds(scene.KindLight))

	assert.Equal(t, int32(2), f.phong.uniforms["u_light_count"])
	assert.Equal(t, int32(scene.LightAmbient), f.phong.uniforms["u_lights[0].kind"])
	assert.Equal(t, int32(scene.LightDirectional), f.phong.uniforms["u_lights[1].kind"])
	assert.Equal(t, float32(1), f.phong.uniforms["u_lights[1].intensity"])
}

func TestShadowTargetResizeErrorAborts(t *testing.T) {
	f := newFixture()
	f.addLight("sun", scene.LightDirectional, 0, math.Vec3{Y: 10})
	f.shadowDir.resizeErr = fmt.Errorf("out of memory")

	f.pipeline.Technique = TechniqueShadow
	err := f.pipeline.RenderFrame(800, 600)
	require.Error(t, err)

	// The failed pass still restored the navigation camera uniforms.
	assert.Equal(t, f.scene.Camera.ViewMatrix(), f.shadow.mat4(t, "u_view"))
	assert.Equal(t, f.scene.Camera.ProjectionMatrix(), f.shadow.mat4(t, "u_projection"))
}
