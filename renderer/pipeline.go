package renderer

import (
	"fmt"

	"scene-viewer/core"
	"scene-viewer/math"
	"scene-viewer/scene"
)

// Technique selects the per-frame render strategy.
type Technique int

const (
	TechniquePhong Technique = iota
	TechniqueTextured
	TechniqueShadow
)

func (t Technique) String() string {
	switch t {
	case TechniquePhong:
		return "phong"
	case TechniqueTextured:
		return "textured"
	case TechniqueShadow:
		return "shadow"
	}
	return fmt.Sprintf("Technique(%d)", int(t))
}

// TextureUnit names the reserved texture-unit slots, allocated once at
// initialization. Shadow and filter sampling units are disjoint from the
// material unit by construction.
type TextureUnit int32

const (
	UnitAlbedo TextureUnit = iota
	UnitFilterColor
	UnitFilterDepth
	UnitShadowDirectional
	UnitShadowPoint
)

// ShadowMapSize is the fixed shadow map resolution.
const ShadowMapSize = 1024

// FrameBuffer is the offscreen render-target contract. Resize is idempotent
// for unchanged dimensions; Bind/Unbind scope drawing to the target.
type FrameBuffer interface {
	Resize(width, height int) error
	Bind()
	Unbind()
	ColorTexture() uint32
	DepthTexture() uint32
}

// Backend issues the actual draw calls. Shader activation and camera
// uniforms are owned by the pipeline; the backend fills in per-node state.
type Backend interface {
	SetViewport(width, height int)
	Clear(color core.Color)
	DrawScene(sh scene.Shader, s *scene.Scene, exclude scene.KindSet)
	DrawGizmo(sh scene.Shader, node *scene.Node)
	DrawFilterQuad(sh scene.Shader, filterIndex int32)
	BindTexture(unit int32, tex uint32)
	UnbindTexture(unit int32)
}

// Config wires a Pipeline to its collaborators.
type Config struct {
	Backend Backend
	Scene   *scene.Scene

	// Shaders per technique; TechniquePhong is the fallback.
	Shaders      map[Technique]scene.Shader
	GizmoShader  scene.Shader
	FilterShader scene.Shader

	// Depth targets for the two primary shadow casters, plus the offscreen
	// target for the pixel-filter pass.
	ShadowDirectional FrameBuffer
	ShadowPoint       FrameBuffer
	FilterTarget      FrameBuffer
}

// Pipeline executes the per-frame pass sequence: a normal pass, a
// pixel-filter pass through an offscreen target, or the shadow-map pass
// (per-light depth passes followed by a composite).
type Pipeline struct {
	backend Backend
	scene   *scene.Scene

	shaders      map[Technique]scene.Shader
	gizmoShader  scene.Shader
	filterShader scene.Shader

	shadowDir   FrameBuffer
	shadowPoint FrameBuffer
	filterFBO   FrameBuffer

	Technique Technique
	// FilterIndex selects the pixel filter; values < 0 disable the filter pass.
	FilterIndex int32
	ClearColor  core.Color
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		backend:      cfg.Backend,
		scene:        cfg.Scene,
		shaders:      cfg.Shaders,
		gizmoShader:  cfg.GizmoShader,
		filterShader: cfg.FilterShader,
		shadowDir:    cfg.ShadowDirectional,
		shadowPoint:  cfg.ShadowPoint,
		filterFBO:    cfg.FilterTarget,
		FilterIndex:  -1,
		ClearColor:   core.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
	}
}

// RenderFrame picks the pass sequence for the current technique and filter
// selection and runs it at canvas dimensions.
func (p *Pipeline) RenderFrame(width, height int) error {
	switch {
	case p.Technique == TechniqueShadow:
		return p.RenderShadowMap(width, height)
	case p.FilterIndex >= 0:
		return p.RenderPixelFilter(width, height)
	default:
		p.RenderNormal(width, height, scene.Kinds(scene.KindLight))
		p.drawGizmos()
		return nil
	}
}

// RenderNormal sets the active shader, viewport and clear, then issues one
// scene draw with the given node-kind exclusion set. It is the primitive the
// other passes build on.
func (p *Pipeline) RenderNormal(width, height int, exclude scene.KindSet) {
	sh := p.activeShader()
	p.backend.SetViewport(width, height)
	p.backend.Clear(p.ClearColor)

	sh.Use()
	cameraStateOf(p.scene.Camera).apply(sh)
	p.uploadLights(sh)
	p.backend.DrawScene(sh, p.scene, exclude)
	sh.Unuse()
}

// RenderShadowMap runs a depth pass for each primary light, then the
// composite pass sampling both shadow maps with the main camera restored.
// A missing light contributes an identity shadow matrix, which samples as
// unoccluded.
func (p *Pipeline) RenderShadowMap(width, height int) error {
	sh := p.shaders[TechniqueShadow]
	sh.Use()
	defer sh.Unuse()

	dirPV, err := p.depthPass(sh, p.shadowDir, p.scene.PrimaryDirectional)
	if err != nil {
		return fmt.Errorf("directional depth pass: %w", err)
	}
	pointPV, err := p.depthPass(sh, p.shadowPoint, p.scene.PrimaryPoint)
	if err != nil {
		return fmt.Errorf("point depth pass: %w", err)
	}

	p.backend.SetViewport(width, height)
	p.backend.Clear(p.ClearColor)

	// Depth passes restore the camera uniforms on exit; set them here too so
	// the composite holds even when no depth pass ran.
	cameraStateOf(p.scene.Camera).apply(sh)
	p.uploadLights(sh)

	sh.SetUniformMat4("u_shadow_pv_directional", dirPV)
	sh.SetUniformMat4("u_shadow_pv_point", pointPV)
	p.backend.BindTexture(int32(UnitShadowDirectional), p.shadowDir.DepthTexture())
	p.backend.BindTexture(int32(UnitShadowPoint), p.shadowPoint.DepthTexture())

	p.backend.DrawScene(sh, p.scene, scene.Kinds(scene.KindLight))

	p.drawGizmos()

	// Clear the reserved shadow units so the next frame's non-shadow pass
	// cannot sample stale depth textures.
	p.backend.UnbindTexture(int32(UnitShadowDirectional))
	p.backend.UnbindTexture(int32(UnitShadowPoint))
	return nil
}

// RenderPixelFilter draws the scene into the filter target, then a
// fullscreen quad sampling its color and depth through the selected filter.
// Light gizmos go on top, unfiltered, so lights stay visible as annotations.
func (p *Pipeline) RenderPixelFilter(width, height int) error {
	if err := p.filterFBO.Resize(width, height); err != nil {
		return fmt.Errorf("filter target: %w", err)
	}

	sh := p.activeShader()
	sh.Use()
	cameraStateOf(p.scene.Camera).apply(sh)
	p.uploadLights(sh)
	p.filterFBO.Bind()
	p.backend.Clear(p.ClearColor)
	p.backend.DrawScene(sh, p.scene, scene.Kinds(scene.KindLight))
	p.filterFBO.Unbind()
	sh.Unuse()

	p.backend.SetViewport(width, height)
	p.backend.Clear(p.ClearColor)

	fs := p.filterShader
	fs.Use()
	p.backend.BindTexture(int32(UnitFilterColor), p.filterFBO.ColorTexture())
	p.backend.BindTexture(int32(UnitFilterDepth), p.filterFBO.DepthTexture())
	p.backend.DrawFilterQuad(fs, p.FilterIndex)
	fs.Unuse()
	p.backend.UnbindTexture(int32(UnitFilterColor))
	p.backend.UnbindTexture(int32(UnitFilterDepth))

	p.drawGizmos()
	return nil
}

// depthPass renders scene depth from the light's viewpoint into fb and
// returns the combined shadow matrix for the composite pass. Lights with no
// shadow camera (ambient, or no light at all) yield identity and skip the
// pass entirely.
func (p *Pipeline) depthPass(sh scene.Shader, fb FrameBuffer, lightNode *scene.Node) (math.Mat4, error) {
	if lightNode == nil || lightNode.Light == nil {
		return math.Mat4Identity(), nil
	}
	cam, err := lightNode.Light.ShadowCamera(lightNode.GetWorldMatrix(), p.scene.BoundingScale())
	if err != nil {
		return math.Mat4Identity(), err
	}
	if cam == nil {
		return math.Mat4Identity(), nil
	}

	// The shadow camera overwrites the shared camera uniforms for the depth
	// draw; the snapshot is applied back on every exit path so later passes
	// never see shadow-camera state.
	main := cameraStateOf(p.scene.Camera)
	defer main.apply(sh)

	cameraStateOf(cam).apply(sh)

	if err := fb.Resize(ShadowMapSize, ShadowMapSize); err != nil {
		return math.Mat4Identity(), err
	}
	fb.Bind()
	p.backend.DrawScene(sh, p.scene, scene.Kinds(scene.KindLight))
	fb.Unbind()

	return cam.ViewMatrix().Mul(cam.ProjectionMatrix()), nil
}

// drawGizmos draws the tracked lights' proxy spheres with the main camera.
func (p *Pipeline) drawGizmos() {
	dir := p.scene.PrimaryDirectional
	point := p.scene.PrimaryPoint
	if dir == nil && point == nil {
		return
	}

	gz := p.gizmoShader
	gz.Use()
	cameraStateOf(p.scene.Camera).apply(gz)
	if dir != nil {
		p.backend.DrawGizmo(gz, dir)
	}
	if point != nil {
		p.backend.DrawGizmo(gz, point)
	}
	gz.Unuse()
}

func (p *Pipeline) uploadLights(sh scene.Shader) {
	count := 0
	for _, n := range p.scene.Lights() {
		if n.Light.Slot < 0 || n.Light.Slot >= scene.MaxLights {
			continue
		}
		n.Light.UpdateUniforms(sh, n.GetWorldMatrix())
		if n.Light.Slot+1 > count {
			count = n.Light.Slot + 1
		}
	}
	sh.SetUniform1i("u_light_count", int32(count))
}

func (p *Pipeline) activeShader() scene.Shader {
	if sh, ok := p.shaders[p.Technique]; ok {
		return sh
	}
	return p.shaders[TechniquePhong]
}

// cameraState snapshots the shared camera uniforms so a pass can overwrite
// and later restore them.
type cameraState struct {
	eye  math.Vec3
	view math.Mat4
	proj math.Mat4
}

func cameraStateOf(cam *scene.Camera) cameraState {
	return cameraState{
		eye:  cam.Eye,
		view: cam.ViewMatrix(),
		proj: cam.ProjectionMatrix(),
	}
}

func (cs cameraState) apply(sh scene.Shader) {
	sh.SetUniform3f("u_eye", cs.eye)
	sh.SetUniformMat4("u_view", cs.view)
	sh.SetUniformMat4("u_projection", cs.proj)
}
