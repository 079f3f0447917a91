package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"scene-viewer/core"
	"scene-viewer/math"
	"scene-viewer/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

const gizmoScale = 0.2

// Renderer is the OpenGL drawing backend. Shader activation and camera
// uniforms are owned by the caller; the backend fills in per-node state
// (model matrix, material) and issues the draw calls.
type Renderer struct {
	gpuMeshes map[*scene.Mesh]*GPUMesh

	// Shared unit sphere used as the light gizmo proxy.
	gizmoMesh *scene.Mesh

	// Empty VAO for the fullscreen filter triangle.
	quadVAO uint32
}

func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}
	fmt.Printf("OpenGL %s\n", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	r := &Renderer{
		gpuMeshes: make(map[*scene.Mesh]*GPUMesh),
		gizmoMesh: scene.CreateSphere(1, 16, 12),
	}
	gl.GenVertexArrays(1, &r.quadVAO)
	return r, nil
}

func (r *Renderer) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (r *Renderer) Clear(color core.Color) {
	gl.ClearColor(color.R, color.G, color.B, color.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// BindTexture binds a texture to the given reserved unit.
func (r *Renderer) BindTexture(unit int32, tex uint32) {
	gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.ActiveTexture(gl.TEXTURE0)
}

// UnbindTexture clears the given unit so stale bindings cannot leak into the
// next frame's passes.
func (r *Renderer) UnbindTexture(unit int32) {
	gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.ActiveTexture(gl.TEXTURE0)
}

// DrawScene draws every visible mesh node whose kind is not excluded.
// The shader must already be in use with camera and light uniforms set; this
// call fills in u_model and the material uniforms per node.
func (r *Renderer) DrawScene(sh scene.Shader, s *scene.Scene, exclude scene.KindSet) {
	s.Root.Traverse(func(n *scene.Node) {
		if !n.Visible || n.Mesh == nil || exclude.Has(n.Kind) {
			return
		}
		sh.SetUniformMat4("u_model", n.GetWorldMatrix())
		r.applyMaterial(sh, n.Mesh.Material)
		r.drawMesh(n.Mesh)
	})
}

// DrawGizmo draws a small solid sphere at the light node's world position.
// The gizmo shader must be in use with camera uniforms set.
func (r *Renderer) DrawGizmo(sh scene.Shader, node *scene.Node) {
	if node == nil || node.Light == nil {
		return
	}
	world := node.GetWorldMatrix()
	pos := math.Vec3{X: world[3][0], Y: world[3][1], Z: world[3][2]}
	model := math.Mat4Translation(pos).Mul(math.Mat4Scale(math.Vec3{X: gizmoScale, Y: gizmoScale, Z: gizmoScale}))

	sh.SetUniformMat4("u_model", model)
	sh.SetUniform3f("u_color", node.Light.Color.Vec3())
	r.drawMesh(r.gizmoMesh)
}

// DrawFilterQuad draws the fullscreen filter triangle. The filter shader
// must be in use and the filter color/depth textures bound to their units.
func (r *Renderer) DrawFilterQuad(sh scene.Shader, filterIndex int32) {
	sh.SetUniform1i("u_filter_index", filterIndex)

	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

func (r *Renderer) applyMaterial(sh scene.Shader, mat *scene.Material) {
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	sh.SetUniform3f("u_mat_albedo", mat.Albedo.Vec3())
	sh.SetUniform3f("u_mat_specular", mat.Specular.Vec3())
	sh.SetUniform1f("u_mat_shininess", mat.Shininess)

	if mat.AlbedoTexture != nil && mat.AlbedoTexture.GLID != 0 {
		sh.SetUniform1i("u_has_texture", 1)
		r.BindTexture(TexUnitAlbedo, mat.AlbedoTexture.GLID)
	} else {
		sh.SetUniform1i("u_has_texture", 0)
	}
}

func (r *Renderer) drawMesh(mesh *scene.Mesh) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	mode := uint32(gl.TRIANGLES)
	if mesh.Lines {
		mode = gl.LINES
	}
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(mode, gpu.IndexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(mode, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))
	colorOff := int(unsafe.Offsetof(v.Color))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(colorOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

// ReleaseMesh frees the GPU buffers for a mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := r.gpuMeshes[mesh]
	if !ok {
		return
	}
	if gpu.EBO != 0 {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	if gpu.VBO != 0 {
		gl.DeleteBuffers(1, &gpu.VBO)
	}
	if gpu.VAO != 0 {
		gl.DeleteVertexArrays(1, &gpu.VAO)
	}
	delete(r.gpuMeshes, mesh)
	mesh.GPUData = nil
}

// Destroy frees all GPU resources owned by the backend.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
		r.quadVAO = 0
	}
}
