package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// FrameBuffer is an offscreen render target. Depth-only buffers carry a
// single sampleable depth texture set up for hardware PCF; color buffers
// carry an RGBA8 color attachment plus a plain depth texture.
type FrameBuffer struct {
	Width  int32
	Height int32

	fbo       uint32
	colorTex  uint32
	depthTex  uint32
	depthOnly bool

	// Viewport of the default target, saved on Bind and restored on Unbind.
	prevViewport [4]int32
}

// NewShadowBuffer creates a depth-only FBO of size×size resolution.
// The depth texture uses COMPARE_REF_TO_TEXTURE so sampler2DShadow lookups
// return a 0/1 occlusion result with hardware PCF.
func NewShadowBuffer(size int) (*FrameBuffer, error) {
	f := &FrameBuffer{depthOnly: true}
	if err := f.Resize(size, size); err != nil {
		return nil, err
	}
	return f, nil
}

// NewColorBuffer creates a color+depth FBO at the given pixel dimensions.
func NewColorBuffer(width, height int) (*FrameBuffer, error) {
	f := &FrameBuffer{}
	if err := f.Resize(width, height); err != nil {
		return nil, err
	}
	return f, nil
}

// Resize reallocates the attachments at the new dimensions. Calling it with
// the current dimensions is a no-op.
func (f *FrameBuffer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("framebuffer: invalid size %dx%d", width, height)
	}
	if int32(width) == f.Width && int32(height) == f.Height {
		return nil
	}
	f.free()
	return f.alloc(width, height)
}

func (f *FrameBuffer) alloc(width, height int) error {
	f.Width = int32(width)
	f.Height = int32(height)

	// Depth texture
	gl.GenTextures(1, &f.depthTex)
	gl.BindTexture(gl.TEXTURE_2D, f.depthTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F,
		f.Width, f.Height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	if f.depthOnly {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		// Fragments outside the shadow map are lit (border depth = 1.0)
		border := [4]float32{1, 1, 1, 1}
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
		// Hardware PCF: texture() returns 0.0 or 1.0 based on depth comparison
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}

	// Color texture (color buffers only)
	if !f.depthOnly {
		gl.GenTextures(1, &f.colorTex)
		gl.BindTexture(gl.TEXTURE_2D, f.colorTex)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
			f.Width, f.Height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}

	gl.GenFramebuffers(1, &f.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, f.depthTex, 0)
	if f.depthOnly {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, f.colorTex, 0)
	}

	// Clear the fresh attachments while the FBO is bound. A shadow target can
	// be sampled without ever being rendered to (its light absent, identity
	// shadow matrix); the depth texture must then read 1.0 everywhere, not
	// whatever the allocation left behind.
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		f.free()
		return fmt.Errorf("framebuffer incomplete: status=0x%X", status)
	}
	return nil
}

func (f *FrameBuffer) free() {
	if f.fbo != 0 {
		gl.DeleteFramebuffers(1, &f.fbo)
		f.fbo = 0
	}
	if f.colorTex != 0 {
		gl.DeleteTextures(1, &f.colorTex)
		f.colorTex = 0
	}
	if f.depthTex != 0 {
		gl.DeleteTextures(1, &f.depthTex)
		f.depthTex = 0
	}
	f.Width = 0
	f.Height = 0
}

// Bind makes this FBO the active render target and sets the viewport to its
// dimensions. The previous viewport is restored by Unbind.
func (f *FrameBuffer) Bind() {
	gl.GetIntegerv(gl.VIEWPORT, &f.prevViewport[0])
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.Viewport(0, 0, f.Width, f.Height)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Unbind restores the default render target and the saved viewport.
func (f *FrameBuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(f.prevViewport[0], f.prevViewport[1], f.prevViewport[2], f.prevViewport[3])
}

func (f *FrameBuffer) ColorTexture() uint32 {
	return f.colorTex
}

func (f *FrameBuffer) DepthTexture() uint32 {
	return f.depthTex
}

// Destroy frees all GPU resources owned by this framebuffer.
func (f *FrameBuffer) Destroy() {
	f.free()
}
