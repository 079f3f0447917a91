package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"scene-viewer/math"
)

// Shader wraps a linked GLSL program. Uniform locations are cached per name
// on first use; unknown names resolve to -1, which GL silently ignores.
type Shader struct {
	name    string
	program uint32
	locs    map[string]int32
}

func NewShader(name, vertSrc, fragSrc string) (*Shader, error) {
	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", name, err)
	}
	return &Shader{
		name:    name,
		program: prog,
		locs:    make(map[string]int32),
	}, nil
}

func (s *Shader) Name() string {
	return s.name
}

func (s *Shader) Use() {
	gl.UseProgram(s.program)
}

func (s *Shader) Unuse() {
	gl.UseProgram(0)
}

func (s *Shader) location(name string) int32 {
	if loc, ok := s.locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.program, gl.Str(name+"\x00"))
	s.locs[name] = loc
	return loc
}

func (s *Shader) SetUniform1i(name string, value int32) {
	gl.Uniform1i(s.location(name), value)
}

func (s *Shader) SetUniform1f(name string, value float32) {
	gl.Uniform1f(s.location(name), value)
}

func (s *Shader) SetUniform3f(name string, value math.Vec3) {
	gl.Uniform3f(s.location(name), value.X, value.Y, value.Z)
}

func (s *Shader) SetUniformMat4(name string, value math.Mat4) {
	gl.UniformMatrix4fv(s.location(name), 1, false, &value[0][0])
}

// Destroy frees the GL program and zeroes the handle.
func (s *Shader) Destroy() {
	if s.program != 0 {
		gl.DeleteProgram(s.program)
		s.program = 0
	}
}

// ── Program helpers ───────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
