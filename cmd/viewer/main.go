package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scene-viewer/config"
	"scene-viewer/core"
	"scene-viewer/internal/opengl"
	"scene-viewer/math"
	"scene-viewer/renderer"
	"scene-viewer/scene"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	window, err := core.NewWindow(cfg.WindowConfig())
	if err != nil {
		fmt.Printf("Failed to create window: %v\n", err)
		os.Exit(1)
	}
	defer window.Destroy()

	backend, err := opengl.NewRenderer()
	if err != nil {
		fmt.Printf("Failed to initialize renderer: %v\n", err)
		os.Exit(1)
	}
	defer backend.Destroy()

	s, err := buildScene(cfg)
	if err != nil {
		fmt.Printf("Failed to build scene: %v\n", err)
		os.Exit(1)
	}

	aspect := float32(cfg.Window.Width) / float32(cfg.Window.Height)
	camera := scene.NewOrbitCamera(math.Vec3Zero, cfg.Camera.Distance, cfg.Camera.Fovy, aspect)
	s.SetCamera(&camera.Camera)

	pipeline, cleanup, err := buildPipeline(backend, s, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		fmt.Printf("Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// Reference grid, hidden until toggled with G
	grid := scene.NewNode("grid")
	grid.Mesh = scene.CreateGrid(20, 20)
	grid.Visible = false
	s.AddNode(grid)

	fmt.Println("Controls: 1=phong 2=textured 3=shadow  F=cycle filter  G=grid  drag=orbit  scroll=zoom  ESC=quit")

	// One-shot hotkeys through the key callback; held keys polled per frame.
	window.SetKeyCallback(func(key int, pressed bool) {
		if !pressed {
			return
		}
		switch key {
		case core.Key1:
			pipeline.Technique = renderer.TechniquePhong
		case core.Key2:
			pipeline.Technique = renderer.TechniqueTextured
		case core.Key3:
			pipeline.Technique = renderer.TechniqueShadow
		case core.KeyF:
			// Cycle ... -1 (off), 0, 1, ..., FilterCount-1, back to off.
			pipeline.FilterIndex++
			if pipeline.FilterIndex >= opengl.FilterCount {
				pipeline.FilterIndex = -1
			}
		case core.KeyG:
			grid.Visible = !grid.Visible
			return
		default:
			return
		}
		filterStr := "off"
		if pipeline.FilterIndex >= 0 {
			filterStr = fmt.Sprintf("%d", pipeline.FilterIndex)
		}
		window.SetTitle(fmt.Sprintf("%s | %s | filter %s", cfg.Window.Title, pipeline.Technique, filterStr))
	})

	window.SetScrollCallback(func(xoff, yoff float64) {
		camera.Zoom(float32(-yoff) * 0.5)
	})

	const lookSpeed = 0.005
	var lastX, lastY float64
	dragging := false

	for !window.ShouldClose() {
		window.PollEvents()

		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		// Orbit on left mouse drag
		if window.IsMouseButtonPressed(core.MouseButtonLeft) {
			x, y := window.GetCursorPos()
			if dragging {
				camera.Orbit(float32(lastX-x)*lookSpeed, float32(y-lastY)*lookSpeed)
			}
			lastX, lastY = x, y
			dragging = true
		} else {
			dragging = false
		}

		width, height := window.GetFramebufferSize()
		if width > 0 && height > 0 {
			camera.SetAspect(float32(width) / float32(height))
		}

		if err := pipeline.RenderFrame(width, height); err != nil {
			fmt.Printf("Render error: %v\n", err)
		}

		window.SwapBuffers()
	}

	fmt.Println("Exiting...")
}

// buildScene assembles the node graph from the config: root scale, lights
// with sequential slots, primitive and glTF models.
func buildScene(cfg config.Config) (*scene.Scene, error) {
	s := scene.NewScene()
	s.Root.SetScale(math.Vec3{X: cfg.SceneScale[0], Y: cfg.SceneScale[1], Z: cfg.SceneScale[2]})

	for i, lc := range cfg.Lights {
		kind, err := config.ParseLightKind(lc.Kind)
		if err != nil {
			return nil, err
		}
		light := &scene.Light{
			Slot:      i,
			Kind:      kind,
			Color:     core.Color{R: lc.Color[0], G: lc.Color[1], B: lc.Color[2], A: 1},
			Intensity: lc.Intensity,
		}
		node := scene.NewLightNode(fmt.Sprintf("light_%d_%s", i, kind), light)
		node.SetPosition(vec3Of(lc.Position))
		node.SetRotation(math.QuaternionFromEuler(vec3Of(lc.Rotation)))
		s.AddNode(node)
	}

	for _, mc := range cfg.Models {
		if err := addModel(s, mc); err != nil {
			return nil, err
		}
	}

	s.TrackPrimaryLights()
	return s, nil
}

func addModel(s *scene.Scene, mc config.Model) error {
	if mc.Path != "" {
		if strings.EqualFold(filepath.Ext(mc.Path), ".obj") {
			meshes, err := scene.LoadOBJ(mc.Path)
			if err != nil {
				return err
			}
			wrapper := scene.NewNode(mc.Name)
			wrapper.SetPosition(vec3Of(mc.Position))
			if sc := vec3Of(mc.Scale); sc != math.Vec3Zero {
				wrapper.SetScale(sc)
			}
			for i, mesh := range meshes {
				if mesh.Material != nil && mesh.Material.AlbedoTexture != nil {
					if err := opengl.UploadTexture(mesh.Material.AlbedoTexture); err != nil {
						return err
					}
				}
				child := scene.NewNode(fmt.Sprintf("%s_%d", mc.Name, i))
				child.Mesh = mesh
				wrapper.AddChild(child)
			}
			s.AddNode(wrapper)
			fmt.Printf("Loaded %q (%d meshes)\n", mc.Path, len(meshes))
			return nil
		}

		result, err := scene.LoadGLTF(mc.Path)
		if err != nil {
			return err
		}
		for _, tex := range result.Textures {
			if err := opengl.UploadTexture(tex); err != nil {
				return err
			}
		}
		wrapper := scene.NewNode(mc.Name)
		wrapper.SetPosition(vec3Of(mc.Position))
		if sc := vec3Of(mc.Scale); sc != math.Vec3Zero {
			wrapper.SetScale(sc)
		}
		for _, root := range result.Roots {
			wrapper.AddChild(root)
		}
		s.AddNode(wrapper)
		fmt.Printf("Loaded %q (%d roots, %d textures)\n", mc.Path, len(result.Roots), len(result.Textures))
		return nil
	}

	size := mc.Size
	if size == 0 {
		size = 1
	}
	var mesh *scene.Mesh
	switch mc.Primitive {
	case "cube":
		mesh = scene.CreateCube(size)
	case "plane":
		mesh = scene.CreatePlane(size, size)
	case "sphere":
		mesh = scene.CreateSphere(size/2, 32, 16)
	default:
		return fmt.Errorf("model %q: unknown primitive %q", mc.Name, mc.Primitive)
	}

	if mc.Texture != "" {
		tex, err := scene.LoadTexture(mc.Texture)
		if err != nil {
			return err
		}
		if err := opengl.UploadTexture(tex); err != nil {
			return err
		}
		mesh.Material = scene.DefaultMaterial()
		mesh.Material.AlbedoTexture = tex
	}

	node := scene.NewNode(mc.Name)
	node.Mesh = mesh
	node.SetPosition(vec3Of(mc.Position))
	if sc := vec3Of(mc.Scale); sc != math.Vec3Zero {
		node.SetScale(sc)
	}
	s.AddNode(node)
	return nil
}

// buildPipeline compiles the shader set, allocates the render targets, and
// wires them into the pass orchestrator. The returned cleanup releases all
// GPU resources.
func buildPipeline(backend *opengl.Renderer, s *scene.Scene, width, height int) (*renderer.Pipeline, func(), error) {
	phong, err := opengl.NewPhongShader()
	if err != nil {
		return nil, nil, err
	}
	textured, err := opengl.NewTexturedShader()
	if err != nil {
		return nil, nil, err
	}
	shadow, err := opengl.NewShadowShader()
	if err != nil {
		return nil, nil, err
	}
	filter, err := opengl.NewFilterShader()
	if err != nil {
		return nil, nil, err
	}
	gizmo, err := opengl.NewGizmoShader()
	if err != nil {
		return nil, nil, err
	}

	shadowDir, err := opengl.NewShadowBuffer(renderer.ShadowMapSize)
	if err != nil {
		return nil, nil, err
	}
	shadowPoint, err := opengl.NewShadowBuffer(renderer.ShadowMapSize)
	if err != nil {
		return nil, nil, err
	}
	filterTarget, err := opengl.NewColorBuffer(width, height)
	if err != nil {
		return nil, nil, err
	}

	pipeline := renderer.NewPipeline(renderer.Config{
		Backend: backend,
		Scene:   s,
		Shaders: map[renderer.Technique]scene.Shader{
			renderer.TechniquePhong:    phong,
			renderer.TechniqueTextured: textured,
			renderer.TechniqueShadow:   shadow,
		},
		GizmoShader:       gizmo,
		FilterShader:      filter,
		ShadowDirectional: shadowDir,
		ShadowPoint:       shadowPoint,
		FilterTarget:      filterTarget,
	})

	cleanup := func() {
		filterTarget.Destroy()
		shadowPoint.Destroy()
		shadowDir.Destroy()
		for _, sh := range []*opengl.Shader{phong, textured, shadow, filter, gizmo} {
			sh.Destroy()
		}
	}
	return pipeline, cleanup, nil
}

func vec3Of(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
