// Package config loads the viewer's TOML configuration: window setup,
// camera start position, and the lights and models that populate the scene.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"scene-viewer/core"
	"scene-viewer/scene"
)

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type Camera struct {
	Distance float32 `toml:"distance"`
	Fovy     float32 `toml:"fovy"`
}

// Light describes one light source. Kind is "ambient", "directional" or
// "point"; slots are assigned in declaration order.
type Light struct {
	Kind      string     `toml:"kind"`
	Color     [3]float32 `toml:"color"`
	Intensity float32    `toml:"intensity"`
	Position  [3]float32 `toml:"position"`
	Rotation  [3]float32 `toml:"rotation"`
}

// Model references either a glTF asset (Path) or a builtin primitive
// (Primitive: "cube", "plane", "sphere").
type Model struct {
	Name      string     `toml:"name"`
	Path      string     `toml:"path"`
	Primitive string     `toml:"primitive"`
	Size      float32    `toml:"size"`
	Position  [3]float32 `toml:"position"`
	Scale     [3]float32 `toml:"scale"`
	Texture   string     `toml:"texture"`
}

type Config struct {
	Window Window `toml:"window"`
	Camera Camera `toml:"camera"`
	// SceneScale is the root node scale; its length acts as the scene's
	// bounding radius for shadow camera derivation.
	SceneScale [3]float32 `toml:"scene_scale"`
	Lights     []Light    `toml:"lights"`
	Models     []Model    `toml:"models"`
}

// Default is the configuration used when no file is given: a lit plane and
// cube under one directional and one point light.
func Default() Config {
	return Config{
		Window:     Window{Width: 1280, Height: 720, Title: "Scene Viewer", VSync: true},
		Camera:     Camera{Distance: 8, Fovy: 0.9},
		SceneScale: [3]float32{5, 5, 5},
		Lights: []Light{
			{Kind: "ambient", Color: [3]float32{1, 1, 1}, Intensity: 0.15},
			{Kind: "directional", Color: [3]float32{1, 0.96, 0.9}, Intensity: 0.9, Rotation: [3]float32{0.6, 0, 0.3}},
			{Kind: "point", Color: [3]float32{0.9, 0.9, 1}, Intensity: 1.5, Position: [3]float32{2, 3, 2}},
		},
		Models: []Model{
			{Name: "ground", Primitive: "plane", Size: 12},
			{Name: "cube", Primitive: "cube", Size: 1.5, Position: [3]float32{0, 0.75, 0}},
		},
	}
}

// Load reads a TOML config file. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	// Seed scalar defaults; the list sections start empty so a file's lights
	// and models replace rather than extend the defaults.
	cfg := Default()
	cfg.Lights = nil
	cfg.Models = nil
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Lights) == 0 {
		cfg.Lights = Default().Lights
	}
	if len(cfg.Models) == 0 {
		cfg.Models = Default().Models
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if len(c.Lights) > scene.MaxLights {
		return fmt.Errorf("too many lights: %d (max %d)", len(c.Lights), scene.MaxLights)
	}
	for i, l := range c.Lights {
		if _, err := ParseLightKind(l.Kind); err != nil {
			return fmt.Errorf("light %d: %w", i, err)
		}
	}
	for i, m := range c.Models {
		if m.Path == "" && m.Primitive == "" {
			return fmt.Errorf("model %d (%s): needs a path or a primitive", i, m.Name)
		}
	}
	return nil
}

// ParseLightKind maps a config kind string to its scene light kind.
func ParseLightKind(s string) (scene.LightKind, error) {
	switch strings.ToLower(s) {
	case "ambient":
		return scene.LightAmbient, nil
	case "directional":
		return scene.LightDirectional, nil
	case "point":
		return scene.LightPoint, nil
	}
	return 0, fmt.Errorf("unknown light kind %q", s)
}

// WindowConfig converts the window section to the core window options.
func (c Config) WindowConfig() core.WindowConfig {
	return core.WindowConfig{
		Width:     c.Window.Width,
		Height:    c.Window.Height,
		Title:     c.Window.Title,
		Resizable: true,
		VSync:     c.Window.VSync,
	}
}
