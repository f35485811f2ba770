// Package config handles simulator configuration loading and management.
package config

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/softbody"
)

// Config holds all simulator settings.
type Config struct {
	Mesh       MeshConfig       `yaml:"mesh"`
	Simulation SimulationConfig `yaml:"simulation"`
	Probe      ProbeConfig      `yaml:"probe"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MeshConfig holds mesh loading settings.
type MeshConfig struct {
	Path          string  `yaml:"path"`           // .ply, .stl or primitive:<name>
	Normalize     bool    `yaml:"normalize"`      // Recentre and scale into [-1, 1]
	Adjacency     string  `yaml:"adjacency"`      // indexed | pairwise
	WeldTolerance float32 `yaml:"weld_tolerance"` // STL corner merge distance
}

// SimulationConfig holds deformation engine parameters.
type SimulationConfig struct {
	EdgeStiffness   float64      `yaml:"edge_stiffness"`
	VolumeStiffness float64      `yaml:"volume_stiffness"`
	Mass            float64      `yaml:"mass"`
	TimeStep        float64      `yaml:"time_step"`
	Gravity         [3]float64   `yaml:"gravity"`
	TicksPerFrame   int          `yaml:"ticks_per_frame"`
	Floor           FloorConfig  `yaml:"floor"`
	Impact          ImpactConfig `yaml:"impact"`
}

// FloorConfig holds ground plane settings.
type FloorConfig struct {
	Enabled bool    `yaml:"enabled"`
	Height  float64 `yaml:"height"`
	Force   float64 `yaml:"force"`
}

// ImpactConfig holds probe response settings.
type ImpactConfig struct {
	Depth     int     `yaml:"depth"`
	Gain      float64 `yaml:"gain"`
	Tolerance float64 `yaml:"tolerance"`
}

// ProbeConfig holds projectile settings.
type ProbeConfig struct {
	Radius        float64 `yaml:"radius"`
	Speed         float64 `yaml:"speed"`
	StartDistance float64 `yaml:"start_distance"` // Launch distance from the view centre
	Range         float64 `yaml:"range"`          // Retire after travelling this far, 0 = never
	Contact       string  `yaml:"contact"`        // stop | bounce | damp
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	Filled     bool    `yaml:"filled"`
	Wireframe  bool    `yaml:"wireframe"`
	Silhouette bool    `yaml:"silhouette"`
	Scale      float64 `yaml:"scale"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := softbody.DefaultParams()
	return &Config{
		Mesh: MeshConfig{
			Path:      "primitive:sphere",
			Normalize: true,
			Adjacency: "indexed",
		},
		Simulation: SimulationConfig{
			EdgeStiffness:   p.EdgeStiffness,
			VolumeStiffness: p.VolumeStiffness,
			Mass:            p.Mass,
			TimeStep:        p.TimeStep,
			Gravity:         [3]float64{p.Gravity.X, p.Gravity.Y, p.Gravity.Z},
			TicksPerFrame:   1,
			Floor: FloorConfig{
				Enabled: p.Floor.Enabled,
				Height:  p.Floor.Height,
				Force:   p.Floor.Force,
			},
			Impact: ImpactConfig{
				Depth:     p.Impact.Depth,
				Gain:      p.Impact.Gain,
				Tolerance: p.Impact.Tolerance,
			},
		},
		Probe: ProbeConfig{
			Radius:        0.05,
			Speed:         0.5,
			StartDistance: 1.5,
			Range:         4,
			Contact:       "stop",
		},
		Graphics: GraphicsConfig{
			Width:      1024,
			Height:     768,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			Filled:     true,
			Wireframe:  false,
			Silhouette: true,
			Scale:      0.6,

			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Params converts the simulation section to engine parameters.
func (s SimulationConfig) Params() softbody.Params {
	return softbody.Params{
		EdgeStiffness:   s.EdgeStiffness,
		VolumeStiffness: s.VolumeStiffness,
		Mass:            s.Mass,
		TimeStep:        s.TimeStep,
		Gravity:         r3.Vec{X: s.Gravity[0], Y: s.Gravity[1], Z: s.Gravity[2]},
		Floor: softbody.Floor{
			Enabled: s.Floor.Enabled,
			Height:  s.Floor.Height,
			Force:   s.Floor.Force,
		},
		Impact: softbody.Impact{
			Depth:     s.Impact.Depth,
			Gain:      s.Impact.Gain,
			Tolerance: s.Impact.Tolerance,
		},
	}
}

// BuildOptions converts the mesh section to build options.
func (m MeshConfig) BuildOptions() (mesh.BuildOptions, error) {
	strategy, err := mesh.ParseStrategy(m.Adjacency)
	if err != nil {
		return mesh.BuildOptions{}, err
	}
	return mesh.BuildOptions{Strategy: strategy, Normalize: m.Normalize}, nil
}

// LoadOptions converts the mesh section to load options.
func (m MeshConfig) LoadOptions() mesh.LoadOptions {
	return mesh.LoadOptions{WeldTolerance: m.WeldTolerance}
}

// ContactMode parses the probe contact mode.
func (p ProbeConfig) ContactMode() (softbody.ContactMode, error) {
	return softbody.ParseContactMode(p.Contact)
}

// Validate checks every section that has a closed set of values.
func (c *Config) Validate() error {
	if _, err := c.Mesh.BuildOptions(); err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	if err := c.Simulation.Params().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if c.Simulation.TicksPerFrame < 1 {
		return fmt.Errorf("simulation: ticks_per_frame must be at least 1, got %d", c.Simulation.TicksPerFrame)
	}
	if _, err := c.Probe.ContactMode(); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if c.Probe.Radius < 0 || c.Probe.Speed <= 0 {
		return fmt.Errorf("probe: radius must not be negative and speed must be positive")
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}
