package config

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/softbody"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test mesh defaults
	if cfg.Mesh.Path != "primitive:sphere" {
		t.Errorf("expected mesh primitive:sphere, got %s", cfg.Mesh.Path)
	}
	if !cfg.Mesh.Normalize {
		t.Error("expected normalize to be true by default")
	}

	// Test simulation defaults match the engine defaults
	if cfg.Simulation.Params() != softbody.DefaultParams() {
		t.Errorf("expected engine defaults, got %+v", cfg.Simulation.Params())
	}
	if cfg.Simulation.TicksPerFrame != 1 {
		t.Errorf("expected 1 tick per frame, got %d", cfg.Simulation.TicksPerFrame)
	}

	// Test probe defaults
	if cfg.Probe.Radius != 0.05 {
		t.Errorf("expected probe radius 0.05, got %f", cfg.Probe.Radius)
	}
	if cfg.Probe.Contact != "stop" {
		t.Errorf("expected contact mode 'stop', got %s", cfg.Probe.Contact)
	}

	// Test graphics defaults
	if cfg.Graphics.Width != 1024 {
		t.Errorf("expected width 1024, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.Filled || cfg.Graphics.Wireframe || !cfg.Graphics.Silhouette {
		t.Errorf("unexpected render toggles %+v", cfg.Graphics)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
mesh:
  path: "models/bunny.ply"
  normalize: false
  adjacency: pairwise

simulation:
  edge_stiffness: 25
  gravity: [0, -9.8, 0]
  floor:
    enabled: false
  impact:
    depth: 5

probe:
  contact: bounce

graphics:
  width: 1920
  height: 1080
  wireframe: true

logging:
  level: "debug"
  log_file: "softmesh.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Mesh.Path != "models/bunny.ply" {
		t.Errorf("expected mesh path models/bunny.ply, got %s", cfg.Mesh.Path)
	}
	opts, err := cfg.Mesh.BuildOptions()
	if err != nil {
		t.Fatalf("BuildOptions failed: %v", err)
	}
	if opts.Strategy != mesh.StrategyPairwise || opts.Normalize {
		t.Errorf("unexpected build options %+v", opts)
	}

	p := cfg.Simulation.Params()
	if p.EdgeStiffness != 25 {
		t.Errorf("expected edge stiffness 25, got %f", p.EdgeStiffness)
	}
	if p.Gravity != (r3.Vec{Y: -9.8}) {
		t.Errorf("expected gravity (0,-9.8,0), got %v", p.Gravity)
	}
	if p.Floor.Enabled {
		t.Error("expected floor to be disabled")
	}
	if p.Impact.Depth != 5 {
		t.Errorf("expected impact depth 5, got %d", p.Impact.Depth)
	}

	// Unset keys keep their defaults
	if p.VolumeStiffness != softbody.DefaultParams().VolumeStiffness {
		t.Errorf("expected default volume stiffness, got %f", p.VolumeStiffness)
	}
	if p.Floor.Height != -1 {
		t.Errorf("expected default floor height -1, got %f", p.Floor.Height)
	}

	mode, err := cfg.Probe.ContactMode()
	if err != nil || mode != softbody.ContactBounce {
		t.Errorf("expected bounce contact mode, got %v (%v)", mode, err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Wireframe {
		t.Error("expected wireframe to be true")
	}
	if cfg.Logging.LogFile != "softmesh.log" {
		t.Errorf("expected log file 'softmesh.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  stiffnes: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for misspelled key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("expected empty file to keep defaults, got %v", err)
	}
	if cfg.Graphics.Width != 1024 {
		t.Errorf("expected default width, got %d", cfg.Graphics.Width)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"adjacency", func(c *Config) { c.Mesh.Adjacency = "octree" }},
		{"mass", func(c *Config) { c.Simulation.Mass = 0 }},
		{"ticks", func(c *Config) { c.Simulation.TicksPerFrame = 0 }},
		{"contact", func(c *Config) { c.Probe.Contact = "explode" }},
		{"probe speed", func(c *Config) { c.Probe.Speed = 0 }},
		{"size", func(c *Config) { c.Graphics.Height = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Point the user config dir somewhere empty
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create config.yaml in current directory
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "mesh flag",
			setup: func() {
				*flagMesh = "primitive:cube"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mesh.Path != "primitive:cube" {
					t.Errorf("expected mesh primitive:cube, got %s", cfg.Mesh.Path)
				}
			},
			teardown: func() {
				*flagMesh = ""
			},
		},
		{
			name: "adjacency flag",
			setup: func() {
				*flagAdjacency = "pairwise"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mesh.Adjacency != "pairwise" {
					t.Errorf("expected adjacency pairwise, got %s", cfg.Mesh.Adjacency)
				}
			},
			teardown: func() {
				*flagAdjacency = ""
			},
		},
		{
			name: "windowed flag",
			setup: func() {
				*flagWindowed = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() {
				*flagWindowed = false
			},
		},
		{
			name: "fullscreen flag",
			setup: func() {
				*flagFullscreen = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() {
				*flagFullscreen = false
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Graphics.Width)
				}
				if cfg.Graphics.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("probe:\n  contact: explode\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Simulation.EdgeStiffness = 42
	cfg.Mesh.Path = "primitive:cube"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("saved config differs:\nexpected %+v\ngot      %+v", cfg, loaded)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile with no path failed: %v", err)
	}
	if *cfg != *Default() {
		t.Error("expected defaults for an empty path")
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  ticks_per_frame: 4\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err = LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Simulation.TicksPerFrame != 4 {
		t.Errorf("expected ticks_per_frame 4, got %d", cfg.Simulation.TicksPerFrame)
	}

	if err := os.WriteFile(configPath, []byte("simulation:\n  ticks_per_frame: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("expected validation error, got nil")
	}
}
