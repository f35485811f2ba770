// Package viewer implements the interactive window: it drives a world one
// frame at a time, draws it and maps keys and mouse to viewer actions.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/softmesh/internal/config"
	"github.com/Faultbox/softmesh/internal/engine/camera"
	"github.com/Faultbox/softmesh/internal/engine/input"
	"github.com/Faultbox/softmesh/internal/engine/picking"
	"github.com/Faultbox/softmesh/internal/engine/renderer"
	"github.com/Faultbox/softmesh/internal/engine/screenshot"
	"github.com/Faultbox/softmesh/internal/engine/window"
	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/internal/world"
	"github.com/Faultbox/softmesh/pkg/math"
)

const title = "softmesh"

// Viewer is the main window instance.
type Viewer struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.TurntableCamera
	world    *world.World
	style    renderer.Style
	shots    *screenshot.Capture
	capture  bool

	dragging bool
	lastX    int
	lastY    int

	// opened receives paths picked in the file dialog, which runs off the
	// main thread.
	opened chan string

	log *zap.Logger
}

// New loads the configured mesh and opens the window.
func New(cfg *config.Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.String("mesh", cfg.Mesh.Path),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	// Load before opening a window so a bad file fails fast.
	w, err := world.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load mesh: %w", err)
	}
	w.Mesh.UpdateNormals()

	v := &Viewer{
		config: cfg,
		world:  w,
		camera: camera.NewTurntableCamera(),
		input:  input.New(),
		opened: make(chan string, 1),
		shots:  screenshot.New(cfg.Graphics.ScreenshotDir, title),
		style: renderer.Style{
			Filled:     cfg.Graphics.Filled,
			Wireframe:  cfg.Graphics.Wireframe,
			Silhouette: cfg.Graphics.Silhouette,
		},
		log: log,
	}
	v.camera.Scale = float32(cfg.Graphics.Scale)

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:  width,
		Height: height,
		VSync:  cfg.Graphics.VSync,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	log.Info("viewer initialized successfully")
	return v, nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if v.config.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.config.Graphics.FPSLimit)
	}

	v.log.Info("starting viewer loop")

	for v.running {
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.handleHeldKeys(float32(dt))
		select {
		case path := <-v.opened:
			v.load(path)
		default:
		}

		// 2. Advance the simulation
		v.world.Update()

		// 3. Render
		v.render()

		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.updateTitle(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if spare := frameBudget - time.Since(frameStart); spare > 0 {
				time.Sleep(spare)
			}
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			// Event sizes are in screen coordinates; the viewport wants pixels.
			v.renderer.Resize(v.window.DrawableSize())

		case input.EventKeyDown:
			if !event.Repeat {
				v.handleKey(event.Key)
			}

		case input.EventMouseDown:
			switch event.Button {
			case sdl.BUTTON_LEFT:
				v.fireAt(event.MouseX, event.MouseY)
			case sdl.BUTTON_RIGHT:
				v.dragging = true
				v.lastX, v.lastY = event.MouseX, event.MouseY
			}

		case input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT {
				v.dragging = false
			}

		case input.EventMouseMove:
			if v.dragging {
				v.camera.HandleDrag(float32(event.MouseX-v.lastX), float32(event.MouseY-v.lastY))
				v.lastX, v.lastY = event.MouseX, event.MouseY
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.Wheel))

		case input.EventDropFile:
			v.load(event.Path)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		v.running = false
	case sdl.SCANCODE_W:
		v.style.Wireframe = !v.style.Wireframe
	case sdl.SCANCODE_F:
		v.style.Filled = !v.style.Filled
	case sdl.SCANCODE_S:
		v.style.Silhouette = !v.style.Silhouette
	case sdl.SCANCODE_A:
		v.style.Axes = !v.style.Axes
	case sdl.SCANCODE_P:
		v.world.Paused = !v.world.Paused
		v.log.Info("simulation paused", zap.Bool("paused", v.world.Paused))
	case sdl.SCANCODE_N:
		v.world.Step()
	case sdl.SCANCODE_SPACE:
		v.world.Fire(v.camera.ViewDirection())
	case sdl.SCANCODE_R:
		v.load(v.world.Path())
	case sdl.SCANCODE_O:
		v.openFileDialog()
	case sdl.SCANCODE_F12, sdl.SCANCODE_C:
		v.capture = true
	case sdl.SCANCODE_HOME:
		v.camera.Reset()
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		v.camera.HandleZoom(1)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		v.camera.HandleZoom(-1)
	}
}

func (v *Viewer) handleHeldKeys(dt float32) {
	switch {
	case v.input.IsKeyHeld(sdl.SCANCODE_LEFT):
		v.camera.HandleTurn(-1, dt)
	case v.input.IsKeyHeld(sdl.SCANCODE_RIGHT):
		v.camera.HandleTurn(1, dt)
	}
}

// fireAt launches a projectile along the ray under the cursor.
func (v *Viewer) fireAt(x, y int) {
	w, h := v.window.GetSize()
	inv := v.camera.MVP(v.renderer.Aspect()).Inverse()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), inv)
	v.world.FireAlong(math.FromVec3(ray.Origin), math.FromVec3(ray.Direction))
}

// openFileDialog shows a native file dialog. SDL and GL calls must stay on
// the main thread, so the chosen path is handed back through v.opened.
func (v *Viewer) openFileDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Meshes", "ply", "stl").
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case v.opened <- path:
		default:
			v.log.Debug("dropping file selection, load already pending", zap.String("path", path))
		}
	}()
}

func (v *Viewer) saveScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.Save(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", name))
}

func (v *Viewer) load(path string) {
	if err := v.world.Load(path); err != nil {
		v.log.Error("failed to load mesh", zap.String("path", path), zap.Error(err))
		return
	}
	v.world.Mesh.UpdateNormals()
}

func (v *Viewer) render() {
	v.renderer.Begin()

	t := renderer.Transform{
		Model: v.camera.ModelMatrix(),
		MVP:   v.camera.MVP(v.renderer.Aspect()),
	}
	v.renderer.DrawMesh(t, v.world.Mesh, v.style, v.world.Outline(v.camera.ViewDirection()))
	if p := v.world.Projectile; p.Active() {
		v.renderer.DrawProbe(t, p.Position, p.Radius)
	}

	v.renderer.End()
}

func (v *Viewer) updateTitle(fps int) {
	s := v.world.Stats()
	state := ""
	if v.world.Paused {
		state = " [paused]"
	}
	v.window.SetTitle(fmt.Sprintf("%s - %s - %d fps - energy %.4g%s",
		title, s.Path, fps, s.Energy.Total(), state))
	v.log.Debug("fps", zap.Int("count", fps), zap.Uint64("ticks", s.Ticks))
}
