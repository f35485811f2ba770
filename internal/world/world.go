// Package world holds the simulated scene: the mesh, the engine deforming
// it and the projectile in flight. It has no rendering dependencies and is
// driven one frame at a time by the viewer or the command line tools.
package world

import (
	"fmt"
	"iter"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/config"
	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/silhouette"
	"github.com/Faultbox/softmesh/internal/softbody"
	"github.com/Faultbox/softmesh/pkg/math"
)

// World is one loaded mesh and its simulation. It is not safe for
// concurrent use.
type World struct {
	Mesh       *mesh.Mesh
	Engine     *softbody.Engine
	Projectile *softbody.Projectile

	// Paused stops Update from ticking. Step still works.
	Paused bool

	path      string
	cfg       *config.Config
	extractor silhouette.Extractor
	ticks     uint64
	contacts  uint64
	log       *zap.Logger
}

// Stats summarises the world for display.
type Stats struct {
	Path     string
	Vertices int
	Faces    int
	Edges    int
	Closed   bool
	Ticks    uint64
	Contacts uint64
	Energy   softbody.Energy
}

// New loads the mesh named by cfg and creates its engine.
func New(cfg *config.Config) (*World, error) {
	w := &World{cfg: cfg, log: logger.Named("world")}

	m, err := w.build(cfg.Mesh.Path)
	if err != nil {
		return nil, err
	}
	e, err := softbody.New(m, cfg.Simulation.Params())
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	w.Mesh = m
	w.Engine = e
	w.path = cfg.Mesh.Path
	w.logLoaded()
	return w, nil
}

func (w *World) build(path string) (*mesh.Mesh, error) {
	src, err := mesh.LoadFile(path, w.cfg.Mesh.LoadOptions())
	if err != nil {
		return nil, err
	}
	opts, err := w.cfg.Mesh.BuildOptions()
	if err != nil {
		return nil, err
	}
	m, err := mesh.Build(src, opts)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	return m, nil
}

// Load replaces the mesh with the one at path. The engine keeps driving
// the same Mesh value. On error the current mesh is left untouched.
func (w *World) Load(path string) error {
	src, err := mesh.LoadFile(path, w.cfg.Mesh.LoadOptions())
	if err != nil {
		return err
	}
	opts, err := w.cfg.Mesh.BuildOptions()
	if err != nil {
		return err
	}
	if err := w.Mesh.Reload(src, opts); err != nil {
		return fmt.Errorf("building %s: %w", path, err)
	}
	w.path = path
	w.Projectile = nil
	w.ticks = 0
	w.contacts = 0
	w.logLoaded()
	return nil
}

// Reload reads the current mesh file again, discarding all deformation.
func (w *World) Reload() error {
	return w.Load(w.path)
}

// Path returns the path of the loaded mesh.
func (w *World) Path() string { return w.path }

func (w *World) logLoaded() {
	s := w.Stats()
	w.log.Info("mesh loaded",
		zap.String("path", s.Path),
		zap.Int("vertices", s.Vertices),
		zap.Int("faces", s.Faces),
		zap.Int("edges", s.Edges),
		zap.Bool("closed", s.Closed),
	)
}

// Fire launches a projectile toward the model origin from StartDistance
// along view, which points from the model toward the viewer.
func (w *World) Fire(view r3.Vec) {
	dir := math.UnitOrZero(view)
	if dir == (r3.Vec{}) {
		return
	}
	w.launch(r3.Scale(w.cfg.Probe.StartDistance, dir), r3.Scale(-1, dir))
}

// FireAlong launches a projectile along a ray, such as one cast from a
// mouse click. The projectile starts StartDistance before the point of the
// ray closest to the model origin.
func (w *World) FireAlong(origin, dir r3.Vec) {
	dir = math.UnitOrZero(dir)
	if dir == (r3.Vec{}) {
		return
	}
	closest := r3.Add(origin, r3.Scale(r3.Dot(r3.Scale(-1, origin), dir), dir))
	w.launch(r3.Sub(closest, r3.Scale(w.cfg.Probe.StartDistance, dir)), dir)
}

func (w *World) launch(from, dir r3.Vec) {
	// Validated with the config.
	mode, _ := w.cfg.Probe.ContactMode()
	p := softbody.Launch(from, dir, w.cfg.Probe.Speed, w.cfg.Probe.Radius, mode)
	p.Range = w.cfg.Probe.Range
	w.Projectile = p
	w.log.Debug("projectile launched",
		zap.Float64s("from", []float64{from.X, from.Y, from.Z}),
		zap.Stringer("mode", mode),
	)
}

// Update runs one frame of TicksPerFrame ticks unless paused and refreshes
// the face normals. It returns the number of ticks with probe contact.
func (w *World) Update() int {
	if w.Paused {
		return 0
	}
	contacts := 0
	for range max(1, w.cfg.Simulation.TicksPerFrame) {
		if w.tick() {
			contacts++
		}
	}
	w.Mesh.UpdateNormals()
	return contacts
}

// Step runs a single tick regardless of Paused and refreshes the normals.
func (w *World) Step() bool {
	contact := w.tick()
	w.Mesh.UpdateNormals()
	return contact
}

func (w *World) tick() bool {
	dt := w.Engine.Params().TimeStep
	w.Projectile.Advance(dt)
	contact := w.Engine.Tick(w.Projectile.Probe())
	w.Projectile.Resolve(contact)
	if w.Projectile != nil && !w.Projectile.Active() {
		w.Projectile = nil
	}
	w.ticks++
	if contact {
		w.contacts++
	}
	return contact
}

// Outline returns the silhouette seen along view. Normals are current
// after Update or Step.
func (w *World) Outline(view r3.Vec) iter.Seq[silhouette.Segment] {
	return w.extractor.Segments(w.Mesh, view)
}

// Stats returns counters and the current energy.
func (w *World) Stats() Stats {
	return Stats{
		Path:     w.path,
		Vertices: w.Mesh.VertexCount(),
		Faces:    w.Mesh.FaceCount(),
		Edges:    w.Mesh.EdgeCount(),
		Closed:   3*w.Mesh.FaceCount() == 2*w.Mesh.EdgeCount(),
		Ticks:    w.ticks,
		Contacts: w.contacts,
		Energy:   w.Engine.Energy(),
	}
}
