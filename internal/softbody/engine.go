package softbody

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/pkg/math"
)

// Engine advances a mesh through time. It is the only writer of the mesh
// State and is not safe for concurrent use.
type Engine struct {
	mesh   *mesh.Mesh
	params Params
	log    *zap.Logger

	// Impact scratch, sized to the mesh on first use after a reload.
	visited []bool
	queue   []hop
	points  vertexPoints
}

// hop is a breadth-first queue entry.
type hop struct {
	vertex int
	depth  int
}

// New creates an engine driving m.
func New(m *mesh.Mesh, p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		mesh:   m,
		params: p,
		log:    logger.Named("softbody"),
	}, nil
}

// Mesh returns the mesh being simulated.
func (e *Engine) Mesh() *mesh.Mesh { return e.mesh }

// Params returns the current parameters.
func (e *Engine) Params() Params { return e.params }

// SetParams replaces the parameters. Invalid parameters are rejected and the
// previous ones kept.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// Tick runs one frame: the probe's impact, if any, followed by one
// relaxation step. It reports whether the probe touched the mesh.
func (e *Engine) Tick(probe *Probe) bool {
	contact := false
	if probe != nil {
		if v, dist, ok := e.Nearest(probe.Region); ok {
			impulse := r3.Scale(e.params.Impact.Gain, probe.Velocity)
			// v comes from the mesh itself, so it is always in range.
			_ = e.ImpactAt(v, impulse)
			contact = true
			e.log.Debug("probe contact",
				zap.Int("vertex", v),
				zap.Float64("distance", dist),
				zap.Float64("impulse", math.Length(impulse)),
			)
		}
	}
	e.Step()
	return contact
}

// Step runs one relaxation step: force accumulation then integration.
func (e *Engine) Step() {
	e.AccumulateForces()
	e.Integrate()
}

// AccumulateForces adds edge springs, volume springs and floor response to
// the force accumulators. Every internal force is applied with an equal and
// opposite reaction, so with no floor contact the forces on the vertices and
// the centroid sum to zero.
func (e *Engine) AccumulateForces() {
	m := e.mesh
	p := e.params
	pos, vel, force := m.Positions, m.Velocities, m.Forces

	ce := damping(p.Mass, p.EdgeStiffness)
	for _, edge := range m.Edges {
		a, b := edge.Vertices[0], edge.Vertices[1]
		d := r3.Sub(pos[b], pos[a])
		length := math.Length(d)
		if length == 0 {
			continue
		}
		u := r3.Scale(1/length, d)

		stretch := p.EdgeStiffness * (length - edge.RestLength)
		damp := ce * r3.Dot(r3.Sub(vel[b], vel[a]), u)
		f := r3.Scale(stretch+damp, u)

		force[a] = r3.Add(force[a], f)
		force[b] = r3.Sub(force[b], f)
	}

	cv := damping(p.Mass, p.VolumeStiffness)
	c := &m.Centroid
	for v := range pos {
		d := r3.Sub(c.Position, pos[v])
		dist := math.Length(d)
		if dist > 0 {
			w := r3.Scale(1/dist, d)
			stretch := p.VolumeStiffness * (dist - m.CenterRest[v])
			damp := cv * r3.Dot(r3.Sub(c.Velocity, vel[v]), w)
			f := r3.Scale(stretch+damp, w)

			force[v] = r3.Add(force[v], f)
			c.Force = r3.Sub(c.Force, f)
		}

		if p.Floor.Enabled && pos[v].Y < p.Floor.Height {
			force[v].Y += p.Floor.Force
		}
	}
}

// Integrate advances positions and velocities by one time step with
// semi-implicit Euler and clears the force accumulators.
func (e *Engine) Integrate() {
	m := e.mesh
	p := e.params
	for v := range m.Positions {
		integrate(&m.Positions[v], &m.Velocities[v], &m.Forces[v], p.Mass, p.Gravity, p.TimeStep)
	}
	c := &m.Centroid
	integrate(&c.Position, &c.Velocity, &c.Force, p.Mass*float64(len(m.Positions)), p.Gravity, p.TimeStep)
}

func integrate(pos, vel, force *r3.Vec, mass float64, gravity r3.Vec, dt float64) {
	a := r3.Add(r3.Scale(1/mass, *force), gravity)
	disp := r3.Add(r3.Scale(dt, *vel), r3.Scale(0.5*dt*dt, a))
	*vel = r3.Add(*vel, r3.Scale(dt, a))
	*pos = r3.Add(*pos, disp)
	*force = r3.Vec{}
}

// ensureScratch sizes the impact buffers to the current vertex count.
func (e *Engine) ensureScratch() {
	n := e.mesh.VertexCount()
	if len(e.visited) != n {
		e.visited = make([]bool, n)
		e.queue = make([]hop, 0, n)
	}
}
