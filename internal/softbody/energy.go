package softbody

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// Energy is a snapshot of the mechanical energy held by the mesh.
// Gravity and floor work are not included.
type Energy struct {
	Kinetic float64
	Edge    float64
	Volume  float64
}

// Total returns the sum of all terms.
func (en Energy) Total() float64 { return en.Kinetic + en.Edge + en.Volume }

// Energy measures the current kinetic and spring potential energy.
func (e *Engine) Energy() Energy {
	m := e.mesh
	p := e.params
	var en Energy

	for _, v := range m.Velocities {
		en.Kinetic += 0.5 * p.Mass * r3.Norm2(v)
	}
	en.Kinetic += 0.5 * p.Mass * float64(len(m.Positions)) * r3.Norm2(m.Centroid.Velocity)

	for i, edge := range m.Edges {
		x := m.EdgeLength(i) - edge.RestLength
		en.Edge += 0.5 * p.EdgeStiffness * x * x
	}
	for v, pos := range m.Positions {
		x := math.Distance(m.Centroid.Position, pos) - m.CenterRest[v]
		en.Volume += 0.5 * p.VolumeStiffness * x * x
	}
	return en
}

// MaxDisplacement returns the largest distance of any vertex from ref,
// which must be parallel to the mesh positions.
func (e *Engine) MaxDisplacement(ref []r3.Vec) float64 {
	var d float64
	for i, p := range e.mesh.Positions {
		d = max(d, math.Distance(ref[i], p))
	}
	return d
}
