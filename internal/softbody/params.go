// Package softbody implements the mass-spring-damper deformation engine.
//
// Every edge of a mesh is a Hookean spring with critical damping, every
// vertex is tied to the mesh centroid by a volume spring, and a flat floor
// pushes back vertices that sink below it. Probes displace the nearest
// vertex and propagate a halving impulse through the neighbour graph.
package softbody

import (
	"errors"
	"fmt"
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Floor is the ground plane collision.
type Floor struct {
	Enabled bool
	// Height is the y coordinate below which vertices are pushed up.
	Height float64
	// Force is the upward force applied to each vertex below Height.
	Force float64
}

// Impact controls probe response.
type Impact struct {
	// Depth is the number of graph hops an impulse travels from the hit vertex.
	Depth int
	// Gain converts probe velocity into displacement.
	Gain float64
	// Tolerance is the largest probe-to-vertex distance that counts as contact.
	Tolerance float64
}

// Params configures an Engine. All quantities are per vertex.
type Params struct {
	EdgeStiffness   float64
	VolumeStiffness float64
	Mass            float64
	TimeStep        float64
	// Gravity is a uniform acceleration applied to every vertex and the centroid.
	Gravity r3.Vec
	Floor   Floor
	Impact  Impact
}

// DefaultParams returns parameters suited to a mesh normalised into [-1, 1].
func DefaultParams() Params {
	return Params{
		EdgeStiffness:   10,
		VolumeStiffness: 1,
		Mass:            1,
		TimeStep:        0.01,
		Gravity:         r3.Vec{Y: -1},
		Floor: Floor{
			Enabled: true,
			Height:  -1,
			Force:   3,
		},
		Impact: Impact{
			Depth:     3,
			Gain:      0.2,
			Tolerance: 0.1,
		},
	}
}

// Validate reports the first parameter that cannot drive a simulation.
// Negative stiffness is accepted; its damping coefficient evaluates to zero.
func (p Params) Validate() error {
	finite := func(name string, v float64) error {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParams, name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"edge stiffness", p.EdgeStiffness},
		{"volume stiffness", p.VolumeStiffness},
		{"floor height", p.Floor.Height},
		{"floor force", p.Floor.Force},
		{"impact gain", p.Impact.Gain},
	} {
		if err := finite(f.name, f.v); err != nil {
			return err
		}
	}
	if !math.IsFinite(p.Gravity) {
		return fmt.Errorf("%w: gravity is %v", ErrInvalidParams, p.Gravity)
	}
	if !(p.Mass > 0) || gomath.IsInf(p.Mass, 0) {
		return fmt.Errorf("%w: mass must be positive, got %v", ErrInvalidParams, p.Mass)
	}
	if !(p.TimeStep > 0) || gomath.IsInf(p.TimeStep, 0) {
		return fmt.Errorf("%w: time step must be positive, got %v", ErrInvalidParams, p.TimeStep)
	}
	if p.Impact.Depth < 0 {
		return fmt.Errorf("%w: impact depth must not be negative, got %d", ErrInvalidParams, p.Impact.Depth)
	}
	if !(p.Impact.Tolerance >= 0) {
		return fmt.Errorf("%w: impact tolerance must not be negative, got %v", ErrInvalidParams, p.Impact.Tolerance)
	}
	return nil
}

// damping returns the critical damping coefficient for stiffness k,
// or zero when the expression is not a number.
func damping(mass, k float64) float64 {
	return math.ZeroIfNaN(gomath.Sqrt(4 * mass * k))
}
