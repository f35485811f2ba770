package softbody

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// ContactMode is what a projectile does after touching the mesh.
type ContactMode int

const (
	// ContactStop halts the projectile on its first contact.
	ContactStop ContactMode = iota
	// ContactBounce reverses the projectile at half speed.
	ContactBounce
	// ContactDamp halves the projectile speed on every contact and lets it
	// continue through the mesh.
	ContactDamp
)

// minSpeed is the speed below which a damped projectile comes to rest.
const minSpeed = 1e-3

func (m ContactMode) String() string {
	switch m {
	case ContactStop:
		return "stop"
	case ContactBounce:
		return "bounce"
	case ContactDamp:
		return "damp"
	default:
		return fmt.Sprintf("ContactMode(%d)", int(m))
	}
}

// ParseContactMode converts a config string to a ContactMode.
func ParseContactMode(s string) (ContactMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop":
		return ContactStop, nil
	case "bounce":
		return ContactBounce, nil
	case "damp":
		return ContactDamp, nil
	default:
		return 0, fmt.Errorf("unknown contact mode %q", s)
	}
}

// Projectile is a spherical probe fired at the mesh.
type Projectile struct {
	Position r3.Vec
	Velocity r3.Vec
	Radius   float64
	Mode     ContactMode
	// Range is the distance from the launch point after which the
	// projectile is retired. Zero means unlimited.
	Range float64

	origin r3.Vec
	active bool
}

// Launch fires a projectile from origin along dir at the given speed.
func Launch(origin, dir r3.Vec, speed, radius float64, mode ContactMode) *Projectile {
	return &Projectile{
		Position: origin,
		Velocity: r3.Scale(speed, math.UnitOrZero(dir)),
		Radius:   radius,
		Mode:     mode,
		origin:   origin,
		active:   true,
	}
}

// Active reports whether the projectile is still in flight.
func (p *Projectile) Active() bool { return p != nil && p.active }

// Advance moves the projectile by one time step.
func (p *Projectile) Advance(dt float64) {
	if !p.Active() {
		return
	}
	p.Position = r3.Add(p.Position, r3.Scale(dt, p.Velocity))
	if p.Range > 0 && math.Distance(p.origin, p.Position) > p.Range {
		p.active = false
	}
}

// Probe returns the projectile as an engine probe, or nil once it is retired.
func (p *Projectile) Probe() *Probe {
	if !p.Active() {
		return nil
	}
	return &Probe{
		Region:   Sphere{Origin: p.Position, Radius: p.Radius},
		Velocity: p.Velocity,
	}
}

// Resolve applies the contact result of the last tick.
func (p *Projectile) Resolve(contact bool) {
	if !contact || !p.Active() {
		return
	}
	switch p.Mode {
	case ContactBounce:
		p.Velocity = r3.Scale(-0.5, p.Velocity)
	case ContactDamp:
		p.Velocity = r3.Scale(0.5, p.Velocity)
	default:
		p.Velocity = r3.Vec{}
	}
	if math.Length(p.Velocity) < minSpeed {
		p.Velocity = r3.Vec{}
		p.active = false
	}
}
