// Package camera provides the turntable camera used by the mesh viewer.
package camera

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/pkg/math"
)

// TurntableCamera looks down the -Z axis at a model that turns in front of
// it. Yaw spins the model about its vertical axis and Pitch tilts it toward
// the viewer. The projection is orthographic.
type TurntableCamera struct {
	Yaw   float32 // Radians about the model Y axis
	Pitch float32 // Radians about the view X axis
	Scale float32 // Uniform model scale

	// HalfHeight is half the visible height of the view volume.
	HalfHeight float32
	Distance   float32 // Eye distance from the model origin
	Near, Far  float32

	// Constraints
	MinScale float32
	MaxScale float32
	MaxPitch float32

	// Sensitivity
	TurnSpeed       float32 // Radians per second for held keys
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewTurntableCamera creates a camera with default settings.
func NewTurntableCamera() *TurntableCamera {
	return &TurntableCamera{
		Scale:           0.6,
		HalfHeight:      0.6,
		Distance:        2,
		Near:            0.01,
		Far:             15,
		MinScale:        0.05,
		MaxScale:        5,
		MaxPitch:        1.5,
		TurnSpeed:       1.5,
		DragSensitivity: 0.01,
		ZoomSensitivity: 0.1,
	}
}

// ModelMatrix places the model in view space orientation.
func (c *TurntableCamera) ModelMatrix() math.Mat4 {
	return math.RotateX(c.Pitch).
		Mul(math.RotateY(c.Yaw)).
		Mul(math.Scale(c.Scale, c.Scale, c.Scale))
}

// ViewMatrix moves the model in front of the eye.
func (c *TurntableCamera) ViewMatrix() math.Mat4 {
	return math.Translate(0, 0, -c.Distance)
}

// ProjectionMatrix returns the orthographic projection for the given
// width/height ratio.
func (c *TurntableCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	h := c.HalfHeight
	return math.Ortho(-aspect*h, aspect*h, -h, h, c.Near, c.Far)
}

// MVP returns projection * view * model.
func (c *TurntableCamera) MVP(aspect float32) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix()).Mul(c.ModelMatrix())
}

// ViewDirection returns the unit vector, in model coordinates, pointing
// from the model toward the eye. With zero pitch it is
// (sin(-yaw), 0, cos(-yaw)).
func (c *TurntableCamera) ViewDirection() r3.Vec {
	sy, cy := math32.Sincos(c.Yaw)
	sp, cp := math32.Sincos(c.Pitch)
	return r3.Vec{
		X: float64(-sy * cp),
		Y: float64(sp),
		Z: float64(cy * cp),
	}
}

// HandleTurn applies held-key rotation for a frame of dt seconds.
// dir is -1, 0 or 1.
func (c *TurntableCamera) HandleTurn(dir, dt float32) {
	c.Yaw += dir * c.TurnSpeed * dt
	c.wrapYaw()
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *TurntableCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw += deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = max(-c.MaxPitch, min(c.MaxPitch, c.Pitch))
	c.wrapYaw()
}

// HandleZoom scales the model by wheel ticks; positive zooms in.
func (c *TurntableCamera) HandleZoom(delta float32) {
	c.Scale *= 1 + delta*c.ZoomSensitivity
	c.Scale = max(c.MinScale, min(c.MaxScale, c.Scale))
}

// Reset returns the camera to its initial orientation, keeping scale.
func (c *TurntableCamera) Reset() {
	c.Yaw = 0
	c.Pitch = 0
}

func (c *TurntableCamera) wrapYaw() {
	c.Yaw = math32.Remainder(c.Yaw, 2*math32.Pi)
}
