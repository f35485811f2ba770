package camera

import (
	gomath "math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/silhouette"
	"github.com/Faultbox/softmesh/pkg/math"
)

func TestViewDirection_MatchesYawView(t *testing.T) {
	c := NewTurntableCamera()
	for _, yaw := range []float32{0, 0.5, 1.7, -2.9} {
		c.Yaw = yaw
		got := c.ViewDirection()
		want := silhouette.YawView(float64(yaw))
		if r3.Norm(r3.Sub(got, want)) > 1e-6 {
			t.Errorf("yaw %v: expected %v, got %v", yaw, want, got)
		}
	}
}

func TestViewDirection_PointsAtEye(t *testing.T) {
	c := NewTurntableCamera()
	c.Yaw = 0.8
	c.Pitch = -0.4

	// The model-space view direction must land on +Z once the model
	// transform is applied.
	d := math.ToVec3(c.ViewDirection())
	got := c.ModelMatrix().MulVec4(math.Vec4{d.X, d.Y, d.Z, 0})
	want := math.Vec4{0, 0, c.Scale, 0}
	for i := range 3 {
		if gomath.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestHandleZoom_Clamps(t *testing.T) {
	c := NewTurntableCamera()
	for range 200 {
		c.HandleZoom(5)
	}
	if c.Scale != c.MaxScale {
		t.Errorf("expected scale clamped to %v, got %v", c.MaxScale, c.Scale)
	}
	for range 200 {
		c.HandleZoom(-5)
	}
	if c.Scale != c.MinScale {
		t.Errorf("expected scale clamped to %v, got %v", c.MinScale, c.Scale)
	}
}

func TestHandleDrag(t *testing.T) {
	c := NewTurntableCamera()
	c.HandleDrag(10, 1000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MaxPitch, c.Pitch)
	}
	if gomath.Abs(float64(c.Yaw-0.1)) > 1e-6 {
		t.Errorf("expected yaw 0.1, got %v", c.Yaw)
	}

	c.Reset()
	c.HandleTurn(1, 10)
	if c.Yaw < -gomath.Pi || c.Yaw > gomath.Pi {
		t.Errorf("expected yaw wrapped into [-pi, pi], got %v", c.Yaw)
	}
}

func TestMVP_KeepsUnitMeshInsideClipVolume(t *testing.T) {
	c := NewTurntableCamera()
	c.Yaw = 0.7
	mvp := c.MVP(4.0 / 3.0)
	for _, p := range []math.Vec3{{X: 1, Y: 1, Z: 1}, {X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: -1}} {
		q := mvp.TransformPoint(p)
		if q.Z <= -1 || q.Z >= 1 {
			t.Errorf("corner %v clipped by depth range: %v", p, q)
		}
	}
}
