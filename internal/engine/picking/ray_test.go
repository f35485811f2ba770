package picking

import (
	"testing"

	"github.com/Faultbox/softmesh/pkg/math"
)

func TestScreenToRay_Ortho(t *testing.T) {
	proj := math.Ortho(-2, 2, -1, 1, 0.1, 10)
	view := math.Translate(0, 0, -5)
	inv := proj.Mul(view).Inverse()

	tests := []struct {
		name   string
		x, y   float32
		wantXY [2]float32
	}{
		{"center", 400, 300, [2]float32{0, 0}},
		{"top left", 0, 0, [2]float32{-2, 1}},
		{"bottom right", 800, 600, [2]float32{2, -1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := ScreenToRay(tc.x, tc.y, 800, 600, inv)
			if r.Direction.Distance(math.Vec3{Z: -1}) > 1e-5 {
				t.Errorf("expected direction (0,0,-1), got %v", r.Direction)
			}
			if abs(r.Origin.X-tc.wantXY[0]) > 1e-4 || abs(r.Origin.Y-tc.wantXY[1]) > 1e-4 {
				t.Errorf("expected origin xy %v, got %v", tc.wantXY, r.Origin)
			}
			if abs(r.Origin.Z-4.9) > 1e-4 {
				t.Errorf("expected origin on the near plane z=4.9, got %v", r.Origin.Z)
			}
		})
	}
}

func TestRay_Closest(t *testing.T) {
	r := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}
	if d := r.Closest(math.Vec3{X: 3}); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
	if p := r.At(2); p != (math.Vec3{Z: 3}) {
		t.Errorf("expected (0,0,3), got %v", p)
	}
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3{X: -1, Y: -1, Z: -1})

	tests := []struct {
		name  string
		ray   Ray
		wantT float32
		hit   bool
	}{
		{"straight on", Ray{math.Vec3{Z: 5}, math.Vec3{Z: -1}}, 4, true},
		{"from inside", Ray{math.Vec3{}, math.Vec3{X: 1}}, 1, true},
		{"pointing away", Ray{math.Vec3{Z: 5}, math.Vec3{Z: 1}}, 0, false},
		{"parallel outside", Ray{math.Vec3{X: 2, Z: 5}, math.Vec3{Z: -1}}, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, hit := tc.ray.IntersectAABB(box)
			if hit != tc.hit || abs(got-tc.wantT) > 1e-6 {
				t.Errorf("expected (%v, %v), got (%v, %v)", tc.wantT, tc.hit, got, hit)
			}
		})
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
