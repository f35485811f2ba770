package math

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SafeSqrt returns the square root of n, treating negative input
// (floating point noise around zero) as zero.
func SafeSqrt(n float64) float64 {
	if n < 0 || gomath.IsNaN(n) {
		return 0
	}
	return gomath.Sqrt(n)
}

// Length returns the magnitude of v.
func Length(v r3.Vec) float64 {
	return SafeSqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return Length(r3.Sub(b, a))
}

// UnitOrZero returns v scaled to unit length, or the zero vector
// if v has no length.
func UnitOrZero(v r3.Vec) r3.Vec {
	l := Length(v)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, v)
}

// ZeroIfNaN returns 0 for NaN input.
func ZeroIfNaN(f float64) float64 {
	if gomath.IsNaN(f) {
		return 0
	}
	return f
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if gomath.IsNaN(c) || gomath.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToVec3 narrows a float64 vector to the float32 Vec3 used by the GPU path.
func ToVec3(v r3.Vec) Vec3 {
	return Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// FromVec3 widens a Vec3 to a float64 vector.
func FromVec3(v Vec3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
