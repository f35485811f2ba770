package mesh

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Built-in shapes. All are closed, counter-clockwise wound as seen from
// outside, and centred on the origin.

// Cube returns an axis-aligned cube with the given edge length. Vertex i sits
// at corner (x, y, z) where i = x + 2y + 4z.
func Cube(size float64) Source {
	h := size / 2
	positions := make([]r3.Vec, 8)
	for i := range positions {
		positions[i] = r3.Vec{
			X: sign(i&1 != 0) * h,
			Y: sign(i&2 != 0) * h,
			Z: sign(i&4 != 0) * h,
		}
	}
	return Source{
		Positions: positions,
		Faces: [][]int{
			{4, 5, 7}, {4, 7, 6}, // +z
			{0, 2, 3}, {0, 3, 1}, // -z
			{1, 3, 7}, {1, 7, 5}, // +x
			{0, 4, 6}, {0, 6, 2}, // -x
			{2, 6, 7}, {2, 7, 3}, // +y
			{0, 1, 5}, {0, 5, 4}, // -y
		},
	}
}

// Tetrahedron returns a regular tetrahedron inscribed in the cube [-size, size]³.
func Tetrahedron(size float64) Source {
	return Source{
		Positions: []r3.Vec{
			{X: size, Y: size, Z: size},
			{X: size, Y: -size, Z: -size},
			{X: -size, Y: size, Z: -size},
			{X: -size, Y: -size, Z: size},
		},
		Faces: [][]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}},
	}
}

// UVSphere returns a latitude/longitude sphere. rings is the number of
// latitude bands (at least 2), segments the number of longitude slices (at
// least 3).
func UVSphere(radius float64, rings, segments int) Source {
	rings = max(rings, 2)
	segments = max(segments, 3)

	positions := make([]r3.Vec, 0, 2+(rings-1)*segments)
	positions = append(positions, r3.Vec{Y: radius})
	for i := 1; i < rings; i++ {
		theta := gomath.Pi * float64(i) / float64(rings)
		st, ct := gomath.Sincos(theta)
		for j := range segments {
			phi := 2 * gomath.Pi * float64(j) / float64(segments)
			sp, cp := gomath.Sincos(phi)
			positions = append(positions, r3.Vec{X: radius * st * cp, Y: radius * ct, Z: radius * st * sp})
		}
	}
	bottom := len(positions)
	positions = append(positions, r3.Vec{Y: -radius})

	ring := func(i, j int) int { return 1 + (i-1)*segments + j%segments }

	faces := make([][]int, 0, 2*segments*(rings-1))
	for j := range segments {
		faces = append(faces, []int{0, ring(1, j+1), ring(1, j)})
	}
	for i := 1; i < rings-1; i++ {
		for j := range segments {
			a, b := ring(i, j), ring(i, j+1)
			c, d := ring(i+1, j), ring(i+1, j+1)
			faces = append(faces, []int{a, b, c}, []int{b, d, c})
		}
	}
	for j := range segments {
		faces = append(faces, []int{bottom, ring(rings-1, j), ring(rings-1, j+1)})
	}
	return Source{Positions: positions, Faces: faces}
}

// Primitive returns a built-in shape by name: "cube", "tetrahedron" or
// "sphere".
func Primitive(name string) (Source, bool) {
	switch name {
	case "cube":
		return Cube(1), true
	case "tetrahedron", "tetra":
		return Tetrahedron(0.5), true
	case "sphere":
		return UVSphere(0.5, 12, 24), true
	}
	return Source{}, false
}

func sign(positive bool) float64 {
	if positive {
		return 1
	}
	return -1
}
