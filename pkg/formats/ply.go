package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
	ErrInvalidPLYHeader     = errors.New("invalid PLY header")
	ErrInvalidPLYValue      = errors.New("invalid PLY value")
)

// PLYVertex is a single vertex record. Only X, Y and Z are required; the
// remaining properties are zero when the file does not declare them.
type PLYVertex struct {
	X, Y, Z    float32
	Confidence float32
	Intensity  float32
	R, G, B    float32
}

// PLY represents a parsed ASCII PLY file.
type PLY struct {
	Format   string
	Comments []string
	// Properties lists the vertex property names in file order.
	Properties []string
	Vertices   []PLYVertex
	// Faces holds vertex indices per face. Polygons of any size are kept as-is.
	Faces [][]int
}

// HasProperty reports whether the vertex element declared the named property.
func (p *PLY) HasProperty(name string) bool {
	for _, prop := range p.Properties {
		if prop == name {
			return true
		}
	}
	return false
}

// plyElement is a header element declaration.
type plyElement struct {
	name       string
	count      int
	properties []string
	listProp   bool
}

// ParsePLY parses an ASCII PLY file from raw bytes.
func ParsePLY(data []byte) (*PLY, error) {
	return ReadPLY(bytes.NewReader(data))
}

// ReadPLY parses an ASCII PLY stream.
func ReadPLY(r io.Reader) (*PLY, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ply := &PLY{}
	elements, err := parsePLYHeader(sc, ply)
	if err != nil {
		return nil, err
	}

	for _, el := range elements {
		switch el.name {
		case "vertex":
			if err := parsePLYVertices(sc, ply, el); err != nil {
				return nil, err
			}
		case "face":
			if err := parsePLYFaces(sc, ply, el); err != nil {
				return nil, err
			}
		default:
			// Unknown elements are skipped line by line.
			for i := 0; i < el.count; i++ {
				if _, err := nextPLYLine(sc); err != nil {
					return nil, fmt.Errorf("skipping %s %d: %w", el.name, i, err)
				}
			}
		}
	}

	return ply, nil
}

// parsePLYHeader reads everything up to and including end_header.
func parsePLYHeader(sc *bufio.Scanner, ply *PLY) ([]plyElement, error) {
	if !sc.Scan() {
		return nil, ErrTruncatedPLYData
	}
	if strings.TrimSpace(sc.Text()) != "ply" {
		return nil, ErrInvalidPLYMagic
	}

	var elements []plyElement
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: format line", ErrInvalidPLYHeader)
			}
			ply.Format = fields[1]
			if ply.Format != "ascii" {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, ply.Format)
			}
		case "comment", "obj_info":
			ply.Comments = append(ply.Comments, strings.TrimSpace(strings.TrimPrefix(sc.Text(), fields[0])))
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: element line %q", ErrInvalidPLYHeader, sc.Text())
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			elements = append(elements, plyElement{name: fields[1], count: count})
		case "property":
			if len(elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &elements[len(elements)-1]
			if len(fields) >= 2 && fields[1] == "list" {
				el.listProp = true
				continue
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: property line %q", ErrInvalidPLYHeader, sc.Text())
			}
			el.properties = append(el.properties, fields[2])
		case "end_header":
			if ply.Format == "" {
				return nil, fmt.Errorf("%w: missing format line", ErrInvalidPLYHeader)
			}
			for _, el := range elements {
				if el.name == "vertex" {
					ply.Properties = el.properties
				}
			}
			return elements, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return nil, fmt.Errorf("%w: missing end_header", ErrTruncatedPLYData)
}

// maxPLYPrealloc caps the capacity reserved from a header element count.
// Larger elements grow as their lines are read.
const maxPLYPrealloc = 1 << 16

func parsePLYVertices(sc *bufio.Scanner, ply *PLY, el plyElement) error {
	for _, axis := range []string{"x", "y", "z"} {
		if !containsString(el.properties, axis) {
			return fmt.Errorf("%w: vertex element has no %q property", ErrInvalidPLYHeader, axis)
		}
	}

	ply.Vertices = make([]PLYVertex, 0, min(el.count, maxPLYPrealloc))
	for i := 0; i < el.count; i++ {
		line, err := nextPLYLine(sc)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		fields := strings.Fields(line)
		if len(fields) < len(el.properties) {
			return fmt.Errorf("%w: vertex %d has %d values, expected %d",
				ErrTruncatedPLYData, i, len(fields), len(el.properties))
		}

		var v PLYVertex
		for j, name := range el.properties {
			f, err := strconv.ParseFloat(fields[j], 32)
			if err != nil {
				return fmt.Errorf("%w: vertex %d property %s: %q", ErrInvalidPLYValue, i, name, fields[j])
			}
			setPLYProperty(&v, name, float32(f))
		}
		ply.Vertices = append(ply.Vertices, v)
	}
	return nil
}

// setPLYProperty assigns a named vertex property. Unknown names are ignored.
func setPLYProperty(v *PLYVertex, name string, f float32) {
	switch name {
	case "x":
		v.X = f
	case "y":
		v.Y = f
	case "z":
		v.Z = f
	case "confidence":
		v.Confidence = f
	case "intensity":
		v.Intensity = f
	case "r", "red", "diffuse_red":
		v.R = f
	case "g", "green", "diffuse_green":
		v.G = f
	case "b", "blue", "diffuse_blue":
		v.B = f
	}
}

func parsePLYFaces(sc *bufio.Scanner, ply *PLY, el plyElement) error {
	if !el.listProp {
		return fmt.Errorf("%w: face element has no vertex index list", ErrInvalidPLYHeader)
	}

	ply.Faces = make([][]int, 0, min(el.count, maxPLYPrealloc))
	for i := 0; i < el.count; i++ {
		line, err := nextPLYLine(sc)
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return fmt.Errorf("%w: face %d is empty", ErrTruncatedPLYData, i)
		}

		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: face %d vertex count %q", ErrInvalidPLYValue, i, fields[0])
		}
		if len(fields) < n+1 {
			return fmt.Errorf("%w: face %d lists %d of %d indices", ErrTruncatedPLYData, i, len(fields)-1, n)
		}

		indices := make([]int, n)
		for j := 0; j < n; j++ {
			idx, err := strconv.Atoi(fields[j+1])
			if err != nil {
				return fmt.Errorf("%w: face %d index %q", ErrInvalidPLYValue, i, fields[j+1])
			}
			indices[j] = idx
		}
		ply.Faces = append(ply.Faces, indices)
	}
	return nil
}

// nextPLYLine returns the next non-blank body line.
func nextPLYLine(sc *bufio.Scanner) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrTruncatedPLYData
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*PLY, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	defer f.Close()
	return ReadPLY(f)
}

// CountByArity returns the number of faces for each polygon size.
func (p *PLY) CountByArity() map[int]int {
	counts := make(map[int]int)
	for _, f := range p.Faces {
		counts[len(f)]++
	}
	return counts
}
