// Package formats provides parsers for triangle mesh file formats.
package formats

// Note: PLY (Polygon File Format, ASCII flavour) is implemented in ply.go
// Note: STL (ASCII and binary) is read through hschendel/stl in stl.go
