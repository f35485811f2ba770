// meshtool inspects meshes and runs the soft-body simulation without a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/softmesh/internal/config"
	"github.com/Faultbox/softmesh/internal/engine/camera"
	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/snapshot"
	"github.com/Faultbox/softmesh/internal/world"
	"github.com/Faultbox/softmesh/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "edges":
		cmdEdges(args)
	case "simulate", "sim":
		cmdSimulate(args)
	case "snapshot", "snap":
		cmdSnapshot(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - soft-body mesh utility

Usage:
  meshtool <command> [options]

Commands:
  info <mesh>                 Show file attributes and adjacency summary
  edges <mesh>                List edges with their faces and rest lengths
  simulate <mesh>             Fire a probe and print energy per tick
  snapshot <mesh> <out.png>   Render the mesh and its silhouette to PNG, BMP or TIFF
  config                      Print the default configuration as YAML

A mesh is a .ply or .stl file, or primitive:<cube|tetrahedron|sphere>.

Examples:
  meshtool info bunny.ply
  meshtool edges -n 20 primitive:cube
  meshtool simulate -ticks 500 -every 50 primitive:sphere
  meshtool snapshot -yaw 30 -ticks 200 bunny.ply bunny.png`)
}

// commonFlags registers the flags shared by every mesh command.
func commonFlags(fs *flag.FlagSet) (configPath *string, adjacency *string, verbose *bool) {
	configPath = fs.String("config", "", "Path to config file")
	adjacency = fs.String("adjacency", "", "Edge discovery strategy (indexed, pairwise)")
	verbose = fs.Bool("v", false, "Enable debug logging")
	return
}

// loadConfig resolves the config for a command and points it at meshPath.
func loadConfig(configPath, adjacency, meshPath string, verbose bool) *config.Config {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fatal(err)
	}
	cfg.Mesh.Path = meshPath
	if adjacency != "" {
		cfg.Mesh.Adjacency = adjacency
		if err := cfg.Validate(); err != nil {
			fatal(err)
		}
	}
	if verbose {
		if err := logger.Init("debug", ""); err != nil {
			fatal(err)
		}
	}
	return cfg
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath, adjacency, verbose := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info [options] <mesh>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	cfg := loadConfig(*configPath, *adjacency, path, *verbose)

	fmt.Printf("Mesh:      %s\n", path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		printPLY(path)
	case ".stl":
		printSTL(path, cfg.Mesh.WeldTolerance)
	}

	w, err := world.New(cfg)
	if err != nil {
		fatal(err)
	}
	s := w.Stats()
	b := w.Mesh.Bounds()
	deg := degreeRange(w.Mesh)

	fmt.Println()
	fmt.Printf("Vertices:  %d\n", s.Vertices)
	fmt.Printf("Triangles: %d\n", s.Faces)
	fmt.Printf("Edges:     %d (%s)\n", s.Edges, cfg.Mesh.Adjacency)
	fmt.Printf("Closed:    %v\n", s.Closed)
	fmt.Printf("Degree:    %d..%d\n", deg[0], deg[1])
	fmt.Printf("Bounds:    (%.4g, %.4g, %.4g) .. (%.4g, %.4g, %.4g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	if cfg.Mesh.Normalize {
		fmt.Println("           (after normalisation)")
	}
}

func printPLY(path string) {
	ply, err := formats.ParsePLYFile(path)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Format:    %s\n", ply.Format)
	fmt.Printf("Vertices:  %d\n", len(ply.Vertices))
	fmt.Printf("Faces:     %d\n", len(ply.Faces))
	fmt.Printf("Properties: %s\n", strings.Join(ply.Properties, " "))
	for _, c := range ply.Comments {
		fmt.Printf("Comment:   %s\n", c)
	}

	arity := ply.CountByArity()
	sizes := make([]int, 0, len(arity))
	for n := range arity {
		sizes = append(sizes, n)
	}
	slices.Sort(sizes)
	for _, n := range sizes {
		fmt.Printf("  %d-gons   %d\n", n, arity[n])
	}

	// Attribute ranges, as the source carries them.
	for _, prop := range []string{"confidence", "intensity"} {
		if !ply.HasProperty(prop) || len(ply.Vertices) == 0 {
			continue
		}
		lo, hi := attributeRange(ply.Vertices, prop)
		fmt.Printf("%-10s %.4g..%.4g\n", prop+":", lo, hi)
	}
}

func attributeRange(vs []formats.PLYVertex, prop string) (lo, hi float32) {
	get := func(v formats.PLYVertex) float32 {
		if prop == "confidence" {
			return v.Confidence
		}
		return v.Intensity
	}
	lo, hi = get(vs[0]), get(vs[0])
	for _, v := range vs[1:] {
		lo = math32.Min(lo, get(v))
		hi = math32.Max(hi, get(v))
	}
	return lo, hi
}

func printSTL(path string, tol float32) {
	solid, err := formats.ParseSTLFile(path, tol)
	if err != nil {
		fatal(err)
	}
	if solid.Name != "" {
		fmt.Printf("Solid:     %s\n", solid.Name)
	}
	fmt.Printf("Triangles: %d\n", len(solid.Faces))
	fmt.Printf("Welded:    %d corners into %d vertices\n", solid.Welded, len(solid.Vertices))
	fmt.Printf("Collapsed: %d triangles\n", solid.Collapsed)
}

func degreeRange(m *mesh.Mesh) [2]int {
	if m.VertexCount() == 0 {
		return [2]int{}
	}
	r := [2]int{m.Graph.Degree(0), m.Graph.Degree(0)}
	for v := range m.VertexCount() {
		d := m.Graph.Degree(v)
		r[0] = min(r[0], d)
		r[1] = max(r[1], d)
	}
	return r
}

func cmdEdges(args []string) {
	fs := flag.NewFlagSet("edges", flag.ExitOnError)
	configPath, adjacency, verbose := commonFlags(fs)
	limit := fs.Int("n", 0, "Limit output to N edges (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool edges [options] <mesh>")
		os.Exit(1)
	}
	cfg := loadConfig(*configPath, *adjacency, fs.Arg(0), *verbose)

	w, err := world.New(cfg)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%6s  %13s  %13s  %s\n", "edge", "vertices", "faces", "rest")
	for i, e := range w.Mesh.Edges {
		if *limit > 0 && i >= *limit {
			fmt.Fprintf(os.Stderr, "\n(showing first %d of %d edges, use -n 0 for all)\n", *limit, w.Mesh.EdgeCount())
			break
		}
		fmt.Printf("%6d  %6d %6d  %6d %6d  %.6g\n",
			i, e.Vertices[0], e.Vertices[1], e.Faces[0], e.Faces[1], e.RestLength)
	}
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath, adjacency, verbose := commonFlags(fs)
	ticks := fs.Int("ticks", 300, "Number of ticks to run")
	every := fs.Int("every", 10, "Print every N ticks")
	yaw := fs.Float64("yaw", 0, "Fire the probe from this yaw, in degrees")
	noFire := fs.Bool("no-fire", false, "Run without firing a probe")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool simulate [options] <mesh>")
		os.Exit(1)
	}
	cfg := loadConfig(*configPath, *adjacency, fs.Arg(0), *verbose)

	w, err := world.New(cfg)
	if err != nil {
		fatal(err)
	}
	if !*noFire {
		cam := camera.NewTurntableCamera()
		cam.Yaw = float32(*yaw) * math32.Pi / 180
		w.Fire(cam.ViewDirection())
	}

	ref := slices.Clone(w.Mesh.Positions)
	fmt.Printf("%6s  %12s  %12s  %12s  %12s  %10s  %s\n",
		"tick", "kinetic", "edge", "volume", "total", "max disp", "contact")
	for i := 1; i <= *ticks; i++ {
		contact := w.Step()
		if contact || i%max(1, *every) == 0 || i == *ticks {
			en := w.Engine.Energy()
			mark := ""
			if contact {
				mark = "*"
			}
			fmt.Printf("%6d  %12.6g  %12.6g  %12.6g  %12.6g  %10.4g  %s\n",
				i, en.Kinetic, en.Edge, en.Volume, en.Total(), w.Engine.MaxDisplacement(ref), mark)
		}
	}
	fmt.Fprintf(os.Stderr, "\n(%d ticks, %d contacts)\n", w.Stats().Ticks, w.Stats().Contacts)
}

func cmdSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	configPath, adjacency, verbose := commonFlags(fs)
	width := fs.Int("width", 800, "Image width")
	height := fs.Int("height", 600, "Image height")
	supersample := fs.Int("ss", 4, "Supersampling factor")
	yaw := fs.Float64("yaw", 0, "Camera yaw in degrees")
	pitch := fs.Float64("pitch", 0, "Camera pitch in degrees")
	scale := fs.Float64("scale", 0, "Model scale (0 = config)")
	wire := fs.Bool("wire", false, "Draw the wireframe")
	noFill := fs.Bool("no-fill", false, "Do not fill faces")
	noOutline := fs.Bool("no-outline", false, "Do not draw the silhouette")
	ticks := fs.Int("ticks", 0, "Fire a probe and simulate N ticks first")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool snapshot [options] <mesh> <out.png>")
		os.Exit(1)
	}
	cfg := loadConfig(*configPath, *adjacency, fs.Arg(0), *verbose)
	out := fs.Arg(1)

	w, err := world.New(cfg)
	if err != nil {
		fatal(err)
	}

	cam := camera.NewTurntableCamera()
	cam.Yaw = float32(*yaw) * math32.Pi / 180
	cam.Pitch = float32(*pitch) * math32.Pi / 180
	cam.Scale = float32(cfg.Graphics.Scale)
	if *scale > 0 {
		cam.Scale = float32(*scale)
	}

	if *ticks > 0 {
		w.Fire(cam.ViewDirection())
		for range *ticks {
			w.Step()
		}
	}
	w.Mesh.UpdateNormals()

	opts := snapshot.Options{
		Width:       *width,
		Height:      *height,
		Supersample: *supersample,
		Filled:      !*noFill,
		Wireframe:   *wire,
		Silhouette:  !*noOutline,
	}
	if err := snapshot.Save(out, w.Mesh, cam, opts); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote: %s (%dx%d)\n", out, *width, *height)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file to merge over defaults")
	fs.Parse(args)

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fatal(err)
	}
	data, err := cfg.Marshal()
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(data)
}
