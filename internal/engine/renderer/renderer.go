// Package renderer draws a deforming mesh, its silhouette and the probe
// with OpenGL 4.1 core.
package renderer

import (
	"fmt"
	"iter"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/softmesh/internal/engine/buffers"
	"github.com/Faultbox/softmesh/internal/engine/shader"
	"github.com/Faultbox/softmesh/internal/logger"
	"github.com/Faultbox/softmesh/internal/mesh"
	"github.com/Faultbox/softmesh/internal/silhouette"
	"github.com/Faultbox/softmesh/pkg/math"
)

// Colours and lighting.
var (
	ClearColor      = math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	SurfaceColor    = math.Vec3{X: 0.6, Y: 0.6, Z: 0.6}
	WireframeColor  = math.Vec3{X: 1, Y: 1}
	SilhouetteColor = math.Vec3{X: 1, Y: 1, Z: 1}
	ProbeColor      = math.Vec3{X: 0.4, Y: 0.8, Z: 1}
	AxisColors      = [3]math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

	LightDir = math.Vec3{Z: 1}
	Ambient  = float32(0.7)
	Diffuse  = float32(0.5)
)

// SilhouetteWidth is the requested outline width in pixels. Core profiles
// may clamp it to 1.
const SilhouetteWidth = 2

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool
}

// Style selects which layers DrawMesh renders.
type Style struct {
	Filled     bool
	Wireframe  bool
	Silhouette bool
	Axes       bool
}

// Transform is the per-frame matrix set.
type Transform struct {
	Model math.Mat4
	MVP   math.Mat4
}

// stream is a dynamic vertex buffer re-uploaded every frame.
type stream struct {
	vao, vbo uint32
	capacity int // bytes
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	lit  *shader.Program
	flat *shader.Program

	triangles  stream
	silhouette stream
	probe      stream
	axes       stream

	// CPU staging, reused between frames
	scratch []float32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.ClearColor(ClearColor.X, ClearColor.Y, ClearColor.Z, 1.0)

	var err error
	if r.lit, err = shader.Compile("lit", litVertexSrc, litFragmentSrc); err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	if r.flat, err = shader.Compile("flat", flatVertexSrc, flatFragmentSrc); err != nil {
		r.lit.Delete()
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r.triangles = newStream(buffers.LitStride)
	r.silhouette = newStream(buffers.LineStride)
	r.probe = newStream(buffers.LineStride)
	r.axes = newStream(buffers.LineStride)

	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for _, s := range []*stream{&r.triangles, &r.silhouette, &r.probe, &r.axes} {
		s.delete()
	}
	if r.lit != nil {
		r.lit.Delete()
	}
	if r.flat != nil {
		r.flat.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport width/height ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows. Call it after
// drawing and before the buffers are swapped.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// DrawMesh draws m with the layers selected by style. outline supplies
// the silhouette segments and is only ranged over when style.Silhouette
// is set.
func (r *Renderer) DrawMesh(t Transform, m *mesh.Mesh, style Style, outline iter.Seq[silhouette.Segment]) {
	if style.Axes {
		r.drawAxes(t)
	}
	if !style.Filled && !style.Wireframe && !style.Silhouette {
		return
	}

	var triCount int32
	if style.Filled || style.Wireframe {
		r.scratch = buffers.AppendTriangles(r.scratch[:0], m)
		triCount = r.triangles.upload(r.scratch, buffers.LitStride)
	}

	if style.Filled {
		// Push filled faces back so lines on the same surface win.
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(1, 1)

		r.lit.Use()
		r.lit.SetMat4("uMVP", t.MVP)
		r.lit.SetMat4("uModel", t.Model)
		r.lit.SetVec3("uColor", SurfaceColor)
		r.lit.SetVec3("uLightDir", LightDir)
		r.lit.SetFloat("uAmbient", Ambient)
		r.lit.SetFloat("uDiffuse", Diffuse)
		r.triangles.draw(gl.TRIANGLES, 0, triCount)

		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}

	r.flat.Use()
	r.flat.SetMat4("uMVP", t.MVP)

	if style.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		r.flat.SetVec3("uColor", WireframeColor)
		r.triangles.draw(gl.TRIANGLES, 0, triCount)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	if style.Silhouette && outline != nil {
		r.scratch = buffers.AppendSegments(r.scratch[:0], outline)
		n := r.silhouette.upload(r.scratch, buffers.LineStride)
		gl.LineWidth(SilhouetteWidth)
		r.flat.SetVec3("uColor", SilhouetteColor)
		r.silhouette.draw(gl.LINES, 0, n)
		gl.LineWidth(1)
	}
}

// DrawProbe draws the probe as a wire sphere in model coordinates.
func (r *Renderer) DrawProbe(t Transform, center r3.Vec, radius float64) {
	r.scratch = buffers.AppendWireSphere(r.scratch[:0], center, radius, 5, 5)
	n := r.probe.upload(r.scratch, buffers.LineStride)

	r.flat.Use()
	r.flat.SetMat4("uMVP", t.MVP)
	r.flat.SetVec3("uColor", ProbeColor)
	r.probe.draw(gl.LINES, 0, n)
}

func (r *Renderer) drawAxes(t Transform) {
	r.scratch = buffers.AppendAxes(r.scratch[:0], 1)
	r.axes.upload(r.scratch, buffers.LineStride)

	r.flat.Use()
	r.flat.SetMat4("uMVP", t.MVP)
	for i, c := range AxisColors {
		r.flat.SetVec3("uColor", c)
		r.axes.draw(gl.LINES, int32(2*i), 2)
	}
}

func newStream(stride int) stream {
	var s stream
	gl.GenVertexArrays(1, &s.vao)
	gl.BindVertexArray(s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)

	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, int32(stride*4), nil)
	gl.EnableVertexAttribArray(0)
	if stride == buffers.LitStride {
		// Normal attribute (location = 1)
		gl.VertexAttribPointer(1, 3, gl.FLOAT, false, int32(stride*4), unsafe.Pointer(uintptr(3*4)))
		gl.EnableVertexAttribArray(1)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return s
}

// upload replaces the buffer contents and returns the vertex count.
func (s *stream) upload(data []float32, stride int) int32 {
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	size := len(data) * 4
	if size > s.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.DYNAMIC_DRAW)
		s.capacity = size
	}
	if size > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&data[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return int32(len(data) / stride)
}

func (s *stream) draw(mode uint32, first, count int32) {
	if count == 0 {
		return
	}
	gl.BindVertexArray(s.vao)
	gl.DrawArrays(mode, first, count)
}

func (s *stream) delete() {
	if s.vao != 0 {
		gl.DeleteVertexArrays(1, &s.vao)
	}
	if s.vbo != 0 {
		gl.DeleteBuffers(1, &s.vbo)
	}
	*s = stream{}
}

const litVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vNormal;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
	vNormal = mat3(uModel) * aNormal;
}
`

const litFragmentSrc = `
#version 410 core

in vec3 vNormal;

uniform vec3 uColor;
uniform vec3 uLightDir;
uniform float uAmbient;
uniform float uDiffuse;

out vec4 FragColor;

void main() {
	float n = length(vNormal);
	float lambert = n > 0.0 ? max(dot(vNormal / n, normalize(uLightDir)), 0.0) : 0.0;
	vec3 c = uColor * min(uAmbient + uDiffuse * lambert, 1.0);
	FragColor = vec4(c, 1.0);
}
`

const flatVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const flatFragmentSrc = `
#version 410 core

uniform vec3 uColor;

out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`
