package glgrid

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// GridSize is the grid cell size in pre-zoom, pre-offset pixel units. The
// overlay pattern repeats in pixel space with period GridSize/zoom.
const GridSize = 8.0

// lineHalfWidth is the grid-line test threshold. A pixel whose grid-relative
// position falls strictly below this value on either axis is on a line,
// which yields lines of roughly one pixel apparent thickness at zoom=1.
const lineHalfWidth = 0.5

// RGBA is a 4-component floating point color as handled by shader stages.
// Components are not premultiplied by alpha.
type RGBA struct {
	R, G, B, A float32
}

// Uniforms is the configuration surface of the grid overlay shader. Hosts
// bind it once per draw call; it is immutable for the call's duration and
// shared read-only by every fragment evaluation.
type Uniforms struct {
	// Offset shifts the grid origin in pixel space.
	Offset ms2.Vec
	// ZoomExp is the logarithmic zoom control.
	// The effective linear zoom is 2^(-ZoomExp): zero means no scaling and
	// each increment doubles the on-screen grid period, so positive exponents
	// spread the lines apart and negative exponents pack them closer.
	ZoomExp float32
	// Viewport is the draw surface size in pixels (width, height). It converts
	// normalized texture coordinates to pixel space for the grid computation.
	Viewport ms2.Vec
	// Tint is the host-bound diffuse tint. It is carried for parity with the
	// shader's uniform interface but does not factor into the shaded output.
	// See the package documentation on unused inputs.
	Tint RGBA
}

// DefaultUniforms returns the uniform values a host gets without binding
// anything: no offset, no zoom and a 1280x720 viewport.
func DefaultUniforms() Uniforms {
	return Uniforms{
		Viewport: ms2.Vec{X: 1280, Y: 720},
		Tint:     RGBA{R: 1, G: 1, B: 1, A: 1},
	}
}

// Zoom returns the effective linear zoom 2^(-ZoomExp).
func (u Uniforms) Zoom() float32 {
	return 1 / math32.Exp2(u.ZoomExp)
}

// GridPeriod returns the pixel-space distance after which the grid pattern
// repeats, equal to GridSize/zoom.
func (u Uniforms) GridPeriod() float32 {
	return GridSize / u.Zoom()
}

// Shade evaluates the grid overlay fragment function for a single pixel.
// It samples tex at texCoord and returns the texel unchanged when the pixel
// lands on a grid line, transparent black otherwise. No other value is ever
// returned. Evaluations are pure and independent of one another.
//
// vertexColor is the interpolated per-vertex color. Like the tint uniform it
// is part of the fragment interface but currently unused by the output
// expression.
func Shade(texCoord ms2.Vec, vertexColor RGBA, tex Texture, uni Uniforms) RGBA {
	texel := tex.At(texCoord)
	_ = vertexColor
	pix := ms2.MulElem(texCoord, uni.Viewport)
	if OnGridLine(pix, uni) {
		return texel
	}
	return RGBA{}
}

// OnGridLine classifies a pixel-space position against the grid. The position
// is shifted by the grid offset, scaled by the effective zoom and reduced
// modulo GridSize; it is on a line when either reduced component is strictly
// below the half-unit threshold. The boundary value 0.5 itself is off-line.
func OnGridLine(pix ms2.Vec, uni Uniforms) bool {
	rel := modElem(ms2.Scale(uni.Zoom(), ms2.Sub(pix, uni.Offset)), GridSize)
	return rel.X < lineHalfWidth || rel.Y < lineHalfWidth
}

// modElem is the componentwise GLSL mod: x - y*floor(x/y).
// Unlike math32.Mod the result takes the sign of y, so each component lands
// in [0, y) for positive y regardless of the sign of the input.
func modElem(v ms2.Vec, y float32) ms2.Vec {
	return ms2.Vec{X: glslMod(v.X, y), Y: glslMod(v.Y, y)}
}

func glslMod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}

// Color converts c to an 8-bit non-premultiplied color, clamping each
// component to [0,1].
func (c RGBA) Color() color.NRGBA {
	return color.NRGBA{
		R: touint8(c.R),
		G: touint8(c.G),
		B: touint8(c.B),
		A: touint8(c.A),
	}
}

// ColorToRGBA converts a color.Color to shader-space RGBA, undoing alpha
// premultiplication performed by the color package.
func ColorToRGBA(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return RGBA{}
	}
	af := float32(a)
	return RGBA{
		R: float32(r) / af,
		G: float32(g) / af,
		B: float32(b) / af,
		A: af / 0xffff,
	}
}

func touint8(v float32) uint8 {
	v = math32.Min(math32.Max(v, 0), 1)
	return uint8(v*255 + 0.5)
}
