package glgrid

import (
	"errors"
	"image"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// Texture is the sampling side of the fragment interface: an opaque handle
// to a 2D image plus its sampling rules. At is called once per fragment with
// the interpolated texture coordinate, usually in [0,1]^2 though wrap modes
// define behavior outside that range. Implementations must be safe for
// concurrent sampling.
type Texture interface {
	At(uv ms2.Vec) RGBA
}

// WrapMode selects how coordinates outside [0,1] map back onto the image,
// mirroring the GL sampler wrap state which is otherwise host-side.
type WrapMode int

const (
	// WrapRepeat tiles the image, ignoring the integer part of the coordinate.
	WrapRepeat WrapMode = iota
	// WrapClampToEdge clamps to the edge texel.
	WrapClampToEdge
	// WrapMirroredRepeat tiles the image, mirroring every other repetition.
	WrapMirroredRepeat
)

// Filter selects the texel reconstruction filter.
type Filter int

const (
	// FilterNearest samples the texel whose center is closest to the coordinate.
	FilterNearest Filter = iota
	// FilterBilinear blends the four texels surrounding the coordinate.
	FilterBilinear
)

// UniformTexture samples the same color everywhere. Handy as a degenerate
// texture in tests and for flat-color quads.
type UniformTexture struct {
	C RGBA
}

func (t UniformTexture) At(ms2.Vec) RGBA { return t.C }

// ImageTexture samples an image.Image converted to float32 texels with
// configurable wrap and filter rules.
type ImageTexture struct {
	texels []RGBA
	width  int
	height int
	wrap   WrapMode
	filter Filter
}

// NewImageTexture converts img to an ImageTexture with the argument sampling
// rules. The image pixels are copied; later modification of img does not
// affect the texture.
func NewImageTexture(img image.Image, wrap WrapMode, filter Filter) (*ImageTexture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty texture image")
	}
	tex := &ImageTexture{
		texels: make([]RGBA, w*h),
		width:  w,
		height: h,
		wrap:   wrap,
		filter: filter,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tex.texels[y*w+x] = ColorToRGBA(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return tex, nil
}

// Size returns the texture dimensions in texels.
func (t *ImageTexture) Size() (width, height int) {
	return t.width, t.height
}

// Texels returns the backing texel storage in row-major order. The slice is
// shared with the texture and must not be modified while sampling.
func (t *ImageTexture) Texels() []RGBA {
	return t.texels
}

// At samples the texture at normalized coordinates uv.
func (t *ImageTexture) At(uv ms2.Vec) RGBA {
	if t.filter == FilterBilinear {
		return t.bilinear(uv)
	}
	x := int(math32.Floor(uv.X * float32(t.width)))
	y := int(math32.Floor(uv.Y * float32(t.height)))
	return t.texel(x, y)
}

func (t *ImageTexture) bilinear(uv ms2.Vec) RGBA {
	// Sample positions are texel centers, so pull back by half a texel before
	// splitting into integer and fractional lerp parts.
	fx := uv.X*float32(t.width) - 0.5
	fy := uv.Y*float32(t.height) - 0.5
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix, iy := int(x0), int(y0)
	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)
	top := lerpRGBA(c00, c10, tx)
	bot := lerpRGBA(c01, c11, tx)
	return lerpRGBA(top, bot, ty)
}

// texel fetches the texel at integer coordinates after applying wrap rules.
func (t *ImageTexture) texel(x, y int) RGBA {
	x = wrapCoord(x, t.width, t.wrap)
	y = wrapCoord(y, t.height, t.wrap)
	return t.texels[y*t.width+x]
}

func wrapCoord(i, n int, wrap WrapMode) int {
	switch wrap {
	case WrapClampToEdge:
		if i < 0 {
			return 0
		} else if i >= n {
			return n - 1
		}
		return i
	case WrapMirroredRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
}

func lerpRGBA(a, b RGBA, t float32) RGBA {
	return RGBA{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
