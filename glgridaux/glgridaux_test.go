package glgridaux

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
)

func TestCheckerboard(t *testing.T) {
	tex, err := Checkerboard(4, 2, color.White, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	w, h := tex.Size()
	if w != 8 || h != 8 {
		t.Fatalf("checkerboard size = %dx%d, want 8x8", w, h)
	}
	white := glgrid.RGBA{R: 1, G: 1, B: 1, A: 1}
	black := glgrid.RGBA{A: 1}
	// Texel centers of the four cells alternate colors.
	if got := tex.At(ms2.Vec{X: 0.25, Y: 0.25}); got != white {
		t.Errorf("top-left cell: got %+v", got)
	}
	if got := tex.At(ms2.Vec{X: 0.75, Y: 0.25}); got != black {
		t.Errorf("top-right cell: got %+v", got)
	}
	if got := tex.At(ms2.Vec{X: 0.75, Y: 0.75}); got != white {
		t.Errorf("bottom-right cell: got %+v", got)
	}

	_, err = Checkerboard(0, 2, color.White, color.Black)
	if err == nil {
		t.Error("expected error for zero cell size")
	}
}

func TestLoadTextureResamples(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, src)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := LoadTexture(&buf, 8, 4, glgrid.WrapRepeat, glgrid.FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	w, h := tex.Size()
	if w != 8 || h != 4 {
		t.Fatalf("texture size = %dx%d, want 8x4", w, h)
	}
	// Flat input stays flat through resampling.
	got := tex.At(ms2.Vec{X: 0.5, Y: 0.5})
	want := glgrid.ColorToRGBA(color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	if got != want {
		t.Errorf("resampled texel: want %+v, got %+v", want, got)
	}
}

func TestRenderImageInvariant(t *testing.T) {
	tex, err := Checkerboard(8, 4, color.White, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	uni := glgrid.DefaultUniforms()
	uni.Viewport = ms2.Vec{X: 32, Y: 32}
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	err = RenderImage(img, tex, uni, RenderConfig{Silent: true})
	if err != nil {
		t.Fatal(err)
	}
	// Every pixel is a checkerboard texel or transparent black.
	whiteTexel := glgrid.RGBA{R: 1, G: 1, B: 1, A: 1}.Color()
	blackTexel := glgrid.RGBA{A: 1}.Color()
	zero := glgrid.RGBA{}.Color()
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			got := img.NRGBAAt(x, y)
			if got != whiteTexel && got != blackTexel && got != zero {
				t.Fatalf("pixel (%d,%d) unexpected color %+v", x, y, got)
			}
		}
	}
}
