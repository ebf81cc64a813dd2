package glgridaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // decode support for LoadTexture.
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/soypat/glgrid"
	"github.com/soypat/glgrid/glbuild"
	"github.com/soypat/glgrid/gleval"
	"github.com/soypat/glgrid/glrender"
)

// RenderConfig configures [RenderPNGFile] and [RenderImage].
type RenderConfig struct {
	// UseGPU evaluates the overlay with a compute shader dispatch instead of
	// the CPU reference evaluator. Requires CGo and a GL 4.3+ context.
	UseGPU bool
	// Workers is the CPU render worker count. Zero picks a sensible default.
	// Ignored when UseGPU is set since the GPU evaluator is single-stream.
	Workers int
	Silent  bool
}

// RenderPNGFile renders the grid overlay over tex under the uni configuration
// into a width-by-height image and saves the result to a PNG file with said
// filename. Off-grid pixels come out fully transparent in the PNG.
func RenderPNGFile(filename string, tex glgrid.Texture, uni glgrid.Uniforms, width, height int, cfg RenderConfig) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := RenderImage(img, tex, uni, cfg)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// RenderImage renders the grid overlay over tex into img. It is an auxiliary
// function to aid users in getting set up quickly; applications with tighter
// rendering loops should drive [glrender.Renderer] themselves.
func RenderImage(img draw.Image, tex glgrid.Texture, uni glgrid.Uniforms, cfg RenderConfig) error {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	var frags gleval.Fragments
	var err error
	workers := cfg.Workers
	if cfg.UseGPU {
		log("using GPU\tᵍᵒᵗᵗᵃ ᵍᵒ ᶠᵃˢᵗ")
		imgTex, ok := tex.(*glgrid.ImageTexture)
		if !ok {
			return errors.New("GPU rendering requires an ImageTexture")
		}
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return err
		}
		defer terminate()
		prog := glbuild.NewDefaultProgrammer()
		invocX, _, _ := prog.ComputeInvocations()
		var buf bytes.Buffer
		n, err := prog.WriteComputeFragments(&buf)
		if err != nil {
			return err
		} else if n != buf.Len() {
			return fmt.Errorf("wrote %d bytes but WriteComputeFragments counted %d", buf.Len(), n)
		}
		frags, err = gleval.NewComputeGPUFragments(&buf, imgTex, uni, invocX)
		if err != nil {
			return err
		}
		workers = 1 // GPU evaluator owns GL state, keep it on one goroutine.
	} else {
		log("using CPU")
		frags, err = gleval.NewCPUFragments(tex, uni)
		if err != nil {
			return err
		}
	}
	renderer, err := glrender.NewRenderer(workers)
	if err != nil {
		return err
	}
	return renderer.Render(img, frags, nil)
}

// Checkerboard returns a texture of cells-by-cells checkered squares, each
// cell cellPix texels across, alternating colors a and b. Useful as the quad
// texture in examples and tests.
func Checkerboard(cellPix, cells int, a, b color.Color) (*glgrid.ImageTexture, error) {
	if cellPix < 1 || cells < 1 {
		return nil, errors.New("non-positive checkerboard dimensions")
	}
	side := cellPix * cells
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if (x/cellPix+y/cellPix)%2 == 0 {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	return glgrid.NewImageTexture(img, glgrid.WrapRepeat, glgrid.FilterNearest)
}

// LoadTexture decodes an image from r and wraps it as a texture with the
// argument sampling rules. When width and height are nonzero the decoded
// image is resampled to that size with bilinear interpolation first, so
// arbitrary input art can match an expected texel density.
func LoadTexture(r io.Reader, width, height int, wrap glgrid.WrapMode, filter glgrid.Filter) (*glgrid.ImageTexture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	if width > 0 && height > 0 {
		b := img.Bounds()
		if b.Dx() != width || b.Dy() != height {
			dst := image.NewNRGBA(image.Rect(0, 0, width, height))
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
			img = dst
		}
	}
	return glgrid.NewImageTexture(img, wrap, filter)
}

// UIConfig holds configuration for the live overlay viewer.
type UIConfig struct {
	Width, Height int
	// Context cancels the viewer's render loop early. Nil means run until
	// the window closes.
	Context context.Context
}

// UI starts a GLFW window rendering the grid overlay fragment shader over
// tex. Dragging with the left mouse button pans the grid, scrolling zooms
// about the cursor. Requires CGo.
func UI(tex *glgrid.ImageTexture, cfg UIConfig) error {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	if tex == nil {
		return errors.New("nil texture")
	}
	return ui(tex, cfg)
}
