package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
	"github.com/soypat/glgrid/gleval"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// Renderer rasterizes the grid overlay into images by evaluating a
// [gleval.Fragments] once per destination pixel, standing in for the GPU's
// fixed-function per-pixel dispatch. Pixel evaluations are independent and
// unordered; rows are dealt out to a pool of workers, each with its own
// texcoord and color buffers.
type Renderer struct {
	workers int
}

// NewRenderer returns a Renderer dispatching work to workers goroutines.
// A zero worker count selects [runtime.NumCPU]. Pass workers == 1 for
// evaluators that are not safe for concurrent use, such as the GPU one.
func NewRenderer(workers int) (*Renderer, error) {
	if workers < 0 {
		return nil, errors.New("negative worker count")
	}
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return &Renderer{workers: workers}, nil
}

// Render fills every pixel of img with the overlay evaluation of frags at
// that pixel's texture coordinate. Coordinates are sampled at pixel centers:
// the pixel at (x, y) of a WxH image maps to ((x+0.5)/W, (y+0.5)/H), with
// the image's top-left row being v=0 as in GL's texture convention for a
// fullscreen quad. userData is forwarded to every Evaluate call.
//
// Every written pixel is either the sampled texel color or transparent
// black. img.Set must tolerate concurrent calls on distinct pixels; the
// stdlib image types do.
func (r *Renderer) Render(img setImage, frags gleval.Fragments, userData any) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("empty destination image")
	}
	workers := r.workers
	if workers > height {
		workers = height
	}
	if workers == 1 {
		rw := rowWorker{img: img, frags: frags, width: width, height: height}
		return rw.render(0, height, userData)
	}

	rowsPerWorker := (height + workers - 1) / workers
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	for w := 0; w < workers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > height {
			endRow = height
		}
		if startRow >= endRow {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			rw := rowWorker{img: img, frags: frags, width: width, height: height}
			err := rw.render(start, end, userData)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}(startRow, endRow)
	}
	wg.Wait()
	return firstErr
}

// rowWorker holds one worker's evaluation buffers, sized to a full image row.
type rowWorker struct {
	img    setImage
	frags  gleval.Fragments
	width  int
	height int
	pos    []ms2.Vec
	colors []glgrid.RGBA
}

func (rw *rowWorker) render(startRow, endRow int, userData any) error {
	if rw.pos == nil {
		rw.pos = make([]ms2.Vec, rw.width)
		rw.colors = make([]glgrid.RGBA, rw.width)
	}
	bounds := rw.img.Bounds()
	invW := 1 / float32(rw.width)
	invH := 1 / float32(rw.height)
	for y := startRow; y < endRow; y++ {
		v := (float32(y) + 0.5) * invH
		for x := 0; x < rw.width; x++ {
			rw.pos[x] = ms2.Vec{X: (float32(x) + 0.5) * invW, Y: v}
		}
		err := rw.frags.Evaluate(rw.pos, rw.colors, userData)
		if err != nil {
			return fmt.Errorf("evaluating row %d: %w", y, err)
		}
		for x, c := range rw.colors {
			rw.img.Set(bounds.Min.X+x, bounds.Min.Y+y, c.Color())
		}
	}
	return nil
}
