package gleval

import (
	"errors"
	"sync/atomic"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
)

// Fragments evaluates the grid overlay fragment function in vectorized
// form suitable for running on GPU.
type Fragments interface {
	// Evaluate shades the overlay at texcoords positions. colors and texcoords
	// must be of same length. Resulting fragment colors are stored in colors.
	//
	// userData facilitates getting data to the evaluators for use in processing.
	Evaluate(texcoords []ms2.Vec, colors []glgrid.RGBA, userData any) error
	// Uniforms returns the bound configuration, immutable for the
	// evaluator's lifetime.
	Uniforms() glgrid.Uniforms
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("texcoord and color buffer length mismatch")
)

// NewCPUFragments instantiates the reference CPU evaluator of the grid
// overlay sampling tex under the uni configuration. The evaluator is safe
// for concurrent use by multiple goroutines.
func NewCPUFragments(tex glgrid.Texture, uni glgrid.Uniforms) (*FragmentsCPU, error) {
	if tex == nil {
		return nil, errors.New("nil texture")
	}
	return &FragmentsCPU{tex: tex, uni: uni}, nil
}

// FragmentsCPU implements [Fragments] by evaluating [glgrid.Shade] per
// texture coordinate on the CPU.
type FragmentsCPU struct {
	tex   glgrid.Texture
	uni   glgrid.Uniforms
	evals uint64
}

// Evaluations returns total fragment evaluations performed succesfully
// during the evaluator's lifetime.
func (f *FragmentsCPU) Evaluations() uint64 {
	return atomic.LoadUint64(&f.evals)
}

// Evaluate implements the [Fragments] interface.
//
// The interpolated vertex color of the fragment interface is fixed to opaque
// white for all fragments. It does not reach the output expression either way.
func (f *FragmentsCPU) Evaluate(texcoords []ms2.Vec, colors []glgrid.RGBA, userData any) error {
	if len(texcoords) != len(colors) {
		return errMismatchBufferLength
	} else if len(texcoords) == 0 {
		return errEmptyBuffers
	}
	vertexColor := glgrid.RGBA{R: 1, G: 1, B: 1, A: 1}
	for i, tc := range texcoords {
		colors[i] = glgrid.Shade(tc, vertexColor, f.tex, f.uni)
	}
	atomic.AddUint64(&f.evals, uint64(len(texcoords)))
	return nil
}

// Uniforms returns the configuration bound at construction.
func (f *FragmentsCPU) Uniforms() glgrid.Uniforms {
	return f.uni
}
