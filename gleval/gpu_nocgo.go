//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewComputeGPUFragments instantiates a [Fragments] that runs on the GPU.
func NewComputeGPUFragments(glglSourceCode io.Reader, tex *glgrid.ImageTexture, uni glgrid.Uniforms, invocX int) (*FragmentsGPU, error) {
	return nil, errNoCGO
}

// FragmentsGPU implements [Fragments] via a compute shader dispatch.
type FragmentsGPU struct {
	uni glgrid.Uniforms
}

// Uniforms returns the configuration bound at construction.
func (f *FragmentsGPU) Uniforms() glgrid.Uniforms {
	return f.uni
}

// Evaluate implements the [Fragments] interface.
func (f *FragmentsGPU) Evaluate(texcoords []ms2.Vec, colors []glgrid.RGBA, userData any) error {
	return errNoCGO
}
