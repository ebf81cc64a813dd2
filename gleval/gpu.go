//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glgrid"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done
// running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "compute",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// NewComputeGPUFragments instantiates a [Fragments] that runs on the GPU.
// glglSourceCode is the combined compute source as written by
// [glbuild.Programmer.WriteComputeFragments]. The texture is uploaded once
// at construction; uniforms are rebound on every Evaluate call.
//
// The returned evaluator owns GL state and is not safe for concurrent use.
func NewComputeGPUFragments(glglSourceCode io.Reader, tex *glgrid.ImageTexture, uni glgrid.Uniforms, invocX int) (*FragmentsGPU, error) {
	if tex == nil {
		return nil, errors.New("nil texture")
	} else if invocX < 1 {
		return nil, errors.New("zero or negative invocation size")
	}
	combinedSource, err := glgl.ParseCombined(glglSourceCode)
	if err != nil {
		return nil, err
	}
	glprog, err := glgl.CompileProgram(combinedSource)
	if err != nil {
		return nil, errors.New(string(combinedSource.Compute) + "\n" + err.Error())
	}
	w, h := tex.Size()
	frags := FragmentsGPU{
		prog:   glprog,
		texels: tex.Texels(),
		texW:   w,
		texH:   h,
		uni:    uni,
		invocX: invocX,
	}
	return &frags, nil
}

// FragmentsGPU implements [Fragments] via a compute shader dispatch, with
// texcoord input and color output shader storage buffers.
type FragmentsGPU struct {
	prog   glgl.Program
	texels []glgrid.RGBA
	texW   int
	texH   int
	uni    glgrid.Uniforms
	invocX int
}

// Uniforms returns the configuration bound at construction.
func (f *FragmentsGPU) Uniforms() glgrid.Uniforms {
	return f.uni
}

// Evaluate implements the [Fragments] interface.
func (f *FragmentsGPU) Evaluate(texcoords []ms2.Vec, colors []glgrid.RGBA, userData any) error {
	if len(texcoords) != len(colors) {
		return errMismatchBufferLength
	} else if len(texcoords) == 0 {
		return errEmptyBuffers
	} else if f.prog.ID() == 0 {
		return errors.New("program id is 0, was the evaluator initialized?")
	}
	prog := f.prog
	prog.Bind()
	defer prog.Unbind()
	err := f.bindUniforms()
	if err != nil {
		return err
	}

	var p runtime.Pinner
	var tcSSBO, colSSBO, texSSBO uint32
	p.Pin(&tcSSBO)
	p.Pin(&colSSBO)
	p.Pin(&texSSBO)
	defer p.Unpin()

	tcSSBO = loadSSBO(texcoords, 0, gl.STATIC_DRAW)
	if tcSSBO == 0 {
		return glErrOrMessage("zero SSBO id loading texcoord buffer")
	}
	defer gl.DeleteBuffers(1, &tcSSBO)

	colSSBO = createSSBO(elemSize[glgrid.RGBA]()*len(colors), 1, gl.DYNAMIC_READ)
	if colSSBO == 0 {
		return glErrOrMessage("zero SSBO id creating color buffer")
	}
	defer gl.DeleteBuffers(1, &colSSBO)

	texSSBO = loadSSBO(f.texels, 2, gl.STATIC_DRAW)
	if texSSBO == 0 {
		return glErrOrMessage("zero SSBO id loading texel buffer")
	}
	defer gl.DeleteBuffers(1, &texSSBO)

	nWorkX := (len(colors) + f.invocX - 1) / f.invocX
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err = copySSBO(colors, colSSBO)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func (f *FragmentsGPU) bindUniforms() error {
	uni := f.uni
	loc, err := f.prog.UniformLocation("offset\x00")
	if err != nil {
		return err
	}
	gl.Uniform2f(loc, uni.Offset.X, uni.Offset.Y)
	loc, err = f.prog.UniformLocation("zoom_exp\x00")
	if err != nil {
		return err
	}
	gl.Uniform1f(loc, uni.ZoomExp)
	loc, err = f.prog.UniformLocation("viewport\x00")
	if err != nil {
		return err
	}
	gl.Uniform2f(loc, uni.Viewport.X, uni.Viewport.Y)
	loc, err = f.prog.UniformLocation("tex_size\x00")
	if err != nil {
		return err
	}
	gl.Uniform2i(loc, int32(f.texW), int32(f.texH))
	return glgl.Err()
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * elemSize[T]()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	singleSize := elemSize[T]()
	bufSize := singleSize * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		return glErrOrMessage("failed to map SSBO buffer during copy")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}
