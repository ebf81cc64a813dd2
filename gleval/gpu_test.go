//go:build !tinygo && cgo

package gleval_test

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
	"github.com/soypat/glgrid/glbuild"
	"github.com/soypat/glgrid/gleval"
)

// Compares the compute shader dispatch against the CPU reference evaluator.
// Texture coordinates whose grid-relative position sits within rounding
// distance of the classification threshold are skipped since single-precision
// GPU arithmetic may legitimately land on the other side of the strict
// comparison there.
func TestGPUFragmentsMatchCPU(t *testing.T) {
	terminate, err := gleval.Init1x1GLFW()
	if err != nil {
		t.Skipf("GPU context unavailable: %s", err)
	}
	defer terminate()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	// The GPU path samples nearest/repeat; bind the CPU texture identically.
	tex, err := glgrid.NewImageTexture(img, glgrid.WrapRepeat, glgrid.FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	uni := glgrid.DefaultUniforms()
	uni.Offset = ms2.Vec{X: 3.25, Y: -2}
	uni.ZoomExp = 1

	prog := glbuild.NewDefaultProgrammer()
	invocX, _, _ := prog.ComputeInvocations()
	var src bytes.Buffer
	_, err = prog.WriteComputeFragments(&src)
	if err != nil {
		t.Fatal(err)
	}
	gpu, err := gleval.NewComputeGPUFragments(&src, tex, uni, invocX)
	if err != nil {
		t.Fatal(err)
	}
	cpu, err := gleval.NewCPUFragments(tex, uni)
	if err != nil {
		t.Fatal(err)
	}

	const n = 4096
	texcoords := make([]ms2.Vec, 0, n)
	for len(texcoords) < n {
		tc := ms2.Vec{X: rng.Float32(), Y: rng.Float32()}
		if nearClassificationBoundary(tc, uni) || nearTexelBoundary(tc, 4, 4) {
			continue
		}
		texcoords = append(texcoords, tc)
	}
	gotGPU := make([]glgrid.RGBA, n)
	gotCPU := make([]glgrid.RGBA, n)
	err = gpu.Evaluate(texcoords, gotGPU, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = cpu.Evaluate(texcoords, gotCPU, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range gotGPU {
		if gotGPU[i] != gotCPU[i] {
			t.Fatalf("GPU and CPU disagree at texcoord %+v: gpu=%+v cpu=%+v", texcoords[i], gotGPU[i], gotCPU[i])
		}
	}
}

func nearClassificationBoundary(tc ms2.Vec, uni glgrid.Uniforms) bool {
	const tol = 1e-3
	zoom := uni.Zoom()
	pix := ms2.MulElem(tc, uni.Viewport)
	relX := glslModf((pix.X-uni.Offset.X)*zoom, glgrid.GridSize)
	relY := glslModf((pix.Y-uni.Offset.Y)*zoom, glgrid.GridSize)
	nearly := func(rel float32) bool {
		return math32.Abs(rel-0.5) < tol || rel < tol || glgrid.GridSize-rel < tol
	}
	return nearly(relX) || nearly(relY)
}

// nearTexelBoundary reports whether tc sits within rounding distance of a
// texel edge, where nearest sampling on GPU and CPU may pick different texels.
func nearTexelBoundary(tc ms2.Vec, w, h float32) bool {
	const tol = 1e-3
	fracNear := func(v float32) bool {
		f := v - math32.Floor(v)
		return f < tol || 1-f < tol
	}
	return fracNear(tc.X*w) || fracNear(tc.Y*h)
}

func glslModf(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}
