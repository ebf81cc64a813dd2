package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgrid"
	"github.com/soypat/glgrid/glbuild"
)

func TestWriteFragmentShader(t *testing.T) {
	prog := glbuild.NewDefaultProgrammer()
	var buf bytes.Buffer
	n, err := prog.WriteFragmentShader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() {
		t.Errorf("wrote %d bytes but counted %d", buf.Len(), n)
	}
	src := buf.String()
	offName, zoomName, vpName := glbuild.UniformNames()
	for _, want := range []string{
		"#version 330",
		"in vec2 fragTexCoord;",
		"in vec4 fragColor;",
		"uniform sampler2D texture0;",
		"uniform vec4 colDiffuse;",
		"uniform vec2 " + offName + " = vec2(0.0, 0.0);",
		"uniform float " + zoomName + " = 0.0;",
		"uniform vec2 " + vpName + " = vec2(1280.0, 720.0);",
		"const float gridSize = 8.0;",
		"1.0/exp2(zoom_exp)",
		"mod((fragTexCoord*viewport - offset)*zoom, gridSize)",
		"rel.x < 0.5 || rel.y < 0.5",
		"vec4(0.0, 0.0, 0.0, 0.0)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("fragment source missing %q:\n%s", want, src)
		}
	}

	// Deterministic output.
	var buf2 bytes.Buffer
	_, err = prog.WriteFragmentShader(&buf2)
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != buf2.String() {
		t.Error("fragment source not deterministic across writes")
	}
}

func TestWriteComputeFragments(t *testing.T) {
	prog := glbuild.NewDefaultProgrammer()
	var buf bytes.Buffer
	n, err := prog.WriteComputeFragments(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() {
		t.Errorf("wrote %d bytes but counted %d", buf.Len(), n)
	}
	src := buf.String()
	for _, want := range []string{
		"#shader compute",
		"#version 430",
		"local_size_x = 32",
		"binding = 0) buffer TexCoordsBuffer",
		"binding = 1) buffer ColorsBuffer",
		"binding = 2) buffer TexelsBuffer",
		"uniform ivec2 tex_size;",
		"gl_GlobalInvocationID.x",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("compute source missing %q:\n%s", want, src)
		}
	}
}

func TestSetComputeInvocations(t *testing.T) {
	prog := glbuild.NewDefaultProgrammer()
	prog.SetComputeInvocations(64, 1, 1)
	x, y, z := prog.ComputeInvocations()
	if x != 64 || y != 1 || z != 1 {
		t.Errorf("invocations = (%d,%d,%d), want (64,1,1)", x, y, z)
	}
	var buf bytes.Buffer
	_, err := prog.WriteComputeFragments(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "local_size_x = 64") {
		t.Error("compute source does not reflect invocation size")
	}
}

func TestSetUniformDefaults(t *testing.T) {
	prog := glbuild.NewDefaultProgrammer()
	uni := glgrid.DefaultUniforms()
	uni.Offset = ms2.Vec{X: -4, Y: 2.5}
	uni.ZoomExp = 1
	err := prog.SetUniformDefaults(uni)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	_, err = prog.WriteFragmentShader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	src := buf.String()
	for _, want := range []string{
		"offset = vec2(-4.0, 2.5);",
		"zoom_exp = 1.0;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("fragment source missing %q:\n%s", want, src)
		}
	}

	uni.Viewport = ms2.Vec{}
	if err := prog.SetUniformDefaults(uni); err == nil {
		t.Error("expected error for zero viewport default")
	}
}
