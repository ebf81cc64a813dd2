package glbuild

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/glgrid"
)

// VersionStr is the GLSL version pragma prepended to generated fragment shaders.
const VersionStr = "#version 330\n"

// computeVersionStr is the version used for compute shaders, which require
// a higher GLSL version than the fragment pipeline.
const computeVersionStr = "#version 430\n"

// Programmer generates GLSL source for the grid overlay shader: the fragment
// shader a host links into its render pipeline and a compute variant for
// headless batch evaluation. The zero value is not ready for use, call
// [NewDefaultProgrammer].
type Programmer struct {
	version  string
	defaults glgrid.Uniforms
	// Invocation size in X (local group size) to give each compute work group.
	invocX int
}

// NewDefaultProgrammer returns a Programmer with reasonable default
// parameters for use with the glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		version:  VersionStr,
		defaults: glgrid.DefaultUniforms(),
		invocX:   32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less
// than the maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// ComputeInvocations returns the work group invocation size in x, y and z.
func (p *Programmer) ComputeInvocations() (int, int, int) {
	return p.invocX, 1, 1
}

// SetUniformDefaults overrides the in-source uniform defaults baked into
// generated shaders. It does not affect already-written source.
func (p *Programmer) SetUniformDefaults(defaults glgrid.Uniforms) error {
	if defaults.Viewport.X <= 0 || defaults.Viewport.Y <= 0 {
		return errors.New("zero or negative viewport default")
	}
	p.defaults = defaults
	return nil
}

// UniformNames returns the GLSL names of the grid uniforms in generated
// sources, in order: grid offset, zoom exponent, viewport size. Hosts use
// these to look up uniform locations after linking.
func UniformNames() (offset, zoomExp, viewport string) {
	return "offset", "zoom_exp", "viewport"
}

// WriteFragmentShader writes the grid overlay fragment shader to w. The
// interface follows raylib's default vertex shader conventions: inputs
// fragTexCoord and fragColor, sampler texture0 and tint colDiffuse. The
// grid uniforms offset, zoom_exp and viewport carry in-source defaults so
// hosts that bind nothing still get a well-defined overlay.
func (p *Programmer) WriteFragmentShader(w io.Writer) (int, error) {
	n, err := io.WriteString(w, p.version)
	if err != nil {
		return n, err
	}
	d := p.defaults
	ngot, err := fmt.Fprintf(w, `
in vec2 fragTexCoord;
in vec4 fragColor;

uniform sampler2D texture0;
uniform vec4 colDiffuse;

uniform vec2 offset = vec2(%s, %s);
uniform float zoom_exp = %s;
uniform vec2 viewport = vec2(%s, %s);

out vec4 finalColor;

const float gridSize = %s;

void main()
{
    vec4 texelColor = texture(texture0, fragTexCoord);
    float zoom = 1.0/exp2(zoom_exp);
    vec2 rel = mod((fragTexCoord*viewport - offset)*zoom, gridSize);
    if (rel.x < 0.5 || rel.y < 0.5) {
        finalColor = texelColor;
    } else {
        finalColor = vec4(0.0, 0.0, 0.0, 0.0);
    }
}
`, ftoa(d.Offset.X), ftoa(d.Offset.Y), ftoa(d.ZoomExp),
		ftoa(d.Viewport.X), ftoa(d.Viewport.Y), ftoa(glgrid.GridSize))
	return n + ngot, err
}

// WriteComputeFragments writes the bare-bones I/O compute program evaluating
// the grid overlay over a buffer of texture coordinates. Texture coordinates
// are read from the SSBO at binding 0, resulting colors stored to binding 1
// and the quad texture texels read from binding 2 (row-major, dimensions in
// the tex_size uniform) with repeat wrapping and nearest filtering. Output
// begins with a "#shader compute" pragma for consumption by glgl's combined
// source parser.
func (p *Programmer) WriteComputeFragments(w io.Writer) (int, error) {
	n, err := io.WriteString(w, "#shader compute\n"+computeVersionStr)
	if err != nil {
		return n, err
	}
	d := p.defaults
	ngot, err := fmt.Fprintf(w, `
layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Input: texture coordinates at which to evaluate the overlay.
layout(std430, binding = 0) buffer TexCoordsBuffer {
    vec2 vbo_texcoords[];
};

// Output: resulting fragment colors. Maps to the texcoord buffer.
layout(std430, binding = 1) buffer ColorsBuffer {
    vec4 vbo_colors[];
};

// The quad texture sampled by the overlay, texels in row-major order.
layout(std430, binding = 2) buffer TexelsBuffer {
    vec4 vbo_texels[];
};

uniform ivec2 tex_size;
uniform vec2 offset = vec2(%s, %s);
uniform float zoom_exp = %s;
uniform vec2 viewport = vec2(%s, %s);

const float gridSize = %s;

vec4 sampleRepeatNearest(vec2 uv) {
	vec2 sz = vec2(tex_size);
	vec2 st = uv - floor(uv); // repeat wrap.
	ivec2 p = ivec2(min(floor(st*sz), sz - 1.0));
	return vbo_texels[p.y*tex_size.x + p.x];
}

void main() {
	int idx = int( gl_GlobalInvocationID.x );

	vec2 tc = vbo_texcoords[idx];
	vec4 texelColor = sampleRepeatNearest(tc);
	float zoom = 1.0/exp2(zoom_exp);
	vec2 rel = mod((tc*viewport - offset)*zoom, gridSize);
	vbo_colors[idx] = (rel.x < 0.5 || rel.y < 0.5) ? texelColor : vec4(0.0);
}
`, p.invocX, ftoa(d.Offset.X), ftoa(d.Offset.Y), ftoa(d.ZoomExp),
		ftoa(d.Viewport.X), ftoa(d.Viewport.Y), ftoa(glgrid.GridSize))
	return n + ngot, err
}

// ftoa formats a float for GLSL source, always with a decimal point or
// exponent so the literal parses as floating point.
func ftoa(f float32) string {
	s := fmt.Sprintf("%g", f)
	for _, c := range s {
		if c == '.' || c == 'e' {
			return s
		}
	}
	return s + ".0"
}
