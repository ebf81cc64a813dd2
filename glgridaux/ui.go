//go:build !tinygo && cgo

package glgridaux

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glgrid"
	"github.com/soypat/glgrid/glbuild"
)

// Zoom exponent range exposed to the viewer. Finer grids than 2^3 per cell
// alias badly and coarser than 2^-2 stops reading as a grid.
const (
	minZoomExp = -3.0
	maxZoomExp = 2.0
)

func ui(tex *glgrid.ImageTexture, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		log.Fatal(err)
	}
	defer term()

	programmer := glbuild.NewDefaultProgrammer()
	var generated bytes.Buffer
	_, err = programmer.WriteFragmentShader(&generated)
	if err != nil {
		return err
	}
	// Swap the programmer's version pragma, the window context is 4.6.
	var fragSrc bytes.Buffer
	fragSrc.WriteString("#version 460\n")
	if i := bytes.IndexByte(generated.Bytes(), '\n'); i >= 0 {
		fragSrc.Write(generated.Bytes()[i+1:])
	}
	fragSrc.WriteByte(0)

	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex: `#version 460
in vec2 aPos;
out vec2 fragTexCoord;
out vec4 fragColor;
void main() {
    fragTexCoord = vec2(aPos.x*0.5 + 0.5, 0.5 - aPos.y*0.5);
    fragColor = vec4(1.0);
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00",
		Fragment: fragSrc.String(),
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", fragSrc.String(), err)
	}
	prog.Bind()

	// Fullscreen quad.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)

	offName, zoomName, vpName := glbuild.UniformNames()
	offsetUniform, err := prog.UniformLocation(offName + "\x00")
	if err != nil {
		return err
	}
	zoomExpUniform, err := prog.UniformLocation(zoomName + "\x00")
	if err != nil {
		return err
	}
	viewportUniform, err := prog.UniformLocation(vpName + "\x00")
	if err != nil {
		return err
	}

	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	err = uploadQuadTexture(tex)
	if err != nil {
		return err
	}

	// Pan/zoom state. Zooming retargets the pan so the grid stays put under
	// the cursor: the pre-zoom cursor offset contribution is removed at the
	// old zoom and added back at the new one.
	var (
		offset         ms2.Vec
		zoomExp        float32
		lastMouseX     float64
		lastMouseY     float64
		isMousePressed = false
		firstMouseMove = true
	)
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
		} else if action == glfw.Release {
			isMousePressed = false
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !isMousePressed {
			return
		}
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		deltaX := float32(xpos - lastMouseX)
		deltaY := float32(ypos - lastMouseY)
		lastMouseX = xpos
		lastMouseY = ypos
		// The grid origin sits at screen pixel `offset`, so the grid follows
		// the cursor one to one at any zoom.
		offset = ms2.Add(offset, ms2.Vec{X: deltaX, Y: deltaY})
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		newZoomExp := clampf(zoomExp+float32(yoff), minZoomExp, maxZoomExp)
		if newZoomExp == zoomExp {
			return
		}
		cx, cy := window.GetCursorPos()
		cursor := ms2.Vec{X: float32(cx), Y: float32(cy)}
		// Keep the grid stationary under the cursor:
		// (cursor-offset')*zoom' == (cursor-offset)*zoom.
		zoomRatio := math32.Exp2(newZoomExp - zoomExp)
		offset = ms2.Sub(cursor, ms2.Scale(zoomRatio, ms2.Sub(cursor, offset)))
		zoomExp = newZoomExp
	})

	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		width, height := window.GetSize()
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		prog.Bind()
		gl.Uniform2f(offsetUniform, offset.X, offset.Y)
		gl.Uniform1f(zoomExpUniform, zoomExp)
		gl.Uniform2f(viewportUniform, float32(width), float32(height))

		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()

		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return nil
}

// uploadQuadTexture loads the overlay's quad texture into texture unit 0,
// matching the fragment shader's texture0 sampler binding.
func uploadQuadTexture(tex *glgrid.ImageTexture) error {
	w, h := tex.Size()
	texels := tex.Texels()
	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(w), int32(h), 0, gl.RGBA, gl.FLOAT, gl.Ptr(texels))
	return glgl.Err()
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		log.Fatalln("Failed to initialize GLFW:", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "glgrid overlay viewer", nil, nil)
	if err != nil {
		log.Fatalln("Failed to create GLFW window:", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalln("Failed to initialize OpenGL:", err)
	}
	return window, glfw.Terminate, err
}
