// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package raster draws points through a GL program into an off-screen
// render target and reads the pixels back.
//
// A Rasterizer holds one program, one render target and a set of named
// storage buffers. It issues GL calls directly, so the caller must have a
// context current on the calling thread. A Bound owns its own context and
// makes it current around every call, which makes it usable from any
// goroutine (one at a time).
//
// Render runs the same pass every time:
//
//  1. blending off, depth test on, face culling off
//  2. each storage buffer is bound to the slot its shader storage block
//     declares; buffers the program does not use are skipped
//  3. the program is installed
//  4. the framebuffer is bound, the viewport set and color+depth cleared
//  5. numPoints points are drawn; a geometry stage usually expands each
//     point into a triangle read from a storage buffer
//  6. the pixels are read back into the caller's buffer
//
// Uniform names that do not resolve are errors, while storage buffers that
// do not resolve are skipped. This lets one rasterizer serve shader variants
// with different buffer sets.
package raster

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/gpu"
)

// ErrReset is returned when a Rasterizer is used after Reset.
var ErrReset = errors.New("raster: rasterizer has been reset")

// Rasterizer renders into a RenderTarget[T]. It is not safe for concurrent
// use and needs a current context for every method.
type Rasterizer[T gpu.Pixel] struct {
	program    *gpu.Program
	target     *gpu.RenderTarget[T]
	vao        uint32
	buffers    map[string]*gpu.StorageBuffer
	clear      gputypes.Color
	clearDepth float32
}

// Sources returns the shader list for a vertex/geometry/fragment pipeline.
// Empty sources are left out.
func Sources(vertex, geometry, fragment string) []gpu.ShaderSource {
	var shaders []gpu.ShaderSource
	for _, s := range []gpu.ShaderSource{
		{Code: vertex, Stage: gpu.StageVertex},
		{Code: geometry, Stage: gpu.StageGeometry},
		{Code: fragment, Stage: gpu.StageFragment},
	} {
		if s.Code != "" {
			shaders = append(shaders, s)
		}
	}
	return shaders
}

// New builds a rasterizer from GLSL vertex, geometry and fragment sources
// with a width x height render target. An empty geometry source omits that
// stage.
func New[T gpu.Pixel](width, height int, vertex, geometry, fragment string, opts ...Option) (*Rasterizer[T], error) {
	return NewFromSources[T](width, height, Sources(vertex, geometry, fragment), opts...)
}

// NewFromSources builds a rasterizer from an explicit shader list, which may
// include WGSL or SPIR-V stages.
func NewFromSources[T gpu.Pixel](width, height int, shaders []gpu.ShaderSource, opts ...Option) (*Rasterizer[T], error) {
	return newRasterizer[T](width, height, shaders, resolve(opts))
}

func newRasterizer[T gpu.Pixel](width, height int, shaders []gpu.ShaderSource, o options) (*Rasterizer[T], error) {
	program, err := gpu.NewProgram(shaders)
	if err != nil {
		return nil, fmt.Errorf("raster: building program: %w", err)
	}
	target, err := gpu.NewRenderTarget[T](width, height)
	if err != nil {
		program.Delete()
		return nil, fmt.Errorf("raster: creating render target: %w", err)
	}
	// Core profiles refuse draws without a vertex array object, even when
	// no attributes are read.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if err := gpu.Check("glGenVertexArrays"); err != nil {
		target.Delete()
		program.Delete()
		return nil, err
	}
	return &Rasterizer[T]{
		program:    program,
		target:     target,
		vao:        vao,
		buffers:    make(map[string]*gpu.StorageBuffer),
		clear:      o.clear,
		clearDepth: o.clearDepth,
	}, nil
}

// Width returns the render target width, 0 after Reset.
func (r *Rasterizer[T]) Width() int {
	if r.target == nil {
		return 0
	}
	return r.target.Width()
}

// Height returns the render target height, 0 after Reset.
func (r *Rasterizer[T]) Height() int {
	if r.target == nil {
		return 0
	}
	return r.target.Height()
}

// Program returns the linked program, nil after Reset.
func (r *Rasterizer[T]) Program() *gpu.Program { return r.program }

// SetShaderStorageBuffer uploads data into the storage buffer called name,
// creating it on first use. Earlier contents are replaced.
func (r *Rasterizer[T]) SetShaderStorageBuffer(name string, data []float32) error {
	return SetStorageBuffer(r, name, data)
}

// SetStorageBuffer is SetShaderStorageBuffer for any element type.
func SetStorageBuffer[T gpu.Pixel, E gpu.Element](r *Rasterizer[T], name string, data []E) error {
	if r.program == nil {
		return ErrReset
	}
	buf, ok := r.buffers[name]
	if !ok {
		var err error
		buf, err = gpu.NewStorageBuffer()
		if err != nil {
			return err
		}
		r.buffers[name] = buf
	}
	return gpu.Upload(buf, data)
}

// SetUniformMatrix sets the float matrix uniform name. See
// gpu.Program.SetUniformMatrix for the layout of data.
func (r *Rasterizer[T]) SetUniformMatrix(name string, cols, rows int, transpose bool, data []float32) error {
	if r.program == nil {
		return ErrReset
	}
	return r.program.SetUniformMatrix(name, cols, rows, transpose, data)
}

// SetUniformMat4 sets a mat4 uniform from a row-major matrix.
func (r *Rasterizer[T]) SetUniformMat4(name string, m f32.Mat4) error {
	return r.SetUniformMatrix(name, 4, 4, true, m[:])
}

// Render draws numPoints points and reads the result into result, which must
// hold width*height*4 elements. The first failing step aborts the pass; the
// program binding is then reset to 0.
func (r *Rasterizer[T]) Render(numPoints int, result []T) (err error) {
	if r.program == nil {
		return ErrReset
	}

	gl.Disable(gl.BLEND)
	if err := gpu.Check("glDisable(GL_BLEND)"); err != nil {
		return err
	}
	gl.Enable(gl.DEPTH_TEST)
	if err := gpu.Check("glEnable(GL_DEPTH_TEST)"); err != nil {
		return err
	}
	gl.Disable(gl.CULL_FACE)
	if err := gpu.Check("glDisable(GL_CULL_FACE)"); err != nil {
		return err
	}

	if err := r.bindBuffers(); err != nil {
		return err
	}

	// Uniform setters leave program 0 bound, so the program goes in last.
	if err := r.program.Use(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			gl.UseProgram(0)
		}
	}()

	if err := r.target.BindFramebuffer(); err != nil {
		return err
	}
	gl.Viewport(0, 0, int32(r.target.Width()), int32(r.target.Height()))
	if err := gpu.Check("glViewport"); err != nil {
		return err
	}
	gl.ClearColor(float32(r.clear.R), float32(r.clear.G), float32(r.clear.B), 1)
	gl.ClearDepthf(r.clearDepth)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if err := gpu.Check("glClear"); err != nil {
		return err
	}

	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(numPoints))
	if err := gpu.Check("glDrawArrays"); err != nil {
		return err
	}
	return r.target.ReadPixels(result)
}

func (r *Rasterizer[T]) bindBuffers() error {
	binding := []uint32{gpu.PropBufferBinding}
	for name, buf := range r.buffers {
		slot, err := r.program.GetResourceProperty(name, gpu.InterfaceShaderStorageBlock, binding)
		if errors.Is(err, gpu.ErrResourceNotFound) {
			headless.Logger().Debug("raster: storage buffer not used by program", "name", name)
			continue
		}
		if err != nil {
			return err
		}
		if err := buf.BindBufferBase(uint32(slot[0])); err != nil {
			return err
		}
	}
	return nil
}

// Reset deletes the program, the render target, the vertex array and all
// storage buffers. The context they were created in must be current. Reset
// is idempotent; the rasterizer is unusable afterwards.
func (r *Rasterizer[T]) Reset() {
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
	if r.target != nil {
		r.target.Delete()
		r.target = nil
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	for name, buf := range r.buffers {
		buf.Delete()
		delete(r.buffers, name)
	}
}
