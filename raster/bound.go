// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster

import (
	"errors"
	"runtime"
	"sync"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/glcontext"
	"github.com/gogpu/headless/gpu"
)

// ErrClosed is returned when a Bound is used after Close.
var ErrClosed = errors.New("raster: bound rasterizer is closed")

// Bound is a Rasterizer with its own EGL context. Every method makes the
// context current on a locked OS thread, runs, and releases it again, so a
// Bound can be called from any goroutine. Calls must not overlap.
type Bound[T gpu.Pixel] struct {
	ctx *glcontext.Context
	r   *Rasterizer[T]

	closeOnce sync.Once
	closed    bool
}

// NewBound creates a context and builds a rasterizer in it. The context is
// not left current on the calling thread.
func NewBound[T gpu.Pixel](width, height int, vertex, geometry, fragment string, opts ...Option) (*Bound[T], error) {
	return NewBoundFromSources[T](width, height, Sources(vertex, geometry, fragment), opts...)
}

// NewBoundFromSources is NewBound with an explicit shader list.
func NewBoundFromSources[T gpu.Pixel](width, height int, shaders []gpu.ShaderSource, opts ...Option) (*Bound[T], error) {
	o := resolve(opts)

	ctx, err := glcontext.New(o.context...)
	if err != nil {
		return nil, err
	}

	var r *Rasterizer[T]
	err = ctx.Do(func() error {
		var err error
		r, err = newRasterizer[T](width, height, shaders, o)
		return err
	})
	if err != nil {
		ctx.Close()
		return nil, err
	}

	headless.Logger().Debug("raster: bound rasterizer created",
		"context", ctx.ID(), "width", width, "height", height)
	return &Bound[T]{ctx: ctx, r: r}, nil
}

// Do runs fn with the context current. It gives access to the rasterizer
// for calls Bound does not wrap, such as SetStorageBuffer with other
// element types.
func (b *Bound[T]) Do(fn func(r *Rasterizer[T]) error) error {
	if b.closed {
		return ErrClosed
	}
	return b.ctx.Do(func() error { return fn(b.r) })
}

// ID returns the identifier of the underlying context.
func (b *Bound[T]) ID() string { return b.ctx.ID() }

// Width returns the render target width.
func (b *Bound[T]) Width() int { return b.r.Width() }

// Height returns the render target height.
func (b *Bound[T]) Height() int { return b.r.Height() }

// Render draws numPoints points into result. See Rasterizer.Render.
func (b *Bound[T]) Render(numPoints int, result []T) error {
	return b.Do(func(r *Rasterizer[T]) error { return r.Render(numPoints, result) })
}

// SetShaderStorageBuffer uploads data into the named storage buffer.
func (b *Bound[T]) SetShaderStorageBuffer(name string, data []float32) error {
	return b.Do(func(r *Rasterizer[T]) error { return r.SetShaderStorageBuffer(name, data) })
}

// SetUniformMatrix sets the float matrix uniform name.
func (b *Bound[T]) SetUniformMatrix(name string, cols, rows int, transpose bool, data []float32) error {
	return b.Do(func(r *Rasterizer[T]) error {
		return r.SetUniformMatrix(name, cols, rows, transpose, data)
	})
}

// SetUniformMat4 sets a mat4 uniform from a row-major matrix.
func (b *Bound[T]) SetUniformMat4(name string, m f32.Mat4) error {
	return b.Do(func(r *Rasterizer[T]) error { return r.SetUniformMat4(name, m) })
}

// Close deletes the GL objects with the context current, then destroys the
// context. GL objects must never be deleted under a foreign context, so a
// failure to make the context current is fatal. Close is idempotent.
func (b *Bound[T]) Close() {
	b.closeOnce.Do(func() {
		b.closed = true

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := b.ctx.MakeCurrent(); err != nil {
			glcontext.Fatal("raster: making context current for teardown", err)
			return
		}
		b.r.Reset()
		b.ctx.Close()
	})
}
