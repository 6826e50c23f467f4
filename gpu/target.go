// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/internal/cleanup"
)

// RenderTarget is a framebuffer with a color renderbuffer in the format of T
// and a 24-bit depth renderbuffer. Both stay attached for its whole life.
type RenderTarget[T Pixel] struct {
	width       int
	height      int
	color       uint32
	depth       uint32
	framebuffer uint32
}

// pixelFormat returns the renderbuffer internal format and the glReadPixels
// type for T.
func pixelFormat[T Pixel]() (internal, readType uint32, format gputypes.TextureFormat) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return gl.RGBA8, gl.UNSIGNED_BYTE, gputypes.TextureFormatRGBA8Unorm
	default:
		return gl.RGBA32F, gl.FLOAT, gputypes.TextureFormatRGBA32Float
	}
}

// MaxRenderbufferSize returns GL_MAX_RENDERBUFFER_SIZE.
func MaxRenderbufferSize() (int, error) {
	var size int32
	gl.GetIntegerv(gl.MAX_RENDERBUFFER_SIZE, &size)
	if err := Check("glGetIntegerv"); err != nil {
		return 0, err
	}
	return int(size), nil
}

// NewRenderTarget creates a render target of width x height pixels. Both
// sizes must lie in 1..MaxRenderbufferSize. The framebuffer is left bound.
func NewRenderTarget[T Pixel](width, height int) (*RenderTarget[T], error) {
	maxSize, err := MaxRenderbufferSize()
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width > maxSize || height > maxSize {
		return nil, fmt.Errorf("%w: %dx%d (max %d)", ErrInvalidDimensions, width, height, maxSize)
	}
	internal, _, _ := pixelFormat[T]()

	var undo cleanup.Stack
	defer undo.Run()

	color, err := newRenderbuffer(internal, width, height)
	if err != nil {
		return nil, err
	}
	undo.Push(func() { gl.DeleteRenderbuffers(1, &color) })

	depth, err := newRenderbuffer(gl.DEPTH_COMPONENT24, width, height)
	if err != nil {
		return nil, err
	}
	undo.Push(func() { gl.DeleteRenderbuffers(1, &depth) })

	var fb uint32
	gl.GenFramebuffers(1, &fb)
	if err := Check("glGenFramebuffers"); err != nil {
		return nil, err
	}
	undo.Push(func() { gl.DeleteFramebuffers(1, &fb) })

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	if err := Check("glBindFramebuffer"); err != nil {
		return nil, err
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, color)
	if err := Check("glFramebufferRenderbuffer"); err != nil {
		return nil, err
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, depth)
	if err := Check("glFramebufferRenderbuffer"); err != nil {
		return nil, err
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return nil, errorAt(0, "glCheckFramebufferStatus", 0, fmt.Sprintf("framebuffer incomplete (status %#x)", status))
	}

	undo.Release()
	headless.Logger().Debug("gpu: render target created",
		"width", width, "height", height, "framebuffer", fb)
	return &RenderTarget[T]{
		width:       width,
		height:      height,
		color:       color,
		depth:       depth,
		framebuffer: fb,
	}, nil
}

func newRenderbuffer(internal uint32, width, height int) (uint32, error) {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	if err := Check("glGenRenderbuffers"); err != nil {
		return 0, err
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, internal, int32(width), int32(height))
	if err := Check("glRenderbufferStorage"); err != nil {
		gl.DeleteRenderbuffers(1, &rb)
		return 0, err
	}
	return rb, nil
}

// Width returns the width in pixels.
func (t *RenderTarget[T]) Width() int { return t.width }

// Height returns the height in pixels.
func (t *RenderTarget[T]) Height() int { return t.height }

// Format returns the color buffer format.
func (t *RenderTarget[T]) Format() gputypes.TextureFormat {
	_, _, f := pixelFormat[T]()
	return f
}

// BindFramebuffer binds the framebuffer for drawing and reading.
func (t *RenderTarget[T]) BindFramebuffer() error {
	if t.framebuffer == 0 {
		return ErrDeleted
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.framebuffer)
	return Check("glBindFramebuffer")
}

// ReadPixels reads all four channels of every pixel into buf, bottom row
// first. len(buf) must be exactly width*height*4. The framebuffer must be
// bound.
func (t *RenderTarget[T]) ReadPixels(buf []T) error {
	if t.framebuffer == 0 {
		return ErrDeleted
	}
	if want := t.width * t.height * 4; len(buf) != want {
		return fmt.Errorf("%w: read buffer has %d elements, want %d (%dx%dx4)",
			ErrBufferSize, len(buf), want, t.width, t.height)
	}
	_, readType, _ := pixelFormat[T]()
	gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, readType, gl.Ptr(buf))
	return Check("glReadPixels")
}

// Delete deletes the framebuffer and both renderbuffers. It is safe to call
// more than once.
func (t *RenderTarget[T]) Delete() {
	if t.framebuffer == 0 {
		return
	}
	gl.DeleteFramebuffers(1, &t.framebuffer)
	gl.DeleteRenderbuffers(1, &t.color)
	gl.DeleteRenderbuffers(1, &t.depth)
	t.framebuffer, t.color, t.depth = 0, 0, 0
}
