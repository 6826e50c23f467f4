// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glcontext owns off-screen EGL rendering contexts.
//
// A Context bundles an initialized display, a pbuffer surface and a GL
// context. EGL tracks the current context per OS thread, so MakeCurrent and
// Release act on the calling thread only and require the goroutine to be
// locked to it (runtime.LockOSThread). Do wraps that whole sequence.
//
// Creating and destroying a context are both expensive; callers that render
// repeatedly keep contexts alive, usually through package pool.
package glcontext

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/google/uuid"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/internal/cleanup"
	"github.com/gogpu/headless/internal/egl"
)

// Error is a failed EGL call with its error code and Go call site.
type Error = egl.Error

var (
	// ErrConfigCount is returned when the config attributes do not match
	// exactly one framebuffer config.
	ErrConfigCount = errors.New("glcontext: config attributes must match exactly one config")

	// ErrInvalidSize is returned for a non-positive pbuffer size.
	ErrInvalidSize = errors.New("glcontext: pbuffer size must be positive")

	// ErrClosed is returned by MakeCurrent and Do after Close.
	ErrClosed = errors.New("glcontext: context is closed")

	// ErrUnsupported is returned on platforms without EGL.
	ErrUnsupported = egl.ErrUnsupported
)

// GL entry points are process-wide; they are loaded through EGL once, while
// the first desktop GL context is current.
var (
	glInitOnce sync.Once
	glInitErr  error
	loadGL     = gl.Init
)

// exit terminates the process. Tests replace it.
var exit = os.Exit

// Fatal logs err at Error level and terminates the process. Teardown uses it
// when a native call fails, since GL state is unknown afterwards.
func Fatal(msg string, err error) {
	headless.Logger().Error(msg, "err", err)
	exit(1)
}

// Context is an off-screen EGL context with its own pbuffer surface.
//
// A Context must never be current on two threads at once. Nothing here
// detects that; it is up to the owner.
type Context struct {
	id      string
	api     API
	display egl.Display
	surface egl.Surface
	handle  egl.Context
	width   int
	height  int

	mu     sync.Mutex
	closed bool
}

// New creates a context. Everything allocated before a failing step is
// released again in reverse order.
func New(opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}

	// eglBindAPI is per thread and eglCreateContext reads it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var undo cleanup.Stack
	defer undo.Run()

	display, err := acquireDisplay(o.device)
	if err != nil {
		return nil, err
	}
	undo.Push(func() { _ = releaseDisplay(display) })

	if err := egl.BindAPI(uint32(o.api)); err != nil {
		return nil, err
	}

	config, n, err := egl.ChooseConfig(display, o.resolvedConfigAttribs())
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrConfigCount, n)
	}

	surface, err := egl.CreatePbufferSurface(display, config, o.width, o.height)
	if err != nil {
		return nil, err
	}
	undo.Push(func() { _ = egl.DestroySurface(display, surface) })

	handle, err := egl.CreateContext(display, config, o.resolvedContextAttribs())
	if err != nil {
		return nil, err
	}

	undo.Release()
	c := &Context{
		id:      uuid.NewString(),
		api:     o.api,
		display: display,
		surface: surface,
		handle:  handle,
		width:   o.width,
		height:  o.height,
	}
	headless.Logger().Info("glcontext: created",
		"id", c.id, "api", o.api, "device", o.device, "pbuffer", [2]int{o.width, o.height})
	return c, nil
}

// ID returns a unique identifier used in log records.
func (c *Context) ID() string { return c.id }

// MakeCurrent makes c current on the calling thread, with the pbuffer as draw
// and read surface. The calling goroutine must be locked to its OS thread.
// Contexts current on other threads are not affected.
func (c *Context) MakeCurrent() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := egl.BindAPI(uint32(c.api)); err != nil {
		return err
	}
	if err := egl.MakeCurrent(c.display, c.surface, c.handle); err != nil {
		return err
	}
	if c.api == OpenGL {
		glInitOnce.Do(func() {
			if err := loadGL(); err != nil {
				glInitErr = fmt.Errorf("glcontext: loading GL entry points: %w", err)
			}
		})
		if glInitErr != nil {
			// Callers do not release after a failed MakeCurrent.
			_ = egl.ReleaseCurrent(c.display)
			return glInitErr
		}
	}
	return nil
}

// Release unbinds c if it is current on the calling thread. It is a no-op
// otherwise, including after Close.
func (c *Context) Release() error {
	display, handle := c.handles()
	if handle == nil {
		return nil
	}
	if err := egl.BindAPI(uint32(c.api)); err != nil {
		return err
	}
	if egl.CurrentContext() != handle {
		return nil
	}
	return egl.ReleaseCurrent(display)
}

// Current reports whether c is current on the calling thread.
func (c *Context) Current() bool {
	_, handle := c.handles()
	if handle == nil || egl.BindAPI(uint32(c.api)) != nil {
		return false
	}
	return egl.CurrentContext() == handle
}

func (c *Context) handles() (egl.Display, egl.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display, c.handle
}

// Do runs fn with c current on a locked OS thread and releases c afterwards,
// whether or not fn fails. The first error wins.
func (c *Context) Do(fn func() error) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := c.MakeCurrent(); err != nil {
		return err
	}
	defer func() {
		if rerr := c.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Close releases c if current on the calling thread, then destroys the
// context and the surface and drops the display. A failure in any of these
// steps is fatal. Close must not be called while c is current on another
// thread. Calling Close more than once has no effect.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := c.Release(); err != nil {
		Fatal("glcontext: release during teardown", err)
	}
	if err := egl.DestroyContext(c.display, c.handle); err != nil {
		Fatal("glcontext: destroying context", err)
	}
	if err := egl.DestroySurface(c.display, c.surface); err != nil {
		Fatal("glcontext: destroying surface", err)
	}
	if err := releaseDisplay(c.display); err != nil {
		Fatal("glcontext: terminating display", err)
	}
	headless.Logger().Info("glcontext: closed", "id", c.id)
	c.mu.Lock()
	c.handle, c.surface, c.display = nil, nil, 0
	c.mu.Unlock()
}

// Size returns the pbuffer size.
func (c *Context) Size() (width, height int) { return c.width, c.height }
