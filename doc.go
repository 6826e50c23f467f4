// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package headless renders geometry into pixel buffers on the GPU without a
// window system.
//
// # Overview
//
// headless drives a single GL program through a single point draw into an
// off-screen framebuffer and reads the pixels back synchronously. It is built
// to be called once per step from many goroutines at the same time, each
// with its own EGL context.
//
// # Packages
//
//   - glcontext: EGL display + pbuffer surface + context, make-current/release
//   - gpu: Program, RenderTarget, StorageBuffer and the GL error type
//   - raster: Rasterizer (needs a current context) and Bound (owns one)
//   - pool: thread-safe pool of expensive resources handed out by lease
//   - op: variable-driven rasterize operator on top of a pool
//   - config: TOML configuration for the operator and the CLI
//   - metrics: Prometheus collectors for pools and renders
//
// # Quick Start
//
//	r, err := raster.NewBound[float32](64, 64, vs, gs, fs,
//	    raster.WithClearColor(gputypes.Color{R: 0.1, G: 0.2, B: 0.3}))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	pixels := make([]float32, 64*64*4)
//	if err := r.Render(0, pixels); err != nil {
//	    return err
//	}
//
// # Threads
//
// An EGL context is current per OS thread, not per goroutine. Everything that
// issues GL calls runs under runtime.LockOSThread; glcontext.Context.Do and
// raster.Bound take care of this. Code that uses raster.Rasterizer directly
// must lock the thread and make a context current itself.
//
// # Building
//
// glcontext links against libEGL through cgo, and the GL loader must resolve
// through EGL, so build with the go-gl egl tag:
//
//	go build -tags egl ./...
package headless

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
