// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu wraps the GL objects a headless render pass needs: a linked
// Program, a RenderTarget with color and depth renderbuffers, and
// StorageBuffers for shader-readable data.
//
// Every function in this package issues GL calls and therefore requires a
// context to be current on the calling thread (see glcontext.Context.Do).
// GL errors are checked after each call and returned as *Error values that
// carry the GL error code and the Go call site.
//
// Usage:
//
//	err := ctx.Do(func() error {
//	    target, err := gpu.NewRenderTarget[uint8](64, 64)
//	    if err != nil {
//	        return err
//	    }
//	    defer target.Delete()
//	    ...
//	})
package gpu

// Pixel is the closed set of render target element types. uint8 maps to an
// RGBA8 color buffer, float32 to RGBA32F.
type Pixel interface {
	uint8 | float32
}

// Element is any fixed-size value that can be uploaded into a storage buffer.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 | ~int64 | ~uint64 | ~float64
}
