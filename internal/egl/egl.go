// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package egl is a thin binding to the EGL calls needed for off-screen
// rendering: display setup, config selection, pbuffer surfaces and contexts.
//
// Every failing call returns an *Error carrying the eglGetError code and the
// file:line of the caller, so failures across the native boundary point back
// at the Go code that issued them.
package egl

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// Opaque EGL handles. cgo maps EGLDisplay and EGLConfig to uintptr, so those
// two are integers and use 0 as the null handle.
type (
	Display uintptr
	Config  uintptr
	Surface unsafe.Pointer
	Context unsafe.Pointer
)

// ErrUnsupported is returned on platforms without an EGL binding.
var ErrUnsupported = errors.New("egl: not supported on this platform")

// Error codes returned by eglGetError.
const (
	Success           int32 = 0x3000
	NotInitialized    int32 = 0x3001
	BadAccess         int32 = 0x3002
	BadAlloc          int32 = 0x3003
	BadAttribute      int32 = 0x3004
	BadConfig         int32 = 0x3005
	BadContext        int32 = 0x3006
	BadCurrentSurface int32 = 0x3007
	BadDisplay        int32 = 0x3008
	BadMatch          int32 = 0x3009
	BadNativePixmap   int32 = 0x300A
	BadNativeWindow   int32 = 0x300B
	BadParameter      int32 = 0x300C
	BadSurface        int32 = 0x300D
	ContextLost       int32 = 0x300E
)

// Attribute names and values used to describe configs and contexts.
const (
	AlphaSize                   int32 = 0x3021
	BlueSize                    int32 = 0x3022
	GreenSize                   int32 = 0x3023
	RedSize                     int32 = 0x3024
	DepthSize                   int32 = 0x3025
	StencilSize                 int32 = 0x3026
	SurfaceType                 int32 = 0x3033
	None                        int32 = 0x3038
	RenderableType              int32 = 0x3040
	Height                      int32 = 0x3056
	Width                       int32 = 0x3057
	PbufferBit                  int32 = 0x0001
	OpenGLES2Bit                int32 = 0x0004
	OpenGLBit                   int32 = 0x0008
	OpenGLES3Bit                int32 = 0x0040
	ContextMajorVersion         int32 = 0x3098
	ContextMinorVersion         int32 = 0x30FB
	ContextOpenGLProfileMask    int32 = 0x30FD
	ContextOpenGLCoreProfileBit int32 = 0x0001
)

// Client APIs accepted by BindAPI.
const (
	OpenGLESAPI uint32 = 0x30A0
	OpenGLAPI   uint32 = 0x30A2
)

var codeNames = map[int32]string{
	Success:           "EGL_SUCCESS",
	NotInitialized:    "EGL_NOT_INITIALIZED",
	BadAccess:         "EGL_BAD_ACCESS",
	BadAlloc:          "EGL_BAD_ALLOC",
	BadAttribute:      "EGL_BAD_ATTRIBUTE",
	BadConfig:         "EGL_BAD_CONFIG",
	BadContext:        "EGL_BAD_CONTEXT",
	BadCurrentSurface: "EGL_BAD_CURRENT_SURFACE",
	BadDisplay:        "EGL_BAD_DISPLAY",
	BadMatch:          "EGL_BAD_MATCH",
	BadNativePixmap:   "EGL_BAD_NATIVE_PIXMAP",
	BadNativeWindow:   "EGL_BAD_NATIVE_WINDOW",
	BadParameter:      "EGL_BAD_PARAMETER",
	BadSurface:        "EGL_BAD_SURFACE",
	ContextLost:       "EGL_CONTEXT_LOST",
}

// CodeName returns the symbolic name of an EGL error code.
func CodeName(code int32) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "EGL_UNKNOWN_ERROR"
}

// Error is a failed EGL call.
type Error struct {
	Op   string // EGL entry point, e.g. "eglMakeCurrent"
	Code int32  // eglGetError value
	File string // call site in Go
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("egl: %s failed: %s (%#x) at %s:%d", e.Op, CodeName(e.Code), e.Code, e.File, e.Line)
}

// newError records the caller of the exported binding as the call site.
func newError(op string, code int32) *Error {
	e := &Error{Op: op, Code: code}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File, e.Line = file, line
	}
	return e
}
