// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// Contract violations. They are wrapped with details, so match them with
// errors.Is.
var (
	// ErrResourceNotFound is returned when a name is not an active resource
	// of the program interface it was looked up in.
	ErrResourceNotFound = errors.New("gpu: resource not found")

	// ErrPropertyCount is returned when the driver returns a different number
	// of property values than requested.
	ErrPropertyCount = errors.New("gpu: property count mismatch")

	// ErrBufferSize is returned when a caller supplied buffer has the wrong
	// length.
	ErrBufferSize = errors.New("gpu: buffer size mismatch")

	// ErrMatrixShape is returned when matrix data or a declared uniform does
	// not match the requested columns and rows.
	ErrMatrixShape = errors.New("gpu: matrix shape mismatch")

	// ErrUnsupportedStage is returned for a shader stage outside the known set
	// or not supported by the shader language.
	ErrUnsupportedStage = errors.New("gpu: unsupported shader stage")

	// ErrInvalidDimensions is returned for render target sizes outside
	// 1..GL_MAX_RENDERBUFFER_SIZE.
	ErrInvalidDimensions = errors.New("gpu: invalid render target dimensions")

	// ErrDeleted is returned when using an object after Delete.
	ErrDeleted = errors.New("gpu: object has been deleted")
)

// Error is a failed GL operation.
type Error struct {
	Op   string // what was being done, e.g. "glLinkProgram"
	Code uint32 // glGetError value, 0 when the failure is a status check
	Log  string // compiler or linker log, if any
	File string // Go call site
	Line int
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("gpu: ")
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.Code != 0 {
		fmt.Fprintf(&b, ": GL error 0x%04x (%s)", e.Code, CodeName(e.Code))
	}
	if log := strings.TrimRight(e.Log, "\x00 \n"); log != "" {
		b.WriteString(": ")
		b.WriteString(log)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " at %s:%d", e.File, e.Line)
	}
	return b.String()
}

var codeNames = map[uint32]string{
	gl.INVALID_ENUM:                  "GL_INVALID_ENUM",
	gl.INVALID_VALUE:                 "GL_INVALID_VALUE",
	gl.INVALID_OPERATION:             "GL_INVALID_OPERATION",
	gl.STACK_OVERFLOW:                "GL_STACK_OVERFLOW",
	gl.STACK_UNDERFLOW:               "GL_STACK_UNDERFLOW",
	gl.OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
	gl.INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	gl.CONTEXT_LOST:                  "GL_CONTEXT_LOST",
}

// CodeName returns the symbolic name of a GL error code.
func CodeName(code uint32) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "GL_UNKNOWN_ERROR"
}

// errorAt builds an Error located skip frames above its caller; skip 0 is
// the caller itself.
func errorAt(skip int, op string, code uint32, log string) *Error {
	e := &Error{Op: op, Code: code, Log: log}
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		e.File, e.Line = file, line
	}
	return e
}

// Check reports the pending GL error, if any, as a failure of op at the
// caller's location. Call it right after the GL call it is named for.
func Check(op string) error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	// Drain further flags so they are not blamed on the next call.
	for range 8 {
		if gl.GetError() == gl.NO_ERROR {
			break
		}
	}
	return errorAt(1, op, code, "")
}
