// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/internal/cleanup"
)

// Interface is a program interface that named resources are looked up in.
type Interface uint32

// Program interfaces.
const (
	InterfaceUniform            Interface = gl.UNIFORM
	InterfaceUniformBlock       Interface = gl.UNIFORM_BLOCK
	InterfaceShaderStorageBlock Interface = gl.SHADER_STORAGE_BLOCK
	InterfaceBufferVariable     Interface = gl.BUFFER_VARIABLE
	InterfaceProgramInput       Interface = gl.PROGRAM_INPUT
	InterfaceProgramOutput      Interface = gl.PROGRAM_OUTPUT
)

func (i Interface) String() string {
	switch i {
	case InterfaceUniform:
		return "uniform"
	case InterfaceUniformBlock:
		return "uniform block"
	case InterfaceShaderStorageBlock:
		return "shader storage block"
	case InterfaceBufferVariable:
		return "buffer variable"
	case InterfaceProgramInput:
		return "program input"
	case InterfaceProgramOutput:
		return "program output"
	default:
		return fmt.Sprintf("Interface(%#x)", uint32(i))
	}
}

// Resource properties for GetResourceProperty.
const (
	PropType          uint32 = gl.TYPE
	PropLocation      uint32 = gl.LOCATION
	PropBufferBinding uint32 = gl.BUFFER_BINDING
	PropArraySize     uint32 = gl.ARRAY_SIZE
)

// Program is a linked GL program.
type Program struct {
	handle uint32
}

type stageShader struct {
	id       uint32
	attached bool
}

// NewProgram compiles shaders in order, attaches them to a new program and
// links it. Either a linked program is returned or nothing is left behind: a
// compile or link failure deletes every object created so far and reports
// the driver log.
func NewProgram(shaders []ShaderSource) (*Program, error) {
	if len(shaders) == 0 {
		return nil, errors.New("gpu: program needs at least one shader")
	}

	var undo cleanup.Stack
	defer undo.Run()

	handle := gl.CreateProgram()
	if err := Check("glCreateProgram"); err != nil {
		return nil, err
	}
	if handle == 0 {
		return nil, errorAt(0, "glCreateProgram", 0, "")
	}
	undo.Push(func() { gl.DeleteProgram(handle) })

	// Shaders are detached and deleted once linking is over, whatever the
	// outcome; a linked program keeps its own reference to the code.
	var stages []stageShader
	defer func() {
		for _, s := range stages {
			if s.attached {
				gl.DetachShader(handle, s.id)
			}
			gl.DeleteShader(s.id)
		}
		_ = Check("glDeleteShader")
	}()

	for _, src := range shaders {
		id, err := compileShader(src)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stageShader{id: id})

		gl.AttachShader(handle, id)
		if err := Check("glAttachShader"); err != nil {
			return nil, err
		}
		stages[len(stages)-1].attached = true
	}

	gl.LinkProgram(handle)
	if err := Check("glLinkProgram"); err != nil {
		return nil, err
	}
	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status != gl.TRUE {
		var n int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &n)
		log := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(handle, n, nil, gl.Str(log))
		return nil, errorAt(0, "glLinkProgram", 0, log)
	}

	undo.Release()
	headless.Logger().Debug("gpu: program linked", "program", handle, "stages", len(shaders))
	return &Program{handle: handle}, nil
}

// Handle returns the GL program name, 0 after Delete.
func (p *Program) Handle() uint32 { return p.handle }

// Use installs p as the current program.
func (p *Program) Use() error {
	if p.handle == 0 {
		return ErrDeleted
	}
	gl.UseProgram(p.handle)
	return Check("glUseProgram")
}

// GetResourceProperty returns the values of props for the active resource
// name in iface. The result is read from the driver on every call.
func (p *Program) GetResourceProperty(name string, iface Interface, props []uint32) ([]int32, error) {
	if p.handle == 0 {
		return nil, ErrDeleted
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: no properties requested", ErrPropertyCount)
	}

	index := gl.GetProgramResourceIndex(p.handle, uint32(iface), gl.Str(name+"\x00"))
	if err := Check("glGetProgramResourceIndex"); err != nil {
		return nil, err
	}
	if index == gl.INVALID_INDEX {
		return nil, fmt.Errorf("%w: %s %q", ErrResourceNotFound, iface, name)
	}

	values := make([]int32, len(props))
	var length int32
	gl.GetProgramResourceiv(p.handle, uint32(iface), index,
		int32(len(props)), &props[0], int32(len(values)), &length, &values[0])
	if err := Check("glGetProgramResourceiv"); err != nil {
		return nil, err
	}
	if int(length) != len(props) {
		return nil, fmt.Errorf("%w: %s %q returned %d of %d values",
			ErrPropertyCount, iface, name, length, len(props))
	}
	return values, nil
}

// Delete deletes the program. It is safe to call more than once.
func (p *Program) Delete() {
	if p.handle == 0 {
		return
	}
	gl.DeleteProgram(p.handle)
	p.handle = 0
}
