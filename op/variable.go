// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package op

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks bad operator configuration or input values.
var ErrInvalidArgument = errors.New("op: invalid argument")

// Kind says how a variable reaches the shaders.
type Kind uint8

const (
	// KindMatrix is a float matrix uniform. Its value has shape [rows, cols]
	// and is stored row-major.
	KindMatrix Kind = iota + 1
	// KindBuffer is a shader storage buffer. Its value has shape [n].
	KindBuffer
)

// String returns "mat" or "buffer".
func (k Kind) String() string {
	switch k {
	case KindMatrix:
		return "mat"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses "mat" or "buffer".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "mat":
		return KindMatrix, nil
	case "buffer":
		return KindBuffer, nil
	}
	return 0, fmt.Errorf("%w: unknown variable kind %q", ErrInvalidArgument, s)
}

// Variable is a named shader input.
type Variable struct {
	Name string
	Kind Kind
}

// Variables pairs names with kind names ("mat" or "buffer").
func Variables(names, kinds []string) ([]Variable, error) {
	if len(names) != len(kinds) {
		return nil, fmt.Errorf("%w: %d variable names but %d kinds",
			ErrInvalidArgument, len(names), len(kinds))
	}
	vars := make([]Variable, len(names))
	for i, name := range names {
		k, err := ParseKind(kinds[i])
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		vars[i] = Variable{Name: name, Kind: k}
	}
	return vars, nil
}

// Tensor is a dense float32 value with a shape.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Matrix returns a rows x cols tensor over row-major data.
func Matrix(rows, cols int, data []float32) Tensor {
	return Tensor{Shape: []int{rows, cols}, Data: data}
}

// Vector returns a one-dimensional tensor over data.
func Vector(data []float32) Tensor {
	return Tensor{Shape: []int{len(data)}, Data: data}
}

func (t Tensor) elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// check reports whether value can be applied to v.
func (v Variable) check(value Tensor) error {
	ok := value.elements() == len(value.Data)
	switch v.Kind {
	case KindMatrix:
		ok = ok && len(value.Shape) == 2
	case KindBuffer:
		ok = ok && len(value.Shape) == 1
	default:
		ok = false
	}
	if !ok {
		return fmt.Errorf("%w: cannot handle variable %q with kind %s, shape %v and %d values",
			ErrInvalidArgument, v.Name, v.Kind, value.Shape, len(value.Data))
	}
	return nil
}
