// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// MatrixShape is the size of a float matrix uniform.
type MatrixShape struct {
	Cols, Rows int
}

func (s MatrixShape) String() string { return fmt.Sprintf("%dx%d", s.Cols, s.Rows) }

type matrixSetter func(location int32, count int32, transpose bool, value *float32)

type matrixType struct {
	shape MatrixShape
	set   matrixSetter
}

// GL names matrix types as FLOAT_MAT<cols>x<rows>.
var matrixTypes = map[uint32]matrixType{
	gl.FLOAT_MAT2:   {MatrixShape{2, 2}, gl.UniformMatrix2fv},
	gl.FLOAT_MAT3:   {MatrixShape{3, 3}, gl.UniformMatrix3fv},
	gl.FLOAT_MAT4:   {MatrixShape{4, 4}, gl.UniformMatrix4fv},
	gl.FLOAT_MAT2x3: {MatrixShape{2, 3}, gl.UniformMatrix2x3fv},
	gl.FLOAT_MAT2x4: {MatrixShape{2, 4}, gl.UniformMatrix2x4fv},
	gl.FLOAT_MAT3x2: {MatrixShape{3, 2}, gl.UniformMatrix3x2fv},
	gl.FLOAT_MAT3x4: {MatrixShape{3, 4}, gl.UniformMatrix3x4fv},
	gl.FLOAT_MAT4x2: {MatrixShape{4, 2}, gl.UniformMatrix4x2fv},
	gl.FLOAT_MAT4x3: {MatrixShape{4, 3}, gl.UniformMatrix4x3fv},
}

// MatrixShapeOf returns the shape of a GL float matrix type enum.
func MatrixShapeOf(glType uint32) (MatrixShape, bool) {
	t, ok := matrixTypes[glType]
	return t.shape, ok
}

// SetUniformMatrix uploads data into the float matrix uniform name.
//
// data holds cols*rows values in column-major order, or row-major with
// transpose set. The uniform must be active and declared with exactly the
// requested shape. No program is bound afterwards.
func (p *Program) SetUniformMatrix(name string, cols, rows int, transpose bool, data []float32) error {
	if cols <= 0 || rows <= 0 || cols*rows != len(data) {
		return fmt.Errorf("%w: %dx%d matrix needs %d values, got %d",
			ErrMatrixShape, cols, rows, max(cols*rows, 0), len(data))
	}

	values, err := p.GetResourceProperty(name, InterfaceUniform, []uint32{PropType})
	if err != nil {
		return err
	}
	t, ok := matrixTypes[uint32(values[0])]
	if !ok {
		return fmt.Errorf("%w: uniform %q has type %#x, not a float matrix",
			ErrMatrixShape, name, values[0])
	}
	if want := (MatrixShape{cols, rows}); t.shape != want {
		return fmt.Errorf("%w: uniform %q is %s, got %s", ErrMatrixShape, name, t.shape, want)
	}

	values, err = p.GetResourceProperty(name, InterfaceUniform, []uint32{PropLocation})
	if err != nil {
		return err
	}

	if err := p.Use(); err != nil {
		return err
	}
	defer gl.UseProgram(0)

	t.set(values[0], 1, transpose, &data[0])
	return Check("glUniformMatrix")
}
