// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package op

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/headless/gpu"
	"github.com/gogpu/headless/glcontext"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("mat")
	require.NoError(t, err)
	assert.Equal(t, KindMatrix, k)
	assert.Equal(t, "mat", k.String())

	k, err = ParseKind("buffer")
	require.NoError(t, err)
	assert.Equal(t, KindBuffer, k)
	assert.Equal(t, "buffer", k.String())

	_, err = ParseKind("texture")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestVariables(t *testing.T) {
	vars, err := Variables([]string{"m", "b"}, []string{"mat", "buffer"})
	require.NoError(t, err)
	assert.Equal(t, []Variable{{"m", KindMatrix}, {"b", KindBuffer}}, vars)

	_, err = Variables([]string{"m", "b"}, []string{"mat"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Variables([]string{"m"}, []string{"vec"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), `"m"`)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero height", Config{Height: 0, Width: 4}},
		{"negative width", Config{Height: 4, Width: -1}},
		{"bad kind", Config{Height: 4, Width: 4, Variables: []Variable{{"m", Kind(7)}}}},
		{"duplicate name", Config{Height: 4, Width: 4, Variables: []Variable{{"m", KindMatrix}, {"m", KindBuffer}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	r, err := New(Config{Height: 2, Width: 3})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "rasterize", r.Pool().Name())
	assert.Zero(t, r.Pool().Size(), "contexts are created lazily")
}

func TestComputeRejectsBadValues(t *testing.T) {
	r, err := New(Config{
		Height: 2, Width: 2,
		Variables: []Variable{
			{Name: "view_projection_matrix", Kind: KindMatrix},
			{Name: "triangular_mesh", Kind: KindBuffer},
		},
	})
	require.NoError(t, err)
	defer r.Close()

	mat := Matrix(4, 4, make([]float32, 16))
	buf := Vector(make([]float32, 9))

	tests := []struct {
		name      string
		points    int
		values    []Tensor
		mentioned string
	}{
		{"too few values", 1, []Tensor{mat}, "2 variables"},
		{"too many values", 1, []Tensor{mat, buf, buf}, "3 values"},
		{"matrix with one dimension", 1, []Tensor{Vector(make([]float32, 16)), buf}, "view_projection_matrix"},
		{"buffer with two dimensions", 1, []Tensor{mat, Matrix(3, 3, make([]float32, 9))}, "triangular_mesh"},
		{"shape and data disagree", 1, []Tensor{Matrix(4, 4, make([]float32, 12)), buf}, "view_projection_matrix"},
		{"negative points", -1, []Tensor{mat, buf}, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Compute(context.Background(), tt.points, tt.values)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.mentioned)
		})
	}
	assert.Zero(t, r.Pool().Size(), "invalid input must not create a context")
}

func TestTainted(t *testing.T) {
	assert.True(t, tainted(&gpu.Error{Op: "glDrawArrays", Code: 0x0502}))
	assert.True(t, tainted(&glcontext.Error{Op: "eglMakeCurrent", Code: 0x3002}))
	assert.False(t, tainted(gpu.ErrResourceNotFound))
	assert.False(t, tainted(errors.New("other")))
}

func TestImage(t *testing.T) {
	img := NewImage(2, 3)
	require.Len(t, img.Pix, 2*3*4)

	for i := range img.Pix {
		img.Pix[i] = float32(i)
	}
	assert.Equal(t, [4]float32{16, 17, 18, 19}, img.At(1, 1))

	img.FlipVertical()
	assert.Equal(t, [4]float32{4, 5, 6, 7}, img.At(1, 1))
	assert.Equal(t, [4]float32{12, 13, 14, 15}, img.At(0, 0))
}

func TestImageNRGBA64(t *testing.T) {
	img := NewImage(1, 2)
	copy(img.Pix, []float32{0, 0.5, 1, 1, -3, 7, 0.25, 0})

	out := img.NRGBA64()
	assert.Equal(t, color.NRGBA64{R: 0, G: 0x8000, B: 0xffff, A: 0xffff}, out.NRGBA64At(0, 0))
	assert.Equal(t, color.NRGBA64{R: 0, G: 0xffff, B: 0x4000, A: 0}, out.NRGBA64At(1, 0))
}
