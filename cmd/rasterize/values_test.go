// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/headless/op"
)

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader("# camera\n1 2 3\n\n  4\t5 6  \n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = readRows(strings.NewReader("1 2\n3 x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestTensorFor(t *testing.T) {
	rows := [][]float32{{1, 2, 3}, {4, 5, 6}}

	m, err := tensorFor(op.KindMatrix, rows)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, m.Shape)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Data)

	b, err := tensorFor(op.KindBuffer, rows)
	require.NoError(t, err)
	assert.Equal(t, []int{6}, b.Shape)

	_, err = tensorFor(op.KindMatrix, [][]float32{{1, 2}, {3}})
	assert.Error(t, err)
	_, err = tensorFor(op.KindMatrix, nil)
	assert.Error(t, err)
	_, err = tensorFor(op.Kind(0), rows)
	assert.Error(t, err)
}

func TestLoadValues(t *testing.T) {
	dir := t.TempDir()
	mesh := filepath.Join(dir, "mesh.txt")
	camera := filepath.Join(dir, "camera.txt")
	require.NoError(t, os.WriteFile(mesh, []byte("-10 10 2  10 10 2  0 -10 2\n-10 10 3  10 10 3  0 -10 3\n"), 0o644))
	require.NoError(t, os.WriteFile(camera, []byte("1 0\n0 1\n"), 0o644))

	decl := []op.Variable{
		{Name: "view_projection_matrix", Kind: op.KindMatrix},
		{Name: "triangular_mesh", Kind: op.KindBuffer},
	}

	values, points, err := loadValues(decl, varFlags{
		"view_projection_matrix": camera,
		"triangular_mesh":        mesh,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, points)
	assert.Equal(t, []int{2, 2}, values[0].Shape)
	assert.Len(t, values[1].Data, 18)

	_, _, err = loadValues(decl, varFlags{"triangular_mesh": mesh})
	assert.ErrorContains(t, err, "view_projection_matrix")

	_, _, err = loadValues(decl, varFlags{
		"view_projection_matrix": camera,
		"triangular_mesh":        mesh,
		"extra":                  mesh,
	})
	assert.ErrorContains(t, err, "extra")
}

func TestVarFlags(t *testing.T) {
	v := varFlags{}
	require.NoError(t, v.Set("mesh=a/b.txt"))
	assert.Equal(t, "a/b.txt", v["mesh"])
	assert.Error(t, v.Set("mesh"))
	assert.Error(t, v.Set("=x"))
}

func TestSave(t *testing.T) {
	img := op.NewImage(2, 3)
	for i := range img.Pix {
		img.Pix[i] = 0.5
	}
	dir := t.TempDir()
	for _, name := range []string{"frame.png", "frame.tiff", "frame.TIF"} {
		path := filepath.Join(dir, name)
		require.NoError(t, save(path, img.NRGBA64()), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
	assert.Error(t, save(filepath.Join(dir, "frame.jpg"), img.NRGBA64()))
}
