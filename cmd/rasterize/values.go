// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/headless/op"
)

// readRows parses whitespace-separated floats, one slice per non-blank line.
// Lines starting with # are comments.
func readRows(r io.Reader) ([][]float32, error) {
	var rows [][]float32
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float32, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row[i] = float32(v)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}

// tensorFor shapes rows for a variable kind: a rectangular matrix, or all
// values flattened into a buffer.
func tensorFor(kind op.Kind, rows [][]float32) (op.Tensor, error) {
	switch kind {
	case op.KindMatrix:
		if len(rows) == 0 {
			return op.Tensor{}, fmt.Errorf("empty matrix")
		}
		cols := len(rows[0])
		data := make([]float32, 0, len(rows)*cols)
		for i, row := range rows {
			if len(row) != cols {
				return op.Tensor{}, fmt.Errorf("matrix row %d has %d values, want %d", i+1, len(row), cols)
			}
			data = append(data, row...)
		}
		return op.Matrix(len(rows), cols, data), nil
	case op.KindBuffer:
		var data []float32
		for _, row := range rows {
			data = append(data, row...)
		}
		return op.Vector(data), nil
	}
	return op.Tensor{}, fmt.Errorf("unknown variable kind %s", kind)
}
