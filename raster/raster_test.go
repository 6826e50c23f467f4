// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/headless/gpu"
	"github.com/gogpu/headless/internal/gltest"
	"github.com/gogpu/headless/pool"
	"github.com/gogpu/headless/raster"
)

const (
	emptyShader = "#version 430\nvoid main() { }\n"

	// A geometry stage must declare its primitive types to link.
	passGeometryShader = `#version 430
layout(points) in;
layout(points, max_vertices = 1) out;
void main() { }
`

	fragmentShader = `#version 430
layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
layout(location = 2) in vec2 bar_coord;
layout(location = 3) in float tri_id;

out vec4 output_color;

void main() {
  output_color = vec4(bar_coord, tri_id, position.z);
}
`

	geometryShader = `#version 430
uniform mat4 view_projection_matrix;

layout(points) in;
layout(triangle_strip, max_vertices = 3) out;

layout(location = 0) out vec3 position;
layout(location = 1) out vec3 normal;
layout(location = 2) out vec2 bar_coord;
layout(location = 3) out float tri_id;

layout(binding = 0) buffer triangular_mesh { float mesh_buffer[]; };

vec3 get_vertex_position(int i) {
  int o = gl_PrimitiveIDIn * 9 + i * 3;
  return vec3(mesh_buffer[o + 0], mesh_buffer[o + 1], mesh_buffer[o + 2]);
}

bool is_back_facing(vec3 v0, vec3 v1, vec3 v2) {
  vec4 tv0 = view_projection_matrix * vec4(v0, 1.0);
  vec4 tv1 = view_projection_matrix * vec4(v1, 1.0);
  vec4 tv2 = view_projection_matrix * vec4(v2, 1.0);
  tv0 /= tv0.w;
  tv1 /= tv1.w;
  tv2 /= tv2.w;
  vec2 a = (tv1.xy - tv0.xy);
  vec2 b = (tv2.xy - tv0.xy);
  return (a.x * b.y - b.x * a.y) <= 0;
}

void main() {
  vec3 v0 = get_vertex_position(0);
  vec3 v1 = get_vertex_position(1);
  vec3 v2 = get_vertex_position(2);

  if (is_back_facing(v0, v1, v2)) {
    return;
  }

  normal = normalize(cross(v1 - v0, v2 - v0));

  vec3 positions[3] = {v0, v1, v2};
  for (int i = 0; i < 3; ++i) {
    gl_Position = view_projection_matrix * vec4(positions[i], 1);
    bar_coord = vec2(i == 0 ? 1 : 0, i == 1 ? 1 : 0);
    tri_id = gl_PrimitiveIDIn;
    position = positions[i];
    EmitVertex();
  }
  EndPrimitive();
}
`
)

// viewProjection is column-major: a 60 degree perspective camera at the
// origin looking down +z.
var viewProjection = []float32{
	-1.73205, 0, 0, 0,
	0, 1.73205, 0, 0,
	0, 0, 1.22222, 1,
	0, 0, -2.22222, 0,
}

// triangleAt returns one fronto-parallel triangle covering the whole view at
// the given depth.
func triangleAt(depth float32) []float32 {
	return []float32{-10, 10, depth, 10, 10, depth, 0, -10, depth}
}

func newGeometryBound(t *testing.T, width, height int, opts ...raster.Option) *raster.Bound[float32] {
	t.Helper()
	gltest.Skip(t)
	b, err := raster.NewBound[float32](width, height, emptyShader, geometryShader, fragmentShader, opts...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func assertDepth(t *testing.T, pixels []float32, depth float32) {
	t.Helper()
	for i := 0; i < len(pixels)/4; i++ {
		assert.Equal(t, float32(0), pixels[4*i+2], "pixel %d tri_id", i)
		assert.InDelta(t, depth, pixels[4*i+3], 1e-6, "pixel %d depth", i)
	}
}

func TestNewWithMinimalShaders(t *testing.T) {
	gltest.Do(t, func() {
		r, err := raster.New[float32](3, 2, emptyShader, passGeometryShader, emptyShader)
		require.NoError(t, err)
		defer r.Reset()
		assert.Equal(t, 3, r.Width())
		assert.Equal(t, 2, r.Height())
	})
}

func TestNewWithoutGeometryStage(t *testing.T) {
	gltest.Do(t, func() {
		r, err := raster.New[uint8](4, 4, emptyShader, "", emptyShader)
		require.NoError(t, err)
		r.Reset()
	})
}

func TestNewFailures(t *testing.T) {
	gltest.Skip(t)

	_, err := raster.NewBound[float32](4, 4, "#version 430\nvoid main( {", "", emptyShader)
	var gerr *gpu.Error
	assert.ErrorAs(t, err, &gerr)

	_, err = raster.NewBound[float32](0, 4, emptyShader, "", emptyShader)
	assert.ErrorIs(t, err, gpu.ErrInvalidDimensions)
}

func TestRenderClearColor(t *testing.T) {
	const width, height = 5, 5
	b := newGeometryBound(t, width, height,
		raster.WithClearColor(gputypes.Color{R: 0.1, G: 0.2, B: 0.3}))

	for range 100 {
		pixels := make([]float32, width*height*4)
		require.NoError(t, b.Render(0, pixels))
		for p := 0; p < width*height; p++ {
			assert.Equal(t, float32(0.1), pixels[4*p])
			assert.Equal(t, float32(0.2), pixels[4*p+1])
			assert.Equal(t, float32(0.3), pixels[4*p+2])
			assert.Equal(t, float32(1), pixels[4*p+3])
		}
	}
}

func TestRenderClearColorUint8(t *testing.T) {
	gltest.Skip(t)
	b, err := raster.NewBound[uint8](2, 2, emptyShader, "", emptyShader,
		raster.WithClearColor(gputypes.Color{R: 1, G: 0, B: 1}))
	require.NoError(t, err)
	defer b.Close()

	pixels := make([]uint8, 2*2*4)
	require.NoError(t, b.Render(0, pixels))
	for p := 0; p < 4; p++ {
		assert.Equal(t, []uint8{255, 0, 255, 255}, pixels[4*p:4*p+4])
	}
}

func TestRenderDepthRoundTrip(t *testing.T) {
	const width, height = 3, 3
	b := newGeometryBound(t, width, height)
	require.NoError(t, b.SetUniformMatrix("view_projection_matrix", 4, 4, false, viewProjection))

	pixels := make([]float32, width*height*4)
	for depth := float32(2); depth < 5; depth++ {
		require.NoError(t, b.SetShaderStorageBuffer("triangular_mesh", triangleAt(depth)))
		require.NoError(t, b.Render(1, pixels))
		assertDepth(t, pixels, depth)
	}
}

func TestSetUniformMat4RowMajor(t *testing.T) {
	const width, height = 3, 3
	b := newGeometryBound(t, width, height)

	m := f32.Mat4{
		-1.73205, 0, 0, 0,
		0, 1.73205, 0, 0,
		0, 0, 1.22222, -2.22222,
		0, 0, 1, 0,
	}
	require.NoError(t, b.SetUniformMat4("view_projection_matrix", m))
	require.NoError(t, b.SetShaderStorageBuffer("triangular_mesh", triangleAt(3)))

	pixels := make([]float32, width*height*4)
	require.NoError(t, b.Render(1, pixels))
	assertDepth(t, pixels, 3)
}

func TestSetShaderStorageBufferReupload(t *testing.T) {
	const width, height = 3, 3
	b := newGeometryBound(t, width, height)
	require.NoError(t, b.SetUniformMatrix("view_projection_matrix", 4, 4, false, viewProjection))

	require.NoError(t, b.SetShaderStorageBuffer("triangular_mesh", triangleAt(2)))
	require.NoError(t, b.SetShaderStorageBuffer("triangular_mesh", triangleAt(4)))

	pixels := make([]float32, width*height*4)
	require.NoError(t, b.Render(1, pixels))
	assertDepth(t, pixels, 4)
}

func TestUnusedStorageBufferIsSkipped(t *testing.T) {
	b := newGeometryBound(t, 2, 2)
	require.NoError(t, b.SetShaderStorageBuffer("not_in_program", []float32{1, 2, 3}))
	require.NoError(t, b.Render(0, make([]float32, 2*2*4)))
}

func TestSetStorageBufferElementTypes(t *testing.T) {
	b := newGeometryBound(t, 2, 2)
	err := b.Do(func(r *raster.Rasterizer[float32]) error {
		if err := raster.SetStorageBuffer(r, "ids", []uint32{1, 2, 3}); err != nil {
			return err
		}
		return raster.SetStorageBuffer(r, "weights", []float64{0.5})
	})
	require.NoError(t, err)
}

func TestSetUniformMatrixErrors(t *testing.T) {
	b := newGeometryBound(t, 3, 2)

	require.NoError(t, b.SetUniformMatrix("view_projection_matrix", 4, 4, false, make([]float32, 16)))

	tests := []struct {
		name       string
		uniform    string
		cols, rows int
		n          int
		want       error
	}{
		{"too few values", "view_projection_matrix", 4, 4, 15, gpu.ErrMatrixShape},
		{"rows times cols mismatch", "view_projection_matrix", 4, 3, 16, gpu.ErrMatrixShape},
		{"declared shape differs", "view_projection_matrix", 3, 3, 9, gpu.ErrMatrixShape},
		{"rectangular shape differs", "view_projection_matrix", 4, 2, 8, gpu.ErrMatrixShape},
		{"unknown uniform", "projection", 4, 4, 16, gpu.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.SetUniformMatrix(tt.uniform, tt.cols, tt.rows, false, make([]float32, tt.n))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenderFailureUnbindsProgram(t *testing.T) {
	gltest.Do(t, func() {
		r, err := raster.New[float32](4, 4, emptyShader, "", emptyShader)
		require.NoError(t, err)
		defer r.Reset()

		err = r.Render(0, make([]float32, 3))
		require.ErrorIs(t, err, gpu.ErrBufferSize)

		var current int32
		gl.GetIntegerv(gl.CURRENT_PROGRAM, &current)
		assert.Zero(t, current)
	})
}

func TestResetIdempotent(t *testing.T) {
	gltest.Do(t, func() {
		r, err := raster.New[float32](4, 4, emptyShader, "", emptyShader)
		require.NoError(t, err)

		r.Reset()
		r.Reset()
		assert.Zero(t, r.Width())
		assert.Nil(t, r.Program())
		assert.ErrorIs(t, r.Render(0, make([]float32, 64)), raster.ErrReset)
		assert.ErrorIs(t, r.SetShaderStorageBuffer("x", nil), raster.ErrReset)
		assert.ErrorIs(t, r.SetUniformMatrix("m", 2, 2, false, make([]float32, 4)), raster.ErrReset)
	})
}

func TestBoundCloseIdempotent(t *testing.T) {
	gltest.Skip(t)
	b, err := raster.NewBound[float32](2, 2, emptyShader, "", emptyShader)
	require.NoError(t, err)

	b.Close()
	b.Close()
	assert.ErrorIs(t, b.Render(0, make([]float32, 16)), raster.ErrClosed)
}

// clearCounter hands out increasing clear colors, one per rasterizer.
type clearCounter struct {
	mu sync.Mutex
	n  int
}

func (c *clearCounter) next() gputypes.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return gputypes.Color{R: 0.001 * float64(c.n), G: 0.002 * float64(c.n), B: 0.003 * float64(c.n)}
}

type worker struct {
	b     *raster.Bound[float32]
	want  [3]float32
	pix   []float32
	count int
}

func newWorkers(t *testing.T, k, width, height int) []*worker {
	t.Helper()
	gltest.Skip(t)

	var counter clearCounter
	workers := make([]*worker, k)
	for i := range workers {
		c := counter.next()
		b, err := raster.NewBound[float32](width, height, emptyShader, geometryShader, fragmentShader,
			raster.WithClearColor(c))
		require.NoError(t, err)
		t.Cleanup(b.Close)
		workers[i] = &worker{
			b:    b,
			want: [3]float32{float32(c.R), float32(c.G), float32(c.B)},
			pix:  make([]float32, width*height*4),
		}
	}
	return workers
}

func (w *worker) render() error {
	if err := w.b.Render(0, w.pix); err != nil {
		return err
	}
	for p := 0; p < len(w.pix)/4; p++ {
		got := [3]float32{w.pix[4*p], w.pix[4*p+1], w.pix[4*p+2]}
		if got != w.want {
			return errors.New("rendered another worker's clear color")
		}
	}
	w.count++
	return nil
}

func TestRenderManyGoroutines(t *testing.T) {
	const k = 8
	workers := newWorkers(t, k, 10, 10)

	var g errgroup.Group
	for _, w := range workers {
		g.Go(w.render)
	}
	require.NoError(t, g.Wait())

	for _, w := range workers {
		assert.Equal(t, 1, w.count)
	}
}

// TestPooledRasterizersLoop gives each goroutine one lease from a pool of
// rasterizers with distinct clear colors and renders through it in a loop.
func TestPooledRasterizersLoop(t *testing.T) {
	const k, loops, width, height = 8, 10, 6, 4
	gltest.Skip(t)

	var counter clearCounter
	p := pool.New(func() (*worker, error) {
		c := counter.next()
		b, err := raster.NewBound[float32](width, height, emptyShader, geometryShader, fragmentShader,
			raster.WithClearColor(c))
		if err != nil {
			return nil, err
		}
		return &worker{
			b:    b,
			want: [3]float32{float32(c.R), float32(c.G), float32(c.B)},
			pix:  make([]float32, width*height*4),
		}, nil
	}, pool.WithName("raster-test"), pool.WithMaxIdle(k), pool.WithCloser(func(w *worker) { w.b.Close() }))
	t.Cleanup(p.Close)

	var (
		mu   sync.Mutex
		seen = make(map[[3]float32]int)
	)
	// All leases are taken before any is returned, so no rasterizer is
	// shared between goroutines.
	var acquired sync.WaitGroup
	acquired.Add(k)
	var g errgroup.Group
	for range k {
		g.Go(func() error {
			lease, err := p.Acquire()
			acquired.Done()
			if err != nil {
				return err
			}
			defer lease.Release()
			acquired.Wait()

			w := lease.Value()
			for range loops {
				if err := w.render(); err != nil {
					return err
				}
			}
			mu.Lock()
			seen[w.want] += w.count
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, k, p.Size(), "every goroutine held its own rasterizer")
	require.Len(t, seen, k, "clear colors are distinct")
	for color, n := range seen {
		assert.Equal(t, loops, n, "renders with clear color %v", color)
	}
}

func TestRenderManyGoroutinesLoop(t *testing.T) {
	const k, loops = 8, 5
	workers := newWorkers(t, k, 10, 10)

	for l := 0; l < loops; l++ {
		var g errgroup.Group
		for _, w := range workers {
			g.Go(w.render)
		}
		require.NoError(t, g.Wait())
		for _, w := range workers {
			require.Equal(t, l+1, w.count)
		}
	}
}
