// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package op renders images from named shader variables with a pool of
// context-bound rasterizers, one leased per call.
//
// A Rasterize operator is configured once with the output resolution, the
// clear values, three shaders and the variables they read. Every Compute
// leases a rasterizer, uploads the variable values, draws and returns a new
// height x width x 4 image. Calls from many goroutines run in parallel, each
// on its own GL context.
package op

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/glcontext"
	"github.com/gogpu/headless/gpu"
	"github.com/gogpu/headless/metrics"
	"github.com/gogpu/headless/pool"
	"github.com/gogpu/headless/raster"
)

// Config describes a Rasterize operator.
type Config struct {
	// Name labels logs and metrics. Default: "rasterize".
	Name string

	Height, Width int

	ClearColor gputypes.Color
	// ClearDepth is the depth the target is cleared to. Default: 1.
	ClearDepth *float32

	VertexShader   string
	GeometryShader string
	FragmentShader string

	Variables []Variable

	// MaxIdle is the number of idle rasterizers kept. Default: GOMAXPROCS.
	MaxIdle int
	// MaxSize bounds the rasterizers in use at once. 0 is unbounded.
	MaxSize int
	// FactoryRetries retries failed context creation with exponential
	// back-off. 0 disables retries.
	FactoryRetries int

	Context []glcontext.Option
	Metrics *metrics.Collector
}

func (c *Config) validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return fmt.Errorf("%w: output resolution %dx%d", ErrInvalidArgument, c.Height, c.Width)
	}
	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if v.Kind != KindMatrix && v.Kind != KindBuffer {
			return fmt.Errorf("%w: variable %q has kind %s", ErrInvalidArgument, v.Name, v.Kind)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: variable %q declared twice", ErrInvalidArgument, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// Rasterize is a configured operator. It is safe for concurrent use.
type Rasterize struct {
	name          string
	height, width int
	vars          []Variable
	pool          *pool.Pool[*raster.Bound[float32]]
	metrics       *metrics.Collector
}

// New validates cfg and returns the operator. No context is created until
// the first Compute.
func New(cfg Config) (*Rasterize, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "rasterize"
	}
	if cfg.MaxIdle == 0 {
		cfg.MaxIdle = runtime.GOMAXPROCS(0)
	}

	ropts := []raster.Option{
		raster.WithClearColor(cfg.ClearColor),
		raster.WithContextOptions(cfg.Context...),
	}
	if cfg.ClearDepth != nil {
		ropts = append(ropts, raster.WithClearDepth(*cfg.ClearDepth))
	}
	vs, gs, fs := cfg.VertexShader, cfg.GeometryShader, cfg.FragmentShader
	width, height := cfg.Width, cfg.Height
	factory := func() (*raster.Bound[float32], error) {
		return raster.NewBound[float32](width, height, vs, gs, fs, ropts...)
	}

	popts := []pool.Option{
		pool.WithName(cfg.Name),
		pool.WithMaxIdle(cfg.MaxIdle),
		pool.WithMaxSize(cfg.MaxSize),
	}
	if cfg.Metrics != nil {
		popts = append(popts, pool.WithObserver(cfg.Metrics))
	}
	if n := cfg.FactoryRetries; n > 0 {
		popts = append(popts, pool.WithFactoryBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(n))
		}))
	}

	return &Rasterize{
		name:    cfg.Name,
		height:  cfg.Height,
		width:   cfg.Width,
		vars:    append([]Variable(nil), cfg.Variables...),
		pool:    pool.New(factory, popts...),
		metrics: cfg.Metrics,
	}, nil
}

// Variables returns the declared variables in order.
func (r *Rasterize) Variables() []Variable { return append([]Variable(nil), r.vars...) }

// Pool exposes the rasterizer pool for inspection.
func (r *Rasterize) Pool() *pool.Pool[*raster.Bound[float32]] { return r.pool }

// Compute renders numPoints points with values bound to the declared
// variables, in order. Matrices are uploaded transposed from row-major
// storage; buffers are uploaded as is.
func (r *Rasterize) Compute(ctx context.Context, numPoints int, values []Tensor) (*Image, error) {
	if err := r.check(numPoints, values); err != nil {
		return nil, err
	}

	lease, err := r.pool.AcquireContext(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	img := NewImage(r.height, r.width)
	err = lease.Value().Do(func(rz *raster.Rasterizer[float32]) error {
		if err := r.apply(rz, values); err != nil {
			return err
		}
		return rz.Render(numPoints, img.Pix)
	})
	if r.metrics != nil {
		r.metrics.ObserveRender(r.name, time.Since(start), err)
	}

	if err != nil {
		if tainted(err) {
			_ = lease.Discard()
		} else {
			_ = lease.Release()
		}
		return nil, fmt.Errorf("op %s: %w", r.name, err)
	}
	if err := lease.Release(); err != nil {
		return nil, err
	}
	headless.Logger().Debug("op: rendered", "op", r.name, "points", numPoints,
		"rasterizer", lease.ID(), "elapsed", time.Since(start))
	return img, nil
}

func (r *Rasterize) check(numPoints int, values []Tensor) error {
	if numPoints < 0 {
		return fmt.Errorf("%w: negative point count %d", ErrInvalidArgument, numPoints)
	}
	if len(values) != len(r.vars) {
		return fmt.Errorf("%w: %d variables declared but %d values given",
			ErrInvalidArgument, len(r.vars), len(values))
	}
	for i, v := range r.vars {
		if err := v.check(values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rasterize) apply(rz *raster.Rasterizer[float32], values []Tensor) error {
	for i, v := range r.vars {
		value := values[i]
		var err error
		switch v.Kind {
		case KindMatrix:
			rows, cols := value.Shape[0], value.Shape[1]
			err = rz.SetUniformMatrix(v.Name, cols, rows, true, value.Data)
		case KindBuffer:
			err = rz.SetShaderStorageBuffer(v.Name, value.Data)
		}
		if err != nil {
			return fmt.Errorf("setting variable %q: %w", v.Name, err)
		}
	}
	return nil
}

// tainted reports whether err came from the GL or EGL driver, after which
// the rasterizer's state is unknown and it must not be reused.
func tainted(err error) bool {
	var gerr *gpu.Error
	var eerr *glcontext.Error
	return errors.As(err, &gerr) || errors.As(err, &eerr)
}

// Request is one Compute call of a batch.
type Request struct {
	NumPoints int
	Values    []Tensor
}

// ComputeBatch runs the requests concurrently and returns the images in
// request order. The first failure cancels requests still waiting for a
// rasterizer.
func (r *Rasterize) ComputeBatch(ctx context.Context, reqs []Request) ([]*Image, error) {
	images := make([]*Image, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			img, err := r.Compute(ctx, req.NumPoints, req.Values)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// Close releases idle rasterizers and their contexts. Rasterizers leased by
// running calls are released when those calls return.
func (r *Rasterize) Close() {
	r.pool.Close()
}
