// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/headless/glcontext"
)

// Option configures a Rasterizer or Bound during creation.
type Option func(*options)

type options struct {
	clear      gputypes.Color
	clearDepth float32
	context    []glcontext.Option
}

func defaultOptions() options {
	return options{
		clear:      gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		clearDepth: 1,
	}
}

func resolve(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClearColor sets the color the target is cleared to before each draw.
// The alpha channel is always cleared to 1. Default: black.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clear = c
	}
}

// WithClearDepth sets the depth the target is cleared to. Default: 1.
func WithClearDepth(d float32) Option {
	return func(o *options) {
		o.clearDepth = d
	}
}

// WithContextOptions passes options to the context a Bound creates. It has
// no effect on a plain Rasterizer.
func WithContextOptions(opts ...glcontext.Option) Option {
	return func(o *options) {
		o.context = append(o.context, opts...)
	}
}
