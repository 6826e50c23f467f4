// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gltest skips GPU tests on machines without a usable EGL device and
// runs test bodies with a context current.
package gltest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/headless/glcontext"
)

var probe struct {
	once sync.Once
	err  error
}

// Skip skips t unless a desktop GL context can be created and made current.
func Skip(t testing.TB) {
	t.Helper()
	probe.once.Do(func() {
		ctx, err := glcontext.New()
		if err != nil {
			probe.err = err
			return
		}
		defer ctx.Close()
		probe.err = ctx.Do(func() error { return nil })
	})
	if probe.err != nil {
		t.Skipf("no usable EGL context: %v", probe.err)
	}
}

// Context returns a new context that is closed when t finishes.
func Context(t testing.TB, opts ...glcontext.Option) *glcontext.Context {
	t.Helper()
	Skip(t)
	ctx, err := glcontext.New(opts...)
	require.NoError(t, err)
	t.Cleanup(ctx.Close)
	return ctx
}

// Do runs fn with a fresh context current on a locked thread. GL objects fn
// creates must be deleted inside fn.
func Do(t testing.TB, fn func()) {
	t.Helper()
	ctx := Context(t)
	require.NoError(t, ctx.Do(func() error {
		fn()
		return nil
	}))
}
