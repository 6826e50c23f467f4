// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/headless/metrics"
	"github.com/gogpu/headless/pool"
)

// sample returns the value of the metric called name whose labels include
// labels. Histograms report their sample count.
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

type item struct{}

func TestPoolObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := pool.New(func() (*item, error) { return &item{}, nil },
		pool.WithName("render"), pool.WithMaxIdle(1), pool.WithObserver(m))

	l1, err := p.Acquire()
	require.NoError(t, err)
	l2, err := p.Acquire()
	require.NoError(t, err)

	pl := map[string]string{"pool": "render"}
	assert.Equal(t, 2.0, sample(t, reg, "headless_pool_resources", map[string]string{"pool": "render", "state": "in_use"}))
	assert.Equal(t, 2.0, sample(t, reg, "headless_pool_factory_calls_total", map[string]string{"pool": "render", "result": "ok"}))
	assert.Equal(t, 2.0, sample(t, reg, "headless_pool_acquire_wait_seconds", pl))

	require.NoError(t, l1.Release())
	require.NoError(t, l2.Release())
	assert.Equal(t, 1.0, sample(t, reg, "headless_pool_resources", map[string]string{"pool": "render", "state": "idle"}))
	assert.Equal(t, 1.0, sample(t, reg, "headless_pool_resources", map[string]string{"pool": "render", "state": "total"}))
	assert.Equal(t, 0.0, sample(t, reg, "headless_pool_resources", map[string]string{"pool": "render", "state": "in_use"}))
	assert.Equal(t, 1.0, sample(t, reg, "headless_pool_resources_closed_total", pl))
}

func TestFactoryFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := pool.New(func() (*item, error) { return nil, errors.New("no display") },
		pool.WithName("broken"), pool.WithObserver(m))
	_, err := p.Acquire()
	require.Error(t, err)

	assert.Equal(t, 1.0, sample(t, reg, "headless_pool_factory_calls_total",
		map[string]string{"pool": "broken", "result": "error"}))
}

func TestObserveRender(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRender("rasterize", 3*time.Millisecond, nil)
	m.ObserveRender("rasterize", 5*time.Millisecond, nil)
	m.ObserveRender("rasterize", time.Millisecond, errors.New("lost context"))

	assert.Equal(t, 2.0, sample(t, reg, "headless_render_duration_seconds",
		map[string]string{"op": "rasterize", "result": "ok"}))
	assert.Equal(t, 1.0, sample(t, reg, "headless_render_duration_seconds",
		map[string]string{"op": "rasterize", "result": "error"}))
}

func TestUnregistered(t *testing.T) {
	m := metrics.New(nil)
	assert.NotPanics(t, func() {
		m.Stats("p", 1, 1, 0)
		m.ObserveRender("op", time.Second, nil)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
