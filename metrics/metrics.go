// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exports pool occupancy and render timings as Prometheus
// collectors.
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	p := pool.New(factory, pool.WithObserver(m))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/headless/pool"
)

const namespace = "headless"

// Collector implements pool.Observer and records render durations.
type Collector struct {
	poolResources *prometheus.GaugeVec
	acquireWait   *prometheus.HistogramVec
	created       *prometheus.CounterVec
	closed        *prometheus.CounterVec
	renders       *prometheus.HistogramVec
}

var _ pool.Observer = (*Collector)(nil)

// New registers the collectors with reg. A nil reg leaves them
// unregistered, which is useful in tests.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		poolResources: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_resources",
				Help:      "Pooled resources by pool name and state (idle, in_use, total).",
			},
			[]string{"pool", "state"},
		),
		acquireWait: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pool_acquire_wait_seconds",
				Help:      "Time Acquire spent waiting for a resource.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool"},
		),
		created: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_factory_calls_total",
				Help:      "Factory calls by pool name and result.",
			},
			[]string{"pool", "result"},
		),
		closed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_resources_closed_total",
				Help:      "Resources closed by the pool.",
			},
			[]string{"pool"},
		),
		renders: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Render duration by operator name and result.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"op", "result"},
		),
	}
}

// Acquired implements pool.Observer.
func (c *Collector) Acquired(name string, wait time.Duration) {
	c.acquireWait.WithLabelValues(name).Observe(wait.Seconds())
}

// Created implements pool.Observer.
func (c *Collector) Created(name string, err error) {
	c.created.WithLabelValues(name, result(err)).Inc()
}

// Closed implements pool.Observer.
func (c *Collector) Closed(name string) {
	c.closed.WithLabelValues(name).Inc()
}

// Stats implements pool.Observer.
func (c *Collector) Stats(name string, size, idle, inUse int) {
	c.poolResources.WithLabelValues(name, "total").Set(float64(size))
	c.poolResources.WithLabelValues(name, "idle").Set(float64(idle))
	c.poolResources.WithLabelValues(name, "in_use").Set(float64(inUse))
}

// ObserveRender records one render of the named operator.
func (c *Collector) ObserveRender(op string, d time.Duration, err error) {
	c.renders.WithLabelValues(op, result(err)).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
