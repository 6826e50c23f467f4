// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxIdle is the number of returned resources kept for reuse when
// WithMaxIdle is not given.
const DefaultMaxIdle = 2

// Observer receives pool events. The metrics package provides a Prometheus
// implementation. Methods are called without the pool lock held and must
// be safe for concurrent use.
type Observer interface {
	// Acquired reports a successful lease and how long Acquire waited.
	Acquired(pool string, wait time.Duration)
	// Created reports a factory call; err is nil on success.
	Created(pool string, err error)
	// Closed reports a resource handed to the closer.
	Closed(pool string)
	// Stats reports the pool occupancy after every change.
	Stats(pool string, size, idle, inUse int)
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	name       string
	maxSize    int
	maxIdle    int
	closer     any
	newBackOff func() backoff.BackOff
	observer   Observer
}

func defaultOptions() options {
	return options{
		name:    "default",
		maxIdle: DefaultMaxIdle,
	}
}

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMaxSize bounds the number of resources leased at once. Acquire blocks
// while n leases are out. 0 means unbounded, which is the default.
func WithMaxSize(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxSize = n
	}
}

// WithMaxIdle sets how many returned resources are kept for reuse. Returning
// a resource to a full idle list closes it instead. 0 keeps none.
func WithMaxIdle(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxIdle = n
	}
}

// WithCloser sets the function that disposes of resources dropped by the
// pool. Without it, resources with a Close() or Close() error method are
// closed through that method and others are left to the garbage collector.
// T must be the pool's resource type; New panics otherwise.
func WithCloser[T any](fn func(T)) Option {
	return func(o *options) {
		o.closer = fn
	}
}

// WithFactoryBackOff retries failing factory calls following the policy
// newBackOff returns. A fresh policy is requested for every creation.
// Without it, the first factory error is returned.
func WithFactoryBackOff(newBackOff func() backoff.BackOff) Option {
	return func(o *options) {
		o.newBackOff = newBackOff
	}
}

// WithObserver installs an event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}
