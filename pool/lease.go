// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"sync/atomic"
	"time"
)

// item is a pooled resource and its identity.
type item[T any] struct {
	id    string
	value T
}

// Lease is exclusive access to one pooled resource. It must be ended with
// exactly one call to Release or Discard.
type Lease[T any] struct {
	pool     *Pool[T]
	item     *item[T]
	acquired time.Time
	done     atomic.Bool
}

// Value returns the leased resource.
func (l *Lease[T]) Value() T { return l.item.value }

// ID returns the identifier of the leased resource. The same resource keeps
// its ID across leases.
func (l *Lease[T]) ID() string { return l.item.id }

// Release returns the resource to the pool.
func (l *Lease[T]) Release() error {
	if l == nil {
		return ErrNilResource
	}
	return l.pool.Release(l)
}

// Discard closes the resource instead of returning it. Use it when the
// resource may be left in an unknown state.
func (l *Lease[T]) Discard() error {
	if l == nil || l.item == nil {
		return ErrNilResource
	}
	if !l.done.CompareAndSwap(false, true) {
		return ErrLeaseReleased
	}
	l.pool.drop(l)
	return nil
}
