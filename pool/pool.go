// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pool provides a thread-safe pool of expensive resources, such as
// rasterizers that each own a GL context.
//
// Resources are created lazily by a factory and handed out as exclusive
// leases. A returned resource goes onto an idle list and is the first one
// handed out again; once the idle list holds MaxIdle resources, further
// returns close the resource instead. WithMaxSize bounds the number of
// leases out at once, and Acquire blocks until one is returned.
//
//	p := pool.New(func() (*raster.Bound[float32], error) {
//	    return raster.NewBound[float32](w, h, vs, gs, fs)
//	}, pool.WithMaxIdle(runtime.NumCPU()))
//	defer p.Close()
//
//	err := p.With(func(r *raster.Bound[float32]) error {
//	    return r.Render(n, pixels)
//	})
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/gogpu/headless"
)

var (
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("pool: closed")

	// ErrNilResource is returned when the factory yields a nil resource
	// without an error, and when a nil lease is returned.
	ErrNilResource = errors.New("pool: nil resource")

	// ErrLeaseReleased is returned when a lease is ended twice.
	ErrLeaseReleased = errors.New("pool: lease already released")
)

// Pool hands out resources of type T. It is safe for concurrent use.
type Pool[T any] struct {
	name       string
	factory    func() (T, error)
	closer     func(T)
	newBackOff func() backoff.BackOff
	observer   Observer
	sem        *semaphore.Weighted
	maxIdle    int

	mu     sync.Mutex
	idle   []*item[T]
	size   int
	inUse  int
	closed bool
}

// New returns a pool that creates resources with factory on demand.
func New[T any](factory func() (T, error), opts ...Option) *Pool[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		name:       o.name,
		factory:    factory,
		newBackOff: o.newBackOff,
		observer:   o.observer,
		maxIdle:    o.maxIdle,
	}
	if o.maxSize > 0 {
		p.sem = semaphore.NewWeighted(int64(o.maxSize))
	}
	switch fn := o.closer.(type) {
	case nil:
		p.closer = closeResource[T]
	case func(T):
		p.closer = fn
	default:
		var zero T
		panic(fmt.Sprintf("pool: closer %T does not take %T", o.closer, zero))
	}
	return p
}

// Name returns the name set with WithName.
func (p *Pool[T]) Name() string { return p.name }

// Acquire leases a resource, reusing the most recently returned one or
// creating a new one. With a maximum size it blocks until a lease is
// returned. It has no timeout; use AcquireContext for one.
func (p *Pool[T]) Acquire() (*Lease[T], error) {
	return p.AcquireContext(context.Background())
}

// AcquireContext is Acquire that gives up when ctx is done. ctx also bounds
// factory retries.
func (p *Pool[T]) AcquireContext(ctx context.Context) (*Lease[T], error) {
	start := time.Now()
	if p.isClosed() {
		return nil, ErrClosed
	}
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("pool %s: waiting for a resource: %w", p.name, err)
		}
	}

	it, err := p.take(ctx)
	if err != nil {
		if p.sem != nil {
			p.sem.Release(1)
		}
		return nil, err
	}

	if p.observer != nil {
		p.observer.Acquired(p.name, time.Since(start))
	}
	p.report()
	return &Lease[T]{pool: p, item: it, acquired: time.Now()}, nil
}

func (p *Pool[T]) take(ctx context.Context) (*item[T], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		it := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.inUse++
		p.mu.Unlock()
		return it, nil
	}
	// Count the resource before it exists so Size never undercounts while
	// the factory runs.
	p.size++
	p.inUse++
	p.mu.Unlock()

	it, err := p.create(ctx)
	if err != nil {
		p.mu.Lock()
		p.size--
		p.inUse--
		p.mu.Unlock()
		return nil, err
	}
	headless.Logger().Info("pool: resource created", "pool", p.name, "id", it.id)
	return it, nil
}

func (p *Pool[T]) create(ctx context.Context) (*item[T], error) {
	var v T
	op := func() error {
		var err error
		v, err = p.factory()
		if err == nil && isNil(v) {
			err = backoff.Permanent(ErrNilResource)
		}
		if p.observer != nil {
			p.observer.Created(p.name, err)
		}
		return err
	}

	var err error
	if p.newBackOff == nil {
		err = op()
	} else {
		b := backoff.WithContext(p.newBackOff(), ctx)
		err = backoff.RetryNotify(op, b, func(err error, next time.Duration) {
			headless.Logger().Warn("pool: factory failed, retrying",
				"pool", p.name, "err", err, "next", next)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("pool %s: creating resource: %w", p.name, err)
	}
	return &item[T]{id: uuid.NewString(), value: v}, nil
}

// Release returns a leased resource to the pool. If the idle list is full or
// the pool is closed, the resource is closed instead.
func (p *Pool[T]) Release(l *Lease[T]) error {
	if l == nil || l.item == nil {
		return ErrNilResource
	}
	if !l.done.CompareAndSwap(false, true) {
		return ErrLeaseReleased
	}

	p.mu.Lock()
	p.inUse--
	keep := !p.closed && len(p.idle) < p.maxIdle
	if keep {
		p.idle = append(p.idle, l.item)
	} else {
		p.size--
	}
	p.mu.Unlock()

	headless.Logger().Debug("pool: lease returned",
		"pool", p.name, "id", l.item.id, "held", time.Since(l.acquired))
	if p.sem != nil {
		p.sem.Release(1)
	}
	if !keep {
		p.closeItem(l.item, slog.LevelDebug, "pool: closing surplus resource")
	}
	p.report()
	return nil
}

// drop ends a lease by closing its resource.
func (p *Pool[T]) drop(l *Lease[T]) {
	p.mu.Lock()
	p.inUse--
	p.size--
	p.mu.Unlock()

	if p.sem != nil {
		p.sem.Release(1)
	}
	p.closeItem(l.item, slog.LevelWarn, "pool: discarding resource")
	p.report()
}

// With leases a resource, runs fn with it and returns it to the pool, also
// when fn fails or panics.
func (p *Pool[T]) With(fn func(T) error) error {
	l, err := p.Acquire()
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn(l.Value())
}

// Close closes all idle resources. Resources still leased are closed when
// they are returned. Acquire fails with ErrClosed afterwards. Close is
// idempotent.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.size -= len(idle)
	inUse := p.inUse
	p.mu.Unlock()

	for _, it := range idle {
		p.closeItem(it, slog.LevelDebug, "pool: closing idle resource")
	}
	headless.Logger().Info("pool: closed", "pool", p.name, "closed", len(idle), "leased", inUse)
	p.report()
}

// Size returns the number of live resources, idle and leased.
func (p *Pool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Idle returns the number of resources waiting for reuse.
func (p *Pool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// InUse returns the number of leased resources.
func (p *Pool[T]) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

func (p *Pool[T]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool[T]) closeItem(it *item[T], level slog.Level, msg string) {
	headless.Logger().Log(context.Background(), level, msg, "pool", p.name, "id", it.id)
	p.closer(it.value)
	if p.observer != nil {
		p.observer.Closed(p.name)
	}
}

func (p *Pool[T]) report() {
	if p.observer == nil {
		return
	}
	p.mu.Lock()
	size, idle, inUse := p.size, len(p.idle), p.inUse
	p.mu.Unlock()
	p.observer.Stats(p.name, size, idle, inUse)
}

func closeResource[T any](v T) {
	switch c := any(v).(type) {
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			headless.Logger().Warn("pool: closing resource", "err", err)
		}
	case interface{ Close() }:
		c.Close()
	}
}

// isNil reports whether v is nil. T is unconstrained, so pointers, maps and
// other nilable kinds are only visible through reflection.
func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
