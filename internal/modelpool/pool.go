// Package modelpool provides an acquire-use-release lease pool for shared
// heavyweight model instances.
//
// Speech models are expensive to load, so grading jobs share a small number
// of instances. A model instance is not assumed safe for concurrent use:
// every use goes through a lease, and with capacity 1 the pool degenerates
// into a lock that serialises all callers. Pools are grouped in a [Registry]
// keyed by model identifier.
package modelpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Acquire after the pool has been closed.
var ErrClosed = errors.New("modelpool: pool is closed")

// Factory creates one model instance. Called lazily, at most capacity times
// over the pool's lifetime.
type Factory[T any] func() (T, error)

// Pool manages up to capacity lazily created instances of one model.
// All methods are safe for concurrent use.
type Pool[T any] struct {
	sem     *semaphore.Weighted
	factory Factory[T]
	closeFn func(T) error

	mu      sync.Mutex
	idle    []T
	created int
	cap     int
	closed  bool
}

// Option is a functional option for configuring a Pool.
type Option[T any] func(*Pool[T])

// WithCloser sets the function invoked on every created instance when the
// pool is closed. Instances without cleanup needs can omit this.
func WithCloser[T any](closeFn func(T) error) Option[T] {
	return func(p *Pool[T]) { p.closeFn = closeFn }
}

// New creates a Pool holding at most capacity instances produced by factory.
// capacity must be at least 1; use 1 to fully serialise access to a single
// shared instance.
func New[T any](capacity int, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("modelpool: capacity must be >= 1, got %d", capacity)
	}
	if factory == nil {
		return nil, errors.New("modelpool: factory must not be nil")
	}
	p := &Pool[T]{
		sem:     semaphore.NewWeighted(int64(capacity)),
		factory: factory,
		cap:     capacity,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Lease is an exclusive claim on one model instance. It must be released
// exactly once; Release is idempotent so deferring it is always safe.
type Lease[T any] struct {
	value    T
	pool     *Pool[T]
	released bool
	mu       sync.Mutex
}

// Value returns the leased model instance. Must not be used after Release.
func (l *Lease[T]) Value() T { return l.value }

// Release returns the instance to the pool. Safe to call more than once.
func (l *Lease[T]) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	l.pool.put(l.value)
}

// Acquire blocks until an instance is available (or ctx is cancelled) and
// returns an exclusive lease on it. The first acquisitions create instances
// lazily via the factory; a factory error releases the slot and is returned.
func (p *Pool[T]) Acquire(ctx context.Context) (*Lease[T], error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("modelpool: acquire: %w", err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		v := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return &Lease[T]{value: v, pool: p}, nil
	}
	p.mu.Unlock()

	v, err := p.factory()
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("modelpool: create instance: %w", err)
	}

	p.mu.Lock()
	p.created++
	p.mu.Unlock()
	return &Lease[T]{value: v, pool: p}, nil
}

// With acquires an instance, runs fn with it, and releases the lease on all
// exit paths including panics.
func (p *Pool[T]) With(ctx context.Context, fn func(T) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease.Value())
}

// put returns an instance to the idle list and frees its semaphore slot.
func (p *Pool[T]) put(v T) {
	p.mu.Lock()
	if !p.closed {
		p.idle = append(p.idle, v)
	} else if p.closeFn != nil {
		_ = p.closeFn(v)
	}
	p.mu.Unlock()
	p.sem.Release(1)
}

// Close marks the pool closed and closes all idle instances. Instances still
// leased out are closed when released. Close is safe to call multiple times.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	closeFn := p.closeFn
	p.mu.Unlock()

	var errs []error
	if closeFn != nil {
		for _, v := range idle {
			if err := closeFn(v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
