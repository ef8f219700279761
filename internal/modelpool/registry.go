package modelpool

import "sync"

// Registry holds one Pool per model identifier (e.g. "small", "medium") so
// that all jobs requesting the same model share the same instances.
// All methods are safe for concurrent use.
type Registry[T any] struct {
	mu    sync.Mutex
	pools map[string]*Pool[T]
}

// NewRegistry returns an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{pools: make(map[string]*Pool[T])}
}

// GetOrCreate returns the pool registered under modelID, creating it with the
// given capacity and factory on first use. Later calls for the same modelID
// ignore capacity and factory.
func (r *Registry[T]) GetOrCreate(modelID string, capacity int, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[modelID]; ok {
		return p, nil
	}
	p, err := New(capacity, factory, opts...)
	if err != nil {
		return nil, err
	}
	r.pools[modelID] = p
	return p, nil
}

// Close closes every registered pool and empties the registry.
func (r *Registry[T]) Close() error {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*Pool[T])
	r.mu.Unlock()

	var firstErr error
	for _, p := range pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
