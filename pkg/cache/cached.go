package cache

import (
	"context"
	"time"
)

// ComputeFunc produces the value for a cache key on a miss, typically by
// querying the backing store. It may block on I/O; it is always invoked
// outside the store's lock.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// WithCache is the cache-aside chokepoint for expensive reads.
//
// On a hit the stored value is returned and compute never runs. On a miss
// compute runs, its result is stored under key with ttl (ttl <= 0 uses the
// store default) and returned. A compute error propagates unchanged and
// nothing is cached — a failed read is never memoized.
//
// Concurrent callers that miss on the same key may each run compute. Both
// results derive from the same logical query, so the duplicate work is
// wasted effort, not an inconsistency. If the caller's context is canceled
// while compute is in flight but compute still completes, its result is
// stored anyway; the value is deterministic for the key either way.
func WithCache[V any](ctx context.Context, store *Store[V], key string, ttl time.Duration, compute ComputeFunc[V]) (V, error) {
	if v, ok := store.Get(key); ok {
		return v, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	store.Set(key, v, ttl)
	return v, nil
}
