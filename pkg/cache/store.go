package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the entry limit used when no capacity option is given.
const DefaultCapacity = 1000

// DefaultTTL is applied to entries written without an explicit TTL.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a bounded in-memory key/value map with per-entry expiry.
// When the store is full, inserting a new key evicts the oldest-inserted
// surviving key (insertion order, not access order). Expired entries are
// removed lazily on access and, if a sweep interval is configured, by a
// background sweeper.
//
// Store has no knowledge of what it holds; callers own the key scheme.
// All methods are safe for concurrent use.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]

	// order keeps keys in insertion order; front is the eviction candidate.
	order []string

	capacity   int
	defaultTTL time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	stopSweep chan struct{}
	closeOnce sync.Once
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	capacity   int
	defaultTTL time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

// WithCapacity sets the maximum entry count before insertion-order eviction.
func WithCapacity(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDefaultTTL sets the TTL used when Set is called with ttl <= 0.
func WithDefaultTTL(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithSweepInterval enables a background sweep that removes expired entries.
// The sweep is advisory; expiry is always checked on access regardless.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(c *storeConfig) { c.sweepEvery = d }
}

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewStore creates a bounded TTL store.
func NewStore[V any](opts ...StoreOption) *Store[V] {
	cfg := storeConfig{
		capacity:   DefaultCapacity,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store[V]{
		entries:    make(map[string]entry[V]),
		capacity:   cfg.capacity,
		defaultTTL: cfg.defaultTTL,
		sweepEvery: cfg.sweepEvery,
		now:        cfg.now,
		stopSweep:  make(chan struct{}),
	}

	if s.sweepEvery > 0 {
		go s.sweep()
	}

	return s
}

// Get returns the value stored under key, if present and not expired.
// An expired entry is removed as a side effect of the lookup.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced.
		if cur, ok := s.entries[key]; ok && s.now().After(cur.expiresAt) {
			s.remove(key)
		}
		s.mu.Unlock()
		var zero V
		return zero, false
	}

	return e.value, true
}

// Has reports whether key holds a live entry, with the same expiry
// semantics as Get.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set inserts or replaces the entry under key. A ttl <= 0 uses the store
// default. If the store is at capacity, the single oldest-inserted key is
// evicted first.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		if len(s.entries) >= s.capacity {
			s.evictOldest()
		}
		s.order = append(s.order, key)
	}

	s.entries[key] = entry[V]{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
}

// Delete removes key if present. Deleting an absent key is a no-op.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(key)
}

// DeleteByPrefix removes every key starting with prefix and returns the
// number of entries removed.
func (s *Store[V]) DeleteByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.remove(key)
			removed++
		}
	}
	return removed
}

// Clear empties the store.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry[V])
	s.order = s.order[:0]
}

// Len returns the number of entries, including any not yet swept expired ones.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background sweeper, if one was started.
func (s *Store[V]) Close() {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
}

// evictOldest drops the oldest-inserted surviving key. Caller holds the lock.
func (s *Store[V]) evictOldest() {
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.entries[oldest]; ok {
			delete(s.entries, oldest)
			return
		}
		// Key was already deleted explicitly; skip the stale queue slot.
	}
}

// remove deletes key from the map and the insertion queue. Caller holds the lock.
func (s *Store[V]) remove(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)

	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// sweep periodically removes expired entries under the same lock as
// foreground operations.
func (s *Store[V]) sweep() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					s.remove(key)
				}
			}
			s.mu.Unlock()
		}
	}
}
