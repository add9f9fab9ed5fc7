package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStoreGetSet(t *testing.T) {
	s := NewStore[string]()
	defer s.Close()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", "v", time.Minute)

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.True(t, s.Has("k"))
	assert.Equal(t, 1, s.Len())
}

func TestStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[string](WithClock(clock.Now))
	defer s.Close()

	s.Set("k", "v", time.Millisecond)

	clock.Advance(10 * time.Millisecond)

	_, ok := s.Get("k")
	assert.False(t, ok, "expired entry must behave as absent")
	assert.False(t, s.Has("k"))
	// The expired read evicts the entry as a side effect.
	assert.Equal(t, 0, s.Len())
}

func TestStoreExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[string](WithClock(clock.Now))
	defer s.Close()

	s.Set("k", "v", time.Second)

	// Exactly at expiresAt the entry is still live; only now > expiresAt
	// makes it absent.
	clock.Advance(time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStoreDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[int](WithClock(clock.Now), WithDefaultTTL(time.Minute))
	defer s.Close()

	s.Set("k", 1, 0)

	clock.Advance(59 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStoreCapacityEviction(t *testing.T) {
	s := NewStore[string](WithCapacity(3))
	defer s.Close()

	s.Set("k1", "v1", time.Minute)
	s.Set("k2", "v2", time.Minute)
	s.Set("k3", "v3", time.Minute)
	s.Set("k4", "v4", time.Minute)

	assert.False(t, s.Has("k1"), "oldest-inserted key must be evicted")
	assert.True(t, s.Has("k2"))
	assert.True(t, s.Has("k3"))
	assert.True(t, s.Has("k4"))
	assert.Equal(t, 3, s.Len())
}

func TestStoreReplaceDoesNotEvict(t *testing.T) {
	s := NewStore[string](WithCapacity(2))
	defer s.Close()

	s.Set("k1", "v1", time.Minute)
	s.Set("k2", "v2", time.Minute)

	// Replacing an existing key is not an insertion; nothing is evicted
	// and k1 keeps its slot as the oldest.
	s.Set("k2", "v2b", time.Minute)
	assert.True(t, s.Has("k1"))

	got, _ := s.Get("k2")
	assert.Equal(t, "v2b", got)

	s.Set("k3", "v3", time.Minute)
	assert.False(t, s.Has("k1"))
	assert.True(t, s.Has("k2"))
}

func TestStoreEvictionSkipsDeletedKeys(t *testing.T) {
	s := NewStore[string](WithCapacity(2))
	defer s.Close()

	s.Set("k1", "v1", time.Minute)
	s.Set("k2", "v2", time.Minute)
	s.Delete("k1")

	// k1's queue slot is stale; inserting two more keys must evict k2
	// first, not fail on the already-deleted k1.
	s.Set("k3", "v3", time.Minute)
	s.Set("k4", "v4", time.Minute)

	assert.False(t, s.Has("k2"))
	assert.True(t, s.Has("k3"))
	assert.True(t, s.Has("k4"))
}

func TestStoreDelete(t *testing.T) {
	s := NewStore[string]()
	defer s.Close()

	s.Set("k", "v", time.Minute)
	s.Delete("k")
	assert.False(t, s.Has("k"))

	// Idempotent.
	s.Delete("k")
	s.Delete("never-existed")
}

func TestStoreDeleteByPrefix(t *testing.T) {
	s := NewStore[string]()
	defer s.Close()

	s.Set("user-sessions:u1:20", "a", time.Minute)
	s.Set("user-sessions:u1:50", "b", time.Minute)
	s.Set("user-sessions:u2:20", "c", time.Minute)
	s.Set("session:s1", "d", time.Minute)

	removed := s.DeleteByPrefix("user-sessions:u1:")
	assert.Equal(t, 2, removed)

	assert.False(t, s.Has("user-sessions:u1:20"))
	assert.False(t, s.Has("user-sessions:u1:50"))
	assert.True(t, s.Has("user-sessions:u2:20"))
	assert.True(t, s.Has("session:s1"))

	assert.Equal(t, 0, s.DeleteByPrefix("no-such-prefix:"))
}

func TestStoreClear(t *testing.T) {
	s := NewStore[int]()
	defer s.Close()

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("a"))

	// The store stays usable after Clear.
	s.Set("c", 3, time.Minute)
	assert.True(t, s.Has("c"))
}

func TestStoreSweepRemovesExpired(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[string](
		WithClock(clock.Now),
		WithSweepInterval(5*time.Millisecond),
	)
	defer s.Close()

	s.Set("short", "v", time.Millisecond)
	s.Set("long", "v", time.Hour)

	clock.Advance(time.Second)

	// The sweeper runs on wall-clock ticks even though expiry uses the
	// fake clock; give it a few ticks to fire.
	assert.Eventually(t, func() bool {
		return s.Len() == 1
	}, time.Second, 5*time.Millisecond)

	assert.True(t, s.Has("long"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore[int](WithCapacity(128))
	defer s.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d:k%d", g, i%32)
				s.Set(key, i, time.Minute)
				s.Get(key)
				if i%10 == 0 {
					s.Delete(key)
				}
				if i%50 == 0 {
					s.DeleteByPrefix(fmt.Sprintf("g%d:", g))
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 128)
}
