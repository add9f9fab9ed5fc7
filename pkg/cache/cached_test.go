package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCacheComputesOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string]()
	defer s.Close()

	calls := 0
	compute := func(ctx context.Context) (string, error) {
		calls++
		return "result", nil
	}

	got, err := WithCache(ctx, s, "k", 5*time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, "result", got)

	got, err = WithCache(ctx, s, "k", 5*time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, "result", got)

	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestWithCacheRecomputesAfterExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewStore[int](WithClock(clock.Now))
	defer s.Close()

	calls := 0
	compute := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := WithCache(ctx, s, "k", time.Second, compute)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	got, err := WithCache(ctx, s, "k", time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, calls)
}

func TestWithCacheDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string]()
	defer s.Close()

	calls := 0
	boom := errors.New("backing store unavailable")

	_, err := WithCache(ctx, s, "k", time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})
	require.ErrorIs(t, err, boom, "compute errors propagate unchanged")
	assert.False(t, s.Has("k"), "a failed computation must never be memoized")

	got, err := WithCache(ctx, s, "k", time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 2, calls)
}

func TestWithCacheRecomputesAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore[[]string]()
	defer s.Close()

	key := SessionListKey("u1", 20)
	calls := 0
	compute := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"s1"}, nil
	}

	_, err := WithCache(ctx, s, key, time.Minute, compute)
	require.NoError(t, err)

	s.DeleteByPrefix(UserSessionsPrefix("u1"))

	_, err = WithCache(ctx, s, key, time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "invalidated key must recompute")
}

func TestWithCacheConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string]()
	defer s.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "same-value", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := WithCache(ctx, s, "k", time.Minute, compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	// Duplicate computation is allowed; divergent results are not.
	for _, r := range results {
		assert.Equal(t, "same-value", r)
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "same-value", got)
}
