// Package ratelimit provides a fixed-window request counter keyed by
// (identity, endpoint). Each logical endpoint class gets its own Limiter
// instance so a burst against one endpoint cannot starve another.
//
// Fixed windows are a deliberate approximation: a client straddling a window
// boundary can land up to twice the nominal limit in a short burst. That is
// acceptable for abuse prevention; it is not billing-grade accounting.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Default limits applied when no options are given.
const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 60
)

// LimitExceededError is returned by Allow when the caller has exhausted the
// current window. RetryAfter is the time remaining until the window resets.
type LimitExceededError struct {
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s, retry in %s",
		e.Limit, e.Window, e.RetryAfter)
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, never
// less than 1, as expected by the Retry-After response header.
func (e *LimitExceededError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// KeyFunc composes the counter key for an (identity, endpoint) pair.
type KeyFunc func(identity, endpoint string) string

func defaultKey(identity, endpoint string) string {
	return identity + ":" + endpoint
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter rate limiter over its own bounded map.
// It is independent of the cache layer and safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	maxRequests int
	windowSize  time.Duration
	keyFunc     KeyFunc
	now         func() time.Time

	sweepEvery time.Duration
	stopSweep  chan struct{}
	closeOnce  sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindow sets the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.windowSize = d
		}
	}
}

// WithMaxRequests sets the per-window request ceiling.
func WithMaxRequests(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxRequests = n
		}
	}
}

// WithKeyFunc overrides the default identity:endpoint key composition.
func WithKeyFunc(f KeyFunc) Option {
	return func(l *Limiter) {
		if f != nil {
			l.keyFunc = f
		}
	}
}

// WithIdleSweep starts a background sweeper that drops windows whose reset
// time is long past, bounding memory for one-off identities. Cleanup is an
// optimization only; expired windows are also replaced lazily on access.
func WithIdleSweep(every time.Duration) Option {
	return func(l *Limiter) { l.sweepEvery = every }
}

// WithClock overrides the time source. Used by tests to control windows.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a fixed-window limiter.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		windows:     make(map[string]*window),
		maxRequests: DefaultMaxRequests,
		windowSize:  DefaultWindow,
		keyFunc:     defaultKey,
		now:         time.Now,
		stopSweep:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.sweepEvery > 0 {
		go l.sweep()
	}

	return l
}

// Allow records one request for (identity, endpoint) and returns nil if it
// fits in the current window, or a *LimitExceededError if the window is
// exhausted. An expired window is replaced with a fresh one before the
// increment that triggered the check.
func (l *Limiter) Allow(identity, endpoint string) error {
	key := l.keyFunc(identity, endpoint)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{
			count:   1,
			resetAt: now.Add(l.windowSize),
		}
		return nil
	}

	if w.count < l.maxRequests {
		w.count++
		return nil
	}

	return &LimitExceededError{
		Limit:      l.maxRequests,
		Window:     l.windowSize,
		RetryAfter: w.resetAt.Sub(now),
	}
}

// Reset forgets the current window for (identity, endpoint).
func (l *Limiter) Reset(identity, endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, l.keyFunc(identity, endpoint))
}

// Len returns the number of tracked windows.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Close stops the idle sweeper, if one was started.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stopSweep)
	})
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopSweep:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				// Keep windows for one extra length past reset so a
				// steadily active key is not churned.
				if now.Sub(w.resetAt) > l.windowSize {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
