package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SlidingWindowConfig configures a sliding-window rate limiter.
type SlidingWindowConfig struct {
	// Limit is the maximum number of allowed calls per key inside one
	// window.
	// Default: 100
	Limit int

	// Window is the moving interval the limit applies to.
	// Default: 1 minute
	Window time.Duration

	// SweepInterval is how often idle keys are swept from the window
	// map. Without the sweep the map grows with actor cardinality and
	// never shrinks.
	// Default: 5 x Window
	SweepInterval time.Duration
}

// SlidingWindowLimiter throttles per-key call rates by counting events
// inside a continuously moving time window rather than fixed buckets.
//
// Keys are created lazily on first use and swept once their windows
// drain, so the key map stays bounded under high actor cardinality.
type SlidingWindowLimiter struct {
	config SlidingWindowConfig

	mu        sync.Mutex
	windows   map[string][]time.Time
	lastSweep time.Time
}

// NewSlidingWindowLimiter creates a sliding-window limiter. Negative
// limits or windows fail fast with ErrInvalidConfig.
func NewSlidingWindowLimiter(config SlidingWindowConfig) (*SlidingWindowLimiter, error) {
	if config.Limit < 0 {
		return nil, fmt.Errorf("%w: limit %d is negative", ErrInvalidConfig, config.Limit)
	}
	if config.Window < 0 {
		return nil, fmt.Errorf("%w: window %v is negative", ErrInvalidConfig, config.Window)
	}
	if config.SweepInterval < 0 {
		return nil, fmt.Errorf("%w: sweep interval %v is negative", ErrInvalidConfig, config.SweepInterval)
	}

	// Apply defaults
	if config.Limit == 0 {
		config.Limit = 100
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 5 * config.Window
	}

	return &SlidingWindowLimiter{
		config:    config,
		windows:   make(map[string][]time.Time),
		lastSweep: time.Now(),
	}, nil
}

// RateLimitKey builds the canonical limiter key for an actor and
// operation pair.
func RateLimitKey(actorID, operation string) string {
	return actorID + ":" + operation
}

// Allow reports whether the keyed caller may proceed. Denied calls are
// not recorded against the window.
func (l *SlidingWindowLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := pruneWindow(l.windows[key], cutoff)

	allowed := len(window) < l.config.Limit
	if allowed {
		window = append(window, now)
	}
	l.windows[key] = window

	if now.Sub(l.lastSweep) >= l.config.SweepInterval {
		l.sweepLocked(cutoff)
		l.lastSweep = now
	}

	return allowed
}

// Execute runs the operation if the keyed caller is under the limit.
func (l *SlidingWindowLimiter) Execute(ctx context.Context, key string, op func(context.Context) error) error {
	if !l.Allow(key) {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Remaining returns how many calls the key has left in the current
// window.
func (l *SlidingWindowLimiter) Remaining(key string) int {
	cutoff := time.Now().Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := pruneWindow(l.windows[key], cutoff)
	l.windows[key] = window

	if remaining := l.config.Limit - len(window); remaining > 0 {
		return remaining
	}
	return 0
}

// Len returns the number of tracked keys, including keys whose windows
// have drained but have not been swept yet.
func (l *SlidingWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Reset discards all window state.
func (l *SlidingWindowLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string][]time.Time)
	l.lastSweep = time.Now()
}

// sweepLocked drops every key whose window is empty after pruning.
func (l *SlidingWindowLimiter) sweepLocked(cutoff time.Time) {
	for key, window := range l.windows {
		if len(pruneWindow(window, cutoff)) == 0 {
			delete(l.windows, key)
		}
	}
}

// pruneWindow drops timestamps at or before the cutoff. Windows are
// append-only and therefore sorted, so the first retained index is
// found by a linear scan from the front.
func pruneWindow(window []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return window
	}
	return append(window[:0:0], window[i:]...)
}
