// Package ratelimit implements a sliding-window limiter keyed by vault
// account id, used to throttle decryption-key-bearing RPCs.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a thread-safe sliding-window rate limiter.
type Limiter struct {
	maxAttempts int
	window      time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time
}

// New creates a Limiter allowing maxAttempts within window per key.
func New(maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string][]time.Time),
	}
}

// Allow reports whether another attempt for key is permitted right
// now, and records it if so. Expired attempts fall out of the window
// on every call, so the map never grows unbounded for an idle key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	valid := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if now.Sub(t) < l.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.maxAttempts {
		l.attempts[key] = valid
		return false
	}

	l.attempts[key] = append(valid, now)
	return true
}

// Reset clears a key's attempt history, called after a successful
// decrypt so a legitimate caller isn't penalized by earlier failures.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
