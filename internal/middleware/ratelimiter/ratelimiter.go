// Package ratelimiter implements per-key token buckets.
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// KeyedLimiter holds one token bucket per key. Buckets idle for longer than
// expiration are dropped by Cleanup.
type KeyedLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	capacity   float64
	expiration time.Duration
	now        func() time.Time
}

func New(rate float64, capacity int, expiration time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   float64(capacity),
		expiration: expiration,
		now:        time.Now,
	}
}

// Allow takes one token from key's bucket if one is available.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Cleanup drops buckets that have been idle for the expiration period.
func (l *KeyedLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.expiration)
	for k, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartBackgroundCleanup runs Cleanup every expiration period until ctx is
// cancelled.
func (l *KeyedLimiter) StartBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.expiration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
