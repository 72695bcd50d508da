// Package ratelimiter keeps token buckets keyed by request identity
// ("email_<addr>", "user_<id>", a client IP or "global").
package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	tokens  float64
	updated time.Time
}

// Limiter refills every bucket at rate tokens per second up to capacity.
// Buckets untouched for idle are dropped by a sweep that piggybacks on Allow.
type Limiter struct {
	rate     float64
	capacity float64
	idle     time.Duration
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(rate, capacity float64, idle time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		rate:     rate,
		capacity: capacity,
		idle:     idle,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow takes a token from key's bucket. When none is left it reports how long
// until the bucket holds one again.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, updated: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.updated); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed.Seconds()*l.rate)
	}
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.rate <= 0 {
		return false, l.idle
	}
	return false, time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
}

// sweep drops idle buckets at most once per idle period. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.updated) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Len is the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Login allows a burst of five attempts per identity, then one every twelve seconds.
func Login() *Limiter { return New(5.0/60.0, 5, time.Hour) }

func OnceInSecond() *Limiter { return New(1, 1, time.Hour) }

func Rps10() *Limiter { return New(10, 10, time.Hour) }

func Rps100() *Limiter { return New(100, 100, time.Hour) }
