// Package ratelimit implements per-caller request limiting.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds limiter configuration. Requests are allowed per Window per key.
type Config struct {
	Requests int
	Window   time.Duration
	// IdleTTL is how long an untouched key is retained. Defaults to 2x Window.
	IdleTTL time.Duration
}

// DefaultConfig returns 30 requests per minute
func DefaultConfig() Config {
	return Config{
		Requests: 30,
		Window:   time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per caller. Each bucket holds Requests
// tokens and refills at Requests/Window, so a caller can burst the full quota
// and then continues at the average rate.
type KeyedLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// New creates a KeyedLimiter
func New(config Config) *KeyedLimiter {
	if config.Requests <= 0 {
		config.Requests = DefaultConfig().Requests
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 2 * config.Window
	}
	return &KeyedLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(config.Requests) / config.Window.Seconds()),
		burst:    config.Requests,
		idleTTL:  config.IdleTTL,
		now:      time.Now,
	}
}

// Allow consumes one token for key. When the bucket is empty it reports how
// long the caller should wait before retrying.
func (l *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len returns the number of tracked callers
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *KeyedLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, key)
		}
	}
}
