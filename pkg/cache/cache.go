// Package cache provides a bounded, TTL-evicting result cache whose loads are
// coalesced so at most one computation per key is in flight.
package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrLoadPanicked is returned to every waiter when a loader panics
var ErrLoadPanicked = errors.New("cache loader panicked")

// Outcome describes how GetOrLoad satisfied a request
type Outcome string

const (
	OutcomeHit       Outcome = "hit"
	OutcomeMiss      Outcome = "miss"
	OutcomeCoalesced Outcome = "coalesced"
)

// Config holds cache configuration
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// DefaultConfig mirrors the comparison cache: 3 minutes, 100 entries.
func DefaultConfig() Config {
	return Config{
		TTL:        3 * time.Minute,
		MaxEntries: 100,
	}
}

// Stats is a point-in-time view of cache counters
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Coalesced uint64 `json:"coalesced"`
	Evictions uint64 `json:"evictions"`
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is safe for concurrent use
type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	ttl     time.Duration
	max     int
	now     func() time.Time
	group   singleflight.Group
	stats   Stats
	enabled bool
}

// New creates a cache. A non-positive TTL disables storage but keeps coalescing.
func New[V any](config Config) *Cache[V] {
	return &Cache[V]{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     config.TTL,
		max:     config.MaxEntries,
		now:     time.Now,
		enabled: config.TTL > 0,
	}
}

// Get returns a live entry and refreshes its recency
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(el)
		return zero, false
	}
	c.lru.MoveToFront(el)
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full
func (c *Cache[V]) Set(key string, value V) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return
	}

	c.items[key] = c.lru.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	for c.max > 0 && c.lru.Len() > c.max {
		c.removeLocked(c.lru.Back())
		c.stats.Evictions++
	}
}

// Delete removes key
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Clear drops every entry and returns how many were removed
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.lru.Len()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the counters
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.lru.Len()
	return s
}

// PurgeExpired removes expired entries and returns how many were dropped
func (c *Cache[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[V]).expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	c.lru.Remove(el)
}

// GetOrLoad returns the cached value for key or runs load exactly once across
// concurrent callers. load receives a context that keeps ctx values but not its
// cancellation, so one caller going away does not fail the others; each caller
// still stops waiting when its own ctx is done. Errors are never cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, Outcome, error) {
	var zero V

	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.stats.Hits++
		c.mu.Unlock()
		return v, OutcomeHit, nil
	}
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (result any, err error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrLoadPanicked, r)
			}
		}()
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, OutcomeMiss, ctx.Err()
	case res := <-ch:
		outcome := OutcomeMiss
		c.mu.Lock()
		if res.Shared {
			outcome = OutcomeCoalesced
			c.stats.Coalesced++
		} else {
			c.stats.Misses++
		}
		c.mu.Unlock()

		if res.Err != nil {
			return zero, outcome, res.Err
		}
		return res.Val.(V), outcome, nil
	}
}
