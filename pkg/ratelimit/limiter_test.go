package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(requests int, window time.Duration) (*KeyedLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(Config{Requests: requests, Window: window})
	l.now = func() time.Time { return now }
	return l, &now
}

func TestKeyedLimiter_BurstThenReject(t *testing.T) {
	l, _ := newTestLimiter(5, 10*time.Second)

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("caller")
		assert.True(t, ok, "request %d", i)
	}

	ok, retryAfter := l.Allow("caller")
	assert.False(t, ok)
	assert.Equal(t, 2*time.Second, retryAfter)
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	ok, _ := l.Allow("a")
	assert.True(t, ok)
	ok, _ = l.Allow("a")
	assert.False(t, ok)
	ok, _ = l.Allow("b")
	assert.True(t, ok)
}

func TestKeyedLimiter_Refills(t *testing.T) {
	l, now := newTestLimiter(2, 10*time.Second)

	l.Allow("a")
	l.Allow("a")
	ok, _ := l.Allow("a")
	assert.False(t, ok)

	*now = now.Add(5 * time.Second)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestKeyedLimiter_SweepsIdleCallers(t *testing.T) {
	l, now := newTestLimiter(2, time.Second)

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	*now = now.Add(5 * time.Second)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}
