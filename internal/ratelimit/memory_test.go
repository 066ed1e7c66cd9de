package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func limited(t *testing.T, l Limiter, key string) bool {
	t.Helper()
	ok, err := l.IsLimited(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestMemory_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewMemory(Policy{MaxAttempts: 3, Window: 15 * time.Minute}, WithClock(clock.Now))

	assert.False(t, limited(t, l, "10.0.0.1"))
	for i := 0; i < 2; i++ {
		require.NoError(t, l.RecordAttempt(ctx, "10.0.0.1"))
		assert.False(t, limited(t, l, "10.0.0.1"))
	}
	require.NoError(t, l.RecordAttempt(ctx, "10.0.0.1"))
	assert.True(t, limited(t, l, "10.0.0.1"))

	assert.False(t, limited(t, l, "10.0.0.2"), "other addresses are unaffected")
}

func TestMemory_UnlocksAfterWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewMemory(Policy{MaxAttempts: 2, Window: 15 * time.Minute}, WithClock(clock.Now))

	require.NoError(t, l.RecordAttempt(ctx, "10.0.0.1"))
	require.NoError(t, l.RecordAttempt(ctx, "10.0.0.1"))
	require.True(t, limited(t, l, "10.0.0.1"))

	clock.Advance(14 * time.Minute)
	assert.True(t, limited(t, l, "10.0.0.1"))

	clock.Advance(2 * time.Minute)
	assert.False(t, limited(t, l, "10.0.0.1"))
	assert.Equal(t, 0, l.Len(), "expired record should be evicted on read")
}

func TestMemory_WindowSlidesWithLastAttempt(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewMemory(Policy{MaxAttempts: 2, Window: 10 * time.Minute}, WithClock(clock.Now))

	require.NoError(t, l.RecordAttempt(ctx, "k"))
	clock.Advance(9 * time.Minute)
	require.NoError(t, l.RecordAttempt(ctx, "k"))
	clock.Advance(9 * time.Minute)

	assert.True(t, limited(t, l, "k"), "window is measured from the latest attempt")
}

func TestMemory_ClearResetsImmediately(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(Policy{MaxAttempts: 1, Window: time.Hour})

	require.NoError(t, l.RecordAttempt(ctx, "k"))
	require.True(t, limited(t, l, "k"))

	require.NoError(t, l.Clear(ctx, "k"))
	assert.False(t, limited(t, l, "k"))
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewMemory(Policy{MaxAttempts: 5, Window: time.Minute}, WithClock(clock.Now))

	require.NoError(t, l.RecordAttempt(ctx, "old"))
	clock.Advance(2 * time.Minute)
	require.NoError(t, l.RecordAttempt(ctx, "fresh"))

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestMemory_ConcurrentAttempts(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(Policy{MaxAttempts: 1000, Window: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = l.RecordAttempt(ctx, "shared")
				_ = l.RecordAttempt(ctx, fmt.Sprintf("key-%d", i))
				_, _ = l.IsLimited(ctx, "shared")
			}
		}(i)
	}
	wg.Wait()

	assert.True(t, limited(t, l, "shared"), "no increments may be lost")
	assert.Equal(t, 51, l.Len())
}

func TestMemory_DefaultPolicy(t *testing.T) {
	l := NewMemory(Policy{})
	assert.Equal(t, 5, l.policy.MaxAttempts)
	assert.Equal(t, 15*time.Minute, l.policy.Window)
}
