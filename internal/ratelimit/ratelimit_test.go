package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// TestLimiter_BurstThenReject тестирует исчерпание бакета и ожидание следующего токена
func TestLimiter_BurstThenReject(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewLimiter(newMiniRedis(t), "test:", 1.0/60, 3)
	l.now = clock.Now

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i)
	}

	ok, wait, err := l.Allow(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, float64(60*time.Second), float64(wait), float64(10*time.Millisecond))

	clock.Advance(61 * time.Second)
	ok, _, err = l.Allow(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestLimiter_KeysIndependent тестирует отдельные бакеты для разных email
func TestLimiter_KeysIndependent(t *testing.T) {
	l := NewLimiter(newMiniRedis(t), "test:", 1.0/60, 1)
	ctx := context.Background()

	ok, _, err := l.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = l.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = l.Allow(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	var nilLimiter *Limiter
	ok, _, err := nilLimiter.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)

	l := NewLimiter(newMiniRedis(t), "", 0, 0)
	ok, _, err = l.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_RedisDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	s.Close()

	l := NewLimiter(rdb, "test:", 1, 1)
	_, _, err = l.Allow(context.Background(), "x")
	assert.Error(t, err)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(newMiniRedis(t), "test:", 1.0/3600, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := l.Allow(context.Background(), "burst@example.com")
			if err != nil || !ok {
				return
			}
			mu.Lock()
			success++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
}
