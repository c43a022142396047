package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolguard/sg-cctv/internal/ratelimit"
)

func newTestLimiter(t *testing.T) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return ratelimit.NewLimiter(client, "test-salt"), mr
}

func TestCheck_AllowsWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 3, Window: time.Second}

	for i := 0; i < 3; i++ {
		d, err := l.Check(context.Background(), "rl:ip:abc", cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should pass", i+1)
	}

	d, err := l.Check(context.Background(), "rl:ip:abc", cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestCheck_WindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	d, err := l.Check(context.Background(), "rl:ip:xyz", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, _ = l.Check(context.Background(), "rl:ip:xyz", cfg)
	assert.False(t, d.Allowed)

	mr.FastForward(2 * time.Second)

	d, err = l.Check(context.Background(), "rl:ip:xyz", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "counter resets after the window")
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	d, _ := l.Check(context.Background(), "rl:ip:one", cfg)
	assert.True(t, d.Allowed)

	d, _ = l.Check(context.Background(), "rl:ip:two", cfg)
	assert.True(t, d.Allowed, "a different client keeps its own budget")
}

func TestCheck_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.Check(context.Background(), "rl:ip:abc", ratelimit.LimitConfig{Rate: 1, Window: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrRedisUnavailable)
}

func TestConfigFor(t *testing.T) {
	cfg := ratelimit.ConfigFor(20, 40)
	assert.Equal(t, 40, cfg.Rate, "burst becomes the window budget")
	assert.Equal(t, 2*time.Second, cfg.Window, "window stretches to keep the average at rps")

	cfg = ratelimit.ConfigFor(20, 0)
	assert.Equal(t, 20, cfg.Rate)
	assert.Equal(t, time.Second, cfg.Window)
}

func TestHashIP_Stable(t *testing.T) {
	l, _ := newTestLimiter(t)

	assert.Equal(t, l.HashIP("10.0.0.1"), l.HashIP("10.0.0.1"))
	assert.NotEqual(t, l.HashIP("10.0.0.1"), l.HashIP("10.0.0.2"))
}
