package ratelimit

import (
	"context"
	"testing"
	"time"

	"maswada-backend/pkg/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ auth.RateLimiter = (*RedisLimiter)(nil)

func newTestLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, limit, time.Minute), s
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("AllowsUpToLimit", func(t *testing.T) {
		l, _ := newTestLimiter(t, 3)
		for i := 0; i < 3; i++ {
			ok, err := l.Allow(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, ok, "request %d", i+1)
		}
		ok, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1)
		ok, _ := l.Allow(ctx, "user-1")
		assert.True(t, ok)
		ok, _ = l.Allow(ctx, "user-2")
		assert.True(t, ok)
	})

	t.Run("NewWindowStartsFresh", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1)
		now := time.Date(2025, 1, 1, 12, 0, 10, 0, time.UTC)
		l.now = func() time.Time { return now }

		ok, _ := l.Allow(ctx, "user-1")
		assert.True(t, ok)
		ok, _ = l.Allow(ctx, "user-1")
		assert.False(t, ok)

		now = now.Add(time.Minute)
		ok, _ = l.Allow(ctx, "user-1")
		assert.True(t, ok)
	})

	t.Run("CountersExpire", func(t *testing.T) {
		l, s := newTestLimiter(t, 1)
		_, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)

		keys := s.Keys()
		require.Len(t, keys, 1)
		assert.Equal(t, time.Minute, s.TTL(keys[0]))
	})

	t.Run("Reset", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1)
		_, _ = l.Allow(ctx, "user-1")
		require.NoError(t, l.Reset(ctx, "user-1"))
		ok, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RedisErrorIsReturned", func(t *testing.T) {
		l, s := newTestLimiter(t, 1)
		s.Close()
		_, err := l.Allow(ctx, "user-1")
		assert.Error(t, err)
	})
}
