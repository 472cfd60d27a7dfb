package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_Allow(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	clock := time.Unix(1_800_000_000, 0)
	store.now = func() time.Time { return clock }

	t.Run("allows requests within limit", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			result, err := store.Allow(ctx, "seller-1:payments", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, int64(3), result.Limit)
			assert.Equal(t, 3-i, result.Remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		result, err := store.Allow(ctx, "seller-1:payments", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, int64(0), result.Remaining)
	})

	t.Run("different keys are independent", func(t *testing.T) {
		result, err := store.Allow(ctx, "seller-2:payments", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(4), result.Remaining)
	})

	t.Run("next window starts fresh", func(t *testing.T) {
		clock = clock.Add(time.Minute)
		result, err := store.Allow(ctx, "seller-1:payments", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(2), result.Remaining)
	})

	t.Run("window keys expire", func(t *testing.T) {
		key := "ip-10.0.0.1:register"
		_, err := store.Allow(ctx, key, 5, time.Hour)
		require.NoError(t, err)

		var found string
		for _, k := range mr.Keys() {
			if strings.HasPrefix(k, keyPrefix) && strings.Contains(k, key) {
				found = k
			}
		}
		require.NotEmpty(t, found)
		assert.Equal(t, time.Hour+time.Second, mr.TTL(found))
	})

	t.Run("reset and retry after", func(t *testing.T) {
		clock = time.Unix(1_800_000_030, 0)
		result, err := store.Allow(ctx, "seller-3:refunds", 1, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, time.Unix(1_800_000_060, 0), result.ResetAt)
		assert.Equal(t, 30*time.Second, result.RetryAfter(clock))
		assert.Equal(t, time.Duration(0), result.RetryAfter(clock.Add(time.Hour)))
	})
}

func TestRateLimitStore_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRateLimitStore(client)
	mr.Close()

	_, err := store.Allow(context.Background(), "seller-1:payments", 3, time.Minute)
	assert.Error(t, err)
}
