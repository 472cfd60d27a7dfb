package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyCache_SetAndGet(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "seller-123:checkout:order-001"
	value := []byte(`{"invoice_id":"inv_1","checkout_url":"https://checkout.example/inv_1"}`)

	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result)

	require.NoError(t, cache.Set(ctx, key, value, 24*time.Hour))

	result, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, result)
	assert.True(t, s.Exists(keyPrefix+"idempotency:"+key), "keys are namespaced")
}

func TestIdempotencyCache_TTLExpiry(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "seller-456:checkout:order-002"
	require.NoError(t, cache.Set(ctx, key, []byte(`{}`), time.Second))

	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result, "expired key should return nil")
}

func TestIdempotencyCache_RedisDown(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewIdempotencyCache(client)
	s.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
}
