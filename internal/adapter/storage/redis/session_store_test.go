package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_RevokeAndCheck(t *testing.T) {
	s, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", 30*time.Minute))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	s.FastForward(31 * time.Minute)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry is dropped once the token has expired")
}

func TestSessionStore_RevokeExpiredToken(t *testing.T) {
	s, client := newTestClient(t)
	store := NewSessionStore(client)

	require.NoError(t, store.Revoke(context.Background(), "jti-2", -time.Second))
	assert.Empty(t, s.Keys())
}

func TestSessionStore_RedisDown(t *testing.T) {
	s, client := newTestClient(t)
	store := NewSessionStore(client)
	s.Close()

	_, err := store.IsRevoked(context.Background(), "jti-3")
	assert.Error(t, err)
}
