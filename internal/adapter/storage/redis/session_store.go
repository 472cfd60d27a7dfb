package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements ports.SessionStore. A revoked admin token id is
// kept until the token would have expired anyway.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed revocation list.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: keyPrefix + "revoked:",
	}
}

// Revoke blacklists tokenID for ttl. A non-positive ttl is a no-op since the
// token is already expired.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis session revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis session lookup: %w", err)
	}
	return n > 0, nil
}
