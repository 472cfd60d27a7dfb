package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDedupStore implements ports.EventDedupStore using Redis SET NX.
type EventDedupStore struct {
	client *goredis.Client
	prefix string
}

// NewEventDedupStore creates a new Redis-backed webhook dedup store.
func NewEventDedupStore(client *goredis.Client) *EventDedupStore {
	return &EventDedupStore{
		client: client,
		prefix: keyPrefix + "webhook:",
	}
}

// MarkSeen atomically records a delivery key.
// Returns true the first time a key is seen, false on replays.
func (s *EventDedupStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis dedup mark: %w", err)
	}
	return result == "OK", nil
}

// Forget drops a delivery key so a failed delivery can be processed again.
func (s *EventDedupStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis dedup forget: %w", err)
	}
	return nil
}
