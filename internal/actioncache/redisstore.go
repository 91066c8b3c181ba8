package actioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// RedisStore is a network-attached ActionStore for caches shared across
// hosts. Keys are the exact instruction text under a fixed prefix; values
// are the JSON-encoded action. Plain SET semantics: last write wins.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

var _ schemas.ActionStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing redis client and verifies connectivity.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, prefix string, logger *zap.Logger) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.Named("actioncache.redis"),
	}, nil
}

// Read returns the action cached for the exact instruction text.
func (s *RedisStore) Read(ctx context.Context, instruction string) (schemas.CachedAction, bool, error) {
	var action schemas.CachedAction

	raw, err := s.client.Get(ctx, s.prefix+instruction).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return action, false, nil
		}
		return action, false, fmt.Errorf("cache read failed: %w", err)
	}

	if err := json.Unmarshal(raw, &action); err != nil {
		return action, false, fmt.Errorf("cached action for instruction is corrupt: %w", err)
	}
	return action, true, nil
}

// Write stores the action under the exact instruction text. No TTL.
func (s *RedisStore) Write(ctx context.Context, instruction string, action schemas.CachedAction) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+instruction, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Clear deletes every cached instruction under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	s.logger.Info("Cleared action cache.", zap.Int("entries", len(keys)))
	return nil
}
