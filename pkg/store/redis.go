package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "variantkit:"

// RedisStorage is a Storage implementation over a Redis server. All keys are
// namespaced with a prefix so Clear only touches keys owned by this client.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithKeyPrefix overrides the key namespace prefix.
func WithKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

// NewRedisStorage creates a Redis-backed storage over an existing client.
// The client's lifecycle stays with the caller.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetItem returns the value for key, or ErrItemNotFound when absent.
func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrItemNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

// SetItem stores value under key without expiration; snapshot freshness is
// governed by the cache TTL, not by Redis.
func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key.
func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Clear removes every key under this storage's prefix.
func (s *RedisStorage) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear scan: %w", err)
	}
	return nil
}
