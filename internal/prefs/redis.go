package prefs

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "prefs:v1:"

// RedisStore persists preferences in Redis so they survive server restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get fetches a preference, returning the empty string when unset.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set writes a preference. Preferences have no TTL: they are cleared only by
// explicit user action.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, keyPrefix+key, value, 0).Err()
}

// Delete removes a preference.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
