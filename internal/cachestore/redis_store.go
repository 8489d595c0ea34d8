package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a cache backend shared across processes via Redis.
// It uses a simple key structure:
//
//	<prefix>entry:<key> => gob-encoded value, with TTL applied by Redis
//
// Capacity-based eviction is delegated to Redis itself (maxmemory with an
// LRU policy); the store only manages TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. prefix is optional but recommended
// (e.g. "strand:"); ttl <= 0 means entries never expire.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "strand:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + "entry:" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (any, bool, error) {
	blob, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	val, err := DecodeValue(blob)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	blob, err := EncodeValue(value)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(key), blob, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
