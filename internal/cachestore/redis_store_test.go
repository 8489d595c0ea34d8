package cachestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// These tests need a live Redis; set STRAND_REDIS_ADDR (e.g. localhost:6379)
// to run them.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("STRAND_REDIS_ADDR")
	if addr == "" {
		t.Skip("STRAND_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := NewRedisStore(redisClient(t), "strand_test:", time.Minute)
	ctx := context.Background()

	key := "round_trip"
	defer func() { _ = s.Delete(ctx, key) }()

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, key, "value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if v.(string) != "value" {
		t.Fatalf("expected value, got %v", v)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	s := NewRedisStore(redisClient(t), "strand_test:", 100*time.Millisecond)
	ctx := context.Background()

	key := "ttl_expiry"
	defer func() { _ = s.Delete(ctx, key) }()

	if err := s.Set(ctx, key, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, key); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(200 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, key); ok {
		t.Fatal("expected entry to expire")
	}
}
