package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process cache backend combining LRU eviction with a
// per-store TTL. It is safe for concurrent use and is the default backend
// for the Cache primitive.
type MemoryStore struct {
	lru *expirable.LRU[string, any]
}

// NewMemoryStore creates a MemoryStore holding at most maxSize entries,
// each expiring ttl after it was last written. maxSize <= 0 falls back to
// 1024; ttl <= 0 means entries never expire.
func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, any](maxSize, nil, ttl),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (any, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	s.lru.Add(key, value)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

// Len reports the number of live entries, for tests and diagnostics.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
