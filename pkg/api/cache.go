package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
)

// CacheStore is the storage backend behind a Cache primitive. Entry TTL and
// capacity are properties of the store, configured at construction
// (see the memory/SQLite/Redis constructors at the module root).
//
// Implementations must be safe for concurrent use: the Cache instance is
// the only primitive whose state outlives a single call, so its store is
// the one place in the runtime that needs a concurrency-safe structure.
type CacheStore interface {
	// Get returns the stored value for key and whether a live (non-expired)
	// entry existed.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores value under key, refreshing its TTL and evicting the
	// least-recently-used entry if the store is over capacity.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the entry for key if present.
	Delete(ctx context.Context, key string) error
}

// KeyFunc derives the cache key for an execution from its input and
// context.
type KeyFunc func(input any, ec *ExecutionContext) (string, error)

// DefaultKey derives a key by gob-encoding the input and hashing it with
// sha256. The input must be gob-encodable; inputs that are not need a
// custom KeyFunc.
func DefaultKey(input any, ec *ExecutionContext) (string, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	iv := input
	if err := enc.Encode(&iv); err != nil {
		return "", fmt.Errorf("derive cache key: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// Cache memoizes the wrapped primitive's results in a CacheStore. On a hit
// within TTL the stored value is returned without invoking the child, so no
// side effects re-run; on a miss or after expiry the child runs and its
// result is stored.
//
// Unlike everything else in the runtime, cache contents are private to the
// Cache instance and persist across calls; nothing is kept in the per-call
// context beyond a CacheRecord trail entry per lookup.
type Cache struct {
	name  string
	child Primitive
	store CacheStore
	key   KeyFunc
}

// NewCache builds a Cache around child using store. A nil key function
// falls back to DefaultKey.
func NewCache(name string, child Primitive, store CacheStore, key KeyFunc) (*Cache, error) {
	if name == "" {
		name = "cache"
	}
	if child == nil {
		return nil, &ValidationError{Primitive: name, Reason: "child primitive is required"}
	}
	if store == nil {
		return nil, &ValidationError{Primitive: name, Reason: "store is required"}
	}
	if key == nil {
		key = DefaultKey
	}
	return &Cache{name: name, child: child, store: store, key: key}, nil
}

func (c *Cache) Name() string { return c.name }

func (c *Cache) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	key, err := c.key(input, ec)
	if err != nil {
		return nil, &ExecutionError{Primitive: c.name, Err: err}
	}

	if val, ok, err := c.store.Get(ctx, key); err == nil && ok {
		ec.Trail().recordCache(CacheRecord{Primitive: c.name, Key: key, Hit: true})
		ec.Checkpoint(c.name + "_hit")
		return val, nil
	}
	// Store read errors degrade to a miss; the child is the source of
	// truth and a flaky backend must not fail the execution.

	ec.Trail().recordCache(CacheRecord{Primitive: c.name, Key: key, Hit: false})

	out, err := c.child.Execute(ctx, input, ec)
	if err != nil {
		return nil, err
	}

	// Best-effort store; same reasoning as the read path.
	_ = c.store.Set(ctx, key, out)

	return out, nil
}
