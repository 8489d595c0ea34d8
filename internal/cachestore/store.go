// Package cachestore provides the storage backends behind the Cache
// primitive: in-memory LRU, SQLite, and Redis. All backends implement
// api.CacheStore and are exposed through constructors at the module root.
package cachestore

import "github.com/jlaasanen/strand/pkg/api"

// Ensure every backend satisfies the CacheStore contract.
var (
	_ api.CacheStore = (*MemoryStore)(nil)
	_ api.CacheStore = (*SQLiteStore)(nil)
	_ api.CacheStore = (*RedisStore)(nil)
)
