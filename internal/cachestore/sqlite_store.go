package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore is a cache backend persisted in SQLite, useful when cached
// results should survive process restarts.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver:
//
//	import _ "modernc.org/sqlite"
//
// Values are gob-encoded; eviction is least-recently-used by last access
// time once the entry count exceeds maxSize.
type SQLiteStore struct {
	db      *sql.DB
	ttl     time.Duration
	maxSize int
}

// NewSQLiteStore initializes the schema in db and returns a store with the
// given TTL and capacity. ttl <= 0 means entries never expire; maxSize <= 0
// means unbounded.
func NewSQLiteStore(db *sql.DB, maxSize int, ttl time.Duration) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, ttl: ttl, maxSize: maxSize}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value BLOB,
			expires_at INTEGER NOT NULL,
			touched_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (any, bool, error) {
	now := time.Now().UnixNano()

	var (
		blob      []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&blob, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if expiresAt > 0 && expiresAt <= now {
		// Expired; drop it lazily.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false, nil
	}

	// Touch for LRU ordering.
	_, _ = s.db.ExecContext(ctx,
		`UPDATE cache_entries SET touched_at = ? WHERE key = ?`, now, key)

	val, err := DecodeValue(blob)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	blob, err := EncodeValue(value)
	if err != nil {
		return err
	}

	now := time.Now().UnixNano()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now + s.ttl.Nanoseconds()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, touched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			touched_at = excluded.touched_at`,
		key, blob, expiresAt, now,
	)
	if err != nil {
		return err
	}

	return s.evict(ctx)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// evict removes least-recently-touched entries until the store is within
// capacity.
func (s *SQLiteStore) evict(ctx context.Context) error {
	if s.maxSize <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cache_entries WHERE key IN (
			SELECT key FROM cache_entries
			ORDER BY touched_at DESC
			LIMIT -1 OFFSET ?
		)`, s.maxSize,
	)
	return err
}

// Len reports the number of stored entries, including not-yet-reaped
// expired ones. For tests and diagnostics.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n)
	return n, err
}
