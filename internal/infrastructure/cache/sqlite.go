package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/basketlens/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS snapshots (
	key           TEXT PRIMARY KEY,
	payload       BLOB NOT NULL,
	fetched_at    INTEGER NOT NULL,
	expires_at    INTEGER NOT NULL,
	last_modified TEXT NOT NULL DEFAULT ''
)`

// SQLiteCache stores snapshots in a SQLite database
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the database at path and ensures the schema
func NewSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Get retrieves an unexpired snapshot
func (c *SQLiteCache) Get(ctx context.Context, key string) (*domain.CatalogSnapshot, error) {
	var (
		payload      []byte
		fetchedAt    int64
		expiresAt    int64
		lastModified string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at, expires_at, last_modified FROM snapshots WHERE key = ?`, key,
	).Scan(&payload, &fetchedAt, &expiresAt, &lastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	if time.Now().After(time.UnixMilli(expiresAt)) {
		return nil, domain.ErrCacheMiss
	}

	var retailers []domain.Retailer
	if err := json.Unmarshal(payload, &retailers); err != nil {
		return nil, domain.ErrCacheMiss
	}

	return &domain.CatalogSnapshot{
		Retailers:    retailers,
		FetchedAt:    time.UnixMilli(fetchedAt),
		LastModified: lastModified,
	}, nil
}

// Set stores or replaces a snapshot with TTL
func (c *SQLiteCache) Set(ctx context.Context, key string, snapshot *domain.CatalogSnapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snapshot.Retailers)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	fetchedAt := snapshot.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, payload, fetched_at, expires_at, last_modified)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at,
		   last_modified = excluded.last_modified`,
		key, payload, fetchedAt.UnixMilli(), time.Now().Add(ttl).UnixMilli(), snapshot.LastModified,
	)
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Delete removes a snapshot
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Stat returns the metadata of a stored snapshot, ignoring expiry
func (c *SQLiteCache) Stat(ctx context.Context, key string) (*domain.SnapshotMeta, error) {
	var (
		fetchedAt    int64
		expiresAt    int64
		lastModified string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at, expires_at, last_modified FROM snapshots WHERE key = ?`, key,
	).Scan(&fetchedAt, &expiresAt, &lastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot meta: %w", err)
	}

	return &domain.SnapshotMeta{
		FetchedAt:    time.UnixMilli(fetchedAt),
		ExpiresAt:    time.UnixMilli(expiresAt),
		LastModified: lastModified,
	}, nil
}

// Close closes the database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
