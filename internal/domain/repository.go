package domain

import (
	"context"
	"time"
)

// SnapshotCache defines the interface for storing catalog snapshots with a TTL
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*CatalogSnapshot, error)
	Set(ctx context.Context, key string, snapshot *CatalogSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Stat returns the metadata of a stored snapshot, ignoring expiry
	Stat(ctx context.Context, key string) (*SnapshotMeta, error)
}

// CatalogFetcher downloads a complete catalog snapshot from the upstream source
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (*CatalogSnapshot, error)
}

// CatalogSource provides the current catalog snapshot, from cache or upstream
type CatalogSource interface {
	Snapshot(ctx context.Context) (*CatalogSnapshot, error)
	LastUpdated(ctx context.Context) (string, bool)
}
