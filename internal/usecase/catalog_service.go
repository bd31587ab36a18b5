package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/basketlens/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// catalogCacheKey is the cache key of the single catalog snapshot
const catalogCacheKey = "supermarkets"

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService serves catalog snapshots from cache, downloading on a miss
type CatalogService struct {
	cache    domain.SnapshotCache
	fetcher  domain.CatalogFetcher
	cacheTTL time.Duration
	group    singleflight.Group
	logger   zerolog.Logger
}

// NewCatalogService creates a read-through catalog service
func NewCatalogService(
	cache domain.SnapshotCache,
	fetcher domain.CatalogFetcher,
	config CatalogServiceConfig,
	logger zerolog.Logger,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &CatalogService{
		cache:    cache,
		fetcher:  fetcher,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// Snapshot returns the cached catalog or downloads a fresh one.
// Concurrent misses share one download.
func (s *CatalogService) Snapshot(ctx context.Context) (*domain.CatalogSnapshot, error) {
	cached, err := s.cache.Get(ctx, catalogCacheKey)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("catalog cache read failed")
	}

	v, err, shared := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		// Shared by every waiting caller; one caller cancelling must not end it
		snapshot, err := s.fetcher.FetchCatalog(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(context.WithoutCancel(ctx), catalogCacheKey, snapshot, s.cacheTTL); err != nil {
			// Serve the download even when it could not be cached
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}

		s.logger.Info().
			Int("retailers", len(snapshot.Retailers)).
			Str("last_modified", snapshot.LastModified).
			Msg("catalog downloaded")
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Msg("catalog download shared with concurrent caller")
	}

	return v.(*domain.CatalogSnapshot), nil
}

// LastUpdated returns the upstream Last-Modified value of the cached catalog,
// even when the cache entry has expired
func (s *CatalogService) LastUpdated(ctx context.Context) (string, bool) {
	meta, err := s.cache.Stat(ctx, catalogCacheKey)
	if err != nil || meta == nil || meta.LastModified == "" {
		return "", false
	}
	return meta.LastModified, true
}
