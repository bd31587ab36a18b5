package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/basketlens/backend/internal/domain"
)

// fileEntry is the on-disk document of one cached snapshot. Times are Unix milliseconds.
type fileEntry struct {
	FetchedAt    int64             `json:"fetchedAt"`
	ExpiresAt    int64             `json:"expiresAt"`
	LastModified string            `json:"lastModified,omitempty"`
	Data         []domain.Retailer `json:"data"`
}

// FileCache stores each snapshot as a JSON document "<dir>/<key>.cache.json",
// so the catalog survives restarts of short-lived processes such as the CLI
type FileCache struct {
	dir   string
	mutex sync.RWMutex
}

// NewFileCache creates a file cache rooted at dir
func NewFileCache(dir string) *FileCache {
	if dir == "" {
		dir = "."
	}
	return &FileCache{dir: dir}
}

func (c *FileCache) fileFor(key string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, key)
	return filepath.Join(c.dir, safe+".cache.json")
}

func (c *FileCache) read(key string) (*fileEntry, error) {
	raw, err := os.ReadFile(c.fileFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt document is treated as absent and overwritten on the next Set
		return nil, domain.ErrCacheMiss
	}
	if entry.FetchedAt == 0 {
		return nil, domain.ErrCacheMiss
	}
	return &entry, nil
}

// Get retrieves a snapshot from disk
func (c *FileCache) Get(ctx context.Context, key string) (*domain.CatalogSnapshot, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, err := c.read(key)
	if err != nil {
		return nil, err
	}
	if time.Now().After(time.UnixMilli(entry.ExpiresAt)) {
		return nil, domain.ErrCacheMiss
	}

	return &domain.CatalogSnapshot{
		Retailers:    entry.Data,
		FetchedAt:    time.UnixMilli(entry.FetchedAt),
		LastModified: entry.LastModified,
	}, nil
}

// Set writes a snapshot to disk through a temporary file and rename
func (c *FileCache) Set(ctx context.Context, key string, snapshot *domain.CatalogSnapshot, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	fetchedAt := snapshot.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	raw, err := json.Marshal(fileEntry{
		FetchedAt:    fetchedAt.UnixMilli(),
		ExpiresAt:    time.Now().Add(ttl).UnixMilli(),
		LastModified: snapshot.LastModified,
		Data:         snapshot.Retailers,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	target := c.fileFor(key)
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}

// Delete removes the snapshot document
func (c *FileCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := os.Remove(c.fileFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete cache file: %w", err)
	}
	return nil
}

// Stat returns the metadata of the stored snapshot, ignoring expiry
func (c *FileCache) Stat(ctx context.Context, key string) (*domain.SnapshotMeta, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, err := c.read(key)
	if err != nil {
		return nil, err
	}

	return &domain.SnapshotMeta{
		FetchedAt:    time.UnixMilli(entry.FetchedAt),
		ExpiresAt:    time.UnixMilli(entry.ExpiresAt),
		LastModified: entry.LastModified,
	}, nil
}

// Close is a no-op; the cache holds no open handles between calls
func (c *FileCache) Close() error {
	return nil
}
