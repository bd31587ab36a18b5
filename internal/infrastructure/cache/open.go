package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/basketlens/backend/internal/domain"
)

// Store is a snapshot cache that holds resources until closed
type Store interface {
	domain.SnapshotCache
	io.Closer
}

// Options selects and configures a cache backend
type Options struct {
	Type       string // "memory", "file" or "sqlite"
	Dir        string
	SQLitePath string
}

// Open creates the cache backend named by opts.Type
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "file":
		return NewFileCache(opts.Dir), nil
	case "sqlite":
		return NewSQLiteCache(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown cache type %q", opts.Type)
	}
}
