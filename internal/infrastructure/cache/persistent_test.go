package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/basketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persistentStores returns a fresh file and sqlite store rooted in a temp dir
func persistentStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := Open(context.Background(), Options{Type: "sqlite", SQLitePath: filepath.Join(dir, "cache.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	fileStore, err := Open(context.Background(), Options{Type: "file", Dir: filepath.Join(dir, "files")})
	require.NoError(t, err)

	return map[string]Store{"file": fileStore, "sqlite": sqliteStore}
}

func TestPersistentStores_RoundTrip(t *testing.T) {
	for name, store := range persistentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snapshot := testSnapshot("Tue, 10 Jun 2025 06:00:00 GMT")

			require.NoError(t, store.Set(ctx, "supermarkets", snapshot, time.Minute))

			got, err := store.Get(ctx, "supermarkets")
			require.NoError(t, err)
			assert.Equal(t, snapshot.Retailers, got.Retailers)
			assert.Equal(t, snapshot.LastModified, got.LastModified)
			assert.True(t, snapshot.FetchedAt.Equal(got.FetchedAt))
		})
	}
}

func TestPersistentStores_Overwrite(t *testing.T) {
	for name, store := range persistentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "supermarkets", testSnapshot("first"), time.Minute))
			require.NoError(t, store.Set(ctx, "supermarkets", testSnapshot("second"), time.Minute))

			got, err := store.Get(ctx, "supermarkets")
			require.NoError(t, err)
			assert.Equal(t, "second", got.LastModified)
		})
	}
}

func TestPersistentStores_ExpiryAndStat(t *testing.T) {
	for name, store := range persistentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "supermarkets", testSnapshot("stale"), time.Millisecond))
			time.Sleep(10 * time.Millisecond)

			_, err := store.Get(ctx, "supermarkets")
			assert.ErrorIs(t, err, domain.ErrCacheMiss)

			meta, err := store.Stat(ctx, "supermarkets")
			require.NoError(t, err)
			assert.Equal(t, "stale", meta.LastModified)
		})
	}
}

func TestPersistentStores_MissAndDelete(t *testing.T) {
	for name, store := range persistentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrCacheMiss)
			_, err = store.Stat(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrCacheMiss)

			require.NoError(t, store.Set(ctx, "supermarkets", testSnapshot(""), time.Minute))
			require.NoError(t, store.Delete(ctx, "supermarkets"))
			require.NoError(t, store.Delete(ctx, "supermarkets"))

			_, err = store.Get(ctx, "supermarkets")
			assert.ErrorIs(t, err, domain.ErrCacheMiss)
		})
	}
}

func TestFileCache_CorruptDocumentIsAMiss(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "supermarkets.cache.json"), []byte("{not json"), 0o644))

	cache := NewFileCache(dir)
	_, err := cache.Get(context.Background(), "supermarkets")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(context.Background(), "supermarkets", testSnapshot("fixed"), time.Minute))
	got, err := cache.Get(context.Background(), "supermarkets")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.LastModified)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), Options{Type: "redis"})
	assert.Error(t, err)
}
