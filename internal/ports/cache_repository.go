package ports

import (
	"context"
	"errors"

	"github.com/mikey/site-categorizer/internal/core"
)

// ErrCacheMiss is returned by Get when no live entry exists for a key
var ErrCacheMiss = errors.New("cache entry not found")

// CacheRepository defines the interface for caching analysis results
type CacheRepository interface {
	// Get retrieves a live entry for a normalized URL
	Get(ctx context.Context, key string) (*core.CacheEntry, error)

	// Set stores a cache entry, replacing any previous one
	Set(ctx context.Context, entry *core.CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// CacheStore is a CacheRepository that owns background resources
type CacheStore interface {
	CacheRepository

	// Stop releases the store's connections and background tasks
	Stop()
}
