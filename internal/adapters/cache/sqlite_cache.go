package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// Instants are stored as unix nanoseconds.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	clock       core.Clock
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, clock core.Clock, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_cache (
			url_key TEXT PRIMARY KEY,
			result TEXT NOT NULL,
			stored_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_url_cache_expires_at ON url_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		clock:       clock,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a live entry for a key
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var (
		data                string
		storedAt, expiresAt int64
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT result, stored_at, expires_at
		FROM url_cache
		WHERE url_key = ? AND expires_at > ?
	`, key, c.clock.Now().UnixNano()).Scan(&data, &storedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	result, err := decodeResult(data)
	if err != nil {
		return nil, err
	}

	return &core.CacheEntry{
		Key:       key,
		Result:    result,
		StoredAt:  time.Unix(0, storedAt),
		ExpiresAt: time.Unix(0, expiresAt),
	}, nil
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	data, err := encodeResult(entry.Result)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO url_cache (url_key, result, stored_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, entry.Key, data, entry.StoredAt.UnixNano(), entry.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM url_cache
		WHERE url_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM url_cache
		WHERE expires_at <= ?
	`, c.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
