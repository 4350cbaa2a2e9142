package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

const mysqlSchema = `
		CREATE TABLE IF NOT EXISTS url_cache (
			url_key VARCHAR(2048) NOT NULL,
			result MEDIUMTEXT NOT NULL,
			stored_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			PRIMARY KEY (url_key(512)),
			INDEX idx_expires_at (expires_at)
		)
	`

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	clock       core.Clock
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, clock core.Clock, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return newMySQLCache(db, logger, clock, cleanupFreq)
}

func newMySQLCache(db *sql.DB, logger *zap.Logger, clock core.Clock, cleanupFreq time.Duration) (*MySQLCache, error) {
	if _, err := db.Exec(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
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
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	data, err := encodeResult(entry.Result)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO url_cache (url_key, result, stored_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			result = VALUES(result),
			stored_at = VALUES(stored_at),
			expires_at = VALUES(expires_at)
	`, entry.Key, data, entry.StoredAt.UnixNano(), entry.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
