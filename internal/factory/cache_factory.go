package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/site-categorizer/internal/adapters/cache"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

const redisConnectTimeout = 5 * time.Second

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	clock  core.Clock
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger, clock core.Clock) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
	}
}

// CreateCacheStore creates a cache store based on the configuration
func (f *CacheFactory) CreateCacheStore() (ports.CacheStore, error) {
	cc, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	f.logger.Info("Creating result cache", zap.String("type", cc.Type), zap.Duration("ttl", cc.TTL))

	switch cc.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, f.clock, cc.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cc.SQLitePath, f.logger, f.clock, cc.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(cc.MySQLDSN, f.logger, f.clock, cc.CleanupFrequency)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		return cache.NewRedisCache(ctx, cc.RedisAddress, cc.RedisPassword, cc.RedisDB, f.logger, f.clock)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cc.Type)
	}
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}
