package factory

import (
	"fmt"
	"sync"

	"github.com/mikey/site-categorizer/internal/adapters/history"
	"github.com/mikey/site-categorizer/internal/adapters/httpapi"
	"github.com/mikey/site-categorizer/internal/adapters/mock"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

// BackendFactory creates the categorization backend selected by api.mode
type BackendFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	caches *CacheFactory
	clock  core.Clock

	mu     sync.Mutex
	stores []ports.CacheStore
}

// NewBackendFactory creates a new backend factory
func NewBackendFactory(cfg *config.Config, logger *zap.Logger, caches *CacheFactory, clock core.Clock) *BackendFactory {
	return &BackendFactory{
		cfg:    cfg,
		logger: logger,
		caches: caches,
		clock:  clock,
	}
}

// Mode returns the configured backend mode
func (f *BackendFactory) Mode() string {
	return f.cfg.GetString("api.mode")
}

// CreateBackend creates a backend based on the configuration
func (f *BackendFactory) CreateBackend() (ports.Backend, error) {
	mode := f.Mode()
	f.logger.Info("Creating categorization backend", zap.String("mode", mode))

	switch mode {
	case config.ModeMock:
		return f.createSimulatedBackend()
	case config.ModeReal:
		api, err := f.cfg.GetAPI()
		if err != nil {
			return nil, fmt.Errorf("invalid api configuration: %w", err)
		}
		return httpapi.NewBackend(api.BaseURL, api.Timeout, f.logger)
	default:
		return nil, fmt.Errorf("unsupported api mode: %s", mode)
	}
}

func (f *BackendFactory) createSimulatedBackend() (ports.Backend, error) {
	mc, err := f.cfg.GetMock()
	if err != nil {
		return nil, fmt.Errorf("invalid mock configuration: %w", err)
	}
	ttl, err := f.caches.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}

	store, err := f.caches.CreateCacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	backend, err := mock.NewSimulatedBackend(mc, ttl, store, history.NewMemoryStore(f.logger), f.logger, mock.WithClock(f.clock))
	if err != nil {
		store.Stop()
		return nil, err
	}

	f.mu.Lock()
	f.stores = append(f.stores, store)
	f.mu.Unlock()

	return backend, nil
}

// Close stops every cache store the factory created
func (f *BackendFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, store := range f.stores {
		store.Stop()
	}
	f.stores = nil
}
