package di

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/site-categorizer/internal/adapters/server"
	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/factory"
	"github.com/mikey/site-categorizer/internal/logging"
	"github.com/mikey/site-categorizer/internal/metrics"
	"github.com/mikey/site-categorizer/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register clock
	if err := container.Provide(func() core.Clock { return core.SystemClock{} }); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(prometheus.NewRegistry); err != nil {
		return nil, err
	}
	if err := container.Provide(metrics.New); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewBackendFactory); err != nil {
		return nil, err
	}

	// Register backend
	if err := container.Provide(func(f *factory.BackendFactory) (ports.Backend, error) {
		return f.CreateBackend()
	}); err != nil {
		return nil, err
	}

	// Register client facade
	if err := container.Provide(func(
		backend ports.Backend,
		f *factory.BackendFactory,
		m *metrics.Metrics,
		logger *zap.Logger,
	) *client.Client {
		return client.New(backend, f.Mode(), m, logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP front end
	if err := container.Provide(func(
		c *client.Client,
		m *metrics.Metrics,
		cfg *config.Config,
		logger *zap.Logger,
	) http.Handler {
		return server.NewRouter(c, m, cfg.GetServer(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
