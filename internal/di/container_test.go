package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/site-categorizer/internal/adapters/httpapi"
	"github.com/mikey/site-categorizer/internal/adapters/mock"
	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig(mode string) *config.Config {
	v := config.NewEmptyViper()
	v.Set("api.mode", mode)
	v.Set("logging.level", "error")
	v.Set("cache.cleanup_frequency", "0s")
	v.Set("mock.reference_delay", "0s")
	v.Set("mock.history_delay_min", "0s")
	v.Set("mock.history_delay_max", "0s")
	return config.NewFromViper(v)
}

func TestBuildContainerMockMode(t *testing.T) {
	container, err := BuildContainer(quietConfig(config.ModeMock))
	require.NoError(t, err)

	err = container.Invoke(func(c *client.Client, f *factory.BackendFactory) {
		defer f.Close()

		assert.Equal(t, config.ModeMock, c.Mode())
		assert.IsType(t, &mock.SimulatedBackend{}, c.Backend())

		mains, err := c.GetMainCategories(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, mains)
	})
	require.NoError(t, err)
}

func TestBuildContainerRealMode(t *testing.T) {
	container, err := BuildContainer(quietConfig(config.ModeReal))
	require.NoError(t, err)

	err = container.Invoke(func(c *client.Client) {
		assert.Equal(t, config.ModeReal, c.Mode())
		assert.IsType(t, &httpapi.Backend{}, c.Backend())
	})
	require.NoError(t, err)
}

func TestBuildContainerServesHTTP(t *testing.T) {
	container, err := BuildContainer(quietConfig(config.ModeMock))
	require.NoError(t, err)

	err = container.Invoke(func(h http.Handler, f *factory.BackendFactory) {
		defer f.Close()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/history/categories", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	require.NoError(t, err)
}

func TestBuildContainerUnknownMode(t *testing.T) {
	container, err := BuildContainer(quietConfig("hybrid"))
	require.NoError(t, err)

	err = container.Invoke(func(c *client.Client) {})
	assert.Error(t, err)
}
