package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig("1.0.0"), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_Repeated(t *testing.T) {
	// Each initialization gets its own Prometheus registry, so repeated
	// setups in one process must not collide.
	for i := 0; i < 3; i++ {
		providers, err := InitializeOTel(DefaultOTelConfig("1.0.0"), discardLogger())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestNewRequestMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig("1.0.0"), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewRequestMetrics(providers.Meter)
	require.NoError(t, err)

	assert.NotNil(t, metrics.Requests)
	assert.NotNil(t, metrics.ScrapeTotal)
	assert.NotNil(t, metrics.ScrapeErrors)
	assert.NotNil(t, metrics.CacheHits)
	assert.NotNil(t, metrics.CacheMisses)
}

func TestNewRequestMetrics_NilMeter(t *testing.T) {
	_, err := NewRequestMetrics(nil)
	assert.Error(t, err)
}
