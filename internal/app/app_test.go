package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/infrastructure"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	infrastructure.ResetLoggerForTesting()

	t.Setenv("STOCKWATCH_AUTH_JWT_SECRET", "app-test-secret")
	t.Setenv("STOCKWATCH_DATABASE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("STOCKWATCH_LOGGING_OUTPUT", "stdout")
	t.Setenv("STOCKWATCH_SECURITY_RATE_LIMIT_ENABLED", "false")

	application, err := NewApplication()
	require.NoError(t, err)

	t.Cleanup(func() {
		application.WebSocketHub.Stop()
		application.QuoteCache.Stop()
		application.Store.Close()
		application.OTelProviders.Shutdown(context.Background())
	})

	return application
}

func TestNewApplication(t *testing.T) {
	application := newTestApplication(t)

	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Server)
	assert.NotNil(t, application.UserService)
	assert.NotNil(t, application.StockService)
	assert.NotNil(t, application.WalletService)
	assert.NotNil(t, application.HealthService)
}

func TestApplication_HealthEndpoint(t *testing.T) {
	application := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestApplication_VersionEndpoint(t *testing.T) {
	application := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}

func TestApplication_ProtectedRoutesRequireAuth(t *testing.T) {
	application := newTestApplication(t)

	for _, path := range []string{"/api/auth/me", "/api/stocks", "/api/wallet"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		application.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestApplication_HomePage(t *testing.T) {
	application := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.True(t, strings.Contains(rec.Body.String(), "StockWatch"))
}

func TestApplication_MetricsEndpoint(t *testing.T) {
	application := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
