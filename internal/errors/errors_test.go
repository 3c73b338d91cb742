package errors

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusNotFound, "STOCK_NOT_FOUND", "Stock not found")
	assert.Equal(t, "Stock not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "STOCK_NOT_FOUND", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusBadGateway, "SCRAPE_FAILED", "upstream failed", "status 503")
	assert.Equal(t, "status 503", err.Details)
}

func TestScrapeError(t *testing.T) {
	err := ScrapeError("AAPL", assert.AnError)
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Contains(t, err.Message, "AAPL")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusConflict,
		TypeUsernameTaken,
		"Username Taken",
		"username already registered",
		"/api/auth/register",
	).WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeUsernameTaken, decoded["type"])
	assert.Equal(t, float64(http.StatusConflict), decoded["status"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
	assert.Equal(t, "username already registered", decoded["detail"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(testLogger(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error maps by code",
			err:        ErrUsernameTaken,
			wantStatus: http.StatusConflict,
			wantType:   TypeUsernameTaken,
		},
		{
			name:       "stock not found",
			err:        ErrStockNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeStockNotFound,
		},
		{
			name:       "scrape failure",
			err:        ErrScrapeFailed,
			wantStatus: http.StatusBadGateway,
			wantType:   TypeScrapeFailed,
		},
		{
			name:       "unknown error becomes internal",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
			assert.Equal(t, tt.wantType, decoded["type"])
		})
	}
}
