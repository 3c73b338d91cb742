package http

import (
	"net/http"

	"stockwatch/internal/infrastructure"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	providers *infrastructure.OTelProviders
}

// NewMetricsHandler creates a metrics handler
func NewMetricsHandler(providers *infrastructure.OTelProviders) *MetricsHandler {
	return &MetricsHandler{providers: providers}
}

// Metrics handles GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.providers == nil || h.providers.PrometheusHTTP == nil {
		http.Error(w, "metrics not enabled", http.StatusNotFound)
		return
	}
	h.providers.PrometheusHTTP.ServeHTTP(w, r)
}
