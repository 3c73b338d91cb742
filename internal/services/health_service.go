package services

import (
	"context"
	"log/slog"
	"time"

	"stockwatch/pkg/contracts"
)

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStats exposes quote cache counters
type CacheStats interface {
	Stats() map[string]interface{}
}

// HealthStatus is the readiness report returned by the health endpoint
type HealthStatus struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Database  string                 `json:"database"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	CheckedAt time.Time              `json:"checked_at"`
}

// HealthService reports service readiness
type HealthService struct {
	db        Pinger
	cache     CacheStats
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service
func NewHealthService(db Pinger, cache CacheStats, logger *slog.Logger) *HealthService {
	return &HealthService{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Check pings the database and reports overall status.
// Status is "degraded" when the database is unreachable.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Version:   contracts.Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Database:  "ok",
		CheckedAt: time.Now().UTC(),
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "database ping failed", slog.String("error", err.Error()))
		status.Status = "degraded"
		status.Database = "unreachable"
	}

	if s.cache != nil {
		status.Cache = s.cache.Stats()
	}

	return status
}
