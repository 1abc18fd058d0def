package application

import (
	"context"

	"github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/metrics"
)

// Pinger is implemented by every dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	db    Pinger
	cache driven.ListCache
}

// NewHealthService creates a new health check service. A nil cache is
// reported as disabled.
func NewHealthService(db Pinger, cache driven.ListCache) *HealthService {
	return &HealthService{
		db:    db,
		cache: cache,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok", "error" or "disabled"
	Error  string // empty if status is "ok", otherwise contains error message
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string          // "ok" if all components are healthy, "degraded" otherwise
	DB     ComponentHealth // storage health
	Cache  ComponentHealth // listing cache health
}

// Check performs health checks on all dependencies.
// Returns the overall health status and individual component statuses.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: "ok",
		DB:     probe(ctx, s.db),
		Cache:  ComponentHealth{Status: "disabled"},
	}
	if s.cache != nil {
		status.Cache = probe(ctx, s.cache)
	}

	if status.DB.Status == "error" || status.Cache.Status == "error" {
		status.Status = "degraded"
		metrics.RecordHealthCheckFailure()
	}
	return status
}

func probe(ctx context.Context, p Pinger) ComponentHealth {
	if err := p.Ping(ctx); err != nil {
		return ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
	}
	return ComponentHealth{Status: "ok"}
}
