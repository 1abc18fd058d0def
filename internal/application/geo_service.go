package application

import (
	"context"
	"log/slog"

	"github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/logging"
)

// GeoService serves the state boundaries drawn by the map.
type GeoService struct {
	fetcher driven.GeoFetcher
	logger  *slog.Logger
}

// NewGeoService creates a new GeoService.
func NewGeoService(fetcher driven.GeoFetcher, logger *slog.Logger) *GeoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoService{
		fetcher: fetcher,
		logger:  logger,
	}
}

// States returns the GeoJSON FeatureCollection of the Brazilian states.
// A stale copy is served, with a warning, when the upstream is unavailable.
func (s *GeoService) States(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "GeoService.States")
	data, stale, err := s.fetcher.FetchStates(ctx)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	if stale {
		logging.LogStaleCacheServed(s.logger, "geo/estados")
	}
	return data, nil
}
