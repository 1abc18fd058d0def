package driven

import "context"

// GeoFetcher retrieves the GeoJSON document of the Brazilian states.
type GeoFetcher interface {
	// FetchStates returns the raw document and whether it came from a stale cache.
	FetchStates(ctx context.Context) (data []byte, stale bool, err error)
}
