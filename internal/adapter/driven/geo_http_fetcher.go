package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alorle/censo-escolar/fetcher"
)

// DefaultGeoStatesURL is a public GeoJSON of the Brazilian states.
const DefaultGeoStatesURL = "https://raw.githubusercontent.com/codeforgermany/click_that_hood/main/public/data/brazil-states.geojson"

// GeoHTTPFetcher serves the states GeoJSON through the caching fetcher.
// It implements the driven.GeoFetcher port.
type GeoHTTPFetcher struct {
	url     string
	fetcher fetcher.Interface
}

// NewGeoHTTPFetcher creates a GeoJSON fetcher. An empty url uses DefaultGeoStatesURL.
func NewGeoHTTPFetcher(url string, f fetcher.Interface) *GeoHTTPFetcher {
	if url == "" {
		url = DefaultGeoStatesURL
	}
	return &GeoHTTPFetcher{url: url, fetcher: f}
}

// FetchStates returns the GeoJSON document, rejecting payloads that are not JSON.
func (g *GeoHTTPFetcher) FetchStates(ctx context.Context) ([]byte, bool, error) {
	data, _, stale, err := g.fetcher.FetchWithCache(ctx, g.url)
	if err != nil {
		return nil, false, err
	}

	var doc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parsing GeoJSON: %w", err)
	}
	if doc.Type == "" {
		return nil, false, errors.New("parsing GeoJSON: missing type")
	}
	return data, stale, nil
}
