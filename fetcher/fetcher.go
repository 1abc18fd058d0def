// Package fetcher downloads upstream documents with a cache fallback, so a
// document that was fetched once keeps being served while its host is down.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alorle/censo-escolar/cache"
	"github.com/alorle/censo-escolar/circuitbreaker"
)

// Interface defines the contract for fetching upstream documents with caching
type Interface interface {
	// FetchWithCache serves a fresh cached copy when one exists, otherwise
	// fetches and falls back to the stale copy on failure.
	// Returns: content, fromCache, stale, error
	FetchWithCache(ctx context.Context, url string) ([]byte, bool, bool, error)
}

// Fetcher handles fetching upstream content with cache fallback
type Fetcher struct {
	client   *http.Client
	storage  cache.Storage
	cacheTTL time.Duration
	breaker  circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCircuitBreaker routes upstream requests through cb; while it is open,
// requests fail fast and the cached copy is served.
func WithCircuitBreaker(cb circuitbreaker.CircuitBreaker) Option {
	return func(f *Fetcher) { f.breaker = cb }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithHTTPClient replaces the default client built from the timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// New creates a new Fetcher with the specified timeout and cache configuration
func New(timeout time.Duration, storage cache.Storage, cacheTTL time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		storage:  storage,
		cacheTTL: cacheTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchWithCache fetches content with a cache-first strategy
func (f *Fetcher) FetchWithCache(ctx context.Context, url string) ([]byte, bool, bool, error) {
	key := cache.DeriveKeyFromURL(url)

	entry, cacheErr := f.storage.Get(key)
	if cacheErr == nil {
		expired, err := f.storage.IsExpired(key, f.cacheTTL)
		if err != nil {
			f.logger.Warn("failed to check cache expiration", "url", url, "error", err)
		} else if !expired {
			f.logger.Debug("serving fresh cache", "url", url, "age", time.Since(entry.Timestamp).String())
			return entry.Content, true, false, nil
		}
	}

	content, fetchErr := f.fetch(ctx, url)
	if fetchErr == nil {
		f.store(key, url, content)
		return content, false, false, nil
	}

	if cacheErr != nil {
		return nil, false, false, fmt.Errorf("upstream fetch failed and no cache available: %w", fetchErr)
	}

	f.logger.Warn("serving stale cache",
		"url", url,
		"error", fetchErr,
		"cached_at", entry.Timestamp.Format(time.RFC3339),
	)
	return entry.Content, true, true, nil
}

func (f *Fetcher) store(key, url string, content []byte) {
	if err := f.storage.Set(key, content); err != nil {
		f.logger.Warn("failed to update cache", "url", url, "error", err)
	}
}

// fetch performs the HTTP request, through the circuit breaker when one is set.
func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	if f.breaker == nil {
		return f.fetchFromURL(ctx, url)
	}

	var content []byte
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		content, err = f.fetchFromURL(ctx, url)
		return err
	})
	return content, err
}

func (f *Fetcher) fetchFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request returned status %d: %s", resp.StatusCode, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return content, nil
}
