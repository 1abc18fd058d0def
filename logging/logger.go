// Package logging builds the application's slog logger and the HTTP access log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

// Supported output formats
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseLevel converts DEBUG, INFO, WARN or ERROR (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat validates a format name. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q", s)
	}
}

// Options configures New.
type Options struct {
	Level  slog.Level
	Format Format
	Writer io.Writer // defaults to os.Stdout
}

// New creates a logger writing to opts.Writer with the selected handler.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// ResilienceEvent represents a type of resilience-related event
type ResilienceEvent string

// Resilience event constants identify specific types of recovery and failure events
const (
	EventCircuitBreakerChange ResilienceEvent = "circuit_breaker_change" // EventCircuitBreakerChange indicates circuit breaker state transition
	EventHealthCheckFailed    ResilienceEvent = "health_check_failed"    // EventHealthCheckFailed indicates health check failure
	EventStaleCacheServed     ResilienceEvent = "stale_cache_served"     // EventStaleCacheServed indicates an expired cache entry answered a request
)

// LogCircuitBreakerChange logs a circuit breaker state change (WARN level)
func LogCircuitBreakerChange(logger *slog.Logger, name, oldState, newState string) {
	logger.Warn("circuit breaker state changed",
		"event", EventCircuitBreakerChange,
		"name", name,
		"old_state", oldState,
		"new_state", newState,
	)
}

// LogHealthCheckFailed logs a failed health check component (WARN level)
func LogHealthCheckFailed(logger *slog.Logger, component, reason string) {
	logger.Warn("health check failed",
		"event", EventHealthCheckFailed,
		"component", component,
		"error", reason,
	)
}

// LogStaleCacheServed logs that an expired cache entry was served (WARN level)
func LogStaleCacheServed(logger *slog.Logger, url string) {
	logger.Warn("serving stale cache entry",
		"event", EventStaleCacheServed,
		"url", url,
	)
}
