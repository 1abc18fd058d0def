package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"DEBUG", slog.LevelDebug, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"invalid", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("TEXT"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(TEXT) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew(t *testing.T) {
	t.Run("json handler filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Options{Level: slog.LevelWarn, Format: FormatJSON, Writer: &buf})

		logger.Info("hidden")
		logger.Warn("shown", "uf", "SP")

		output := buf.String()
		if strings.Contains(output, "hidden") {
			t.Error("info message should be filtered at WARN level")
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
			t.Fatalf("expected one JSON line, got %q: %v", output, err)
		}
		if entry["msg"] != "shown" || entry["uf"] != "SP" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Options{Level: slog.LevelDebug, Format: FormatText, Writer: &buf})

		logger.Debug("census batch stored", "rows", 10)

		if !strings.Contains(buf.String(), "msg=\"census batch stored\" rows=10") {
			t.Errorf("unexpected text output %q", buf.String())
		}
	})
}

func TestResilienceEvents(t *testing.T) {
	tests := []struct {
		name     string
		log      func(*slog.Logger)
		expected []string
	}{
		{
			name: "circuit breaker change",
			log:  func(l *slog.Logger) { LogCircuitBreakerChange(l, "geo", "CLOSED", "OPEN") },
			expected: []string{
				`"event":"circuit_breaker_change"`,
				`"name":"geo"`,
				`"old_state":"CLOSED"`,
				`"new_state":"OPEN"`,
				`"level":"WARN"`,
			},
		},
		{
			name: "health check failed",
			log:  func(l *slog.Logger) { LogHealthCheckFailed(l, "db", errors.New("database not open").Error()) },
			expected: []string{
				`"event":"health_check_failed"`,
				`"component":"db"`,
				`"error":"database not open"`,
			},
		},
		{
			name: "stale cache",
			log:  func(l *slog.Logger) { LogStaleCacheServed(l, "https://example.com/geo.json") },
			expected: []string{
				`"event":"stale_cache_served"`,
				`"url":"https://example.com/geo.json"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(Options{Level: slog.LevelDebug, Writer: &buf}))

			for _, want := range tt.expected {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %s in %q", want, buf.String())
				}
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "abc-123")
	if got := RequestIDFromContext(ctx); got != "abc-123" {
		t.Errorf("expected abc-123, got %q", got)
	}
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		status    int
		level     string
		wantBytes float64
	}{
		{
			name:      "implicit ok",
			handler:   func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("hello")) },
			status:    http.StatusOK,
			level:     "INFO",
			wantBytes: 5,
		},
		{
			name:    "client error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			status:  http.StatusNotFound,
			level:   "WARN",
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			status:  http.StatusInternalServerError,
			level:   "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Options{Level: slog.LevelDebug, Writer: &buf})

			var observed RequestInfo
			mux := http.NewServeMux()
			mux.Handle("GET /api/instituicoes", tt.handler)
			h := AccessLog(logger, func(info RequestInfo) { observed = info })(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/instituicoes?uf=SP", nil)
			req = req.WithContext(WithRequestID(req.Context(), "req-1"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("expected JSON log line: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, entry["level"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("expected status %d, got %v", tt.status, entry["status"])
			}
			if entry["request_id"] != "req-1" || entry["path"] != "/api/instituicoes" {
				t.Errorf("unexpected entry %v", entry)
			}
			if entry["bytes"] != tt.wantBytes {
				t.Errorf("expected %v bytes, got %v", tt.wantBytes, entry["bytes"])
			}
			if observed.Route != "GET /api/instituicoes" || observed.Status != tt.status {
				t.Errorf("unexpected observation %+v", observed)
			}
		})
	}

	t.Run("unmatched route", func(t *testing.T) {
		var observed RequestInfo
		h := AccessLog(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), func(info RequestInfo) { observed = info })(http.NotFoundHandler())

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
		if observed.Route != "unmatched" {
			t.Errorf("expected unmatched route, got %q", observed.Route)
		}
	})
}
