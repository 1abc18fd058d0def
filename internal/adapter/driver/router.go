package driver

import (
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/alorle/censo-escolar/logging"
	"github.com/alorle/censo-escolar/metrics"
)

// Registrar adds its routes to a mux.
type Registrar interface {
	Register(mux *http.ServeMux)
}

// RouterOptions configures the middleware chain and the non-API routes.
type RouterOptions struct {
	Logger      *slog.Logger
	CORSOrigins []string
	// RateLimiter limits writes per client; nil disables limiting.
	RateLimiter *RateLimitStore
	// OpenAPI validates /api parameters; nil disables validation.
	OpenAPI *openapi3.T
	// OpenAPIDocument is served at GET /openapi.yaml when set.
	OpenAPIDocument []byte
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// Frontend serves every path no other route claims.
	Frontend http.Handler
}

// NewRouter assembles the HTTP handler: request id, access log, CORS, write
// rate limiting and parameter validation, in that order, around the routes.
func NewRouter(opts RouterOptions, routes ...Registrar) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	for _, r := range routes {
		r.Register(mux)
	}
	if opts.OpenAPIDocument != nil {
		doc := opts.OpenAPIDocument
		mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(doc)
		})
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.Frontend != nil {
		mux.Handle("/", opts.Frontend)
	}

	observe := func(info logging.RequestInfo) {
		metrics.RecordHTTPRequest(info.Method, info.Route, info.Status, info.Duration)
	}

	mws := []Middleware{
		RequestID,
		logging.AccessLog(logger, observe),
		CORS(opts.CORSOrigins),
	}
	if opts.RateLimiter != nil {
		mws = append(mws, RateLimit(opts.RateLimiter))
	}
	if opts.OpenAPI != nil {
		mws = append(mws, RequestValidator(opts.OpenAPI))
	}
	return Chain(mux, mws...)
}
