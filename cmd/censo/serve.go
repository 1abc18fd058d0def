package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alorle/censo-escolar/api"
	"github.com/alorle/censo-escolar/cache"
	"github.com/alorle/censo-escolar/circuitbreaker"
	"github.com/alorle/censo-escolar/fetcher"
	"github.com/alorle/censo-escolar/internal/adapter/driven"
	"github.com/alorle/censo-escolar/internal/adapter/driver"
	"github.com/alorle/censo-escolar/internal/application"
	"github.com/alorle/censo-escolar/internal/telemetry"
	"github.com/alorle/censo-escolar/logging"
	"github.com/alorle/censo-escolar/metrics"
)

const (
	geoFetchTimeout = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

var (
	servePort       string
	serveStaticDir  string
	serveSyncOnBoot bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the front-end",
	Long: `Serve the REST API under /api, Prometheus metrics at /metrics and the
built front-end for every other path.

Storage, listing cache, upstream URLs and limits come from the config file
and environment; the flags below override a few of them.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "HTTP port (overrides HTTP_PORT)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "Front-end build directory (overrides STATIC_DIR)")
	serveCmd.Flags().BoolVar(&serveSyncOnBoot, "sync", false, "Sync IBGE localities before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("error closing storage", "error", err)
		}
	}()

	cfg, logger := a.cfg, a.logger
	if servePort != "" {
		cfg.HTTP.Port = servePort
	}
	if serveStaticDir != "" {
		cfg.HTTP.StaticDir = serveStaticDir
	}

	logger.Info("starting censo",
		"addr", cfg.ListenAddr(),
		"storage_driver", cfg.Storage.Driver,
		"storage_path", cfg.Storage.Path,
		"redis", cfg.Redis.Addr != "",
		"log_level", cfg.Log.Level,
	)

	tp, err := telemetry.Setup(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()
	if tp.Enabled() {
		logger.Info("exporting traces over OTLP")
	}

	a.openListCache(ctx)

	localityService := a.localityService()
	if cfg.IBGE.SyncOnStart || serveSyncOnBoot {
		if _, err := localityService.Sync(ctx); err != nil {
			logger.Warn("locality sync finished with errors", "error", err)
		}
	}

	geoFetcher, err := newGeoFetcher(a)
	if err != nil {
		return err
	}

	institutionService := application.NewInstitutionService(a.institutions, a.listCache, logger)
	geoService := application.NewGeoService(geoFetcher, logger)
	healthService := application.NewHealthService(a.db, a.listCache)

	doc, err := api.Load()
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	frontend, err := newSPAHandler(cfg.HTTP.StaticDir)
	if err != nil {
		return err
	}

	var limiter *driver.RateLimitStore
	if cfg.Resilience.RateLimitRPS > 0 {
		limiter = driver.NewRateLimitStore(cfg.Resilience.RateLimitRPS, cfg.Resilience.RateLimitBurst)
		limiter.StartJanitor(ctx)
	}

	handler := driver.NewRouter(driver.RouterOptions{
		Logger:      logger,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		RateLimiter: limiter,
		OpenAPI:     doc,
		Metrics:     promhttp.Handler(),
		Frontend:    frontend,

		OpenAPIDocument: api.Document(),
	},
		driver.NewInstitutionHTTPHandler(institutionService, logger),
		driver.NewStatsHTTPHandler(institutionService, logger),
		driver.NewLocalityHTTPHandler(localityService, logger),
		driver.NewGeoHTTPHandler(geoService, logger),
		driver.NewHealthHTTPHandler(healthService),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, shutting down gracefully")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// newGeoFetcher builds the states GeoJSON fetcher: a file cache behind a
// circuit breaker whose transitions are logged and exported as metrics.
func newGeoFetcher(a *app) (*driven.GeoHTTPFetcher, error) {
	storage, err := cache.NewFileStorage(a.cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache storage: %w", err)
	}

	const name = "geo"
	res := a.cfg.Resilience
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             name,
		FailureThreshold: res.CBFailureThreshold,
		Timeout:          res.CBTimeout,
		HalfOpenRequests: res.CBHalfOpenRequests,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, to.String())
			if to == circuitbreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
			logging.LogCircuitBreakerChange(a.logger, name, from.String(), to.String())
		},
	})
	metrics.SetCircuitBreakerState(name, cb.State().String())

	f := fetcher.New(geoFetchTimeout, storage, a.cfg.Cache.TTL,
		fetcher.WithCircuitBreaker(cb),
		fetcher.WithLogger(a.logger),
	)
	return driven.NewGeoHTTPFetcher(a.cfg.Geo.StatesURL, f), nil
}
