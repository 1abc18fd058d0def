package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"

	"github.com/alorle/censo-escolar/config"
	"github.com/alorle/censo-escolar/internal/adapter/driven"
	"github.com/alorle/censo-escolar/internal/application"
	port "github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/logging"
)

// app holds what every command shares: configuration, logger and the
// opened stores.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	institutions port.InstitutionRepository
	localities   port.LocalityRepository
	db           application.Pinger
	listCache    port.ListCache

	closers []func() error
}

// newApp loads the configuration, builds the logger and opens storage.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: level, Format: format, Writer: os.Stderr})
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	if err := a.openStorage(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage() error {
	if dir := filepath.Dir(a.cfg.Storage.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	switch a.cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := driven.OpenSQLite(a.cfg.Storage.Path)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		return a.useSQLite(db)
	default:
		db, err := bbolt.Open(a.cfg.Storage.Path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return a.useBolt(db)
	}
}

func (a *app) useBolt(db *bbolt.DB) error {
	institutions, err := driven.NewInstitutionBoltDBRepository(db)
	if err != nil {
		return fmt.Errorf("failed to create institution repository: %w", err)
	}
	localities, err := driven.NewLocalityBoltDBRepository(db)
	if err != nil {
		return fmt.Errorf("failed to create locality repository: %w", err)
	}
	a.institutions, a.localities, a.db = institutions, localities, institutions
	return nil
}

func (a *app) useSQLite(db *sql.DB) error {
	institutions, err := driven.NewInstitutionSQLiteRepository(db)
	if err != nil {
		return fmt.Errorf("failed to create institution repository: %w", err)
	}
	localities, err := driven.NewLocalitySQLiteRepository(db)
	if err != nil {
		return fmt.Errorf("failed to create locality repository: %w", err)
	}
	a.institutions, a.localities, a.db = institutions, localities, institutions
	return nil
}

// openListCache connects the Redis listing cache when an address is
// configured. A failing ping is logged; the health check keeps reporting it.
func (a *app) openListCache(ctx context.Context) {
	if a.cfg.Redis.Addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)

	cache := driven.NewRedisListCache(rdb, driven.WithListCacheTTL(a.cfg.Redis.TTL))
	if err := cache.Ping(ctx); err != nil {
		logging.LogHealthCheckFailed(a.logger, "cache", err.Error())
	}
	a.listCache = cache
}

// localityService builds the locality service backed by the IBGE API.
func (a *app) localityService() *application.LocalityService {
	source := driven.NewIBGEHTTPSource(a.cfg.IBGE.BaseURL, &http.Client{Timeout: a.cfg.IBGE.Timeout})
	return application.NewLocalityService(a.localities, source, a.logger)
}

// Close releases everything newApp and openListCache opened, last first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
