package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/alorle/censo-escolar/internal/locality"
	"github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/metrics"
)

// SyncResult is the outcome of syncing one dataset.
type SyncResult struct {
	Dataset locality.Dataset
	Records int
	Err     error
}

// LocalityService serves the territorial tables and refreshes them from
// the external source.
type LocalityService struct {
	repo   driven.LocalityRepository
	source driven.LocalitySource
	logger *slog.Logger
}

// NewLocalityService creates a new LocalityService. A nil source disables Sync.
func NewLocalityService(repo driven.LocalityRepository, source driven.LocalitySource, logger *slog.Logger) *LocalityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalityService{
		repo:   repo,
		source: source,
		logger: logger,
	}
}

// ListUFs returns the synced states, or the built-in table when no sync
// has stored any.
func (s *LocalityService) ListUFs(ctx context.Context) ([]locality.UF, error) {
	ufs, err := s.repo.FindUFs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ufs) == 0 {
		return locality.BuiltinUFs(), nil
	}
	return ufs, nil
}

// ListMunicipalities returns the municipalities of a state.
// Returns locality.ErrUFNotFound for an unknown acronym.
func (s *LocalityService) ListMunicipalities(ctx context.Context, acronym string) ([]locality.Municipality, error) {
	uf, err := locality.LookupUF(acronym)
	if err != nil {
		return nil, err
	}
	return s.repo.FindMunicipalitiesByUF(ctx, uf.Acronym)
}

// ListMesoregions returns mesoregions, optionally restricted to one state.
func (s *LocalityService) ListMesoregions(ctx context.Context, acronym string) ([]locality.Mesoregion, error) {
	acronym, err := optionalUF(acronym)
	if err != nil {
		return nil, err
	}
	return s.repo.FindMesoregions(ctx, acronym)
}

// ListMicroregions returns microregions, optionally restricted to one state.
func (s *LocalityService) ListMicroregions(ctx context.Context, acronym string) ([]locality.Microregion, error) {
	acronym, err := optionalUF(acronym)
	if err != nil {
		return nil, err
	}
	return s.repo.FindMicroregions(ctx, acronym)
}

func optionalUF(acronym string) (string, error) {
	acronym = locality.NormalizeAcronym(acronym)
	if acronym == "" {
		return "", nil
	}
	uf, err := locality.LookupUF(acronym)
	if err != nil {
		return "", err
	}
	return uf.Acronym, nil
}

// Sync fetches every dataset concurrently and replaces each stored table.
// A failing dataset is logged and does not stop the others; the returned
// error joins every failure.
func (s *LocalityService) Sync(ctx context.Context) (results []SyncResult, err error) {
	if s.source == nil {
		return nil, errors.New("locality source not configured")
	}

	ctx, span := tracer.Start(ctx, "LocalityService.Sync")
	defer func() { endSpan(span, err) }()

	jobs := map[locality.Dataset]func(context.Context) (int, error){
		locality.DatasetUFs:          s.syncUFs,
		locality.DatasetMesoregions:  s.syncMesoregions,
		locality.DatasetMicroregions: s.syncMicroregions,
		locality.DatasetMunicipios:   s.syncMunicipalities,
	}

	results = make([]SyncResult, len(locality.AllDatasets))
	var g errgroup.Group
	for i, ds := range locality.AllDatasets {
		job := jobs[ds]
		g.Go(func() error {
			n, err := s.runSync(ctx, ds, job)
			results[i] = SyncResult{Dataset: ds, Records: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Dataset, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (s *LocalityService) runSync(ctx context.Context, ds locality.Dataset, job func(context.Context) (int, error)) (int, error) {
	ctx, span := tracer.Start(ctx, "LocalityService.sync", trace.WithAttributes(
		attribute.String("censo.dataset", string(ds)),
	))

	n, err := job(ctx)
	endSpan(span, err)
	if err != nil {
		metrics.RecordLocalitySyncFailure(string(ds))
		s.logger.Error("locality sync failed", "dataset", ds, "error", err)
		return 0, err
	}

	metrics.SetLocalityRecords(string(ds), n)
	s.logger.Info("locality dataset synced", "dataset", ds, "records", n)
	return n, nil
}

func (s *LocalityService) syncUFs(ctx context.Context) (int, error) {
	ufs, err := s.source.FetchUFs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ufs), s.repo.ReplaceUFs(ctx, ufs)
}

func (s *LocalityService) syncMesoregions(ctx context.Context) (int, error) {
	regions, err := s.source.FetchMesoregions(ctx)
	if err != nil {
		return 0, err
	}
	return len(regions), s.repo.ReplaceMesoregions(ctx, regions)
}

func (s *LocalityService) syncMicroregions(ctx context.Context) (int, error) {
	regions, err := s.source.FetchMicroregions(ctx)
	if err != nil {
		return 0, err
	}
	return len(regions), s.repo.ReplaceMicroregions(ctx, regions)
}

func (s *LocalityService) syncMunicipalities(ctx context.Context) (int, error) {
	municipalities, err := s.source.FetchMunicipalities(ctx)
	if err != nil {
		return 0, err
	}
	return len(municipalities), s.repo.ReplaceMunicipalities(ctx, municipalities)
}

func knownUFAcronyms() []string {
	ufs := locality.BuiltinUFs()
	acronyms := make([]string, len(ufs))
	for i, uf := range ufs {
		acronyms[i] = uf.Acronym
	}
	return acronyms
}
