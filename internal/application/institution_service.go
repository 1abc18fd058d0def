package application

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alorle/censo-escolar/internal/institution"
	"github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/metrics"
)

var tracer = otel.Tracer("github.com/alorle/censo-escolar/internal/application")

// endSpan records err on the span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// InstitutionService provides use cases for census record management.
// It depends only on domain packages and port interfaces.
type InstitutionService struct {
	repo   driven.InstitutionRepository
	cache  driven.ListCache
	logger *slog.Logger
}

// NewInstitutionService creates a new InstitutionService. A nil cache disables
// listing caching.
func NewInstitutionService(repo driven.InstitutionRepository, cache driven.ListCache, logger *slog.Logger) *InstitutionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstitutionService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// List returns one page of a state's records.
// Returns institution.ErrUFRequired, ErrInvalidPaging or ErrPerPageTooLarge
// for an invalid query.
func (s *InstitutionService) List(ctx context.Context, q institution.ListQuery) (page institution.Page, err error) {
	q = q.Normalize()
	ctx, span := tracer.Start(ctx, "InstitutionService.List", trace.WithAttributes(
		attribute.String("censo.uf", q.UF),
		attribute.Int("censo.ano", q.Year),
		attribute.Int("censo.page", q.Page),
	))
	defer func() { endSpan(span, err) }()

	if err := q.Validate(); err != nil {
		return institution.Page{}, err
	}

	cacheable := false
	var version int64
	if s.cache != nil {
		cached, v, found, cerr := s.cache.GetPage(ctx, q)
		switch {
		case cerr != nil:
			metrics.RecordListCacheLookup("error")
			s.logger.Warn("list cache lookup failed", "uf", q.UF, "error", cerr)
		case found:
			metrics.RecordListCacheLookup("hit")
			span.SetAttributes(attribute.Bool("censo.cache_hit", true))
			return cached, nil
		default:
			metrics.RecordListCacheLookup("miss")
			cacheable, version = true, v
		}
	}

	page, err = s.repo.FindPage(ctx, q)
	if err != nil {
		return institution.Page{}, err
	}

	// Only a clean miss knows which version the page belongs to.
	if cacheable {
		if err := s.cache.PutPage(ctx, q, version, page); err != nil {
			s.logger.Warn("list cache store failed", "uf", q.UF, "error", err)
		}
	}
	return page, nil
}

// Get retrieves a record by key.
// Returns institution.ErrInstitutionNotFound if it does not exist.
func (s *InstitutionService) Get(ctx context.Context, key institution.Key) (institution.Institution, error) {
	return s.repo.FindByKey(ctx, key)
}

// Create validates and stores a new record.
// Returns *institution.ValidationError for invalid input and
// institution.ErrInstitutionAlreadyExists when the key is taken.
func (s *InstitutionService) Create(ctx context.Context, p institution.Patch) (inst institution.Institution, err error) {
	ctx, span := tracer.Start(ctx, "InstitutionService.Create")
	defer func() { endSpan(span, err) }()

	inst, err = institution.New(p)
	if err != nil {
		return institution.Institution{}, err
	}
	span.SetAttributes(attribute.String("censo.key", inst.Key().String()))

	if err := s.repo.Save(ctx, inst); err != nil {
		return institution.Institution{}, err
	}

	metrics.RecordInstitutionWrite("create")
	s.invalidate(ctx, inst.UFAcronym)
	return inst, nil
}

// Update applies a partial update to an existing record.
// Returns institution.ErrInstitutionNotFound if it does not exist and
// *institution.ValidationError for invalid fields, including key changes.
func (s *InstitutionService) Update(ctx context.Context, key institution.Key, p institution.Patch) (inst institution.Institution, err error) {
	ctx, span := tracer.Start(ctx, "InstitutionService.Update", trace.WithAttributes(
		attribute.String("censo.key", key.String()),
	))
	defer func() { endSpan(span, err) }()

	inst, err = s.repo.FindByKey(ctx, key)
	if err != nil {
		return institution.Institution{}, err
	}
	previousUF := inst.UFAcronym

	if err := inst.Apply(p); err != nil {
		return institution.Institution{}, err
	}
	if err := s.repo.Update(ctx, inst); err != nil {
		return institution.Institution{}, err
	}

	metrics.RecordInstitutionWrite("update")
	s.invalidate(ctx, previousUF)
	if inst.UFAcronym != previousUF {
		s.invalidate(ctx, inst.UFAcronym)
	}
	return inst, nil
}

// Delete removes a record.
// Returns institution.ErrInstitutionNotFound if it does not exist.
func (s *InstitutionService) Delete(ctx context.Context, key institution.Key) (err error) {
	ctx, span := tracer.Start(ctx, "InstitutionService.Delete", trace.WithAttributes(
		attribute.String("censo.key", key.String()),
	))
	defer func() { endSpan(span, err) }()

	inst, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}

	metrics.RecordInstitutionWrite("delete")
	s.invalidate(ctx, inst.UFAcronym)
	return nil
}

// Stats aggregates records per UF. Year zero aggregates every year.
func (s *InstitutionService) Stats(ctx context.Context, year int) ([]institution.UFStats, error) {
	return s.repo.Stats(ctx, year)
}

// invalidate drops the cached pages of a state. Failures only log: the
// pages expire on their own.
func (s *InstitutionService) invalidate(ctx context.Context, uf string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUF(ctx, uf); err != nil {
		s.logger.Warn("list cache invalidation failed", "uf", uf, "error", err)
	}
}
