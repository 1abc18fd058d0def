package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/alorle/censo-escolar/internal/institution"
	"github.com/alorle/censo-escolar/internal/port/driven"
	"github.com/alorle/censo-escolar/metrics"
)

// DefaultImportBatchSize is the number of rows written per transaction.
const DefaultImportBatchSize = 10000

// ErrNoYearInFileName is returned by YearFromPath when the name has no
// "_YYYY.csv" suffix.
var ErrNoYearInFileName = errors.New("file name does not contain a census year")

var yearPattern = regexp.MustCompile(`_(\d{4})\.csv$`)

// YearFromPath extracts the census year from names like
// "microdados_ed_basica_2023.csv".
func YearFromPath(path string) (int, error) {
	m := yearPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, ErrNoYearInFileName
	}
	return strconv.Atoi(m[1])
}

// ImportOptions controls a census import run.
type ImportOptions struct {
	// Reset clears the institution store before loading.
	Reset     bool
	BatchSize int
}

// FileStatus describes what happened to one input file.
type FileStatus string

// File outcomes reported by an import.
const (
	FileImported    FileStatus = "imported"
	FileSkippedNoYr FileStatus = "skipped_no_year"
	FileMissing     FileStatus = "missing"
	FileFailed      FileStatus = "failed"
)

// FileResult is the outcome of importing one file. Rows of a failed file
// counts the rows stored before the error.
type FileResult struct {
	Path   string
	Year   int
	Rows   int
	Status FileStatus
	Err    error
}

// ImportReport summarizes an import run.
type ImportReport struct {
	Files []FileResult
	Rows  int
}

// CensusImportService loads INEP census microdata files into the institution store.
type CensusImportService struct {
	reader driven.CensusReader
	repo   driven.InstitutionRepository
	cache  driven.ListCache
	logger *slog.Logger
}

// NewCensusImportService creates a new import service. A nil cache skips
// invalidation after the load.
func NewCensusImportService(reader driven.CensusReader, repo driven.InstitutionRepository, cache driven.ListCache, logger *slog.Logger) *CensusImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CensusImportService{
		reader: reader,
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Import loads each file in order. Files that do not exist or whose name
// carries no year are skipped with a warning. A file that fails to read or
// store is reported as FileFailed and the run moves on to the next one; the
// returned error joins every per-file failure. Only cancellation of ctx stops
// the run early. Cached listings of the states touched are dropped either way.
func (s *CensusImportService) Import(ctx context.Context, paths []string, opts ImportOptions) (report ImportReport, err error) {
	ctx, span := tracer.Start(ctx, "CensusImportService.Import", trace.WithAttributes(
		attribute.Int("censo.files", len(paths)),
		attribute.Bool("censo.reset", opts.Reset),
	))
	defer func() { endSpan(span, err) }()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}

	if opts.Reset {
		s.logger.Info("clearing institution store before import")
		if err := s.repo.DeleteAll(ctx); err != nil {
			return report, fmt.Errorf("failed to clear institutions: %w", err)
		}
	}

	touched := make(map[string]bool)
	// Invalidation must reach Redis even when ctx was canceled mid-run.
	defer s.invalidateAll(context.WithoutCancel(ctx), opts.Reset, touched)

	var errs []error
	for _, path := range paths {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result, ferr := s.importFile(ctx, path, batchSize, touched)
		if ferr != nil {
			result.Status = FileFailed
			result.Err = ferr
			errs = append(errs, ferr)
			metrics.RecordCensusFileSkipped("failed")
			s.logger.Error("census file import failed, continuing with next file", "path", path, "rows_stored", result.Rows, "error", ferr)
		}
		report.Files = append(report.Files, result)
		report.Rows += result.Rows
	}

	s.logger.Info("census import finished", "files", len(paths), "rows", report.Rows, "failed", len(errs))
	return report, errors.Join(errs...)
}

func (s *CensusImportService) importFile(ctx context.Context, path string, batchSize int, touched map[string]bool) (FileResult, error) {
	result := FileResult{Path: path}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("census file not found, skipping", "path", path)
			metrics.RecordCensusFileSkipped("missing")
			result.Status = FileMissing
			return result, nil
		}
		return result, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	year, err := YearFromPath(path)
	if err != nil {
		s.logger.Warn("could not determine census year from file name, skipping", "path", path)
		metrics.RecordCensusFileSkipped("no_year")
		result.Status = FileSkippedNoYr
		return result, nil
	}
	result.Year = year

	s.logger.Info("importing census file", "path", path, "year", year)
	rows, err := s.reader.Read(ctx, path, year, batchSize, func(batch []institution.Institution) error {
		if err := s.repo.SaveBatch(ctx, batch); err != nil {
			return err
		}
		for _, inst := range batch {
			touched[inst.UFAcronym] = true
		}
		metrics.RecordCensusRows(year, len(batch))
		s.logger.Debug("census batch stored", "path", path, "rows", len(batch))
		return nil
	})
	result.Rows = rows
	if err != nil {
		return result, fmt.Errorf("failed to import %s: %w", path, err)
	}

	result.Status = FileImported
	s.logger.Info("census file imported", "path", path, "year", year, "rows", rows)
	return result, nil
}

// invalidateAll drops cached listings of every state the run may have changed.
func (s *CensusImportService) invalidateAll(ctx context.Context, reset bool, touched map[string]bool) {
	if s.cache == nil {
		return
	}
	if reset {
		// A reset may have emptied states the files never mention.
		for _, uf := range knownUFAcronyms() {
			touched[uf] = true
		}
	}
	for uf := range touched {
		if err := s.cache.InvalidateUF(ctx, uf); err != nil {
			s.logger.Warn("list cache invalidation failed", "uf", uf, "error", err)
		}
	}
}
