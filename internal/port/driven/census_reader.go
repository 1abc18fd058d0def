package driven

import (
	"context"

	"github.com/alorle/censo-escolar/internal/institution"
)

// CensusReader streams the records of one census microdata file.
type CensusReader interface {
	// Read parses path and calls fn with batches of at most batchSize records.
	// It returns the number of records read. Iteration stops at the first
	// error returned by fn.
	Read(ctx context.Context, path string, year int, batchSize int, fn func([]institution.Institution) error) (int, error)
}
