package driven

import (
	"context"

	"github.com/alorle/censo-escolar/internal/institution"
)

// InstitutionRepository defines the interface for census record persistence.
// This is a driven port implemented by the BoltDB and SQLite adapters.
type InstitutionRepository interface {
	// Save persists a new record. Returns institution.ErrInstitutionAlreadyExists
	// if a record with the same key already exists.
	Save(ctx context.Context, inst institution.Institution) error

	// Update replaces an existing record. Returns institution.ErrInstitutionNotFound
	// if no record has the same key.
	Update(ctx context.Context, inst institution.Institution) error

	// FindByKey retrieves a record. Returns institution.ErrInstitutionNotFound
	// if it does not exist.
	FindByKey(ctx context.Context, key institution.Key) (institution.Institution, error)

	// Delete removes a record. Returns institution.ErrInstitutionNotFound
	// if it does not exist.
	Delete(ctx context.Context, key institution.Key) error

	// FindPage returns one page of the records of q.UF ordered by year and id,
	// after applying the year and search filters. The query is already normalized.
	FindPage(ctx context.Context, q institution.ListQuery) (institution.Page, error)

	// SaveBatch inserts or replaces every record in a single transaction.
	SaveBatch(ctx context.Context, batch []institution.Institution) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// Stats aggregates records per UF. Year zero aggregates every year.
	Stats(ctx context.Context, year int) ([]institution.UFStats, error)

	// Ping checks if the repository (database) is accessible and operational.
	Ping(ctx context.Context) error
}
