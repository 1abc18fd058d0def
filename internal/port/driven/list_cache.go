package driven

import (
	"context"

	"github.com/alorle/censo-escolar/internal/institution"
)

// ListCache caches listing pages per UF.
//
// GetPage reports the state's cache version it looked at, hit or miss. A page
// computed after a miss is handed back to PutPage with that version, so a page
// read before an invalidation is filed under a version nobody reads anymore.
// A miss is reported with found == false and a nil error.
type ListCache interface {
	GetPage(ctx context.Context, q institution.ListQuery) (page institution.Page, version int64, found bool, err error)
	PutPage(ctx context.Context, q institution.ListQuery, version int64, page institution.Page) error

	// InvalidateUF drops every cached page of the state.
	InvalidateUF(ctx context.Context, acronym string) error

	Ping(ctx context.Context) error
}
