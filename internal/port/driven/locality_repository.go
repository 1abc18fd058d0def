package driven

import (
	"context"

	"github.com/alorle/censo-escolar/internal/locality"
)

// LocalityRepository stores the IBGE territorial tables.
// Every Replace call swaps the whole table of its dataset.
type LocalityRepository interface {
	ReplaceUFs(ctx context.Context, ufs []locality.UF) error
	ReplaceMesoregions(ctx context.Context, regions []locality.Mesoregion) error
	ReplaceMicroregions(ctx context.Context, regions []locality.Microregion) error
	ReplaceMunicipalities(ctx context.Context, municipalities []locality.Municipality) error

	// FindUFs returns the stored states ordered by name; empty when no sync ran.
	FindUFs(ctx context.Context) ([]locality.UF, error)

	// FindMunicipalitiesByUF returns the municipalities of a state ordered by name.
	FindMunicipalitiesByUF(ctx context.Context, acronym string) ([]locality.Municipality, error)

	// FindMesoregions returns mesoregions ordered by name. An empty acronym
	// returns every state's.
	FindMesoregions(ctx context.Context, acronym string) ([]locality.Mesoregion, error)

	// FindMicroregions returns microregions ordered by name. An empty acronym
	// returns every state's.
	FindMicroregions(ctx context.Context, acronym string) ([]locality.Microregion, error)

	Ping(ctx context.Context) error
}
