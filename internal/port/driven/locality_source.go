package driven

import (
	"context"

	"github.com/alorle/censo-escolar/internal/locality"
)

// LocalitySource fetches the territorial tables from an external provider
// such as the IBGE localidades API.
type LocalitySource interface {
	FetchUFs(ctx context.Context) ([]locality.UF, error)
	FetchMesoregions(ctx context.Context) ([]locality.Mesoregion, error)
	FetchMicroregions(ctx context.Context) ([]locality.Microregion, error)
	FetchMunicipalities(ctx context.Context) ([]locality.Municipality, error)
}
