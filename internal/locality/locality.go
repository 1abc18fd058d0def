// Package locality models the IBGE territorial division used to navigate the
// census: states (UF), mesoregions, microregions and municipalities.
package locality

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrUFNotFound = errors.New("uf not found")
)

// Region is one of the five macro regions (Norte, Nordeste, ...).
type Region struct {
	ID      int
	Acronym string
	Name    string
}

// UF is a federative unit (state or the federal district).
type UF struct {
	ID      int
	Acronym string
	Name    string
	Region  Region
}

// Mesoregion groups microregions within a UF.
type Mesoregion struct {
	ID   int
	Name string
	UF   UF
}

// Microregion groups municipalities within a mesoregion.
type Microregion struct {
	ID         int
	Name       string
	Mesoregion Mesoregion
}

// Municipality is the smallest unit referenced by census records.
type Municipality struct {
	ID          int64
	Name        string
	Microregion Microregion
}

// UF returns the state the municipality belongs to.
func (m Municipality) UF() UF {
	return m.Microregion.Mesoregion.UF
}

// Dataset names the locality collections that can be synced and stored.
type Dataset string

// Synced datasets, named after the IBGE localidades resources.
const (
	DatasetUFs          Dataset = "estados"
	DatasetMesoregions  Dataset = "mesorregioes"
	DatasetMicroregions Dataset = "microrregioes"
	DatasetMunicipios   Dataset = "municipios"
)

// AllDatasets lists the datasets in sync order.
var AllDatasets = []Dataset{DatasetUFs, DatasetMesoregions, DatasetMicroregions, DatasetMunicipios}

// Snapshot is the full set of localities fetched in one sync.
type Snapshot struct {
	UFs            []UF
	Mesoregions    []Mesoregion
	Microregions   []Microregion
	Municipalities []Municipality
}

// NormalizeAcronym upper-cases and trims a UF acronym.
func NormalizeAcronym(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
