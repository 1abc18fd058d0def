package locality

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	regionNorth      = Region{ID: 1, Acronym: "N", Name: "Norte"}
	regionNortheast  = Region{ID: 2, Acronym: "NE", Name: "Nordeste"}
	regionSoutheast  = Region{ID: 3, Acronym: "SE", Name: "Sudeste"}
	regionSouth      = Region{ID: 4, Acronym: "S", Name: "Sul"}
	regionCenterWest = Region{ID: 5, Acronym: "CO", Name: "Centro-Oeste"}
)

// builtinUFs is the IBGE state table, used until a sync has stored one.
var builtinUFs = []UF{
	{ID: 11, Acronym: "RO", Name: "Rondônia", Region: regionNorth},
	{ID: 12, Acronym: "AC", Name: "Acre", Region: regionNorth},
	{ID: 13, Acronym: "AM", Name: "Amazonas", Region: regionNorth},
	{ID: 14, Acronym: "RR", Name: "Roraima", Region: regionNorth},
	{ID: 15, Acronym: "PA", Name: "Pará", Region: regionNorth},
	{ID: 16, Acronym: "AP", Name: "Amapá", Region: regionNorth},
	{ID: 17, Acronym: "TO", Name: "Tocantins", Region: regionNorth},
	{ID: 21, Acronym: "MA", Name: "Maranhão", Region: regionNortheast},
	{ID: 22, Acronym: "PI", Name: "Piauí", Region: regionNortheast},
	{ID: 23, Acronym: "CE", Name: "Ceará", Region: regionNortheast},
	{ID: 24, Acronym: "RN", Name: "Rio Grande do Norte", Region: regionNortheast},
	{ID: 25, Acronym: "PB", Name: "Paraíba", Region: regionNortheast},
	{ID: 26, Acronym: "PE", Name: "Pernambuco", Region: regionNortheast},
	{ID: 27, Acronym: "AL", Name: "Alagoas", Region: regionNortheast},
	{ID: 28, Acronym: "SE", Name: "Sergipe", Region: regionNortheast},
	{ID: 29, Acronym: "BA", Name: "Bahia", Region: regionNortheast},
	{ID: 31, Acronym: "MG", Name: "Minas Gerais", Region: regionSoutheast},
	{ID: 32, Acronym: "ES", Name: "Espírito Santo", Region: regionSoutheast},
	{ID: 33, Acronym: "RJ", Name: "Rio de Janeiro", Region: regionSoutheast},
	{ID: 35, Acronym: "SP", Name: "São Paulo", Region: regionSoutheast},
	{ID: 41, Acronym: "PR", Name: "Paraná", Region: regionSouth},
	{ID: 42, Acronym: "SC", Name: "Santa Catarina", Region: regionSouth},
	{ID: 43, Acronym: "RS", Name: "Rio Grande do Sul", Region: regionSouth},
	{ID: 50, Acronym: "MS", Name: "Mato Grosso do Sul", Region: regionCenterWest},
	{ID: 51, Acronym: "MT", Name: "Mato Grosso", Region: regionCenterWest},
	{ID: 52, Acronym: "GO", Name: "Goiás", Region: regionCenterWest},
	{ID: 53, Acronym: "DF", Name: "Distrito Federal", Region: regionCenterWest},
}

// BuiltinUFs returns a copy of the static state table ordered by name,
// matching the order the IBGE API returns with orderBy=nome.
func BuiltinUFs() []UF {
	ufs := make([]UF, len(builtinUFs))
	copy(ufs, builtinUFs)
	SortUFsByName(ufs)
	return ufs
}

// LookupUF finds a state of the static table by acronym.
func LookupUF(acronym string) (UF, error) {
	acronym = NormalizeAcronym(acronym)
	for _, uf := range builtinUFs {
		if uf.Acronym == acronym {
			return uf, nil
		}
	}
	return UF{}, ErrUFNotFound
}

// SortUFsByName orders states by name in place using Brazilian Portuguese
// collation, so "Ceará" sorts before "Distrito Federal".
func SortUFsByName(ufs []UF) {
	SortByName(ufs, func(uf UF) string { return uf.Name })
}

// SortByName orders items in place by the collated value of name.
func SortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
