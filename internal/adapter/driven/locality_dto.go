package driven

import "github.com/alorle/censo-escolar/internal/locality"

// The locality DTOs flatten the IBGE hierarchy into the column set of the
// original municipios table, which is also what the SQLite store keeps.

type regionDTO struct {
	ID      int    `json:"regiao_id"`
	Acronym string `json:"regiao_sigla"`
	Name    string `json:"regiao_nome"`
}

type ufDTO struct {
	ID      int    `json:"uf_id"`
	Acronym string `json:"uf_sigla"`
	Name    string `json:"uf_nome"`
	regionDTO
}

type mesoregionDTO struct {
	ID   int    `json:"mesorregiao_id"`
	Name string `json:"mesorregiao_nome"`
	ufDTO
}

type microregionDTO struct {
	ID   int    `json:"microrregiao_id"`
	Name string `json:"microrregiao_nome"`
	mesoregionDTO
}

type municipalityDTO struct {
	ID   int64  `json:"municipio_id"`
	Name string `json:"municipio_nome"`
	microregionDTO
}

func ufToDTO(uf locality.UF) ufDTO {
	return ufDTO{
		ID:        uf.ID,
		Acronym:   uf.Acronym,
		Name:      uf.Name,
		regionDTO: regionDTO{ID: uf.Region.ID, Acronym: uf.Region.Acronym, Name: uf.Region.Name},
	}
}

func (d ufDTO) toUF() locality.UF {
	return locality.UF{
		ID:      d.ID,
		Acronym: d.Acronym,
		Name:    d.Name,
		Region:  locality.Region{ID: d.regionDTO.ID, Acronym: d.regionDTO.Acronym, Name: d.regionDTO.Name},
	}
}

func mesoregionToDTO(m locality.Mesoregion) mesoregionDTO {
	return mesoregionDTO{ID: m.ID, Name: m.Name, ufDTO: ufToDTO(m.UF)}
}

func (d mesoregionDTO) toMesoregion() locality.Mesoregion {
	return locality.Mesoregion{ID: d.ID, Name: d.Name, UF: d.ufDTO.toUF()}
}

func microregionToDTO(m locality.Microregion) microregionDTO {
	return microregionDTO{ID: m.ID, Name: m.Name, mesoregionDTO: mesoregionToDTO(m.Mesoregion)}
}

func (d microregionDTO) toMicroregion() locality.Microregion {
	return locality.Microregion{ID: d.ID, Name: d.Name, Mesoregion: d.mesoregionDTO.toMesoregion()}
}

func municipalityToDTO(m locality.Municipality) municipalityDTO {
	return municipalityDTO{ID: m.ID, Name: m.Name, microregionDTO: microregionToDTO(m.Microregion)}
}

func (d municipalityDTO) toMunicipality() locality.Municipality {
	return locality.Municipality{ID: d.ID, Name: d.Name, Microregion: d.microregionDTO.toMicroregion()}
}
