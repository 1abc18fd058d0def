package driven

import "github.com/alorle/censo-escolar/internal/institution"

// institutionDTO is the stored form of a census record, keyed by the INEP
// column names so dumps stay readable next to the microdata files.
type institutionDTO struct {
	ID                 int64  `json:"CO_ENTIDADE"`
	Year               int    `json:"ano"`
	Name               string `json:"NO_ENTIDADE"`
	RegionName         string `json:"NO_REGIAO,omitempty"`
	RegionCode         int    `json:"CO_REGIAO,omitempty"`
	UFName             string `json:"NO_UF"`
	UFAcronym          string `json:"SG_UF"`
	UFCode             int    `json:"CO_UF"`
	MunicipalityName   string `json:"NO_MUNICIPIO"`
	MunicipalityCode   int64  `json:"CO_MUNICIPIO,omitempty"`
	MesoregionName     string `json:"NO_MESORREGIAO,omitempty"`
	MicroregionName    string `json:"NO_MICRORREGIAO,omitempty"`
	Basic              *int   `json:"QT_MAT_BAS"`
	Infant             *int   `json:"QT_MAT_INF"`
	Elementary         *int   `json:"QT_MAT_FUND"`
	HighSchool         *int   `json:"QT_MAT_MED"`
	EJA                *int   `json:"QT_MAT_EJA"`
	EJAElementary      *int   `json:"QT_MAT_EJA_FUND"`
	Special            *int   `json:"QT_MAT_ESP"`
	BasicDistance      *int   `json:"QT_MAT_BAS_EAD"`
	ElementaryFullTime *int   `json:"QT_MAT_FUND_INT"`
	HighSchoolFullTime *int   `json:"QT_MAT_MED_INT"`
}

func institutionToDTO(i institution.Institution) institutionDTO {
	return institutionDTO{
		ID:                 i.ID,
		Year:               i.Year,
		Name:               i.Name,
		RegionName:         i.RegionName,
		RegionCode:         i.RegionCode,
		UFName:             i.UFName,
		UFAcronym:          i.UFAcronym,
		UFCode:             i.UFCode,
		MunicipalityName:   i.MunicipalityName,
		MunicipalityCode:   i.MunicipalityCode,
		MesoregionName:     i.MesoregionName,
		MicroregionName:    i.MicroregionName,
		Basic:              i.Enrollment.Basic,
		Infant:             i.Enrollment.Infant,
		Elementary:         i.Enrollment.Elementary,
		HighSchool:         i.Enrollment.HighSchool,
		EJA:                i.Enrollment.EJA,
		EJAElementary:      i.Enrollment.EJAElementary,
		Special:            i.Enrollment.Special,
		BasicDistance:      i.Enrollment.BasicDistance,
		ElementaryFullTime: i.Enrollment.ElementaryFullTime,
		HighSchoolFullTime: i.Enrollment.HighSchoolFullTime,
	}
}

func dtoToInstitution(dto institutionDTO) institution.Institution {
	return institution.Institution{
		ID:               dto.ID,
		Year:             dto.Year,
		Name:             dto.Name,
		RegionName:       dto.RegionName,
		RegionCode:       dto.RegionCode,
		UFName:           dto.UFName,
		UFAcronym:        dto.UFAcronym,
		UFCode:           dto.UFCode,
		MunicipalityName: dto.MunicipalityName,
		MunicipalityCode: dto.MunicipalityCode,
		MesoregionName:   dto.MesoregionName,
		MicroregionName:  dto.MicroregionName,
		Enrollment: institution.Enrollment{
			Basic:              dto.Basic,
			Infant:             dto.Infant,
			Elementary:         dto.Elementary,
			HighSchool:         dto.HighSchool,
			EJA:                dto.EJA,
			EJAElementary:      dto.EJAElementary,
			Special:            dto.Special,
			BasicDistance:      dto.BasicDistance,
			ElementaryFullTime: dto.ElementaryFullTime,
			HighSchoolFullTime: dto.HighSchoolFullTime,
		},
	}
}
