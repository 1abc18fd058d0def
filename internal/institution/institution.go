package institution

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrInstitutionNotFound      = errors.New("institution not found")
	ErrInstitutionAlreadyExists = errors.New("institution already exists")
)

// Key identifies a census record: the INEP entity code plus the census year.
type Key struct {
	ID   int64
	Year int
}

// String returns the key as "id/year".
func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.ID, k.Year)
}

// Enrollment holds the enrollment counts (QT_MAT_*) of a census record.
// A nil count means the census did not report it.
type Enrollment struct {
	Basic              *int
	Infant             *int
	Elementary         *int
	HighSchool         *int
	EJA                *int
	EJAElementary      *int
	Special            *int
	BasicDistance      *int
	ElementaryFullTime *int
	HighSchoolFullTime *int
}

// Institution is one school-census record for a given year.
type Institution struct {
	ID               int64
	Year             int
	Name             string
	RegionName       string
	RegionCode       int
	UFName           string
	UFAcronym        string
	UFCode           int
	MunicipalityName string
	MunicipalityCode int64
	MesoregionName   string
	MicroregionName  string
	Enrollment       Enrollment
}

// Key returns the record's primary key.
func (i Institution) Key() Key {
	return Key{ID: i.ID, Year: i.Year}
}

// InfantEnrollment returns QT_MAT_INF, treating a missing value as zero.
func (i Institution) InfantEnrollment() int {
	return valueOrZero(i.Enrollment.Infant)
}

// ElementaryEnrollment returns QT_MAT_FUND, treating a missing value as zero.
func (i Institution) ElementaryEnrollment() int {
	return valueOrZero(i.Enrollment.Elementary)
}

// New builds an institution from a create request.
// Every required field must be present; enrollment counts default to zero.
func New(p Patch) (Institution, error) {
	if err := p.Validate(false); err != nil {
		return Institution{}, err
	}

	inst := Institution{
		ID:               *p.ID,
		Year:             *p.Year,
		Name:             strings.TrimSpace(*p.Name),
		MunicipalityName: strings.TrimSpace(*p.Municipality),
		UFCode:           *p.UFCode,
		UFName:           strings.TrimSpace(*p.UFName),
		UFAcronym:        normalizeAcronym(*p.UFAcronym),
	}

	infant, elementary := 0, 0
	if p.InfantEnrollment != nil {
		infant = *p.InfantEnrollment
	}
	if p.ElementaryEnrollment != nil {
		elementary = *p.ElementaryEnrollment
	}
	inst.Enrollment.Infant = &infant
	inst.Enrollment.Elementary = &elementary

	return inst, nil
}

// Apply validates a partial update against the record and applies the fields
// that are present. The key fields may be sent but must not change.
func (i *Institution) Apply(p Patch) error {
	verr := &ValidationError{}
	if p.ID != nil && *p.ID != i.ID {
		verr.Add(FieldID, MsgImmutable)
	}
	if p.Year != nil && *p.Year != i.Year {
		verr.Add(FieldYear, MsgImmutable)
	}
	if err := p.Validate(true); err != nil {
		var pe *ValidationError
		if errors.As(err, &pe) {
			verr.Merge(pe)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if p.Name != nil {
		i.Name = strings.TrimSpace(*p.Name)
	}
	if p.Municipality != nil {
		i.MunicipalityName = strings.TrimSpace(*p.Municipality)
	}
	if p.UFCode != nil {
		i.UFCode = *p.UFCode
	}
	if p.UFName != nil {
		i.UFName = strings.TrimSpace(*p.UFName)
	}
	if p.UFAcronym != nil {
		i.UFAcronym = normalizeAcronym(*p.UFAcronym)
	}
	if p.InfantEnrollment != nil {
		v := *p.InfantEnrollment
		i.Enrollment.Infant = &v
	}
	if p.ElementaryEnrollment != nil {
		v := *p.ElementaryEnrollment
		i.Enrollment.Elementary = &v
	}
	return nil
}

// MatchesSearch reports whether the term occurs, ignoring case, in the
// institution's name or municipality. An empty term matches everything.
func (i Institution) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), term) ||
		strings.Contains(strings.ToLower(i.MunicipalityName), term)
}

func normalizeAcronym(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
