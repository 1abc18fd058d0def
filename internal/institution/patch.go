package institution

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names accepted on the wire for create and update requests.
const (
	FieldID                   = "CO_ENTIDADE"
	FieldName                 = "NO_ENTIDADE"
	FieldMunicipality         = "NO_MUNICIPIO"
	FieldUFCode               = "CO_UF"
	FieldUFName               = "NO_UF"
	FieldUFAcronym            = "SG_UF"
	FieldInfantEnrollment     = "QT_MAT_INF"
	FieldElementaryEnrollment = "QT_MAT_FUND"
	FieldYear                 = "ano"
)

// Validation messages, kept compatible with what the web client renders.
const (
	MsgRequired       = "Missing data for required field."
	MsgUnknownField   = "Unknown field."
	MsgNotInteger     = "Not a valid integer."
	MsgNotString      = "Not a valid string."
	MsgNull           = "Field may not be null."
	MsgMustBePositive = "Must be greater than 0."
	MsgNotNegative    = "Must be greater than or equal to 0."
	MsgBlank          = "Field may not be blank."
	MsgImmutable      = "Field cannot be changed."
)

const minNameLength = 3

// Patch carries the editable fields of a record. A nil field was not sent.
type Patch struct {
	ID                   *int64
	Name                 *string
	Municipality         *string
	UFCode               *int
	UFName               *string
	UFAcronym            *string
	InfantEnrollment     *int
	ElementaryEnrollment *int
	Year                 *int
}

// Validate checks field contents. With partial set, absent fields are allowed.
func (p Patch) Validate(partial bool) error {
	verr := &ValidationError{}

	required := func(present bool, field string) bool {
		if !present && !partial {
			verr.Add(field, MsgRequired)
		}
		return present
	}

	if required(p.ID != nil, FieldID) && *p.ID <= 0 {
		verr.Add(FieldID, MsgMustBePositive)
	}
	if required(p.Name != nil, FieldName) {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.Name)); n < minNameLength {
			verr.Add(FieldName, fmt.Sprintf("Shorter than minimum length %d.", minNameLength))
		}
	}
	if required(p.Municipality != nil, FieldMunicipality) && strings.TrimSpace(*p.Municipality) == "" {
		verr.Add(FieldMunicipality, MsgBlank)
	}
	required(p.UFCode != nil, FieldUFCode)
	if required(p.UFName != nil, FieldUFName) && strings.TrimSpace(*p.UFName) == "" {
		verr.Add(FieldUFName, MsgBlank)
	}
	if required(p.UFAcronym != nil, FieldUFAcronym) && utf8.RuneCountInString(strings.TrimSpace(*p.UFAcronym)) != 2 {
		verr.Add(FieldUFAcronym, "Length must be 2.")
	}
	if p.InfantEnrollment != nil && *p.InfantEnrollment < 0 {
		verr.Add(FieldInfantEnrollment, MsgNotNegative)
	}
	if p.ElementaryEnrollment != nil && *p.ElementaryEnrollment < 0 {
		verr.Add(FieldElementaryEnrollment, MsgNotNegative)
	}
	required(p.Year != nil, FieldYear)

	return verr.OrNil()
}

// ValidationError collects messages per field.
type ValidationError struct {
	Fields map[string][]string
}

// Add appends a message to a field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge copies every message of other into e.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
}

// OrNil returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Error renders the messages sorted by field.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
