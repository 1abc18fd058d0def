package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/alorle/censo-escolar/internal/institution"
)

var errInvalidBody = errors.New("request body is not a JSON object")

// maxBodyBytes bounds create and update payloads.
const maxBodyBytes = 1 << 20

// decodePatch reads a create or update body keyed by the INEP field names.
// Unknown fields and wrong JSON types are reported per field as a
// *institution.ValidationError, together with the content checks of the
// fields that did decode (required ones too, unless partial is set).
func decodePatch(body io.Reader, partial bool) (institution.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&raw); err != nil || raw == nil {
		return institution.Patch{}, errInvalidBody
	}

	var p institution.Patch
	verr := &institution.ValidationError{}
	for field, value := range raw {
		switch field {
		case institution.FieldID:
			p.ID = decodeInteger[int64](verr, field, value)
		case institution.FieldName:
			p.Name = decodeString(verr, field, value)
		case institution.FieldMunicipality:
			p.Municipality = decodeString(verr, field, value)
		case institution.FieldUFCode:
			p.UFCode = decodeInteger[int](verr, field, value)
		case institution.FieldUFName:
			p.UFName = decodeString(verr, field, value)
		case institution.FieldUFAcronym:
			p.UFAcronym = decodeString(verr, field, value)
		case institution.FieldInfantEnrollment:
			p.InfantEnrollment = decodeInteger[int](verr, field, value)
		case institution.FieldElementaryEnrollment:
			p.ElementaryEnrollment = decodeInteger[int](verr, field, value)
		case institution.FieldYear:
			p.Year = decodeInteger[int](verr, field, value)
		default:
			verr.Add(field, institution.MsgUnknownField)
		}
	}
	if len(verr.Fields) == 0 {
		return p, nil
	}

	var content *institution.ValidationError
	if errors.As(p.Validate(partial), &content) {
		for field, msgs := range content.Fields {
			// A field that failed to decode reads as absent; keep its decode message only.
			if _, seen := verr.Fields[field]; seen {
				continue
			}
			for _, m := range msgs {
				verr.Add(field, m)
			}
		}
	}
	return p, verr
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func decodeString(verr *institution.ValidationError, field string, value json.RawMessage) *string {
	if isNull(value) {
		verr.Add(field, institution.MsgNull)
		return nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		verr.Add(field, institution.MsgNotString)
		return nil
	}
	return &s
}

// decodeInteger accepts integral JSON numbers (12, 12.0) and numeric
// strings ("12").
func decodeInteger[T int | int64](verr *institution.ValidationError, field string, value json.RawMessage) *T {
	if isNull(value) {
		verr.Add(field, institution.MsgNull)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		verr.Add(field, institution.MsgNotInteger)
		return nil
	}
	if i, err := n.Int64(); err == nil {
		v := T(i)
		return &v
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		verr.Add(field, institution.MsgNotInteger)
		return nil
	}
	v := T(f)
	return &v
}
