package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/phbpx/leadsync"
)

var (
	// ErrIncompleteRecord marks a record without a name or phone number.
	// Such records are skipped, not failed.
	ErrIncompleteRecord = errors.New("record has no name or phone number")

	// ErrMalformedRecord marks a record that cannot be read through the
	// header mapping.
	ErrMalformedRecord = errors.New("malformed record")
)

// Field is a canonical lead field.
type Field int

const (
	FieldUserID Field = iota
	FieldName
	FieldGymName
	FieldPhoneNumber
	FieldStatus

	fieldCount
)

func (f Field) String() string {
	switch f {
	case FieldUserID:
		return "user_id"
	case FieldName:
		return "name"
	case FieldGymName:
		return "gym_name"
	case FieldPhoneNumber:
		return "phone_number"
	case FieldStatus:
		return "status"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// HeaderMapping binds a spreadsheet column label to a canonical field.
type HeaderMapping struct {
	Label string
	Field Field
}

// SheetHeaders is the column layout of the lead spreadsheet. The feed
// delivers these labels with a trailing space.
var SheetHeaders = []HeaderMapping{
	{Label: "user id", Field: FieldUserID},
	{Label: "name", Field: FieldName},
	{Label: "gym name", Field: FieldGymName},
	{Label: "phone number", Field: FieldPhoneNumber},
	{Label: "status", Field: FieldStatus},
}

var defaultHeaders = mustHeaderMap(SheetHeaders)

// HeaderMap resolves raw feed keys to canonical fields.
type HeaderMap struct {
	fields map[string]Field
}

// NewHeaderMap validates mappings: labels must be non-empty, unique once
// normalized, and every canonical field must be mapped exactly once.
func NewHeaderMap(mappings []HeaderMapping) (HeaderMap, error) {
	fields := make(map[string]Field, len(mappings))
	var seen [fieldCount]bool

	for _, m := range mappings {
		key := normalizeKey(m.Label)
		if key == "" {
			return HeaderMap{}, fmt.Errorf("empty label for field %s", m.Field)
		}
		if m.Field < 0 || m.Field >= fieldCount {
			return HeaderMap{}, fmt.Errorf("label %q: unknown field %s", m.Label, m.Field)
		}
		if prev, ok := fields[key]; ok {
			return HeaderMap{}, fmt.Errorf("label %q maps to both %s and %s", m.Label, prev, m.Field)
		}
		if seen[m.Field] {
			return HeaderMap{}, fmt.Errorf("field %s mapped more than once", m.Field)
		}
		fields[key] = m.Field
		seen[m.Field] = true
	}

	for f := Field(0); f < fieldCount; f++ {
		if !seen[f] {
			return HeaderMap{}, fmt.Errorf("field %s is not mapped", f)
		}
	}

	return HeaderMap{fields: fields}, nil
}

func mustHeaderMap(mappings []HeaderMapping) HeaderMap {
	hm, err := NewHeaderMap(mappings)
	if err != nil {
		panic("reconcile: invalid header mapping: " + err.Error())
	}
	return hm
}

// Normalize decodes one raw feed record into a lead. Values are trimmed and
// the status is lower-cased. Keys outside the mapping are ignored. CreatedAt
// is left zero.
func (hm HeaderMap) Normalize(raw json.RawMessage) (leadsync.Lead, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return leadsync.Lead{}, fmt.Errorf("%w: not a JSON object", ErrMalformedRecord)
	}

	var (
		values [fieldCount]string
		found  [fieldCount]bool
	)
	for key, val := range obj {
		f, ok := hm.fields[normalizeKey(key)]
		if !ok {
			continue
		}
		if found[f] {
			return leadsync.Lead{}, fmt.Errorf("%w: more than one column maps to %s", ErrMalformedRecord, f)
		}
		found[f] = true

		var s *string
		if err := json.Unmarshal(val, &s); err != nil || s == nil {
			return leadsync.Lead{}, fmt.Errorf("%w: %s is not a string", ErrMalformedRecord, f)
		}
		values[f] = strings.TrimSpace(*s)
	}

	return leadsync.Lead{
		UserID:      values[FieldUserID],
		Name:        values[FieldName],
		GymName:     values[FieldGymName],
		PhoneNumber: values[FieldPhoneNumber],
		Status:      strings.ToLower(values[FieldStatus]),
	}, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
