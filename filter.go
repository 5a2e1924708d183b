package prgi

import (
	"sort"
	"strings"
)

// Query limits.
const (
	// DefaultLimit is used when a filter does not set a limit.
	DefaultLimit = 100

	// MaxLimit bounds interactive result pages.
	MaxLimit = 5000

	// MaxExportLimit bounds exports of a full matched set.
	MaxExportLimit = 100000
)

// Field identifies a filterable record field.
type Field string

// Filterable fields.
const (
	FieldTitle              Field = "title"
	FieldOwnerName          Field = "owner_name"
	FieldRegistrationNumber Field = "registration_number"
	FieldState              Field = "state"
	FieldDistrict           Field = "district"
	FieldLanguage           Field = "language"
	FieldClassName          Field = "class_name"
)

// Fields lists every filterable field in display order.
var Fields = []Field{
	FieldTitle,
	FieldOwnerName,
	FieldRegistrationNumber,
	FieldState,
	FieldDistrict,
	FieldLanguage,
	FieldClassName,
}

// MatchKind describes how a filter value is compared to a field.
type MatchKind int

// MatchKind constants.
const (
	// MatchSubstring matches when the field contains the value, ignoring case.
	MatchSubstring MatchKind = iota + 1

	// MatchExact matches when the field equals the value, ignoring ASCII case.
	MatchExact
)

// String returns a human-readable name for the match kind.
func (k MatchKind) String() string {
	switch k {
	case MatchSubstring:
		return "substring"
	case MatchExact:
		return "exact"
	default:
		return "unknown"
	}
}

// MatchKind returns the match kind for the field, or zero for unknown fields.
func (f Field) MatchKind() MatchKind {
	switch f {
	case FieldTitle, FieldOwnerName, FieldRegistrationNumber:
		return MatchSubstring
	case FieldState, FieldDistrict, FieldLanguage, FieldClassName:
		return MatchExact
	default:
		return 0
	}
}

// Valid reports whether f is a recognized filter field.
func (f Field) Valid() bool {
	return f.MatchKind() != 0
}

// fieldAliases maps accepted spellings of filter keys to fields.
var fieldAliases = map[string]Field{
	"owner": FieldOwnerName,
	"class": FieldClassName,
}

// ParseField resolves a filter key to a Field. Keys are case-insensitive
// and may use dashes instead of underscores.
func ParseField(key string) (Field, error) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	if f, ok := fieldAliases[k]; ok {
		return f, nil
	}
	if f := Field(k); f.Valid() {
		return f, nil
	}
	return "", Errorf(EINVALID, "unknown filter %q", key)
}

// Constraint is a single active filter.
type Constraint struct {
	Field Field
	Value string
}

// RecordFilter represents a filter for FindRecords. All non-empty fields
// are combined with AND.
type RecordFilter struct {
	Title              string `json:"title"`
	OwnerName          string `json:"owner_name"`
	RegistrationNumber string `json:"registration_number"`
	State              string `json:"state"`
	District           string `json:"district"`
	Language           string `json:"language"`
	ClassName          string `json:"class_name"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ParseFilter builds a filter from key/value pairs. Unknown keys are
// rejected with EINVALID; empty values impose no constraint.
func ParseFilter(params map[string]string) (RecordFilter, error) {
	var filter RecordFilter

	// Sorted so the reported key is deterministic when several are unknown.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, err := ParseField(k)
		if err != nil {
			return RecordFilter{}, err
		}
		filter.Set(field, params[k])
	}
	return filter, nil
}

// Set assigns the value for a field. Unknown fields are ignored.
func (f *RecordFilter) Set(field Field, value string) {
	if p := f.ptr(field); p != nil {
		*p = value
	}
}

// Get returns the value for a field.
func (f *RecordFilter) Get(field Field) string {
	if p := f.ptr(field); p != nil {
		return *p
	}
	return ""
}

func (f *RecordFilter) ptr(field Field) *string {
	switch field {
	case FieldTitle:
		return &f.Title
	case FieldOwnerName:
		return &f.OwnerName
	case FieldRegistrationNumber:
		return &f.RegistrationNumber
	case FieldState:
		return &f.State
	case FieldDistrict:
		return &f.District
	case FieldLanguage:
		return &f.Language
	case FieldClassName:
		return &f.ClassName
	default:
		return nil
	}
}

// Constraints returns the active constraints in field order with values
// trimmed. Blank values are dropped.
func (f *RecordFilter) Constraints() []Constraint {
	var a []Constraint
	for _, field := range Fields {
		if v := strings.TrimSpace(f.Get(field)); v != "" {
			a = append(a, Constraint{Field: field, Value: v})
		}
	}
	return a
}

// EffectiveLimit returns the limit to apply, substituting DefaultLimit for zero.
func (f *RecordFilter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Validate returns an error if the filter contains invalid pagination values.
func (f *RecordFilter) Validate() error {
	if f.Limit < 0 {
		return Errorf(EINVALID, "limit must not be negative")
	}
	if f.Limit > MaxExportLimit {
		return Errorf(EINVALID, "limit must not exceed %d", MaxExportLimit)
	}
	if f.Offset < 0 {
		return Errorf(EINVALID, "offset must not be negative")
	}
	return nil
}
