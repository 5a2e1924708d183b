package prgi

import (
	"sort"
	"strings"
)

// Canonical column names. They double as the export header.
const (
	ColumnID                 = "id"
	ColumnSerialNumber       = "serial_number"
	ColumnTitle              = "title"
	ColumnRegistrationNumber = "registration_number"
	ColumnOwnerName          = "owner_name"
	ColumnState              = "state"
	ColumnDistrict           = "district"
	ColumnLanguage           = "language"
	ColumnClassName          = "class_name"
	ColumnMetadata           = "metadata"
)

// Columns is the canonical column order used for export.
var Columns = []string{
	ColumnID,
	ColumnSerialNumber,
	ColumnTitle,
	ColumnRegistrationNumber,
	ColumnOwnerName,
	ColumnState,
	ColumnDistrict,
	ColumnLanguage,
	ColumnClassName,
	ColumnMetadata,
}

// headerAliases maps normalized source headers to canonical columns.
// Keys are lowercase with underscores replaced by spaces.
var headerAliases = map[string]string{
	"id":                   ColumnID,
	"sr no":                ColumnSerialNumber,
	"sr. no.":              ColumnSerialNumber,
	"sr.no.":               ColumnSerialNumber,
	"s.no":                 ColumnSerialNumber,
	"s.no.":                ColumnSerialNumber,
	"s no":                 ColumnSerialNumber,
	"serial no":            ColumnSerialNumber,
	"serial number":        ColumnSerialNumber,
	"title":                ColumnTitle,
	"title name":           ColumnTitle,
	"registration no":      ColumnRegistrationNumber,
	"registration no.":     ColumnRegistrationNumber,
	"registration number":  ColumnRegistrationNumber,
	"owner":                ColumnOwnerName,
	"owner name":           ColumnOwnerName,
	"state":                ColumnState,
	"publication state":    ColumnState,
	"pub state name":       ColumnState,
	"district":             ColumnDistrict,
	"publication district": ColumnDistrict,
	"pub dist name":        ColumnDistrict,
	"language":             ColumnLanguage,
	"languages":            ColumnLanguage,
	"class":                ColumnClassName,
	"class name":           ColumnClassName,
	"metadata":             ColumnMetadata,
	"meta json":            ColumnMetadata,
}

// NormalizeHeader maps a source column name to its canonical column name.
// Unrecognized names are lowercased with whitespace runs replaced by a
// single underscore. Blank names normalize to "".
func NormalizeHeader(name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(name, "_", " "))), " ")
	if key == "" {
		return ""
	}
	if c, ok := headerAliases[key]; ok {
		return c
	}
	return strings.ReplaceAll(key, " ", "_")
}

// Row is a single source row keyed by column name.
type Row map[string]string

// RowMapper converts positional source rows into records. The header is
// resolved once; when two source columns normalize to the same name the
// first one wins.
type RowMapper struct {
	columns []string
}

// NewRowMapper returns a mapper for the given header.
// Returns EINVALID if the header has no named columns.
func NewRowMapper(header []string) (*RowMapper, error) {
	m := &RowMapper{columns: make([]string, len(header))}
	seen := make(map[string]bool, len(header))
	named := 0
	for i, h := range header {
		c := NormalizeHeader(h)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		m.columns[i] = c
		named++
	}
	if named == 0 {
		return nil, Errorf(EINVALID, "missing header row")
	}
	return m, nil
}

// Map builds a record from positional values. Missing trailing values
// default to "" and extra values are ignored. Returns EINVALID if the
// metadata column cannot be decoded.
func (m *RowMapper) Map(values []string) (*Record, error) {
	rec := &Record{}
	var extras map[string]string
	var meta string

	for i, c := range m.columns {
		if c == "" {
			continue
		}
		var v string
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}

		switch c {
		case ColumnID:
			// Identity is assigned by the store.
		case ColumnSerialNumber:
			rec.SerialNumber = v
		case ColumnTitle:
			rec.Title = v
		case ColumnRegistrationNumber:
			rec.RegistrationNumber = v
		case ColumnOwnerName:
			rec.OwnerName = v
		case ColumnState:
			rec.State = v
		case ColumnDistrict:
			rec.District = v
		case ColumnLanguage:
			rec.Language = v
		case ColumnClassName:
			rec.ClassName = v
		case ColumnMetadata:
			meta = v
		default:
			if v == "" {
				continue
			}
			if extras == nil {
				extras = make(map[string]string)
			}
			extras[c] = v
		}
	}

	md, err := ParseMetadata(meta)
	if err != nil {
		return nil, err
	}
	for k, v := range extras {
		if md == nil {
			md = make(map[string]string, len(extras))
		}
		md[k] = v
	}
	rec.Metadata = md

	return rec, nil
}

// RecordFromRow builds a record from a keyed row. Columns are resolved in
// sorted key order so duplicate aliases resolve deterministically.
func RecordFromRow(row Row) (*Record, error) {
	header := make([]string, 0, len(row))
	for k := range row {
		header = append(header, k)
	}
	sort.Strings(header)

	m, err := NewRowMapper(header)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(header))
	for i, k := range header {
		values[i] = row[k]
	}
	return m.Map(values)
}
