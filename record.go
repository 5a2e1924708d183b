package prgi

import (
	"context"
	"encoding/json"
	"strings"
)

// Record represents one publication registration entry.
type Record struct {
	ID                 int64             `json:"id"`
	SerialNumber       string            `json:"serial_number"`
	Title              string            `json:"title"`
	RegistrationNumber string            `json:"registration_number"`
	OwnerName          string            `json:"owner_name"`
	State              string            `json:"state"`
	District           string            `json:"district"`
	Language           string            `json:"language"`
	ClassName          string            `json:"class_name"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Key returns the composite natural key of the record.
func (r *Record) Key() CompositeKey {
	return CompositeKey{
		RegistrationNumber: r.RegistrationNumber,
		Title:              r.Title,
		OwnerName:          r.OwnerName,
	}
}

// MetadataJSON returns the metadata encoded as a JSON object, or an empty
// string when there is none.
func (r *Record) MetadataJSON() (string, error) {
	if len(r.Metadata) == 0 {
		return "", nil
	}
	b, err := json.Marshal(r.Metadata)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseMetadata decodes metadata text produced by MetadataJSON.
// Blank input yields a nil map.
func ParseMetadata(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, Errorf(EINVALID, "invalid metadata: %v", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// CompositeKey is the (registration number, title, owner) triple that must
// be unique across the store.
type CompositeKey struct {
	RegistrationNumber string
	Title              string
	OwnerName          string
}

// InsertResult reports the outcome of inserting a batch of records.
type InsertResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Stats summarizes the contents of the store.
type Stats struct {
	TotalRecords    int `json:"total_records"`
	UniqueStates    int `json:"unique_states"`
	UniqueLanguages int `json:"unique_languages"`
	UniqueDistricts int `json:"unique_districts"`
}

// RecordService represents a service for storing and searching records.
// Records are append-only: there are no update or delete operations.
type RecordService interface {
	// InsertRecords inserts each record unless another record with the same
	// composite key already exists, in which case it is counted as skipped.
	// A conflict never aborts the rest of the batch.
	InsertRecords(ctx context.Context, records []*Record) (*InsertResult, error)

	// FindRecords retrieves records matching the filter in ascending ID
	// order. Also returns the total number of matches, which may exceed
	// the number of records returned.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*Record, int, error)

	// CountRecords returns the number of stored records.
	CountRecords(ctx context.Context) (int, error)

	// DistinctValues returns the sorted non-empty values of a categorical
	// field. Returns EINVALID for fields that are not exact-match fields.
	DistinctValues(ctx context.Context, field Field) ([]string, error)

	// Stats returns summary counts for the store.
	Stats(ctx context.Context) (*Stats, error)
}
