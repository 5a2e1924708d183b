package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/prgi"
)

// Compile-time interface verification.
var _ prgi.RecordService = (*RecordService)(nil)

// columnsByField maps filter fields to table columns.
var columnsByField = map[prgi.Field]string{
	prgi.FieldTitle:              "title",
	prgi.FieldOwnerName:          "owner_name",
	prgi.FieldRegistrationNumber: "registration_number",
	prgi.FieldState:              "state",
	prgi.FieldDistrict:           "district",
	prgi.FieldLanguage:           "language",
	prgi.FieldClassName:          "class_name",
}

const selectColumns = `id, serial_number, title, registration_number, owner_name,
	state, district, language, class_name, metadata`

// RecordService implements prgi.RecordService using SQLite.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

// InsertRecords inserts the batch in a single transaction. Records whose
// composite key already exists are skipped.
func (s *RecordService) InsertRecords(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error) {
	result := &prgi.InsertResult{}

	if len(records) > 0 {
		if err := s.insertBatch(ctx, records, result); err != nil {
			return nil, err
		}
	}

	// Counted after commit: the pool holds a single connection.
	total, err := s.CountRecords(ctx)
	if err != nil {
		return nil, err
	}
	result.Total = total

	return result, nil
}

func (s *RecordService) insertBatch(ctx context.Context, records []*prgi.Record, result *prgi.InsertResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO registrations (serial_number, title, registration_number, owner_name,
			state, district, language, class_name, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (registration_number, title, owner_name) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		meta, err := rec.MetadataJSON()
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}

		res, err := stmt.ExecContext(ctx, rec.SerialNumber, rec.Title, rec.RegistrationNumber, rec.OwnerName,
			rec.State, rec.District, rec.Language, rec.ClassName, meta)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			result.Skipped++
			continue
		}

		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rec.ID = id
		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// FindRecords retrieves records matching the filter.
func (s *RecordService) FindRecords(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	where, args := whereClause(filter.Constraints())

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations"+where, args...).Scan(&n); err != nil {
		return nil, 0, err
	}

	var query strings.Builder
	query.WriteString("SELECT " + selectColumns + " FROM registrations" + where + " ORDER BY id ASC")
	appendPagination(&query, &args, filter.EffectiveLimit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]*prgi.Record, 0)
	for rows.Next() {
		var rec prgi.Record
		var meta string

		if err := rows.Scan(&rec.ID, &rec.SerialNumber, &rec.Title, &rec.RegistrationNumber, &rec.OwnerName,
			&rec.State, &rec.District, &rec.Language, &rec.ClassName, &meta); err != nil {
			return nil, 0, err
		}

		if rec.Metadata, err = prgi.ParseMetadata(meta); err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", rec.ID, err)
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, n, nil
}

// CountRecords returns the number of stored records.
func (s *RecordService) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DistinctValues returns the sorted non-empty values of an exact-match field.
func (s *RecordService) DistinctValues(ctx context.Context, field prgi.Field) ([]string, error) {
	if field.MatchKind() != prgi.MatchExact {
		return nil, prgi.Errorf(prgi.EINVALID, "field %q has no value list", field)
	}
	col := columnsByField[field]

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+col+" FROM registrations WHERE "+col+" != '' ORDER BY "+col)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Stats returns summary counts for the store.
func (s *RecordService) Stats(ctx context.Context) (*prgi.Stats, error) {
	var stats prgi.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT NULLIF(state, '')),
			COUNT(DISTINCT NULLIF(language, '')),
			COUNT(DISTINCT NULLIF(district, ''))
		FROM registrations
	`).Scan(&stats.TotalRecords, &stats.UniqueStates, &stats.UniqueLanguages, &stats.UniqueDistricts)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// whereClause builds the predicate for the given constraints. The returned
// clause is empty or begins with " WHERE".
func whereClause(constraints []prgi.Constraint) (string, []any) {
	if len(constraints) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(constraints))
	args := make([]any, 0, len(constraints))
	for _, c := range constraints {
		col := columnsByField[c.Field]
		switch c.Field.MatchKind() {
		case prgi.MatchSubstring:
			// SQLite LIKE ignores ASCII case by default.
			clauses = append(clauses, col+` LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(c.Value)+"%")
		case prgi.MatchExact:
			clauses = append(clauses, col+" = ? COLLATE NOCASE")
			args = append(args, c.Value)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the value matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
