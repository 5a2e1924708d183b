// Package ingest loads rows from a prgi.RowReader into a prgi.RecordService
// in bounded batches.
package ingest

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/prgi"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of records inserted per batch.
const DefaultBatchSize = 1000

// Importer maps source rows to records and bulk-loads them.
type Importer struct {
	Records prgi.RecordService

	// BatchSize bounds the number of records held in memory between
	// inserts. Defaults to DefaultBatchSize.
	BatchSize int

	// Logger receives a warning for each malformed row. Optional.
	Logger *slog.Logger
}

// NewImporter returns an Importer writing to records.
func NewImporter(records prgi.RecordService) *Importer {
	return &Importer{Records: records, BatchSize: DefaultBatchSize}
}

// Import reads src to the end and inserts its rows. Duplicate rows are
// counted as skipped and undecodable rows as malformed; neither stops the
// import. A source without a usable header fails before anything is
// inserted. Batches already inserted stay inserted if a later one fails.
func (im *Importer) Import(ctx context.Context, src prgi.RowReader) (*prgi.ImportReport, error) {
	mapper, err := prgi.NewRowMapper(src.Header())
	if err != nil {
		return nil, err
	}

	logger := im.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := im.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	report := &prgi.ImportReport{RunID: uuid.New().String()}
	batch := make([]*prgi.Record, 0, size)
	line := 1 // header

	flush := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := im.Records.InsertRecords(ctx, batch)
		if err != nil {
			return err
		}
		report.Inserted += res.Inserted
		report.Skipped += res.Skipped
		report.Total = res.Total
		batch = batch[:0]
		return nil
	}

	for {
		row, err := src.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if prgi.ErrorCode(err) != prgi.EINVALID {
				return report, err
			}
			report.Malformed++
			logger.Warn("malformed row", "run", report.RunID, "row", line, "err", prgi.ErrorMessage(err))
			continue
		}

		rec, err := mapper.Map(row)
		if err != nil {
			report.Malformed++
			logger.Warn("malformed row", "run", report.RunID, "row", line, "err", prgi.ErrorMessage(err))
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= size {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	// The final flush also runs for an empty batch so Total is always set.
	if err := flush(); err != nil {
		return report, err
	}

	return report, nil
}
