package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prgi"
)

// Ensure LoggingRecordService implements prgi.RecordService.
var _ prgi.RecordService = (*LoggingRecordService)(nil)

// LoggingRecordService wraps a RecordService with logging.
type LoggingRecordService struct {
	next   prgi.RecordService
	logger *slog.Logger
}

// NewLoggingRecordService creates a new LoggingRecordService.
func NewLoggingRecordService(next prgi.RecordService, logger *slog.Logger) *LoggingRecordService {
	return &LoggingRecordService{next: next, logger: logger}
}

func (s *LoggingRecordService) InsertRecords(ctx context.Context, records []*prgi.Record) (result *prgi.InsertResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"records", len(records),
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"inserted", result.Inserted,
				"skipped", result.Skipped,
				"total", result.Total,
			)
		}
		s.log(ctx, "insert records", err, attrs)
	}(time.Now())
	return s.next.InsertRecords(ctx, records)
}

func (s *LoggingRecordService) FindRecords(ctx context.Context, filter prgi.RecordFilter) (records []*prgi.Record, total int, err error) {
	defer func(begin time.Time) {
		attrs := make([]any, 0, 16)
		for _, c := range filter.Constraints() {
			attrs = append(attrs, string(c.Field), c.Value)
		}
		attrs = append(attrs,
			"offset", filter.Offset,
			"limit", filter.EffectiveLimit(),
			"returned", len(records),
			"total", total,
			"duration", time.Since(begin),
		)
		s.log(ctx, "find records", err, attrs)
	}(time.Now())
	return s.next.FindRecords(ctx, filter)
}

func (s *LoggingRecordService) CountRecords(ctx context.Context) (n int, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "count records", err, []any{"count", n, "duration", time.Since(begin)})
	}(time.Now())
	return s.next.CountRecords(ctx)
}

func (s *LoggingRecordService) DistinctValues(ctx context.Context, field prgi.Field) (values []string, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "distinct values", err, []any{"field", string(field), "values", len(values), "duration", time.Since(begin)})
	}(time.Now())
	return s.next.DistinctValues(ctx, field)
}

func (s *LoggingRecordService) Stats(ctx context.Context) (stats *prgi.Stats, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "stats", err, []any{"duration", time.Since(begin)})
	}(time.Now())
	return s.next.Stats(ctx)
}

// log writes successful calls at info level and failures at error level.
func (s *LoggingRecordService) log(ctx context.Context, msg string, err error, attrs []any) {
	if err != nil {
		attrs = append(attrs, "err", err)
		s.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	s.logger.InfoContext(ctx, msg, attrs...)
}
