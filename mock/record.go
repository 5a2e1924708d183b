package mock

import (
	"context"

	"github.com/fwojciec/prgi"
)

var _ prgi.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of prgi.RecordService.
type RecordService struct {
	InsertRecordsFn  func(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error)
	FindRecordsFn    func(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error)
	CountRecordsFn   func(ctx context.Context) (int, error)
	DistinctValuesFn func(ctx context.Context, field prgi.Field) ([]string, error)
	StatsFn          func(ctx context.Context) (*prgi.Stats, error)
}

func (s *RecordService) InsertRecords(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error) {
	return s.InsertRecordsFn(ctx, records)
}

func (s *RecordService) FindRecords(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordService) CountRecords(ctx context.Context) (int, error) {
	return s.CountRecordsFn(ctx)
}

func (s *RecordService) DistinctValues(ctx context.Context, field prgi.Field) ([]string, error) {
	return s.DistinctValuesFn(ctx, field)
}

func (s *RecordService) Stats(ctx context.Context) (*prgi.Stats, error) {
	return s.StatsFn(ctx)
}
