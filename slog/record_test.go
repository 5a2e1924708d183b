package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/prgi"
	"github.com/fwojciec/prgi/mock"
	prgislog "github.com/fwojciec/prgi/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecordService_InsertRecords(t *testing.T) {
	t.Parallel()

	t.Run("logs counts from the insert result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			InsertRecordsFn: func(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error) {
				return &prgi.InsertResult{Inserted: 2, Skipped: 1, Total: 2}, nil
			},
		}

		svc := prgislog.NewLoggingRecordService(inner, logger)
		result, err := svc.InsertRecords(context.Background(), make([]*prgi.Record, 3))

		require.NoError(t, err)
		assert.Equal(t, 2, result.Inserted)
		output := buf.String()
		assert.Contains(t, output, "insert records")
		assert.Contains(t, output, "records=3")
		assert.Contains(t, output, "inserted=2")
		assert.Contains(t, output, "skipped=1")
		assert.Contains(t, output, "total=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error at error level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			InsertRecordsFn: func(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error) {
				return nil, errors.New("disk full")
			},
		}

		svc := prgislog.NewLoggingRecordService(inner, logger)
		_, err := svc.InsertRecords(context.Background(), nil)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, `err="disk full"`)
		assert.NotContains(t, output, "inserted=")
	})
}

func TestLoggingRecordService_FindRecords(t *testing.T) {
	t.Parallel()

	t.Run("logs constraints and result sizes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error) {
				return []*prgi.Record{{ID: 1}}, 5, nil
			},
		}

		svc := prgislog.NewLoggingRecordService(inner, logger)
		records, total, err := svc.FindRecords(context.Background(), prgi.RecordFilter{State: "Kerala", Limit: 1})

		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 5, total)
		output := buf.String()
		assert.Contains(t, output, "find records")
		assert.Contains(t, output, "state=Kerala")
		assert.Contains(t, output, "limit=1")
		assert.Contains(t, output, "returned=1")
		assert.Contains(t, output, "total=5")
	})

	t.Run("passes filter through unchanged", func(t *testing.T) {
		t.Parallel()

		var got prgi.RecordFilter
		inner := &mock.RecordService{
			FindRecordsFn: func(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error) {
				got = filter
				return nil, 0, nil
			},
		}
		want := prgi.RecordFilter{Title: "times", Offset: 20, Limit: 10}

		svc := prgislog.NewLoggingRecordService(inner, slog.New(slog.DiscardHandler))
		_, _, err := svc.FindRecords(context.Background(), want)

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestLoggingRecordService_CountRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.RecordService{
		CountRecordsFn: func(ctx context.Context) (int, error) {
			return 42, nil
		},
	}

	svc := prgislog.NewLoggingRecordService(inner, logger)
	n, err := svc.CountRecords(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Contains(t, buf.String(), "count=42")
}

func TestLoggingRecordService_DistinctValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.RecordService{
		DistinctValuesFn: func(ctx context.Context, field prgi.Field) ([]string, error) {
			return []string{"Goa", "Kerala"}, nil
		},
	}

	svc := prgislog.NewLoggingRecordService(inner, logger)
	values, err := svc.DistinctValues(context.Background(), prgi.FieldState)

	require.NoError(t, err)
	assert.Equal(t, []string{"Goa", "Kerala"}, values)
	output := buf.String()
	assert.Contains(t, output, "field=state")
	assert.Contains(t, output, "values=2")
}

func TestLoggingRecordService_Stats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.RecordService{
		StatsFn: func(ctx context.Context) (*prgi.Stats, error) {
			return &prgi.Stats{TotalRecords: 3}, nil
		},
	}

	svc := prgislog.NewLoggingRecordService(inner, logger)
	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Contains(t, buf.String(), "msg=stats")
}
