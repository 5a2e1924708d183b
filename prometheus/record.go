// Package prometheus instruments prgi services with Prometheus metrics.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the record store metrics.
type Metrics struct {
	RecordsInserted prometheus.Counter
	RecordsSkipped  prometheus.Counter
	RecordsTotal    prometheus.Gauge
	QueryDuration   *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsInserted: f.NewCounter(prometheus.CounterOpts{
			Name: "prgi_records_inserted_total",
			Help: "Total number of records inserted",
		}),
		RecordsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "prgi_records_skipped_total",
			Help: "Total number of records skipped as duplicates",
		}),
		RecordsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "prgi_records",
			Help: "Number of records in the store after the last insert or count",
		}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prgi_store_operation_duration_seconds",
			Help:    "Duration of record store operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prgi_store_errors_total",
			Help: "Total number of failed record store operations",
		}, []string{"operation", "code"}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.Errors.WithLabelValues(op, prgi.ErrorCode(err)).Inc()
	}
}

// Ensure RecordService implements prgi.RecordService.
var _ prgi.RecordService = (*RecordService)(nil)

// RecordService wraps a RecordService and records metrics for each call.
type RecordService struct {
	next    prgi.RecordService
	metrics *Metrics
}

// NewRecordService creates a new instrumented RecordService.
func NewRecordService(next prgi.RecordService, metrics *Metrics) *RecordService {
	return &RecordService{next: next, metrics: metrics}
}

func (s *RecordService) InsertRecords(ctx context.Context, records []*prgi.Record) (*prgi.InsertResult, error) {
	start := time.Now()
	result, err := s.next.InsertRecords(ctx, records)
	s.metrics.observe("insert", start, err)
	if err == nil {
		s.metrics.RecordsInserted.Add(float64(result.Inserted))
		s.metrics.RecordsSkipped.Add(float64(result.Skipped))
		s.metrics.RecordsTotal.Set(float64(result.Total))
	}
	return result, err
}

func (s *RecordService) FindRecords(ctx context.Context, filter prgi.RecordFilter) ([]*prgi.Record, int, error) {
	start := time.Now()
	records, total, err := s.next.FindRecords(ctx, filter)
	s.metrics.observe("find", start, err)
	return records, total, err
}

func (s *RecordService) CountRecords(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.next.CountRecords(ctx)
	s.metrics.observe("count", start, err)
	if err == nil {
		s.metrics.RecordsTotal.Set(float64(n))
	}
	return n, err
}

func (s *RecordService) DistinctValues(ctx context.Context, field prgi.Field) ([]string, error) {
	start := time.Now()
	values, err := s.next.DistinctValues(ctx, field)
	s.metrics.observe("distinct", start, err)
	return values, err
}

func (s *RecordService) Stats(ctx context.Context) (*prgi.Stats, error) {
	start := time.Now()
	stats, err := s.next.Stats(ctx)
	s.metrics.observe("stats", start, err)
	if err == nil {
		s.metrics.RecordsTotal.Set(float64(stats.TotalRecords))
	}
	return stats, err
}
