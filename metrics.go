package sparsego

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each construction of an array
	// (COO, CSC, or dense source). nnz is the number of stored
	// entries of the result, err is nil if successful.
	RecordBuild(source string, nnz int64, duration time.Duration, err error)

	// RecordMaterialize is called after each materialization
	// (to COO, CSC, dense, or mask form).
	RecordMaterialize(form string, duration time.Duration, err error)

	// RecordSubassign is called after each subassignment batch.
	// writes is the number of incoming (index, value) pairs.
	RecordSubassign(writes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(string, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordMaterialize(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSubassign(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount            atomic.Int64
	BuildErrors           atomic.Int64
	BuildTotalNanos       atomic.Int64
	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializeTotalNanos atomic.Int64
	SubassignCount        atomic.Int64
	SubassignWrites       atomic.Int64
	SubassignErrors       atomic.Int64
	SubassignTotalNanos   atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(source string, nnz int64, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(form string, duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
}

// RecordSubassign implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubassign(writes int, duration time.Duration, err error) {
	b.SubassignCount.Add(1)
	b.SubassignWrites.Add(int64(writes))
	b.SubassignTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SubassignErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	BuildCount        int64
	BuildErrors       int64
	BuildAvgNanos     int64
	MaterializeCount  int64
	MaterializeErrors int64
	SubassignCount    int64
	SubassignWrites   int64
	SubassignErrors   int64
	SubassignAvgNanos int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:        b.BuildCount.Load(),
		BuildErrors:       b.BuildErrors.Load(),
		BuildAvgNanos:     avgNanos(&b.BuildTotalNanos, &b.BuildCount),
		MaterializeCount:  b.MaterializeCount.Load(),
		MaterializeErrors: b.MaterializeErrors.Load(),
		SubassignCount:    b.SubassignCount.Load(),
		SubassignWrites:   b.SubassignWrites.Load(),
		SubassignErrors:   b.SubassignErrors.Load(),
		SubassignAvgNanos: avgNanos(&b.SubassignTotalNanos, &b.SubassignCount),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}
