package clusterkit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each dataset load.
	// rows is the number of decoded rows, err is nil if successful.
	RecordLoad(rows int, duration time.Duration, err error)

	// RecordFit is called after each model fit.
	RecordFit(k int, duration time.Duration, err error)

	// RecordSweep is called after each elbow sweep.
	RecordSweep(kMin, kMax int, duration time.Duration, err error)

	// RecordSnapshot is called after each model save or load.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordFit(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSweep(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadRows       atomic.Int64
	FitCount       atomic.Int64
	FitErrors      atomic.Int64
	FitTotalNanos  atomic.Int64
	SweepCount     atomic.Int64
	SweepErrors    atomic.Int64
	SnapshotCount  atomic.Int64
	SnapshotErrors atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(rows int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadRows.Add(int64(rows))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(k int, duration time.Duration, err error) {
	b.FitCount.Add(1)
	b.FitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(kMin, kMax int, duration time.Duration, err error) {
	b.SweepCount.Add(1)
	if err != nil {
		b.SweepErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadRows:       b.LoadRows.Load(),
		FitCount:       b.FitCount.Load(),
		FitErrors:      b.FitErrors.Load(),
		FitAvgNanos:    b.getAvgFitNanos(),
		SweepCount:     b.SweepCount.Load(),
		SweepErrors:    b.SweepErrors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFitNanos() int64 {
	count := b.FitCount.Load()
	if count == 0 {
		return 0
	}
	return b.FitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadRows       int64
	FitCount       int64
	FitErrors      int64
	FitAvgNanos    int64
	SweepCount     int64
	SweepErrors    int64
	SnapshotCount  int64
	SnapshotErrors int64
}
