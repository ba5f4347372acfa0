package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sitesync"

// Metrics holds the sync engine metric instruments.
type Metrics struct {
	RunsStarted    metric.Int64Counter
	RunsCompleted  metric.Int64Counter
	RunsFailed     metric.Int64Counter
	RecordsCreated metric.Int64Counter
	RecordsUpdated metric.Int64Counter
	RecordErrors   metric.Int64Counter
	RunDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("sitesync.runs.started",
		metric.WithDescription("Number of sync runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("sitesync.runs.completed",
		metric.WithDescription("Number of sync runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("sitesync.runs.failed",
		metric.WithDescription("Number of sync runs that ended in error"))
	if err != nil {
		return nil, err
	}

	m.RecordsCreated, err = meter.Int64Counter("sitesync.records.created",
		metric.WithDescription("Number of destination records created"))
	if err != nil {
		return nil, err
	}

	m.RecordsUpdated, err = meter.Int64Counter("sitesync.records.updated",
		metric.WithDescription("Number of records matched via the crosswalk"))
	if err != nil {
		return nil, err
	}

	m.RecordErrors, err = meter.Int64Counter("sitesync.records.errors",
		metric.WithDescription("Number of per-record failures"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("sitesync.run.duration_seconds",
		metric.WithDescription("Sync run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
