package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/airgrid/airgrid/internal/worker"

// JobMetrics holds the OpenTelemetry instruments for ingestion runs.
type JobMetrics struct {
	runDuration     metric.Float64Histogram
	runTotal        metric.Int64Counter
	stationsTotal   metric.Int64Counter
	forecastsPruned metric.Int64Counter
}

// NewJobMetrics creates metrics for monitoring ingestion runs.
func NewJobMetrics() (*JobMetrics, error) {
	meter := otel.Meter(meterName)

	runDuration, err := meter.Float64Histogram(
		"ingest.run.duration",
		metric.WithDescription("Duration of ingestion runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runTotal, err := meter.Int64Counter(
		"ingest.run.total",
		metric.WithDescription("Total number of ingestion runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	stationsTotal, err := meter.Int64Counter(
		"ingest.station.total",
		metric.WithDescription("Total number of per-station ingestion attempts"),
		metric.WithUnit("{station}"),
	)
	if err != nil {
		return nil, err
	}

	forecastsPruned, err := meter.Int64Counter(
		"ingest.forecast.pruned",
		metric.WithDescription("Number of expired forecast entries removed"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{
		runDuration:     runDuration,
		runTotal:        runTotal,
		stationsTotal:   stationsTotal,
		forecastsPruned: forecastsPruned,
	}, nil
}

// RecordRun records one per-domain ingestion run.
func (m *JobMetrics) RecordRun(domain string, duration time.Duration, success, failed int) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ingest.domain", domain),
	}
	if failed > 0 {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Use background context for metrics to avoid context cancellation issues
	ctx := context.TODO()
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stationsTotal.Add(ctx, int64(success), metric.WithAttributes(
		attribute.String("ingest.domain", domain),
		attribute.String("ingest.outcome", "success"),
	))
	m.stationsTotal.Add(ctx, int64(failed), metric.WithAttributes(
		attribute.String("ingest.domain", domain),
		attribute.String("ingest.outcome", "failure"),
	))
}

// RecordPrune records a forecast prune pass.
func (m *JobMetrics) RecordPrune(removed int) {
	if m == nil {
		return
	}
	m.forecastsPruned.Add(context.TODO(), int64(removed))
}
