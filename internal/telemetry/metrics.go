package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// BuildMetricsMeterName is the name used for the viewer build metrics meter
	BuildMetricsMeterName = "github.com/citruscircuits/grosbeak/aggregate"

	// CacheMetricsMeterName is the name used for the view cache metrics meter
	CacheMetricsMeterName = "github.com/citruscircuits/grosbeak/cache"
)

// BuildMetrics holds the instruments recorded for each viewer build
type BuildMetrics struct {
	buildDuration metric.Float64Histogram
	recordsTotal  metric.Int64Counter
}

// NewBuildMetrics creates a new BuildMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewBuildMetrics(provider metric.MeterProvider) (*BuildMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(BuildMetricsMeterName)

	buildDuration, err := meter.Float64Histogram(
		"grosbeak_viewer_build_duration_seconds",
		metric.WithDescription("Duration of viewer builds in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	recordsTotal, err := meter.Int64Counter(
		"grosbeak_viewer_records_total",
		metric.WithDescription("Number of records merged into viewer builds"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &BuildMetrics{
		buildDuration: buildDuration,
		recordsTotal:  recordsTotal,
	}, nil
}

// RecordBuild records the outcome of one viewer build for an event
func (m *BuildMetrics) RecordBuild(ctx context.Context, eventKey string, duration time.Duration, records int, success bool) {
	if m == nil || m.buildDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("event", eventKey),
		attribute.Bool("success", success),
	}
	m.buildDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if success {
		m.recordsTotal.Add(ctx, int64(records), metric.WithAttributes(attribute.String("event", eventKey)))
	}
}

// CacheMetrics counts view cache lookups
type CacheMetrics struct {
	lookups metric.Int64Counter
}

// NewCacheMetrics creates a new CacheMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	lookups, err := provider.Meter(CacheMetricsMeterName).Int64Counter(
		"grosbeak_view_cache_lookups_total",
		metric.WithDescription("View cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{lookups: lookups}, nil
}

// RecordLookup records a cache hit or miss
func (m *CacheMetrics) RecordLookup(ctx context.Context, hit bool) {
	if m == nil || m.lookups == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
