package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestNewMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	build, err := NewBuildMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, build)

	cache, err := NewCacheMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, cache)

	httpMetrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, httpMetrics)

	// nil receivers are no-ops
	build.RecordBuild(context.Background(), "2024cave", time.Second, 5, true)
	cache.RecordLookup(context.Background(), true)
}

func TestBuildMetrics_RecordBuild(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewBuildMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordBuild(ctx, "2024cave", 150*time.Millisecond, 40, true)
	metrics.RecordBuild(ctx, "2024cave", 20*time.Millisecond, 0, false)

	found := collect(t, reader, BuildMetricsMeterName)

	duration, ok := found["grosbeak_viewer_build_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2, "success and failure are separate series")

	records, ok := found["grosbeak_viewer_records_total"]
	require.True(t, ok)
	sum, ok := records.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(40), sum.DataPoints[0].Value)
}

func TestCacheMetrics_RecordLookup(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewCacheMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLookup(ctx, true)
	metrics.RecordLookup(ctx, false)
	metrics.RecordLookup(ctx, false)

	found := collect(t, reader, CacheMetricsMeterName)
	lookups, ok := found["grosbeak_view_cache_lookups_total"]
	require.True(t, ok)

	sum, ok := lookups.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byResult := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("result")
		byResult[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"hit": 1, "miss": 2}, byResult)
}
