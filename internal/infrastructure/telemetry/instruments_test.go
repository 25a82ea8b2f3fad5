package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMeter returns a meter backed by a manual reader so tests can collect
// what was recorded.
func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestCounter(t *testing.T) {
	reader, mp := newTestMeter(t)
	ctx := context.Background()

	c, err := telemetry.NewCounter(mp.Meter("test"), "claims_test_total", "test counter", "{items}")
	require.NoError(t, err)

	c.Inc(ctx, telemetry.AttrPaymentOutcome.String("success"))
	c.Add(ctx, 2, telemetry.AttrPaymentOutcome.String("success"))
	c.Inc(ctx, telemetry.AttrPaymentOutcome.String("failed"))

	sum, ok := collect(t, reader)["claims_test_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrPaymentOutcome)
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(3), byOutcome["success"])
	assert.Equal(t, int64(1), byOutcome["failed"])
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	reader, mp := newTestMeter(t)

	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:        "claims_request_duration_test",
		Description: "test histogram",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 300*time.Millisecond)
	h.Record(context.Background(), 4)

	hist, ok := collect(t, reader)["claims_request_duration_test"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.Equal(t, telemetry.HTTPDurationBuckets, dp.Bounds)
	assert.InDelta(t, 4.3, dp.Sum, 0.0001)
}

func TestGauge_KeepsLatestSample(t *testing.T) {
	reader, mp := newTestMeter(t)
	ctx := context.Background()

	g, err := telemetry.NewGauge(mp.Meter("test"), "claims_open_test", "test gauge", "{claims}")
	require.NoError(t, err)

	g.Record(ctx, 5)
	g.Record(ctx, 3)

	ig, ok := collect(t, reader)["claims_open_test"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, ig.DataPoints, 1)
	assert.Equal(t, int64(3), ig.DataPoints[0].Value)
}
