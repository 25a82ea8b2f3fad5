package middleware

import (
	"time"

	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedRoute = "unmatched"

// RequestMetrics counts and times API requests. Routes are recorded by
// pattern, so /claims/7 and /claims/8 share one series.
type RequestMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

// NewRequestMetrics registers the request instruments on meter.
func NewRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	requests, err := telemetry.NewCounter(meter,
		"claims_http_requests_total", "API requests by method, route and status", "{request}")
	if err != nil {
		return nil, err
	}
	latency, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "claims_http_request_duration_seconds",
		Description: "API request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("claims_http_requests_in_flight",
		metric.WithDescription("API requests currently being served"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &RequestMetrics{requests: requests, latency: latency, inFlight: inFlight}, nil
}

// Handler records every request except health probes.
func (m *RequestMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if untracedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		m.inFlight.Add(ctx, 1)
		start := time.Now()

		c.Next()

		m.inFlight.Add(ctx, -1)
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		pattern := telemetry.AttrHTTPRoute.String(route)
		m.requests.Inc(ctx, method, pattern, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		m.latency.RecordDuration(ctx, time.Since(start), method, pattern)
	}
}

// HTTPMetrics wires RequestMetrics to the provider's meter. Without a
// metrics exporter, or if the instruments cannot be created, it does
// nothing.
func HTTPMetrics(p *telemetry.Provider) gin.HandlerFunc {
	if !p.MetricsEnabled() {
		return passThrough
	}
	m, err := NewRequestMetrics(p.Meter("claims.http"))
	if err != nil {
		return passThrough
	}
	return m.Handler()
}

func passThrough(c *gin.Context) { c.Next() }
