package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/airsight/airsight/internal/api/middleware"

// Metrics records request counts, latency and in-flight requests for the
// HTTP API, labelled by route template and status class.
type Metrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewMetrics registers the HTTP instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	duration, err := meter.Float64Histogram("airsight.http.server.duration",
		metric.WithDescription("Time spent serving API requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter("airsight.http.server.requests",
		metric.WithDescription("API requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("airsight.http.server.active_requests",
		metric.WithDescription("API requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{duration: duration, requests: requests, inFlight: inFlight}, nil
}

// Middleware returns the recording middleware.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			method := metric.WithAttributes(attribute.String("http.request.method", r.Method))
			m.inFlight.Add(ctx, 1, method)
			defer m.inFlight.Add(ctx, -1, method)

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.response.status_code", strconv.Itoa(rec.status)),
				attribute.String("http.response.status_class", statusClass(rec.status)),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.requests.Add(ctx, 1, attrs)
		})
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// ProviderMetrics records upstream calls and cache lookups made by the air
// quality service. It satisfies airquality.MetricsRecorder.
type ProviderMetrics struct {
	component    attribute.KeyValue
	callDuration metric.Float64Histogram
	calls        metric.Int64Counter
	cacheLookups metric.Int64Counter
}

// NewProviderMetrics registers upstream instruments. Every measurement is
// tagged with component so the API and the worker can be told apart.
func NewProviderMetrics(component string) (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	callDuration, err := meter.Float64Histogram("airsight.upstream.duration",
		metric.WithDescription("Latency of calls to upstream data sources"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	calls, err := meter.Int64Counter("airsight.upstream.calls",
		metric.WithDescription("Calls made to upstream data sources"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("airsight.cache.lookups",
		metric.WithDescription("Assessment cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		component:    attribute.String("airsight.component", component),
		callDuration: callDuration,
		calls:        calls,
		cacheLookups: cacheLookups,
	}, nil
}

// RecordRequest records one upstream call.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		m.component,
		attribute.String("airsight.provider", provider),
		attribute.String("airsight.operation", operation),
		attribute.String("airsight.outcome", outcome),
	)
	// Measurements outlive the request, so they are not tied to its context.
	ctx := context.Background()
	m.callDuration.Record(ctx, duration.Seconds(), attrs)
	m.calls.Add(ctx, 1, attrs)
}

// RecordCacheHit records an assessment served from cache.
func (m *ProviderMetrics) RecordCacheHit(provider, operation string) {
	m.recordLookup(provider, operation, "hit")
}

// RecordCacheMiss records an assessment that had to be fetched.
func (m *ProviderMetrics) RecordCacheMiss(provider, operation string) {
	m.recordLookup(provider, operation, "miss")
}

func (m *ProviderMetrics) recordLookup(provider, operation, result string) {
	m.cacheLookups.Add(context.Background(), 1, metric.WithAttributes(
		m.component,
		attribute.String("airsight.provider", provider),
		attribute.String("airsight.operation", operation),
		attribute.String("airsight.cache.result", result),
	))
}
