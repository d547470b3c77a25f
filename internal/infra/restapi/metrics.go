package restapi

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/cryptoarb/internal/telemetry"
)

type clientMetrics struct {
	environment string
	host        string

	attempts metric.Int64Counter
	retries  metric.Int64Counter
	latency  metric.Float64Histogram
}

func newClientMetrics(host string) *clientMetrics {
	meter := otel.Meter("restapi")
	m := &clientMetrics{
		environment: telemetry.Environment(),
		host:        host,
		attempts:    nil,
		retries:     nil,
		latency:     nil,
	}
	m.attempts, _ = meter.Int64Counter("cryptoarb_rest_requests",
		metric.WithDescription("REST request attempts by outcome"),
		metric.WithUnit("{request}"))
	m.retries, _ = meter.Int64Counter("cryptoarb_rest_retries",
		metric.WithDescription("REST attempts that were scheduled for retry"),
		metric.WithUnit("{retry}"))
	m.latency, _ = meter.Float64Histogram("cryptoarb_rest_request_duration",
		metric.WithDescription("Latency of a single REST attempt"),
		metric.WithUnit("ms"))
	return m
}

func (m *clientMetrics) recordAttempt(ctx context.Context, method, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(telemetry.RequestAttributes(m.environment, m.host, method, result)...)
	if m.attempts != nil {
		m.attempts.Add(ctx, 1, attrs)
	}
	if m.latency != nil {
		m.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}

func (m *clientMetrics) recordRetry(ctx context.Context, method, failure string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrEnvironment.String(m.environment),
		telemetry.AttrHost.String(m.host),
		telemetry.AttrMethod.String(method),
		telemetry.AttrFailure.String(failure),
	))
}
