package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records one accepted publish for a kind.
	RecordPublish(ctx context.Context, kind string)

	// RecordDrop records one publish rejected at queue capacity.
	RecordDrop(ctx context.Context, kind string)

	// RecordCycle records a completed ProcessEvents cycle with the number
	// of events dispatched and the cycle duration.
	RecordCycle(ctx context.Context, processed int, duration time.Duration)

	// RecordListenerPanic records one recovered listener panic.
	RecordListenerPanic(ctx context.Context, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	published      metric.Int64Counter
	dropped        metric.Int64Counter
	cycleEvents    metric.Int64Counter
	cycleLatency   metric.Float64Histogram
	listenerPanics metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulse")

	published, err := meter.Int64Counter("pulse.events.published",
		metric.WithDescription("Number of events accepted into the queue"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter("pulse.events.dropped",
		metric.WithDescription("Number of publishes rejected at queue capacity"),
	)
	if err != nil {
		return nil, err
	}

	cycleEvents, err := meter.Int64Counter("pulse.cycle.events",
		metric.WithDescription("Number of events dispatched per cycle"),
	)
	if err != nil {
		return nil, err
	}

	cycleLatency, err := meter.Float64Histogram("pulse.cycle.latency_ms",
		metric.WithDescription("ProcessEvents cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	listenerPanics, err := meter.Int64Counter("pulse.listener.panics",
		metric.WithDescription("Number of recovered listener panics"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		published:      published,
		dropped:        dropped,
		cycleEvents:    cycleEvents,
		cycleLatency:   cycleLatency,
		listenerPanics: listenerPanics,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		return NoopMetrics{}
	}
	return m
}

// RecordPublish records one accepted publish.
func (m *otelMetrics) RecordPublish(ctx context.Context, kind string) {
	m.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", kind),
	))
}

// RecordDrop records one rejected publish.
func (m *otelMetrics) RecordDrop(ctx context.Context, kind string) {
	m.dropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", kind),
	))
}

// RecordCycle records a completed cycle.
func (m *otelMetrics) RecordCycle(ctx context.Context, processed int, duration time.Duration) {
	m.cycleEvents.Add(ctx, int64(processed))
	m.cycleLatency.Record(ctx, float64(duration.Microseconds())/1000.0)
}

// RecordListenerPanic records one recovered listener panic.
func (m *otelMetrics) RecordListenerPanic(ctx context.Context, kind string) {
	m.listenerPanics.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", kind),
	))
}
