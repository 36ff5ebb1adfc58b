package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the pulse tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("pulse")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCycleSpan starts a span covering one ProcessEvents cycle.
	StartCycleSpan(ctx context.Context, frame uint64) (context.Context, trace.Span)

	// StartDispatchSpan starts a span for dispatching one event.
	// The dispatch span should be a child of the cycle span.
	StartDispatchSpan(ctx context.Context, kind string, eventID uint64) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCycleSpan starts a span covering one ProcessEvents cycle.
func (m *otelSpanManager) StartCycleSpan(ctx context.Context, frame uint64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulse.cycle",
		trace.WithAttributes(
			attribute.Int64("frame", int64(frame)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartDispatchSpan starts a span for dispatching one event.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, kind string, eventID uint64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulse.dispatch."+kind,
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.Int64("event.id", int64(eventID)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
