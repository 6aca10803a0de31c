// Package telemetry wraps OpenTelemetry span and metric instrumentation
// for CodeGraph's core components. It reads from the global trace/metric
// providers (otel.GetTracerProvider/GetMeterProvider) rather than owning
// exporter setup: wiring an OTLP exporter is a deployment concern, out of
// scope the same way spec.md excludes dashboards and deployment, but the
// instrumentation points themselves are ambient and carried regardless.
// With no provider configured, every call here is the otel no-op
// implementation: zero behavioural effect, negligible overhead.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/charlenopires/codegraph"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	queryLatency, _    = meter.Float64Histogram("codegraph.query.latency_ms", metric.WithDescription("query() end-to-end latency in milliseconds"))
	queryDegraded, _   = meter.Int64Counter("codegraph.query.degraded_total", metric.WithDescription("queries that completed with at least one unhealthy retrieval channel"))
	feedbackSubmitted, _ = meter.Int64Counter("codegraph.feedback.submitted_total", metric.WithDescription("feedback events successfully applied"))
)

// StartQuerySpan begins a span around one query() invocation.
func StartQuerySpan(ctx context.Context, nlText string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "codegraph.query", trace.WithAttributes(
		attribute.String("codegraph.nl_text", nlText),
	))
}

// RecordQueryResult closes out a query span and records its latency/
// degradation metrics. err, if non-nil, marks the span as errored.
func RecordQueryResult(ctx context.Context, span trace.Span, latencyMs float64, degraded bool, elementCount int, err error) {
	defer span.End()

	queryLatency.Record(ctx, latencyMs)
	span.SetAttributes(
		attribute.Int("codegraph.element_count", elementCount),
		attribute.Bool("codegraph.degraded", degraded),
	)
	if degraded {
		queryDegraded.Add(ctx, 1)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// StartChannelSpan begins a span around one retrieval channel's Score call.
func StartChannelSpan(ctx context.Context, channel string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "codegraph.retrieval.channel", trace.WithAttributes(
		attribute.String("codegraph.channel", channel),
	))
}

// RecordFeedbackSubmitted increments the feedback-applied counter, tagged
// with the feedback direction.
func RecordFeedbackSubmitted(ctx context.Context, kind string) {
	feedbackSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("codegraph.feedback.kind", kind)))
}
