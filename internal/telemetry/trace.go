package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/felixgeelhaar/apigov"

// StartCommandSpan creates the root span for a CLI command.
//
// Usage:
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "check")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer(instrumentation).Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// StartStageSpan creates a child span for one stage of a run, such as
// loading a corpus or diffing it.
func StartStageSpan(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer(instrumentation).Start(ctx, "governance."+stage)
	span.SetAttributes(attribute.String("stage", stage))
	span.SetAttributes(attrs...)
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on span and sets error status. A nil err is a
// no-op.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// End records err, or success when err is nil, and ends the span.
//
// Usage:
//
//	ctx, span := telemetry.StartStageSpan(ctx, "diff")
//	defer func() { telemetry.End(span, err) }()
func End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err != nil {
		span.SetAttributes(attrs...)
		RecordError(span, err)
	} else {
		RecordSuccess(span, attrs...)
	}
	span.End()
}
