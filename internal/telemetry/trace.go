package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates a span for a CLI command execution.
//
// Usage:
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "tasks list")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/felixgeelhaar/todoask/cmd")
	ctx, span := tracer.Start(ctx, "command."+cmdName)

	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)

	return ctx, span
}

// StartRequestSpan creates a client span for one backend API call.
func StartRequestSpan(ctx context.Context, method, url string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/felixgeelhaar/todoask/apiclient")
	ctx, span := tracer.Start(ctx, "api."+method, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
		attribute.String("component", "apiclient"),
	)

	return ctx, span
}

// RecordOutcome tags an API span with the classified outcome. Status 0
// means no response was received.
func RecordOutcome(span trace.Span, outcome string, status int, authenticated bool) {
	span.SetAttributes(
		attribute.String("api.outcome", outcome),
		attribute.Bool("api.authenticated", authenticated),
	)
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if outcome == "success" {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, outcome)
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.Bool("error", true),
	)
}
