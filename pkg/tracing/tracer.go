package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPUserAgent  = "http.user_agent"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"

	AttrUserFullName        = "birthday.user.full_name"
	AttrNotificationTrigger = "birthday.notification.trigger"
	AttrNotificationOutcome = "birthday.notification.outcome"

	AttrMessagingSystem         = "messaging.system"
	AttrMessagingDestination    = "messaging.destination"
	AttrMessagingOperation      = "messaging.operation"
	AttrMessagingKafkaPartition = "messaging.kafka.partition"
	AttrMessagingKafkaOffset    = "messaging.kafka.offset"
)

// Tracer wraps an OpenTelemetry tracer with helpers for the spans this
// service emits.
type Tracer struct {
	tracer trace.Tracer
}

func NewTracer(tracer trace.Tracer) *Tracer {
	return &Tracer{
		tracer: tracer,
	}
}

// StartServerSpan creates a span for an inbound request.
func (t *Tracer) StartServerSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.startSpan(ctx, operation, trace.SpanKindServer, attrs...)
}

// StartClientSpan creates a span for an outbound call.
func (t *Tracer) StartClientSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.startSpan(ctx, operation, trace.SpanKindClient, attrs...)
}

// StartInternalSpan creates a span for background work such as the daily scan.
func (t *Tracer) StartInternalSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.startSpan(ctx, operation, trace.SpanKindInternal, attrs...)
}

func (t *Tracer) startSpan(ctx context.Context, operation string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
	return ctx, span
}

// RecordError records an error on the span
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddRequestAttributes adds HTTP request attributes
func (t *Tracer) AddRequestAttributes(span trace.Span, method, path, userAgent string, statusCode int) {
	span.SetAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, path),
		attribute.String(AttrHTTPUserAgent, userAgent),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}

// AddKafkaAttributes adds Kafka operation attributes
func (t *Tracer) AddKafkaAttributes(span trace.Span, topic, operation string, partition int32, offset int64) {
	span.SetAttributes(
		attribute.String(AttrMessagingSystem, "kafka"),
		attribute.String(AttrMessagingDestination, topic),
		attribute.String(AttrMessagingOperation, operation),
		attribute.Int64(AttrMessagingKafkaPartition, int64(partition)),
		attribute.Int64(AttrMessagingKafkaOffset, offset),
	)
}

// GetTracer returns a tracer from the global provider. Without a configured
// provider every span is a no-op.
func GetTracer(name string) *Tracer {
	return NewTracer(otel.Tracer(name))
}
