package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// otelSpanWrapper adapts an OpenTelemetry span to this package's Span
// interface, the way the rest of wdcore's components depend on Span rather
// than on go.opentelemetry.io/otel/trace directly.
type otelSpanWrapper struct {
	span trace.Span
}

func (o *otelSpanWrapper) End() {
	o.span.End()
}

// SetStatus maps the generic int status code an unaware caller might pass
// (1 == ok, 2 == error) onto otel's codes.Code.
func (o *otelSpanWrapper) SetStatus(code int, description string) {
	var statusCode codes.Code
	switch code {
	case 1:
		statusCode = codes.Ok
	case 2:
		statusCode = codes.Error
	default:
		statusCode = codes.Unset
	}
	o.span.SetStatus(statusCode, description)
}

func (o *otelSpanWrapper) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		o.span.SetAttributes(attribute.String(key, v))
	case int:
		o.span.SetAttributes(attribute.Int(key, v))
	case int64:
		o.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		o.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		o.span.SetAttributes(attribute.Bool(key, v))
	case []attribute.KeyValue:
		o.span.SetAttributes(v...)
	default:
		o.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (o *otelSpanWrapper) AddEvent(name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	o.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (o *otelSpanWrapper) RecordError(err error) {
	o.span.RecordError(err)
}

func (o *otelSpanWrapper) SpanContext() trace.SpanContext {
	return o.span.SpanContext()
}

func (o *otelSpanWrapper) TracerProvider() trace.TracerProvider {
	return o.span.TracerProvider()
}

// NewOtelStartSpan adapts an already-configured trace.Tracer into a
// StartSpanFunc, the shape pkg/opstore/postgres's BaseRepository takes as a
// constructor argument (the only component here that takes one). wdcore is a library with no process of its own to own a
// TracerProvider's lifecycle (export endpoint, batching, shutdown): an
// embedding application builds and registers its own OpenTelemetry SDK
// (otel.Tracer(name) after otel.SetTracerProvider(...)) the way it already
// does for its own spans, and passes the resulting tracer here. Components
// that aren't given one fall back to NoopStartSpan.
func NewOtelStartSpan(tracer trace.Tracer) StartSpanFunc {
	return func(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
		return ctx, &otelSpanWrapper{span: span}
	}
}
