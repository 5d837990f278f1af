package emit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by recording each event as a span event on
// a single tracer-scoped span, tagging resource, mode, and any metadata as
// attributes. It is intended to run alongside a parent span the caller
// starts for the engine's lifetime (e.g. around Start/Stop).
type OTelEmitter struct {
	tracer trace.Tracer
	span   trace.Span
}

// NewOTelEmitter starts a span named "depengine" from tracer and returns an
// Emitter that records events onto it. Callers own the returned context if
// they need to propagate it further; Flush ends the span.
func NewOTelEmitter(ctx context.Context, tracer trace.Tracer) (*OTelEmitter, context.Context) {
	spanCtx, span := tracer.Start(ctx, "depengine")
	return &OTelEmitter{tracer: tracer, span: span}, spanCtx
}

func (o *OTelEmitter) Emit(event Event) {
	attrs := []attribute.KeyValue{
		attribute.String("tag", event.Tag),
		attribute.String("mode", event.Mode),
	}
	for k, v := range event.Meta {
		attrs = append(attrs, attribute.String(k, toString(v)))
	}
	o.span.AddEvent(event.Msg, trace.WithAttributes(attrs...))
	if errText, ok := event.Meta["error"]; ok {
		o.span.SetStatus(codes.Error, toString(errText))
	}
}

func (o *OTelEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		o.Emit(e)
	}
	return nil
}

func (o *OTelEmitter) Flush(_ context.Context) error {
	o.span.End()
	return nil
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return ""
}
