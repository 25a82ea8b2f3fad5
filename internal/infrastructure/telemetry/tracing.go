package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application service spans.
const TracerName = "claimswift-backend"

// Span attribute keys used by the claim, assessment and payment services.
const (
	SpanAttrClaimID          = "claim_id"
	SpanAttrClaimStatus      = "claim_status"
	SpanAttrAssessmentAction = "assessment_action"
	SpanAttrPaymentID        = "payment_id"
	SpanAttrPaymentRef       = "payment_reference"
	SpanAttrAmount           = "amount"
)

// StartServiceSpan starts an internal span called "<service>.<method>"
// carrying the given key/value pairs:
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process",
//	    telemetry.SpanAttrClaimID, claimID)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(pairs(keyValues)...))
}

// SetAttributes adds alternating key/value pairs to span. Non-string keys
// and an unpaired trailing key are dropped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(pairs(keyValues)...)
	}
}

// RecordError fails span with err. It is a no-op for a nil err, which
// makes it safe to defer on a named return.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a named event with key/value pairs to span.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(pairs(keyValues)...))
	}
}

func SpanFromContext(ctx context.Context) trace.Span { return trace.SpanFromContext(ctx) }

// TraceID is the hex id of the trace in ctx, empty when there is none.
func TraceID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).TraceID(); id.IsValid() {
		return id.String()
	}
	return ""
}

func pairs(keyValues []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 1; i < len(keyValues); i += 2 {
		if key, ok := keyValues[i-1].(string); ok {
			out = append(out, attr(key, keyValues[i]))
		}
	}
	return out
}

// attr keeps numbers and booleans typed. Decimals, durations and ids go
// through their String method.
func attr(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int32:
		return k.Int64(int64(v))
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case error:
		return k.String(v.Error())
	case fmt.Stringer:
		return k.String(v.String())
	}
	return k.String(fmt.Sprint(value))
}
