package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the zara package.
const TracerName = "github.com/zeeshanhm/zara"

// Span attribute keys for operations.
const (
	// SpanAttrSession is the chat session identifier attribute.
	SpanAttrSession = "chat.session"

	// SpanAttrModel is the language model name attribute.
	SpanAttrModel = "llm.model"

	// SpanAttrTool is the calendar tool name attribute.
	SpanAttrTool = "llm.tool"

	// SpanAttrOperation is the calendar operation type attribute.
	SpanAttrOperation = "calendar.operation"

	// SpanAttrEventID is the calendar event identifier attribute.
	SpanAttrEventID = "calendar.event_id"
)

// StartSpan starts a new span with the given name and attributes on the
// global tracer provider. The caller is responsible for ending the span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTurnSpan starts a server-kind span for one chat turn.
func StartTurnSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "chat.turn",
		trace.WithAttributes(attribute.String(SpanAttrSession, sessionID)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartToolSpan starts a span for one calendar tool invocation.
func StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(attribute.String(SpanAttrTool, toolName)),
	)
}

// StartCalendarSpan starts a client-kind span for a Google Calendar API call.
func StartCalendarSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "calendar."+operation,
		trace.WithAttributes(attribute.String(SpanAttrOperation, operation)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan finishes a span, recording err as the span status when non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SessionAttr returns a span attribute for the chat session ID.
func SessionAttr(id string) attribute.KeyValue {
	return attribute.String(SpanAttrSession, id)
}

// ToolAttr returns a span attribute for the tool name.
func ToolAttr(tool string) attribute.KeyValue {
	return attribute.String(SpanAttrTool, tool)
}
