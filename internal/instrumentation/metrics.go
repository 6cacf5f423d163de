package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrModel     = "model"
	attrTool      = "tool"
	attrOperation = "operation"
	attrStatus    = "status"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics.
// All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Chat metrics
	messagesTotal   metric.Int64Counter
	messageDuration metric.Float64Histogram
	activeSessions  metric.Int64UpDownCounter

	// Model metrics
	modelCallsTotal   metric.Int64Counter
	modelCallDuration metric.Float64Histogram

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Calendar API metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthAuthTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.messagesTotal, err = meter.Int64Counter(
		"chat_messages_total",
		metric.WithDescription("Total number of chat messages handled"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat_messages_total counter: %w", err)
	}

	m.messageDuration, err = meter.Float64Histogram(
		"chat_message_duration_seconds",
		metric.WithDescription("End-to-end chat message handling duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat_message_duration_seconds histogram: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active chat sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	m.modelCallsTotal, err = meter.Int64Counter(
		"model_calls_total",
		metric.WithDescription("Total number of language model calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_calls_total counter: %w", err)
	}

	m.modelCallDuration, err = meter.Float64Histogram(
		"model_call_duration_seconds",
		metric.WithDescription("Language model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_call_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of calendar tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Calendar tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_api_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_api_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operation_duration_seconds histogram: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	return m, nil
}

// RecordMessage records one handled chat message with its status and
// end-to-end duration.
func (m *Metrics) RecordMessage(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.messagesTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.messagesTotal.Add(ctx, 1, attrs)
	m.messageDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordModelCall records one language model call.
func (m *Metrics) RecordModelCall(ctx context.Context, model, status string, duration time.Duration) {
	if m == nil || m.modelCallsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	)
	m.modelCallsTotal.Add(ctx, 1, attrs)
	m.modelCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records one calendar tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarOperation records one Google Calendar API operation.
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthAuth records an OAuth authentication attempt.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}
	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// IncrementActiveSessions increments the active session gauge.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active session gauge.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
