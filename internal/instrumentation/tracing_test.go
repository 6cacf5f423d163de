package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTracingTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestStartSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	newTracingTestProvider(t, ctx)

	spanCtx, span := StartSpan(ctx, "test-span", SessionAttr("sess-1"))
	defer span.End()

	if spanCtx == nil {
		t.Error("expected context to be non-nil")
	}
	if span == nil {
		t.Error("expected span to be non-nil")
	}
}

func TestStartToolSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	newTracingTestProvider(t, ctx)

	_, span := StartToolSpan(ctx, "book_slot")
	if span == nil {
		t.Fatal("expected span to be non-nil")
	}
	EndSpan(span, nil)
}

func TestStartCalendarSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	newTracingTestProvider(t, ctx)

	_, span := StartCalendarSpan(ctx, "freebusy")
	if span == nil {
		t.Fatal("expected span to be non-nil")
	}
	EndSpan(span, errors.New("quota exceeded"))
}

func TestStartTurnSpanWithoutProvider(t *testing.T) {
	// Without a registered provider the global no-op tracer is used.
	_, span := StartTurnSpan(context.Background(), "sess-1")
	if span == nil {
		t.Fatal("expected span to be non-nil")
	}
	EndSpan(span, nil)
}

func TestAttrHelpers(t *testing.T) {
	if got := string(SessionAttr("s").Key); got != SpanAttrSession {
		t.Errorf("SessionAttr key = %q, want %q", got, SpanAttrSession)
	}
	if got := string(ToolAttr("t").Key); got != SpanAttrTool {
		t.Errorf("ToolAttr key = %q, want %q", got, SpanAttrTool)
	}
}
