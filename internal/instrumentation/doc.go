// Package instrumentation provides OpenTelemetry metrics and tracing for the
// zara assistant.
//
// The Provider wires a meter provider (prometheus, otlp or stdout exporter)
// and a tracer provider (otlp, stdout or none), configured via environment
// variables (see DefaultConfig). Metrics offers typed recording methods for
// the domain's operations: chat messages, model calls, tool invocations and
// calendar API operations. All recording methods are safe on a nil receiver
// so call sites need no instrumentation-enabled checks.
package instrumentation
