package logging

import (
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyComponent = "component"
	KeyOperation = "operation"
	KeySession   = "session"
	KeyTool      = "tool"
	KeyModel     = "model"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithComponent returns a logger with the component attribute set.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String(KeyComponent, component))
}

// WithSession returns a logger with the session attribute set.
func WithSession(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With(slog.String(KeySession, sessionID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Session returns a slog attribute for the session ID.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Model returns a slog attribute for the model name.
func Model(model string) slog.Attr {
	return slog.String(KeyModel, model)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
