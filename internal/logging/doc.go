// Package logging provides structured logging utilities for the zara assistant.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithComponent(slog.Default(), "server")
//	logger.Info("message handled",
//	    logging.Session(sessionID),
//	    logging.Status(logging.StatusSuccess))
//
// OAuth tokens and API keys are never logged directly; use SanitizeToken when
// a token needs to appear in diagnostics.
package logging
