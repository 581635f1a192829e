package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithOperation returns a logger with routing context fields attached.
// Use this for all logging within a fallback execution.
func WithOperation(operation, requestID string) *slog.Logger {
	return slog.With(
		"operation", operation,
		"request_id", requestID,
	)
}

// WithProvider returns a logger scoped to a specific provider attempt.
func WithProvider(logger *slog.Logger, provider string, attempt int) *slog.Logger {
	return logger.With(
		"provider", provider,
		"attempt", attempt,
	)
}
