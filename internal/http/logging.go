package http

import (
	"context"
	"log/slog"

	"github.com/example/autoplanner/internal/logging"
)

// eventLogger returns the request-scoped logger annotated for an EventHandler
// operation. The principal and the event id from the path are attached when
// the middleware resolved them.
func eventLogger(ctx context.Context, fallback *slog.Logger, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"handler", "EventHandler", "operation", operation}
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		attrs = append(attrs, "principal_id", principal.UserID)
	}
	if id, ok := EventIDFromContext(ctx); ok && id != "" {
		attrs = append(attrs, "event_id", id)
	}
	return logger.With(attrs...)
}
