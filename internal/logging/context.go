package logging

import (
	"context"
	"log/slog"

	"streambot/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies a navigation session by its message ID.
	FieldSessionID = "session_id"
	// FieldMessageID is the key for chat message identifiers other than the session.
	FieldMessageID = "message_id"
	// FieldChannelID is the key for chat channel identifiers.
	FieldChannelID = "channel_id"
	// FieldUserID is the key for chat user identifiers.
	FieldUserID = "user_id"
	// FieldEmoji is the key for reaction emoji.
	FieldEmoji = "emoji"
	FieldView  = "view"
	// FieldVideoID is the key for catalog video identifiers.
	FieldVideoID = "video_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags a log line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if id, ok := services.ChannelIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldChannelID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
