package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

// Router is the entry point for reaction events.
type Router struct {
	registry  *Registry
	transport transport.Transport
	allow     func(userID string) bool
	logger    *slog.Logger
}

// NewRouter builds a router over registry. allow decides which users may
// drive sessions; nil lets everyone through.
func NewRouter(registry *Registry, tr transport.Transport, allow func(userID string) bool, logger *slog.Logger) *Router {
	return &Router{
		registry:  registry,
		transport: tr,
		allow:     allow,
		logger:    logging.NewComponentLogger(logger, "router"),
	}
}

// HandleReaction dispatches event to its session. Events from the bot itself
// and from users allow rejects are dropped untouched; events for unknown
// messages return ErrStaleSession. The
// triggering reaction is removed afterwards whatever the handler did,
// including panicking. Handler errors are logged here and also returned.
func (r *Router) HandleReaction(ctx context.Context, event transport.ReactionEvent) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if event.UserID == "" || event.UserID == r.transport.SelfID() {
		return nil
	}
	if r.allow != nil && !r.allow(event.UserID) {
		r.logger.Debug("reaction from unauthorized user ignored",
			logging.String(logging.FieldUserID, event.UserID),
			logging.String(logging.FieldMessageID, event.MessageID),
		)
		return nil
	}

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithSessionID(ctx, event.MessageID)
	ctx = services.WithChannelID(ctx, event.ChannelID)
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldUserID, event.UserID),
		logging.String(logging.FieldEmoji, event.Emoji),
	)

	session, release, ok := r.registry.Acquire(event.MessageID)
	if !ok {
		logger.Debug("reaction on message without session ignored")
		return ErrStaleSession
	}
	defer release()
	defer r.removeReaction(ctx, logger, event)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("session handler panic: %v", rec)
			logging.ErrorWithContext(logger, "session handler panicked", "nav_handler_panic",
				logging.String(logging.FieldErrorHint, "report this with the log excerpt"),
				logging.Any("panic", rec),
			)
		}
	}()

	err = session.Handler.Handle(ctx, event)
	r.report(logger, err)
	return err
}

func (r *Router) report(logger *slog.Logger, err error) {
	switch {
	case err == nil:
	case isQuiet(err):
		logger.Debug("navigation ended without a selection", logging.Error(err))
	case errors.Is(err, ErrStaleItem):
		logger.Info("selected item no longer in catalog", logging.Error(err))
	default:
		logging.WarnWithContext(logger, "navigation action failed", "nav_action_failed",
			logging.String(logging.FieldImpact, "reaction had no effect"),
			logging.String(logging.FieldErrorHint, "check transport connectivity and catalog health"),
			logging.Error(err),
		)
	}
}

func (r *Router) removeReaction(ctx context.Context, logger *slog.Logger, event transport.ReactionEvent) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug("reaction cleanup panicked", logging.Any("panic", rec))
		}
	}()
	if err := r.transport.RemoveReaction(cleanupCtx, event.ChannelID, event.MessageID, event.Emoji, event.UserID); err != nil {
		logger.Debug("reaction cleanup failed", logging.Error(err))
	}
}
