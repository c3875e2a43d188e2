package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/storefront/pkg/domain"
)

// LoggingHooks logs every transition at info and every failure at error.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"user_id", e.UserID,
				"event", e.Intent,
				"state", string(e.From),
				"next_state", string(e.To),
				"duration", e.Duration,
			)
		},
		OnFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.ErrorContext(ctx, "event failed",
				"user_id", e.UserID,
				"event", e.Intent,
				"state", string(e.State),
				"err", e.Error,
			)
		},
	}
}
