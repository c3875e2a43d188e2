package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle notification.
type HookType string

const (
	HookTransition HookType = "transition"
	HookFailure    HookType = "failure"
	HookIgnored    HookType = "ignored"
)

// HookBase contains common fields for all lifecycle notifications.
type HookBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      HookType  `json:"type"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id,omitempty"`
}

// TransitionEvent is emitted after a transition has been persisted.
type TransitionEvent struct {
	HookBase
	Intent   string        `json:"intent"`
	From     State         `json:"from"`
	To       State         `json:"to"`
	Duration time.Duration `json:"duration"`
}

// FailureEvent is emitted when a collaborator or the store fails and the
// transition is aborted.
type FailureEvent struct {
	HookBase
	Intent string `json:"intent"`
	State  State  `json:"state"`
	Err    error  `json:"-"`
	Error  string `json:"error"`
}

// IgnoredEvent is emitted when an event is absorbed without a transition
// (malformed token, out-of-place tap, duplicate delivery).
type IgnoredEvent struct {
	HookBase
	State  State  `json:"state"`
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnFailure    func(context.Context, *FailureEvent)
	OnIgnored    func(context.Context, *IgnoredEvent)
}

// ChainHooks merges several hook sets into one that calls each in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnTransition != nil {
			prev := out.OnTransition
			out.OnTransition = func(ctx context.Context, e *TransitionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTransition(ctx, e)
			}
		}
		if h.OnFailure != nil {
			prev := out.OnFailure
			out.OnFailure = func(ctx context.Context, e *FailureEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnFailure(ctx, e)
			}
		}
		if h.OnIgnored != nil {
			prev := out.OnIgnored
			out.OnIgnored = func(ctx context.Context, e *IgnoredEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnIgnored(ctx, e)
			}
		}
	}
	return out
}
