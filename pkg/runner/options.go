package runner

import "log/slog"

// DefaultUserID identifies the console user when none is configured.
const DefaultUserID = "console"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithUserID sets the conversation identity of the console user.
func WithUserID(id string) Option {
	return func(r *Runner) {
		r.UserID = id
	}
}

// WithHandler configures a custom IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithStartCommand sends /start before reading any input.
func WithStartCommand(send bool) Option {
	return func(r *Runner) {
		r.AutoStart = send
	}
}
