package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
)

// Runner drives one console conversation until the input ends or ctx is canceled.
type Runner struct {
	Engine    ports.EventHandler
	Handler   IOHandler
	UserID    string
	Logger    *slog.Logger
	AutoStart bool

	buttons [][]domain.Button
}

// New creates a Runner over engine. Without options it reads stdin and writes
// plain text to stdout as the "console" user.
func New(engine ports.EventHandler, opts ...Option) *Runner {
	r := &Runner{
		Engine: engine,
		UserID: DefaultUserID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run executes the loop. io.EOF and context cancellation end it without error.
func (r *Runner) Run(ctx context.Context) error {
	if r.AutoStart {
		if err := r.step(ctx, domain.Command(domain.CommandStart)); err != nil {
			return err
		}
	}
	for {
		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		line, err = SanitizeInput(line)
		if err != nil {
			r.Logger.Warn("input rejected", "user_id", r.UserID, "err", err)
			if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
				return err
			}
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if err := r.step(ctx, ParseLine(line, r.buttons)); err != nil {
			return err
		}
	}
}

func (r *Runner) step(ctx context.Context, ev domain.Event) error {
	reply, err := r.Engine.HandleEvent(ctx, r.UserID, ev)
	if err != nil {
		return err
	}
	if reply.NoOp {
		r.Logger.Debug("no reply", "user_id", r.UserID, "kind", string(ev.Kind))
		return nil
	}
	r.buttons = reply.Buttons
	return r.Handler.Output(ctx, reply)
}
