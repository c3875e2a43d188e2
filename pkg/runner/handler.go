package runner

import (
	"context"

	"github.com/aretw0/storefront/pkg/domain"
)

// IOHandler defines how the console talks to the user.
// This allows switching between Text (interactive) and JSON (scripted) modes.
type IOHandler interface {
	// Output presents a reply.
	Output(ctx context.Context, reply domain.Reply) error

	// Input reads one line. It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, hints) distinct from replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms reply text before printing it (e.g. markdown to ANSI).
type ContentRenderer func(string) (string, error)
