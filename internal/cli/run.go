package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/storefront"
	"github.com/aretw0/storefront/internal/presentation/tui"
	"github.com/aretw0/storefront/pkg/runner"
)

// ConsoleOptions contains all the configuration for the console command.
type ConsoleOptions struct {
	UserID string
	JSON   bool
	Plain  bool
	Fresh  bool

	// In and Out default to Stdin and Stdout.
	In  io.Reader
	Out io.Writer
}

// RunConsole talks to the engine over the terminal until the input ends,
// /quit is typed or the process is interrupted.
func RunConsole(ctx context.Context, app *App, opts ConsoleOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.UserID == "" {
		opts.UserID = runner.DefaultUserID
	}

	if opts.Fresh {
		if err := app.Engine.Reset(ctx, opts.UserID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithUserID(opts.UserID),
	}
	if opts.JSON {
		runnerOpts = append(runnerOpts, runner.WithHandler(runner.NewJSONHandler(opts.In, opts.Out)))
	} else {
		if !opts.Plain {
			tui.PrintBanner(opts.Out, storefront.Version)
		}
		var handlerOpts []runner.TextHandlerOption
		if !opts.Plain {
			if render, err := tui.NewRenderer(); err == nil {
				handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(render))
			} else {
				app.Logger.Warn("markdown renderer unavailable", "err", err)
			}
		}
		runnerOpts = append(runnerOpts,
			runner.WithHandler(runner.NewTextHandler(opts.In, opts.Out, handlerOpts...)),
			runner.WithStartCommand(true),
		)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	runErr := runner.New(app.Engine, runnerOpts...).Run(sigCtx)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	if !opts.JSON {
		logCompletion(opts.Out, opts.UserID, runErr, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}
