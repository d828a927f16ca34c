// Package cli holds the terminal session launcher shared by the commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/fitcoach"
	"github.com/aretw0/fitcoach/internal/presentation/tui"
	"github.com/aretw0/fitcoach/pkg/runner"
)

// ChatOptions configures a terminal conversation.
type ChatOptions struct {
	Subject string
	JSON    bool // NDJSON input/output, no banner
	Width   int  // Word wrap of rendered plans, 0 for the default

	In  io.Reader
	Out io.Writer
}

// RunChat talks to one subject until the input ends, /exit, or an interrupt.
func RunChat(ctx context.Context, app *fitcoach.App, opts ChatOptions) error {
	if opts.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		handlerOpts := []runner.TextHandlerOption{
			runner.WithTextHandlerInputLimit(app.Config.MaxInputSize),
		}
		if runner.IsTerminal(opts.Out) {
			tui.PrintBanner(opts.Out)
			fmt.Fprintf(opts.Out, "v%s, talking as %q\n\n", fitcoach.Version, opts.Subject)
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(opts.Width)))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, handlerOpts...)
	}

	r := runner.New(app.Dispatcher, app.Generator, opts.Subject,
		runner.WithHandler(handler),
		runner.WithLogger(app.Logger()),
	)
	return r.Run(ctx)
}
