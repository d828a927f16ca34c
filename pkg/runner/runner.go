package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/session"
)

// Runner is the conversation loop of one subject.
type Runner struct {
	dispatcher *session.Dispatcher
	generator  *generation.Orchestrator
	subject    string
	handler    IOHandler
	logger     *slog.Logger
	quiet      bool
}

// New creates a Runner for subject.
func New(dispatcher *session.Dispatcher, generator *generation.Orchestrator, subject string, opts ...Option) *Runner {
	r := &Runner{
		dispatcher: dispatcher,
		generator:  generator,
		subject:    subject,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run greets the subject and processes replies until the input ends, the
// subject exits or ctx is cancelled. Only IO failures are returned.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.greet(ctx); err != nil {
		return err
	}

	for {
		reply, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.logger.Debug("Conversation ended", "subject", r.subject, "err", err)
				return nil
			}
			return err
		}

		quit, err := r.Handle(ctx, reply)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (r *Runner) greet(ctx context.Context) error {
	if r.quiet {
		return nil
	}
	ins, err := r.dispatcher.Resume(ctx, r.subject)
	if err != nil {
		r.logger.Warn("Failed to resume session", "subject", r.subject, "err", err)
		return r.say(ctx, msgWelcome)
	}
	switch ins.Kind {
	case domain.InstructPrompt, domain.InstructComplete:
		if err := r.say(ctx, msgWelcomeBack); err != nil {
			return err
		}
		return r.deliver(ctx, ins)
	default:
		return r.say(ctx, msgWelcome)
	}
}

// Handle processes one reply. It reports whether the subject asked to leave.
func (r *Runner) Handle(ctx context.Context, reply Reply) (bool, error) {
	text := strings.TrimSpace(reply.Value)
	if reply.State == "" && strings.HasPrefix(text, "/") {
		return r.command(ctx, text)
	}

	out, _ := r.dispatcher.Handle(ctx, r.subject, domain.Answer(reply.State, text))
	return false, r.deliverAll(ctx, out.Instructions)
}

func (r *Runner) say(ctx context.Context, text string) error {
	return r.handler.Output(ctx, Message{Text: text})
}

func (r *Runner) deliver(ctx context.Context, ins domain.Instruction) error {
	return r.handler.Output(ctx, Describe(r.dispatcher.Engine().Graph(), ins))
}

func (r *Runner) deliverAll(ctx context.Context, instructions []domain.Instruction) error {
	for _, ins := range instructions {
		if err := r.deliver(ctx, ins); err != nil {
			return err
		}
	}
	return nil
}
