package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
)

// Outcome is the result of one dispatched event.
type Outcome struct {
	// Instructions for the transport, in delivery order.
	Instructions []domain.Instruction

	// Session is the stored session after the event, nil when there is none.
	Session *domain.Session

	// Diff holds what the event changed. Nil when nothing was applied.
	Diff *domain.SessionDiff

	Result domain.StepOutcome
}

// Dispatcher serializes inbound events per subject and persists after every
// applied step.
type Dispatcher struct {
	manager *Manager
	engine  *questionnaire.Engine
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	now     func() time.Time
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) DispatcherOption {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithDispatcherClock overrides the clock used for UpdatedAt.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher over a manager and an engine.
func NewDispatcher(manager *Manager, engine *questionnaire.Engine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		manager: manager,
		engine:  engine,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the questionnaire engine.
func (d *Dispatcher) Engine() *questionnaire.Engine {
	return d.engine
}

// Manager returns the session manager.
func (d *Dispatcher) Manager() *Manager {
	return d.manager
}

// Handle processes one event for a subject.
//
// Validation failures and stale events are reported through the Outcome and
// never returned as errors. A *domain.PersistenceError means the event was
// not applied and the subject may resend it.
func (d *Dispatcher) Handle(ctx context.Context, subject string, ev domain.Event) (Outcome, error) {
	start := d.now()
	var (
		out  Outcome
		from domain.State
	)

	err := d.manager.WithLock(ctx, subject, func(ctx context.Context) error {
		current, err := d.manager.store.Load(ctx, subject)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			current = nil
		case err != nil:
			return &domain.PersistenceError{Op: "load", Subject: subject, Err: err}
		}
		if current != nil {
			from = current.State
			out.Session = current
		}

		switch ev.Kind {
		case domain.EventStart:
			return d.start(ctx, subject, current, &out)
		case domain.EventCancel:
			return d.cancel(ctx, subject, current, &out)
		case domain.EventAnswer:
			return d.answer(ctx, subject, current, ev, &out)
		default:
			d.unknown(current, &domain.UnknownEventError{Expected: from, Got: ev.State, Reason: "unsupported event " + string(ev.Kind)}, &out)
			return nil
		}
	})

	if err != nil {
		var pe *domain.PersistenceError
		if !errors.As(err, &pe) {
			err = &domain.PersistenceError{Op: "lock", Subject: subject, Err: err}
		}
		out.Instructions = []domain.Instruction{{Kind: domain.InstructTransientFailure, State: from, Reason: err.Error()}}
		out.Diff = nil
		out.Result = domain.OutcomePersistFailed
		d.logger.Warn("Event not applied",
			"subject", subject,
			"kind", ev.Kind,
			"state", from,
			"err", err,
		)
	}

	if d.hooks.OnStep != nil {
		to := from
		if out.Session != nil {
			to = out.Session.State
		}
		d.hooks.OnStep(ctx, &domain.StepEvent{
			Timestamp: start,
			Subject:   subject,
			Kind:      ev.Kind,
			From:      from,
			To:        to,
			Outcome:   out.Result,
			Duration:  d.now().Sub(start),
		})
	}

	return out, err
}

func (d *Dispatcher) start(ctx context.Context, subject string, current *domain.Session, out *Outcome) error {
	fresh := d.engine.Start(subject)
	fresh.UpdatedAt = d.now().UTC()
	if err := d.manager.store.Save(ctx, subject, fresh); err != nil {
		return &domain.PersistenceError{Op: "save", Subject: subject, Err: err}
	}

	d.logger.Info("Session started", "subject", subject, "restart", current != nil)
	out.Session = fresh
	out.Diff = domain.Diff(current, fresh)
	out.Result = domain.OutcomeStarted
	out.Instructions = []domain.Instruction{d.engine.Prompt(fresh.State)}
	return nil
}

func (d *Dispatcher) cancel(ctx context.Context, subject string, current *domain.Session, out *Outcome) error {
	if current == nil {
		out.Result = domain.OutcomeNoSession
		out.Instructions = []domain.Instruction{{Kind: domain.InstructNoSession}}
		return nil
	}
	if err := d.manager.store.Delete(ctx, subject); err != nil {
		return &domain.PersistenceError{Op: "delete", Subject: subject, Err: err}
	}

	d.logger.Info("Session cancelled", "subject", subject, "state", current.State)
	out.Session = nil
	out.Result = domain.OutcomeCancelled
	out.Instructions = []domain.Instruction{{Kind: domain.InstructCancelled, State: current.State}}
	return nil
}

func (d *Dispatcher) answer(ctx context.Context, subject string, current *domain.Session, ev domain.Event, out *Outcome) error {
	if current == nil {
		if ev.State != "" && ev.State != d.engine.Graph().Initial {
			out.Result = domain.OutcomeNoSession
			out.Instructions = []domain.Instruction{{Kind: domain.InstructNoSession, State: ev.State}}
			return nil
		}
		current = d.engine.Start(subject)
	}

	next, err := d.engine.Apply(current, ev)
	var (
		ve *domain.ValidationError
		ue *domain.UnknownEventError
	)
	switch {
	case errors.As(err, &ve):
		d.logger.Debug("Answer rejected", "subject", subject, "field", ve.Field, "err", ve)
		out.Result = domain.OutcomeRejected
		out.Instructions = []domain.Instruction{
			{Kind: domain.InstructValidationError, State: current.State, Field: ve.Field, Reason: ve.Reason},
			d.engine.Prompt(current.State),
		}
		return nil
	case errors.As(err, &ue):
		d.unknown(current, ue, out)
		return nil
	case err != nil:
		return err
	}

	next.UpdatedAt = d.now().UTC()
	if err := d.manager.store.Save(ctx, subject, next); err != nil {
		return &domain.PersistenceError{Op: "save", Subject: subject, Err: err}
	}

	d.logger.Debug("Answer applied",
		"subject", subject,
		"from", current.State,
		"state", next.State,
	)
	out.Diff = domain.Diff(out.Session, next)
	out.Session = next
	out.Result = domain.OutcomeApplied
	out.Instructions = []domain.Instruction{d.engine.Prompt(next.State)}
	return nil
}

func (d *Dispatcher) unknown(current *domain.Session, ue *domain.UnknownEventError, out *Outcome) {
	out.Result = domain.OutcomeUnknown
	out.Instructions = []domain.Instruction{{Kind: domain.InstructUnknownEvent, State: ue.Got, Reason: ue.Reason}}
	if current != nil {
		out.Instructions = append(out.Instructions, d.engine.Prompt(current.State))
	}
}

// Session reads the subject's session under its exclusive section.
// It returns domain.ErrSessionNotFound when there is none.
func (d *Dispatcher) Session(ctx context.Context, subject string) (*domain.Session, error) {
	s, err := d.manager.Load(ctx, subject)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, &domain.PersistenceError{Op: "load", Subject: subject, Err: err}
	}
	return s, err
}

// Resume returns the instruction that continues the subject's questionnaire,
// e.g. after a restart of the process.
func (d *Dispatcher) Resume(ctx context.Context, subject string) (domain.Instruction, error) {
	s, err := d.Session(ctx, subject)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Instruction{Kind: domain.InstructNoSession}, nil
	}
	if err != nil {
		return domain.Instruction{Kind: domain.InstructTransientFailure, Reason: err.Error()}, err
	}
	return d.engine.Prompt(s.State), nil
}

// WithSubject runs fn inside the subject's exclusive section.
func (d *Dispatcher) WithSubject(ctx context.Context, subject string, fn func(context.Context) error) error {
	return d.manager.WithLock(ctx, subject, fn)
}
