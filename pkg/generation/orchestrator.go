package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

// Sessions gives the orchestrator exclusive access to a subject's session.
// *session.Manager implements it.
type Sessions interface {
	WithLock(ctx context.Context, subject string, fn func(context.Context) error) error
	Store() ports.SessionStore
}

// Report describes one artifact request. Generation and persistence are
// reported separately: Content is set whenever generation succeeded, even if
// the artifact could not be stored.
type Report struct {
	RequestID    string
	Artifact     domain.ArtifactKind
	Content      string
	Generation   domain.GenerationStatus
	Persist      domain.PersistStatus
	Cause        domain.GenerationCause
	Attempts     int
	PromptTokens int

	// PersistErr is the store failure behind Persist == persist_failed.
	PersistErr error
}

// Instruction converts the report into what a transport delivers.
func (r Report) Instruction() domain.Instruction {
	if r.Generation != domain.GenerationDone {
		return domain.Instruction{
			Kind:     domain.InstructGenerationError,
			Artifact: r.Artifact,
			Cause:    r.Cause,
		}
	}
	return domain.Instruction{
		Kind:          domain.InstructDeliverArtifact,
		Artifact:      r.Artifact,
		Content:       r.Content,
		PersistStatus: r.Persist,
	}
}

// Orchestrator produces artifacts for completed questionnaires.
type Orchestrator struct {
	sessions   Sessions
	provider   ports.Provider
	prompts    map[domain.ArtifactKind]PromptBuilder
	counter    *TokenCounter
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	now        func() time.Time
	newID      func() string
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each provider attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetries sets how many times a failed attempt is repeated. Zero means one attempt.
func WithRetries(n int, delay time.Duration) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.retries = n
		}
		o.retryDelay = delay
	}
}

// WithPrompt overrides the prompt builder of one artifact kind.
func WithPrompt(kind domain.ArtifactKind, b PromptBuilder) Option {
	return func(o *Orchestrator) {
		o.prompts[kind] = b
	}
}

// WithTokenCounter enables prompt token accounting.
func WithTokenCounter(c *TokenCounter) Option {
	return func(o *Orchestrator) {
		o.counter = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRequestIDs overrides the request ID source.
func WithRequestIDs(next func() string) Option {
	return func(o *Orchestrator) {
		o.newID = next
	}
}

// New creates an orchestrator. The embedded prompts are used unless overridden.
func New(sessions Sessions, provider ports.Provider, opts ...Option) (*Orchestrator, error) {
	prompts, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		sessions: sessions,
		provider: provider,
		prompts:  prompts,
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Generate produces an artifact for the subject and stores it.
//
// Errors:
//   - domain.ErrSessionNotFound when the subject never started.
//   - *domain.UnknownEventError wrapping domain.ErrNotReady before completion.
//   - *domain.GenerationError when no content was produced.
//
// A store failure after a successful generation is not an error: the report
// carries the content with Persist == persist_failed.
func (o *Orchestrator) Generate(ctx context.Context, subject string, kind domain.ArtifactKind) (Report, error) {
	start := o.now()
	report := Report{
		RequestID:  o.newID(),
		Artifact:   kind,
		Generation: domain.GenerationNone,
		Persist:    domain.NotPersisted,
	}

	if !kind.Valid() {
		return report, &domain.UnknownEventError{Reason: fmt.Sprintf("unknown artifact %q", kind)}
	}
	builder, ok := o.prompts[kind]
	if !ok {
		return report, &domain.UnknownEventError{Reason: fmt.Sprintf("no prompt for artifact %q", kind)}
	}

	var genErr error
	err := o.sessions.WithLock(ctx, subject, func(ctx context.Context) error {
		store := o.sessions.Store()
		s, err := store.Load(ctx, subject)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		if err != nil {
			return &domain.PersistenceError{Op: "load", Subject: subject, Err: err}
		}
		if !s.Complete() {
			return &domain.UnknownEventError{
				Expected: s.State,
				Got:      domain.StateComplete,
				Reason:   domain.ErrNotReady.Error(),
				Err:      domain.ErrNotReady,
			}
		}

		prompt, err := builder.Build(s.Answers)
		if err != nil {
			genErr = &domain.GenerationError{Artifact: kind, Cause: domain.CauseProviderError, Err: err}
		} else {
			report.PromptTokens = o.counter.Count(prompt)
			var content string
			content, report.Attempts, genErr = o.call(ctx, kind, prompt)
			report.Content = content
		}

		next := s.Clone()
		if genErr != nil {
			var ge *domain.GenerationError
			errors.As(genErr, &ge)
			report.Generation = domain.GenerationFailed
			report.Cause = ge.Cause
			report.Content = ""
			if prev := s.Artifact(kind); prev.Generation == domain.GenerationDone && prev.Content != "" {
				// A stored plan outlives a failed regeneration.
				o.logger.Debug("Keeping previously generated artifact",
					"subject", subject,
					"artifact", kind,
					"request_id", prev.RequestID,
				)
				return nil
			}
			next.SetArtifact(domain.Artifact{
				Kind:       kind,
				Generation: domain.GenerationFailed,
				Persist:    domain.NotPersisted,
				Cause:      ge.Cause,
				RequestID:  report.RequestID,
			})
			next.UpdatedAt = o.now().UTC()
			if err := store.Save(ctx, subject, next); err != nil {
				o.logger.Warn("Failed to record generation failure",
					"subject", subject,
					"artifact", kind,
					"err", err,
				)
			}
			return nil
		}

		report.Generation = domain.GenerationDone
		next.SetArtifact(domain.Artifact{
			Kind:        kind,
			Content:     report.Content,
			Generation:  domain.GenerationDone,
			Persist:     domain.Persisted,
			RequestID:   report.RequestID,
			GeneratedAt: o.now().UTC(),
		})
		next.UpdatedAt = o.now().UTC()
		if err := store.Save(ctx, subject, next); err != nil {
			report.Persist = domain.PersistFailed
			report.PersistErr = &domain.PersistenceError{Op: "save", Subject: subject, Err: err}
			o.logger.Warn("Generated artifact could not be stored",
				"subject", subject,
				"artifact", kind,
				"request_id", report.RequestID,
				"err", err,
			)
			return nil
		}
		report.Persist = domain.Persisted
		return nil
	})

	if err == nil {
		err = genErr
	} else if !isDomainError(err) {
		err = &domain.PersistenceError{Op: "lock", Subject: subject, Err: err}
	}

	o.emit(ctx, subject, report, start)
	if err != nil {
		o.logger.Info("Artifact not generated",
			"subject", subject,
			"artifact", kind,
			"request_id", report.RequestID,
			"err", err,
		)
		return report, err
	}
	o.logger.Info("Artifact generated",
		"subject", subject,
		"artifact", kind,
		"request_id", report.RequestID,
		"persist_status", report.Persist,
		"attempts", report.Attempts,
		"duration", o.now().Sub(start),
	)
	return report, nil
}

// call runs the provider with a per-attempt timeout and the retry budget.
func (o *Orchestrator) call(ctx context.Context, kind domain.ArtifactKind, prompt string) (string, int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 && o.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", attempts, classify(kind, ctx.Err())
			case <-time.After(o.retryDelay):
			}
		}
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		text, err := o.provider.Generate(attemptCtx, prompt)
		if err == nil && attemptCtx.Err() != nil {
			err = attemptCtx.Err()
		}
		cancel()

		if err == nil {
			if strings.TrimSpace(text) == "" {
				lastErr = &domain.GenerationError{Artifact: kind, Cause: domain.CauseEmptyResponse}
			} else {
				return text, attempts, nil
			}
		} else {
			lastErr = classify(kind, err)
		}

		o.logger.Debug("Provider attempt failed",
			"artifact", kind,
			"attempt", attempts,
			"err", lastErr,
		)
		if ctx.Err() != nil {
			break
		}
	}
	return "", attempts, lastErr
}

func classify(kind domain.ArtifactKind, err error) error {
	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	cause := domain.CauseProviderError
	if errors.Is(err, context.DeadlineExceeded) {
		cause = domain.CauseTimeout
	}
	return &domain.GenerationError{Artifact: kind, Cause: cause, Err: err}
}

func isDomainError(err error) bool {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return true
	}
	var (
		ue *domain.UnknownEventError
		pe *domain.PersistenceError
	)
	return errors.As(err, &ue) || errors.As(err, &pe)
}

func (o *Orchestrator) emit(ctx context.Context, subject string, r Report, start time.Time) {
	if o.hooks.OnGeneration == nil {
		return
	}
	o.hooks.OnGeneration(ctx, &domain.GenerationEvent{
		Timestamp:    start,
		Subject:      subject,
		RequestID:    r.RequestID,
		Artifact:     r.Artifact,
		Generation:   r.Generation,
		Persist:      r.Persist,
		Cause:        r.Cause,
		Attempts:     r.Attempts,
		PromptTokens: r.PromptTokens,
		Duration:     o.now().Sub(start),
	})
}

// Artifact returns the stored artifact of a kind.
func (o *Orchestrator) Artifact(ctx context.Context, subject string, kind domain.ArtifactKind) (domain.Artifact, error) {
	var a domain.Artifact
	err := o.sessions.WithLock(ctx, subject, func(ctx context.Context) error {
		s, err := o.sessions.Store().Load(ctx, subject)
		if err != nil {
			return err
		}
		a = s.Artifact(kind)
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return a, &domain.PersistenceError{Op: "load", Subject: subject, Err: err}
	}
	return a, err
}
