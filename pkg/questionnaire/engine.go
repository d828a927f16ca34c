package questionnaire

import (
	"time"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/schema"
)

// Engine is the pure transition function of the questionnaire.
// It never touches storage; durability belongs to the caller.
type Engine struct {
	graph      *Graph
	now        func() time.Time
	inputLimit int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used to stamp new sessions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithInputLimit sets the maximum raw answer size in bytes.
func WithInputLimit(n int) EngineOption {
	return func(e *Engine) {
		e.inputLimit = n
	}
}

// NewEngine creates an engine over an audited graph.
func NewEngine(graph *Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph: graph,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the table the engine runs on.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Start returns a fresh session at the initial state.
func (e *Engine) Start(subject string) *domain.Session {
	return domain.NewSession(subject, e.graph.Initial, e.now().UTC())
}

// Apply validates an answer for the session's current step and returns the
// advanced session. The input session is never modified.
//
// Errors are *domain.UnknownEventError for events that do not address the
// current step and *domain.ValidationError for rejected input.
func (e *Engine) Apply(s *domain.Session, ev domain.Event) (*domain.Session, error) {
	if ev.Kind != domain.EventAnswer {
		return nil, &domain.UnknownEventError{Expected: s.State, Got: ev.State, Reason: "not an answer"}
	}
	if s.Complete() {
		return nil, &domain.UnknownEventError{Expected: s.State, Got: ev.State, Reason: "questionnaire already complete"}
	}
	if ev.State != "" && ev.State != s.State {
		return nil, &domain.UnknownEventError{Expected: s.State, Got: ev.State, Reason: "stale prompt"}
	}

	step, ok := e.graph.Step(s.State)
	if !ok {
		return nil, &domain.UnknownEventError{Expected: s.State, Got: ev.State, Reason: "state is not part of the questionnaire"}
	}

	v, err := schema.CheckLimit(step.Field, step.Type(), ev.Value, e.inputLimit)
	if err != nil {
		return nil, err
	}

	next := s.Clone()
	if err := next.Answers.Set(step.Field, v); err != nil {
		return nil, &domain.ValidationError{Field: step.Field, Reason: err.Error()}
	}

	target, skip := step.Resolve(v)
	for _, f := range skip {
		next.Answers.Skip(f)
	}
	next.State = target
	next.History = append(next.History, target)

	return next, nil
}

// Prompt returns the instruction a transport should deliver for a state.
func (e *Engine) Prompt(state domain.State) domain.Instruction {
	if state == domain.StateComplete {
		return domain.Instruction{Kind: domain.InstructComplete, State: state}
	}
	step, ok := e.graph.Step(state)
	if !ok {
		return domain.Instruction{Kind: domain.InstructUnknownEvent, State: state}
	}
	return domain.Instruction{
		Kind:    domain.InstructPrompt,
		State:   step.State,
		Field:   step.Field,
		Prompt:  step.Prompt,
		Options: step.Options(),
	}
}
