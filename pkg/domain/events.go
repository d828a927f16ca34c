package domain

import (
	"context"
	"time"
)

// StepOutcome describes what happened to an inbound event.
type StepOutcome string

const (
	OutcomeApplied       StepOutcome = "applied"
	OutcomeRejected      StepOutcome = "rejected"       // Validation failure
	OutcomeUnknown       StepOutcome = "unknown"        // Stale or unmatched event
	OutcomePersistFailed StepOutcome = "persist_failed" // Event not applied
	OutcomeStarted       StepOutcome = "started"
	OutcomeCancelled     StepOutcome = "cancelled"
	OutcomeNoSession     StepOutcome = "no_session"
)

// StepEvent is emitted once per processed inbound event.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Subject   string        `json:"subject"`
	Kind      EventKind     `json:"kind"`
	From      State         `json:"from,omitempty"`
	To        State         `json:"to,omitempty"`
	Outcome   StepOutcome   `json:"outcome"`
	Duration  time.Duration `json:"duration"`
}

// GenerationEvent is emitted once per artifact request.
type GenerationEvent struct {
	Timestamp    time.Time        `json:"timestamp"`
	Subject      string           `json:"subject"`
	RequestID    string           `json:"request_id"`
	Artifact     ArtifactKind     `json:"artifact"`
	Generation   GenerationStatus `json:"generation_status"`
	Persist      PersistStatus    `json:"persist_status"`
	Cause        GenerationCause  `json:"cause,omitempty"`
	Attempts     int              `json:"attempts"`
	PromptTokens int              `json:"prompt_tokens"`
	Duration     time.Duration    `json:"duration"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnStep       func(context.Context, *StepEvent)
	OnGeneration func(context.Context, *GenerationEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStep: func(ctx context.Context, e *StepEvent) {
			if h.OnStep != nil {
				h.OnStep(ctx, e)
			}
			if other.OnStep != nil {
				other.OnStep(ctx, e)
			}
		},
		OnGeneration: func(ctx context.Context, e *GenerationEvent) {
			if h.OnGeneration != nil {
				h.OnGeneration(ctx, e)
			}
			if other.OnGeneration != nil {
				other.OnGeneration(ctx, e)
			}
		},
	}
}
