package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one audit line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step",
				"subject", e.Subject,
				"kind", e.Kind,
				"from", e.From,
				"to", e.To,
				"outcome", e.Outcome,
				"duration", e.Duration,
			)
		},
		OnGeneration: func(ctx context.Context, e *domain.GenerationEvent) {
			level := slog.LevelInfo
			if e.Generation != domain.GenerationDone || e.Persist != domain.Persisted {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "generation",
				"subject", e.Subject,
				"request_id", e.RequestID,
				"artifact", e.Artifact,
				"generation_status", e.Generation,
				"persist_status", e.Persist,
				"cause", e.Cause,
				"attempts", e.Attempts,
				"prompt_tokens", e.PromptTokens,
				"duration", e.Duration,
			)
		},
	}
}
