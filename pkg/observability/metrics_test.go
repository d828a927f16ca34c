package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()
	hooks.OnStep(ctx, &domain.StepEvent{Kind: domain.EventAnswer, From: domain.StateGoal, To: domain.StateExperience, Outcome: domain.OutcomeApplied})
	hooks.OnStep(ctx, &domain.StepEvent{Kind: domain.EventAnswer, From: domain.StateLocation, To: domain.StateComplete, Outcome: domain.OutcomeApplied})
	hooks.OnStep(ctx, &domain.StepEvent{Kind: domain.EventAnswer, From: domain.StateAge, To: domain.StateAge, Outcome: domain.OutcomeRejected})
	hooks.OnGeneration(ctx, &domain.GenerationEvent{
		Artifact:     domain.ArtifactMealPlan,
		Generation:   domain.GenerationDone,
		Persist:      domain.PersistFailed,
		Attempts:     2,
		PromptTokens: 120,
	})

	expected := `
# HELP fitcoach_events_total Inbound events by kind and outcome
# TYPE fitcoach_events_total counter
fitcoach_events_total{kind="answer",outcome="applied"} 2
fitcoach_events_total{kind="answer",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitcoach_events_total"))

	expected = `
# HELP fitcoach_questionnaires_completed_total Questionnaires that reached the final step
# TYPE fitcoach_questionnaires_completed_total counter
fitcoach_questionnaires_completed_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitcoach_questionnaires_completed_total"))

	expected = `
# HELP fitcoach_generations_total Artifact requests by kind, generation status, persist status and cause
# TYPE fitcoach_generations_total counter
fitcoach_generations_total{artifact="meal_plan",cause="",generation_status="generated",persist_status="persist_failed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitcoach_generations_total"))

	expected = `
# HELP fitcoach_prompt_tokens_total Prompt tokens sent to the provider
# TYPE fitcoach_prompt_tokens_total counter
fitcoach_prompt_tokens_total{artifact="meal_plan"} 120
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitcoach_prompt_tokens_total"))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	first.Hooks().OnStep(context.Background(), &domain.StepEvent{Kind: domain.EventStart, Outcome: domain.OutcomeStarted})
	second.Hooks().OnStep(context.Background(), &domain.StepEvent{Kind: domain.EventStart, Outcome: domain.OutcomeStarted})

	n, err := testutil.GatherAndCount(reg, "fitcoach_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	hooks := observability.LogHooks(logger)
	hooks.OnStep(context.Background(), &domain.StepEvent{Subject: "u1", Kind: domain.EventCancel, Outcome: domain.OutcomeCancelled})
	hooks.OnGeneration(context.Background(), &domain.GenerationEvent{
		Subject:    "u1",
		Artifact:   domain.ArtifactWorkoutPlan,
		Generation: domain.GenerationFailed,
		Persist:    domain.NotPersisted,
		Cause:      domain.CauseTimeout,
	})

	out := buf.String()
	assert.Contains(t, out, "msg=step")
	assert.Contains(t, out, "outcome=cancelled")
	assert.Contains(t, out, "level=WARN msg=generation")
	assert.Contains(t, out, "cause=timeout")
}
