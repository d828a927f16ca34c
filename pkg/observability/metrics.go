package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	completions  prometheus.Counter
	generations  *prometheus.CounterVec
	genDuration  *prometheus.HistogramVec
	genAttempts  prometheus.Histogram
	promptTokens *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Collectors already registered by an earlier instance are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitcoach_events_total",
				Help: "Inbound events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fitcoach_event_duration_seconds",
				Help:    "Time to process an inbound event, lock wait included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		completions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fitcoach_questionnaires_completed_total",
				Help: "Questionnaires that reached the final step",
			},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitcoach_generations_total",
				Help: "Artifact requests by kind, generation status, persist status and cause",
			},
			[]string{"artifact", "generation_status", "persist_status", "cause"},
		),
		genDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fitcoach_generation_duration_seconds",
				Help:    "Duration of artifact requests",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"artifact"},
		),
		genAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fitcoach_generation_attempts",
				Help:    "Provider attempts per artifact request",
				Buckets: []float64{1, 2, 3, 5, 8},
			},
		),
		promptTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitcoach_prompt_tokens_total",
				Help: "Prompt tokens sent to the provider",
			},
			[]string{"artifact"},
		),
	}

	var err error
	if m.steps, err = register(reg, m.steps); err != nil {
		return nil, err
	}
	if m.stepDuration, err = register(reg, m.stepDuration); err != nil {
		return nil, err
	}
	if m.completions, err = register(reg, m.completions); err != nil {
		return nil, err
	}
	if m.generations, err = register(reg, m.generations); err != nil {
		return nil, err
	}
	if m.genDuration, err = register(reg, m.genDuration); err != nil {
		return nil, err
	}
	if m.genAttempts, err = register(reg, m.genAttempts); err != nil {
		return nil, err
	}
	if m.promptTokens, err = register(reg, m.promptTokens); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register metric: %w", err)
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep:       m.observeStep,
		OnGeneration: m.observeGeneration,
	}
}

func (m *Metrics) observeStep(_ context.Context, e *domain.StepEvent) {
	m.steps.WithLabelValues(string(e.Kind), string(e.Outcome)).Inc()
	m.stepDuration.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
	if e.Outcome == domain.OutcomeApplied && e.To == domain.StateComplete && e.From != domain.StateComplete {
		m.completions.Inc()
	}
}

func (m *Metrics) observeGeneration(_ context.Context, e *domain.GenerationEvent) {
	m.generations.WithLabelValues(
		string(e.Artifact),
		string(e.Generation),
		string(e.Persist),
		string(e.Cause),
	).Inc()
	m.genDuration.WithLabelValues(string(e.Artifact)).Observe(e.Duration.Seconds())
	if e.Attempts > 0 {
		m.genAttempts.Observe(float64(e.Attempts))
	}
	if e.PromptTokens > 0 {
		m.promptTokens.WithLabelValues(string(e.Artifact)).Add(float64(e.PromptTokens))
	}
}
