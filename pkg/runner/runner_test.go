package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aretw0/fitcoach/pkg/adapters/memory"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
	"github.com/aretw0/fitcoach/pkg/runner"
	"github.com/aretw0/fitcoach/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore refuses writes while broken is set.
type brokenStore struct {
	*memory.Store
	broken atomic.Bool
}

func (s *brokenStore) Save(ctx context.Context, subject string, sess *domain.Session) error {
	if s.broken.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, subject, sess)
}

// recorder keeps every message it is given.
type recorder struct {
	msgs []runner.Message
}

func (r *recorder) Output(_ context.Context, msg runner.Message) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) Input(context.Context) (runner.Reply, error) {
	return runner.Reply{}, errors.New("recorder has no input")
}

func (r *recorder) last() runner.Message {
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) texts() string {
	var parts []string
	for _, m := range r.msgs {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

type fixture struct {
	store      *brokenStore
	dispatcher *session.Dispatcher
	generator  *generation.Orchestrator
}

func newFixture(t *testing.T, p ports.Provider) *fixture {
	t.Helper()
	graph, err := questionnaire.DefaultGraph()
	require.NoError(t, err)

	store := &brokenStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	dispatcher := session.NewDispatcher(manager, questionnaire.NewEngine(graph))
	generator, err := generation.New(manager, p)
	require.NoError(t, err)
	return &fixture{store: store, dispatcher: dispatcher, generator: generator}
}

func planProvider(reply string) ports.Provider {
	return ports.ProviderFunc(func(context.Context, string) (string, error) {
		return reply, nil
	})
}

// complete answers the whole questionnaire for subject.
func (f *fixture) complete(t *testing.T, subject string) {
	t.Helper()
	ctx := context.Background()
	for _, v := range []string{"mass", "newbie", "male", "30", "80", "3", "no", "gym"} {
		out, err := f.dispatcher.Handle(ctx, subject, domain.Answer("", v))
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeApplied, out.Result, v)
	}
}

func TestRun_ScriptedConversation(t *testing.T) {
	f := newFixture(t, planProvider("# Week 1\n\nSquats"))
	script := strings.Join([]string{
		"/start",
		"1",   // mass
		"2",   // intermediate
		"3",   // skip
		"abc", // rejected age
		"30",
		"72.5",
		"3", // frequency is free input
		"1", // no injuries
		"1", // home
		"/profile",
		"/workout",
		"/exit",
		"never read",
	}, "\n") + "\n"

	var out bytes.Buffer
	r := runner.New(f.dispatcher, f.generator, "alice",
		runner.WithHandler(runner.NewTextHandler(strings.NewReader(script), &out)),
	)
	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "(1/10) What is your main goal?")
	assert.Contains(t, text, "[2] weight_loss")
	assert.Contains(t, text, "That doesn't look right")
	assert.Contains(t, text, "All done!")
	assert.Contains(t, text, "- **Goal:** mass")
	assert.Contains(t, text, "- **Gender:** skip")
	assert.Contains(t, text, "- **Workouts per week:** 3")
	assert.NotContains(t, text, "Injury details")
	assert.Contains(t, text, "Squats")
	assert.Contains(t, text, "Want a meal plan too? Type /meal.")
	assert.Contains(t, text, "Bye!")

	s, err := f.dispatcher.Session(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, s.Complete())
	assert.Equal(t, "intermediate", s.Answers.Text(domain.FieldExperience))
	assert.Equal(t, domain.GenerationDone, s.Artifact(domain.ArtifactWorkoutPlan).Generation)
}

func TestRun_ResumesInterruptedQuestionnaire(t *testing.T) {
	f := newFixture(t, planProvider("plan"))
	_, err := f.dispatcher.Handle(context.Background(), "bob", domain.Answer("", "strength"))
	require.NoError(t, err)

	var out bytes.Buffer
	r := runner.New(f.dispatcher, f.generator, "bob",
		runner.WithHandler(runner.NewTextHandler(strings.NewReader(""), &out)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "Welcome back!")
	assert.Contains(t, out.String(), "How would you rate your training experience?")
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, planProvider("plan"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr := &blockingReader{}
	r := runner.New(f.dispatcher, f.generator, "carol",
		runner.WithHandler(runner.NewTextHandler(pr, &bytes.Buffer{})),
		runner.WithoutGreeting(),
	)
	assert.NoError(t, r.Run(ctx))
}

// blockingReader never returns.
type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestHandle_StaleButton(t *testing.T) {
	f := newFixture(t, planProvider("plan"))
	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "dave", runner.WithHandler(rec))
	ctx := context.Background()

	_, err := r.Handle(ctx, runner.Reply{Value: "/start"})
	require.NoError(t, err)
	_, err = r.Handle(ctx, runner.Reply{Value: "mass", State: domain.StateGoal})
	require.NoError(t, err)

	rec.msgs = nil
	_, err = r.Handle(ctx, runner.Reply{Value: "health", State: domain.StateGoal})
	require.NoError(t, err)
	require.Len(t, rec.msgs, 2)
	assert.Equal(t, "This button is no longer active.", rec.msgs[0].Text)
	assert.Equal(t, domain.StateExperience, rec.msgs[1].Instruction.State)
}

func TestHandle_Commands(t *testing.T) {
	f := newFixture(t, planProvider("plan"))
	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "erin", runner.WithHandler(rec))
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
		quit  bool
	}{
		{"/cancel", "There is nothing to cancel.", false},
		{"/profile", "You have no profile yet. Type /start to begin.", false},
		{"/workout", "You have no profile yet. Type /start to begin.", false},
		{"/mymealplan", "You have no profile yet. Type /start to begin.", false},
		{"/bogus", "Unknown command. Type /help for the list.", false},
		{"/start", "(1/10) What is your main goal?", false},
		{"/profile", "Please finish the questionnaire or /cancel it first.", false},
		{"/meal", "Please finish the questionnaire first. Type /start to begin.", false},
		{"/cancel", "Questionnaire cancelled. Type /start to begin again.", false},
		{"/QUIT", "Bye!", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			quit, err := r.Handle(ctx, runner.Reply{Value: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.want, rec.last().Text)
		})
	}
}

func TestHandle_StoredPlans(t *testing.T) {
	f := newFixture(t, planProvider("# Meals"))
	f.complete(t, "frank")
	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "frank", runner.WithHandler(rec))
	ctx := context.Background()

	_, err := r.Handle(ctx, runner.Reply{Value: "/mymealplan"})
	require.NoError(t, err)
	assert.Contains(t, rec.last().Text, "You have no saved meal plan yet")

	_, err = r.Handle(ctx, runner.Reply{Value: "/meal"})
	require.NoError(t, err)
	assert.Equal(t, "Want a workout plan too? Type /workout.", rec.last().Text)

	_, err = r.Handle(ctx, runner.Reply{Value: "/mymealplan"})
	require.NoError(t, err)
	assert.Equal(t, "# Meals", rec.last().Text)
	assert.True(t, rec.last().Markdown)
}

func TestHandle_PlanDeliveredWhenSaveFails(t *testing.T) {
	f := newFixture(t, planProvider("# Plan body"))
	f.complete(t, "gina")
	f.store.broken.Store(true)

	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "gina", runner.WithHandler(rec))
	_, err := r.Handle(context.Background(), runner.Reply{Value: "/workout"})
	require.NoError(t, err)

	text := rec.texts()
	assert.Contains(t, text, "# Plan body")
	assert.Contains(t, text, "could not be saved to your profile. Copy it now.")
}

func TestHandle_GenerationFailure(t *testing.T) {
	f := newFixture(t, ports.ProviderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("503 from upstream")
	}))
	f.complete(t, "hank")

	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "hank", runner.WithHandler(rec))
	_, err := r.Handle(context.Background(), runner.Reply{Value: "/workout"})
	require.NoError(t, err)

	last := rec.last()
	require.NotNil(t, last.Instruction)
	assert.Equal(t, domain.InstructGenerationError, last.Instruction.Kind)
	assert.Equal(t, "Could not generate your workout plan: the coach is unavailable. Please try again later.", last.Text)
	assert.NotContains(t, rec.texts(), "too?")
}

func TestHandle_TransientFailureOnAnswer(t *testing.T) {
	f := newFixture(t, planProvider("plan"))
	rec := &recorder{}
	r := runner.New(f.dispatcher, f.generator, "ivy", runner.WithHandler(rec))
	ctx := context.Background()

	_, err := r.Handle(ctx, runner.Reply{Value: "/start"})
	require.NoError(t, err)
	f.store.broken.Store(true)
	_, err = r.Handle(ctx, runner.Reply{Value: "mass"})
	require.NoError(t, err)
	assert.Equal(t, "Something went wrong on our side. Please try again.", rec.last().Text)

	f.store.broken.Store(false)
	_, err = r.Handle(ctx, runner.Reply{Value: "mass"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateExperience, rec.last().Instruction.State)
}
