package questionnaire_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *questionnaire.Engine {
	t.Helper()
	graph, err := questionnaire.DefaultGraph()
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return questionnaire.NewEngine(graph, questionnaire.WithClock(func() time.Time { return fixed }))
}

// answerAll feeds values to the current step in order.
func answerAll(t *testing.T, e *questionnaire.Engine, s *domain.Session, values ...string) *domain.Session {
	t.Helper()
	for _, v := range values {
		next, err := e.Apply(s, domain.Answer(s.State, v))
		require.NoError(t, err, "answer %q at %s", v, s.State)
		s = next
	}
	return s
}

func TestEngine_HappyPath_NoInjuries_FixedLocation(t *testing.T) {
	e := newEngine(t)
	s := e.Start("alice")
	assert.Equal(t, domain.StateGoal, s.State)

	s = answerAll(t, e, s, "strength", "intermediate", "female", "30", "62.5", "3", "no", "gym")

	assert.Equal(t, domain.StateComplete, s.State)
	assert.Equal(t, []domain.Field{
		domain.FieldGoal, domain.FieldExperience, domain.FieldGender, domain.FieldAge,
		domain.FieldWeight, domain.FieldFrequency, domain.FieldInjuries, domain.FieldLocation,
	}, s.Answers.Present())
	assert.Nil(t, s.Answers.InjuryDetails)
	assert.True(t, s.Answers.Skipped(domain.FieldInjuryDetails))
	assert.Nil(t, s.Answers.LocationDetails)
	assert.True(t, s.Answers.Skipped(domain.FieldLocationDetails))
	assert.NotContains(t, s.History, domain.StateInjuryDetails)
	assert.NoError(t, e.Graph().Consistent(s))
}

func TestEngine_InjuriesNo_SkipsDirectlyToLocation(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("bob"), "mass", "newbie", "male", "25", "80", "4")
	require.Equal(t, domain.StateInjuries, s.State)

	s = answerAll(t, e, s, "no")
	assert.Equal(t, domain.StateLocation, s.State)

	s = answerAll(t, e, s, "gym")
	assert.Equal(t, domain.StateComplete, s.State)
	assert.Nil(t, s.Answers.InjuryDetails)
}

func TestEngine_InjuriesYes_CollectsDetails(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("carol"), "health", "advanced", "skip", "52", "70", "5", "yes")
	require.Equal(t, domain.StateInjuryDetails, s.State)

	s = answerAll(t, e, s, "  old knee injury  ", "home")
	assert.Equal(t, domain.StateComplete, s.State)
	require.NotNil(t, s.Answers.InjuryDetails)
	assert.Equal(t, "old knee injury", *s.Answers.InjuryDetails)
	assert.False(t, s.Answers.Skipped(domain.FieldInjuryDetails))
}

func TestEngine_OversizedDetails_AreTruncated(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("carol"), "health", "advanced", "skip", "52", "70", "5", "yes")
	require.Equal(t, domain.StateInjuryDetails, s.State)

	s = answerAll(t, e, s, strings.Repeat("knee ", 1000))
	assert.Equal(t, domain.StateLocation, s.State)
	require.NotNil(t, s.Answers.InjuryDetails)
	assert.Equal(t, 500, utf8.RuneCountInString(*s.Answers.InjuryDetails))
	assert.True(t, strings.HasPrefix(*s.Answers.InjuryDetails, "knee knee"))
}

func TestEngine_OversizedNumber_IsRejected(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("erin"), "mass", "newbie", "female")

	_, err := e.Apply(s, domain.Answer(domain.StateAge, strings.Repeat("9", 5000)))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.FieldAge, ve.Field)
}

func TestEngine_LocationOther_RequiresOneMoreEvent(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("dan"), "weight_loss", "newbie", "male", "41", "101.2", "2", "no", "other")
	assert.Equal(t, domain.StateLocationDetails, s.State)

	s = answerAll(t, e, s, "park with pull-up bars")
	assert.Equal(t, domain.StateComplete, s.State)
	assert.Equal(t, "park with pull-up bars", s.Answers.Text(domain.FieldLocationDetails))
	assert.NoError(t, e.Graph().Consistent(s))
}

func TestEngine_InvalidInput_LeavesSessionUnchanged(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("erin"), "mass", "newbie", "female")
	require.Equal(t, domain.StateAge, s.State)
	before := s.Clone()

	_, err := e.Apply(s, domain.Answer(domain.StateAge, "abc"))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.FieldAge, ve.Field)
	assert.Equal(t, before, s, "a rejected answer must not mutate the session")
	assert.Equal(t, domain.FieldAge, e.Prompt(s.State).Field, "same field is prompted again")

	s = answerAll(t, e, s, "30")
	assert.Equal(t, domain.StateWeight, s.State)
	assert.Equal(t, "30", s.Answers.Text(domain.FieldAge))
}

func TestEngine_OutOfRange(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("fay"), "mass", "newbie", "female", "30")

	_, err := e.Apply(s, domain.Answer(domain.StateWeight, "0"))
	assert.ErrorAs(t, err, new(*domain.ValidationError))

	_, err = e.Apply(s, domain.Answer(domain.StateWeight, "301"))
	assert.ErrorAs(t, err, new(*domain.ValidationError))
}

func TestEngine_StaleEvent_IsUnknown(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("gus"), "mass", "newbie")
	before := s.Clone()

	// A button from the goal prompt pressed again.
	_, err := e.Apply(s, domain.Answer(domain.StateGoal, "strength"))

	var ue *domain.UnknownEventError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, domain.StateGender, ue.Expected)
	assert.Equal(t, domain.StateGoal, ue.Got)
	assert.Equal(t, before, s)
}

func TestEngine_AnswerAfterComplete_IsUnknown(t *testing.T) {
	e := newEngine(t)
	s := answerAll(t, e, e.Start("hal"), "mass", "newbie", "male", "30", "80", "3", "no", "gym")

	_, err := e.Apply(s, domain.Answer("", "again"))
	assert.ErrorAs(t, err, new(*domain.UnknownEventError))
}

func TestEngine_UnaddressedAnswerTargetsCurrentStep(t *testing.T) {
	e := newEngine(t)
	s, err := e.Apply(e.Start("ivy"), domain.Event{Kind: domain.EventAnswer, Value: "health"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateExperience, s.State)
}

func TestEngine_Prompt(t *testing.T) {
	e := newEngine(t)

	p := e.Prompt(domain.StateLocation)
	assert.Equal(t, domain.InstructPrompt, p.Kind)
	assert.Equal(t, domain.FieldLocation, p.Field)
	assert.Equal(t, []string{"home", "gym", "outdoor", "other"}, p.Options)
	assert.NotEmpty(t, p.Prompt)

	assert.Equal(t, domain.InstructComplete, e.Prompt(domain.StateComplete).Kind)
	assert.Empty(t, e.Prompt(domain.StateAge).Options)
}

func TestEngine_ChangedAnswerRebranches(t *testing.T) {
	// Restarting replaces the session, so a "yes" path followed by a restart
	// and a "no" path never keeps stale details.
	e := newEngine(t)
	first := answerAll(t, e, e.Start("jo"), "mass", "newbie", "male", "30", "80", "3", "yes", "shoulder")
	require.Equal(t, "shoulder", first.Answers.Text(domain.FieldInjuryDetails))

	second := answerAll(t, e, e.Start("jo"), "mass", "newbie", "male", "30", "80", "3", "no")
	assert.Nil(t, second.Answers.InjuryDetails)
}
