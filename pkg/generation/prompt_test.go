package generation_test

import (
	"testing"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkoutFacts(t *testing.T) {
	var a domain.Answers
	require.NoError(t, a.Set(domain.FieldExperience, domain.TextValue("newbie")))
	require.NoError(t, a.Set(domain.FieldFrequency, domain.IntValue(2)))
	require.NoError(t, a.Set(domain.FieldInjuries, domain.TextValue("no")))
	a.Skip(domain.FieldInjuryDetails)
	require.NoError(t, a.Set(domain.FieldLocation, domain.TextValue("other")))
	require.NoError(t, a.Set(domain.FieldLocationDetails, domain.TextValue("park")))

	assert.Equal(t, []generation.Fact{
		{Name: "fitness_level", Value: "newbie"},
		{Name: "workout_frequency", Value: "2 times per week"},
		{Name: "workout_place", Value: "park"},
		{Name: "injuries", Value: "no"},
	}, generation.WorkoutFacts(a))
}

func TestMealFacts_OmitsUnsharedGender(t *testing.T) {
	var a domain.Answers
	require.NoError(t, a.Set(domain.FieldGoal, domain.TextValue("weight_loss")))
	require.NoError(t, a.Set(domain.FieldGender, domain.TextValue("skip")))
	require.NoError(t, a.Set(domain.FieldAge, domain.IntValue(50)))

	assert.Equal(t, []generation.Fact{
		{Name: "goal", Value: "weight_loss"},
		{Name: "age", Value: "50"},
	}, generation.MealFacts(a))
}

func TestDefaultPrompts_CoverEveryArtifact(t *testing.T) {
	prompts, err := generation.DefaultPrompts()
	require.NoError(t, err)
	for _, kind := range domain.ArtifactKinds() {
		p, ok := prompts[kind]
		require.True(t, ok, kind)
		text, err := p.Build(domain.Answers{})
		require.NoError(t, err)
		assert.Contains(t, text, "Markdown")
	}
}
