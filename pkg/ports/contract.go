package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	subject := "contract-test-subject-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := contractSession(subject)

		err := store.Save(ctx, subject, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, subject)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.State, loaded.State)
		assert.Equal(t, session.Answers, loaded.Answers)
		assert.Equal(t, session.Artifacts, loaded.Artifacts)
		assert.True(t, loaded.Answers.Skipped(domain.FieldInjuryDetails), "skip marks must survive storage")
	})

	t.Run("Save Is Idempotent", func(t *testing.T) {
		session := contractSession(subject)

		require.NoError(t, store.Save(ctx, subject, session))
		first, err := store.Load(ctx, subject)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, subject, session))
		second, err := store.Load(ctx, subject)
		require.NoError(t, err)

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		assert.JSONEq(t, string(a), string(b))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := contractSession(subject)
		require.NoError(t, store.Save(ctx, subject, session))

		replaced := domain.NewSession(subject, domain.StateGoal, session.CreatedAt)
		require.NoError(t, store.Save(ctx, subject, replaced))

		loaded, err := store.Load(ctx, subject)
		require.NoError(t, err)
		assert.Equal(t, domain.StateGoal, loaded.State)
		assert.Empty(t, loaded.Answers.Present())
		assert.Empty(t, loaded.Artifacts)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+subject)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, subject, contractSession(subject))
		require.NoError(t, err)

		err = store.Delete(ctx, subject)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, subject)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, subject), "Deleting a missing session should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := subject + "-1"
		id2 := subject + "-2"
		_ = store.Save(ctx, id1, contractSession(id1))
		_ = store.Save(ctx, id2, contractSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		subjects, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, subjects, id1)
		assert.Contains(t, subjects, id2)
	})
}

func contractSession(subject string) *domain.Session {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := domain.NewSession(subject, domain.StateLocation, created)
	s.UpdatedAt = created.Add(time.Minute)
	_ = s.Answers.Set(domain.FieldGoal, domain.TextValue("strength"))
	_ = s.Answers.Set(domain.FieldAge, domain.IntValue(34))
	_ = s.Answers.Set(domain.FieldWeight, domain.FloatValue(81.5))
	_ = s.Answers.Set(domain.FieldInjuries, domain.TextValue("no"))
	s.Answers.Skip(domain.FieldInjuryDetails)
	s.History = append(s.History, domain.StateLocation)
	s.Artifacts[domain.ArtifactMealPlan] = domain.Artifact{
		Kind:       domain.ArtifactMealPlan,
		Generation: domain.GenerationFailed,
		Persist:    domain.NotPersisted,
		Cause:      domain.CauseTimeout,
	}
	return s
}
