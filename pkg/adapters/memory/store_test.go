package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fitcoach/pkg/adapters/memory"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	s := domain.NewSession("a", domain.StateAge, time.Now())
	require.NoError(t, s.Answers.Set(domain.FieldGoal, domain.TextValue("mass")))
	require.NoError(t, store.Save(ctx, "a", s))

	// Mutating the caller's copy must not leak into the store.
	require.NoError(t, s.Answers.Set(domain.FieldGoal, domain.TextValue("health")))

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "mass", loaded.Answers.Text(domain.FieldGoal))
}
