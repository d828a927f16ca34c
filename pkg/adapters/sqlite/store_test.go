package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/fitcoach/pkg/adapters/sqlite"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "fitcoach.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := openStore(t)
	ports.RunSessionStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	s := domain.NewSession("u1", domain.StateWeight, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, s.Answers.Set(domain.FieldAge, domain.IntValue(44)))
	require.NoError(t, store.Save(ctx, "u1", s))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateWeight, loaded.State)
	assert.Equal(t, "44", loaded.Answers.Text(domain.FieldAge))
	assert.True(t, s.CreatedAt.Equal(loaded.CreatedAt))
}

func TestSQLiteStore_ListOrder(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new"} {
		s := domain.NewSession(id, domain.StateGoal, base)
		s.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(ctx, id, s))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)
	assert.NoError(t, store.Ping(ctx))
}
