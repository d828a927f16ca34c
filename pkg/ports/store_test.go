package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
)

// MockStore is an in-memory SessionStore that round-trips through JSON
// to simulate serialization.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (m *MockStore) Save(ctx context.Context, subject string, session *domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[subject] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, subject string) (*domain.Session, error) {
	m.mu.Lock()
	raw, ok := m.data[subject]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockStore) Delete(ctx context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, subject)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestProviderFunc(t *testing.T) {
	var p ports.Provider = ports.ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})

	out, err := p.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "echo: hi" {
		t.Errorf("got %q", out)
	}
}
