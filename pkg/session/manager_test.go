package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/aretw0/fitcoach/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex

	failSave error // when set, Save returns it
	saves    int
}

func (s *SlowStore) Save(ctx context.Context, subject string, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave != nil {
		return s.failSave
	}
	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[subject] = sess.Clone()
	s.saves++
	return nil
}

func (s *SlowStore) Load(ctx context.Context, subject string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[subject]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, subject)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *SlowStore) setFailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewSession(id, domain.StateGoal, time.Now())))

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Read-Modify-Write without locking would lose updates.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				s, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				s.History = append(s.History, domain.StateGoal)
				return store.Save(ctx, id, s)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.History, 1+concurrentWrites)
}

func TestManager_ArrivalOrder(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "fifo", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = manager.WithLock(ctx, "fifo", func(context.Context) error {
				mu.Lock()
				order = append(order, n)
				mu.Unlock()
				return nil
			})
		}(i)
		// Let each waiter enqueue before the next one arrives.
		time.Sleep(5 * time.Millisecond)
	}

	close(release)
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManager_SubjectsAreIndependent(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "a", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "b", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subject b waited on subject a")
	}
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	ttl      time.Duration
	released int
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "x", domain.NewSession("x", domain.StateGoal, time.Now())))
	assert.Equal(t, []string{"x"}, locker.keys)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, locker.released)

	locker.err = errors.New("redis down")
	ran := false
	err := manager.WithLock(ctx, "x", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorContains(t, err, "redis down")
	assert.False(t, ran)
}
