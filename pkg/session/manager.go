package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry is the exclusive section of one subject.
// Waiters are served in arrival order.
type lockEntry struct {
	held    bool
	waiters []chan struct{}
	refs    int // holder + waiters
}

// Manager orchestrates session access, ensuring that work for one subject never interleaves.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire blocks until the caller owns the subject's section or ctx is done.
// On success the caller MUST call release(subject).
func (m *Manager) acquire(ctx context.Context, subject string) error {
	m.mu.Lock()
	entry, exists := m.locks[subject]
	if !exists {
		entry = &lockEntry{}
		m.locks[subject] = entry
	}
	entry.refs++
	if !entry.held {
		entry.held = true
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	entry.waiters = append(entry.waiters, ch)
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-ch:
		// Ownership was handed over while we gave up; pass it on.
		handoff(entry)
	default:
		for i, w := range entry.waiters {
			if w == ch {
				entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
				break
			}
		}
	}
	m.unref(subject, entry)
	return ctx.Err()
}

// release hands the section to the oldest waiter and drops the caller's reference.
func (m *Manager) release(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[subject]
	if !exists {
		return // Should not happen if paired correctly
	}
	handoff(entry)
	m.unref(subject, entry)
}

// unref deletes the entry once nobody holds or waits for it. Caller holds m.mu.
func (m *Manager) unref(subject string, entry *lockEntry) {
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, subject)
	}
}

// handoff wakes the oldest waiter, or frees the entry. Caller holds m.mu.
func handoff(entry *lockEntry) {
	if len(entry.waiters) == 0 {
		entry.held = false
		return
	}
	next := entry.waiters[0]
	entry.waiters = entry.waiters[1:]
	close(next)
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, subject string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, subject, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, subject)
		return err
	})
	return s, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, subject string, s *domain.Session) error {
	return m.WithLock(ctx, subject, func(ctx context.Context) error {
		return m.store.Save(ctx, subject, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, subject string) error {
	return m.WithLock(ctx, subject, func(ctx context.Context) error {
		return m.store.Delete(ctx, subject)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
// Callers must only use it inside WithLock for writes.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the exclusive section for the subject.
// Calls for the same subject run one at a time, in arrival order.
func (m *Manager) WithLock(ctx context.Context, subject string, fn func(context.Context) error) error {
	if err := m.acquire(ctx, subject); err != nil {
		return fmt.Errorf("waiting for subject %q: %w", subject, err)
	}
	defer m.release(subject)

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, subject, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"subject", subject,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
