package ports

import (
	"context"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// SessionStore defines the interface for persisting questionnaire sessions.
// It is the sole authority on persisted progress.
//
// Implementations need no per-subject locking (the dispatcher serializes a
// subject's events) but Save must be atomic: either the full session becomes
// visible to the next Load or the stored record is unchanged.
type SessionStore interface {
	// Save upserts the session for a subject.
	Save(ctx context.Context, subject string, session *domain.Session) error

	// Load retrieves the session for a subject.
	// Returns domain.ErrSessionNotFound if the subject never started.
	Load(ctx context.Context, subject string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, subject string) error

	// List returns the subjects with a stored session.
	List(ctx context.Context) ([]string, error)
}
