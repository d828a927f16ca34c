package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a subject has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotReady is returned when an artifact is requested before the questionnaire is complete.
var ErrNotReady = errors.New("questionnaire not complete")

// ValidationError is a user-correctable rejection of an answer.
// The session is left untouched and the same field is prompted again.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnknownEventError marks a stale or unmatched event, e.g. a button from an earlier prompt.
type UnknownEventError struct {
	Expected State // Step the session is at
	Got      State // Step the event was addressed to
	Reason   string
	Err      error // Optional cause, e.g. ErrNotReady
}

func (e *UnknownEventError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown event for step %q (at %q): %s", e.Got, e.Expected, e.Reason)
	}
	return fmt.Sprintf("unknown event for step %q (at %q)", e.Got, e.Expected)
}

func (e *UnknownEventError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure. The triggering event was not applied.
type PersistenceError struct {
	Op      string // load, save or delete
	Subject string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed for subject %q: %v", e.Op, e.Subject, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationCause classifies why the provider did not produce content.
type GenerationCause string

const (
	CauseTimeout       GenerationCause = "timeout"
	CauseEmptyResponse GenerationCause = "empty_response"
	CauseProviderError GenerationCause = "provider_error"
)

// GenerationError means the artifact was not produced.
type GenerationError struct {
	Artifact ArtifactKind
	Cause    GenerationCause
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation of %s failed: %s", e.Artifact, e.Cause)
	}
	return fmt.Sprintf("generation of %s failed: %s: %v", e.Artifact, e.Cause, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsTransient reports whether retrying the same request may succeed.
func IsTransient(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return true
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Cause == CauseTimeout || ge.Cause == CauseProviderError
	}
	return false
}
