package domain

import "time"

// ArtifactKind identifies a generated deliverable.
type ArtifactKind string

const (
	ArtifactWorkoutPlan ArtifactKind = "workout_plan"
	ArtifactMealPlan    ArtifactKind = "meal_plan"
)

// ArtifactKinds lists the deliverables that can be requested.
func ArtifactKinds() []ArtifactKind {
	return []ArtifactKind{ArtifactWorkoutPlan, ArtifactMealPlan}
}

// Valid reports whether k is a known artifact kind.
func (k ArtifactKind) Valid() bool {
	return k == ArtifactWorkoutPlan || k == ArtifactMealPlan
}

// GenerationStatus tracks whether the provider produced content.
type GenerationStatus string

const (
	GenerationNone   GenerationStatus = "none"
	GenerationDone   GenerationStatus = "generated"
	GenerationFailed GenerationStatus = "generation_failed"
)

// PersistStatus tracks whether the artifact reached the store.
type PersistStatus string

const (
	NotPersisted  PersistStatus = "not_persisted"
	Persisted     PersistStatus = "persisted"
	PersistFailed PersistStatus = "persist_failed"
)

// Artifact is a generated text derived from a completed answer set.
// Generation and Persist are always set together on every (re)generation.
type Artifact struct {
	Kind        ArtifactKind     `json:"kind"`
	Content     string           `json:"content,omitempty"`
	Generation  GenerationStatus `json:"generation_status"`
	Persist     PersistStatus    `json:"persist_status"`
	Cause       GenerationCause  `json:"cause,omitempty"`
	RequestID   string           `json:"request_id,omitempty"`
	GeneratedAt time.Time        `json:"generated_at,omitzero"`
}
