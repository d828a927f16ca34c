package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	SubjectID string `json:"subject_id"`

	State *State `json:"state,omitempty"`

	// Answers contains only changed, added or removed fields.
	// Removed and skipped fields are present with a nil value.
	Answers map[string]any `json:"answers,omitempty"`

	// Artifacts contains artifacts whose content or statuses changed.
	Artifacts map[ArtifactKind]Artifact `json:"artifacts,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{
		SubjectID: newSession.SubjectID,
	}

	if oldSession == nil || oldSession.State != newSession.State {
		diff.State = &newSession.State
	}

	diff.Answers = diffAnswers(oldSession, newSession)
	diff.Artifacts = diffArtifacts(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *Session) map[string]any {
	newMap := new.Answers.Map()
	delta := make(map[string]any)

	if old == nil {
		for k, v := range newMap {
			delta[k] = v
		}
		return nilIfEmpty(delta)
	}

	oldMap := old.Answers.Map()
	for k, newVal := range newMap {
		oldVal, exists := oldMap[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range oldMap {
		if _, exists := newMap[k]; !exists {
			delta[k] = nil
		}
	}
	return nilIfEmpty(delta)
}

func diffArtifacts(old, new *Session) map[ArtifactKind]Artifact {
	delta := make(map[ArtifactKind]Artifact)
	for kind, a := range new.Artifacts {
		if old == nil {
			delta[kind] = a
			continue
		}
		if prev, ok := old.Artifacts[kind]; !ok || prev != a {
			delta[kind] = a
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func nilIfEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.State == nil &&
		len(d.Answers) == 0 &&
		len(d.Artifacts) == 0
}
