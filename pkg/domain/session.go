package domain

import "time"

// State is a node of the questionnaire graph.
type State string

const (
	StateGoal            State = "goal"
	StateExperience      State = "experience"
	StateGender          State = "gender"
	StateAge             State = "age"
	StateWeight          State = "weight"
	StateFrequency       State = "frequency"
	StateInjuries        State = "injuries"
	StateInjuryDetails   State = "injury_details"
	StateLocation        State = "location"
	StateLocationDetails State = "location_details"
	StateComplete        State = "complete" // Sink state
)

// Session is the durable progress record of one subject.
type Session struct {
	SubjectID string                    `json:"subject_id"`
	State     State                     `json:"state"`
	Answers   Answers                   `json:"answers"`
	Artifacts map[ArtifactKind]Artifact `json:"artifacts,omitempty"`

	// History is the path taken through the graph, oldest first.
	History []State `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted record when an encrypting store wraps the backend.
	// Only SubjectID, State and the timestamps stay readable next to it.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates a clean session positioned at the start state.
func NewSession(subjectID string, start State, now time.Time) *Session {
	return &Session{
		SubjectID: subjectID,
		State:     start,
		Artifacts: make(map[ArtifactKind]Artifact),
		History:   []State{start},
		CreatedAt: now,
	}
}

// Complete reports whether the questionnaire has reached its sink state.
func (s *Session) Complete() bool {
	return s.State == StateComplete
}

// Artifact returns the artifact of the given kind, or an empty one
// (generation "none", "not_persisted") when it was never requested.
func (s *Session) Artifact(kind ArtifactKind) Artifact {
	if a, ok := s.Artifacts[kind]; ok {
		return a
	}
	return Artifact{
		Kind:       kind,
		Generation: GenerationNone,
		Persist:    NotPersisted,
	}
}

// SetArtifact replaces the artifact of its kind entirely.
func (s *Session) SetArtifact(a Artifact) {
	if s.Artifacts == nil {
		s.Artifacts = make(map[ArtifactKind]Artifact)
	}
	s.Artifacts[a.Kind] = a
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = s.Answers.Clone()
	out.Artifacts = make(map[ArtifactKind]Artifact, len(s.Artifacts))
	for k, v := range s.Artifacts {
		out.Artifacts[k] = v
	}
	if s.History != nil {
		out.History = append([]State(nil), s.History...)
	}
	if s.Sealed != nil {
		out.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &out
}
