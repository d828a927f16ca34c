package domain

// EventKind categorizes inbound events.
type EventKind string

const (
	EventStart    EventKind = "start"    // Begin, or replace an existing session
	EventAnswer   EventKind = "answer"   // Answer for a questionnaire step
	EventCancel   EventKind = "cancel"   // Discard the in-progress session
	EventGenerate EventKind = "generate" // Produce an artifact
)

// Event is an inbound message from a transport.
type Event struct {
	Kind EventKind `json:"kind" mapstructure:"kind"`

	// State is the step the answer was prompted for. Empty means "the current step".
	// A mismatch with the session's step marks the event as stale.
	State State `json:"state,omitempty" mapstructure:"state"`

	Value    string       `json:"value,omitempty" mapstructure:"value"`
	Artifact ArtifactKind `json:"artifact,omitempty" mapstructure:"artifact"`
}

// Answer builds an answer event addressed to a specific step.
func Answer(state State, value string) Event {
	return Event{Kind: EventAnswer, State: state, Value: value}
}

// InstructionKind categorizes outbound instructions.
type InstructionKind string

const (
	InstructPrompt           InstructionKind = "prompt_for"
	InstructValidationError  InstructionKind = "report_validation_error"
	InstructComplete         InstructionKind = "report_complete"
	InstructDeliverArtifact  InstructionKind = "deliver_artifact"
	InstructGenerationError  InstructionKind = "report_generation_error"
	InstructUnknownEvent     InstructionKind = "report_unknown_event"
	InstructTransientFailure InstructionKind = "report_transient_failure"
	InstructCancelled        InstructionKind = "report_cancelled"
	InstructNoSession        InstructionKind = "report_no_session"
)

// Instruction tells a transport what to deliver to the subject.
type Instruction struct {
	Kind    InstructionKind `json:"kind"`
	State   State           `json:"state,omitempty"`
	Field   Field           `json:"field,omitempty"`
	Prompt  string          `json:"prompt,omitempty"`
	Options []string        `json:"options,omitempty"`
	Reason  string          `json:"reason,omitempty"`

	Artifact      ArtifactKind    `json:"artifact,omitempty"`
	Content       string          `json:"content,omitempty"`
	PersistStatus PersistStatus   `json:"persist_status,omitempty"`
	Cause         GenerationCause `json:"cause,omitempty"`
}
