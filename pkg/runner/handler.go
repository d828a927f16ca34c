package runner

import (
	"context"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// Reply is one inbound line from the subject.
type Reply struct {
	Value string `json:"value"`

	// State is set when the reply is a choice made on a specific prompt (a
	// "button"). A choice from an earlier prompt is reported as stale.
	State domain.State `json:"state,omitempty"`
}

// Message is one outbound item.
type Message struct {
	// Instruction is the structured form, nil for system messages.
	Instruction *domain.Instruction `json:"instruction,omitempty"`

	// Text is the human-readable form.
	Text string `json:"text"`

	// Markdown marks text that benefits from rich rendering (plans, profile).
	Markdown bool `json:"-"`
}

// IOHandler defines the strategy for interacting with the subject.
// This allows switching between Text (CLI) and JSON (structured) modes.
type IOHandler interface {
	// Output presents a message.
	Output(ctx context.Context, msg Message) error

	// Input reads the next reply. It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (Reply, error)
}

// ContentRenderer transforms markdown before it is printed.
// This allows TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
