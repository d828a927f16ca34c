package llm

import (
	"context"
	"fmt"
)

// Static returns a fixed reply that echoes the prompt size.
// It keeps the service usable offline and in demos.
type Static struct {
	reply string
}

// NewStatic creates a Static provider. An empty reply uses a generic plan.
func NewStatic(reply string) *Static {
	return &Static{reply: reply}
}

// Generate implements ports.Provider.
func (s *Static) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.reply != "" {
		return s.reply, nil
	}
	return fmt.Sprintf("# Plan\n\nThis is an offline placeholder generated for a %d character request.\n", len(prompt)), nil
}

// Name identifies the provider in logs.
func (s *Static) Name() string {
	return ProviderStatic
}
