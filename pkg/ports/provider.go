package ports

import "context"

// Provider turns a prompt into generated text.
// The call must honor the context deadline; callers bound it with a timeout.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f ProviderFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
