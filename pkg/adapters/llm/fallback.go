package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/ports"
)

// Fallback tries providers in order until one returns text.
type Fallback struct {
	providers []ports.Provider
	logger    *slog.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithLogger sets the logger used to report skipped providers.
func WithLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.logger = logger
	}
}

// NewFallback creates a provider chain.
func NewFallback(providers []ports.Provider, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		providers: providers,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Generate implements ports.Provider. An empty reply counts as a failure
// unless it comes from the last provider.
func (f *Fallback) Generate(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for i, p := range f.providers {
		text, err := p.Generate(ctx, prompt)
		if err == nil && (strings.TrimSpace(text) != "" || i == len(f.providers)-1) {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		errs = append(errs, fmt.Errorf("%s: %w", name(p, i), err))

		if ctx.Err() != nil {
			break // the deadline covers the whole chain
		}
		if i < len(f.providers)-1 {
			f.logger.Warn("Provider failed, trying fallback",
				"provider", name(p, i),
				"next", name(f.providers[i+1], i+1),
				"err", err,
			)
		}
	}
	return "", errors.Join(errs...)
}

func name(p ports.Provider, i int) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("provider[%d]", i)
}
