package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/ports"
)

// Mask replaces a masked text answer.
const Mask = "***"

// DefaultPIIPatterns match the answers that describe the subject's body and health.
var DefaultPIIPatterns = []string{"^gender$", "^age$", "^weight$", "_details$"}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers whose field names
// match the patterns. Masking happens on Load, so the wrapped store is a
// read-only view for inspection and export. Save passes through untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns, err := compile(patternStrings)
	if err != nil {
		return nil, err
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, subject string, s *domain.Session) error {
	return m.next.Save(ctx, subject, s)
}

func (m *piiMiddleware) Load(ctx context.Context, subject string) (*domain.Session, error) {
	s, err := m.next.Load(ctx, subject)
	if err != nil {
		return nil, err
	}
	return maskSession(s, m.patterns), nil
}

func (m *piiMiddleware) Delete(ctx context.Context, subject string) error {
	return m.next.Delete(ctx, subject)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// MaskSession returns a copy of s with matching answers masked.
func MaskSession(s *domain.Session, patternStrings []string) (*domain.Session, error) {
	patterns, err := compile(patternStrings)
	if err != nil {
		return nil, err
	}
	return maskSession(s, patterns), nil
}

// Helpers

func compile(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return patterns, nil
}

// maskSession works on a clone so the caller's session is never modified.
// Text answers become Mask; numeric answers are cleared since they can't hold it.
func maskSession(s *domain.Session, patterns []*regexp.Regexp) *domain.Session {
	out := s.Clone()
	for _, f := range out.Answers.Present() {
		for _, p := range patterns {
			if !p.MatchString(string(f)) {
				continue
			}
			if f.Kind() == domain.KindText {
				_ = out.Answers.Set(f, domain.TextValue(Mask))
			} else {
				out.Answers.Clear(f)
			}
			break
		}
	}
	return out
}
