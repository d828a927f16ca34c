package llm

import (
	"fmt"
	"strings"

	"github.com/aretw0/fitcoach/pkg/ports"
)

// DefaultMaxTokens bounds the reply length.
const DefaultMaxTokens = 2048

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderStatic    = "static"
)

// Config selects and configures one provider.
type Config struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

// Named is implemented by providers that can describe themselves.
type Named interface {
	Name() string
}

// New builds the provider described by cfg.
func New(cfg Config) (ports.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", ProviderGemini)
		}
		return NewGemini(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", ProviderOpenAI)
		}
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider requires an API key", ProviderAnthropic)
		}
		return NewAnthropic(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg)
	case ProviderStatic:
		return NewStatic(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewChain builds every configured provider and tries them in order.
func NewChain(cfgs []Config, opts ...FallbackOption) (ports.Provider, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no provider configured")
	}
	providers := make([]ports.Provider, 0, len(cfgs))
	for _, c := range cfgs {
		p, err := New(c)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return NewFallback(providers, opts...), nil
}
