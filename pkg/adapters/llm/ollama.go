package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is the local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3.2"

// Ollama calls a local or self-hosted Ollama server.
type Ollama struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOllama creates an Ollama provider.
func NewOllama(cfg Config) (*Ollama, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", base, err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{
		client:      api.NewClient(parsed, http.DefaultClient),
		model:       model,
		maxTokens:   cfg.maxTokens(),
		temperature: cfg.Temperature,
	}, nil
}

// Generate implements ports.Provider.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": o.temperature,
			"num_predict": o.maxTokens,
		},
	}

	var b strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API call failed: %w", err)
	}
	return b.String(), nil
}

// Name identifies the provider in logs.
func (o *Ollama) Name() string {
	return "ollama/" + o.model
}
