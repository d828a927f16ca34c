package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash-lite"

// Gemini calls the Google Gemini API.
type Gemini struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float32

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGemini creates a Gemini provider. The SDK client is created on first use.
func NewGemini(cfg Config) *Gemini {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   cfg.maxTokens(),
		temperature: cfg.Temperature,
	}
}

func (g *Gemini) init(ctx context.Context) error {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.err
}

// Generate implements ports.Provider.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.maxTokens), //nolint:gosec // bounded by config validation
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	if result == nil {
		return "", errors.New("empty response from Gemini API")
	}
	return result.Text(), nil
}

// Name identifies the provider in logs.
func (g *Gemini) Name() string {
	return "gemini/" + g.model
}
