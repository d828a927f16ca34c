package generation

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/aretw0/fitcoach/pkg/domain"
)

//go:embed prompts/*.tpl.md
var promptFS embed.FS

// PromptBuilder turns questionnaire answers into provider-ready text.
type PromptBuilder interface {
	Build(answers domain.Answers) (string, error)
}

// PromptFunc adapts a function to PromptBuilder.
type PromptFunc func(domain.Answers) (string, error)

// Build calls f.
func (f PromptFunc) Build(answers domain.Answers) (string, error) {
	return f(answers)
}

// Fact is one "name: value" line of a prompt.
type Fact struct {
	Name  string
	Value string
}

// PromptData is what a prompt template renders.
type PromptData struct {
	Facts []Fact
}

// TemplatePrompt renders a text/template against facts extracted from the answers.
type TemplatePrompt struct {
	tmpl  *template.Template
	facts func(domain.Answers) []Fact
}

// NewTemplatePrompt parses src and pairs it with a fact extractor.
func NewTemplatePrompt(name, src string, facts func(domain.Answers) []Fact) (*TemplatePrompt, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
	}
	return &TemplatePrompt{tmpl: tmpl, facts: facts}, nil
}

// Build renders the prompt.
func (p *TemplatePrompt) Build(answers domain.Answers) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, PromptData{Facts: p.facts(answers)}); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", p.tmpl.Name(), err)
	}
	return buf.String(), nil
}

// WorkoutFacts maps answers to the facts a workout plan needs.
func WorkoutFacts(a domain.Answers) []Fact {
	var facts []Fact
	add := func(name, value string) {
		if value != "" {
			facts = append(facts, Fact{Name: name, Value: value})
		}
	}

	add("fitness_level", a.Text(domain.FieldExperience))
	if a.Has(domain.FieldFrequency) {
		add("workout_frequency", a.Text(domain.FieldFrequency)+" times per week")
	}

	place := a.Text(domain.FieldLocation)
	if details := a.Text(domain.FieldLocationDetails); details != "" {
		place = details
	}
	add("workout_place", place)

	injuries := a.Text(domain.FieldInjuries)
	if details := a.Text(domain.FieldInjuryDetails); injuries == "yes" && details != "" {
		injuries = details
	}
	add("injuries", injuries)
	return facts
}

// MealFacts maps answers to the facts a meal plan needs.
func MealFacts(a domain.Answers) []Fact {
	var facts []Fact
	add := func(name, value string) {
		if value != "" {
			facts = append(facts, Fact{Name: name, Value: value})
		}
	}

	add("goal", a.Text(domain.FieldGoal))
	if a.Has(domain.FieldWeight) {
		add("weight", a.Text(domain.FieldWeight)+" kg")
	}
	if g := a.Text(domain.FieldGender); g != "skip" {
		add("gender", g)
	}
	add("age", a.Text(domain.FieldAge))
	return facts
}

// DefaultPrompts returns the embedded builders for every artifact kind.
func DefaultPrompts() (map[domain.ArtifactKind]PromptBuilder, error) {
	extractors := map[domain.ArtifactKind]func(domain.Answers) []Fact{
		domain.ArtifactWorkoutPlan: WorkoutFacts,
		domain.ArtifactMealPlan:    MealFacts,
	}

	out := make(map[domain.ArtifactKind]PromptBuilder, len(extractors))
	for kind, facts := range extractors {
		name := string(kind) + ".tpl.md"
		src, err := promptFS.ReadFile("prompts/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
		p, err := NewTemplatePrompt(name, string(src), facts)
		if err != nil {
			return nil, err
		}
		out[kind] = p
	}
	return out, nil
}
