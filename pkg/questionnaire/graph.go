package questionnaire

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed graph.yaml
var defaultGraph []byte

// Step is one row of the questionnaire table.
type Step struct {
	State    domain.State   `mapstructure:"state" json:"state"`
	Field    domain.Field   `mapstructure:"field" json:"field"`
	Prompt   string         `mapstructure:"prompt" json:"prompt"`
	Input    schema.Spec    `mapstructure:"input" json:"input"`
	Next     domain.State   `mapstructure:"next" json:"next"`
	Skip     []domain.Field `mapstructure:"skip" json:"skip,omitempty"`
	Branches []Branch       `mapstructure:"branches" json:"branches,omitempty"`

	typ schema.Type
}

// Branch is a conditional edge, taken when the validated answer matches one of When.
type Branch struct {
	When []string       `mapstructure:"when" json:"when"`
	Next domain.State   `mapstructure:"next" json:"next"`
	Skip []domain.Field `mapstructure:"skip" json:"skip,omitempty"`
}

// Type returns the validator built from Input.
func (s *Step) Type() schema.Type { return s.typ }

// Options returns the presented choices for enumerated inputs.
func (s *Step) Options() []string {
	if o, ok := s.typ.(schema.Options); ok {
		return o.Options()
	}
	return nil
}

// Resolve evaluates the step's edges for a validated answer.
// It returns the next state and the fields to force-null.
func (s *Step) Resolve(v domain.Value) (domain.State, []domain.Field) {
	answer := v.String()
	for _, b := range s.Branches {
		if slices.Contains(b.When, answer) {
			return b.Next, b.Skip
		}
	}
	return s.Next, s.Skip
}

// Graph is the static questionnaire table.
type Graph struct {
	Initial domain.State `mapstructure:"initial" json:"initial"`
	Steps   []Step       `mapstructure:"steps" json:"steps"`

	index map[domain.State]int
}

// DefaultGraph returns the built-in fitness questionnaire.
func DefaultGraph() (*Graph, error) {
	return LoadGraph(bytes.NewReader(defaultGraph))
}

// LoadGraph decodes a YAML (or JSON) table, builds the validators and audits the result.
// Unknown keys are rejected.
func LoadGraph(r io.Reader) (*Graph, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}

	var g Graph
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &g,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	if err := g.build(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// NewGraph builds a graph from in-memory steps. It is audited like a loaded one.
func NewGraph(initial domain.State, steps []Step) (*Graph, error) {
	g := &Graph{Initial: initial, Steps: steps}
	if err := g.build(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) build() error {
	g.index = make(map[domain.State]int, len(g.Steps))
	for i := range g.Steps {
		step := &g.Steps[i]
		typ, err := step.Input.Build()
		if err != nil {
			return fmt.Errorf("step %q: %w", step.State, err)
		}
		step.typ = typ
		if _, dup := g.index[step.State]; dup {
			return fmt.Errorf("step %q: defined more than once", step.State)
		}
		g.index[step.State] = i
	}
	return nil
}

// Step returns the row for a state.
func (g *Graph) Step(state domain.State) (*Step, bool) {
	i, ok := g.index[state]
	if !ok {
		return nil, false
	}
	return &g.Steps[i], true
}

// States returns the states in table order, followed by the sink.
func (g *Graph) States() []domain.State {
	out := make([]domain.State, 0, len(g.Steps)+1)
	for _, s := range g.Steps {
		out = append(out, s.State)
	}
	return append(out, domain.StateComplete)
}

// Walk follows the graph from the initial state using the given answers and
// returns the visited states, ending at the first unanswered step (or the sink).
// It also returns the fields the path collected.
func (g *Graph) Walk(answers domain.Answers) ([]domain.State, []domain.Field) {
	var path []domain.State
	var fields []domain.Field

	state := g.Initial
	for i := 0; i <= len(g.Steps); i++ {
		path = append(path, state)
		step, ok := g.Step(state)
		if !ok {
			break
		}
		v, answered := answers.Get(step.Field)
		if !answered {
			break
		}
		fields = append(fields, step.Field)
		state, _ = step.Resolve(v)
	}
	return path, fields
}

// Consistent checks that a session's state is where its answers lead and that
// it holds no answers outside the path taken.
func (g *Graph) Consistent(s *domain.Session) error {
	path, fields := g.Walk(s.Answers)
	if at := path[len(path)-1]; at != s.State {
		return fmt.Errorf("session at %q but answers lead to %q", s.State, at)
	}
	for _, f := range s.Answers.Present() {
		if !slices.Contains(fields, f) {
			return fmt.Errorf("answer %q is not on the path taken", f)
		}
	}
	return nil
}
