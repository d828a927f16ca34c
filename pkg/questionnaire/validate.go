package questionnaire

import (
	"fmt"
	"slices"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/schema"
)

// AggregateError represents multiple graph audit failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d graph errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Validate audits the table:
//   - the initial state exists and the sink is not defined as a step
//   - fields are known, typed consistently and asked at most once
//   - edges point at defined states and branch values are valid choices
//   - skipped fields are not the step's own field
//   - the graph is acyclic, every step is reachable and every path ends at the sink
func (g *Graph) Validate() error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := g.Step(g.Initial); !ok {
		report("initial state %q is not defined", g.Initial)
	}

	asked := make(map[domain.Field]domain.State)
	for i := range g.Steps {
		step := &g.Steps[i]

		if step.State == domain.StateComplete {
			report("step %q: the sink state cannot ask a question", step.State)
		}
		if !step.Field.Known() {
			report("step %q: unknown field %q", step.State, step.Field)
		} else if step.typ != nil && step.typ.Kind() != step.Field.Kind() {
			report("step %q: field %q holds %s values, input type %s", step.State, step.Field, step.Field.Kind(), step.typ.Name())
		}
		if prev, dup := asked[step.Field]; dup {
			report("step %q: field %q already asked by %q", step.State, step.Field, prev)
		}
		asked[step.Field] = step.State

		g.checkEdge(step, step.Next, step.Skip, report)
		for _, b := range step.Branches {
			if len(b.When) == 0 {
				report("step %q: branch to %q has no condition", step.State, b.Next)
			}
			if enum, ok := step.typ.(*schema.EnumType); ok {
				for _, w := range b.When {
					if !slices.Contains(enum.Values, w) {
						report("step %q: branch value %q is not an option", step.State, w)
					}
				}
			}
			g.checkEdge(step, b.Next, b.Skip, report)
		}
	}

	if len(errs) == 0 {
		errs = append(errs, g.checkReachability()...)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (g *Graph) checkEdge(step *Step, next domain.State, skip []domain.Field, report func(string, ...any)) {
	if next == "" {
		report("step %q: missing next state", step.State)
	} else if _, ok := g.Step(next); !ok && next != domain.StateComplete {
		report("step %q: edge to undefined state %q", step.State, next)
	}
	for _, f := range skip {
		if !f.Known() {
			report("step %q: cannot skip unknown field %q", step.State, f)
		}
		if f == step.Field {
			report("step %q: cannot skip its own field", step.State)
		}
	}
}

// checkReachability runs a depth-first search from the initial state.
func (g *Graph) checkReachability() []error {
	const (
		unvisited = iota
		visiting
		done
	)
	var errs []error
	color := make(map[domain.State]int)

	var visit func(s domain.State)
	visit = func(s domain.State) {
		if s == domain.StateComplete {
			return
		}
		switch color[s] {
		case visiting:
			errs = append(errs, fmt.Errorf("cycle through state %q", s))
			return
		case done:
			return
		}
		color[s] = visiting
		step, _ := g.Step(s)
		visit(step.Next)
		for _, b := range step.Branches {
			visit(b.Next)
		}
		color[s] = done
	}
	visit(g.Initial)

	for _, step := range g.Steps {
		if color[step.State] != done {
			errs = append(errs, fmt.Errorf("step %q is unreachable from %q", step.State, g.Initial))
		}
	}
	return errs
}
