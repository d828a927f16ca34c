package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	goal := "mass"
	age := 30

	base := func() *Session {
		s := NewSession("sub-1", StateAge, time.Time{})
		s.Answers.Goal = &goal
		return s
	}

	tests := []struct {
		name      string
		old       *Session
		new       func() *Session
		wantNil   bool
		wantState *State
		wantKeys  []string
	}{
		{
			name:      "Initial Load (Old is Nil)",
			old:       nil,
			new:       base,
			wantState: ptrState(StateAge),
			wantKeys:  []string{"goal"},
		},
		{
			name:    "No Changes",
			old:     base(),
			new:     base,
			wantNil: true,
		},
		{
			name: "Answer Added and State Advanced",
			old:  base(),
			new: func() *Session {
				s := base()
				s.Answers.Age = &age
				s.State = StateWeight
				return s
			},
			wantState: ptrState(StateWeight),
			wantKeys:  []string{"age"},
		},
		{
			name: "Skipped Field Reported As Null",
			old:  base(),
			new: func() *Session {
				s := base()
				s.Answers.Skip(FieldInjuryDetails)
				return s
			},
			wantKeys: []string{"injury_details"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new())
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil diff, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected diff, got nil")
			}
			if (tt.wantState == nil) != (got.State == nil) {
				t.Fatalf("state mismatch: want %v, got %v", tt.wantState, got.State)
			}
			if tt.wantState != nil && *tt.wantState != *got.State {
				t.Errorf("want state %s, got %s", *tt.wantState, *got.State)
			}
			if len(got.Answers) != len(tt.wantKeys) {
				t.Fatalf("want answer keys %v, got %v", tt.wantKeys, got.Answers)
			}
			for _, k := range tt.wantKeys {
				if _, ok := got.Answers[k]; !ok {
					t.Errorf("missing answer key %q in %v", k, got.Answers)
				}
			}
		})
	}
}

func TestDiff_ArtifactChange(t *testing.T) {
	old := NewSession("sub-1", StateComplete, time.Time{})
	updated := old.Clone()
	updated.Artifacts[ArtifactMealPlan] = Artifact{
		Kind:       ArtifactMealPlan,
		Content:    "# Plan",
		Generation: GenerationDone,
		Persist:    Persisted,
	}

	diff := Diff(old, updated)
	if diff == nil {
		t.Fatal("expected diff")
	}
	if _, ok := diff.Artifacts[ArtifactMealPlan]; !ok {
		t.Errorf("expected meal plan in diff, got %v", diff.Artifacts)
	}

	data, err := json.Marshal(diff)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"state"`) {
		t.Errorf("unchanged state should be omitted: %s", data)
	}
}

func ptrState(s State) *State { return &s }
