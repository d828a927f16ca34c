package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []domain.State
	CurrentState  domain.State
}

// OverlayFor builds the overlay of a session.
func OverlayFor(s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	return &GraphOverlay{
		VisitedStates: s.History,
		CurrentState:  s.State,
	}
}

// GenerateMermaid produces a Mermaid flowchart of the questionnaire.
// It applies semantic styling:
// - Initial step: ((Circle))
// - Choice steps: {Rhombus}
// - Free input: [/Parallelogram/]
// - Complete: [[Subroutine]]
// Edges that force-null fields are annotated with the skipped fields.
func GenerateMermaid(g *questionnaire.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range g.Steps {
		safeID := sanitizeMermaidID(string(step.State))

		opener, closer := "[/", "/]"
		switch {
		case step.State == g.Initial:
			opener, closer = "((", "))"
		case len(step.Options()) > 0:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, step.State, step.Input.Type, closer)

		for _, b := range step.Branches {
			label := strings.ReplaceAll(strings.Join(b.When, " / "), "\"", "'")
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(string(b.Next)))
		}

		if len(step.Skip) > 0 {
			fmt.Fprintf(&sb, "    %s -. \"skip %s\" .-> %s\n", safeID, joinFields(step.Skip), sanitizeMermaidID(string(step.Next)))
		} else {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(string(step.Next)))
		}
	}
	fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", sanitizeMermaidID(string(domain.StateComplete)), domain.StateComplete)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, st := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(string(st))
			if safeID != "" && !seen[safeID] && st != overlay.CurrentState {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func joinFields(fields []domain.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
