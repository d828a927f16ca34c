package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/fitcoach/pkg/domain"
)

var fieldLabels = map[domain.Field]string{
	domain.FieldGoal:            "Goal",
	domain.FieldExperience:      "Experience",
	domain.FieldGender:          "Gender",
	domain.FieldAge:             "Age",
	domain.FieldWeight:          "Weight (kg)",
	domain.FieldFrequency:       "Workouts per week",
	domain.FieldInjuries:        "Injuries",
	domain.FieldInjuryDetails:   "Injury details",
	domain.FieldLocation:        "Training location",
	domain.FieldLocationDetails: "Location details",
}

// FormatProfile renders the answers as a markdown list.
// Details that do not apply to the chosen branch are left out.
func FormatProfile(a domain.Answers) string {
	var b strings.Builder
	b.WriteString("## Your profile\n\n")
	for _, f := range a.Present() {
		if f == domain.FieldInjuryDetails && a.Text(domain.FieldInjuries) != "yes" {
			continue
		}
		if f == domain.FieldLocationDetails && a.Text(domain.FieldLocation) != "other" {
			continue
		}
		fmt.Fprintf(&b, "- **%s:** %s\n", fieldLabels[f], a.Text(f))
	}
	return b.String()
}
