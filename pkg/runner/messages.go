package runner

import (
	"fmt"
	"slices"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
)

const (
	msgWelcome      = "Hi! I'm your fitness coach. I'll ask a few questions and then build a workout or meal plan for you.\nType /help to see what I can do."
	msgWelcomeBack  = "Welcome back! Let's continue where we left off."
	msgHelp         = "Commands:\n  /start            start the questionnaire\n  /update           answer the questionnaire again\n  /cancel           discard the questionnaire in progress\n  /profile          show your answers\n  /workout, /meal   generate a plan\n  /myworkoutplan    show your saved workout plan\n  /mymealplan       show your saved meal plan\n  /exit             leave"
	msgComplete     = "All done! Type /workout for a workout plan or /meal for a meal plan."
	msgCancelled    = "Questionnaire cancelled. Type /start to begin again."
	msgNothing      = "There is nothing to cancel."
	msgNoProfile    = "You have no profile yet. Type /start to begin."
	msgNotReady     = "Please finish the questionnaire first. Type /start to begin."
	msgInProgress   = "Please finish the questionnaire or /cancel it first."
	msgStale        = "This button is no longer active."
	msgTransient    = "Something went wrong on our side. Please try again."
	msgUnknownCmd   = "Unknown command. Type /help for the list."
	msgSaveFailed   = "Warning: this plan could not be saved to your profile. Copy it now."
	msgUnknownInput = "I didn't expect that right now."
)

var artifactNames = map[domain.ArtifactKind]string{
	domain.ArtifactWorkoutPlan: "workout plan",
	domain.ArtifactMealPlan:    "meal plan",
}

var artifactCommands = map[domain.ArtifactKind]string{
	domain.ArtifactWorkoutPlan: "/workout",
	domain.ArtifactMealPlan:    "/meal",
}

var causeText = map[domain.GenerationCause]string{
	domain.CauseTimeout:       "the coach took too long to answer",
	domain.CauseEmptyResponse: "the coach returned an empty plan",
	domain.CauseProviderError: "the coach is unavailable",
}

// Describe renders an instruction as chat text.
func Describe(graph *questionnaire.Graph, ins domain.Instruction) Message {
	msg := Message{Instruction: &ins}
	switch ins.Kind {
	case domain.InstructPrompt:
		msg.Text = ins.Prompt
		if n, total := progress(graph, ins.State); n > 0 {
			msg.Text = fmt.Sprintf("(%d/%d) %s", n, total, ins.Prompt)
		}
	case domain.InstructValidationError:
		msg.Text = fmt.Sprintf("That doesn't look right: %s.", ins.Reason)
	case domain.InstructComplete:
		msg.Text = msgComplete
	case domain.InstructDeliverArtifact:
		msg.Markdown = true
		msg.Text = ins.Content
		if ins.PersistStatus == domain.PersistFailed {
			msg.Text += "\n\n---\n\n**" + msgSaveFailed + "**"
		}
	case domain.InstructGenerationError:
		reason := causeText[ins.Cause]
		if reason == "" {
			reason = "something went wrong"
		}
		msg.Text = fmt.Sprintf("Could not generate your %s: %s. Please try again later.", artifactNames[ins.Artifact], reason)
	case domain.InstructUnknownEvent:
		msg.Text = msgUnknownInput
		if ins.Reason == "stale prompt" {
			msg.Text = msgStale
		}
	case domain.InstructTransientFailure:
		msg.Text = msgTransient
	case domain.InstructCancelled:
		msg.Text = msgCancelled
	case domain.InstructNoSession:
		msg.Text = msgNoProfile
	default:
		msg.Text = string(ins.Kind)
	}
	return msg
}

// progress returns the 1-based position of a step and the number of steps.
func progress(graph *questionnaire.Graph, state domain.State) (int, int) {
	if graph == nil {
		return 0, 0
	}
	states := slices.DeleteFunc(graph.States(), func(s domain.State) bool {
		return s == domain.StateComplete
	})
	i := slices.Index(states, state)
	if i < 0 {
		return 0, 0
	}
	return i + 1, len(states)
}
