package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fitcoach/pkg/domain"
)

// command executes a slash command.
func (r *Runner) command(ctx context.Context, text string) (bool, error) {
	name := strings.ToLower(strings.Fields(text)[0])
	switch name {
	case "/start":
		if err := r.say(ctx, msgWelcome); err != nil {
			return false, err
		}
		return false, r.event(ctx, domain.Event{Kind: domain.EventStart})
	case "/onboard", "/update":
		return false, r.event(ctx, domain.Event{Kind: domain.EventStart})
	case "/cancel":
		out, _ := r.dispatcher.Handle(ctx, r.subject, domain.Event{Kind: domain.EventCancel})
		if out.Result == domain.OutcomeNoSession {
			return false, r.say(ctx, msgNothing)
		}
		return false, r.deliverAll(ctx, out.Instructions)
	case "/profile", "/myprofile":
		return false, r.profile(ctx)
	case "/workout", "/workoutplan":
		return false, r.generate(ctx, domain.ArtifactWorkoutPlan)
	case "/meal", "/mealplan":
		return false, r.generate(ctx, domain.ArtifactMealPlan)
	case "/myworkoutplan":
		return false, r.stored(ctx, domain.ArtifactWorkoutPlan)
	case "/mymealplan":
		return false, r.stored(ctx, domain.ArtifactMealPlan)
	case "/help":
		return false, r.say(ctx, msgHelp)
	case "/exit", "/quit":
		return true, r.say(ctx, "Bye!")
	default:
		return false, r.say(ctx, msgUnknownCmd)
	}
}

func (r *Runner) event(ctx context.Context, ev domain.Event) error {
	out, _ := r.dispatcher.Handle(ctx, r.subject, ev)
	return r.deliverAll(ctx, out.Instructions)
}

func (r *Runner) profile(ctx context.Context) error {
	s, err := r.dispatcher.Session(ctx, r.subject)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return r.say(ctx, msgNoProfile)
	case err != nil:
		r.logger.Warn("Failed to load profile", "subject", r.subject, "err", err)
		return r.say(ctx, msgTransient)
	case !s.Complete():
		return r.say(ctx, msgInProgress)
	}
	return r.handler.Output(ctx, Message{Text: FormatProfile(s.Answers), Markdown: true})
}

func (r *Runner) generate(ctx context.Context, kind domain.ArtifactKind) error {
	if err := r.say(ctx, fmt.Sprintf("Generating your %s, this can take a minute...", artifactNames[kind])); err != nil {
		return err
	}

	report, err := r.generator.Generate(ctx, r.subject, kind)
	var (
		ue *domain.UnknownEventError
		pe *domain.PersistenceError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return r.say(ctx, msgNoProfile)
	case errors.As(err, &ue):
		return r.say(ctx, msgNotReady)
	case errors.As(err, &pe):
		return r.say(ctx, msgTransient)
	}

	// A nil error or a generation failure both map to an instruction.
	if err := r.deliver(ctx, report.Instruction()); err != nil {
		return err
	}
	if report.Generation == domain.GenerationDone {
		return r.suggest(ctx, kind)
	}
	return nil
}

// suggest offers the plans the subject has not generated yet.
func (r *Runner) suggest(ctx context.Context, done domain.ArtifactKind) error {
	s, err := r.dispatcher.Session(ctx, r.subject)
	if err != nil {
		return nil
	}
	for _, kind := range domain.ArtifactKinds() {
		if kind == done || s.Artifact(kind).Generation == domain.GenerationDone {
			continue
		}
		return r.say(ctx, fmt.Sprintf("Want a %s too? Type %s.", artifactNames[kind], artifactCommands[kind]))
	}
	return nil
}

func (r *Runner) stored(ctx context.Context, kind domain.ArtifactKind) error {
	a, err := r.generator.Artifact(ctx, r.subject, kind)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return r.say(ctx, msgNoProfile)
	case err != nil:
		r.logger.Warn("Failed to load artifact", "subject", r.subject, "artifact", kind, "err", err)
		return r.say(ctx, msgTransient)
	case a.Generation != domain.GenerationDone:
		return r.say(ctx, fmt.Sprintf("You have no saved %s yet. Finish the questionnaire (/start) and type %s to generate one.",
			artifactNames[kind], artifactCommands[kind]))
	}
	return r.handler.Output(ctx, Message{Text: a.Content, Markdown: true})
}
