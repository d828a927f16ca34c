/*
Package fitcoach is the core of a conversational fitness coach.

A subject answers a fixed onboarding questionnaire (goal, experience, body
data, training frequency, injuries and training location), one step at a
time, from any transport. Once the questionnaire is complete, a language
model turns the answers into a workout plan or a meal plan, which is stored
next to the answers.

# Architecture

  - pkg/questionnaire: the step graph and the pure step engine.
  - pkg/session: per-subject serialization and the event dispatcher.
  - pkg/generation: prompt building and the artifact orchestrator.
  - pkg/adapters: stores (memory, file, sqlite, redis), providers (llm) and
    transports (http, mcp).
  - pkg/runner: the terminal conversation loop.

App wires these together from a config.Config.

# Usage

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	app, err := fitcoach.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	out, err := app.Dispatcher.Handle(ctx, "alice", domain.Event{Kind: domain.EventStart})
*/
package fitcoach
