/*
Package runner implements the conversational loop of fitcoach for one subject.

It is the terminal counterpart of the chat bot: it reads replies and slash
commands through a pluggable IOHandler, turns them into dispatcher events or
generation requests, and writes the resulting instructions back.

# Key Components

  - Runner: the loop. Every reply is one dispatcher event.
  - TextHandler: interactive CLI usage, numbered choices, glamour-rendered plans.
  - JSONHandler: JSON-Lines for scripting and tests.

# Usage

	r := runner.New(dispatcher, generator, "alice",
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
