package runner

import "log/slog"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHandler sets the IOHandler. Defaults to a TextHandler on stdin/stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithoutGreeting skips the welcome message printed by Run.
func WithoutGreeting() Option {
	return func(r *Runner) {
		r.quiet = true
	}
}
