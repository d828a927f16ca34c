package fitcoach

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/fitcoach/internal/config"
	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/adapters/file"
	"github.com/aretw0/fitcoach/pkg/adapters/llm"
	"github.com/aretw0/fitcoach/pkg/adapters/memory"
	"github.com/aretw0/fitcoach/pkg/adapters/redis"
	"github.com/aretw0/fitcoach/pkg/adapters/sqlite"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/observability"
	"github.com/aretw0/fitcoach/pkg/persistence/middleware"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
	"github.com/aretw0/fitcoach/pkg/session"
)

// App is a fully wired fitcoach instance.
type App struct {
	Config     *config.Config
	Store      ports.SessionStore
	Engine     *questionnaire.Engine
	Manager    *session.Manager
	Dispatcher *session.Dispatcher
	Generator  *generation.Orchestrator
	Metrics    *observability.Metrics
	Registry   *prometheus.Registry

	provider ports.Provider
	logger   *slog.Logger
	closers  []func() error
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithStore bypasses the configured backend.
// Encryption still applies when configured.
func WithStore(store ports.SessionStore) Option {
	return func(a *App) {
		a.Store = store
	}
}

// WithRegistry registers the metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.Registry = reg
	}
}

// WithEngine replaces the default questionnaire.
func WithEngine(engine *questionnaire.Engine) Option {
	return func(a *App) {
		a.Engine = engine
	}
}

// WithProvider replaces the configured provider chain.
func WithProvider(p ports.Provider) Option {
	return func(a *App) {
		a.provider = p
	}
}

// New wires an App from cfg. The caller must Close it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.Store == nil {
		if a.Store, err = a.openStore(); err != nil {
			return nil, err
		}
	}
	if cfg.Encryption.Enabled() {
		key, err := middleware.DeriveKey(cfg.Encryption.Passphrase, cfg.Encryption.Salt)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = middleware.Chain(a.Store, enc)
	}

	if a.Engine == nil {
		graph, err := questionnaire.DefaultGraph()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Engine = questionnaire.NewEngine(graph, questionnaire.WithInputLimit(cfg.MaxInputSize))
	}

	managerOpts := []session.Option{
		session.WithLogger(a.logger),
		session.WithLockTTL(cfg.Lock.TTL),
	}
	if cfg.Lock.Distributed {
		client := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client.Close)
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(client.Client(), cfg.Redis.Prefix)))
	}
	a.Manager = session.NewManager(a.Store, managerOpts...)

	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
	}
	if a.Metrics, err = observability.NewMetrics(a.Registry); err != nil {
		a.Close()
		return nil, err
	}
	hooks := a.Metrics.Hooks().Merge(observability.LogHooks(a.logger))

	a.Dispatcher = session.NewDispatcher(a.Manager, a.Engine,
		session.WithDispatcherLogger(a.logger),
		session.WithHooks(hooks),
	)

	provider := a.provider
	if provider == nil {
		if provider, err = llm.NewChain(cfg.Providers, llm.WithLogger(a.logger)); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to configure provider: %w", err)
		}
	}
	counter, err := generation.NewTokenCounter()
	if err != nil {
		// Counting falls back to an estimate.
		a.logger.Warn("Token counter unavailable", "err", err)
	}
	a.Generator, err = generation.New(a.Manager, provider,
		generation.WithTimeout(cfg.Generation.Timeout),
		generation.WithRetries(cfg.Generation.Retries, cfg.Generation.RetryDelay),
		generation.WithTokenCounter(counter),
		generation.WithLogger(a.logger),
		generation.WithHooks(hooks),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.logger.Info("fitcoach ready",
		"version", Version,
		"store", cfg.Store.Kind,
		"encrypted", cfg.Encryption.Enabled(),
		"distributed_lock", cfg.Lock.Distributed,
		"providers", len(cfg.Providers),
	)
	return a, nil
}

func (a *App) openStore() (ports.SessionStore, error) {
	cfg := a.Config
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreFile:
		return file.New(cfg.Store.Path), nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.StoreRedis:
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Graph returns the questionnaire graph.
func (a *App) Graph() *questionnaire.Graph {
	return a.Engine.Graph()
}

// Close releases the backends opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
