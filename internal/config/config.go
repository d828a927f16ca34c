// Package config loads fitcoach settings from defaults, an optional YAML file,
// a .env file and FITCOACH_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/fitcoach/pkg/adapters/llm"
	"github.com/aretw0/fitcoach/pkg/schema"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Redis      RedisConfig      `yaml:"redis"`
	Lock       LockConfig       `yaml:"lock"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Providers  []llm.Config     `yaml:"providers"`
	Generation GenerationConfig `yaml:"generation"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`

	MaxInputSize int `yaml:"max_input_size"`
}

// StoreConfig selects the session backend.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"` // Directory for "file", database file for "sqlite"
}

// RedisConfig configures the Redis store and locker.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// LockConfig configures per-subject locking.
type LockConfig struct {
	Distributed bool          `yaml:"distributed"` // Requires Redis
	TTL         time.Duration `yaml:"ttl"`
}

// EncryptionConfig enables at-rest encryption when Passphrase is set.
type EncryptionConfig struct {
	Passphrase string `yaml:"passphrase"`
	Salt       string `yaml:"salt"`
}

// Enabled reports whether sessions are encrypted.
func (e EncryptionConfig) Enabled() bool {
	return e.Passphrase != ""
}

// GenerationConfig bounds provider calls.
type GenerationConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// HTTPConfig configures `fitcoach serve`.
type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Kind: StoreSQLite,
			Path: ".fitcoach/sessions.db",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "fitcoach:session:",
		},
		Lock: LockConfig{
			TTL: 30 * time.Second,
		},
		Generation: GenerationConfig{
			Timeout:    60 * time.Second,
			RetryDelay: time.Second,
		},
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Metrics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MaxInputSize: schema.DefaultMaxInputSize,
	}
}

// Load builds the configuration. An empty path falls back to FITCOACH_CONFIG;
// no file at all is fine.
func Load(path string) (*Config, error) {
	// A missing .env is the common case
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("FITCOACH_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.resolveProviders()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Kind = getEnv("FITCOACH_STORE", c.Store.Kind)
	c.Store.Path = getEnv("FITCOACH_STORE_PATH", c.Store.Path)

	c.Redis.Addr = getEnv("FITCOACH_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("FITCOACH_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("FITCOACH_REDIS_DB", c.Redis.DB)
	c.Redis.Prefix = getEnv("FITCOACH_REDIS_PREFIX", c.Redis.Prefix)
	c.Redis.TTL = getEnvDuration("FITCOACH_REDIS_TTL", c.Redis.TTL)

	c.Lock.Distributed = getEnvBool("FITCOACH_DISTRIBUTED_LOCK", c.Lock.Distributed)
	c.Lock.TTL = getEnvDuration("FITCOACH_LOCK_TTL", c.Lock.TTL)

	c.Encryption.Passphrase = getEnv("FITCOACH_ENCRYPTION_PASSPHRASE", c.Encryption.Passphrase)
	c.Encryption.Salt = getEnv("FITCOACH_ENCRYPTION_SALT", c.Encryption.Salt)

	c.Generation.Timeout = getEnvDuration("FITCOACH_GENERATION_TIMEOUT", c.Generation.Timeout)
	c.Generation.Retries = getEnvInt("FITCOACH_GENERATION_RETRIES", c.Generation.Retries)
	c.Generation.RetryDelay = getEnvDuration("FITCOACH_GENERATION_RETRY_DELAY", c.Generation.RetryDelay)

	c.HTTP.Addr = getEnv("FITCOACH_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.Metrics = getEnvBool("FITCOACH_METRICS", c.HTTP.Metrics)

	c.Log.Level = getEnv("FITCOACH_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("FITCOACH_LOG_FORMAT", c.Log.Format)

	c.MaxInputSize = getEnvInt(schema.EnvMaxInputSize, c.MaxInputSize)

	if name := os.Getenv("FITCOACH_PROVIDER"); name != "" {
		primary := llm.Config{Provider: name, Model: os.Getenv("FITCOACH_MODEL")}
		c.Providers = []llm.Config{primary}
		if fb := os.Getenv("FITCOACH_FALLBACK_PROVIDER"); fb != "" {
			c.Providers = append(c.Providers, llm.Config{Provider: fb, Model: os.Getenv("FITCOACH_FALLBACK_MODEL")})
		}
	}
	maxTokens := getEnvInt("FITCOACH_MAX_TOKENS", 0)
	for i := range c.Providers {
		if maxTokens > 0 {
			c.Providers[i].MaxTokens = maxTokens
		}
		if c.Providers[i].Provider == llm.ProviderOllama && c.Providers[i].BaseURL == "" {
			c.Providers[i].BaseURL = os.Getenv("FITCOACH_OLLAMA_URL")
		}
	}
}

// resolveProviders fills API keys from the provider's usual variables and picks
// a default chain when none is configured: Gemini, then OpenAI, whichever keys
// exist. Without any key the offline static provider is used.
func (c *Config) resolveProviders() {
	for i := range c.Providers {
		if c.Providers[i].APIKey == "" {
			c.Providers[i].APIKey = apiKey(c.Providers[i].Provider)
		}
	}
	if len(c.Providers) > 0 {
		return
	}
	for _, name := range []string{llm.ProviderGemini, llm.ProviderOpenAI} {
		if key := apiKey(name); key != "" {
			c.Providers = append(c.Providers, llm.Config{Provider: name, APIKey: key})
		}
	}
	if len(c.Providers) == 0 {
		c.Providers = []llm.Config{{Provider: llm.ProviderStatic}}
	}
}

func apiKey(provider string) string {
	switch strings.ToLower(provider) {
	case llm.ProviderGemini, "":
		return firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store path cannot be empty for %s", c.Store.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if (c.Store.Kind == StoreRedis || c.Lock.Distributed) && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis addr cannot be empty"))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("lock TTL must be > 0"))
	}
	if c.Encryption.Enabled() && len(c.Encryption.Salt) < 8 {
		errs = append(errs, errors.New("encryption salt must be at least 8 bytes"))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, errors.New("generation timeout must be > 0"))
	}
	if c.Generation.Retries < 0 {
		errs = append(errs, errors.New("generation retries cannot be negative"))
	}
	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("no provider configured"))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, errors.New("max input size must be > 0"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
