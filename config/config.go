// Package config loads the travelmesh configuration from YAML with defaults
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hupe1980/travelmesh/logging"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Storage   StorageConfig   `yaml:"storage"`
	Inventory InventoryConfig `yaml:"inventory"`
	Graph     GraphConfig     `yaml:"graph"`
	Runner    RunnerConfig    `yaml:"runner"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ModelConfig selects the model provider.
type ModelConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic or mock
	Name      string `yaml:"name"`
	APIKey    string `yaml:"apiKey,omitempty"`
	BaseURL   string `yaml:"baseURL,omitempty"`
	MaxTokens int64  `yaml:"maxTokens,omitempty"`
	Stream    bool   `yaml:"stream,omitempty"`
}

// StorageConfig selects the conversation state store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, sqlite or afs
	DSN     string `yaml:"dsn,omitempty"`
	URL     string `yaml:"url,omitempty"`
	// Fallback wraps durable backends so outages are served from memory.
	Fallback bool `yaml:"fallback"`
}

// InventoryConfig selects the booking inventory.
type InventoryConfig struct {
	Backend string `yaml:"backend"` // memory or sqlite
	DSN     string `yaml:"dsn,omitempty"`
	Seed    bool   `yaml:"seed"`
}

// GraphConfig tunes the routing graph.
type GraphConfig struct {
	RecursionLimit   int           `yaml:"recursionLimit"`
	ToolTimeout      time.Duration `yaml:"toolTimeout"`
	MaxParallelTools int           `yaml:"maxParallelTools"`
	ModelAttempts    int           `yaml:"modelAttempts"`
}

// RunnerConfig tunes the runner.
type RunnerConfig struct {
	MaxConcurrentRuns int  `yaml:"maxConcurrentRuns"`
	ThreadLock        bool `yaml:"threadLock"`
}

// LoggingConfig configures the slog backed logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider: "openai",
			Name:     "gpt-4o-mini",
		},
		Storage: StorageConfig{
			Backend:  "memory",
			Fallback: true,
		},
		Inventory: InventoryConfig{
			Backend: "memory",
			Seed:    true,
		},
		Graph: GraphConfig{
			RecursionLimit:   25,
			ToolTimeout:      30 * time.Second,
			MaxParallelTools: 1,
			ModelAttempts:    2,
		},
		Runner: RunnerConfig{
			ThreadLock: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TRAVELMESH_* variables. Provider API keys
// fall back to OPENAI_API_KEY and ANTHROPIC_API_KEY.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TRAVELMESH_MODEL_PROVIDER", &c.Model.Provider)
	str("TRAVELMESH_MODEL_NAME", &c.Model.Name)
	str("TRAVELMESH_MODEL_BASE_URL", &c.Model.BaseURL)
	str("TRAVELMESH_STORAGE_BACKEND", &c.Storage.Backend)
	str("TRAVELMESH_STORAGE_DSN", &c.Storage.DSN)
	str("TRAVELMESH_STORAGE_URL", &c.Storage.URL)
	str("TRAVELMESH_INVENTORY_BACKEND", &c.Inventory.Backend)
	str("TRAVELMESH_INVENTORY_DSN", &c.Inventory.DSN)
	str("TRAVELMESH_LOG_LEVEL", &c.Logging.Level)
	str("TRAVELMESH_LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("TRAVELMESH_RECURSION_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAVELMESH_RECURSION_LIMIT: %w", err)
		}
		c.Graph.RecursionLimit = n
	}

	if v, ok := lookup("TRAVELMESH_TOOL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRAVELMESH_TOOL_TIMEOUT: %w", err)
		}
		c.Graph.ToolTimeout = d
	}

	str("TRAVELMESH_MODEL_API_KEY", &c.Model.APIKey)

	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case "openai":
			str("OPENAI_API_KEY", &c.Model.APIKey)
		case "anthropic":
			str("ANTHROPIC_API_KEY", &c.Model.APIKey)
		}
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		errs = append(errs, fmt.Errorf("model.provider: unsupported provider %q", c.Model.Provider))
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn: required for the sqlite backend"))
		}
	case "afs":
		if c.Storage.URL == "" {
			errs = append(errs, errors.New("storage.url: required for the afs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unsupported backend %q", c.Storage.Backend))
	}

	switch c.Inventory.Backend {
	case "memory":
	case "sqlite":
		if c.Inventory.DSN == "" {
			errs = append(errs, errors.New("inventory.dsn: required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("inventory.backend: unsupported backend %q", c.Inventory.Backend))
	}

	if c.Graph.RecursionLimit < 1 {
		errs = append(errs, fmt.Errorf("graph.recursionLimit: must be positive, got %d", c.Graph.RecursionLimit))
	}

	if c.Graph.ToolTimeout < 0 {
		errs = append(errs, errors.New("graph.toolTimeout: must not be negative"))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// LoggerConfig returns the logging.Config described by c.
func (c Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()

	if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = lvl
	}

	lc.Format = c.Logging.Format
	lc.Component = "travelmesh"

	return lc
}
