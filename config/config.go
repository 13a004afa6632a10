// Package config loads the YAML configuration used by the Stride façade to
// assemble a strategy, a model adapter and a checkpoint store.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes the stride YAML configuration.
type Config struct {
	Strategy struct {
		// Name selects the execution strategy: "loop", "react" or "plan".
		Name          string `yaml:"name"`
		MaxIterations int    `yaml:"max_iterations"`
		MaxPlanSteps  int    `yaml:"max_plan_steps"`
		ReasonPrompt  string `yaml:"reason_prompt"`
		ActPrompt     string `yaml:"act_prompt"`
		PlanPrompt    string `yaml:"plan_prompt"`
	} `yaml:"strategy"`

	Model struct {
		// Provider is "openai", "anthropic" or "mock".
		Provider    string  `yaml:"provider"`
		Name        string  `yaml:"name"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int64   `yaml:"max_tokens"`
	} `yaml:"model"`

	Checkpoint struct {
		// Backend is "none", "memory" or "sqlite".
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"checkpoint"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	// EventBufferSize sets the streaming event channel buffer.
	EventBufferSize int `yaml:"event_buffer_size"`
}

// Default returns a configuration with the documented defaults applied.
func Default() Config {
	var cfg Config
	cfg.Strategy.Name = "loop"
	cfg.Strategy.MaxPlanSteps = 20
	cfg.Model.Provider = "mock"
	cfg.Model.Temperature = 0.7
	cfg.Model.MaxTokens = 4096
	cfg.Checkpoint.Backend = "none"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.EventBufferSize = 64
	return cfg
}

// Load reads, parses and validates the configuration file. Missing optional
// fields fall back to Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes raw YAML into a validated configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Strategy.Name {
	case "loop", "react", "plan":
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy.Name)
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("config: unknown model provider %q", c.Model.Provider)
	}
	switch c.Checkpoint.Backend {
	case "none", "memory":
	case "sqlite":
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("config: checkpoint.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("config: unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	if c.Strategy.MaxIterations < 0 {
		return fmt.Errorf("config: strategy.max_iterations must not be negative")
	}
	return nil
}
