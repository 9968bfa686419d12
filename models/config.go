package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OllamaConfig points the AI capability at a local Ollama server.
type OllamaConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Endpoint          string `yaml:"endpoint"`
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// Config holds runtime configuration. Values come from an optional YAML file
// and are then overridden by CLI flags.
type Config struct {
	LoadDelay       time.Duration `yaml:"load_delay"`
	NavigationDelay time.Duration `yaml:"navigation_delay"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	DismissAfter    time.Duration `yaml:"dismiss_after"`
	MaxRecords      int           `yaml:"max_records"`

	// AITimeout bounds a single AI attempt. Zero leaves the call unbounded.
	AITimeout time.Duration `yaml:"ai_timeout"`

	MinAggregateChars int `yaml:"min_aggregate_chars"`
	MinSingleChars    int `yaml:"min_single_chars"`

	Ollama OllamaConfig `yaml:"ollama"`

	// DBPath is the run log file. Empty puts it beside the binary.
	DBPath     string `yaml:"db_path"`
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		LoadDelay:         5 * time.Second,
		NavigationDelay:   3 * time.Second,
		SettleDelay:       1500 * time.Millisecond,
		DismissAfter:      20 * time.Second,
		MaxRecords:        25,
		MinAggregateChars: 50,
		MinSingleChars:    100,
		Ollama: OllamaConfig{
			Enabled:           true,
			Endpoint:          "http://localhost:11434",
			Model:             "gemma3:1b",
			RequestsPerMinute: 30,
		},
		ListenAddr: "127.0.0.1:8787",
	}
}

// LoadConfig reads path on top of DefaultConfig. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MaxRecords <= 0 {
		return fmt.Errorf("max_records must be positive, got %d", c.MaxRecords)
	}
	if c.MinAggregateChars < 0 || c.MinSingleChars < 0 {
		return fmt.Errorf("minimum content lengths must not be negative")
	}
	if c.LoadDelay < 0 || c.NavigationDelay < 0 || c.SettleDelay < 0 || c.DismissAfter < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.Ollama.Enabled && c.Ollama.Endpoint == "" {
		return fmt.Errorf("ollama.endpoint is required when ollama is enabled")
	}
	return nil
}
