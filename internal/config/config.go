// Package config provides configuration loading for the harness. Supports
// YAML files, .env files, and PAGELIFT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pagelift-ai/pagelift/internal/engine"
)

// Config holds all configuration for the harness.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Runtime       RuntimeConfig       `yaml:"runtime"`
	Journal       JournalConfig       `yaml:"journal"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig holds converter binary settings.
type EngineConfig struct {
	// Binary is the external converter executable.
	Binary string `yaml:"binary"`
	// TerminationGrace bounds how long a forcibly terminated worker may
	// take to drain before it is abandoned.
	TerminationGrace time.Duration `yaml:"termination_grace"`
}

// RuntimeConfig holds default device/model placement, overridable per job.
type RuntimeConfig struct {
	Device      string `yaml:"device"`
	VirtualVRAM int    `yaml:"virtual_vram"`
	ModelSource string `yaml:"model_source"`
}

// JournalConfig holds the optional run-journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig holds diagnostic logging settings.
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Binary:           "pagelift-convert",
			TerminationGrace: 5 * time.Second,
		},
		Runtime: RuntimeConfig{
			Device:      engine.DefaultDevice,
			VirtualVRAM: engine.DefaultVirtualVRAM,
			ModelSource: engine.DefaultModelSource,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    defaultJournalPath(),
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Load reads configuration from an optional YAML file plus environment
// variables. An empty path skips the file and uses defaults + env only.
func Load(path string) (*Config, error) {
	// Load .env if present (ignore error if not found).
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Engine.Binary == "" {
		return fmt.Errorf("engine.binary must not be empty")
	}
	if c.Engine.TerminationGrace < 0 {
		return fmt.Errorf("engine.termination_grace must not be negative")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path required when journal is enabled")
	}
	if c.Runtime.ModelSource != "" && !engine.ValidModelSource(c.Runtime.ModelSource) {
		return fmt.Errorf("runtime.model_source %q is not a known source", c.Runtime.ModelSource)
	}
	return nil
}

// RuntimeDefaults exposes the configured runtime defaults as an engine value.
func (c *Config) RuntimeDefaults() engine.Runtime {
	return engine.Runtime{
		Device:      c.Runtime.Device,
		VirtualVRAM: c.Runtime.VirtualVRAM,
		ModelSource: c.Runtime.ModelSource,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAGELIFT_ENGINE_BINARY"); v != "" {
		cfg.Engine.Binary = v
	}
	if v := os.Getenv("PAGELIFT_DEVICE"); v != "" {
		cfg.Runtime.Device = v
	}
	if v := os.Getenv("PAGELIFT_VIRTUAL_VRAM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.VirtualVRAM = n
		}
	}
	if v := os.Getenv("PAGELIFT_MODEL_SOURCE"); v != "" {
		cfg.Runtime.ModelSource = v
	}
	if v := os.Getenv("PAGELIFT_JOURNAL"); v != "" {
		cfg.Journal.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("PAGELIFT_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("PAGELIFT_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pagelift-journal.db"
	}
	return filepath.Join(home, ".pagelift", "journal.db")
}
