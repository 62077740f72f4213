package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/persistence/memory"
)

// ErrInvalidConfig is wrapped by every validation failure from ParseConfig.
var ErrInvalidConfig = errors.New("invalid config")

// LoadConfig loads and validates configuration from a YAML file in K8s-style manifest format.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// ParseConfig validates a YAML manifest against the configuration schema,
// decodes it and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	// Step 1: JSON Schema validation (structure, types, required fields, kind values)
	if err := ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Step 2: semantic checks the schema cannot express
	cfg := &manifest.Spec
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{Logging: DefaultLoggingConfig()}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset store limits and logging fields.
func (c *Config) ApplyDefaults() {
	if c.Store.DefaultLimit == 0 {
		c.Store.DefaultLimit = persistence.DefaultListLimit
	}
	if c.Store.MaxLimit == 0 {
		c.Store.MaxLimit = persistence.MaxListLimit
	}
	defaults := DefaultLoggingConfig()
	if c.Logging.DefaultLevel == "" {
		c.Logging.DefaultLevel = defaults.DefaultLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Format
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Store.DefaultLimit < 0 {
		return &ValidationError{Field: "store.defaultLimit", Message: "must not be negative"}
	}
	if c.Store.MaxLimit < 0 {
		return &ValidationError{Field: "store.maxLimit", Message: "must not be negative"}
	}
	if c.Store.MaxLimit > 0 && c.Store.DefaultLimit > c.Store.MaxLimit {
		return &ValidationError{
			Field:   "store.defaultLimit",
			Message: fmt.Sprintf("must not exceed maxLimit %d", c.Store.MaxLimit),
			Value:   fmt.Sprint(c.Store.DefaultLimit),
		}
	}
	return c.Logging.Validate()
}

// MemoryOptions returns the options for memory.New described by the store section.
func (c *Config) MemoryOptions() *memory.Options {
	return &memory.Options{
		ID:           c.Store.ID,
		DefaultLimit: c.Store.DefaultLimit,
		MaxLimit:     c.Store.MaxLimit,
	}
}
