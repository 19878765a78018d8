package oplc

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config is the oplc.yaml project configuration. Every field has a
// usable default so a missing config file means "defaults all the way
// down" rather than an error.
type Config struct {
	Profile    string       `yaml:"profile"`
	ModelFiles []string     `yaml:"model_files"`
	DataFiles  []string     `yaml:"data_files"`
	Script     ScriptConfig `yaml:"script"`
	Report     ReportConfig `yaml:"report"`
}

// ScriptConfig bounds the embedded scripting engine behind execute{}
// blocks.
type ScriptConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RecursionLimit int    `yaml:"recursion_limit"`
	EnvFile        string `yaml:"env_file"`
}

// ReportConfig holds the report settings. Validate accepts Format values
// "", "text" and "yaml"; the CLI's report output follows its own --format
// flag and does not read this field.
type ReportConfig struct {
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no oplc.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Profile: "permissive",
		Script: ScriptConfig{
			TimeoutSeconds: 5,
			RecursionLimit: 100,
			EnvFile:        ".env",
		},
		Report: ReportConfig{Format: "text"},
	}
}

// LoadConfig reads path (if it exists), overlays it on the defaults, and
// loads the script env file into the process environment. A missing
// config file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Script.EnvFile != "" {
		// Best-effort: a missing .env is fine, the snapshot just has no
		// extra constants.
		_ = godotenv.Load(cfg.Script.EnvFile)
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := ProfileFromName(c.Profile); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	switch c.Report.Format {
	case "", "text", "yaml":
	default:
		return fmt.Errorf("%w: %v: %q", ErrConfigValidation, ErrUnknownReportFormat, c.Report.Format)
	}
	if c.Script.TimeoutSeconds < 0 || c.Script.RecursionLimit < 0 {
		return fmt.Errorf("%w: script limits must be non-negative", ErrConfigValidation)
	}
	return nil
}

// Environment returns the process environment as a map, for the
// scripting bridge's snapshot. The env file loaded by LoadConfig is
// already folded in at this point.
func (c *Config) Environment() map[string]any {
	out := make(map[string]any)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
