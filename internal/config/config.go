package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported values for ExportFormat and LogLevel.
var (
	ExportFormats = []string{"json", "msgpack", "dot"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
)

// Config holds all configuration for ugraph
type Config struct {
	// StrictStructure turns rejected containment attachments during
	// construction into build errors instead of skipped no-ops
	StrictStructure bool `yaml:"strict_structure" env:"UGRAPH_STRICT_STRUCTURE"`

	// GlobalFallback lets reads with no reaching definition resolve against
	// file-level definitions, e.g. calls to functions declared further down
	GlobalFallback bool `yaml:"global_fallback" env:"UGRAPH_GLOBAL_FALLBACK"`

	// Export settings
	ExportFormat           string `yaml:"export_format" env:"UGRAPH_EXPORT_FORMAT"`
	InvisibleTemporalEdges bool   `yaml:"invisible_temporal_edges" env:"UGRAPH_INVISIBLE_TEMPORAL_EDGES"`

	// Logging
	LogLevel string `yaml:"log_level" env:"UGRAPH_LOG_LEVEL"`
	JSONLog  bool   `yaml:"json_log" env:"UGRAPH_JSON_LOG"`
	Verbose  bool   `yaml:"verbose" env:"UGRAPH_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StrictStructure:        false,
		GlobalFallback:         true,
		ExportFormat:           "json",
		InvisibleTemporalEdges: false,
		LogLevel:               "info",
		JSONLog:                false,
		Verbose:                false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.ugraph/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ugraph/config.yaml"
	}
	return filepath.Join(home, ".ugraph", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.ugraph/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".ugraph", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.ugraph/config.yaml)
// 3. Global config (~/.ugraph/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile unmarshals the YAML file at path over cfg. Keys missing from the
// file keep their current value. A missing file is returned unwrapped.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UGRAPH_STRICT_STRUCTURE"); v != "" {
		cfg.StrictStructure = parseBool(v)
	}
	if v := os.Getenv("UGRAPH_GLOBAL_FALLBACK"); v != "" {
		cfg.GlobalFallback = parseBool(v)
	}
	if v := os.Getenv("UGRAPH_EXPORT_FORMAT"); v != "" {
		cfg.ExportFormat = strings.ToLower(v)
	}
	if v := os.Getenv("UGRAPH_INVISIBLE_TEMPORAL_EDGES"); v != "" {
		cfg.InvisibleTemporalEdges = parseBool(v)
	}
	if v := os.Getenv("UGRAPH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("UGRAPH_JSON_LOG"); v != "" {
		cfg.JSONLog = parseBool(v)
	}
	if v := os.Getenv("UGRAPH_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if !contains(ExportFormats, c.ExportFormat) {
		return fmt.Errorf("invalid export_format: %s (must be one of %s)", c.ExportFormat, strings.Join(ExportFormats, ", "))
	}
	if !contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (must be one of %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	return nil
}

// EffectiveLogLevel returns the level the logger should run at. Verbose
// forces debug output.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseBool accepts the usual spellings of true; anything else is false
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
