package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"StrictStructure", cfg.StrictStructure, false},
		{"GlobalFallback", cfg.GlobalFallback, true},
		{"ExportFormat", cfg.ExportFormat, "json"},
		{"InvisibleTemporalEdges", cfg.InvisibleTemporalEdges, false},
		{"LogLevel", cfg.LogLevel, "info"},
		{"JSONLog", cfg.JSONLog, false},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid dot export",
			cfg:     &Config{ExportFormat: "dot", LogLevel: "debug"},
			wantErr: false,
		},
		{
			name:    "valid msgpack export",
			cfg:     &Config{ExportFormat: "msgpack", LogLevel: "error"},
			wantErr: false,
		},
		{
			name:        "invalid export format",
			cfg:         &Config{ExportFormat: "svg", LogLevel: "info"},
			wantErr:     true,
			errContains: "invalid export_format",
		},
		{
			name:        "empty export format",
			cfg:         &Config{LogLevel: "info"},
			wantErr:     true,
			errContains: "invalid export_format",
		},
		{
			name:        "invalid log level",
			cfg:         &Config{ExportFormat: "json", LogLevel: "trace"},
			wantErr:     true,
			errContains: "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErr     bool
		errContains string
		check       func(*testing.T, *Config)
	}{
		{
			name: "full config",
			content: `strict_structure: true
global_fallback: false
export_format: dot
invisible_temporal_edges: true
log_level: warn
json_log: true
`,
			check: func(t *testing.T, cfg *Config) {
				if !cfg.StrictStructure {
					t.Errorf("StrictStructure = false, want true")
				}
				if cfg.GlobalFallback {
					t.Errorf("GlobalFallback = true, want false")
				}
				if cfg.ExportFormat != "dot" {
					t.Errorf("ExportFormat = %s, want dot", cfg.ExportFormat)
				}
				if !cfg.InvisibleTemporalEdges {
					t.Errorf("InvisibleTemporalEdges = false, want true")
				}
				if cfg.LogLevel != "warn" {
					t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
				}
				if !cfg.JSONLog {
					t.Errorf("JSONLog = false, want true")
				}
			},
		},
		{
			name:    "partial config keeps defaults",
			content: "export_format: msgpack\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.ExportFormat != "msgpack" {
					t.Errorf("ExportFormat = %s, want msgpack", cfg.ExportFormat)
				}
				if !cfg.GlobalFallback {
					t.Errorf("GlobalFallback = false, want default true")
				}
				if cfg.LogLevel != "info" {
					t.Errorf("LogLevel = %s, want default info", cfg.LogLevel)
				}
			},
		},
		{
			name:        "invalid yaml",
			content:     "export_format: [json\n",
			wantErr:     true,
			errContains: "failed to parse config file",
		},
		{
			name:        "invalid value",
			content:     "log_level: loud\n",
			wantErr:     true,
			errContains: "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			cfg, err := LoadFromFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFromFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("LoadFromFile() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadFromFile() on a missing file should fail")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *Config)
	}{
		{
			name:    "strict structure",
			envVars: map[string]string{"UGRAPH_STRICT_STRUCTURE": "yes"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.StrictStructure {
					t.Errorf("StrictStructure = false, want true")
				}
			},
		},
		{
			name:    "disable global fallback",
			envVars: map[string]string{"UGRAPH_GLOBAL_FALLBACK": "false"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.GlobalFallback {
					t.Errorf("GlobalFallback = true, want false")
				}
			},
		},
		{
			name: "export settings",
			envVars: map[string]string{
				"UGRAPH_EXPORT_FORMAT":            "DOT",
				"UGRAPH_INVISIBLE_TEMPORAL_EDGES": "1",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ExportFormat != "dot" {
					t.Errorf("ExportFormat = %s, want dot", cfg.ExportFormat)
				}
				if !cfg.InvisibleTemporalEdges {
					t.Errorf("InvisibleTemporalEdges = false, want true")
				}
			},
		},
		{
			name: "logging",
			envVars: map[string]string{
				"UGRAPH_LOG_LEVEL": "Error",
				"UGRAPH_JSON_LOG":  "on",
				"UGRAPH_VERBOSE":   "true",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "error" {
					t.Errorf("LogLevel = %s, want error", cfg.LogLevel)
				}
				if !cfg.JSONLog {
					t.Errorf("JSONLog = false, want true")
				}
				if !cfg.Verbose {
					t.Errorf("Verbose = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadLayering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)

	global := &Config{ExportFormat: "msgpack", LogLevel: "warn", GlobalFallback: true, StrictStructure: true}
	if err := global.Save(GlobalConfigFilePath()); err != nil {
		t.Fatalf("Save() global failed: %v", err)
	}
	if err := os.MkdirAll(".ugraph", 0755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.WriteFile(ProjectConfigFilePath(), []byte("export_format: dot\n"), 0644); err != nil {
		t.Fatalf("failed to write project config: %v", err)
	}
	t.Setenv("UGRAPH_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ExportFormat != "dot" {
		t.Errorf("ExportFormat = %s, want dot from project config", cfg.ExportFormat)
	}
	if !cfg.StrictStructure {
		t.Errorf("StrictStructure = false, want true from global config")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug from environment", cfg.LogLevel)
	}
}

func TestLoadWithoutFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"nope", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseBool(tt.input); got != tt.expected {
				t.Errorf("parseBool(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.EffectiveLogLevel(); got != "info" {
		t.Errorf("EffectiveLogLevel() = %s, want info", got)
	}
	cfg.Verbose = true
	if got := cfg.EffectiveLogLevel(); got != "debug" {
		t.Errorf("EffectiveLogLevel() with verbose = %s, want debug", got)
	}
}

func TestConfigSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dirs", "config.yaml")

	cfg := &Config{
		StrictStructure:        true,
		GlobalFallback:         false,
		ExportFormat:           "dot",
		InvisibleTemporalEdges: true,
		LogLevel:               "warn",
	}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}

	loadedCfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}
	if *loadedCfg != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loadedCfg, cfg)
	}
}
