// Package config loads workflow runtime configuration from YAML or JSON
// files. Values referencing environment variables with ${VAR} syntax are
// expanded at load time so API keys never live in config files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// Provider selects the model backend: "openai", "anthropic" or "mock".
	Provider string `yaml:"provider" json:"provider"`

	// Model is the provider-specific model name. Empty uses the
	// provider's default.
	Model string `yaml:"model" json:"model"`

	// APIKey authenticates against the provider. Usually set via
	// ${OPENAI_API_KEY} or ${ANTHROPIC_API_KEY} expansion.
	APIKey string `yaml:"api_key" json:"api_key"`

	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`

	// CheckpointPath is the SQLite file for run checkpoints. Empty keeps
	// checkpoints in memory.
	CheckpointPath string `yaml:"checkpoint_path" json:"checkpoint_path"`

	// SessionPath is the SQLite file for run event history, so `events`
	// can replay runs of earlier processes. Empty keeps sessions in
	// memory.
	SessionPath string `yaml:"session_path" json:"session_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Telemetry enables OpenTelemetry metrics and traces via the global
	// providers.
	Telemetry bool `yaml:"telemetry" json:"telemetry"`

	Tools ToolsConfig `yaml:"tools" json:"tools"`
}

// ToolsConfig tunes the built-in tools.
type ToolsConfig struct {
	// SearchMaxResults caps web search results per query.
	SearchMaxResults int `yaml:"search_max_results" json:"search_max_results"`

	// ScrapeMaxChars caps extracted page text length.
	ScrapeMaxChars int `yaml:"scrape_max_chars" json:"scrape_max_chars"`

	// BrowserHeadless controls the scripted browser mode.
	BrowserHeadless bool `yaml:"browser_headless" json:"browser_headless"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Provider:    "openai",
		Temperature: 0.7,
		LogLevel:    "info",
		Tools: ToolsConfig{
			SearchMaxResults: 10,
			ScrapeMaxChars:   20000,
			BrowserHeadless:  true,
		},
	}
}

// Load reads a YAML or JSON config file, expands ${VAR} references from
// the environment and validates the result. Fields absent from the file
// keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes config bytes. YAML being a JSON superset, JSON files
// decode through the same path.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values without touching the environment.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.Tools.SearchMaxResults < 0 {
		return fmt.Errorf("config: search_max_results must be >= 0")
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv replaces ${VAR} with the environment value. Unset variables
// expand to the empty string, matching shell behavior.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}
