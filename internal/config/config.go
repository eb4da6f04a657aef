package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the panel looks for its config relative to the working directory.
const DefaultPath = ".patchpanel/config.yaml"

// Config holds all patchpanel configuration.
type Config struct {
	// LLM configuration for the grounded catalog backend
	LLM LLMConfig `yaml:"llm"`

	// Backoff for rate-limited calls
	Retry RetryConfig `yaml:"retry"`

	// Build simulator pacing
	Build BuildConfig `yaml:"build"`

	// Copyable helper commands
	Commands CommandsConfig `yaml:"commands"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the remote model.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // gemini
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"` // per attempt
	GoogleSearch bool   `yaml:"google_search"`
}

// RetryConfig configures rate-limit backoff.
type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// BuildConfig configures the simulated build.
type BuildConfig struct {
	StepInterval string `yaml:"step_interval"`
}

// CommandsConfig holds user-facing helper commands.
type CommandsConfig struct {
	Setup string `yaml:"setup"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:     "gemini",
			Model:        "gemini-3-pro-preview",
			Timeout:      "120s",
			GoogleSearch: true,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  "2500ms",
		},
		Build: BuildConfig{
			StepInterval: "600ms",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8088",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API_KEY first so the provider-specific variable wins
	if key := os.Getenv("API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("PATCHPANEL_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if addr := os.Getenv("PATCHPANEL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if lvl := os.Getenv("PATCHPANEL_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// RemoteEnabled reports whether the remote catalog backend can be used.
func (c *Config) RemoteEnabled() bool {
	return c.LLM.APIKey != ""
}

// GetLLMTimeout returns the per-attempt LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetRetryBaseDelay returns the first backoff delay.
func (c *Config) GetRetryBaseDelay() time.Duration {
	return parseDuration(c.Retry.BaseDelay, 2500*time.Millisecond)
}

// GetMaxRetries returns the retry budget after the first attempt.
func (c *Config) GetMaxRetries() int {
	if c.Retry.MaxRetries < 0 {
		return 0
	}
	return c.Retry.MaxRetries
}

// GetBuildStepInterval returns the pause between simulated build steps.
func (c *Config) GetBuildStepInterval() time.Duration {
	return parseDuration(c.Build.StepInterval, 600*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini"}

// Validate validates the configuration. A missing API key is not an error:
// remote features are disabled instead.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM model not configured")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	for name, value := range map[string]string{
		"llm.timeout":         c.LLM.Timeout,
		"retry.base_delay":    c.Retry.BaseDelay,
		"build.step_interval": c.Build.StepInterval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}
