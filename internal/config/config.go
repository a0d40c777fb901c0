// Package config loads deckforge configuration from YAML with
// environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all deckforge configuration.
type Config struct {
	// Model configuration
	Gemini GeminiConfig `yaml:"gemini"`

	// Headless browser configuration
	Render RenderConfig `yaml:"render"`

	// Builder subprocess execution
	Execution ExecutionConfig `yaml:"execution"`

	// Repair loop settings
	Repair RepairConfig `yaml:"repair"`

	// Artifact delivery
	Upload UploadConfig `yaml:"upload"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the code generator model.
type GeminiConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// RenderConfig configures the headless browser screenshot stage.
type RenderConfig struct {
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
	NavTimeout     string `yaml:"nav_timeout"`
	SettleDelay    string `yaml:"settle_delay"`
	BrowserBin     string `yaml:"browser_bin"` // Optional explicit Chrome binary
}

// ExecutionConfig configures the builder subprocess.
type ExecutionConfig struct {
	PythonBinary   string `yaml:"python_binary"`
	Timeout        string `yaml:"timeout"`
	MaxOutputBytes int64  `yaml:"max_output_bytes"`
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// RepairConfig bounds the generate-execute-fix loop.
type RepairConfig struct {
	MaxAttempts        int  `yaml:"max_attempts"`
	SaveBuilderScripts bool `yaml:"save_builder_scripts"`
	SaveScreenshot     bool `yaml:"save_screenshot"`
}

// UploadConfig configures remote artifact delivery. An empty bucket
// means artifacts stay local.
type UploadConfig struct {
	Bucket          string `yaml:"bucket"`
	KeyPrefix       string `yaml:"key_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Dir        string          `yaml:"dir"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-pro",
			MaxOutputTokens: 65536,
		},
		Render: RenderConfig{
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			NavTimeout:     "30s",
			SettleDelay:    "1s",
		},
		Execution: ExecutionConfig{
			PythonBinary:   "python3",
			Timeout:        "300s",
			MaxOutputBytes: 1 << 20,
			AllowedEnvVars: []string{"PATH", "HOME", "LANG", "PYTHONPATH", "VIRTUAL_ENV"},
		},
		Repair: RepairConfig{
			MaxAttempts: 5,
		},
		Upload: UploadConfig{
			KeyPrefix: "decks/",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".deckforge",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Credentials
// never belong in the config file, so the env always wins.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("DECKFORGE_MODEL"); model != "" {
		c.Gemini.Model = model
	}
	if bucket := os.Getenv("DECKFORGE_GCS_BUCKET"); bucket != "" {
		c.Upload.Bucket = bucket
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" && c.Upload.CredentialsFile == "" {
		c.Upload.CredentialsFile = creds
	}
}

// GetNavTimeout returns the page navigation timeout as a duration.
func (c *Config) GetNavTimeout() time.Duration {
	d, err := time.ParseDuration(c.Render.NavTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetSettleDelay returns the post-load render settle delay.
func (c *Config) GetSettleDelay() time.Duration {
	d, err := time.ParseDuration(c.Render.SettleDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetExecutionTimeout returns the builder subprocess timeout.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 300 * time.Second
	}
	return d
}
