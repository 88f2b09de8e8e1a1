// Package config provides YAML-based configuration loading for Quire.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Quire configuration, loaded from quire.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Completion CompletionConfig `yaml:"completion"`
	Extract    ExtractConfig    `yaml:"extract"`
	Auth       AuthConfig       `yaml:"auth"`
	Notify     NotifyConfig     `yaml:"notify"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DBConfig holds connection settings for the message store.
// Driver is "sqlite" (Path) or "mysql" (Host/Port/Database).
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// CompletionConfig holds settings for the chat-completion provider.
// The API key is read from the environment variable named by APIKeyEnv;
// it is never stored in the config file itself.
type CompletionConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	MaxTokens      int     `yaml:"max_tokens"`
	Stream         bool    `yaml:"stream"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Retries        int     `yaml:"retries"`
	BackoffMS      int     `yaml:"backoff_ms"`
}

// ExtractConfig bounds document text extraction.
type ExtractConfig struct {
	MaxChars int `yaml:"max_chars"`
	MaxPages int `yaml:"max_pages"`
}

// AuthConfig maps bearer tokens to user IDs. This is the shipped stand-in
// for an external identity provider.
type AuthConfig struct {
	Tokens map[string]string `yaml:"tokens"`
}

// NotifyConfig holds optional feedback-notification adapters.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig configures the Slack notifier. Disabled when ChannelID is empty.
type SlackConfig struct {
	ChannelID string `yaml:"channel_id"`
	TokenEnv  string `yaml:"token_env"`
}

// DiscordConfig configures the Discord notifier. Disabled when ChannelID is empty.
type DiscordConfig struct {
	ChannelID string `yaml:"channel_id"`
	TokenEnv  string `yaml:"token_env"`
}

// SweepConfig schedules the stale-document sweep.
type SweepConfig struct {
	Schedule          string `yaml:"schedule"`
	StaleAfterMinutes int    `yaml:"stale_after_minutes"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "quire.db"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" {
		c.DB.Database = "quire"
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = "https://integrate.api.nvidia.com/v1"
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "nvidia/llama-3.1-nemotron-70b-instruct"
	}
	if c.Completion.APIKeyEnv == "" {
		c.Completion.APIKeyEnv = "QUIRE_COMPLETION_API_KEY"
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.5
	}
	if c.Completion.TopP == 0 {
		c.Completion.TopP = 0.7
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = 1024
	}
	if c.Completion.TimeoutSeconds == 0 {
		c.Completion.TimeoutSeconds = 240
	}
	if c.Completion.Retries == 0 {
		c.Completion.Retries = 3
	}
	if c.Completion.BackoffMS == 0 {
		c.Completion.BackoffMS = 3000
	}
	if c.Extract.MaxChars == 0 {
		c.Extract.MaxChars = 2000
	}
	if c.Extract.MaxPages == 0 {
		c.Extract.MaxPages = 5
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "*/10 * * * *"
	}
	if c.Sweep.StaleAfterMinutes == 0 {
		c.Sweep.StaleAfterMinutes = 30
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.driver must be sqlite or mysql, got %q", c.DB.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Completion.Retries < 1 {
		errs = append(errs, "completion.retries must be at least 1")
	}
	if c.Extract.MaxChars < 0 {
		errs = append(errs, "extract.max_chars must not be negative")
	}
	if c.Notify.Slack.ChannelID != "" && c.Notify.Slack.TokenEnv == "" {
		errs = append(errs, "notify.slack.token_env is required when slack is enabled")
	}
	if c.Notify.Discord.ChannelID != "" && c.Notify.Discord.TokenEnv == "" {
		errs = append(errs, "notify.discord.token_env is required when discord is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
