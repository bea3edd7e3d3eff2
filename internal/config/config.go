// Package config handles loading, saving, and validating reception-hub
// configuration.
//
// Configuration is stored in ~/.reception-hub/config.json using camelCase
// keys. Secrets (the embedding API key, the Slack bot token) are never stored
// in the file; the config names the environment variables that carry them.
//
// Schema:
//
//	{
//	  "dataDir": "/home/user/.reception-hub",
//	  "http": {"addr": ":8080"},
//	  "matching": {
//	    "keywordOverlapThreshold": 0.5,
//	    "confidenceHigh": 0.85,
//	    "confidenceMedium": 0.7
//	  },
//	  "embeddings": {"enabled": false, "model": "text-embedding-004", "apiKeyEnv": "GEMINI_API_KEY"},
//	  "notifications": {"supervisorWebhookUrl": "", "followupWebhookUrl": "", "timeoutSeconds": 10},
//	  "sweep": {"schedule": "*/10 * * * *", "requestTimeoutHours": 24},
//	  "sessions": {"idleTimeoutMinutes": 30}
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the root configuration structure.
type Config struct {
	// DataDir holds the sqlite database. Defaults to ~/.reception-hub.
	DataDir string `json:"dataDir,omitempty"`

	// HTTP configures the API server.
	HTTP *HTTPSettings `json:"http,omitempty"`

	// Matching configures the knowledge-base match thresholds.
	Matching *MatchingSettings `json:"matching,omitempty"`

	// Embeddings configures semantic matching. Disabled by default; the
	// lexical pipeline alone is a fully supported configuration.
	Embeddings *EmbeddingSettings `json:"embeddings,omitempty"`

	// Notifications configures the supervisor and caller follow-up channels.
	Notifications *NotificationSettings `json:"notifications,omitempty"`

	// Sweep configures the periodic maintenance pass.
	Sweep *SweepSettings `json:"sweep,omitempty"`

	// Sessions configures conversation session retention.
	Sessions *SessionSettings `json:"sessions,omitempty"`
}

// HTTPSettings configures the API server.
type HTTPSettings struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr,omitempty"`
}

// MatchingSettings holds the match-engine thresholds.
type MatchingSettings struct {
	// KeywordOverlapThreshold is the token-overlap fraction a keyword match
	// must exceed.
	KeywordOverlapThreshold float64 `json:"keywordOverlapThreshold"`

	// ConfidenceHigh and ConfidenceMedium are the semantic similarity
	// cut-offs for the high and medium confidence tiers.
	ConfidenceHigh   float64 `json:"confidenceHigh"`
	ConfidenceMedium float64 `json:"confidenceMedium"`
}

// EmbeddingSettings configures the semantic matching upstream.
type EmbeddingSettings struct {
	// Enabled turns semantic matching on.
	Enabled bool `json:"enabled"`

	// Model is the embedding model name.
	Model string `json:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `json:"apiKeyEnv,omitempty"`
}

// NotificationSettings configures outbound notification channels.
// Empty URLs and tokens disable the respective channel.
type NotificationSettings struct {
	SupervisorWebhookURL string `json:"supervisorWebhookUrl,omitempty"`
	FollowupWebhookURL   string `json:"followupWebhookUrl,omitempty"`

	// TimeoutSeconds bounds a single delivery attempt.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	// SlackTokenEnv names the environment variable holding the bot token.
	SlackTokenEnv  string `json:"slackTokenEnv,omitempty"`
	SlackChannelID string `json:"slackChannelId,omitempty"`
}

// SweepSettings configures the periodic maintenance pass.
type SweepSettings struct {
	// Schedule is a standard 5-field cron expression. Empty disables the
	// sweep.
	Schedule string `json:"schedule,omitempty"`

	// RequestTimeoutHours is the age past which a pending help request is
	// marked unresolved.
	RequestTimeoutHours int `json:"requestTimeoutHours,omitempty"`
}

// SessionSettings configures conversation retention.
type SessionSettings struct {
	// IdleTimeoutMinutes is how long a session may sit untouched before
	// eviction.
	IdleTimeoutMinutes int `json:"idleTimeoutMinutes,omitempty"`
}

// NewConfig creates a configuration populated with defaults.
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir: filepath.Join(home, ".reception-hub"),
		HTTP:    &HTTPSettings{Addr: ":8080"},
		Matching: &MatchingSettings{
			KeywordOverlapThreshold: 0.5,
			ConfidenceHigh:          0.85,
			ConfidenceMedium:        0.70,
		},
		Embeddings: &EmbeddingSettings{
			Enabled:   false,
			Model:     "text-embedding-004",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Notifications: &NotificationSettings{
			TimeoutSeconds: 10,
			SlackTokenEnv:  "SLACK_BOT_TOKEN",
		},
		Sweep: &SweepSettings{
			Schedule:            "*/10 * * * *",
			RequestTimeoutHours: 24,
		},
		Sessions: &SessionSettings{IdleTimeoutMinutes: 30},
	}
}

// GetDefaultConfigPath returns the path to ~/.reception-hub/config.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".reception-hub", "config.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path. Sections absent
// from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrCreate loads the configuration from the default path, writing a
// fresh default config there on first run.
func LoadOrCreate() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		cfg := NewConfig()
		if err := Save(cfg, configPath); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return LoadFrom(configPath)
}

// Save writes the configuration to the specified path.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the runtime cannot work
// with. Returns an error describing the first problem found.
func (c *Config) Validate() error {
	if m := c.Matching; m != nil {
		if m.KeywordOverlapThreshold < 0 || m.KeywordOverlapThreshold > 1 {
			return fmt.Errorf("matching.keywordOverlapThreshold must be between 0 and 1, got %v", m.KeywordOverlapThreshold)
		}
		if m.ConfidenceHigh < 0 || m.ConfidenceHigh > 1 {
			return fmt.Errorf("matching.confidenceHigh must be between 0 and 1, got %v", m.ConfidenceHigh)
		}
		if m.ConfidenceMedium < 0 || m.ConfidenceMedium > 1 {
			return fmt.Errorf("matching.confidenceMedium must be between 0 and 1, got %v", m.ConfidenceMedium)
		}
		if m.ConfidenceMedium > m.ConfidenceHigh {
			return fmt.Errorf("matching.confidenceMedium (%v) must not exceed confidenceHigh (%v)", m.ConfidenceMedium, m.ConfidenceHigh)
		}
	}
	if s := c.Sweep; s != nil && s.RequestTimeoutHours < 0 {
		return fmt.Errorf("sweep.requestTimeoutHours must not be negative, got %d", s.RequestTimeoutHours)
	}
	if s := c.Sessions; s != nil && s.IdleTimeoutMinutes < 0 {
		return fmt.Errorf("sessions.idleTimeoutMinutes must not be negative, got %d", s.IdleTimeoutMinutes)
	}
	if n := c.Notifications; n != nil && n.TimeoutSeconds < 0 {
		return fmt.Errorf("notifications.timeoutSeconds must not be negative, got %d", n.TimeoutSeconds)
	}
	return nil
}

// RequestTimeout returns the configured help-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	if c.Sweep == nil || c.Sweep.RequestTimeoutHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Sweep.RequestTimeoutHours) * time.Hour
}

// SessionIdleTimeout returns the configured session idle timeout.
func (c *Config) SessionIdleTimeout() time.Duration {
	if c.Sessions == nil || c.Sessions.IdleTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Sessions.IdleTimeoutMinutes) * time.Minute
}

// NotificationTimeout returns the configured delivery timeout.
func (c *Config) NotificationTimeout() time.Duration {
	if c.Notifications == nil || c.Notifications.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Notifications.TimeoutSeconds) * time.Second
}
