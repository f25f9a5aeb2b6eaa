package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML either as a Go
// duration string ("5s", "2m") or as a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// An integer scalar would also decode into a string ("7", which
	// ParseDuration rejects), so the numeric form is checked by tag first.
	if value.Tag == "!!int" {
		var secs int
		if err := value.Decode(&secs); err != nil {
			return fmt.Errorf("invalid duration %q", value.Value)
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Mode selects which bridge paths run.
type Mode string

const (
	ModePush Mode = "push"
	ModePull Mode = "pull"
	ModeBoth Mode = "both"
)

// Config is the top-level bridge configuration.
type Config struct {
	Enabled    *bool            `yaml:"enabled"`
	Mode       Mode             `yaml:"mode"`
	Server     ServerConfig     `yaml:"server"`
	Remote     RemoteConfig     `yaml:"remote"`
	CursorFile string           `yaml:"cursor_file"`
	Agent      AgentConfig      `yaml:"agent"`
	Deliveries DeliveriesConfig `yaml:"deliveries"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds push-listener settings.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	PushToken string `yaml:"push_token"`
}

// RemoteConfig holds pull-stream connection settings.
type RemoteConfig struct {
	BaseURL      string   `yaml:"base_url"`
	AgentToken   string   `yaml:"agent_token"`
	PollInterval Duration `yaml:"poll_interval"`
}

// AgentConfig holds external agent invocation settings.
type AgentConfig struct {
	Command string   `yaml:"command"`
	Name    string   `yaml:"name"`
	Timeout Duration `yaml:"timeout"`
}

// DeliveriesConfig holds the recent-delivery store settings.
type DeliveriesConfig struct {
	Capacity int `yaml:"capacity"`
}

// MetricsConfig holds the optional standalone metrics listener address.
// When the push listener runs, metrics are always served on it at /metrics;
// Addr is for pull-only deployments.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IsEnabled reports whether the bridge should run at all. Absent means enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// PushConfigured reports whether the push path has the secret it needs.
func (c *Config) PushConfigured() bool {
	return c.Server.PushToken != ""
}

// PullConfigured reports whether the pull path has the credentials it needs.
func (c *Config) PullConfigured() bool {
	return c.Remote.BaseURL != "" && c.Remote.AgentToken != ""
}

// defaults applies sane defaults to zero-valued fields.
func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModePush
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.Path == "" {
		c.Server.Path = "/agentlink/message"
	}
	if c.Remote.PollInterval == 0 {
		c.Remote.PollInterval = Duration(2 * time.Second)
	}
	if c.CursorFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.CursorFile = filepath.Join(home, ".openclaw", "agentlink-cursor.json")
	}
	if c.Agent.Command == "" {
		c.Agent.Command = "openclaw"
	}
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = Duration(120 * time.Second)
	}
	if c.Deliveries.Capacity == 0 {
		c.Deliveries.Capacity = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// validate checks required fields and value constraints. A missing token or
// base URL is deliberately not an error here: a path without its credentials
// is skipped at startup with a warning, not rejected.
func (c *Config) validate() error {
	switch c.Mode {
	case ModePush, ModePull, ModeBoth:
	default:
		return fmt.Errorf("mode must be push, pull, or both, got %q", c.Mode)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Remote.PollInterval < 0 {
		return fmt.Errorf("remote.poll_interval must be non-negative")
	}
	if c.Agent.Timeout < 0 {
		return fmt.Errorf("agent.timeout must be non-negative")
	}
	if c.Deliveries.Capacity < 0 {
		return fmt.Errorf("deliveries.capacity must be non-negative")
	}
	return nil
}

// expandEnv replaces ${VAR} references in secret-bearing fields with
// environment variable values. This allows keeping secrets out of YAML.
func (c *Config) expandEnv() {
	c.Server.PushToken = os.ExpandEnv(c.Server.PushToken)
	c.Remote.BaseURL = os.ExpandEnv(c.Remote.BaseURL)
	c.Remote.AgentToken = os.ExpandEnv(c.Remote.AgentToken)
}

// Load reads a YAML config file, applies defaults, expands env vars, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.defaults()
	cfg.expandEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
