package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration, merged from
// defaults, an optional YAML file, and GRAPHGATE_* environment variables.
type Config struct {
	Azure     AzureConfig       `mapstructure:"azure"`
	Graph     GraphConfig       `mapstructure:"graph"`
	RateLimit map[string]string `mapstructure:"rate_limits"`
	Server    ServerConfig      `mapstructure:"server"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Health    HealthConfig      `mapstructure:"health"`
}

// AzureConfig identifies the application registration used for the
// client-credentials exchange.
type AzureConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// GraphConfig tunes the outbound request pipeline.
type GraphConfig struct {
	BaseURL string `mapstructure:"base_url"`

	// HTTP client tuning.
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxConns     int           `mapstructure:"max_connections"`
	MaxKeepAlive int           `mapstructure:"max_keepalive"`

	// Retry policy bounds.
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryMaxWait time.Duration `mapstructure:"retry_max_wait"`

	// Global concurrency ceiling.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// Mock selects the in-process backend instead of the real Graph API.
	Mock bool `mapstructure:"mock"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
// Profile selects the logging complexity level (SIMPLE for CLI commands,
// STRUCTURED for the server).
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port in JSON format
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks the loaded configuration for values that would make the
// process unusable. Credential fields are required unless the mock backend
// is selected.
func (c *Config) Validate() error {
	if !c.Graph.Mock {
		for _, f := range []struct{ key, val string }{
			{"azure.tenant_id", c.Azure.TenantID},
			{"azure.client_id", c.Azure.ClientID},
			{"azure.client_secret", c.Azure.ClientSecret},
		} {
			if strings.TrimSpace(f.val) == "" {
				return &MissingConfigError{Key: f.key}
			}
		}
	}

	if c.Graph.Timeout <= 0 {
		return &ConfigError{Key: "graph.timeout", Message: "must be positive"}
	}
	if c.Graph.MaxConns <= 0 {
		return &ConfigError{Key: "graph.max_connections", Message: "must be positive"}
	}
	if c.Graph.MaxRetries < 0 {
		return &ConfigError{Key: "graph.max_retries", Message: "must not be negative"}
	}
	if c.Graph.MaxConcurrent <= 0 {
		return &ConfigError{Key: "graph.max_concurrent", Message: "must be positive"}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Key: "server.port", Message: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}
	return nil
}

// ConfigError reports a configuration value that failed validation.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Message)
}

// MissingConfigError reports a required configuration value left unset.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}
