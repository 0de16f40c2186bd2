// Package config provides centralized configuration management for graphgate.
// Configuration merges three layers: built-in defaults, an optional YAML
// config file, and GRAPHGATE_* environment variables (highest precedence).
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "GRAPHGATE"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// Load reads configuration from defaults, the optional config file, and the
// environment, and validates the result. Safe to call multiple times (config
// reload).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// setDefaults installs the built-in layer. Rate limits follow the upstream
// service's documented per-workload throttling budgets.
func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("graph.timeout", "30s")
	v.SetDefault("graph.max_connections", 100)
	v.SetDefault("graph.max_keepalive", 20)
	v.SetDefault("graph.max_retries", 3)
	v.SetDefault("graph.retry_max_wait", "60s")
	v.SetDefault("graph.max_concurrent", 50)
	v.SetDefault("graph.mock", false)

	v.SetDefault("rate_limits.global", "2000,10")
	v.SetDefault("rate_limits.mail", "10000,600")
	v.SetDefault("rate_limits.calendar", "10000,600")
	v.SetDefault("rate_limits.teams_messages", "120,60")
	v.SetDefault("rate_limits.search", "5,1")
	v.SetDefault("rate_limits.users", "10000,600")
	v.SetDefault("rate_limits.files", "10000,600")
	v.SetDefault("rate_limits.meetings", "10000,600")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
