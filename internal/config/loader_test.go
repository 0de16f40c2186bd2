package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test basic config loading with defaults
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("GRAPHGATE_GRAPH_MOCK", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Graph.Timeout)
		assert.Equal(t, 3, cfg.Graph.MaxRetries)
		assert.Equal(t, 60*time.Second, cfg.Graph.RetryMaxWait)
		assert.Equal(t, 50, cfg.Graph.MaxConcurrent)
		assert.Equal(t, "2000,10", cfg.RateLimit["global"])
		assert.Equal(t, "5,1", cfg.RateLimit["search"])
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("GRAPHGATE_GRAPH_MOCK", "true")
		t.Setenv("GRAPHGATE_SERVER_PORT", "9999")
		t.Setenv("GRAPHGATE_GRAPH_MAX_RETRIES", "5")
		t.Setenv("GRAPHGATE_GRAPH_RETRY_MAX_WAIT", "90s")
		t.Setenv("GRAPHGATE_LOGGING_LEVEL", "debug")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, 5, cfg.Graph.MaxRetries)
		assert.Equal(t, 90*time.Second, cfg.Graph.RetryMaxWait)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
graph:
  mock: true
  max_concurrent: 8
rate_limits:
  mail: "150,60"
server:
  port: 8181
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.True(t, cfg.Graph.Mock)
		assert.Equal(t, 8, cfg.Graph.MaxConcurrent)
		assert.Equal(t, "150,60", cfg.RateLimit["mail"])
		assert.Equal(t, 8181, cfg.Server.Port)
		// Untouched keys keep their defaults.
		assert.Equal(t, "2000,10", cfg.RateLimit["global"])
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		cfg, err := Load("")
		require.Error(t, err)
		require.Nil(t, cfg)

		var missing *MissingConfigError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "azure.tenant_id", missing.Key)
	})

	t.Run("MockSkipsCredentialCheck", func(t *testing.T) {
		t.Setenv("GRAPHGATE_GRAPH_MOCK", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.Graph.Mock)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		t.Setenv("GRAPHGATE_GRAPH_MOCK", "true")
		t.Setenv("GRAPHGATE_GRAPH_MAX_CONCURRENT", "0")

		_, err := Load("")
		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "graph.max_concurrent", cerr.Key)
	})
}

func TestGetConfigTracksLoad(t *testing.T) {
	t.Setenv("GRAPHGATE_GRAPH_MOCK", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Same(t, cfg, GetConfig())
}
