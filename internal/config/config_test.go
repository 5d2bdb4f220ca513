// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ticket-monitor", cfg.App.Name)
	assert.Equal(t, 10, cfg.Monitoring.MaxConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Monitoring.CycleInterval)
	assert.Equal(t, 2*time.Second, cfg.Monitoring.PlatformTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Monitoring.MaxBackoff)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, 25, cfg.Storage.MaxConnections)

	assert.Equal(t, 60*time.Second, cfg.Cache.SummaryTTL)
	assert.Equal(t, 50, cfg.Cache.FeedSize)

	assert.Equal(t, 10*time.Second, cfg.Notifications.DispatchTimeout)
	assert.False(t, cfg.Notifications.Email.Enabled)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.True(t, cfg.Server.EnableMetrics)

	require.Contains(t, cfg.Platforms, "ticketmaster")
	assert.True(t, cfg.Platforms["ticketmaster"].Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: custom-monitor
monitoring:
  max_concurrency: 3
  cycle_interval: 1s
platforms:
  ticketmaster:
    enabled: true
    base_url: https://tm.example.com
    api_key: secret
  stubhub:
    enabled: false
storage:
  type: postgres
  connection_string: postgres://localhost/tickets
cache:
  summary_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-monitor", cfg.App.Name)
	assert.Equal(t, 3, cfg.Monitoring.MaxConcurrency)
	assert.Equal(t, time.Second, cfg.Monitoring.CycleInterval)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "https://tm.example.com", cfg.Platforms["ticketmaster"].BaseURL)
	assert.Equal(t, "secret", cfg.Platforms["ticketmaster"].APIKey)
	assert.False(t, cfg.Platforms["stubhub"].Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.SummaryTTL)

	// Unset sections keep their defaults
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Monitoring: MonitoringConfig{
				MaxConcurrency:  10,
				PlatformTimeout: 2 * time.Second,
			},
			Storage: StorageConfig{ConnectionString: "./data/monitors.db"},
			Cache:   CacheConfig{SummaryTTL: time.Minute},
			Platforms: map[string]PlatformConfig{
				"ticketmaster": {Enabled: true},
			},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Storage.ConnectionString = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Monitoring.MaxConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Monitoring.PlatformTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cache.SummaryTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Platforms["ticketmaster"] = PlatformConfig{Enabled: false}
	assert.Error(t, cfg.Validate(), "At least one platform must stay enabled")
}
