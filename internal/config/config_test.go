package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "transfers.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "transfers-cli/1.0", cfg.Scrape.UserAgent)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, 3, cfg.Scrape.MaxRetries)
	assert.Equal(t, 120, cfg.Scrape.MaxAgeDays)
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/transfers
scrape:
  user_agent: transfers-bot/2.0
  max_age_days: 30
catalog:
  path: /etc/transfers/catalog.yaml
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/transfers", cfg.Store.DatabaseURL)
	assert.Equal(t, "transfers-bot/2.0", cfg.Scrape.UserAgent)
	assert.Equal(t, 30, cfg.Scrape.MaxAgeDays)
	assert.Equal(t, "/etc/transfers/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadMalformedYAML(t *testing.T) {
	chTempDir(t)

	require.NoError(t, os.WriteFile("config.yaml", []byte("store: [not: a: map"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json info", LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", LogConfig{Level: "debug", Format: "console"}, false},
		{"warn", LogConfig{Level: "warn", Format: "json"}, false},
		{"bad level", LogConfig{Level: "shouty", Format: "json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
}
