package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v, err := LoadConfig("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Minute, cfg.API.CacheTTL)
	assert.Equal(t, AlertSourceScripted, cfg.Dashboard.AlertSource)
	assert.Equal(t, 10*time.Second, cfg.Dashboard.ScriptedAlertDelay)
	assert.Equal(t, 3*time.Second, cfg.Dashboard.FeedbackDelay)
	assert.Equal(t, 4*time.Second, cfg.Dashboard.SpeakDelay)
	assert.Equal(t, int64(42), cfg.Server.Seed)
	require.Contains(t, cfg.Anomaly.Rules, "kiln_temp")
	assert.Equal(t, Rule{Min: 1400, Max: 1480}, cfg.Anomaly.Rules["kiln_temp"])
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiln.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://kiln.plant.local:9000
dashboard:
  alert_source: websocket
  feedback_delay: 500ms
anomaly:
  rules:
    oxygen:
      min: 2.0
      max: 2.8
`), 0o644))
	t.Setenv("KILN_SERVER_ADDR", ":9999")

	v, err := LoadConfig(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://kiln.plant.local:9000", cfg.API.BaseURL)
	assert.Equal(t, AlertSourceWebSocket, cfg.Dashboard.AlertSource)
	assert.Equal(t, 500*time.Millisecond, cfg.Dashboard.FeedbackDelay)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, Rule{Min: 2.0, Max: 2.8}, cfg.Anomaly.Rules["oxygen"])
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			API: APIConfig{BaseURL: "http://localhost:8080", Timeout: time.Second},
			Dashboard: DashboardConfig{
				UIRefreshPerSecond: 1,
				DefaultView:        "overview",
				TimeFormat:         "24h",
				AlertSource:        AlertSourceNone,
				PanelMinWidth:      28,
				PanelMinHeight:     8,
			},
			Server: ServerConfig{RateLimit: 10, Burst: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "base_url"},
		{name: "bad view", mutate: func(c *Config) { c.Dashboard.DefaultView = "boiler" }, wantErr: "default_view"},
		{name: "bad time format", mutate: func(c *Config) { c.Dashboard.TimeFormat = "36h" }, wantErr: "time format"},
		{name: "bad alert source", mutate: func(c *Config) { c.Dashboard.AlertSource = "pager" }, wantErr: "alert_source"},
		{name: "refresh too fast", mutate: func(c *Config) { c.Dashboard.UIRefreshPerSecond = 50 }, wantErr: "ui_refresh_per_second"},
		{name: "panel too small", mutate: func(c *Config) { c.Dashboard.PanelMinWidth = 4 }, wantErr: "too small"},
		{name: "inverted rule", mutate: func(c *Config) {
			c.Anomaly.Rules = map[string]Rule{"oxygen": {Min: 3, Max: 1}}
		}, wantErr: "oxygen"},
		{name: "zero rate limit", mutate: func(c *Config) { c.Server.RateLimit = 0 }, wantErr: "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 30*time.Second, c.Dashboard.RefreshRate, "refresh rate defaulted")
				assert.Equal(t, 28, c.Dashboard.PanelWidth, "panel width raised to minimum")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b.db"), ExpandPath("~/a/b.db"))
	assert.Equal(t, ":memory:", ExpandPath(":memory:"))
	assert.Equal(t, "/tmp/x", ExpandPath("/tmp/x"))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{name: "json info", cfg: LoggingConfig{Level: "info", Format: "json"}},
		{name: "console debug", cfg: LoggingConfig{Level: "debug", Format: "console"}},
		{name: "default format", cfg: LoggingConfig{Level: "warn"}},
		{name: "bad level", cfg: LoggingConfig{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestWatchReloadsRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("anomaly:\n  rules:\n    oxygen:\n      min: 1.0\n      max: 2.0\n"), 0o644))

	v, err := LoadConfig(path)
	require.NoError(t, err)

	reloaded := make(chan *Config, 16)
	Watch(v, func(c *Config) { reloaded <- c }, nil)

	require.NoError(t, os.WriteFile(path, []byte("anomaly:\n  rules:\n    oxygen:\n      min: 1.2\n      max: 2.4\n"), 0o644))

	// A write may surface as several events; wait for the final content.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Anomaly.Rules["oxygen"].Max == 2.4 {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}
