// Package config loads go-kiln-monitor settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Config is the full settings tree.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Server    ServerConfig    `mapstructure:"server"`
	Anomaly   AnomalyConfig   `mapstructure:"anomaly"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	StaleOnError bool          `mapstructure:"stale_on_error"`
}

type DashboardConfig struct {
	RefreshRate        time.Duration `mapstructure:"refresh_rate"`
	UIRefreshPerSecond float64       `mapstructure:"ui_refresh_per_second"`
	DefaultView        string        `mapstructure:"default_view"`
	Timezone           string        `mapstructure:"timezone"`
	TimeFormat         string        `mapstructure:"time_format"`
	Layout             string        `mapstructure:"layout"`
	Mouse              bool          `mapstructure:"mouse"`

	AlertSource        string        `mapstructure:"alert_source"`
	AlertFeedFile      string        `mapstructure:"alert_feed_file"`
	ScriptedAlertDelay time.Duration `mapstructure:"scripted_alert_delay"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`

	FeedbackDelay time.Duration `mapstructure:"feedback_delay"`
	ListenDelay   time.Duration `mapstructure:"listen_delay"`
	SpeakDelay    time.Duration `mapstructure:"speak_delay"`

	PanelWidth     int `mapstructure:"panel_width"`
	PanelHeight    int `mapstructure:"panel_height"`
	PanelMinWidth  int `mapstructure:"panel_min_width"`
	PanelMinHeight int `mapstructure:"panel_min_height"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	DBPath        string        `mapstructure:"db_path"`
	Seed          int64         `mapstructure:"seed"`
	AlertInterval time.Duration `mapstructure:"alert_interval"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	Burst         int           `mapstructure:"burst"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
}

// Rule bounds one metric; values outside [Min, Max] are anomalies.
type Rule struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type AnomalyConfig struct {
	Rules map[string]Rule `mapstructure:"rules"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Alert source names.
const (
	AlertSourceScripted  = "scripted"
	AlertSourceWebSocket = "websocket"
	AlertSourceFile      = "file"
	AlertSourceNone      = "none"
)

const (
	EnvPrefix  = "KILN"
	configName = "config"
	configDir  = "~/.go-kiln-monitor"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.cache_ttl", "60s")
	v.SetDefault("api.stale_on_error", false)

	v.SetDefault("dashboard.refresh_rate", "30s")
	v.SetDefault("dashboard.ui_refresh_per_second", 1.0)
	v.SetDefault("dashboard.default_view", string(model.ViewOverview))
	v.SetDefault("dashboard.timezone", "Local")
	v.SetDefault("dashboard.time_format", "24h")
	v.SetDefault("dashboard.layout", "full")
	v.SetDefault("dashboard.mouse", true)
	v.SetDefault("dashboard.alert_source", AlertSourceScripted)
	v.SetDefault("dashboard.alert_feed_file", "~/.go-kiln-monitor/alerts.jsonl")
	v.SetDefault("dashboard.scripted_alert_delay", "10s")
	v.SetDefault("dashboard.reconnect_delay", "5s")
	v.SetDefault("dashboard.feedback_delay", "3s")
	v.SetDefault("dashboard.listen_delay", "3s")
	v.SetDefault("dashboard.speak_delay", "4s")
	v.SetDefault("dashboard.panel_width", 44)
	v.SetDefault("dashboard.panel_height", 14)
	v.SetDefault("dashboard.panel_min_width", 28)
	v.SetDefault("dashboard.panel_min_height", 8)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.db_path", "~/.go-kiln-monitor/kiln.db")
	v.SetDefault("server.seed", 42)
	v.SetDefault("server.alert_interval", "45s")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("anomaly.rules", map[string]any{
		"kiln_temp": map[string]any{"min": 1400.0, "max": 1480.0},
		"oxygen":    map[string]any{"min": 1.5, "max": 3.0},
		"pressure":  map[string]any{"min": -6.0, "max": -4.5},
		"fcao":      map[string]any{"min": 0.8, "max": 2.5},
		"fuel_rate": map[string]any{"min": 10.0, "max": 14.0},
	})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads configuration from file and environment variables.
// KILN_API_BASE_URL overrides api.base_url, and so on.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(ExpandPath(configPath))
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(ExpandPath(configDir))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}
	return v, nil
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations, and expands ~ in paths.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}

	d := &c.Dashboard
	if d.RefreshRate <= 0 {
		d.RefreshRate = 30 * time.Second
	}
	if d.UIRefreshPerSecond < 0.1 || d.UIRefreshPerSecond > 20 {
		return fmt.Errorf("dashboard.ui_refresh_per_second must be between 0.1 and 20, got %v", d.UIRefreshPerSecond)
	}
	if _, err := model.ParseView(d.DefaultView); err != nil {
		return fmt.Errorf("dashboard.default_view: %w", err)
	}
	if d.TimeFormat != "12h" && d.TimeFormat != "24h" {
		return fmt.Errorf("invalid time format '%s': must be either '12h' or '24h'", d.TimeFormat)
	}
	switch d.AlertSource {
	case AlertSourceScripted, AlertSourceWebSocket, AlertSourceFile, AlertSourceNone:
	default:
		return fmt.Errorf("dashboard.alert_source must be one of scripted, websocket, file, none; got %q", d.AlertSource)
	}
	d.AlertFeedFile = ExpandPath(d.AlertFeedFile)
	if d.PanelMinWidth < 10 || d.PanelMinHeight < 5 {
		return fmt.Errorf("assistant panel minimum size too small: %dx%d", d.PanelMinWidth, d.PanelMinHeight)
	}
	d.PanelWidth = max(d.PanelWidth, d.PanelMinWidth)
	d.PanelHeight = max(d.PanelHeight, d.PanelMinHeight)

	if c.Server.RateLimit <= 0 || c.Server.Burst <= 0 {
		return errors.New("server.rate_limit and server.burst must be positive")
	}
	c.Server.DBPath = ExpandPath(c.Server.DBPath)

	for name, r := range c.Anomaly.Rules {
		if r.Min > r.Max {
			return fmt.Errorf("anomaly rule %s: min %.2f exceeds max %.2f", name, r.Min, r.Max)
		}
	}
	return nil
}

// Watch reloads the config whenever the backing file changes and hands
// the new, validated Config to onChange. Invalid edits are reported through
// onError and otherwise ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// ExpandPath resolves a leading ~/ against the home directory. Special
// values such as ":memory:" pass through unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	return path
}
