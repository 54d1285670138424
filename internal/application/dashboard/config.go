package dashboard

import (
	"fmt"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/assistant"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Layout styles
const (
	LayoutFull    = "full"
	LayoutCompact = "compact"
)

// DashboardConfig contains configuration for the dashboard
type DashboardConfig struct {
	// Display settings
	Timezone   string
	TimeFormat string
	Layout     string
	Mouse      bool

	// Refresh settings
	DataRefreshInterval time.Duration
	UIRefreshRate       float64
	RequestTimeout      time.Duration

	// Navigation
	DefaultView model.View

	// Alert feed
	AlertSource        string
	AlertFeedFile      string
	AlertChannelURL    string
	ScriptedAlertDelay time.Duration
	ReconnectDelay     time.Duration

	// Assistant panel
	Assistant assistant.Config
	PanelSize geometry.Size
	PanelMin  geometry.Size
}

// FromConfig maps the loaded configuration onto dashboard settings.
func FromConfig(c *config.Config) *DashboardConfig {
	d := c.Dashboard
	view, _ := model.ParseView(d.DefaultView)
	return &DashboardConfig{
		Timezone:            d.Timezone,
		TimeFormat:          d.TimeFormat,
		Layout:              d.Layout,
		Mouse:               d.Mouse,
		DataRefreshInterval: d.RefreshRate,
		UIRefreshRate:       d.UIRefreshPerSecond,
		RequestTimeout:      c.API.Timeout,
		DefaultView:         view,
		AlertSource:         d.AlertSource,
		AlertFeedFile:       d.AlertFeedFile,
		ScriptedAlertDelay:  d.ScriptedAlertDelay,
		ReconnectDelay:      d.ReconnectDelay,
		Assistant: assistant.Config{
			FeedbackDelay: d.FeedbackDelay,
			ListenDelay:   d.ListenDelay,
			SpeakDelay:    d.SpeakDelay,
		},
		PanelSize: geometry.Size{Width: d.PanelWidth, Height: d.PanelHeight},
		PanelMin:  geometry.Size{Width: d.PanelMinWidth, Height: d.PanelMinHeight},
	}
}

// Validate checks if the configuration is valid
func (c *DashboardConfig) Validate() error {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "24h"
	}
	switch c.Layout {
	case "":
		c.Layout = LayoutFull
	case LayoutFull, LayoutCompact:
	default:
		return fmt.Errorf("unknown layout %q (want full or compact)", c.Layout)
	}
	if c.DataRefreshInterval == 0 {
		c.DataRefreshInterval = 30 * time.Second
	}
	if c.UIRefreshRate == 0 {
		c.UIRefreshRate = 1.0
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.DefaultView == "" {
		c.DefaultView = model.ViewOverview
	}
	if c.DefaultView.Index() < 0 {
		return fmt.Errorf("%w: %q", model.ErrUnknownView, c.DefaultView)
	}
	if c.AlertSource == "" {
		c.AlertSource = config.AlertSourceScripted
	}
	if c.ScriptedAlertDelay == 0 {
		c.ScriptedAlertDelay = 10 * time.Second
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 5 * time.Second
	}

	defaults := assistant.DefaultConfig()
	if c.Assistant.FeedbackDelay == 0 {
		c.Assistant.FeedbackDelay = defaults.FeedbackDelay
	}
	if c.Assistant.ListenDelay == 0 {
		c.Assistant.ListenDelay = defaults.ListenDelay
	}
	if c.Assistant.SpeakDelay == 0 {
		c.Assistant.SpeakDelay = defaults.SpeakDelay
	}

	if c.PanelMin.Width == 0 {
		c.PanelMin.Width = 28
	}
	if c.PanelMin.Height == 0 {
		c.PanelMin.Height = 8
	}
	c.PanelSize.Width = max(c.PanelSize.Width, c.PanelMin.Width)
	c.PanelSize.Height = max(c.PanelSize.Height, c.PanelMin.Height)
	return nil
}
