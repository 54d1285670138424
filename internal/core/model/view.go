package model

import (
	"errors"
	"fmt"
	"strings"
)

// View names one dashboard screen.
type View string

const (
	ViewOverview   View = "overview"
	ViewKilnHealth View = "kiln_health"
	ViewEnergy     View = "energy_cockpit"
	ViewQuality    View = "predictive_quality"
	ViewFlow       View = "process_flow"
	ViewVariance   View = "variance_analysis"
	ViewAgent      View = "agent_actions"
	ViewSettings   View = "settings"
)

var ErrUnknownView = errors.New("unknown view")

var views = []View{
	ViewOverview, ViewKilnHealth, ViewEnergy, ViewQuality,
	ViewFlow, ViewVariance, ViewAgent, ViewSettings,
}

// AllViews lists views in sidebar order.
func AllViews() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// ParseView accepts a view name, also tolerating dashes ("kiln-health").
func ParseView(s string) (View, error) {
	name := View(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, v := range views {
		if v == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Title is the human label shown in the sidebar and header.
func (v View) Title() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewKilnHealth:
		return "Kiln Health"
	case ViewEnergy:
		return "Energy Cockpit"
	case ViewQuality:
		return "Predictive Quality"
	case ViewFlow:
		return "Realtime Flow"
	case ViewVariance:
		return "Variance Analysis"
	case ViewAgent:
		return "AI Agent Actions"
	case ViewSettings:
		return "Settings"
	default:
		return string(v)
	}
}

// DefaultTimeRange reports the initial window for views whose endpoint is
// time-scoped; ok is false for views that ignore the time range.
func (v View) DefaultTimeRange() (tr TimeRange, ok bool) {
	switch v {
	case ViewKilnHealth:
		return Range24h, true
	case ViewEnergy, ViewQuality:
		return Range7d, true
	default:
		return "", false
	}
}

// Index is the position in AllViews, or -1.
func (v View) Index() int {
	for i, candidate := range views {
		if candidate == v {
			return i
		}
	}
	return -1
}
