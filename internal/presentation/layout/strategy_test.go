package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
)

var screen = geometry.Size{Width: 110, Height: 32}

func ptr[T any](v T) *T { return &v }

func newFrame(view model.View) *Frame {
	return &Frame{
		App:   model.NewAppState(view),
		UI:    model.InteractionState{LayoutStyle: "full"},
		Param: Param{Now: time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)},
	}
}

func kilnHealth(n int) *model.KilnHealth {
	k := &model.KilnHealth{Status: "normal", RecentAlerts: []model.KilnAlert{}}
	for i := range n {
		k.Trends = append(k.Trends, model.KilnTrendPoint{
			Time: fmt.Sprintf("%02d:00", i), Temp: ptr(1440 + float64(i)), Pressure: ptr(-1.2), Oxygen: ptr(2.1),
		})
	}
	k.OperationalParameters = &model.OperationalParameters{KilnTemp: &model.Reading{Value: 1450, Unit: "°C"}}
	return k
}

func render(f *Frame) string {
	c := NewCanvas(screen)
	Compose(c, GetLayoutStrategy(f.UI.LayoutStyle), f)
	return c.String()
}

func TestGetLayoutStrategy(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"full", "Full Dashboard"},
		{"compact", "Compact Dashboard"},
		{"unknown", "Full Dashboard"},
		{"", "Full Dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			assert.Equal(t, tt.want, GetLayoutStrategy(tt.style).GetName())
		})
	}
	assert.Equal(t, "compact", NextLayoutStyle("full"))
	assert.Equal(t, "full", NextLayoutStyle("compact"))
}

func TestSidebarHit(t *testing.T) {
	full := GetLayoutStrategy("full")
	tests := []struct {
		name string
		p    geometry.Point
		want model.View
		ok   bool
	}{
		{"first entry", geometry.Point{X: 3, Y: 2}, model.ViewOverview, true},
		{"flow entry", geometry.Point{X: 10, Y: 6}, model.ViewFlow, true},
		{"last entry", geometry.Point{X: 10, Y: 9}, model.ViewSettings, true},
		{"below list", geometry.Point{X: 10, Y: 10}, "", false},
		{"border", geometry.Point{X: 0, Y: 3}, "", false},
		{"content area", geometry.Point{X: 40, Y: 3}, "", false},
		{"header", geometry.Point{X: 3, Y: 0}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := full.SidebarHit(screen, tt.p)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v)
		})
	}

	_, ok := GetLayoutStrategy("compact").SidebarHit(screen, geometry.Point{X: 3, Y: 2})
	assert.False(t, ok)
}

func TestComposeHeader(t *testing.T) {
	f := newFrame(model.ViewKilnHealth)
	connected := true
	f.Param.Connected = &connected

	out := render(f)
	header := strings.Split(out, "\n")[0]
	assert.Contains(t, header, "KILN MONITOR")
	assert.Contains(t, header, "Kiln Health")
	assert.Contains(t, header, "24h")
	assert.Contains(t, header, "● live")
	assert.Contains(t, header, "14:05:00")

	f.Param.TimeFormat = "12h"
	f.UI.IsPaused = true
	header = strings.Split(render(f), "\n")[0]
	assert.Contains(t, header, "2:05:00 PM")
	assert.Contains(t, header, "paused")
}

func TestComposeViewStates(t *testing.T) {
	tests := []struct {
		name  string
		setup func(app *model.AppState)
		want  []string
	}{
		{
			name: "loading",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewEnergy
				app.Data.Energy = model.ViewSnapshot[*model.EnergyCockpit]{Status: model.StatusLoading, TimeRange: model.Range7d}
			},
			want: []string{"Loading Energy Cockpit (7d)"},
		},
		{
			name: "network error",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewKilnHealth
				app.Data.Kiln = model.ViewSnapshot[*model.KilnHealth]{
					Status: model.StatusError,
					Err:    &api.Error{Kind: api.KindNetwork, Endpoint: "/api/kiln-health", Err: errors.New("connection refused")},
				}
			},
			want: []string{"API unreachable", "connection refused", "press r to retry"},
		},
		{
			name: "partial settings",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewSettings
				app.Data.Settings = model.ViewSnapshot[*model.Settings]{
					Status:  model.StatusPartial,
					Data:    &model.Settings{Language: "en", NotificationsEnabled: ptr(false)},
					Missing: []string{"darkMode"},
				}
			},
			want: []string{"Missing: darkMode", "Language        en", "Dark mode       —", "Notifications   off"},
		},
		{
			name: "refreshing keeps data",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewKilnHealth
				app.Data.Kiln = model.ViewSnapshot[*model.KilnHealth]{Status: model.StatusReady, Data: kilnHealth(24), Refreshing: true}
			},
			want: []string{"refreshing", "Temperature", "1,450.0 °C"},
		},
		{
			name: "flow with alerting node",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewFlow
				app.Data.Flow = model.ViewSnapshot[[]model.ProcessNode]{Status: model.StatusReady, Data: model.PlantStages()}
				app.AlertingNodes["5"] = "Burning zone over temperature"
			},
			want: []string{"Kiln Burning", "ALERT: Burning zone over temperature", "Realtime Flow ⚠"},
		},
		{
			name: "variance anomalies",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewVariance
				app.Data.Variance = model.ViewSnapshot[[]model.VarianceRow]{Status: model.StatusReady, Data: []model.VarianceRow{
					{MetricName: "Kiln Inlet O2", Value: ptr(3.4), Target: ptr(2.5), Deviation: ptr(0.9), Timestamp: "2026-03-01 14:00", IsAnomaly: true},
				}}
			},
			want: []string{"Kiln Inlet O2", "ANOMALY"},
		},
		{
			name: "agent selection",
			setup: func(app *model.AppState) {
				app.ActiveView = model.ViewAgent
				app.Data.Agent = model.ViewSnapshot[*model.AgentData]{Status: model.StatusReady, Data: &model.AgentData{
					Recommendations: []model.Recommendation{
						{ID: 1, Status: model.RecommendationPending, Recommendation: "Increase ID fan speed", Confidence: ptr(0.9)},
					},
					Actions: []model.AgentAction{{Status: "success", Action: "Adjusted fuel feed", Parameter: "fuel_rate", Value: "12.4", Timestamp: "2026-03-01 13:00"}},
				}}
			},
			want: []string{"▶ #1 Increase ID fan speed", "90%", "Adjusted fuel feed", "fuel_rate = 12.4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFrame(model.ViewOverview)
			tt.setup(f.App)
			out := render(f)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestComposeAssistantPanel(t *testing.T) {
	f := newFrame(model.ViewOverview)
	f.App.AssistantOpen = true
	f.App.Panel = geometry.Rect{Left: 70, Top: 4, Width: 34, Height: 12}
	f.App.Conversation = model.ConversationAlerting
	f.App.Alert = &model.Alert{ID: "a1", Message: "Kiln temp high", TargetNodeID: "5"}

	c := NewCanvas(screen)
	Compose(c, GetLayoutStrategy("full"), f)
	lines := c.Lines()

	require.Greater(t, len([]rune(lines[4])), 70)
	assert.Equal(t, '╭', []rune(lines[4])[70])
	assert.Contains(t, lines[4], "Kiln Assistant")
	assert.Contains(t, lines[5], "⠿ voice")
	out := c.String()
	assert.Contains(t, out, "Kiln temp high")
	assert.Contains(t, out, "y approve  n deny")
}

func TestComposeAssistantChatTranscript(t *testing.T) {
	f := newFrame(model.ViewOverview)
	f.App.AssistantOpen = true
	f.App.AssistantMode = model.AssistantChat
	f.App.Panel = geometry.Rect{Left: 55, Top: 4, Width: 50, Height: 14}
	f.App.AddTranscript("Assistant: Action approved and executed.")

	out := render(f)
	assert.Contains(t, out, "Action approved and executed.")
	assert.Contains(t, out, "c voice")
}

func TestAssistantRect(t *testing.T) {
	app := model.NewAppState(model.ViewOverview)
	app.Panel = geometry.Rect{Left: 5, Top: 5, Width: 30, Height: 10}
	assert.Equal(t, app.Panel, AssistantRect(screen, app))

	app.AssistantFullscreen = true
	assert.Equal(t, geometry.Rect{Left: 0, Top: 1, Width: screen.Width, Height: screen.Height - 1}, AssistantRect(screen, app))
}

func TestComposeFullscreenChart(t *testing.T) {
	f := newFrame(model.ViewKilnHealth)
	f.App.FullscreenChart = true
	f.App.Data.Kiln = model.ViewSnapshot[*model.KilnHealth]{Status: model.StatusReady, Data: kilnHealth(48)}

	out := render(f)
	assert.Contains(t, out, "Kiln temperature (24h)")
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "f close")

	f.App.ActiveView = model.ViewSettings
	assert.Contains(t, render(f), "No chart for this view")
}

func TestViewportClamp(t *testing.T) {
	assert.Equal(t, geometry.Size{Width: MinWidth, Height: MinHeight}, ClampViewport(geometry.Size{Width: 10, Height: 5}))
	assert.Equal(t, screen, ClampViewport(screen))
	// Not a terminal: fall back.
	assert.Equal(t, geometry.Size{Width: fallbackWidth, Height: fallbackHeight}, NewSizer(-1).Viewport())
}
