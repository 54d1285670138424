package layout

import (
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Param carries the display settings for one frame.
type Param struct {
	TimeFormat string
	Now        time.Time
	// Connected reports whether the alert push channel is up; nil when the
	// alert source has no connection.
	Connected *bool
	// SortLabel names the recommendation sort order.
	SortLabel string
}

// Frame is everything a layout needs to draw one screen.
type Frame struct {
	App   *model.AppState
	UI    model.InteractionState
	Param Param
}

// LayoutStrategy defines the interface for different layout rendering strategies
type LayoutStrategy interface {
	Render(c *Canvas, f *Frame)
	GetName() string
	// ContentArea is where the active view is drawn on a screen of size s.
	ContentArea(s geometry.Size) geometry.Rect
	// SidebarHit maps a pointer press to the view listed under it.
	SidebarHit(s geometry.Size, p geometry.Point) (model.View, bool)
}

// GetLayoutStrategy returns the appropriate layout strategy based on the style
func GetLayoutStrategy(layoutStyle string) LayoutStrategy {
	strategies := map[string]LayoutStrategy{
		"full":    &FullLayoutStrategy{},
		"compact": &CompactLayoutStrategy{},
	}

	if strategy, exists := strategies[layoutStyle]; exists {
		return strategy
	}

	// Default to full dashboard if invalid style
	return &FullLayoutStrategy{}
}

// NextLayoutStyle cycles full and compact.
func NextLayoutStyle(layoutStyle string) string {
	if layoutStyle == "compact" {
		return "full"
	}
	return "compact"
}

// Compose draws a complete frame: the layout, the fullscreen chart if one is
// open, then the floating assistant panel on top.
func Compose(c *Canvas, strategy LayoutStrategy, f *Frame) {
	strategy.Render(c, f)
	area := strategy.ContentArea(c.Size())
	if f.App.FullscreenChart {
		RenderFullscreenChart(c, area, f.App)
	}
	if f.App.AssistantOpen {
		RenderAssistant(c, AssistantRect(c.Size(), f.App), f)
	}
}

// AssistantRect is where the assistant panel is drawn: its own geometry,
// or everything below the header when fullscreen.
func AssistantRect(s geometry.Size, app *model.AppState) geometry.Rect {
	if app.AssistantFullscreen {
		return geometry.Rect{Left: 0, Top: 1, Width: s.Width, Height: max(s.Height-1, 0)}
	}
	return app.Panel
}
