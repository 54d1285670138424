package layout

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const productName = "KILN MONITOR"

// BaseStrategy provides common functionality for all layout strategies
type BaseStrategy struct {
}

// NewBaseStrategy creates a new BaseStrategy instance
func NewBaseStrategy() *BaseStrategy {
	return &BaseStrategy{}
}

// Header draws the top bar: product, active view, time range, feed status
// and clock.
func (b *BaseStrategy) Header(c *Canvas, f *Frame) {
	width := c.Size().Width
	c.Fill(geometry.Rect{Width: width, Height: 1}, ' ', util.ColorReverse)

	app := f.App
	left := fmt.Sprintf(" ◆ %s │ %s", productName, app.ActiveView.Title())
	if tr, ok := app.TimeRangeFor(app.ActiveView); ok {
		left += " │ " + tr.String()
	}
	if app.Alert != nil {
		left += " │ ⚠ ALERT"
	}
	x := c.Text(0, 0, left, util.ColorReverse+util.ColorBold)

	right := b.Clock(f.Param) + " "
	switch {
	case f.UI.IsPaused:
		right = "⏸ paused │ " + right
	case f.Param.Connected == nil:
	case *f.Param.Connected:
		right = "● live │ " + right
	default:
		right = "○ offline │ " + right
	}
	rx := width - util.GetDisplayWidth(right)
	if rx > x+1 {
		c.Text(rx, 0, right, util.ColorReverse)
	}
}

// Clock formats the frame time in the configured 12h or 24h style.
func (b *BaseStrategy) Clock(p Param) string {
	if p.Now.IsZero() {
		return ""
	}
	if p.TimeFormat == "12h" {
		return p.Now.Format("3:04:05 PM")
	}
	return p.Now.Format("15:04:05")
}

// Footer draws the key hints, or the status message when one is set.
func (b *BaseStrategy) Footer(c *Canvas, f *Frame) {
	s := c.Size()
	if s.Height < 2 {
		return
	}
	y := s.Height - 1
	if f.UI.StatusMessage != "" {
		c.Text(1, y, "Status: "+f.UI.StatusMessage, util.ColorYellow)
		return
	}
	hints := "Tab view  t range  r refresh  f chart  a assistant  m mic  h help  q quit"
	if f.App.Alert != nil {
		hints = "y approve  n deny  " + hints
	}
	c.Text(1, y, util.Truncate(hints, s.Width-2), util.ColorGray)
}

// ViewBody draws the active view, or its fullscreen chart placeholder.
func (b *BaseStrategy) ViewBody(c *Canvas, area geometry.Rect, f *Frame) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	RenderView(c, area, f)
}

// SeparatorLine creates a separator line of the given width
func (b *BaseStrategy) SeparatorLine(width int) string {
	return strings.Repeat("─", max(width, 0))
}
