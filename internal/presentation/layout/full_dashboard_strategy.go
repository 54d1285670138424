package layout

import (
	"fmt"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const (
	sidebarWidth = 26
	// First sidebar entry row; row 0 is the header, row 1 the sidebar border.
	sidebarFirstRow = 2
)

// FullLayoutStrategy implements the full dashboard layout: header, sidebar
// of views and the active view on the right.
type FullLayoutStrategy struct {
	BaseStrategy
}

func (s *FullLayoutStrategy) GetName() string {
	return "Full Dashboard"
}

func (s *FullLayoutStrategy) ContentArea(size geometry.Size) geometry.Rect {
	return geometry.Rect{
		Left:   sidebarWidth + 1,
		Top:    1,
		Width:  max(size.Width-sidebarWidth-2, 0),
		Height: max(size.Height-2, 0),
	}
}

func (s *FullLayoutStrategy) SidebarHit(size geometry.Size, p geometry.Point) (model.View, bool) {
	if p.X <= 0 || p.X >= sidebarWidth-1 {
		return "", false
	}
	idx := p.Y - sidebarFirstRow
	views := model.AllViews()
	if idx < 0 || idx >= len(views) || p.Y >= size.Height-2 {
		return "", false
	}
	return views[idx], true
}

func (s *FullLayoutStrategy) Render(c *Canvas, f *Frame) {
	size := c.Size()
	s.Header(c, f)
	s.sidebar(c, f, size)
	s.ViewBody(c, s.ContentArea(size), f)
	s.Footer(c, f)
}

func (s *FullLayoutStrategy) sidebar(c *Canvas, f *Frame, size geometry.Size) {
	box := geometry.Rect{Left: 0, Top: 1, Width: sidebarWidth, Height: max(size.Height-2, 0)}
	c.Box(box, "Views", util.ColorGray)

	for i, v := range model.AllViews() {
		y := sidebarFirstRow + i
		if y >= box.Bottom()-1 {
			break
		}
		label := fmt.Sprintf(" %d %s", i+1, v.Title())
		if v == model.ViewFlow && len(f.App.AlertingNodes) > 0 {
			label += " ⚠"
		}
		style := ""
		if v == f.App.ActiveView {
			style = util.ColorReverse
			label = util.PadRight(label, sidebarWidth-2)
		}
		c.TextClip(1, y, label, style, sidebarWidth-1)
	}

	// Feed and assistant status under the list.
	y := sidebarFirstRow + len(model.AllViews()) + 1
	if y < box.Bottom()-2 {
		c.TextClip(2, y, "Assistant: "+string(f.App.Conversation), util.ColorGray, sidebarWidth-1)
		if !f.App.LastUpdate.IsZero() {
			c.TextClip(2, y+1, "Updated: "+f.App.LastUpdate.Format("15:04:05"), util.ColorGray, sidebarWidth-1)
		}
	}
}
