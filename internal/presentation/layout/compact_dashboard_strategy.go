package layout

import (
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// CompactLayoutStrategy drops the sidebar and gives the whole width to the
// active view, for narrow terminals
type CompactLayoutStrategy struct {
	BaseStrategy
}

func (s *CompactLayoutStrategy) GetName() string {
	return "Compact Dashboard"
}

func (s *CompactLayoutStrategy) ContentArea(size geometry.Size) geometry.Rect {
	return geometry.Rect{Left: 1, Top: 1, Width: max(size.Width-2, 0), Height: max(size.Height-2, 0)}
}

func (s *CompactLayoutStrategy) SidebarHit(geometry.Size, geometry.Point) (model.View, bool) {
	return "", false
}

func (s *CompactLayoutStrategy) Render(c *Canvas, f *Frame) {
	size := c.Size()
	s.Header(c, f)
	s.ViewBody(c, s.ContentArea(size), f)
	s.Footer(c, f)
}
