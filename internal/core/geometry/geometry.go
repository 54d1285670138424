package geometry

import "strings"

// Point is a pointer position in terminal cells, zero-based.
type Point struct {
	X, Y int
}

// Size is a width/height pair in terminal cells.
type Size struct {
	Width, Height int
}

// Rect is the floating panel rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Right() int  { return r.Left + r.Width }
func (r Rect) Bottom() int { return r.Top + r.Height }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right() && p.Y >= r.Top && p.Y < r.Bottom()
}

// Within reports whether r lies fully inside a viewport of size vp.
func (r Rect) Within(vp Size) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right() <= vp.Width && r.Bottom() <= vp.Height
}

// Gesture is the kind of drag: a move, or a resize combining one vertical
// and one horizontal edge.
type Gesture uint8

const (
	GestureNone Gesture = 0
	GestureMove Gesture = 1 << iota
	ResizeTop
	ResizeBottom
	ResizeLeft
	ResizeRight
)

const (
	ResizeTopLeft     = ResizeTop | ResizeLeft
	ResizeTopRight    = ResizeTop | ResizeRight
	ResizeBottomLeft  = ResizeBottom | ResizeLeft
	ResizeBottomRight = ResizeBottom | ResizeRight
)

// Valid rejects empty gestures and contradictory edge combinations.
func (g Gesture) Valid() bool {
	switch {
	case g == GestureMove:
		return true
	case g == GestureNone, g&GestureMove != 0:
		return false
	case g&ResizeTop != 0 && g&ResizeBottom != 0:
		return false
	case g&ResizeLeft != 0 && g&ResizeRight != 0:
		return false
	}
	return true
}

func (g Gesture) IsResize() bool { return g != GestureNone && g&GestureMove == 0 }

func (g Gesture) String() string {
	if g == GestureNone {
		return "none"
	}
	if g == GestureMove {
		return "move"
	}
	var parts []string
	for _, e := range []struct {
		bit  Gesture
		name string
	}{{ResizeTop, "top"}, {ResizeBottom, "bottom"}, {ResizeLeft, "left"}, {ResizeRight, "right"}} {
		if g&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return "resize-" + strings.Join(parts, "-")
}

// HitTest maps a pointer press on the panel to a gesture. The border is the
// resize handle, the row below the top border is the title bar.
func HitTest(r Rect, p Point) Gesture {
	if !r.Contains(p) {
		return GestureNone
	}
	var g Gesture
	if p.Y == r.Top {
		g |= ResizeTop
	} else if p.Y == r.Bottom()-1 {
		g |= ResizeBottom
	}
	if p.X == r.Left {
		g |= ResizeLeft
	} else if p.X == r.Right()-1 {
		g |= ResizeRight
	}
	if g != GestureNone {
		return g
	}
	if p.Y == r.Top+1 {
		return GestureMove
	}
	return GestureNone
}

// Fit shrinks and shifts r so it lies inside vp, never going below min.
// When vp itself is smaller than min the result is pinned at the origin.
func Fit(r Rect, vp Size, min Size) Rect {
	r.Width = clamp(r.Width, min.Width, max(vp.Width, min.Width))
	r.Height = clamp(r.Height, min.Height, max(vp.Height, min.Height))
	r.Left = clamp(r.Left, 0, max(vp.Width-r.Width, 0))
	r.Top = clamp(r.Top, 0, max(vp.Height-r.Height, 0))
	return r
}

// Dock places a panel of size s in the bottom-right corner of vp with a margin.
func Dock(s Size, vp Size, margin int) Rect {
	return Fit(Rect{
		Left:   vp.Width - s.Width - margin,
		Top:    vp.Height - s.Height - margin,
		Width:  s.Width,
		Height: s.Height,
	}, vp, s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
