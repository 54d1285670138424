package geometry

import (
	"errors"
	"sync"
)

var ErrInvalidGesture = errors.New("invalid gesture")

// Controller turns a pointer drag into candidate panel rectangles.
//
// It never owns the panel geometry: the caller passes the current rectangle
// to Begin and receives every changed candidate through onChange. Between
// Begin and End/Cancel the controller is dragging; otherwise it is idle and
// Move is a no-op.
type Controller struct {
	mu       sync.Mutex
	min      Size
	viewport Size
	onChange func(Rect)

	dragging bool
	gesture  Gesture
	start    Point
	origin   Rect
	last     Rect
}

// NewController creates an idle controller. onChange may be nil.
func NewController(min, viewport Size, onChange func(Rect)) *Controller {
	return &Controller{min: min, viewport: viewport, onChange: onChange}
}

// SetViewport updates the bounds used by subsequent moves.
func (c *Controller) SetViewport(vp Size) {
	c.mu.Lock()
	c.viewport = vp
	c.mu.Unlock()
}

func (c *Controller) Viewport() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

func (c *Controller) MinSize() Size {
	return c.min
}

// Begin starts a gesture at pointer p over the rectangle current.
func (c *Controller) Begin(g Gesture, p Point, current Rect) error {
	if !g.Valid() {
		return ErrInvalidGesture
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = true
	c.gesture = g
	c.start = p
	c.origin = current
	c.last = current
	return nil
}

// Dragging reports whether a gesture is active.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Gesture returns the active gesture, or GestureNone when idle.
func (c *Controller) Gesture() Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return GestureNone
	}
	return c.gesture
}

// Move applies the pointer delta since Begin. It returns the candidate and
// whether it differs from the last reported rectangle.
func (c *Controller) Move(p Point) (Rect, bool) {
	c.mu.Lock()
	if !c.dragging {
		r := c.last
		c.mu.Unlock()
		return r, false
	}

	dx, dy := p.X-c.start.X, p.Y-c.start.Y
	next := c.last
	if c.gesture == GestureMove {
		next.Left = clamp(c.origin.Left+dx, 0, max(c.viewport.Width-c.origin.Width, 0))
		next.Top = clamp(c.origin.Top+dy, 0, max(c.viewport.Height-c.origin.Height, 0))
		next.Width, next.Height = c.origin.Width, c.origin.Height
	} else {
		if pos, size, ok := c.resizeAxis(c.gesture&ResizeLeft != 0, c.gesture&ResizeRight != 0,
			c.origin.Left, c.origin.Width, dx, c.viewport.Width, c.min.Width); ok {
			next.Left, next.Width = pos, size
		}
		if pos, size, ok := c.resizeAxis(c.gesture&ResizeTop != 0, c.gesture&ResizeBottom != 0,
			c.origin.Top, c.origin.Height, dy, c.viewport.Height, c.min.Height); ok {
			next.Top, next.Height = pos, size
		}
	}

	changed := next != c.last
	c.last = next
	cb := c.onChange
	c.mu.Unlock()

	if changed && cb != nil {
		cb(next)
	}
	return next, changed
}

// resizeAxis computes one axis of a resize. The dragged edge stops at the
// viewport edge; a result under the floor reports ok=false so the axis keeps
// its last values.
func (c *Controller) resizeAxis(leading, trailing bool, pos, size, delta, limit, floor int) (int, int, bool) {
	switch {
	case leading:
		end := pos + size
		newPos := max(pos+delta, 0)
		newSize := end - newPos
		if newSize < floor {
			return 0, 0, false
		}
		return newPos, newSize, true
	case trailing:
		newSize := min(size+delta, limit-pos)
		if newSize < floor {
			return 0, 0, false
		}
		return pos, newSize, true
	default:
		return 0, 0, false
	}
}

// End finishes the gesture and returns the final rectangle.
func (c *Controller) End() Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = false
	c.gesture = GestureNone
	return c.last
}

// Cancel drops any active gesture without reporting.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.dragging = false
	c.gesture = GestureNone
	c.mu.Unlock()
}

// Nudge runs a complete gesture of (dx, dy) cells from current. Keyboard
// moves and resizes go through the same rules as pointer drags.
func (c *Controller) Nudge(g Gesture, dx, dy int, current Rect) (Rect, error) {
	if err := c.Begin(g, Point{}, current); err != nil {
		return current, err
	}
	c.Move(Point{X: dx, Y: dy})
	return c.End(), nil
}
