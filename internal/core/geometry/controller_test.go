package geometry

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMin      = Size{Width: 20, Height: 8}
	testViewport = Size{Width: 120, Height: 40}
	startRect    = Rect{Left: 50, Top: 10, Width: 40, Height: 16}
)

func newTestController(reported *[]Rect) *Controller {
	return NewController(testMin, testViewport, func(r Rect) {
		if reported != nil {
			*reported = append(*reported, r)
		}
	})
}

func TestMoveChangesOnlyPosition(t *testing.T) {
	c := newTestController(nil)
	require.NoError(t, c.Begin(GestureMove, Point{X: 60, Y: 11}, startRect))

	r, changed := c.Move(Point{X: 55, Y: 14})
	assert.True(t, changed)
	assert.Equal(t, Rect{Left: 45, Top: 13, Width: 40, Height: 16}, r)

	// Trailing overlap shifts position, never size.
	r, _ = c.Move(Point{X: 200, Y: 100})
	assert.Equal(t, Rect{Left: 80, Top: 24, Width: 40, Height: 16}, r)

	r, _ = c.Move(Point{X: -200, Y: -100})
	assert.Equal(t, Rect{Left: 0, Top: 0, Width: 40, Height: 16}, r)
}

func TestResizeRightChangesOnlyWidth(t *testing.T) {
	c := newTestController(nil)
	require.NoError(t, c.Begin(ResizeRight, Point{X: 89, Y: 15}, startRect))

	for _, dx := range []int{-15, -5, 0, 10, 20} {
		r, _ := c.Move(Point{X: 89 + dx, Y: 15 + dx})
		assert.Equal(t, startRect.Left, r.Left)
		assert.Equal(t, startRect.Top, r.Top)
		assert.Equal(t, startRect.Height, r.Height)
		assert.Equal(t, startRect.Width+dx, r.Width)
	}
}

func TestResizeRightCapsAtViewport(t *testing.T) {
	c := newTestController(nil)
	require.NoError(t, c.Begin(ResizeRight, Point{X: 89, Y: 15}, startRect))
	r, _ := c.Move(Point{X: 500, Y: 15})
	assert.Equal(t, testViewport.Width, r.Right())
	assert.Equal(t, startRect.Left, r.Left)
}

func TestResizeLeftKeepsRightEdge(t *testing.T) {
	c := newTestController(nil)
	require.NoError(t, c.Begin(ResizeLeft, Point{X: 50, Y: 15}, startRect))

	r, _ := c.Move(Point{X: 40, Y: 15})
	assert.Equal(t, 40, r.Left)
	assert.Equal(t, 50, r.Width)
	assert.Equal(t, startRect.Right(), r.Right())

	r, _ = c.Move(Point{X: -30, Y: 15})
	assert.Equal(t, 0, r.Left)
	assert.Equal(t, startRect.Right(), r.Right())
}

func TestResizeLeftBelowFloorIsSuppressed(t *testing.T) {
	var reported []Rect
	c := newTestController(&reported)
	require.NoError(t, c.Begin(ResizeLeft, Point{X: 50, Y: 15}, startRect))

	// Would leave width 40-25=15, under the floor of 20.
	r, changed := c.Move(Point{X: 75, Y: 15})
	assert.False(t, changed)
	assert.Equal(t, startRect.Left, r.Left)
	assert.Equal(t, startRect.Width, r.Width)
	assert.Empty(t, reported)

	// A valid move first, then an invalid one keeps the last valid values.
	c.Move(Point{X: 60, Y: 15})
	r, changed = c.Move(Point{X: 90, Y: 15})
	assert.False(t, changed)
	assert.Equal(t, 60, r.Left)
	assert.Equal(t, 30, r.Width)
	assert.Len(t, reported, 1)
}

func TestResizeCornerSuppressesOnlyFailingAxis(t *testing.T) {
	c := newTestController(nil)
	require.NoError(t, c.Begin(ResizeTopLeft, Point{X: 50, Y: 10}, startRect))

	// Horizontal stays valid, vertical would collapse under the floor.
	r, changed := c.Move(Point{X: 45, Y: 25})
	assert.True(t, changed)
	assert.Equal(t, 45, r.Left)
	assert.Equal(t, 45, r.Width)
	assert.Equal(t, startRect.Top, r.Top)
	assert.Equal(t, startRect.Height, r.Height)
}

func TestMoveWithoutGestureIsNoop(t *testing.T) {
	var reported []Rect
	c := newTestController(&reported)
	_, changed := c.Move(Point{X: 10, Y: 10})
	assert.False(t, changed)
	assert.Empty(t, reported)

	require.NoError(t, c.Begin(GestureMove, Point{}, startRect))
	c.Move(Point{X: 1})
	c.Cancel()
	assert.False(t, c.Dragging())
	_, changed = c.Move(Point{X: 5})
	assert.False(t, changed)
	assert.Len(t, reported, 1)
}

func TestBeginRejectsInvalidGesture(t *testing.T) {
	c := newTestController(nil)
	assert.ErrorIs(t, c.Begin(GestureNone, Point{}, startRect), ErrInvalidGesture)
	assert.ErrorIs(t, c.Begin(ResizeLeft|ResizeRight, Point{}, startRect), ErrInvalidGesture)
	assert.ErrorIs(t, c.Begin(GestureMove|ResizeTop, Point{}, startRect), ErrInvalidGesture)
	assert.False(t, c.Dragging())
}

func TestNudge(t *testing.T) {
	c := newTestController(nil)
	r, err := c.Nudge(ResizeBottomRight, 5, 2, startRect)
	require.NoError(t, err)
	assert.Equal(t, Rect{Left: 50, Top: 10, Width: 45, Height: 18}, r)
	assert.False(t, c.Dragging())
}

func TestRandomGesturesKeepInvariants(t *testing.T) {
	gestures := []Gesture{
		GestureMove, ResizeTop, ResizeBottom, ResizeLeft, ResizeRight,
		ResizeTopLeft, ResizeTopRight, ResizeBottomLeft, ResizeBottomRight,
	}
	rng := rand.New(rand.NewPCG(7, 11))
	c := newTestController(nil)
	current := startRect

	for i := 0; i < 500; i++ {
		g := gestures[rng.IntN(len(gestures))]
		origin := Point{X: rng.IntN(testViewport.Width), Y: rng.IntN(testViewport.Height)}
		require.NoError(t, c.Begin(g, origin, current))

		for j := 0; j < 5; j++ {
			p := Point{X: origin.X + rng.IntN(161) - 80, Y: origin.Y + rng.IntN(61) - 30}
			r, _ := c.Move(p)
			assert.GreaterOrEqual(t, r.Width, testMin.Width)
			assert.GreaterOrEqual(t, r.Height, testMin.Height)
			assert.True(t, r.Within(testViewport), "gesture %s produced %+v", g, r)
			if g == GestureMove {
				assert.Equal(t, current.Width, r.Width)
				assert.Equal(t, current.Height, r.Height)
			}
		}
		current = c.End()
	}
}

func TestHitTest(t *testing.T) {
	r := Rect{Left: 10, Top: 5, Width: 20, Height: 10}
	tests := []struct {
		name string
		p    Point
		want Gesture
	}{
		{name: "outside", p: Point{X: 0, Y: 0}, want: GestureNone},
		{name: "top left corner", p: Point{X: 10, Y: 5}, want: ResizeTopLeft},
		{name: "bottom right corner", p: Point{X: 29, Y: 14}, want: ResizeBottomRight},
		{name: "top edge", p: Point{X: 15, Y: 5}, want: ResizeTop},
		{name: "left edge", p: Point{X: 10, Y: 8}, want: ResizeLeft},
		{name: "right edge", p: Point{X: 29, Y: 8}, want: ResizeRight},
		{name: "bottom edge", p: Point{X: 15, Y: 14}, want: ResizeBottom},
		{name: "title row", p: Point{X: 15, Y: 6}, want: GestureMove},
		{name: "interior", p: Point{X: 15, Y: 9}, want: GestureNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HitTest(r, tt.p))
		})
	}
}

func TestFitAndDock(t *testing.T) {
	vp := Size{Width: 60, Height: 20}
	r := Fit(Rect{Left: 50, Top: 15, Width: 80, Height: 10}, vp, testMin)
	assert.Equal(t, Rect{Left: 0, Top: 10, Width: 60, Height: 10}, r)
	assert.True(t, r.Within(vp))

	tiny := Fit(startRect, Size{Width: 10, Height: 4}, testMin)
	assert.Equal(t, Rect{Left: 0, Top: 0, Width: 20, Height: 8}, tiny)

	d := Dock(Size{Width: 40, Height: 16}, testViewport, 1)
	assert.Equal(t, Rect{Left: 79, Top: 23, Width: 40, Height: 16}, d)
	assert.Equal(t, "resize-top-left", ResizeTopLeft.String())
	assert.Equal(t, "move", GestureMove.String())
}
