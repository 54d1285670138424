package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// cell is one terminal column. A wide rune occupies its cell and marks the
// next one as a continuation.
type cell struct {
	ch    rune
	style string
	cont  bool
}

// Canvas is an off-screen grid the layouts draw into, so the floating
// assistant panel can be composited over the view below it.
type Canvas struct {
	width, height int
	cells         [][]cell
}

// NewCanvas allocates a blank canvas of size s.
func NewCanvas(s geometry.Size) *Canvas {
	c := &Canvas{width: max(s.Width, 0), height: max(s.Height, 0)}
	c.cells = make([][]cell, c.height)
	for y := range c.cells {
		row := make([]cell, c.width)
		for x := range row {
			row[x] = cell{ch: ' '}
		}
		c.cells[y] = row
	}
	return c
}

func (c *Canvas) Size() geometry.Size {
	return geometry.Size{Width: c.width, Height: c.height}
}

// Bounds is the whole canvas as a rectangle.
func (c *Canvas) Bounds() geometry.Rect {
	return geometry.Rect{Width: c.width, Height: c.height}
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.width && y < c.height
}

// Text writes s starting at (x, y), clipped to the canvas. It returns the
// column after the last cell written.
func (c *Canvas) Text(x, y int, s, style string) int {
	return c.TextClip(x, y, s, style, c.width)
}

// TextClip is Text with an exclusive right edge.
func (c *Canvas) TextClip(x, y int, s, style string, right int) int {
	if y < 0 || y >= c.height {
		return x
	}
	right = min(right, c.width)
	for _, r := range s {
		if r == '\n' || r == '\r' {
			continue
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > right {
			break
		}
		if x >= 0 {
			if w == 2 {
				c.put(x+1, y, ' ', style)
			}
			c.put(x, y, r, style)
			if w == 2 {
				c.cells[y][x+1] = cell{cont: true, style: style}
			}
		}
		x += w
	}
	return x
}

func (c *Canvas) put(x, y int, r rune, style string) {
	row := c.cells[y]
	// Overwriting half of a wide rune blanks its other half.
	if row[x].cont && x > 0 {
		row[x-1] = cell{ch: ' '}
	}
	if x+1 < c.width && row[x+1].cont {
		row[x+1] = cell{ch: ' '}
	}
	row[x] = cell{ch: r, style: style}
}

// Fill paints r with ch.
func (c *Canvas) Fill(r geometry.Rect, ch rune, style string) {
	for y := r.Top; y < r.Bottom(); y++ {
		for x := r.Left; x < r.Right(); x++ {
			if c.inside(x, y) {
				c.put(x, y, ch, style)
			}
		}
	}
}

// HLine draws a horizontal rule of width w.
func (c *Canvas) HLine(x, y, w int, style string) {
	c.Text(x, y, strings.Repeat("─", max(w, 0)), style)
}

// Box draws a rounded border around r with an optional title in the top edge.
func (c *Canvas) Box(r geometry.Rect, title, style string) {
	if r.Width < 2 || r.Height < 2 {
		return
	}
	inner := r.Width - 2
	c.Text(r.Left, r.Top, "╭"+strings.Repeat("─", inner)+"╮", style)
	for y := r.Top + 1; y < r.Bottom()-1; y++ {
		c.Text(r.Left, y, "│", style)
		c.Text(r.Right()-1, y, "│", style)
	}
	c.Text(r.Left, r.Bottom()-1, "╰"+strings.Repeat("─", inner)+"╯", style)
	if title != "" && inner > 4 {
		c.Text(r.Left+2, r.Top, " "+util.Truncate(title, inner-4)+" ", style+util.ColorBold)
	}
}

// Lines returns the plain text of every row, without styles.
func (c *Canvas) Lines() []string {
	out := make([]string, c.height)
	var b strings.Builder
	for y, row := range c.cells {
		b.Reset()
		for _, cl := range row {
			if !cl.cont {
				b.WriteRune(cl.ch)
			}
		}
		out[y] = strings.TrimRight(b.String(), " ")
	}
	return out
}

// StyledLines returns every row with ANSI styles applied, padded to the
// canvas width.
func (c *Canvas) StyledLines() []string {
	out := make([]string, c.height)
	var b strings.Builder
	for y, row := range c.cells {
		b.Reset()
		current := ""
		for _, cl := range row {
			if cl.cont {
				continue
			}
			if cl.style != current {
				if current != "" {
					b.WriteString(util.ColorReset)
				}
				b.WriteString(cl.style)
				current = cl.style
			}
			b.WriteRune(cl.ch)
		}
		if current != "" {
			b.WriteString(util.ColorReset)
		}
		out[y] = b.String()
	}
	return out
}

// String joins the plain lines, mainly for tests and logs.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}
