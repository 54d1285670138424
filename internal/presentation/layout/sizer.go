package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// Smallest screen the dashboard lays out for; smaller terminals are clipped.
const (
	MinWidth  = 60
	MinHeight = 20

	fallbackWidth  = 100
	fallbackHeight = 30
)

// Sizer measures the terminal and pads table cells.
type Sizer struct {
	fd int
}

// NewSizer measures the terminal behind fd.
func NewSizer(fd int) *Sizer {
	return &Sizer{fd: fd}
}

// StdoutSizer measures the process's standard output.
func StdoutSizer() *Sizer {
	return NewSizer(int(os.Stdout.Fd()))
}

// Viewport is the terminal size in cells, falling back to a fixed size when
// fd is not a terminal. The result is never below MinWidth x MinHeight.
func (s *Sizer) Viewport() geometry.Size {
	w, h, err := term.GetSize(s.fd)
	if err != nil || w <= 0 || h <= 0 {
		util.LogDebug("terminal size unavailable, using fallback", util.F("error", err))
		w, h = fallbackWidth, fallbackHeight
	}
	return ClampViewport(geometry.Size{Width: w, Height: h})
}

// ClampViewport raises s to the minimum layout size.
func ClampViewport(s geometry.Size) geometry.Size {
	return geometry.Size{Width: max(s.Width, MinWidth), Height: max(s.Height, MinHeight)}
}

// PadString pads a string to a specific display width, handling wide runes.
func (s *Sizer) PadString(str string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(str)
	if actual >= width {
		return str
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return str + padding
	}
	return padding + str
}
