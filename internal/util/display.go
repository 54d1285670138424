package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
	ColorReverse = "\033[7m"

	ClearScreen       = "\033[2J"
	ClearLine         = "\033[2K"
	ClearToEnd        = "\033[J"
	ClearScrollback   = "\033[3J"
	ResetScrollRegion = "\033[r"
	MoveCursorHome    = "\033[H"
	HideCursor        = "\033[?25l"
	ShowCursor        = "\033[?25h"
	AltScreenOn       = "\033[?1049h"
	AltScreenOff      = "\033[?1049l"

	// Button press/release, drag motion, SGR extended coordinates.
	MouseTrackingOn  = "\033[?1000h\033[?1002h\033[?1006h"
	MouseTrackingOff = "\033[?1006l\033[?1002l\033[?1000l"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// GetDisplayWidth calculates the terminal column width of a string
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate shortens s to at most width columns, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// CreateProgressBar renders a bracketed bar of the given total width.
func CreateProgressBar(percentage float64, width int) string {
	barWidth := width - 2
	if barWidth < 1 {
		barWidth = 1
	}
	filled := int((percentage / 100) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// Sparkline maps values onto block glyphs scaled between their min and max.
// A flat series renders at mid height.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]rune, len(values))
	span := hi - lo
	for i, v := range values {
		idx := len(sparkTicks) / 2
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkTicks)-1))
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}

// Resample reduces or stretches values to exactly n points by nearest index.
func Resample(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		src := i * len(values) / n
		if src >= len(values) {
			src = len(values) - 1
		}
		out[i] = values[src]
	}
	return out
}

// StatusColor picks a color for a process or kiln status word.
func StatusColor(status string) string {
	switch strings.ToLower(status) {
	case "completed", "success", "approved", "normal", "ok":
		return ColorGreen
	case "running", "pending":
		return ColorCyan
	case "warning", "warn":
		return ColorYellow
	case "failed", "critical", "rejected", "error":
		return ColorRed
	default:
		return ""
	}
}

// Colorize wraps text in a color code when one is given.
func Colorize(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + ColorReset
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatDataTitle formats data section titles (Green + Bold)
func FormatDataTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorGreen, title, ColorReset)
}

// CenterText centers text within the given width
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return Truncate(text, width)
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-w)
}

// PadRight pads text with spaces to the given column width.
func PadRight(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return text
	}
	return text + strings.Repeat(" ", width-w)
}
