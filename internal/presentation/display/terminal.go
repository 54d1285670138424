package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/layout"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// DisplayConfig holds the display settings of the dashboard.
type DisplayConfig struct {
	TimeFormat string
	// Mouse enables pointer tracking for dragging the assistant panel.
	Mouse bool
	// ShowConnection shows the live/offline badge of the alert channel.
	ShowConnection bool
}

type TerminalDisplay struct {
	config            *DisplayConfig
	out               io.Writer
	viewport          func() geometry.Size
	inAlternateScreen bool
	lastLayoutStyle   string
	lastSize          geometry.Size
	previousScreen    []string // Previous frame, for differential updates
	isFirstRender     bool
}

// NewTerminalDisplay draws to standard output, sized by the terminal.
func NewTerminalDisplay(config *DisplayConfig) *TerminalDisplay {
	return NewTerminalDisplayTo(config, os.Stdout, layout.StdoutSizer().Viewport)
}

// NewTerminalDisplayTo draws to out with a caller-supplied viewport.
func NewTerminalDisplayTo(config *DisplayConfig, out io.Writer, viewport func() geometry.Size) *TerminalDisplay {
	if config == nil {
		config = &DisplayConfig{}
	}
	return &TerminalDisplay{
		config:        config,
		out:           out,
		viewport:      viewport,
		isFirstRender: true,
	}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	var b strings.Builder
	b.WriteString(util.AltScreenOn)
	b.WriteString(util.ClearScreen)
	b.WriteString(util.ClearScrollback)
	b.WriteString(util.ResetScrollRegion)
	b.WriteString(util.HideCursor)
	if td.config.Mouse {
		b.WriteString(util.MouseTrackingOn)
	}
	b.WriteString(util.MoveCursorHome)
	td.write(b.String())
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	var b strings.Builder
	if td.config.Mouse {
		b.WriteString(util.MouseTrackingOff)
	}
	b.WriteString(util.ClearScreen)
	b.WriteString(util.MoveCursorHome)
	b.WriteString(util.ShowCursor)
	b.WriteString(util.AltScreenOff)
	td.write(b.String())
	td.inAlternateScreen = false
}

// ClearScreen clears the screen and forgets the previous frame.
func (td *TerminalDisplay) ClearScreen() {
	td.write(util.ClearScreen + util.MoveCursorHome)
	td.previousScreen = nil
}

// Viewport is the current terminal size.
func (td *TerminalDisplay) Viewport() geometry.Size {
	return td.viewport()
}

// RenderWithState composes a frame and writes only the rows that changed
// since the previous one.
func (td *TerminalDisplay) RenderWithState(app *model.AppState, state model.InteractionState) {
	size := td.viewport()
	lines := td.compose(size, app, state)

	if td.isFirstRender || size != td.lastSize || state.LayoutStyle != td.lastLayoutStyle {
		td.ClearScreen()
		td.isFirstRender = false
		td.lastSize = size
		td.lastLayoutStyle = state.LayoutStyle
	}

	var b bytes.Buffer
	for i, line := range lines {
		if i < len(td.previousScreen) && td.previousScreen[i] == line {
			continue
		}
		fmt.Fprintf(&b, "\033[%d;1H%s", i+1, line)
	}
	if b.Len() > 0 {
		td.write(b.String())
	}
	td.previousScreen = lines
}

// Compose draws a full frame, overlays included, and returns its styled rows.
func (td *TerminalDisplay) Compose(app *model.AppState, state model.InteractionState) []string {
	return td.compose(td.viewport(), app, state)
}

func (td *TerminalDisplay) compose(size geometry.Size, app *model.AppState, state model.InteractionState) []string {
	c := layout.NewCanvas(size)
	frame := &layout.Frame{
		App: app,
		UI:  state,
		Param: layout.Param{
			TimeFormat: td.config.TimeFormat,
			Now:        util.GetTimeProvider().Now(),
			SortLabel:  state.SortLabel,
		},
	}
	if td.config.ShowConnection {
		connected := app.Connected
		frame.Param.Connected = &connected
	}
	layout.Compose(c, layout.GetLayoutStrategy(state.LayoutStyle), frame)

	if state.ShowHelp {
		renderHelp(c)
	}
	if state.ConfirmDialog != nil {
		renderConfirmDialog(c, state.ConfirmDialog)
	}
	return c.StyledLines()
}

var helpLines = []string{
	"Navigation",
	"  Tab / Shift+Tab   next / previous view",
	"  1-8               jump to view, click the sidebar",
	"  t                 cycle time range (24h, 7d, 30d)",
	"  f                 fullscreen chart",
	"",
	"Assistant",
	"  a                 open / close the assistant",
	"  F                 fullscreen assistant",
	"  c                 voice / chat mode",
	"  m                 microphone",
	"  y / n             approve / deny the alert action",
	"  arrows, H J K L   move, resize (or drag with the mouse)",
	"",
	"Data",
	"  r refresh   p pause   x clear cache   s sort   l layout",
	"  N / D             notifications / dark mode (settings)",
	"",
	"  q / Ctrl+C quit    Esc close    h return",
}

func renderHelp(c *layout.Canvas) {
	size := c.Size()
	width := min(64, size.Width-4)
	height := min(len(helpLines)+2, size.Height-2)
	rect := centered(size, width, height)
	c.Fill(rect, ' ', "")
	c.Box(rect, "Kiln Monitor Help", util.ColorCyan)
	for i, line := range helpLines {
		y := rect.Top + 1 + i
		if y >= rect.Bottom()-1 {
			break
		}
		style := ""
		if line != "" && !strings.HasPrefix(line, " ") {
			style = util.ColorBold + util.ColorGreen
		}
		c.TextClip(rect.Left+2, y, line, style, rect.Right()-1)
	}
}

func renderConfirmDialog(c *layout.Canvas, dialog *model.ConfirmDialog) {
	size := c.Size()
	width := min(60, size.Width-4)
	message := layout.WrapText(dialog.Message, width-4)
	height := len(message) + 5
	rect := centered(size, width, height)
	c.Fill(rect, ' ', "")
	c.Box(rect, dialog.Title, util.ColorYellow)
	for i, line := range message {
		c.TextClip(rect.Left+2, rect.Top+2+i, line, "", rect.Right()-1)
	}
	prompt := "(Y)es / (N)o"
	c.Text(rect.Left+(width-len(prompt))/2, rect.Bottom()-2, prompt, util.ColorBold)
}

func centered(size geometry.Size, width, height int) geometry.Rect {
	return geometry.Rect{
		Left:   max((size.Width-width)/2, 0),
		Top:    max((size.Height-height)/2, 0),
		Width:  width,
		Height: height,
	}
}

func (td *TerminalDisplay) write(s string) {
	if _, err := io.WriteString(td.out, s); err != nil {
		util.LogDebug("terminal write failed", util.F("error", err))
	}
}
