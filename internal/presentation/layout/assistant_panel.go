package layout

import (
	"strings"

	"github.com/penwyp/go-kiln-monitor/internal/core/assistant"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const assistantTitle = "Kiln Assistant"

func orb(state model.ConversationState) (string, string) {
	switch state {
	case model.ConversationListening:
		return "((( ◉ )))", util.ColorCyan
	case model.ConversationSpeaking:
		return "≋≋ ◉ ≋≋", util.ColorGreen
	case model.ConversationAlerting:
		return "⚠  ◉  ⚠", util.ColorRed + util.ColorBold
	default:
		return "◯", util.ColorGray
	}
}

// RenderAssistant draws the floating assistant over whatever is below rect.
// The first inner row is the drag handle.
func RenderAssistant(c *Canvas, rect geometry.Rect, f *Frame) {
	if rect.Width < 4 || rect.Height < 3 {
		return
	}
	app := f.App
	c.Fill(rect, ' ', "")
	border := util.ColorMagenta
	if app.Conversation == model.ConversationAlerting {
		border = util.ColorRed
	}
	c.Box(rect, assistantTitle, border)

	inner := geometry.Rect{Left: rect.Left + 2, Top: rect.Top + 1, Width: rect.Width - 4, Height: rect.Height - 2}
	p := newPen(c, inner)

	handle := "⠿ " + string(app.AssistantMode)
	if app.AssistantFullscreen {
		handle = "⤢ fullscreen  F restore"
	}
	p.line(handle, util.ColorGray)

	snap := assistant.Snapshot{State: app.Conversation, Alert: app.Alert, Message: app.AssistantMessage}
	status := assistant.StatusText(snap)

	if app.AssistantMode == model.AssistantChat {
		renderTranscript(p, app.Transcript, inner.Height-4)
	} else {
		glyph, style := orb(app.Conversation)
		p.blank()
		p.line(util.CenterText(glyph, inner.Width), style)
		p.blank()
	}

	statusStyle := ""
	if app.Conversation == model.ConversationAlerting {
		statusStyle = util.ColorRed
	}
	for _, l := range WrapText(status, inner.Width) {
		p.line(l, statusStyle)
	}
	if app.Alert != nil {
		p.line("y approve  n deny", util.ColorYellow)
	}

	hint := "m mic  c chat  F full"
	if app.AssistantMode == model.AssistantChat {
		hint = "m mic  c voice  F full"
	}
	c.TextClip(inner.Left, inner.Bottom()-1, util.Truncate(hint, inner.Width), util.ColorGray, inner.Right())
}

func renderTranscript(p *pen, transcript []string, rows int) {
	if rows <= 0 {
		return
	}
	if len(transcript) == 0 {
		p.line("No messages yet", util.ColorGray)
		return
	}
	var lines []string
	for _, t := range transcript {
		lines = append(lines, WrapText(t, p.area.Width)...)
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for _, l := range lines {
		p.line(l, "")
	}
}

// WrapText breaks s into lines no wider than width, on word boundaries where
// possible.
func WrapText(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, word := range strings.Fields(s) {
		w := util.GetDisplayWidth(word)
		for w > width {
			if curWidth > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
				curWidth = 0
			}
			head := util.Truncate(word, width)
			head = strings.TrimSuffix(head, "…")
			if head == "" {
				break
			}
			lines = append(lines, head)
			word = strings.TrimPrefix(word, head)
			w = util.GetDisplayWidth(word)
		}
		if word == "" {
			continue
		}
		if curWidth > 0 && curWidth+1+w > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
