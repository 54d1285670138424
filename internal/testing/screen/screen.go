// Package screen replays terminal output onto a virtual grid so tests can
// assert what an operator would actually see after cursor moves, clears and
// differential row updates.
package screen

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes CSI escape sequences from s.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

type cell struct {
	ch   rune
	cont bool // right half of a wide rune
}

// Screen is a fixed-size terminal. It implements io.Writer, so it can stand
// in for the display's output directly.
type Screen struct {
	rows, cols int
	cells      [][]cell
	x, y       int
	pending    []byte // incomplete escape sequence from the previous Write
}

// New creates a blank screen.
func New(cols, rows int) *Screen {
	s := &Screen{rows: rows, cols: cols, cells: make([][]cell, rows)}
	for i := range s.cells {
		s.cells[i] = make([]cell, cols)
	}
	s.clear()
	return s
}

// Write applies p. Escape sequences split across writes are buffered.
func (s *Screen) Write(p []byte) (int, error) {
	data := append(s.pending, p...)
	s.pending = nil
	runes := []rune(string(data))
	for i := 0; i < len(runes); {
		switch r := runes[i]; {
		case r == '\x1b':
			next, ok := s.escape(runes, i)
			if !ok {
				s.pending = []byte(string(runes[i:]))
				return len(p), nil
			}
			i = next
		case r == '\r':
			s.x = 0
			i++
		case r == '\n':
			s.x = 0
			s.lineFeed()
			i++
		case r == '\b':
			s.x = max(0, s.x-1)
			i++
		default:
			s.put(r)
			i++
		}
	}
	return len(p), nil
}

// escape handles the sequence starting at runes[start]; ok is false when
// the sequence is not complete yet.
func (s *Screen) escape(runes []rune, start int) (next int, ok bool) {
	if start+1 >= len(runes) {
		return start, false
	}
	if runes[start+1] != '[' {
		return start + 2, true
	}
	var params []int
	current, private := 0, false
	for i := start + 2; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '?':
			private = true
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
		case r == ';':
			params = append(params, current)
			current = 0
		default:
			params = append(params, current)
			if !private {
				s.command(r, params)
			}
			return i + 1, true
		}
	}
	return start, false
}

func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (s *Screen) command(cmd rune, params []int) {
	switch cmd {
	case 'H', 'f':
		s.y = min(param(params, 0, 1), s.rows) - 1
		s.x = min(param(params, 1, 1), s.cols) - 1
	case 'A':
		s.y = max(0, s.y-param(params, 0, 1))
	case 'B':
		s.y = min(s.rows-1, s.y+param(params, 0, 1))
	case 'C':
		s.x = min(s.cols-1, s.x+param(params, 0, 1))
	case 'D':
		s.x = max(0, s.x-param(params, 0, 1))
	case 'J':
		switch mode := param(params, 0, 0); mode {
		case 0:
			s.eraseLine(s.y, s.x, s.cols)
			for y := s.y + 1; y < s.rows; y++ {
				s.eraseLine(y, 0, s.cols)
			}
		case 1:
			for y := 0; y < s.y; y++ {
				s.eraseLine(y, 0, s.cols)
			}
			s.eraseLine(s.y, 0, s.x+1)
		default:
			s.clear()
		}
	case 'K':
		switch mode := param(params, 0, 0); mode {
		case 0:
			s.eraseLine(s.y, s.x, s.cols)
		case 1:
			s.eraseLine(s.y, 0, s.x+1)
		default:
			s.eraseLine(s.y, 0, s.cols)
		}
	}
	// 'm' (SGR) and anything else only affects styling.
}

func (s *Screen) put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if s.x+w > s.cols {
		s.x = 0
		s.lineFeed()
	}
	s.cells[s.y][s.x] = cell{ch: r}
	if w == 2 {
		s.cells[s.y][s.x+1] = cell{cont: true}
	}
	s.x += w
}

func (s *Screen) lineFeed() {
	if s.y < s.rows-1 {
		s.y++
		return
	}
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = make([]cell, s.cols)
	s.eraseLine(s.rows-1, 0, s.cols)
}

func (s *Screen) eraseLine(y, from, to int) {
	for x := from; x < min(to, s.cols); x++ {
		s.cells[y][x] = cell{ch: ' '}
	}
}

func (s *Screen) clear() {
	for y := range s.cells {
		s.eraseLine(y, 0, s.cols)
	}
}

// Row returns row y with trailing blanks trimmed.
func (s *Screen) Row(y int) string {
	if y < 0 || y >= s.rows {
		return ""
	}
	return strings.TrimRight(s.Slice(y, 0, s.cols), " ")
}

// Slice returns width columns of row y starting at column x.
func (s *Screen) Slice(y, x, width int) string {
	if y < 0 || y >= s.rows {
		return ""
	}
	var b strings.Builder
	for i := max(x, 0); i < min(x+width, s.cols); i++ {
		if c := s.cells[y][i]; !c.cont {
			b.WriteRune(c.ch)
		}
	}
	return b.String()
}

// Text is every row joined by newlines.
func (s *Screen) Text() string {
	rows := make([]string, s.rows)
	for y := range rows {
		rows[y] = s.Row(y)
	}
	return strings.Join(rows, "\n")
}

// Find returns the position of the first occurrence of text, row by row.
func (s *Screen) Find(text string) (x, y int, ok bool) {
	for y := 0; y < s.rows; y++ {
		row := s.Slice(y, 0, s.cols)
		if i := strings.Index(row, text); i >= 0 {
			return runewidth.StringWidth(row[:i]), y, true
		}
	}
	return 0, 0, false
}

// Cursor reports the cursor column and row.
func (s *Screen) Cursor() (x, y int) {
	return s.x, s.y
}
