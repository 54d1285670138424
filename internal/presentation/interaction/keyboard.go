package interaction

import (
	"os"
	"strconv"
	"unicode/utf8"

	"golang.org/x/sys/unix"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
)

// KeyboardReader handles keyboard and mouse input in raw mode
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan InputEvent
	stop     chan struct{}
}

// InputEvent represents a keyboard or pointer event
type InputEvent struct {
	Key  rune
	Type KeyType
	// Pointer position in zero-based cells, for mouse events
	X, Y int
}

// Point returns the pointer position of a mouse event
func (e InputEvent) Point() geometry.Point {
	return geometry.Point{X: e.X, Y: e.Y}
}

// IsMouse reports whether the event came from the pointer
func (e InputEvent) IsMouse() bool {
	return e.Type == MousePress || e.Type == MouseDrag || e.Type == MouseRelease
}

// KeyType represents the type of input
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyTab
	KeyBackTab
	KeyEnter
	MousePress
	MouseDrag
	MouseRelease
)

// NewKeyboardReader creates a new keyboard reader
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan InputEvent, 64),
		stop:  make(chan struct{}),
	}

	// Set terminal to raw mode
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	// Start reading keyboard input
	go kr.readInput()

	return kr, nil
}

// readInput reads keyboard input in a goroutine
func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 256)

	for {
		select {
		case <-kr.stop:
			return
		default:
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			for _, event := range ParseInput(buf[:n]) {
				select {
				case kr.input <- event:
				case <-kr.stop:
					return
				}
			}
		}
	}
}

// ParseInput decodes one read from the terminal. A single read may hold
// several keys or a burst of SGR mouse reports.
func ParseInput(buf []byte) []InputEvent {
	var events []InputEvent
	for i := 0; i < len(buf); {
		b := buf[i]
		switch {
		case b == 3: // Ctrl+C
			events = append(events, InputEvent{Key: 3, Type: KeyChar})
			i++
		case b == 27:
			ev, n := parseEscape(buf[i:])
			if ev != nil {
				events = append(events, *ev)
			}
			i += n
		case b == '\t':
			events = append(events, InputEvent{Key: '\t', Type: KeyTab})
			i++
		case b == '\r' || b == '\n':
			events = append(events, InputEvent{Key: '\r', Type: KeyEnter})
			i++
		default:
			r, size := utf8.DecodeRune(buf[i:])
			events = append(events, InputEvent{Key: r, Type: KeyChar})
			i += size
		}
	}
	return events
}

// parseEscape decodes an escape sequence at the start of buf and returns
// the event (nil if ignored) and the bytes consumed.
func parseEscape(buf []byte) (*InputEvent, int) {
	if len(buf) == 1 || buf[1] != '[' {
		return &InputEvent{Key: 27, Type: KeyEscape}, 1
	}
	if len(buf) < 3 {
		return nil, len(buf)
	}
	if buf[2] == '<' {
		return parseSGRMouse(buf)
	}

	// CSI: parameters then one final byte in 0x40..0x7e
	end := 2
	for end < len(buf) && (buf[end] < 0x40 || buf[end] > 0x7e) {
		end++
	}
	if end == len(buf) {
		return nil, len(buf)
	}
	n := end + 1
	if end != 2 {
		// Modified keys such as shift-arrows are not bound.
		return nil, n
	}
	switch buf[end] {
	case 'A':
		return &InputEvent{Type: KeyUp}, n
	case 'B':
		return &InputEvent{Type: KeyDown}, n
	case 'C':
		return &InputEvent{Type: KeyRight}, n
	case 'D':
		return &InputEvent{Type: KeyLeft}, n
	case 'Z':
		return &InputEvent{Type: KeyBackTab}, n
	}
	return nil, n
}

// parseSGRMouse decodes "ESC [ < b ; x ; y M|m".
func parseSGRMouse(buf []byte) (*InputEvent, int) {
	var fields [3]int
	field := 0
	start := 3
	for i := 3; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';' && field < 2:
			v, err := strconv.Atoi(string(buf[start:i]))
			if err != nil {
				return nil, i + 1
			}
			fields[field] = v
			field++
			start = i + 1
		case (c == 'M' || c == 'm') && field == 2:
			v, err := strconv.Atoi(string(buf[start:i]))
			if err != nil {
				return nil, i + 1
			}
			fields[2] = v
			return mouseEvent(fields[0], fields[1]-1, fields[2]-1, c == 'm'), i + 1
		default:
			return nil, i + 1
		}
	}
	return nil, len(buf)
}

func mouseEvent(button, x, y int, release bool) *InputEvent {
	// Wheel and buttons other than the primary one are not bound.
	if button&64 != 0 || button&3 != 0 {
		return nil
	}
	ev := &InputEvent{Type: MousePress, X: x, Y: y}
	switch {
	case release:
		ev.Type = MouseRelease
	case button&32 != 0:
		ev.Type = MouseDrag
	}
	return ev
}

// Events returns the input event channel
func (kr *KeyboardReader) Events() <-chan InputEvent {
	return kr.input
}

// Close stops the keyboard reader and restores terminal
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}
