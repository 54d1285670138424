package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "Kiln OK", StripANSI("\x1b[1m\x1b[32mKiln\x1b[0m OK"))
	assert.Equal(t, "plain", StripANSI("\x1b[?25lplain\x1b[?25h"))
}

func TestScreenWrite(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		rows  []string
	}{
		{
			name:  "cursor position",
			input: []string{"\x1b[2;3Habc"},
			rows:  []string{"", "  abc", ""},
		},
		{
			name:  "styles take no cells",
			input: []string{"\x1b[31mred\x1b[0m ok"},
			rows:  []string{"red ok", "", ""},
		},
		{
			name:  "row update overwrites",
			input: []string{"\x1b[1;1Hold frame", "\x1b[1;1H\x1b[2Knew"},
			rows:  []string{"new", "", ""},
		},
		{
			name:  "clear screen",
			input: []string{"one\ntwo", "\x1b[2J\x1b[H", "x"},
			rows:  []string{"x", "", ""},
		},
		{
			name:  "sequence split across writes",
			input: []string{"a\x1b[3", ";2Hb"},
			rows:  []string{"a", "", " b"},
		},
		{
			name:  "private modes ignored",
			input: []string{"\x1b[?1049h\x1b[?1002hhi"},
			rows:  []string{"hi", "", ""},
		},
		{
			name:  "scrolls at the bottom",
			input: []string{"1\n2\n3\n4"},
			rows:  []string{"2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(10, 3)
			for _, in := range tt.input {
				_, err := s.Write([]byte(in))
				assert.NoError(t, err)
			}
			for y, want := range tt.rows {
				assert.Equal(t, want, s.Row(y), "row %d", y)
			}
		})
	}
}

func TestScreenWideRunes(t *testing.T) {
	s := New(10, 2)
	_, _ = s.Write([]byte("窑温 ok"))
	assert.Equal(t, "窑温 ok", s.Row(0))

	x, y, ok := s.Find("ok")
	assert.True(t, ok)
	assert.Equal(t, 5, x)
	assert.Equal(t, 0, y)
	assert.Equal(t, "温", s.Slice(0, 2, 2))
}

func TestScreenFind(t *testing.T) {
	s := New(20, 4)
	_, _ = s.Write([]byte("\x1b[3;6H╭─ Panel ─╮"))

	x, y, ok := s.Find("Panel")
	assert.True(t, ok)
	assert.Equal(t, 8, x)
	assert.Equal(t, 2, y)

	_, _, ok = s.Find("missing")
	assert.False(t, ok)
}
