package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []InputEvent
	}{
		{
			name:     "Regular char",
			input:    []byte{'a'},
			expected: []InputEvent{{Key: 'a', Type: KeyChar}},
		},
		{
			name:     "Escape",
			input:    []byte{27},
			expected: []InputEvent{{Key: 27, Type: KeyEscape}},
		},
		{
			name:     "Ctrl+C",
			input:    []byte{3},
			expected: []InputEvent{{Key: 3, Type: KeyChar}},
		},
		{
			name:     "Arrow keys",
			input:    []byte("\x1b[A\x1b[B\x1b[C\x1b[D"),
			expected: []InputEvent{{Type: KeyUp}, {Type: KeyDown}, {Type: KeyRight}, {Type: KeyLeft}},
		},
		{
			name:     "Tab and back tab",
			input:    []byte("\t\x1b[Z"),
			expected: []InputEvent{{Key: '\t', Type: KeyTab}, {Type: KeyBackTab}},
		},
		{
			name:     "Shift arrow ignored",
			input:    []byte("\x1b[1;2Aq"),
			expected: []InputEvent{{Key: 'q', Type: KeyChar}},
		},
		{
			name:  "Mouse press drag release",
			input: []byte("\x1b[<0;11;6M\x1b[<32;15;8M\x1b[<0;15;8m"),
			expected: []InputEvent{
				{Type: MousePress, X: 10, Y: 5},
				{Type: MouseDrag, X: 14, Y: 7},
				{Type: MouseRelease, X: 14, Y: 7},
			},
		},
		{
			name:     "Wheel ignored",
			input:    []byte("\x1b[<64;3;3M"),
			expected: nil,
		},
		{
			name:     "Right button ignored",
			input:    []byte("\x1b[<2;3;3M"),
			expected: nil,
		},
		{
			name:     "Truncated sequence",
			input:    []byte("\x1b[<0;11"),
			expected: nil,
		},
		{
			name:     "Multibyte rune",
			input:    []byte("é"),
			expected: []InputEvent{{Key: 'é', Type: KeyChar}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseInput(tt.input))
		})
	}
}

func TestInputEventPoint(t *testing.T) {
	ev := InputEvent{Type: MouseDrag, X: 4, Y: 9}
	assert.True(t, ev.IsMouse())
	assert.Equal(t, 4, ev.Point().X)
	assert.Equal(t, 9, ev.Point().Y)
	assert.False(t, InputEvent{Type: KeyChar, Key: 'x'}.IsMouse())
}

func TestRecommendationSorter(t *testing.T) {
	conf := func(v float64) *float64 { return &v }
	recs := func() []model.Recommendation {
		return []model.Recommendation{
			{ID: 1, Status: model.RecommendationApproved, Confidence: conf(0.95)},
			{ID: 2, Status: model.RecommendationPending, Confidence: conf(0.88)},
			{ID: 3, Status: model.RecommendationRejected},
		}
	}
	ids := func(rs []model.Recommendation) []int {
		out := make([]int, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	sorter := NewRecommendationSorter()

	tests := []struct {
		field    SortField
		expected []int
	}{
		{field: SortByTime, expected: []int{3, 2, 1}},
		{field: SortByConfidence, expected: []int{1, 2, 3}},
		{field: SortByStatus, expected: []int{2, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			assert.Equal(t, tt.field, sorter.Field())
			rs := recs()
			sorter.Sort(rs)
			assert.Equal(t, tt.expected, ids(rs))
			sorter.Cycle()
		})
	}
	assert.Equal(t, SortByTime, sorter.Field(), "cycles back to time")
}
