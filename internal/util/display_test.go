package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateProgressBar(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		width      int
		expected   string
	}{
		{name: "empty", percentage: 0, width: 7, expected: "[░░░░░]"},
		{name: "full", percentage: 100, width: 7, expected: "[█████]"},
		{name: "over full is capped", percentage: 250, width: 7, expected: "[█████]"},
		{name: "negative is empty", percentage: -10, width: 7, expected: "[░░░░░]"},
		{name: "partial", percentage: 50, width: 6, expected: "[██░░]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreateProgressBar(tt.percentage, tt.width))
		})
	}
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁█", Sparkline([]float64{1, 2}))
	assert.Equal(t, "▅▅▅", Sparkline([]float64{3, 3, 3}))

	line := Sparkline([]float64{1450, 1455, 1465, 1475, 1480, 1485})
	assert.Equal(t, 6, len([]rune(line)))
	assert.Equal(t, '▁', []rune(line)[0])
	assert.Equal(t, '█', []rune(line)[5])
}

func TestResample(t *testing.T) {
	assert.Nil(t, Resample(nil, 4))
	assert.Equal(t, []float64{1, 3}, Resample([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 1, 2, 2}, Resample([]float64{1, 2}, 4))
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "Kiln", Truncate("Kiln", 10))
	assert.Equal(t, "Kiln Bu…", Truncate("Kiln Burning", 8))
	assert.Equal(t, "", Truncate("Kiln", 0))

	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, " ab ", CenterText("ab", 4))
	assert.Equal(t, "°C", PadRight("°C", 1))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, ColorRed, StatusColor("failed"))
	assert.Equal(t, ColorGreen, StatusColor("Completed"))
	assert.Equal(t, ColorYellow, StatusColor("Warning"))
	assert.Equal(t, "", StatusColor("unknown"))
	assert.Equal(t, "x", Colorize("", "x"))
}
