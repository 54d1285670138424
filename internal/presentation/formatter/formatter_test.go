package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		View:        "kiln_health",
		Title:       "Kiln Health",
		TimeRange:   "24h",
		GeneratedAt: time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
		Columns: []Column{
			{Name: "Time"},
			{Name: "Temp (°C)", Numeric: true},
			{Name: "O₂ (%)", Numeric: true},
		},
		Rows: [][]string{
			{"00:00", "1,450.0", "2.10"},
			{"01:00", "1,512.5", "—"},
		},
		Metrics: []Metric{
			{Name: "Temp avg", Value: "1,481.3 °C"},
			{Name: "Temp trend", Value: "↑ up"},
		},
		Missing: []string{"trends.pressure/oxygen"},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format string
		want   Formatter
	}{
		{"", &TableFormatter{}},
		{FormatTable, &TableFormatter{}},
		{FormatJSON, &JSONFormatter{}},
		{FormatCSV, &CSVFormatter{}},
		{FormatSummary, &SummaryFormatter{}},
	}
	for _, tt := range tests {
		t.Run("format_"+tt.format, func(t *testing.T) {
			f, err := New(tt.format, &bytes.Buffer{})
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	_, err := New("xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).Format(sampleReport()))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	assert.Equal(t, "Kiln Health (24h)", lines[0])
	assert.Equal(t, "┌────────┬───────────┬────────┐", lines[1])
	assert.Equal(t, "│ Time   │ Temp (°C) │ O₂ (%) │", lines[2])
	assert.Equal(t, "├────────┼───────────┼────────┤", lines[3])
	assert.Equal(t, "│ 00:00  │   1,450.0 │   2.10 │", lines[4])
	assert.Equal(t, "│ 01:00  │   1,512.5 │      — │", lines[5])
	assert.Equal(t, "└────────┴───────────┴────────┘", lines[6])
	assert.Contains(t, buf.String(), "  Temp avg    1,481.3 °C")
	assert.Contains(t, buf.String(), "Missing: trends.pressure/oxygen")
}

func TestTableFormatterNoRows(t *testing.T) {
	var buf bytes.Buffer
	r := &Report{Title: "Variance Analysis", Columns: []Column{{Name: "Metric"}}}
	require.NoError(t, NewTableFormatter(&buf).Format(r))
	assert.Equal(t, "Variance Analysis\nNo rows\n", buf.String())
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport()
	r.Rows = append(r.Rows, []string{"02:00", "1,400.0", "with, comma"})
	require.NoError(t, NewCSVFormatter(&buf).Format(r))

	want := "Time,Temp (°C),O₂ (%)\n" +
		"00:00,\"1,450.0\",2.10\n" +
		"01:00,\"1,512.5\",—\n" +
		"02:00,\"1,400.0\",\"with, comma\"\n"
	assert.Equal(t, want, buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(sampleReport()))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var got Report
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "kiln_health", got.View)
	assert.Equal(t, "24h", got.TimeRange)
	assert.Equal(t, []string{"Time", "Temp (°C)", "O₂ (%)"}, got.Headers())
	assert.Len(t, got.Rows, 2)
	assert.Equal(t, "1,481.3 °C", got.Metrics[0].Value)
}

func TestSummaryFormatter(t *testing.T) {
	t.Run("with_metrics", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewSummaryFormatter(&buf).Format(sampleReport()))
		out := buf.String()
		for _, want := range []string{
			"Kiln Monitor Report: Kiln Health",
			"Time Range: 24h",
			"Generated:  2026-03-01 08:30:00",
			"Rows:       2",
			"  Temp trend:              ↑ up",
			"  - trends.pressure/oxygen",
		} {
			assert.Contains(t, out, want)
		}
		assert.NotContains(t, out, "00:00", "rows are not printed")
	})

	t.Run("without_metrics", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewSummaryFormatter(&buf).Format(&Report{Title: "Settings"}))
		assert.Contains(t, buf.String(), "No metrics to summarize")
		assert.NotContains(t, buf.String(), "Time Range")
	})
}
