package formatter

import (
	"fmt"
	"io"
	"time"
)

// Output formats accepted by New.
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Report is one dashboard view flattened into rows plus derived metrics.
type Report struct {
	View        string     `json:"view"`
	Title       string     `json:"title"`
	TimeRange   string     `json:"time_range,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	Columns     []Column   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Metrics     []Metric   `json:"metrics,omitempty"`
	Missing     []string   `json:"missing,omitempty"`
}

// Column describes one cell position of every row. Numeric columns are
// right-aligned in tables.
type Column struct {
	Name    string `json:"name"`
	Numeric bool   `json:"numeric,omitempty"`
}

// Metric is a derived figure printed under the rows, already formatted.
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Formatter writes a report in one output format.
type Formatter interface {
	Format(r *Report) error
}

// New returns the formatter for format, writing to w.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatTable, "":
		return NewTableFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatCSV:
		return NewCSVFormatter(w), nil
	case FormatSummary:
		return NewSummaryFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json, csv or summary)", format)
	}
}

// Headers lists the column names in order.
func (r *Report) Headers() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Name
	}
	return out
}
