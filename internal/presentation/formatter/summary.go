package formatter

import (
	"fmt"
	"io"
	"strings"
)

// SummaryFormatter prints the derived metrics of a report without the rows.
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

// Format writes the summary report.
func (f *SummaryFormatter) Format(r *Report) error {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(f.w, rule)
	fmt.Fprintf(f.w, "Kiln Monitor Report: %s\n", r.Title)
	fmt.Fprintln(f.w, rule)
	fmt.Fprintln(f.w)

	if r.TimeRange != "" {
		fmt.Fprintf(f.w, "Time Range: %s\n", r.TimeRange)
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(f.w, "Generated:  %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(f.w, "Rows:       %d\n", len(r.Rows))
	fmt.Fprintln(f.w)

	if len(r.Metrics) == 0 {
		fmt.Fprintln(f.w, "No metrics to summarize")
	} else {
		fmt.Fprintln(f.w, "Metrics:")
		fmt.Fprintln(f.w, strings.Repeat("-", 60))
		for _, m := range r.Metrics {
			fmt.Fprintf(f.w, "  %-24s %s\n", m.Name+":", m.Value)
		}
	}

	if len(r.Missing) > 0 {
		fmt.Fprintln(f.w)
		fmt.Fprintln(f.w, "Missing fields:")
		for _, name := range r.Missing {
			fmt.Fprintf(f.w, "  - %s\n", name)
		}
	}

	fmt.Fprintln(f.w)
	fmt.Fprintln(f.w, rule)
	return nil
}
