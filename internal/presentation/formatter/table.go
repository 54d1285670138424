package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const minColumnWidth = 6

type TableFormatter struct {
	w io.Writer
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{w: w}
}

func (f *TableFormatter) Format(r *Report) error {
	title := r.Title
	if r.TimeRange != "" {
		title += " (" + r.TimeRange + ")"
	}
	fmt.Fprintln(f.w, title)

	if len(r.Rows) == 0 {
		fmt.Fprintln(f.w, "No rows")
	} else {
		widths := f.calculateColumnWidths(r)

		f.printBorder(widths, "top")
		f.printRow(r.Columns, r.Headers(), widths)
		f.printBorder(widths, "middle")
		for _, row := range r.Rows {
			f.printRow(r.Columns, row, widths)
		}
		f.printBorder(widths, "bottom")
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintln(f.w)
		label := 0
		for _, m := range r.Metrics {
			label = max(label, util.GetDisplayWidth(m.Name))
		}
		for _, m := range r.Metrics {
			fmt.Fprintf(f.w, "  %s  %s\n", util.PadRight(m.Name, label), m.Value)
		}
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(f.w, "\nMissing: %s\n", strings.Join(r.Missing, ", "))
	}
	return nil
}

// calculateColumnWidths sizes each column to its widest cell in display cells.
func (f *TableFormatter) calculateColumnWidths(r *Report) []int {
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = max(util.GetDisplayWidth(c.Name), minColumnWidth)
	}
	for _, row := range r.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], util.GetDisplayWidth(row[i]))
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(f.w, b.String())
}

// printRow prints one row; numeric columns are right-aligned.
func (f *TableFormatter) printRow(columns []Column, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, width := range widths {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		pad := strings.Repeat(" ", max(width-util.GetDisplayWidth(value), 0))
		if columns[i].Numeric {
			b.WriteString(" " + pad + value + " │")
		} else {
			b.WriteString(" " + value + pad + " │")
		}
	}
	fmt.Fprintln(f.w, b.String())
}
