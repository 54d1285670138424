package formatter

import (
	"encoding/csv"
	"io"
)

// CSVFormatter writes the header and the rows. Derived metrics are left out
// so the output stays one record shape.
type CSVFormatter struct {
	w io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{w: w}
}

func (f *CSVFormatter) Format(r *Report) error {
	w := csv.NewWriter(f.w)

	if err := w.Write(r.Headers()); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
