package model

// MetricPoint is one labelled sample of a series.
type MetricPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MetricSeries is consumed read-only in the order received; gaps are not filled.
type MetricSeries []MetricPoint

// Values returns the sample values in order.
func (s MetricSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Labels returns the sample labels in order.
func (s MetricSeries) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Label
	}
	return out
}
