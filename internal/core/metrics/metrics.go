package metrics

import (
	"math"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Trend directions, matching the API's trend words.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Summary holds the derived statistics shown next to a chart.
type Summary struct {
	Count   int
	Mean    float64
	Min     float64
	Max     float64
	Trend   string
	InBand  int
	BandPct float64
	HasBand bool
}

// Mean calculates the arithmetic mean of values, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// CountInBand counts values inside the inclusive band [lo, hi].
func CountInBand(values []float64, lo, hi float64) int {
	n := 0
	for _, v := range values {
		if v >= lo && v <= hi {
			n++
		}
	}
	return n
}

// PercentInBand is the share of values in [lo, hi], rounded to one decimal.
func PercentInBand(values []float64, lo, hi float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Round(float64(CountInBand(values, lo, hi))/float64(len(values))*100, 1)
}

// MinMax returns the extremes; ok is false for an empty slice.
func MinMax(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

// Trend compares the last point with the first. Changes within tolerance
// (relative to the first value's magnitude) count as stable.
func Trend(values []float64, tolerance float64) string {
	if len(values) < 2 {
		return TrendStable
	}
	first, last := values[0], values[len(values)-1]
	delta := last - first
	if math.Abs(delta) <= math.Abs(first)*tolerance {
		return TrendStable
	}
	if delta > 0 {
		return TrendUp
	}
	return TrendDown
}

// Summarize derives the display statistics for a series.
func Summarize(series model.MetricSeries) Summary {
	values := series.Values()
	lo, hi, _ := MinMax(values)
	return Summary{
		Count: len(values),
		Mean:  Round(Mean(values), 2),
		Min:   lo,
		Max:   hi,
		Trend: Trend(values, 0.01),
	}
}

// SummarizeBand is Summarize plus the in-band count and percentage.
func SummarizeBand(series model.MetricSeries, lo, hi float64) Summary {
	s := Summarize(series)
	values := series.Values()
	s.InBand = CountInBand(values, lo, hi)
	s.BandPct = PercentInBand(values, lo, hi)
	s.HasBand = true
	return s
}

// Correlation is the Pearson coefficient of xs and ys, 0 when either side is
// constant or the lengths differ.
func Correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
