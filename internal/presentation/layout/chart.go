package layout

import (
	"fmt"
	"math"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/metrics"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// ChartSeries is the primary series of a view, for the fullscreen chart.
type ChartSeries struct {
	Title   string
	Unit    string
	Series  model.MetricSeries
	HasBand bool
	Lo, Hi  float64
}

// PrimarySeries picks the chart for the active view; ok is false when the
// view has no chartable data loaded.
func PrimarySeries(app *model.AppState) (ChartSeries, bool) {
	d := app.Data
	switch app.ActiveView {
	case model.ViewOverview:
		if d.Overview.HasData() && d.Overview.Data.KilnHealth != nil {
			return ChartSeries{Title: "Kiln temperature", Unit: "°C", Series: d.Overview.Data.KilnHealth.TempSeries()}, true
		}
	case model.ViewKilnHealth:
		if d.Kiln.HasData() {
			return ChartSeries{Title: "Kiln temperature", Unit: "°C", Series: d.Kiln.Data.TempSeries()}, true
		}
	case model.ViewEnergy:
		if d.Energy.HasData() {
			return ChartSeries{Title: "Energy consumption", Unit: "MWh", Series: d.Energy.Data.ConsumptionSeries()}, true
		}
	case model.ViewQuality:
		if d.Quality.HasData() {
			lo, hi := d.Quality.Data.TargetBand()
			return ChartSeries{Title: "f-CaO", Unit: "%", Series: d.Quality.Data.FCaOSeries(), HasBand: true, Lo: lo, Hi: hi}, true
		}
	}
	return ChartSeries{}, false
}

// RenderFullscreenChart covers area with a large chart of the active view.
func RenderFullscreenChart(c *Canvas, area geometry.Rect, app *model.AppState) {
	c.Fill(area, ' ', "")
	cs, ok := PrimarySeries(app)
	title := "Chart"
	if ok {
		title = cs.Title
		if tr, scoped := app.TimeRangeFor(app.ActiveView); scoped {
			title += " (" + tr.String() + ")"
		}
	}
	c.Box(area, title, util.ColorCyan)
	inner := geometry.Rect{Left: area.Left + 2, Top: area.Top + 1, Width: area.Width - 4, Height: area.Height - 2}
	if inner.Width <= 0 || inner.Height <= 0 {
		return
	}
	if !ok || len(cs.Series) == 0 {
		c.TextClip(inner.Left, inner.Top, "No chart for this view", util.ColorGray, inner.Right())
		c.TextClip(inner.Left, inner.Bottom()-1, "f close", util.ColorGray, inner.Right())
		return
	}

	sum := metrics.Summarize(cs.Series)
	legend := fmt.Sprintf("avg %s  min %s  max %s  %s",
		util.FormatValue(sum.Mean, 2, cs.Unit), util.FormatThousands(sum.Min, 2), util.FormatThousands(sum.Max, 2), util.TrendArrow(sum.Trend))
	if cs.HasBand {
		band := metrics.SummarizeBand(cs.Series, cs.Lo, cs.Hi)
		legend += fmt.Sprintf("  in band %s", util.FormatPercent(band.BandPct))
	}
	c.TextClip(inner.Left, inner.Top, legend, "", inner.Right())

	const axis = 10
	chart := geometry.Rect{Left: inner.Left + axis, Top: inner.Top + 2, Width: inner.Width - axis, Height: inner.Height - 4}
	if chart.Width <= 0 || chart.Height <= 0 {
		return
	}
	values := util.Resample(cs.Series.Values(), chart.Width)
	lo, hi, _ := metrics.MinMax(values)
	if cs.HasBand {
		lo, hi = math.Min(lo, cs.Lo), math.Max(hi, cs.Hi)
	}
	rows := BarChart(values, lo, hi, chart.Height)
	for i, row := range rows {
		style := util.ColorCyan
		if cs.HasBand {
			style = util.ColorGreen
		}
		c.TextClip(chart.Left, chart.Top+i, row, style, chart.Right())
	}
	c.TextClip(inner.Left, chart.Top, util.Truncate(util.FormatThousands(hi, 1), axis-1), util.ColorGray, chart.Left)
	c.TextClip(inner.Left, chart.Bottom()-1, util.Truncate(util.FormatThousands(lo, 1), axis-1), util.ColorGray, chart.Left)

	labels := cs.Series.Labels()
	c.TextClip(chart.Left, chart.Bottom(), labels[0], util.ColorGray, chart.Right())
	last := labels[len(labels)-1]
	c.TextClip(max(chart.Right()-util.GetDisplayWidth(last), chart.Left), chart.Bottom(), last, util.ColorGray, chart.Right())
	c.TextClip(inner.Left, inner.Bottom()-1, "f close  t range", util.ColorGray, inner.Right())
}

// BarChart renders values as vertical bars of the given height, one column
// per value, scaled between lo and hi with eighth-block resolution.
func BarChart(values []float64, lo, hi float64, height int) []string {
	if height <= 0 {
		return nil
	}
	span := hi - lo
	levels := make([]int, len(values))
	for i, v := range values {
		if span <= 0 {
			levels[i] = height * 4
			continue
		}
		// Keep a sliver for the minimum so it stays visible.
		frac := (v - lo) / span
		levels[i] = max(int(math.Round(frac*float64(height*8))), 1)
	}

	rows := make([]string, height)
	for r := range height {
		floor := (height - 1 - r) * 8
		line := make([]rune, len(values))
		for i, lvl := range levels {
			switch fill := lvl - floor; {
			case fill >= 8:
				line[i] = eighths[8]
			case fill <= 0:
				line[i] = eighths[0]
			default:
				line[i] = eighths[fill]
			}
		}
		rows[r] = string(line)
	}
	return rows
}
