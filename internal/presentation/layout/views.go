package layout

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/metrics"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// pen writes lines top to bottom inside an area.
type pen struct {
	c    *Canvas
	area geometry.Rect
	y    int
}

func newPen(c *Canvas, area geometry.Rect) *pen {
	return &pen{c: c, area: area, y: area.Top}
}

func (p *pen) full() bool {
	return p.y >= p.area.Bottom()
}

func (p *pen) line(text, style string) {
	p.indent(0, text, style)
}

func (p *pen) indent(dx int, text, style string) {
	if p.full() {
		return
	}
	p.c.TextClip(p.area.Left+dx, p.y, text, style, p.area.Right())
	p.y++
}

func (p *pen) blank() {
	p.y++
}

func (p *pen) title(text string) {
	p.line(text, util.ColorBold+util.ColorGreen)
}

// spans writes several styled pieces on one line.
func (p *pen) spans(parts ...span) {
	if p.full() {
		return
	}
	x := p.area.Left
	for _, s := range parts {
		x = p.c.TextClip(x, p.y, s.text, s.style, p.area.Right())
	}
	p.y++
}

type span struct {
	text  string
	style string
}

func plain(text string) span { return span{text: text} }

func styled(style, text string) span { return span{text: text, style: style} }

// RenderView dispatches to the renderer of the active view.
func RenderView(c *Canvas, area geometry.Rect, f *Frame) {
	p := newPen(c, area)
	app := f.App
	d := app.Data
	switch app.ActiveView {
	case model.ViewOverview:
		if ready(p, f, d.Overview) {
			renderOverview(p, d.Overview.Data, app)
		}
	case model.ViewKilnHealth:
		if ready(p, f, d.Kiln) {
			renderKiln(p, d.Kiln.Data)
		}
	case model.ViewEnergy:
		if ready(p, f, d.Energy) {
			renderEnergy(p, d.Energy.Data)
		}
	case model.ViewQuality:
		if ready(p, f, d.Quality) {
			renderQuality(p, d.Quality.Data)
		}
	case model.ViewFlow:
		if ready(p, f, d.Flow) {
			renderFlow(p, d.Flow.Data, app.AlertingNodes)
		}
	case model.ViewVariance:
		if ready(p, f, d.Variance) {
			renderVariance(p, d.Variance.Data)
		}
	case model.ViewAgent:
		if ready(p, f, d.Agent) {
			renderAgent(p, d.Agent.Data, f.UI.Selected, f.Param.SortLabel)
		}
	case model.ViewSettings:
		if ready(p, f, d.Settings) {
			renderSettings(p, d.Settings.Data)
		}
	}
}

// ready draws the loading, error and missing-data states of a snapshot and
// reports whether the payload itself should be drawn.
func ready[T any](p *pen, f *Frame, snap model.ViewSnapshot[T]) bool {
	view := f.App.ActiveView
	scope := ""
	if snap.TimeRange != "" {
		scope = " (" + snap.TimeRange.String() + ")"
	}
	p.title(strings.ToUpper(view.Title()) + scope)

	switch snap.Status {
	case model.StatusIdle:
		p.line("Waiting for data...", util.ColorGray)
		return false
	case model.StatusLoading:
		frame := spinner[int(f.Param.Now.Unix())%len(spinner)]
		p.line(fmt.Sprintf("%s Loading %s%s...", frame, view.Title(), scope), util.ColorCyan)
		return false
	case model.StatusError:
		p.line("✖ "+ErrorText(snap.Err), util.ColorRed)
		p.line("  press r to retry", util.ColorGray)
		return false
	}

	if snap.Refreshing {
		p.line("↻ refreshing...", util.ColorGray)
	}
	if snap.Status == model.StatusPartial {
		p.line("Missing: "+strings.Join(snap.Missing, ", "), util.ColorYellow)
	}
	p.blank()
	return true
}

// ErrorText is the banner text for a failed fetch, naming the error kind.
func ErrorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	switch kind := api.KindOf(err); kind {
	case 0:
	case api.KindNetwork:
		return "API unreachable: " + err.Error()
	default:
		return fmt.Sprintf("[%s] %v", kind, err)
	}
	return err.Error()
}

// seriesLine renders "label  sparkline  avg .. min .. max .. trend".
func seriesLine(p *pen, label string, series model.MetricSeries, decimals int, unit string) {
	if len(series) == 0 {
		p.spans(plain(util.PadRight(label, 14)), styled(util.ColorGray, util.MissingMark+" no samples"))
		return
	}
	sum := metrics.Summarize(series)
	width := min(len(series), max(p.area.Width-60, 8))
	p.spans(
		plain(util.PadRight(label, 14)),
		styled(util.ColorCyan, util.PadRight(util.Sparkline(util.Resample(series.Values(), width)), width+2)),
		plain(fmt.Sprintf("avg %s  min %s  max %s  %s",
			util.FormatValue(sum.Mean, decimals, unit),
			util.FormatThousands(sum.Min, decimals),
			util.FormatThousands(sum.Max, decimals),
			util.TrendArrow(sum.Trend))),
	)
}

func renderOverview(p *pen, o *model.Overview, app *model.AppState) {
	if k := o.KilnHealth; k != nil {
		p.spans(plain("Kiln status   "), styled(util.StatusColor(k.Status), k.Status))
		seriesLine(p, "Temperature", k.TempSeries(), 1, "°C")
	}
	if e := o.EnergyCockpit; e != nil {
		seriesLine(p, "Energy", e.ConsumptionSeries(), 1, "MWh")
	}
	if q := o.PredictiveQuality; q != nil && q.TargetFCaOMin != nil && q.TargetFCaOMax != nil {
		seriesLine(p, "f-CaO", q.FCaOSeries(), 2, "%")
		lo, hi := q.TargetBand()
		sum := metrics.SummarizeBand(q.FCaOSeries(), lo, hi)
		p.indent(14, fmt.Sprintf("in target band %d/%d (%s)", sum.InBand, sum.Count, util.FormatPercent(sum.BandPct)), util.ColorGray)
	}
	p.blank()

	p.title("Process")
	if o.ProcessFlow == nil {
		p.line(util.MissingMark, util.ColorGray)
	} else {
		var parts []span
		for i, n := range o.ProcessFlow {
			if i > 0 {
				parts = append(parts, styled(util.ColorGray, " → "))
			}
			status := n.Status
			if _, alerting := app.AlertingNodes[n.ID]; alerting {
				status = model.NodeFailed
			}
			parts = append(parts, styled(util.StatusColor(status), nodeGlyph(status)+n.ID))
		}
		p.spans(parts...)
	}
	p.blank()

	p.title("Agent")
	if o.Recommendations == nil {
		p.line("Pending recommendations: "+util.MissingMark, "")
	} else {
		p.line(fmt.Sprintf("Pending recommendations: %d", len(model.PendingRecommendations(o.Recommendations))), "")
	}
	for i, a := range o.ActionLog {
		if i == 3 {
			break
		}
		p.spans(styled(util.StatusColor(a.Status), "  "+statusGlyph(a.Status)+" "), plain(a.Action+" "+a.Parameter))
	}

	anomalies := 0
	for _, r := range o.VarianceAnalysis {
		if r.IsAnomaly {
			anomalies++
		}
	}
	if o.VarianceAnalysis != nil {
		p.blank()
		style := util.ColorGreen
		if anomalies > 0 {
			style = util.ColorYellow
		}
		p.line(fmt.Sprintf("Variance anomalies: %d", anomalies), style)
	}
}

func renderKiln(p *pen, k *model.KilnHealth) {
	p.spans(plain("Status        "), styled(util.StatusColor(k.Status)+util.ColorBold, k.Status))
	if op := k.OperationalParameters; op != nil {
		p.line("Kiln temp     "+formatReading(op.KilnTemp), "")
		p.line("Fuel feed     "+formatReading(op.FuelConsumption), "")
	} else {
		p.line("Parameters    "+util.MissingMark, util.ColorGray)
	}
	p.blank()

	p.title("Trends")
	seriesLine(p, "Temperature", k.TempSeries(), 1, "°C")
	seriesLine(p, "Pressure", k.PressureSeries(), 2, "mbar")
	seriesLine(p, "Oxygen", k.OxygenSeries(), 2, "%")
	p.blank()

	p.title("Recent alerts")
	if k.RecentAlerts == nil {
		p.line(util.MissingMark, util.ColorGray)
		return
	}
	if len(k.RecentAlerts) == 0 {
		p.line("none", util.ColorGray)
	}
	for _, a := range k.RecentAlerts {
		p.spans(styled(util.StatusColor(a.Type), util.PadRight(a.Type, 9)), plain(a.Message+"  "), styled(util.ColorGray, a.Timestamp))
	}
}

func formatReading(r *model.Reading) string {
	if r == nil {
		return util.MissingMark
	}
	return util.FormatValue(r.Value, 1, r.Unit)
}

func renderEnergy(p *pen, e *model.EnergyCockpit) {
	seriesLine(p, "Consumption", e.ConsumptionSeries(), 1, "MWh")
	p.blank()

	if fc := e.FuelConsumption; fc != nil {
		p.line(fmt.Sprintf("Fuel rate     %s %s  (daily avg %s)",
			util.FormatValue(fc.CurrentRate, 2, "t/h"), util.TrendArrow(fc.Trend), util.FormatValue(fc.DailyAverage, 2, "t/h")), "")
	} else {
		p.line("Fuel rate     "+util.MissingMark, util.ColorGray)
	}
	if ee := e.EnergyEfficiency; ee != nil {
		style := util.ColorGreen
		if ee.SEC > ee.Target {
			style = util.ColorYellow
		}
		p.spans(plain("Efficiency    "), styled(style, util.FormatValue(ee.SEC, 0, "kcal/kg")),
			plain(fmt.Sprintf(" %s  target %s", util.TrendArrow(ee.Trend), util.FormatThousands(ee.Target, 0))))
	} else {
		p.line("Efficiency    "+util.MissingMark, util.ColorGray)
	}
	if ca := e.CostAnalysis; ca != nil {
		p.line(fmt.Sprintf("Cost          %s/day  saved today %s",
			util.FormatCurrency(ca.EstimatedDailyCost), util.FormatCurrency(ca.SavingsToday)), "")
	} else {
		p.line("Cost          "+util.MissingMark, util.ColorGray)
	}
	if em := e.EmissionsMonitoring; em != nil {
		pct := 0.0
		if em.Limit > 0 {
			pct = em.CurrentCO2 / em.Limit * 100
		}
		style := util.ColorGreen
		if pct >= 95 {
			style = util.ColorRed
		} else if pct >= 85 {
			style = util.ColorYellow
		}
		p.spans(plain("CO₂           "), styled(style, util.CreateProgressBar(pct, 22)),
			plain(fmt.Sprintf(" %.3f / %.2f t/t %s", em.CurrentCO2, em.Limit, util.TrendArrow(em.Trend))))
	} else {
		p.line("CO₂           "+util.MissingMark, util.ColorGray)
	}
}

func renderQuality(p *pen, q *model.PredictiveQuality) {
	lo, hi := q.TargetBand()
	series := q.FCaOSeries()
	sum := metrics.SummarizeBand(series, lo, hi)

	predicted := util.FormatOptional(q.PredictedFCaO, 2, "%")
	style := ""
	if q.PredictedFCaO != nil {
		style = util.ColorGreen
		if *q.PredictedFCaO < lo || *q.PredictedFCaO > hi {
			style = util.ColorRed
		}
	}
	confidence := q.ConfidenceInterval
	if confidence == "" {
		confidence = util.MissingMark
	}
	p.spans(plain("Predicted f-CaO  "), styled(style+util.ColorBold, predicted), plain("  "+confidence))
	p.line(fmt.Sprintf("Target band      %.2f%% - %.2f%%", lo, hi), "")
	p.blank()

	seriesLine(p, "f-CaO", series, 2, "%")
	p.line(fmt.Sprintf("In band          %d/%d (%s)", sum.InBand, sum.Count, util.FormatPercent(sum.BandPct)), "")
	p.line("                 "+util.CreateProgressBar(sum.BandPct, 30), util.ColorCyan)
	p.blank()

	p.title("Temperature vs f-CaO")
	if q.CorrelationData == nil {
		p.line(util.MissingMark, util.ColorGray)
		return
	}
	temps := make([]float64, len(q.CorrelationData))
	fcao := make([]float64, len(q.CorrelationData))
	for i, pt := range q.CorrelationData {
		temps[i] = pt.Temp
		fcao[i] = pt.FCaO
	}
	p.line(fmt.Sprintf("%d samples, correlation %+.2f", len(temps), metrics.Correlation(temps, fcao)), "")
}

func renderFlow(p *pen, nodes []model.ProcessNode, alerting map[string]string) {
	for i, n := range nodes {
		status := n.Status
		msg := n.Message
		if alertMsg, ok := alerting[n.ID]; ok {
			status = model.NodeFailed
			msg = "ALERT: " + alertMsg
		}
		style := util.StatusColor(status)
		p.spans(
			styled(style, fmt.Sprintf(" %s %s ", nodeGlyph(status), n.ID)),
			plain(util.PadRight(n.Label, 28)),
			styled(style, util.PadRight(status, 10)),
			styled(util.ColorGray, msg),
		)
		if i < len(nodes)-1 {
			p.line("   │", util.ColorGray)
		}
	}
}

func renderVariance(p *pen, rows []model.VarianceRow) {
	p.line(fmt.Sprintf("%-22s %10s %10s %9s  %-17s %s", "Metric", "Value", "Target", "Deviation", "Time", "Flag"), util.ColorBold)
	p.line(strings.Repeat("─", min(p.area.Width, 90)), util.ColorGray)
	for _, r := range rows {
		flag, style := "ok", ""
		if r.IsAnomaly {
			flag, style = "ANOMALY", util.ColorRed
		}
		p.line(fmt.Sprintf("%-22s %10s %10s %9s  %-17s %s",
			util.Truncate(r.MetricName, 22),
			util.FormatOptional(r.Value, 2, ""),
			util.FormatOptional(r.Target, 2, ""),
			util.FormatOptional(r.Deviation, 2, ""),
			util.Truncate(r.Timestamp, 17),
			flag), style)
	}
	if len(rows) == 0 {
		p.line("no rows", util.ColorGray)
	}
}

func renderAgent(p *pen, d *model.AgentData, selected int, sortLabel string) {
	title := "Recommendations"
	if sortLabel != "" {
		title += " (by " + sortLabel + ")"
	}
	p.title(title)
	if len(d.Recommendations) == 0 {
		p.line("none", util.ColorGray)
	}
	for i, r := range d.Recommendations {
		cursor := "  "
		style := ""
		if i == selected {
			cursor = "▶ "
			style = util.ColorReverse
		}
		conf := util.MissingMark
		if r.Confidence != nil {
			conf = util.CreateProgressBar(*r.Confidence*100, 12) + fmt.Sprintf(" %3.0f%%", *r.Confidence*100)
		}
		p.spans(
			styled(style, cursor+util.PadRight(util.Truncate(fmt.Sprintf("#%d %s", r.ID, r.Recommendation), 50), 50)),
			plain(" "),
			styled(util.StatusColor(r.Status), util.PadRight(r.Status, 9)),
			styled(util.ColorCyan, conf),
		)
	}
	p.line("↑/↓ select  y approve  n reject  s sort", util.ColorGray)
	p.blank()

	p.title("Action log")
	if len(d.Actions) == 0 {
		p.line("empty", util.ColorGray)
	}
	for _, a := range d.Actions {
		param := a.Parameter
		if a.Value != "" {
			param += " = " + a.Value
		}
		p.spans(
			styled(util.StatusColor(a.Status), statusGlyph(a.Status)+" "),
			styled(util.ColorGray, util.PadRight(util.Truncate(a.Timestamp, 20), 21)),
			plain(a.Action+"  "),
			styled(util.ColorGray, param),
		)
	}
}

func renderSettings(p *pen, s *model.Settings) {
	row := func(label, value string) {
		p.line(util.PadRight(label, 16)+value, "")
	}
	row("Language", s.Language)
	row("Dark mode", onOff(s.DarkMode))
	row("Notifications", onOff(s.NotificationsEnabled))
	row("User", orMissing(s.UserName))
	row("Email", orMissing(s.UserEmail))
	p.blank()
	p.line("N toggle notifications  D toggle dark mode", util.ColorGray)
}

func onOff(v *bool) string {
	switch {
	case v == nil:
		return util.MissingMark
	case *v:
		return "on"
	default:
		return "off"
	}
}

func orMissing(s string) string {
	if s == "" {
		return util.MissingMark
	}
	return s
}

func nodeGlyph(status string) string {
	switch status {
	case model.NodeCompleted:
		return "✔"
	case model.NodeRunning:
		return "●"
	case model.NodeFailed:
		return "✖"
	default:
		return "○"
	}
}

func statusGlyph(status string) string {
	switch status {
	case "success":
		return "✔"
	case "failed":
		return "✖"
	default:
		return "…"
	}
}
