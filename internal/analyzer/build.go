package analyzer

import (
	"fmt"
	"strconv"

	"github.com/penwyp/go-kiln-monitor/internal/core/metrics"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

func col(name string) formatter.Column { return formatter.Column{Name: name} }

func num(name string) formatter.Column { return formatter.Column{Name: name, Numeric: true} }

func addMetric(r *formatter.Report, name, value string) {
	r.Metrics = append(r.Metrics, formatter.Metric{Name: name, Value: value})
}

// addSeries appends avg/min/max/trend of a series.
func addSeries(r *formatter.Report, name string, series model.MetricSeries, decimals int, unit string) {
	if len(series) == 0 {
		addMetric(r, name, util.MissingMark)
		return
	}
	s := metrics.Summarize(series)
	addMetric(r, name+" avg", util.FormatValue(s.Mean, decimals, unit))
	addMetric(r, name+" min", util.FormatValue(s.Min, decimals, unit))
	addMetric(r, name+" max", util.FormatValue(s.Max, decimals, unit))
	addMetric(r, name+" trend", util.TrendArrow(s.Trend)+" "+s.Trend)
}

func missing(r *formatter.Report, p model.Partial) {
	r.Missing = p.Missing()
}

func buildKiln(r *formatter.Report, k *model.KilnHealth) {
	r.Columns = []formatter.Column{col("Time"), num("Temp (°C)"), num("Pressure (mbar)"), num("Oxygen (%)")}
	for _, p := range k.Trends {
		r.Rows = append(r.Rows, []string{
			p.Time,
			util.FormatThousands(*p.Temp, 1),
			util.FormatOptional(p.Pressure, 2, ""),
			util.FormatOptional(p.Oxygen, 2, ""),
		})
	}
	addMetric(r, "Status", k.Status)
	if op := k.OperationalParameters; op != nil && op.KilnTemp != nil {
		addMetric(r, "Kiln temp now", util.FormatValue(op.KilnTemp.Value, 1, op.KilnTemp.Unit))
	}
	addSeries(r, "Temp", k.TempSeries(), 1, "°C")
	addSeries(r, "Oxygen", k.OxygenSeries(), 2, "%")
	addMetric(r, "Recent alerts", strconv.Itoa(len(k.RecentAlerts)))
	missing(r, k)
}

func buildEnergy(r *formatter.Report, e *model.EnergyCockpit) {
	r.Columns = []formatter.Column{col("Period"), num("Consumption (MWh)")}
	for _, p := range e.Trends {
		r.Rows = append(r.Rows, []string{p.Name, util.FormatThousands(*p.Consumption, 1)})
	}
	addSeries(r, "Consumption", e.ConsumptionSeries(), 1, "MWh")
	if f := e.FuelConsumption; f != nil {
		addMetric(r, "Fuel rate", util.FormatValue(f.CurrentRate, 1, "t/h"))
	}
	if ee := e.EnergyEfficiency; ee != nil {
		addMetric(r, "SEC / target", fmt.Sprintf("%s / %s", util.FormatValue(ee.SEC, 1, "kWh/t"), util.FormatValue(ee.Target, 1, "kWh/t")))
	}
	if c := e.CostAnalysis; c != nil {
		addMetric(r, "Daily cost", util.FormatCurrency(c.EstimatedDailyCost))
		addMetric(r, "Savings today", util.FormatCurrency(c.SavingsToday))
	}
	if em := e.EmissionsMonitoring; em != nil {
		addMetric(r, "CO₂ / limit", fmt.Sprintf("%s / %s", util.FormatThousands(em.CurrentCO2, 1), util.FormatThousands(em.Limit, 1)))
	}
	missing(r, e)
}

func buildQuality(r *formatter.Report, q *model.PredictiveQuality) {
	lo, hi := q.TargetBand()
	r.Columns = []formatter.Column{col("Period"), num("f-CaO (%)"), col("In band")}
	for _, p := range q.Trends {
		in := "no"
		if *p.FCaO >= lo && *p.FCaO <= hi {
			in = "yes"
		}
		r.Rows = append(r.Rows, []string{p.Name, util.FormatThousands(*p.FCaO, 2), in})
	}
	series := q.FCaOSeries()
	s := metrics.SummarizeBand(series, lo, hi)
	addMetric(r, "Target band", fmt.Sprintf("%.2f–%.2f %%", lo, hi))
	addSeries(r, "f-CaO", series, 2, "%")
	addMetric(r, "In band", fmt.Sprintf("%d of %d (%s)", s.InBand, s.Count, util.FormatPercent(s.BandPct)))
	addMetric(r, "Predicted f-CaO", util.FormatOptional(q.PredictedFCaO, 2, "%"))
	if len(q.CorrelationData) > 1 {
		temps := make([]float64, len(q.CorrelationData))
		fcao := make([]float64, len(q.CorrelationData))
		for i, c := range q.CorrelationData {
			temps[i], fcao[i] = c.Temp, c.FCaO
		}
		addMetric(r, "Temp/f-CaO correlation", fmt.Sprintf("%.2f", metrics.Correlation(temps, fcao)))
	}
	missing(r, q)
}

func buildFlow(r *formatter.Report, nodes []model.ProcessNode) {
	r.Columns = []formatter.Column{col("ID"), col("Stage"), col("Status"), col("Message")}
	counts := make(map[string]int)
	for _, n := range nodes {
		r.Rows = append(r.Rows, []string{n.ID, n.Label, n.Status, n.Message})
		counts[n.Status]++
	}
	for _, status := range []string{model.NodeCompleted, model.NodeRunning, model.NodePending, model.NodeFailed} {
		addMetric(r, "Stages "+status, strconv.Itoa(counts[status]))
	}
}

func buildVariance(r *formatter.Report, rows []model.VarianceRow) {
	r.Columns = []formatter.Column{col("Metric"), num("Value"), num("Target"), num("Deviation"), col("Timestamp"), col("Flag")}
	anomalies := 0
	for _, v := range rows {
		flag := ""
		if v.IsAnomaly {
			flag = "ANOMALY"
			anomalies++
		}
		r.Rows = append(r.Rows, []string{
			v.MetricName,
			util.FormatThousands(*v.Value, 2),
			util.FormatOptional(v.Target, 2, ""),
			util.FormatOptional(v.Deviation, 2, ""),
			v.Timestamp,
			flag,
		})
	}
	addMetric(r, "Rows", strconv.Itoa(len(rows)))
	addMetric(r, "Anomalies", strconv.Itoa(anomalies))
}

func buildAgent(r *formatter.Report, recs []model.Recommendation, actions []model.AgentAction) {
	r.Columns = []formatter.Column{num("ID"), col("Recommendation"), col("Status"), num("Confidence")}
	pending := 0
	var confidences []float64
	for _, rec := range recs {
		conf := util.MissingMark
		if rec.Confidence != nil {
			conf = util.FormatPercent(*rec.Confidence * 100)
			confidences = append(confidences, *rec.Confidence)
		}
		if rec.Status == model.RecommendationPending {
			pending++
		}
		r.Rows = append(r.Rows, []string{strconv.Itoa(rec.ID), rec.Recommendation, rec.Status, conf})
	}
	addMetric(r, "Pending", fmt.Sprintf("%d of %d", pending, len(recs)))
	if len(confidences) > 0 {
		addMetric(r, "Mean confidence", util.FormatPercent(metrics.Mean(confidences)*100))
	}
	addMetric(r, "Logged actions", strconv.Itoa(len(actions)))
	if n := len(actions); n > 0 {
		last := actions[n-1]
		addMetric(r, "Last action", fmt.Sprintf("%s (%s, %s)", last.Action, last.Status, last.Timestamp))
	}
}

func buildSettings(r *formatter.Report, s *model.Settings) {
	r.Columns = []formatter.Column{col("Setting"), col("Value")}
	r.Rows = [][]string{
		{"Language", s.Language},
		{"Dark mode", boolText(s.DarkMode)},
		{"Notifications", boolText(s.NotificationsEnabled)},
		{"User", orMissing(s.UserName)},
		{"Email", orMissing(s.UserEmail)},
	}
	missing(r, s)
}

func buildOverview(r *formatter.Report, o *model.Overview) {
	r.Columns = []formatter.Column{col("Area"), col("Figure"), num("Value")}
	k, e, q := o.KilnHealth, o.EnergyCockpit, o.PredictiveQuality

	temp := metrics.Summarize(k.TempSeries())
	r.Rows = append(r.Rows,
		[]string{"Kiln", "Status", k.Status},
		[]string{"Kiln", "Temp avg", util.FormatValue(temp.Mean, 1, "°C")},
	)
	consumption := metrics.Summarize(e.ConsumptionSeries())
	r.Rows = append(r.Rows, []string{"Energy", "Consumption avg", util.FormatValue(consumption.Mean, 1, "MWh")})
	if f := e.FuelConsumption; f != nil {
		r.Rows = append(r.Rows, []string{"Energy", "Fuel rate", util.FormatValue(f.CurrentRate, 1, "t/h")})
	}
	lo, hi := q.TargetBand()
	band := metrics.SummarizeBand(q.FCaOSeries(), lo, hi)
	r.Rows = append(r.Rows,
		[]string{"Quality", "f-CaO avg", util.FormatValue(band.Mean, 2, "%")},
		[]string{"Quality", "f-CaO in band", util.FormatPercent(band.BandPct)},
	)

	pending := 0
	for _, rec := range o.Recommendations {
		if rec.Status == model.RecommendationPending {
			pending++
		}
	}
	anomalies := 0
	for _, v := range o.VarianceAnalysis {
		if v.IsAnomaly {
			anomalies++
		}
	}
	r.Rows = append(r.Rows,
		[]string{"Agent", "Pending recommendations", strconv.Itoa(pending)},
		[]string{"Variance", "Anomalies", strconv.Itoa(anomalies)},
	)
	addMetric(r, "Kiln temp trend", util.TrendArrow(temp.Trend)+" "+temp.Trend)
	addMetric(r, "Consumption trend", util.TrendArrow(consumption.Trend)+" "+consumption.Trend)
	missing(r, o)
}

func boolText(v *bool) string {
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
