package server

import (
	"fmt"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/metrics"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/server/anomaly"
	"github.com/penwyp/go-kiln-monitor/internal/server/simulator"
)

// Clinker quality band for free lime.
const (
	targetFCaOMin = 2.0
	targetFCaOMax = 2.3
	targetSEC     = 3150.0
	co2Limit      = 0.9
	fuelPrice     = 165.0 // per tonne
	maxAlerts     = 5
)

func ptr[T any](v T) *T { return &v }

func column(samples []simulator.Sample, pick func(simulator.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out
}

func buildKilnHealth(samples []simulator.Sample, tr model.TimeRange, d *anomaly.Detector) *model.KilnHealth {
	k := &model.KilnHealth{Status: "Normal", Trends: make([]model.KilnTrendPoint, 0, len(samples))}
	for _, s := range samples {
		k.Trends = append(k.Trends, model.KilnTrendPoint{
			Time:     simulator.Label(s.At, tr),
			Temp:     ptr(s.Temp),
			Pressure: ptr(s.Pressure),
			Oxygen:   ptr(s.Oxygen),
		})
	}
	if len(samples) == 0 {
		return k
	}

	last := samples[len(samples)-1]
	k.OperationalParameters = &model.OperationalParameters{
		FuelConsumption: &model.Reading{Value: last.Fuel, Unit: "t/h"},
		KilnTemp:        &model.Reading{Value: last.Temp, Unit: "°C"},
	}

	// Newest first.
	for i := len(samples) - 1; i >= 0 && len(k.RecentAlerts) < maxAlerts; i-- {
		for _, f := range d.CheckAll(samples[i].Readings()) {
			if len(k.RecentAlerts) == maxAlerts {
				break
			}
			typ := "Warning"
			if f.Metric.Severity == model.SeverityCritical {
				typ = "Critical"
			}
			k.RecentAlerts = append(k.RecentAlerts, model.KilnAlert{
				ID:        len(k.RecentAlerts) + 1,
				Type:      typ,
				Message:   fmt.Sprintf("%s %s %.2f %s", f.Metric.Label, direction(f), f.Value, f.Metric.Unit),
				Timestamp: samples[i].At.UTC().Format(time.RFC3339),
			})
		}
	}

	switch {
	case len(d.CheckAll(last.Readings())) > 0:
		k.Status = "Critical"
	case len(k.RecentAlerts) > 0:
		k.Status = "Warning"
	}
	return k
}

func direction(f anomaly.Finding) string {
	if f.Value < f.Rule.Min {
		return "below range at"
	}
	return "above range at"
}

func buildEnergyCockpit(samples []simulator.Sample, tr model.TimeRange) *model.EnergyCockpit {
	e := &model.EnergyCockpit{Trends: make([]model.EnergyTrendPoint, 0, len(samples))}
	for _, s := range samples {
		e.Trends = append(e.Trends, model.EnergyTrendPoint{Name: simulator.Label(s.At, tr), Consumption: ptr(s.Consumption)})
	}
	if len(samples) == 0 {
		return e
	}

	fuel := column(samples, func(s simulator.Sample) float64 { return s.Fuel })
	sec := make([]float64, len(fuel))
	co2 := make([]float64, len(fuel))
	for i, f := range fuel {
		sec[i] = 3200 + (f-simulator.BaseFuel)*80
		co2[i] = 0.82 + (f-simulator.BaseFuel)*0.02
	}
	avgFuel := metrics.Mean(fuel)
	last := len(fuel) - 1

	e.FuelConsumption = &model.FuelConsumption{
		CurrentRate:  fuel[last],
		Trend:        metrics.Trend(fuel, 0.01),
		DailyAverage: metrics.Round(avgFuel, 2),
	}
	e.EnergyEfficiency = &model.EnergyEfficiency{
		SEC:    metrics.Round(sec[last], 0),
		Trend:  metrics.Trend(sec, 0.005),
		Target: targetSEC,
	}
	e.CostAnalysis = &model.CostAnalysis{
		EstimatedDailyCost: metrics.Round(avgFuel*24*fuelPrice, 0),
		SavingsToday:       metrics.Round(max(0, (12.8-fuel[last])*24*fuelPrice), 0),
	}
	e.EmissionsMonitoring = &model.EmissionsMonitoring{
		CurrentCO2: metrics.Round(co2[last], 3),
		Trend:      metrics.Trend(co2, 0.01),
		Limit:      co2Limit,
	}
	return e
}

func buildPredictiveQuality(samples []simulator.Sample, tr model.TimeRange) *model.PredictiveQuality {
	q := &model.PredictiveQuality{
		ConfidenceInterval: "± 0.10%",
		TargetFCaORange:    fmt.Sprintf("%.1f%% - %.1f%%", targetFCaOMin, targetFCaOMax),
		TargetFCaOMin:      ptr(targetFCaOMin),
		TargetFCaOMax:      ptr(targetFCaOMax),
		Trends:             make([]model.QualityTrendPoint, 0, len(samples)),
	}
	for _, s := range samples {
		q.Trends = append(q.Trends, model.QualityTrendPoint{Name: simulator.Label(s.At, tr), FCaO: ptr(s.FCaO)})
		q.CorrelationData = append(q.CorrelationData, model.CorrelationPoint{Temp: s.Temp, FCaO: s.FCaO})
	}
	if n := len(samples); n > 0 {
		recent := column(samples[max(0, n-3):], func(s simulator.Sample) float64 { return s.FCaO })
		q.PredictedFCaO = ptr(metrics.Round(metrics.Mean(recent), 2))
	}
	return q
}

// buildVariance reports each metric's latest value plus every anomalous
// point in the window, newest first.
func buildVariance(samples []simulator.Sample, d *anomaly.Detector) []model.VarianceRow {
	rows := []model.VarianceRow{}
	if len(samples) == 0 {
		return rows
	}
	row := func(s simulator.Sample, name string, value float64, anomalous bool) model.VarianceRow {
		info, _ := anomaly.Info(name)
		return model.VarianceRow{
			MetricName: info.Label,
			Value:      ptr(value),
			Timestamp:  s.At.UTC().Format(time.RFC3339),
			IsAnomaly:  anomalous,
			Target:     ptr(info.Target),
			Deviation:  ptr(metrics.Round(value-info.Target, 2)),
		}
	}

	last := samples[len(samples)-1]
	readings := last.Readings()
	for _, name := range anomaly.MetricNames() {
		_, bad := d.Check(name, readings[name])
		rows = append(rows, row(last, name, readings[name], bad))
	}
	for i := len(samples) - 2; i >= 0; i-- {
		for _, f := range d.CheckAll(samples[i].Readings()) {
			rows = append(rows, row(samples[i], f.Metric.Name, f.Value, true))
		}
	}
	return rows
}

// buildProcessFlow marks the stage targeted by the active alert as failed.
func buildProcessFlow(active *model.Alert) []model.ProcessNode {
	nodes := model.PlantStages()
	if active == nil {
		return nodes
	}
	for i := range nodes {
		if nodes[i].ID == active.TargetNodeID {
			nodes[i].Status = model.NodeFailed
			nodes[i].Message = shortAlert(active)
		}
	}
	return nodes
}

func shortAlert(a *model.Alert) string {
	info, ok := anomaly.Info(a.Metric)
	if !ok || a.Value == nil {
		return "Alert raised"
	}
	return fmt.Sprintf("%s %.1f %s", info.Label, *a.Value, info.Unit)
}
