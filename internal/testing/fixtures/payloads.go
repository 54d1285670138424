package fixtures

import (
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

// KilnHealth returns a small, fully populated kiln payload
func KilnHealth() *model.KilnHealth {
	return &model.KilnHealth{
		Status: "Warning",
		OperationalParameters: &model.OperationalParameters{
			FuelConsumption: &model.Reading{Value: 12.5, Unit: "t/h"},
			KilnTemp:        &model.Reading{Value: 1450, Unit: "°C"},
		},
		Trends: []model.KilnTrendPoint{
			{Time: "00:00", Temp: f(1450), Pressure: f(-5.2), Oxygen: f(2.1)},
			{Time: "01:00", Temp: f(1455), Pressure: f(-5.3), Oxygen: f(2.0)},
			{Time: "02:00", Temp: f(1485), Pressure: f(-5.1), Oxygen: f(1.8)},
		},
		RecentAlerts: []model.KilnAlert{
			{ID: 1, Type: "warning", Message: "Kiln temperature approaching upper limit", Timestamp: "2024-05-01T02:00:00Z"},
		},
	}
}

// EnergyCockpit returns an energy payload with every section present
func EnergyCockpit() *model.EnergyCockpit {
	return &model.EnergyCockpit{
		FuelConsumption:     &model.FuelConsumption{CurrentRate: 12.5, Trend: "up", DailyAverage: 12.1},
		EnergyEfficiency:    &model.EnergyEfficiency{SEC: 3.2, Trend: "down", Target: 3.0},
		CostAnalysis:        &model.CostAnalysis{EstimatedDailyCost: 45000, SavingsToday: 1200},
		EmissionsMonitoring: &model.EmissionsMonitoring{CurrentCO2: 820, Trend: "stable", Limit: 900},
		Trends: []model.EnergyTrendPoint{
			{Name: "Mon", Consumption: f(300)},
			{Name: "Tue", Consumption: f(310)},
			{Name: "Wed", Consumption: f(295)},
		},
	}
}

// PredictiveQuality returns a quality payload with a 2.0-2.3 target band
func PredictiveQuality() *model.PredictiveQuality {
	return &model.PredictiveQuality{
		PredictedFCaO:      f(2.15),
		ConfidenceInterval: "± 0.1%",
		TargetFCaORange:    "2.0% - 2.3%",
		TargetFCaOMin:      f(2.0),
		TargetFCaOMax:      f(2.3),
		Trends: []model.QualityTrendPoint{
			{Name: "Mon", FCaO: f(2.0)},
			{Name: "Tue", FCaO: f(2.5)},
			{Name: "Wed", FCaO: f(2.3)},
		},
		CorrelationData: []model.CorrelationPoint{{Temp: 1440, FCaO: 2.4}, {Temp: 1460, FCaO: 2.1}},
	}
}

// ProcessFlow returns the eight plant stages with kiln burning failed
func ProcessFlow() []model.ProcessNode {
	return []model.ProcessNode{
		{ID: "1", Label: "Quarry & Crush", Status: model.NodeCompleted},
		{ID: "2", Label: "Raw Grinding", Status: model.NodeCompleted},
		{ID: "3", Label: "Blending & Homogenization", Status: model.NodeCompleted},
		{ID: "4", Label: "Preheating", Status: model.NodeRunning},
		{ID: "5", Label: "Kiln Burning", Status: model.NodeFailed, Message: "High temp spike!"},
		{ID: "6", Label: "Clinker Cooling", Status: model.NodePending},
		{ID: "7", Label: "Cement Grinding", Status: model.NodePending},
		{ID: "8", Label: "Silo Storage", Status: model.NodePending},
	}
}

// VarianceRows returns one normal and one anomalous row
func VarianceRows() []model.VarianceRow {
	return []model.VarianceRow{
		{MetricName: "kiln_temp", Value: f(1452), Timestamp: "2024-05-01T00:00:00Z", Target: f(1450), Deviation: f(2)},
		{MetricName: "oxygen", Value: f(1.2), Timestamp: "2024-05-01T01:00:00Z", IsAnomaly: true},
	}
}

// Actions returns a short agent action log
func Actions() []model.AgentAction {
	return []model.AgentAction{
		{ID: 1, Status: "success", Action: "Adjust fuel rate", Parameter: "fuel_rate", Value: "12.3 t/h", Timestamp: "2024-05-01T00:10:00Z"},
		{ID: 2, Status: "success", Action: "Increase ID fan speed", Parameter: "id_fan", Value: "82%", Timestamp: "2024-05-01T00:40:00Z"},
	}
}

// Recommendations returns two pending recommendations
func Recommendations() []model.Recommendation {
	return []model.Recommendation{
		{ID: 1, Status: model.RecommendationPending, Recommendation: "Reduce fuel feed by 2% to bring kiln temperature back to target", Confidence: f(0.95), Timestamp: "2024-05-01T02:00:00Z"},
		{ID: 2, Status: model.RecommendationPending, Recommendation: "Increase raw meal feed by 1.5%", Confidence: f(0.88), Timestamp: "2024-05-01T02:05:00Z"},
	}
}

// Settings returns a complete preference bundle
func Settings() *model.Settings {
	return &model.Settings{
		DarkMode:             b(true),
		Language:             "en",
		NotificationsEnabled: b(true),
		UserName:             "Plant Operator",
		UserEmail:            "operator@example.com",
	}
}

// Overview aggregates the other fixtures
func Overview() *model.Overview {
	return &model.Overview{
		KilnHealth:        KilnHealth(),
		EnergyCockpit:     EnergyCockpit(),
		PredictiveQuality: PredictiveQuality(),
		ActionLog:         Actions(),
		Recommendations:   Recommendations(),
		ProcessFlow:       ProcessFlow(),
		VarianceAnalysis:  VarianceRows(),
	}
}
