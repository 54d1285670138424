// Package anomaly flags kiln readings that leave their configured band.
package anomaly

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// MetricInfo describes a simulated plant metric.
type MetricInfo struct {
	Name   string
	Label  string
	Unit   string
	Target float64
	// NodeID is the process stage an anomaly on this metric points at.
	NodeID string
	Stage  string
	Advice string
	// Severity of a breach; temperature breaches are critical.
	Severity string
}

var catalog = map[string]MetricInfo{
	"kiln_temp": {Name: "kiln_temp", Label: "Kiln Temperature", Unit: "°C", Target: 1450, NodeID: "5", Stage: "Kiln Burning",
		Advice: "Reduce fuel feed by 2% to bring burning zone temperature back to target.", Severity: model.SeverityCritical},
	"fuel_rate": {Name: "fuel_rate", Label: "Fuel Consumption Rate", Unit: "t/h", Target: 12.5, NodeID: "5", Stage: "Kiln Burning",
		Advice: "Trim fuel rate toward 12.5 t/h and verify burner settings.", Severity: model.SeverityWarning},
	"oxygen": {Name: "oxygen", Label: "Kiln Inlet Oxygen", Unit: "%", Target: 2.1, NodeID: "4", Stage: "Preheating",
		Advice: "Increase ID fan speed by 3% to restore excess oxygen.", Severity: model.SeverityWarning},
	"pressure": {Name: "pressure", Label: "Kiln Hood Pressure", Unit: "mbar", Target: -5.3, NodeID: "4", Stage: "Preheating",
		Advice: "Check preheater cyclones for build-up and adjust damper.", Severity: model.SeverityWarning},
	"fcao": {Name: "fcao", Label: "f-CaO Content", Unit: "%", Target: 2.15, NodeID: "6", Stage: "Clinker Cooling",
		Advice: "Raise burning zone temperature by 10°C to lower free lime.", Severity: model.SeverityWarning},
}

// Info looks up a metric by name.
func Info(name string) (MetricInfo, bool) {
	m, ok := catalog[name]
	return m, ok
}

// MetricNames lists known metrics in a stable order.
func MetricNames() []string {
	return slices.Sorted(maps.Keys(catalog))
}

// Finding is one rule violation.
type Finding struct {
	Metric MetricInfo
	Value  float64
	Rule   config.Rule
}

// Message renders the finding the way operators see it in alerts.
func (f Finding) Message() string {
	direction := "spike"
	if f.Value < f.Rule.Min {
		direction = "drop"
	}
	return fmt.Sprintf("%s %s in %s: %.2f %s is outside [%.2f, %.2f]. %s",
		f.Metric.Label, direction, f.Metric.Stage, f.Value, f.Metric.Unit, f.Rule.Min, f.Rule.Max, f.Metric.Advice)
}

// Alert converts the finding into a pushable alert.
func (f Finding) Alert(at time.Time) model.Alert {
	a := model.NewAlert(f.Message(), f.Metric.NodeID, at)
	a.Severity = f.Metric.Severity
	a.Metric = f.Metric.Name
	v := f.Value
	a.Value = &v
	return a
}

// Detector checks readings against min/max rules. Rules can be swapped at
// runtime when the config file changes.
type Detector struct {
	mu    sync.RWMutex
	rules map[string]config.Rule
}

func NewDetector(rules map[string]config.Rule) *Detector {
	d := &Detector{}
	d.SetRules(rules)
	return d
}

// SetRules replaces the rule set.
func (d *Detector) SetRules(rules map[string]config.Rule) {
	d.mu.Lock()
	d.rules = maps.Clone(rules)
	d.mu.Unlock()
}

// Rule returns the rule for metric, if one is configured.
func (d *Detector) Rule(metric string) (config.Rule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rules[metric]
	return r, ok
}

// Check tests one value. Metrics without a rule or catalog entry never fire.
func (d *Detector) Check(metric string, value float64) (Finding, bool) {
	rule, ok := d.Rule(metric)
	if !ok {
		return Finding{}, false
	}
	info, ok := catalog[metric]
	if !ok {
		return Finding{}, false
	}
	if value >= rule.Min && value <= rule.Max {
		return Finding{}, false
	}
	return Finding{Metric: info, Value: value, Rule: rule}, true
}

// CheckAll tests a set of readings. Critical findings come first, then by
// metric name.
func (d *Detector) CheckAll(readings map[string]float64) []Finding {
	var out []Finding
	for _, name := range slices.Sorted(maps.Keys(readings)) {
		if f, ok := d.Check(name, readings[name]); ok {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, func(a, b Finding) int {
		ac, bc := a.Metric.Severity == model.SeverityCritical, b.Metric.Severity == model.SeverityCritical
		switch {
		case ac && !bc:
			return -1
		case bc && !ac:
			return 1
		}
		return 0
	})
	return out
}
