package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

var testRules = map[string]config.Rule{
	"kiln_temp": {Min: 1400, Max: 1480},
	"oxygen":    {Min: 1.5, Max: 3.0},
}

func TestDetectorCheck(t *testing.T) {
	d := NewDetector(testRules)
	tests := []struct {
		name   string
		metric string
		value  float64
		want   bool
	}{
		{name: "inside", metric: "kiln_temp", value: 1450},
		{name: "on upper bound", metric: "kiln_temp", value: 1480},
		{name: "above", metric: "kiln_temp", value: 1512, want: true},
		{name: "below", metric: "oxygen", value: 1.2, want: true},
		{name: "no rule", metric: "fcao", value: 99},
		{name: "unknown metric", metric: "vibration", value: 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := d.Check(tt.metric, tt.value)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckAllOrdersCriticalFirst(t *testing.T) {
	d := NewDetector(testRules)
	findings := d.CheckAll(map[string]float64{"oxygen": 1.0, "kiln_temp": 1520, "fuel_rate": 12.5})
	require.Len(t, findings, 2)
	assert.Equal(t, "kiln_temp", findings[0].Metric.Name)
	assert.Equal(t, "oxygen", findings[1].Metric.Name)
}

func TestFindingAlert(t *testing.T) {
	d := NewDetector(testRules)
	f, ok := d.Check("kiln_temp", 1512.4)
	require.True(t, ok)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := f.Alert(at)
	assert.Equal(t, "5", a.TargetNodeID)
	assert.Equal(t, model.SeverityCritical, a.Severity)
	assert.Equal(t, "kiln_temp", a.Metric)
	require.NotNil(t, a.Value)
	assert.Equal(t, 1512.4, *a.Value)
	assert.Contains(t, a.Message, "Kiln Temperature spike in Kiln Burning")
	assert.Contains(t, a.Message, "Reduce fuel feed by 2%")
	assert.NoError(t, model.Validate(a))

	low, ok := d.Check("oxygen", 1.1)
	require.True(t, ok)
	assert.Contains(t, low.Message(), "drop")
}

func TestSetRules(t *testing.T) {
	d := NewDetector(testRules)
	_, ok := d.Check("oxygen", 1.4)
	assert.True(t, ok)

	d.SetRules(map[string]config.Rule{"oxygen": {Min: 1.0, Max: 3.0}})
	_, ok = d.Check("oxygen", 1.4)
	assert.False(t, ok)
	_, ok = d.Rule("kiln_temp")
	assert.False(t, ok, "rules are replaced, not merged")
}

func TestMetricNames(t *testing.T) {
	assert.Equal(t, []string{"fcao", "fuel_rate", "kiln_temp", "oxygen", "pressure"}, MetricNames())
	info, ok := Info("pressure")
	require.True(t, ok)
	assert.Equal(t, "mbar", info.Unit)
}
