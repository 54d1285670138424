// Package simulator produces deterministic kiln telemetry for the mock API.
package simulator

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/metrics"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Baselines around which the simulated plant runs.
const (
	BaseTemp        = 1450.0
	BaseFuel        = 12.5
	BaseOxygen      = 2.1
	BasePressure    = -5.3
	BaseFCaO        = 2.15
	BaseConsumption = 300.0
)

// Sample is one reading of every simulated metric.
type Sample struct {
	At          time.Time
	Temp        float64
	Fuel        float64
	Oxygen      float64
	Pressure    float64
	FCaO        float64
	Consumption float64
}

// Readings keys the sample by anomaly metric name.
func (s Sample) Readings() map[string]float64 {
	return map[string]float64{
		"kiln_temp": s.Temp,
		"fuel_rate": s.Fuel,
		"oxygen":    s.Oxygen,
		"pressure":  s.Pressure,
		"fcao":      s.FCaO,
	}
}

// Simulator generates samples from a seed and a clock. The same seed and
// instant always give the same sample, so overlapping windows agree.
type Simulator struct {
	seed uint64
	now  func() time.Time
}

func New(seed int64, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{seed: uint64(seed), now: now}
}

func (s *Simulator) Now() time.Time {
	return s.now()
}

// Window returns tr.Points() samples spaced tr.Step() apart, ending at the
// current step boundary. Temperature spikes and oxygen dips are injected at
// fixed bucket positions.
func (s *Simulator) Window(tr model.TimeRange) []Sample {
	step := tr.Step()
	n := tr.Points()
	end := s.now().Truncate(step)

	out := make([]Sample, n)
	for i := range out {
		at := end.Add(-time.Duration(n-1-i) * step)
		bucket := at.Unix() / int64(step/time.Second)
		smp, _ := s.base(at, uint64(step))
		if bucket%11 == 7 {
			smp = spike(smp)
		}
		if bucket%13 == 5 {
			smp = dip(smp)
		}
		out[i] = round(smp)
	}
	return out
}

// Live returns a reading for the current instant. Roughly a third of
// readings carry a temperature spike and some an oxygen dip.
func (s *Simulator) Live() Sample {
	return s.LiveAt(s.now())
}

func (s *Simulator) LiveAt(at time.Time) Sample {
	at = at.Truncate(time.Second)
	smp, r := s.base(at, 1)
	if r.Float64() < 0.35 {
		smp = spike(smp)
	}
	if r.Float64() < 0.15 {
		smp = dip(smp)
	}
	return round(smp)
}

func (s *Simulator) base(at time.Time, salt uint64) (Sample, *rand.Rand) {
	r := rand.New(rand.NewPCG(s.seed, uint64(at.Unix())*31+salt))
	phase := float64(at.Hour()) / 24 * 2 * math.Pi

	fuel := BaseFuel + r.NormFloat64()*0.2 + math.Sin(phase)*0.1
	smp := Sample{
		At:       at,
		Temp:     BaseTemp + r.NormFloat64()*5 + math.Cos(phase)*2,
		Fuel:     fuel,
		Oxygen:   BaseOxygen + r.NormFloat64()*0.05,
		Pressure: BasePressure + r.NormFloat64()*0.1,
		FCaO:     clamp(BaseFCaO+r.NormFloat64()*0.06+math.Sin(phase)*0.03, 1.9, 2.4),
		// Consumption follows the fuel rate.
		Consumption: BaseConsumption + r.NormFloat64()*6 + (fuel-BaseFuel)*20,
	}
	return smp, r
}

func spike(s Sample) Sample {
	s.Temp += 60
	s.Fuel += 0.8
	s.FCaO -= 0.25
	return s
}

func dip(s Sample) Sample {
	s.Oxygen -= 0.9
	s.Pressure += 0.6
	return s
}

func round(s Sample) Sample {
	s.Temp = metrics.Round(s.Temp, 1)
	s.Fuel = metrics.Round(s.Fuel, 2)
	s.Oxygen = metrics.Round(s.Oxygen, 2)
	s.Pressure = metrics.Round(s.Pressure, 2)
	s.FCaO = metrics.Round(s.FCaO, 2)
	s.Consumption = metrics.Round(s.Consumption, 1)
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Label formats a sample time for a chart axis: clock time for hourly
// windows, day for daily ones.
func Label(at time.Time, tr model.TimeRange) string {
	if tr.Step() < 24*time.Hour {
		return at.Format("15:04")
	}
	return at.Format("Jan 02")
}
