package events

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// Demo alert raised against the failed kiln burning stage.
const (
	DemoTargetNode       = "5"
	DemoRecommendationID = 1
	DemoAlertMessage     = "High temperature spike in Kiln Burning. Recommend reducing fuel feed by 2%."
)

// ScriptedSource fires a single alert after a fixed delay, then blocks.
type ScriptedSource struct {
	delay   time.Duration
	build   func(now time.Time) model.Alert
	mu      sync.Mutex
	fired   bool
	started time.Time
	done    chan struct{}
	once    sync.Once
}

// NewScriptedSource schedules the demo alert delay after creation.
func NewScriptedSource(delay time.Duration) *ScriptedSource {
	return NewScriptedSourceWith(delay, DemoAlert)
}

// NewScriptedSourceWith schedules a custom alert.
func NewScriptedSourceWith(delay time.Duration, build func(now time.Time) model.Alert) *ScriptedSource {
	return &ScriptedSource{
		delay:   delay,
		build:   build,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// DemoAlert is the scripted kiln temperature anomaly.
func DemoAlert(now time.Time) model.Alert {
	alert := model.NewAlert(DemoAlertMessage, DemoTargetNode, now)
	rec := DemoRecommendationID
	alert.RecommendationID = &rec
	alert.Metric = "kiln_temp"
	alert.Severity = model.SeverityCritical
	return alert
}

func (s *ScriptedSource) Next(ctx context.Context) (Event, error) {
	s.mu.Lock()
	fired := s.fired
	s.mu.Unlock()

	if !fired {
		wait := time.Until(s.started.Add(s.delay))
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.done:
			return Event{}, ErrSourceClosed
		case <-t.C:
		}

		s.mu.Lock()
		s.fired = true
		s.mu.Unlock()

		alert := s.build(util.GetTimeProvider().Now())
		util.LogDebug("scripted alert fired", util.F("alert_id", alert.ID))
		return Event{Kind: KindAlert, Alert: alert}, nil
	}

	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-s.done:
		return Event{}, ErrSourceClosed
	}
}

func (s *ScriptedSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
