package server

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/server/anomaly"
	"github.com/penwyp/go-kiln-monitor/internal/server/simulator"
	"github.com/penwyp/go-kiln-monitor/internal/server/store"
	"github.com/penwyp/go-kiln-monitor/internal/server/ws"
)

// activeFor is how long an alert keeps its process stage marked failed.
const activeFor = 10 * time.Minute

const recommendationConfidence = 0.9

// Alerter samples the live plant on an interval and pushes the most severe
// finding to websocket clients, linked to a pending recommendation.
type Alerter struct {
	sim      *simulator.Simulator
	detector *anomaly.Detector
	store    *store.Store
	hub      *ws.Hub
	interval time.Duration
	logger   *zap.Logger
	sent     prometheus.Counter

	mu     sync.Mutex
	active *model.Alert
}

func NewAlerter(sim *simulator.Simulator, d *anomaly.Detector, st *store.Store, hub *ws.Hub,
	interval time.Duration, logger *zap.Logger, reg prometheus.Registerer) *Alerter {
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiln_alerts_broadcast_total",
		Help: "Alerts pushed to websocket clients.",
	})
	reg.MustRegister(sent)
	return &Alerter{sim: sim, detector: d, store: st, hub: hub, interval: interval, logger: logger, sent: sent}
}

// Run evaluates on every tick until ctx is done. A non-positive interval
// disables the loop.
func (a *Alerter) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Evaluate(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("alert evaluation failed", zap.Error(err))
			}
		}
	}
}

// Evaluate checks one live reading. It returns nil when the plant is in range.
func (a *Alerter) Evaluate(ctx context.Context) (*model.Alert, error) {
	reading := a.sim.Live()
	findings := a.detector.CheckAll(reading.Readings())
	if len(findings) == 0 {
		return nil, nil
	}
	return a.Raise(ctx, findings[0], reading.At)
}

// Raise turns a finding into an alert, links it to a pending recommendation
// and broadcasts it.
func (a *Alerter) Raise(ctx context.Context, f anomaly.Finding, at time.Time) (*model.Alert, error) {
	alert := f.Alert(at)

	id, err := a.recommendationFor(ctx, f.Metric.Advice, at)
	if err != nil {
		return nil, err
	}
	alert.RecommendationID = &id

	a.mu.Lock()
	a.active = &alert
	a.mu.Unlock()

	if err := a.hub.BroadcastAlert(ctx, alert); err != nil {
		return &alert, err
	}
	a.sent.Inc()
	a.logger.Info("alert broadcast",
		zap.String("id", alert.ID),
		zap.String("metric", alert.Metric),
		zap.Float64("value", f.Value),
		zap.String("target_node", alert.TargetNodeID),
		zap.Int("recommendation_id", id),
		zap.Int("clients", a.hub.ClientCount()),
	)
	return &alert, nil
}

// recommendationFor reuses a pending recommendation with the same advice so
// repeated breaches do not flood the agent view.
func (a *Alerter) recommendationFor(ctx context.Context, advice string, at time.Time) (int, error) {
	recs, err := a.store.Recommendations(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range model.PendingRecommendations(recs) {
		if r.Recommendation == advice {
			return r.ID, nil
		}
	}
	return a.store.AddRecommendation(ctx, advice, recommendationConfidence, at)
}

// Active returns the latest alert while it is still recent.
func (a *Alerter) Active() *model.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil || a.sim.Now().Sub(a.active.RaisedAt) > activeFor {
		return nil
	}
	cp := *a.active
	return &cp
}

// Resolve clears the active alert once its recommendation is decided.
func (a *Alerter) Resolve(recommendationID int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active != nil && a.active.RecommendationID != nil && *a.active.RecommendationID == recommendationID {
		a.active = nil
	}
}
