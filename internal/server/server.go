// Package server is the mock telemetry REST API the dashboard talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/server/anomaly"
	"github.com/penwyp/go-kiln-monitor/internal/server/simulator"
	"github.com/penwyp/go-kiln-monitor/internal/server/store"
	"github.com/penwyp/go-kiln-monitor/internal/server/ws"
)

const shutdownTimeout = 5 * time.Second

// Option customizes a Server.
type Option func(*options)

type options struct {
	now   func() time.Time
	store *store.Store
}

// WithClock replaces the wall clock driving the simulator.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStore uses an already opened store instead of server.db_path.
func WithStore(st *store.Store) Option {
	return func(o *options) { o.store = st }
}

// Server wires the simulator, store, websocket hub and alerter behind a chi router.
type Server struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	store    *store.Store
	sim      *simulator.Simulator
	detector *anomaly.Detector
	hub      *ws.Hub
	alerter  *Alerter
	registry *prometheus.Registry
	router   chi.Router
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		var err error
		if st, err = store.Open(ctx, cfg.Server.DBPath); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		cfg:      cfg.Server,
		logger:   logger,
		store:    st,
		sim:      simulator.New(cfg.Server.Seed, o.now),
		detector: anomaly.NewDetector(cfg.Anomaly.Rules),
		hub:      ws.NewHub(logger.Named("ws")),
		registry: reg,
	}
	s.alerter = NewAlerter(s.sim, s.detector, st, s.hub, cfg.Server.AlertInterval, logger.Named("alerter"), reg)
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "kiln_ws_clients",
		Help: "Connected websocket clients.",
	}, func() float64 { return float64(s.hub.ClientCount()) }))

	s.router = s.routes(newHTTPMetrics(reg))
	return s, nil
}

func (s *Server) routes(m *httpMetrics) chi.Router {
	quiet := []string{"/healthz", "/metrics"}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger, m, quiet))
	r.Use(CORSMiddleware(s.cfg.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.cfg.RateLimit, s.cfg.Burst, []string{api.PathAlertChannel}))

		r.Get(api.PathOverview, s.handleOverview)
		r.Get(api.PathKilnHealth, s.handleKilnHealth)
		r.Get(api.PathEnergyCockpit, s.handleEnergyCockpit)
		r.Get(api.PathPredictiveQuality, s.handlePredictiveQuality)
		r.Get(api.PathVarianceAnalysis, s.handleVariance)
		r.Get(api.PathProcessFlow, s.handleProcessFlow)
		r.Get(api.PathAgentActions, s.handleActions)
		r.Get(api.PathRecommendations, s.handleRecommendations)
		r.Post(api.PathRecommendations+"/{id}/approve", s.handleApprove)
		r.Post(api.PathRecommendations+"/{id}/reject", s.handleReject)
		r.Get(api.PathSettings, s.handleGetSettings)
		r.Post(api.PathSettings, s.handleUpdateSettings)
		r.Handle(api.PathAlertChannel, s.hub)
	})
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Alerter exposes the alert loop so callers can raise alerts on demand.
func (s *Server) Alerter() *Alerter {
	return s.alerter
}

// SetRules swaps anomaly rules, e.g. after a config file change.
func (s *Server) SetRules(rules map[string]config.Rule) {
	s.detector.SetRules(rules)
	s.logger.Info("anomaly rules reloaded", zap.Int("rules", len(rules)))
}

// Start runs the websocket hub and alert loop in the background until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
	go s.alerter.Run(ctx)
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("telemetry API listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("telemetry API stopped")
	return nil
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}
