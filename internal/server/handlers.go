package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/server/store"
)

const (
	maxSettingsBody = 16 << 10
	actionLogLimit  = 50
)

func (s *Server) timeRange(w http.ResponseWriter, r *http.Request, def model.TimeRange) (model.TimeRange, bool) {
	raw := r.URL.Query().Get("timerange")
	if raw == "" {
		return def, true
	}
	tr, err := model.ParseTimeRange(raw)
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return "", false
	}
	return tr, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ws_clients": s.hub.ClientCount()})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actions, err := s.store.Actions(ctx, actionLogLimit)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	recs, err := s.store.Recommendations(ctx)
	if err != nil {
		s.internal(w, r, err)
		return
	}

	day := s.sim.Window(model.Range24h)
	week := s.sim.Window(model.Range7d)
	writeJSON(w, http.StatusOK, &model.Overview{
		KilnHealth:        buildKilnHealth(day, model.Range24h, s.detector),
		EnergyCockpit:     buildEnergyCockpit(week, model.Range7d),
		PredictiveQuality: buildPredictiveQuality(week, model.Range7d),
		ActionLog:         actions,
		Recommendations:   model.PendingRecommendations(recs),
		ProcessFlow:       buildProcessFlow(s.alerter.Active()),
		VarianceAnalysis:  buildVariance(day, s.detector),
	})
}

func (s *Server) handleKilnHealth(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.timeRange(w, r, model.Range24h)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildKilnHealth(s.sim.Window(tr), tr, s.detector))
}

func (s *Server) handleEnergyCockpit(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.timeRange(w, r, model.Range7d)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildEnergyCockpit(s.sim.Window(tr), tr))
}

func (s *Server) handlePredictiveQuality(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.timeRange(w, r, model.Range7d)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildPredictiveQuality(s.sim.Window(tr), tr))
}

func (s *Server) handleVariance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildVariance(s.sim.Window(model.Range24h), s.detector))
}

func (s *Server) handleProcessFlow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildProcessFlow(s.alerter.Active()))
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.store.Actions(r.Context(), actionLogLimit)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.Recommendations(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, true)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, false)
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		BadRequest(w, "recommendation id must be a positive integer", r.URL.Path)
		return
	}

	now := s.sim.Now()
	msg := "Recommendation approved"
	if approve {
		err = s.store.Approve(r.Context(), id, now)
	} else {
		err = s.store.Reject(r.Context(), id, now)
		msg = "Recommendation rejected"
	}
	if errors.Is(err, store.ErrNotFound) {
		NotFound(w, "Recommendation not found", r.URL.Path)
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}

	s.alerter.Resolve(id)
	s.logger.Info("recommendation decided", zap.Int("id", id), zap.Bool("approved", approve))
	writeJSON(w, http.StatusOK, model.ActionResult{Message: msg})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBody))
	if err != nil {
		BadRequest(w, "read body: "+err.Error(), r.URL.Path)
		return
	}
	var patch model.SettingsPatch
	if err := sonic.Unmarshal(body, &patch); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error(), r.URL.Path)
		return
	}
	if err := model.Validate(patch); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	settings, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	InternalError(w, "an unexpected error occurred", r.URL.Path)
}
