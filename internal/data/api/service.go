package api

import (
	"context"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// Endpoint paths, relative to the configured base URL.
const (
	PathOverview          = "/api/overview"
	PathKilnHealth        = "/api/kiln_health"
	PathEnergyCockpit     = "/api/energy_cockpit"
	PathPredictiveQuality = "/api/predictive_quality"
	PathVarianceAnalysis  = "/api/variance_analysis"
	PathProcessFlow       = "/api/process_flow"
	PathAgentActions      = "/api/agent/actions"
	PathRecommendations   = "/api/agent/recommendations"
	PathSettings          = "/api/settings"
	PathAlertChannel      = "/api/ws"
)

// Service is the telemetry API as seen by the dashboard and report command.
type Service interface {
	Overview(ctx context.Context) (*model.Overview, error)
	KilnHealth(ctx context.Context, tr model.TimeRange) (*model.KilnHealth, error)
	EnergyCockpit(ctx context.Context, tr model.TimeRange) (*model.EnergyCockpit, error)
	PredictiveQuality(ctx context.Context, tr model.TimeRange) (*model.PredictiveQuality, error)
	VarianceAnalysis(ctx context.Context) ([]model.VarianceRow, error)
	ProcessFlow(ctx context.Context) ([]model.ProcessNode, error)
	AgentActions(ctx context.Context) ([]model.AgentAction, error)
	Recommendations(ctx context.Context) ([]model.Recommendation, error)
	ApproveRecommendation(ctx context.Context, id int) (model.ActionResult, error)
	RejectRecommendation(ctx context.Context, id int) (model.ActionResult, error)
	Settings(ctx context.Context) (*model.Settings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error)
}
