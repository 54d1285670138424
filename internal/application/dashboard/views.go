package dashboard

import (
	"context"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// Loader is the type-erased face of a ViewLoader.
type Loader interface {
	Activate(ctx context.Context, tr model.TimeRange) bool
	Refresh(ctx context.Context) bool
	Status() model.LoadStatus
	Close()
	Wait()
}

// Views holds one loader per dashboard screen.
type Views struct {
	Overview *ViewLoader[*model.Overview]
	Kiln     *ViewLoader[*model.KilnHealth]
	Energy   *ViewLoader[*model.EnergyCockpit]
	Quality  *ViewLoader[*model.PredictiveQuality]
	Flow     *ViewLoader[[]model.ProcessNode]
	Variance *ViewLoader[[]model.VarianceRow]
	Agent    *ViewLoader[*model.AgentData]
	Settings *ViewLoader[*model.Settings]

	byView map[model.View]Loader
}

// NewViews wires every view to its endpoint on svc.
func NewViews(svc api.Service, onUpdate func(model.View)) *Views {
	v := &Views{
		Overview: NewViewLoader(model.ViewOverview, func(ctx context.Context, _ model.TimeRange) (*model.Overview, error) {
			return svc.Overview(ctx)
		}, onUpdate),
		Kiln:    NewViewLoader(model.ViewKilnHealth, svc.KilnHealth, onUpdate),
		Energy:  NewViewLoader(model.ViewEnergy, svc.EnergyCockpit, onUpdate),
		Quality: NewViewLoader(model.ViewQuality, svc.PredictiveQuality, onUpdate),
		Flow: NewViewLoader(model.ViewFlow, func(ctx context.Context, _ model.TimeRange) ([]model.ProcessNode, error) {
			return fetchProcessFlow(ctx, svc)
		}, onUpdate),
		Variance: NewViewLoader(model.ViewVariance, func(ctx context.Context, _ model.TimeRange) ([]model.VarianceRow, error) {
			return svc.VarianceAnalysis(ctx)
		}, onUpdate),
		Agent: NewViewLoader(model.ViewAgent, func(ctx context.Context, _ model.TimeRange) (*model.AgentData, error) {
			return fetchAgentData(ctx, svc)
		}, onUpdate),
		Settings: NewViewLoader(model.ViewSettings, func(ctx context.Context, _ model.TimeRange) (*model.Settings, error) {
			return svc.Settings(ctx)
		}, onUpdate),
	}
	v.byView = map[model.View]Loader{
		model.ViewOverview:   v.Overview,
		model.ViewKilnHealth: v.Kiln,
		model.ViewEnergy:     v.Energy,
		model.ViewQuality:    v.Quality,
		model.ViewFlow:       v.Flow,
		model.ViewVariance:   v.Variance,
		model.ViewAgent:      v.Agent,
		model.ViewSettings:   v.Settings,
	}
	return v
}

// For returns the loader behind a view.
func (v *Views) For(view model.View) (Loader, bool) {
	l, ok := v.byView[view]
	return l, ok
}

// Data snapshots every loader.
func (v *Views) Data() model.DashboardData {
	return model.DashboardData{
		Overview: v.Overview.Snapshot(),
		Kiln:     v.Kiln.Snapshot(),
		Energy:   v.Energy.Snapshot(),
		Quality:  v.Quality.Snapshot(),
		Flow:     v.Flow.Snapshot(),
		Variance: v.Variance.Snapshot(),
		Agent:    v.Agent.Snapshot(),
		Settings: v.Settings.Snapshot(),
	}
}

// Close cancels all in-flight requests.
func (v *Views) Close() {
	for _, l := range v.byView {
		l.Close()
	}
}

// Wait blocks until every loader is quiet.
func (v *Views) Wait() {
	for _, l := range v.byView {
		l.Wait()
	}
}

// fetchProcessFlow falls back to the built-in plant layout when the API
// cannot be reached at all.
func fetchProcessFlow(ctx context.Context, svc api.Service) ([]model.ProcessNode, error) {
	nodes, err := svc.ProcessFlow(ctx)
	if err != nil && api.IsKind(err, api.KindNetwork) {
		util.LogWarn("process flow unavailable, using built-in layout", util.F("error", err.Error()))
		return model.PlantStages(), nil
	}
	return nodes, err
}

// fetchAgentData loads the action log and the recommendations together.
func fetchAgentData(ctx context.Context, svc api.Service) (*model.AgentData, error) {
	actions, err := svc.AgentActions(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := svc.Recommendations(ctx)
	if err != nil {
		return nil, err
	}
	return &model.AgentData{Actions: actions, Recommendations: recs}, nil
}
