package dashboard

import (
	"context"
	"sync"

	"github.com/penwyp/go-kiln-monitor/internal/core/events"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/interaction"
)

func ptr[T any](v T) *T { return &v }

// fakeService serves canned payloads and records every call.
type fakeService struct {
	mu       sync.Mutex
	settings model.Settings
	recs     []model.Recommendation
	calls    map[string][]model.TimeRange
	approved []int
	rejected []int
	patches  []model.SettingsPatch
	cleared  int
}

func newFakeService() *fakeService {
	return &fakeService{
		settings: model.Settings{Language: "en", DarkMode: ptr(false), NotificationsEnabled: ptr(true)},
		recs: []model.Recommendation{
			{ID: 1, Status: model.RecommendationPending, Recommendation: "Reduce fuel feed by 2%", Confidence: ptr(0.7)},
			{ID: 2, Status: model.RecommendationPending, Recommendation: "Increase ID fan speed", Confidence: ptr(0.9)},
		},
		calls: make(map[string][]model.TimeRange),
	}
}

func (f *fakeService) record(endpoint string, tr model.TimeRange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint] = append(f.calls[endpoint], tr)
}

func (f *fakeService) Calls(endpoint string) []model.TimeRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TimeRange(nil), f.calls[endpoint]...)
}

func (f *fakeService) Approved() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.approved...)
}

func (f *fakeService) Patches() []model.SettingsPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SettingsPatch(nil), f.patches...)
}

func (f *fakeService) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func kilnPayload() *model.KilnHealth {
	return &model.KilnHealth{
		Status:                "normal",
		OperationalParameters: &model.OperationalParameters{KilnTemp: &model.Reading{Value: 1450, Unit: "°C"}},
		Trends:                []model.KilnTrendPoint{{Time: "00:00", Temp: ptr(1450.0), Pressure: ptr(-5.3), Oxygen: ptr(2.1)}},
		RecentAlerts:          []model.KilnAlert{},
	}
}

func (f *fakeService) Overview(context.Context) (*model.Overview, error) {
	f.record(api.PathOverview, "")
	return &model.Overview{
		KilnHealth:        kilnPayload(),
		EnergyCockpit:     &model.EnergyCockpit{},
		PredictiveQuality: &model.PredictiveQuality{TargetFCaOMin: ptr(1.5), TargetFCaOMax: ptr(2.5)},
	}, nil
}

func (f *fakeService) KilnHealth(_ context.Context, tr model.TimeRange) (*model.KilnHealth, error) {
	f.record(api.PathKilnHealth, tr)
	return kilnPayload(), nil
}

func (f *fakeService) EnergyCockpit(_ context.Context, tr model.TimeRange) (*model.EnergyCockpit, error) {
	f.record(api.PathEnergyCockpit, tr)
	return &model.EnergyCockpit{}, nil
}

func (f *fakeService) PredictiveQuality(_ context.Context, tr model.TimeRange) (*model.PredictiveQuality, error) {
	f.record(api.PathPredictiveQuality, tr)
	return &model.PredictiveQuality{TargetFCaOMin: ptr(1.5), TargetFCaOMax: ptr(2.5)}, nil
}

func (f *fakeService) VarianceAnalysis(context.Context) ([]model.VarianceRow, error) {
	f.record(api.PathVarianceAnalysis, "")
	return []model.VarianceRow{}, nil
}

func (f *fakeService) ProcessFlow(context.Context) ([]model.ProcessNode, error) {
	f.record(api.PathProcessFlow, "")
	return model.PlantStages(), nil
}

func (f *fakeService) AgentActions(context.Context) ([]model.AgentAction, error) {
	f.record(api.PathAgentActions, "")
	return []model.AgentAction{}, nil
}

func (f *fakeService) Recommendations(context.Context) ([]model.Recommendation, error) {
	f.record(api.PathRecommendations, "")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Recommendation(nil), f.recs...), nil
}

func (f *fakeService) ApproveRecommendation(_ context.Context, id int) (model.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, id)
	return model.ActionResult{Message: "Recommendation approved"}, nil
}

func (f *fakeService) RejectRecommendation(_ context.Context, id int) (model.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, id)
	return model.ActionResult{Message: "Recommendation rejected"}, nil
}

func (f *fakeService) Settings(context.Context) (*model.Settings, error) {
	f.record(api.PathSettings, "")
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings
	return &s, nil
}

func (f *fakeService) UpdateSettings(_ context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	patch.Apply(&f.settings)
	s := f.settings
	return &s, nil
}

// fakeDisplay records frames instead of drawing them.
type fakeDisplay struct {
	mu      sync.Mutex
	size    geometry.Size
	renders int
	last    model.InteractionState
}

func (d *fakeDisplay) EnterAlternateScreen() {}
func (d *fakeDisplay) ExitAlternateScreen()  {}
func (d *fakeDisplay) ClearScreen()          {}

func (d *fakeDisplay) Viewport() geometry.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

func (d *fakeDisplay) SetViewport(s geometry.Size) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.size = s
}

func (d *fakeDisplay) RenderWithState(_ *model.AppState, state model.InteractionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renders++
	d.last = state
}

func (d *fakeDisplay) LastState() model.InteractionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

type fakeInput struct {
	ch chan interaction.InputEvent
}

func (in *fakeInput) Events() <-chan interaction.InputEvent { return in.ch }
func (in *fakeInput) Close() error                          { return nil }

// fakeSource delivers alerts pushed by the test.
type fakeSource struct {
	ch   chan events.Event
	done chan struct{}
	once sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan events.Event, 4), done: make(chan struct{})}
}

func (s *fakeSource) Next(ctx context.Context) (events.Event, error) {
	select {
	case ev := <-s.ch:
		return ev, nil
	case <-s.done:
		return events.Event{}, events.ErrSourceClosed
	case <-ctx.Done():
		return events.Event{}, ctx.Err()
	}
}

func (s *fakeSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSource) Fire(alert model.Alert) {
	s.ch <- events.Event{Kind: events.KindAlert, Alert: alert}
}
