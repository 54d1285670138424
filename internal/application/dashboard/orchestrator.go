package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/assistant"
	"github.com/penwyp/go-kiln-monitor/internal/core/events"
	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/display"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/layout"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const (
	statusTTL   = 3 * time.Second
	panelMargin = 1
)

// Orchestrator coordinates all components of the dashboard
type Orchestrator struct {
	config  *DashboardConfig
	service api.Service
	cache   CacheController

	// Core components
	views        *Views
	refreshCtrl  *RefreshController
	stateManager *StateManager
	assistant    *assistant.Assistant
	geometry     *geometry.Controller

	// UI components
	display DisplayController
	input   InputHandler
	sorter  *interaction.RecommendationSorter

	// Alert feed
	source EventSource
	alerts chan model.Alert

	redraw chan struct{}
	wg     sync.WaitGroup // API decisions in flight
	once   sync.Once
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithDisplay replaces the terminal display.
func WithDisplay(d DisplayController) Option {
	return func(o *Orchestrator) { o.display = d }
}

// WithInput replaces the raw-mode keyboard reader.
func WithInput(in InputHandler) Option {
	return func(o *Orchestrator) { o.input = in }
}

// WithEventSource replaces the configured alert feed.
func WithEventSource(src EventSource) Option {
	return func(o *Orchestrator) { o.source = src }
}

// WithCache sets the cache cleared by the x key.
func WithCache(c CacheController) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(cfg *DashboardConfig, svc api.Service, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &Orchestrator{
		config:       cfg,
		service:      svc,
		stateManager: NewStateManager(cfg.DefaultView, cfg.Layout),
		sorter:       interaction.NewRecommendationSorter(),
		alerts:       make(chan model.Alert, 8),
		redraw:       make(chan struct{}, 1),
	}
	if c, ok := svc.(CacheController); ok {
		o.cache = c
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.display == nil {
		o.display = display.NewTerminalDisplay(&display.DisplayConfig{
			TimeFormat:     cfg.TimeFormat,
			Mouse:          cfg.Mouse,
			ShowConnection: cfg.AlertSource == config.AlertSourceWebSocket,
		})
	}
	if o.source == nil {
		src, err := newEventSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create alert source: %w", err)
		}
		o.source = src
	}

	o.views = NewViews(svc, o.onViewUpdate)
	o.refreshCtrl = NewRefreshController(o.views, o.cache)
	o.assistant = assistant.New(cfg.Assistant, o.onAssistantChange)

	vp := o.display.Viewport()
	o.geometry = geometry.NewController(cfg.PanelMin, vp, o.onPanelChange)
	o.stateManager.UpdateAppState(func(a *model.AppState) {
		a.Panel = geometry.Dock(cfg.PanelSize, vp, panelMargin)
	})
	return o, nil
}

func newEventSource(cfg *DashboardConfig) (EventSource, error) {
	switch cfg.AlertSource {
	case config.AlertSourceScripted:
		return events.NewScriptedSource(cfg.ScriptedAlertDelay), nil
	case config.AlertSourceWebSocket:
		if cfg.AlertChannelURL == "" {
			return nil, errors.New("websocket alert source needs the API alert channel URL")
		}
		return events.NewWebSocketSource(cfg.AlertChannelURL, cfg.ReconnectDelay), nil
	case config.AlertSourceFile:
		src, err := events.NewFileSource(config.ExpandPath(cfg.AlertFeedFile), false)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.AlertSourceNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown alert source %q", cfg.AlertSource)
	}
}

// Run starts the orchestrator main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting kiln dashboard", util.F("view", o.config.DefaultView), util.F("alert_source", o.config.AlertSource))
	defer o.Close()

	// Cancelled first on return, so the alert pump and decisions unwind
	// before Close waits for them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := util.InitializeTimeProvider(o.config.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	if o.input == nil {
		keyboard, err := interaction.NewKeyboardReader()
		if err != nil {
			return fmt.Errorf("failed to initialize keyboard: %w", err)
		}
		o.input = keyboard
	}

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	// Settings gate alert notifications, so they load up front.
	o.refreshCtrl.Activate(ctx, model.ViewSettings, "")
	o.activate(ctx, o.stateManager.ActiveView())
	o.updateDisplay()

	if o.source != nil {
		o.wg.Add(1)
		go o.pumpAlerts(ctx)
	}

	uiTicker := time.NewTicker(time.Duration(float64(time.Second) / o.config.UIRefreshRate))
	defer uiTicker.Stop()

	dataTicker := time.NewTicker(o.config.DataRefreshInterval)
	defer dataTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down kiln dashboard")
			return nil

		case <-uiTicker.C:
			o.tick()
			if !o.stateManager.GetInteractionState().IsPaused {
				o.updateDisplay()
			}

		case <-dataTicker.C:
			if !o.stateManager.GetInteractionState().IsPaused {
				o.refreshCtrl.RefreshData(ctx, o.stateManager.ActiveView())
				o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
					s.LastRefresh = util.GetTimeProvider().Now()
				})
			}

		case <-o.redraw:
			o.updateDisplay()

		case alert := <-o.alerts:
			o.handleAlert(ctx, alert)
			o.updateDisplay()

		case ev, ok := <-o.input.Events():
			if !ok {
				return nil
			}
			if o.handleInput(ctx, ev) {
				return nil // Exit requested
			}
			o.updateDisplay()
		}
	}
}

func (o *Orchestrator) pumpAlerts(ctx context.Context) {
	defer o.wg.Done()
	err := events.Pump(ctx, o.source, func(ev events.Event) {
		if ev.Kind != events.KindAlert {
			return
		}
		select {
		case o.alerts <- ev.Alert:
		case <-ctx.Done():
		}
	})
	if err != nil {
		util.LogError("alert feed stopped", util.F("error", err.Error()))
	}
}

// tick runs the once-per-frame housekeeping: status expiry, terminal resize
// and the alert channel badge.
func (o *Orchestrator) tick() {
	now := util.GetTimeProvider().Now()
	o.stateManager.ExpireStatusMessage(now)
	o.syncViewport()

	if c, ok := o.source.(interface{ Connected() bool }); ok {
		connected := c.Connected()
		o.stateManager.UpdateAppState(func(a *model.AppState) { a.Connected = connected })
	}
}

// syncViewport keeps the panel inside a resized terminal.
func (o *Orchestrator) syncViewport() {
	vp := o.display.Viewport()
	if vp == o.geometry.Viewport() {
		return
	}
	o.geometry.Cancel()
	o.geometry.SetViewport(vp)
	o.stateManager.UpdateAppState(func(a *model.AppState) {
		a.Panel = geometry.Fit(a.Panel, vp, o.geometry.MinSize())
	})
	util.LogDebug("viewport resized", util.F("width", vp.Width), util.F("height", vp.Height))
}

// updateDisplay renders the current state
func (o *Orchestrator) updateDisplay() {
	app := o.stateManager.GetAppState()
	app.Data = o.views.Data()
	if agent := app.Data.Agent; agent.HasData() {
		sorted := *agent.Data
		sorted.Recommendations = o.sortedRecommendations()
		app.Data.Agent.Data = &sorted
	}

	state := o.stateManager.GetInteractionState()
	state.SortLabel = o.sorter.Field().String()
	o.display.RenderWithState(app, state)
}

// sortedRecommendations is the agent list in display order.
func (o *Orchestrator) sortedRecommendations() []model.Recommendation {
	snap := o.views.Agent.Snapshot()
	if !snap.HasData() {
		return nil
	}
	recs := slices.Clone(snap.Data.Recommendations)
	o.sorter.Sort(recs)
	return recs
}

func (o *Orchestrator) requestRedraw() {
	select {
	case o.redraw <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) onViewUpdate(model.View) {
	now := util.GetTimeProvider().Now()
	o.stateManager.SetLastDataUpdate(now)
	o.stateManager.UpdateAppState(func(a *model.AppState) { a.LastUpdate = now })
	o.requestRedraw()
}

func (o *Orchestrator) onPanelChange(r geometry.Rect) {
	o.stateManager.UpdateAppState(func(a *model.AppState) { a.Panel = r })
	o.requestRedraw()
}

// onAssistantChange mirrors the assistant into the shell state. Timer
// transitions arrive here from the assistant's own goroutines.
func (o *Orchestrator) onAssistantChange(s assistant.Snapshot) {
	o.stateManager.UpdateAppState(func(a *model.AppState) {
		// A cleared or replaced alert takes its node mark with it.
		if a.Alert != nil && (s.Alert == nil || s.Alert.TargetNodeID != a.Alert.TargetNodeID) {
			delete(a.AlertingNodes, a.Alert.TargetNodeID)
		}
		if s.Message != "" && (s.State != a.Conversation || s.Message != a.AssistantMessage) {
			a.AddTranscript(transcriptLine(s))
		}
		a.Conversation = s.State
		a.Alert = s.Alert
		a.AssistantMessage = s.Message
	})
	o.requestRedraw()
}

func transcriptLine(s assistant.Snapshot) string {
	if s.State == model.ConversationAlerting {
		return "⚠ " + s.Message
	}
	return "Assistant: " + s.Message
}

// handleAlert marks the target node and hands the alert to the assistant.
// With notifications off the shell stays where it is.
func (o *Orchestrator) handleAlert(ctx context.Context, alert model.Alert) {
	notify := o.views.Settings.Snapshot().Data.NotificationsOn()
	util.LogInfo("alert received", util.F("alert_id", alert.ID), util.F("target", alert.TargetNodeID), util.F("notify", notify))

	o.stateManager.UpdateAppState(func(a *model.AppState) {
		a.AlertingNodes[alert.TargetNodeID] = alert.Message
		if notify {
			a.ActiveView = model.ViewFlow
			a.FullscreenChart = false
			a.AssistantOpen = true
		}
	})
	if notify {
		o.activate(ctx, model.ViewFlow)
	}
	if err := o.assistant.Trigger(alert); err != nil {
		util.LogWarn("alert dropped", util.F("alert_id", alert.ID), util.F("error", err.Error()))
	}
}

// decideAlert approves or denies the active alert and forwards the decision
// for a linked recommendation.
func (o *Orchestrator) decideAlert(ctx context.Context, approve bool) {
	decide := o.assistant.Deny
	if approve {
		decide = o.assistant.Approve
	}
	alert, err := decide()
	if err != nil {
		o.setStatus("No active alert")
		return
	}
	if alert.RecommendationID != nil {
		o.decideRecommendation(ctx, *alert.RecommendationID, approve)
	}
}

// decideRecommendation posts approve/reject in the background and refetches
// the views that show the outcome.
func (o *Orchestrator) decideRecommendation(ctx context.Context, id int, approve bool) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		reqCtx, cancel := context.WithTimeout(ctx, o.config.RequestTimeout)
		defer cancel()

		post := o.service.RejectRecommendation
		if approve {
			post = o.service.ApproveRecommendation
		}
		res, err := post(reqCtx, id)
		if err != nil {
			util.LogError("recommendation decision failed", util.F("id", id), util.F("approve", approve), util.F("error", err.Error()))
			o.setStatus(fmt.Sprintf("Recommendation #%d: %s", id, layout.ErrorText(err)))
			o.requestRedraw()
			return
		}
		util.LogInfo("recommendation decided", util.F("id", id), util.F("approve", approve))
		o.setStatus(res.Message)
		o.refreshCtrl.Refresh(ctx, model.ViewAgent)
		o.refreshCtrl.Refresh(ctx, model.ViewFlow)
		o.requestRedraw()
	}()
}

// updateSettings posts a settings patch and refetches the settings view.
func (o *Orchestrator) updateSettings(ctx context.Context, patch model.SettingsPatch, done string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		reqCtx, cancel := context.WithTimeout(ctx, o.config.RequestTimeout)
		defer cancel()
		if _, err := o.service.UpdateSettings(reqCtx, patch); err != nil {
			util.LogError("settings update failed", util.F("error", err.Error()))
			o.setStatus("Settings not saved: " + layout.ErrorText(err))
			o.requestRedraw()
			return
		}
		o.setStatus(done)
		o.refreshCtrl.Refresh(ctx, model.ViewSettings)
	}()
}

// activate fetches view for its current time range if needed.
func (o *Orchestrator) activate(ctx context.Context, view model.View) {
	tr, _ := o.stateManager.GetAppState().TimeRangeFor(view)
	o.refreshCtrl.Activate(ctx, view, tr)
}

func (o *Orchestrator) setStatus(msg string) {
	o.stateManager.SetStatusMessage(msg, util.GetTimeProvider().Now().Add(statusTTL))
}

// AppState returns a snapshot of the shell state with loaded data.
func (o *Orchestrator) AppState() *model.AppState {
	app := o.stateManager.GetAppState()
	app.Data = o.views.Data()
	return app
}

// Close stops the alert feed, any panel gesture in progress, the assistant
// timers and all fetches. It is safe to call more than once.
func (o *Orchestrator) Close() {
	o.once.Do(func() {
		if o.source != nil {
			if err := o.source.Close(); err != nil {
				util.LogWarn("alert source close failed", util.F("error", err.Error()))
			}
		}
		if o.input != nil {
			if err := o.input.Close(); err != nil {
				util.LogWarn("input close failed", util.F("error", err.Error()))
			}
		}
		o.geometry.Cancel()
		o.assistant.Close()
		o.views.Close()
		o.wg.Wait()
		o.views.Wait()
	})
}
