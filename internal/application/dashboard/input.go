package dashboard

import (
	"context"
	"fmt"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-kiln-monitor/internal/presentation/layout"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// handleInput handles one keyboard or pointer event and reports whether the
// user asked to quit.
func (o *Orchestrator) handleInput(ctx context.Context, event interaction.InputEvent) bool {
	if event.IsMouse() {
		o.handleMouse(ctx, event)
		return false
	}

	state := o.stateManager.GetInteractionState()

	// Handle confirm dialog inputs first
	if state.ConfirmDialog != nil {
		o.handleConfirmDialog(state.ConfirmDialog, event)
		return false
	}

	app := o.stateManager.GetAppState()
	switch event.Type {
	case interaction.KeyEscape:
		return o.handleEscape(app, state)
	case interaction.KeyTab:
		o.stepView(ctx, app.ActiveView, 1)
	case interaction.KeyBackTab:
		o.stepView(ctx, app.ActiveView, -1)
	case interaction.KeyUp, interaction.KeyDown:
		dy := 1
		if event.Type == interaction.KeyUp {
			dy = -1
		}
		if app.ActiveView == model.ViewAgent {
			o.moveSelection(dy)
		} else {
			o.nudgePanel(app, geometry.GestureMove, 0, dy)
		}
	case interaction.KeyLeft:
		o.nudgePanel(app, geometry.GestureMove, -1, 0)
	case interaction.KeyRight:
		o.nudgePanel(app, geometry.GestureMove, 1, 0)
	case interaction.KeyChar:
		return o.handleKey(ctx, app, event.Key)
	}
	return false
}

func (o *Orchestrator) handleConfirmDialog(dialog *model.ConfirmDialog, event interaction.InputEvent) {
	confirm, cancel := false, false
	switch event.Type {
	case interaction.KeyChar:
		switch event.Key {
		case 'y', 'Y':
			confirm = true
		case 'n', 'N':
			cancel = true
		}
	case interaction.KeyEscape:
		cancel = true
	}
	if !confirm && !cancel {
		return // Ignore other keys when dialog is open
	}

	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ConfirmDialog = nil
	})
	if confirm && dialog.OnConfirm != nil {
		dialog.OnConfirm()
	}
	if cancel && dialog.OnCancel != nil {
		dialog.OnCancel()
	}
	o.display.ClearScreen()
}

// handleEscape closes the topmost overlay, or quits when nothing is open.
func (o *Orchestrator) handleEscape(app *model.AppState, state model.InteractionState) bool {
	switch {
	case state.ShowHelp:
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) { s.ShowHelp = false })
	case app.FullscreenChart:
		o.stateManager.UpdateAppState(func(a *model.AppState) { a.FullscreenChart = false })
	case app.AssistantFullscreen:
		o.stateManager.UpdateAppState(func(a *model.AppState) { a.AssistantFullscreen = false })
	default:
		return true
	}
	return false
}

func (o *Orchestrator) handleKey(ctx context.Context, app *model.AppState, key rune) bool {
	switch key {
	case 'q', 'Q', 3: // 'q', 'Q', or Ctrl+C
		return true

	case '1', '2', '3', '4', '5', '6', '7', '8':
		o.selectView(ctx, model.AllViews()[key-'1'])
	case 't', 'T':
		o.cycleTimeRange(ctx, app)
	case 'r', 'R':
		if o.refreshCtrl.Refresh(ctx, app.ActiveView) {
			o.setStatus("Refreshing " + app.ActiveView.Title())
		} else {
			o.activate(ctx, app.ActiveView)
		}
	case 'p', 'P':
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) { s.IsPaused = !s.IsPaused })
	case 'h':
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) { s.ShowHelp = !s.ShowHelp })
	case 'l':
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.LayoutStyle = layout.NextLayoutStyle(s.LayoutStyle)
		})
	case 'x', 'X':
		o.clearCache(ctx)
	case 's', 'S':
		field := o.sorter.Cycle()
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) { s.Selected = 0 })
		o.setStatus("Recommendations sorted by " + field.String())

	case 'f':
		o.stateManager.UpdateAppState(func(a *model.AppState) { a.FullscreenChart = !a.FullscreenChart })
	case 'F':
		o.stateManager.UpdateAppState(func(a *model.AppState) {
			a.AssistantFullscreen = !a.AssistantFullscreen
			a.AssistantOpen = true
		})
	case 'a', 'A':
		o.stateManager.UpdateAppState(func(a *model.AppState) {
			a.AssistantOpen = !a.AssistantOpen
			if !a.AssistantOpen {
				a.AssistantFullscreen = false
			}
		})
	case 'c', 'C':
		o.stateManager.UpdateAppState(func(a *model.AppState) {
			a.AssistantOpen = true
			if a.AssistantMode == model.AssistantChat {
				a.AssistantMode = model.AssistantVoice
			} else {
				a.AssistantMode = model.AssistantChat
			}
		})
	case 'm', 'M':
		o.stateManager.UpdateAppState(func(a *model.AppState) { a.AssistantOpen = true })
		if err := o.assistant.ToggleMic(); err != nil {
			util.LogWarn("mic toggle failed", util.F("error", err.Error()))
		}

	case 'y', 'n':
		approve := key == 'y'
		switch {
		case app.Alert != nil:
			o.decideAlert(ctx, approve)
		case app.ActiveView == model.ViewAgent:
			o.confirmRecommendation(ctx, approve)
		}

	case 'N', 'D':
		if app.ActiveView == model.ViewSettings {
			o.toggleSetting(ctx, key)
		}

	// Panel resize: H/L narrower/wider, K/J shorter/taller.
	case 'H':
		o.nudgePanel(app, geometry.ResizeRight, -1, 0)
	case 'L':
		o.nudgePanel(app, geometry.ResizeRight, 1, 0)
	case 'K':
		o.nudgePanel(app, geometry.ResizeBottom, 0, -1)
	case 'J':
		o.nudgePanel(app, geometry.ResizeBottom, 0, 1)
	}
	return false
}

// handleMouse routes presses on the panel to the geometry controller and
// presses on the sidebar to view selection.
func (o *Orchestrator) handleMouse(ctx context.Context, event interaction.InputEvent) {
	p := event.Point()
	switch event.Type {
	case interaction.MousePress:
		app := o.stateManager.GetAppState()
		if app.AssistantOpen && !app.AssistantFullscreen && app.Panel.Contains(p) {
			if g := geometry.HitTest(app.Panel, p); g != geometry.GestureNone {
				if err := o.geometry.Begin(g, p, app.Panel); err != nil {
					util.LogDebug("panel gesture rejected", util.F("error", err.Error()))
				}
			}
			return
		}
		strategy := layout.GetLayoutStrategy(o.stateManager.GetInteractionState().LayoutStyle)
		if view, ok := strategy.SidebarHit(o.display.Viewport(), p); ok {
			o.selectView(ctx, view)
		}
	case interaction.MouseDrag:
		o.geometry.Move(p)
	case interaction.MouseRelease:
		if o.geometry.Dragging() {
			r := o.geometry.End()
			util.LogDebug("panel gesture finished", util.F("left", r.Left), util.F("top", r.Top),
				util.F("width", r.Width), util.F("height", r.Height))
		}
	}
}

// nudgePanel moves or resizes the floating panel by keyboard.
func (o *Orchestrator) nudgePanel(app *model.AppState, g geometry.Gesture, dx, dy int) {
	if !app.AssistantOpen || app.AssistantFullscreen {
		return
	}
	if _, err := o.geometry.Nudge(g, dx, dy, app.Panel); err != nil {
		util.LogDebug("panel nudge rejected", util.F("error", err.Error()))
	}
}

func (o *Orchestrator) selectView(ctx context.Context, view model.View) {
	o.stateManager.UpdateAppState(func(a *model.AppState) {
		a.ActiveView = view
		a.FullscreenChart = false
	})
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) { s.Selected = 0 })
	o.activate(ctx, view)
}

func (o *Orchestrator) stepView(ctx context.Context, current model.View, step int) {
	views := model.AllViews()
	i := (current.Index() + step + len(views)) % len(views)
	o.selectView(ctx, views[i])
}

func (o *Orchestrator) cycleTimeRange(ctx context.Context, app *model.AppState) {
	tr, ok := app.TimeRangeFor(app.ActiveView)
	if !ok {
		o.setStatus(app.ActiveView.Title() + " has no time range")
		return
	}
	next := tr.Next()
	o.stateManager.UpdateAppState(func(a *model.AppState) { a.TimeRanges[a.ActiveView] = next })
	o.refreshCtrl.Activate(ctx, app.ActiveView, next)
}

func (o *Orchestrator) moveSelection(delta int) {
	n := len(o.sortedRecommendations())
	if n == 0 {
		return
	}
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.Selected = min(max(s.Selected+delta, 0), n-1)
	})
}

// confirmRecommendation asks before posting a decision for the selected
// recommendation.
func (o *Orchestrator) confirmRecommendation(ctx context.Context, approve bool) {
	recs := o.sortedRecommendations()
	selected := o.stateManager.GetInteractionState().Selected
	if selected < 0 || selected >= len(recs) {
		o.setStatus("No recommendation selected")
		return
	}
	rec := recs[selected]
	if rec.Status != model.RecommendationPending {
		o.setStatus(fmt.Sprintf("Recommendation #%d is already %s", rec.ID, rec.Status))
		return
	}

	verb := "Reject"
	if approve {
		verb = "Approve"
	}
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ConfirmDialog = &model.ConfirmDialog{
			Title:   verb + " Recommendation",
			Message: fmt.Sprintf("%s #%d: %s?", verb, rec.ID, rec.Recommendation),
			OnConfirm: func() {
				o.decideRecommendation(ctx, rec.ID, approve)
			},
		}
	})
}

// clearCache clears the response cache with confirmation
func (o *Orchestrator) clearCache(ctx context.Context) {
	if o.cache == nil {
		o.setStatus("No response cache in use")
		return
	}
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ConfirmDialog = &model.ConfirmDialog{
			Title:   "Clear Response Cache",
			Message: "This will drop every cached API response and reload the current view. Continue?",
			OnConfirm: func() {
				o.refreshCtrl.ClearCache(ctx, o.stateManager.ActiveView())
				o.setStatus("Cache cleared")
			},
		}
	})
}

func (o *Orchestrator) toggleSetting(ctx context.Context, key rune) {
	snap := o.views.Settings.Snapshot()
	if !snap.HasData() {
		o.setStatus("Settings are not loaded yet")
		return
	}
	var patch model.SettingsPatch
	var done string
	switch key {
	case 'N':
		on := !snap.Data.NotificationsOn()
		patch.NotificationsEnabled = &on
		done = "Notifications " + onOff(on)
	case 'D':
		dark := snap.Data.DarkMode == nil || !*snap.Data.DarkMode
		patch.DarkMode = &dark
		done = "Dark mode " + onOff(dark)
	}
	o.updateSettings(ctx, patch, done)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
