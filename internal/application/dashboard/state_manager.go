package dashboard

import (
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// StateManager manages application state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	// Shell state
	app *model.AppState

	// Interaction state
	interactionState model.InteractionState

	// Metadata
	lastDataUpdate time.Time
}

// NewStateManager creates a new StateManager starting on view start
func NewStateManager(start model.View, layout string) *StateManager {
	return &StateManager{
		app:              model.NewAppState(start),
		interactionState: model.InteractionState{LayoutStyle: layout},
	}
}

// GetAppState returns a copy of the shell state
func (sm *StateManager) GetAppState() *model.AppState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.app.Clone()
}

// UpdateAppState mutates the shell state under the lock
func (sm *StateManager) UpdateAppState(updateFunc func(*model.AppState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	updateFunc(sm.app)
}

// ActiveView returns the selected view
func (sm *StateManager) ActiveView() model.View {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.app.ActiveView
}

// GetInteractionState returns current interaction state
func (sm *StateManager) GetInteractionState() model.InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	// Return a copy of the state
	return sm.interactionState
}

// UpdateInteractionState updates specific fields of interaction state
func (sm *StateManager) UpdateInteractionState(updateFunc func(*model.InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	updateFunc(&sm.interactionState)
}

// SetStatusMessage shows msg in the status line until the given time
func (sm *StateManager) SetStatusMessage(msg string, until time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.interactionState.StatusMessage = msg
	sm.interactionState.StatusUntil = until
}

// ExpireStatusMessage clears a status message whose time has passed
func (sm *StateManager) ExpireStatusMessage(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.interactionState.StatusMessage != "" && now.After(sm.interactionState.StatusUntil) {
		sm.interactionState.StatusMessage = ""
	}
}

// GetLastDataUpdate returns the time of the last applied view response
func (sm *StateManager) GetLastDataUpdate() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.lastDataUpdate
}

// SetLastDataUpdate records the time of the last applied view response
func (sm *StateManager) SetLastDataUpdate(t time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.lastDataUpdate = t
}
