package assistant

import (
	"errors"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const (
	MessageApproved = "Action approved and executed."
	MessageDenied   = "Action denied."
)

var (
	ErrNoActiveAlert = errors.New("no active alert")
	ErrClosed        = errors.New("assistant closed")
)

// Config holds the simulated conversation delays.
type Config struct {
	FeedbackDelay time.Duration
	ListenDelay   time.Duration
	SpeakDelay    time.Duration
}

// DefaultConfig mirrors the demo timings.
func DefaultConfig() Config {
	return Config{
		FeedbackDelay: 3 * time.Second,
		ListenDelay:   3 * time.Second,
		SpeakDelay:    4 * time.Second,
	}
}

// Snapshot is a copy of the conversation state.
type Snapshot struct {
	State   model.ConversationState
	Alert   *model.Alert
	Message string
}

// Assistant is the idle/listening/speaking/alerting state machine.
//
// Every transition bumps an epoch; a scheduled transition only applies if
// the epoch it was scheduled under is still current, so a late timer can
// never undo a newer user action.
type Assistant struct {
	mu       sync.Mutex
	cfg      Config
	state    model.ConversationState
	alert    *model.Alert
	message  string
	epoch    uint64
	timer    *time.Timer
	closed   bool
	onChange func(Snapshot)
}

// New creates an idle assistant. onChange is called outside the lock after
// every transition, including timer-driven ones.
func New(cfg Config, onChange func(Snapshot)) *Assistant {
	return &Assistant{cfg: cfg, state: model.ConversationIdle, onChange: onChange}
}

// Trigger raises an alert, replacing any active one.
func (a *Assistant) Trigger(alert model.Alert) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.transitionLocked(model.ConversationAlerting, alert.Message)
	a.alert = &alert
	snap := a.snapshotLocked()
	a.mu.Unlock()

	util.LogInfo("assistant alert raised", util.F("alert_id", alert.ID), util.F("target", alert.TargetNodeID))
	a.notify(snap)
	return nil
}

// Approve acknowledges the active alert and returns it so the caller can
// forward the decision. The alert stays visible for the feedback delay.
func (a *Assistant) Approve() (model.Alert, error) {
	return a.acknowledge(MessageApproved)
}

// Deny rejects the active alert.
func (a *Assistant) Deny() (model.Alert, error) {
	return a.acknowledge(MessageDenied)
}

func (a *Assistant) acknowledge(feedback string) (model.Alert, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return model.Alert{}, ErrClosed
	}
	if a.state != model.ConversationAlerting || a.alert == nil {
		a.mu.Unlock()
		return model.Alert{}, ErrNoActiveAlert
	}
	alert := *a.alert
	a.transitionLocked(model.ConversationSpeaking, feedback)
	a.scheduleLocked(a.cfg.FeedbackDelay, func() {
		a.alert = nil
		a.transitionLocked(model.ConversationIdle, "")
	})
	snap := a.snapshotLocked()
	a.mu.Unlock()

	util.LogInfo("assistant alert acknowledged", util.F("alert_id", alert.ID), util.F("feedback", feedback))
	a.notify(snap)
	return alert, nil
}

// ToggleMic starts a simulated listen/speak exchange from idle or alerting
// (dropping the alert) and returns to idle from any other state.
func (a *Assistant) ToggleMic() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	switch a.state {
	case model.ConversationIdle, model.ConversationAlerting:
		a.alert = nil
		a.transitionLocked(model.ConversationListening, "")
		a.scheduleLocked(a.cfg.ListenDelay, func() {
			a.transitionLocked(model.ConversationSpeaking, "")
			a.scheduleLocked(a.cfg.SpeakDelay, func() {
				a.transitionLocked(model.ConversationIdle, "")
			})
		})
	default:
		a.transitionLocked(model.ConversationIdle, "")
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.notify(snap)
	return nil
}

// Snapshot returns the current state.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Close stops pending timers. Later calls return ErrClosed.
func (a *Assistant) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.epoch++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Assistant) transitionLocked(state model.ConversationState, message string) {
	a.epoch++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.state = state
	a.message = message
}

// scheduleLocked runs fn under the lock after d, unless another transition
// happened first. fn may schedule again.
func (a *Assistant) scheduleLocked(d time.Duration, fn func()) {
	epoch := a.epoch
	a.timer = time.AfterFunc(d, func() {
		a.mu.Lock()
		if a.closed || a.epoch != epoch {
			a.mu.Unlock()
			return
		}
		fn()
		snap := a.snapshotLocked()
		a.mu.Unlock()
		a.notify(snap)
	})
}

func (a *Assistant) snapshotLocked() Snapshot {
	s := Snapshot{State: a.state, Message: a.message}
	if a.alert != nil {
		alert := *a.alert
		s.Alert = &alert
	}
	return s
}

func (a *Assistant) notify(s Snapshot) {
	if a.onChange != nil {
		a.onChange(s)
	}
}

// StatusText is the one-line status shown under the assistant orb.
func StatusText(s Snapshot) string {
	switch s.State {
	case model.ConversationListening:
		return "Listening..."
	case model.ConversationSpeaking:
		if s.Message != "" {
			return s.Message
		}
		return "Speaking..."
	case model.ConversationAlerting:
		if s.Alert != nil && s.Alert.Message != "" {
			return s.Alert.Message
		}
		return "Alert!"
	default:
		return "Press m to talk to the kiln assistant"
	}
}
