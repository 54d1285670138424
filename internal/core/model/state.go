package model

import (
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/core/geometry"
)

// ConversationState drives which assistant affordance is shown.
type ConversationState string

const (
	ConversationIdle      ConversationState = "idle"
	ConversationListening ConversationState = "listening"
	ConversationSpeaking  ConversationState = "speaking"
	ConversationAlerting  ConversationState = "alerting"
)

// AssistantMode switches the panel between the voice orb and the chat log.
type AssistantMode string

const (
	AssistantVoice AssistantMode = "voice"
	AssistantChat  AssistantMode = "chat"
)

// LoadStatus tracks a view's data acquisition.
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusReady
	StatusPartial
	StatusError
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusPartial:
		return "partial"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// ViewSnapshot is a read-only copy of one loader's state.
type ViewSnapshot[T any] struct {
	Status    LoadStatus
	TimeRange TimeRange
	Data      T
	Err       error
	Missing   []string
	UpdatedAt time.Time
	// Refreshing is set while an explicit refresh runs over kept data.
	Refreshing bool
}

// HasData reports whether Data holds a decoded payload.
func (s ViewSnapshot[T]) HasData() bool {
	return s.Status == StatusReady || s.Status == StatusPartial
}

// DashboardData holds the latest snapshot of every view.
type DashboardData struct {
	Overview ViewSnapshot[*Overview]
	Kiln     ViewSnapshot[*KilnHealth]
	Energy   ViewSnapshot[*EnergyCockpit]
	Quality  ViewSnapshot[*PredictiveQuality]
	Flow     ViewSnapshot[[]ProcessNode]
	Variance ViewSnapshot[[]VarianceRow]
	Agent    ViewSnapshot[*AgentData]
	Settings ViewSnapshot[*Settings]
}

// AppState is the shell-owned state. Renderers receive clones.
type AppState struct {
	ActiveView          View
	AssistantOpen       bool
	AssistantFullscreen bool
	AssistantMode       AssistantMode
	FullscreenChart     bool
	Alert               *Alert
	Conversation        ConversationState
	AssistantMessage    string
	Transcript          []string
	Panel               geometry.Rect
	TimeRanges          map[View]TimeRange
	AlertingNodes       map[string]string
	Connected           bool
	LastUpdate          time.Time
	Data                DashboardData
}

// MaxTranscript bounds the assistant chat log.
const MaxTranscript = 50

// AddTranscript appends a chat log line, dropping the oldest beyond MaxTranscript.
func (s *AppState) AddTranscript(line string) {
	s.Transcript = append(s.Transcript, line)
	if n := len(s.Transcript); n > MaxTranscript {
		s.Transcript = append([]string(nil), s.Transcript[n-MaxTranscript:]...)
	}
}

// NewAppState returns the initial shell state for the given start view.
func NewAppState(start View) *AppState {
	ranges := make(map[View]TimeRange)
	for _, v := range views {
		if tr, ok := v.DefaultTimeRange(); ok {
			ranges[v] = tr
		}
	}
	return &AppState{
		ActiveView:    start,
		AssistantMode: AssistantVoice,
		Conversation:  ConversationIdle,
		TimeRanges:    ranges,
		AlertingNodes: make(map[string]string),
	}
}

// TimeRangeFor returns the current window of v, if v is time-scoped.
func (s *AppState) TimeRangeFor(v View) (TimeRange, bool) {
	tr, ok := s.TimeRanges[v]
	return tr, ok
}

// Clone copies the state deeply enough that callers cannot mutate the original.
func (s *AppState) Clone() *AppState {
	c := *s
	c.TimeRanges = make(map[View]TimeRange, len(s.TimeRanges))
	for k, v := range s.TimeRanges {
		c.TimeRanges[k] = v
	}
	c.AlertingNodes = make(map[string]string, len(s.AlertingNodes))
	for k, v := range s.AlertingNodes {
		c.AlertingNodes[k] = v
	}
	c.Transcript = append([]string(nil), s.Transcript...)
	if s.Alert != nil {
		a := *s.Alert
		c.Alert = &a
	}
	return &c
}

// ConfirmDialog represents a confirmation dialog state
type ConfirmDialog struct {
	Title     string
	Message   string
	OnConfirm func()
	OnCancel  func()
}

// InteractionState holds transient UI interaction flags.
type InteractionState struct {
	IsPaused      bool
	ShowHelp      bool
	LayoutStyle   string
	Selected      int
	SortLabel     string
	StatusMessage string
	StatusUntil   time.Time
	ConfirmDialog *ConfirmDialog
	LastRefresh   time.Time
}
