package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is the single active anomaly notification.
type Alert struct {
	ID               string    `json:"id" validate:"required"`
	Message          string    `json:"message" validate:"required"`
	TargetNodeID     string    `json:"target_node_id" validate:"required"`
	RecommendationID *int      `json:"recommendation_id,omitempty"`
	Severity         string    `json:"severity,omitempty" validate:"omitempty,oneof=info warning critical"`
	Metric           string    `json:"metric,omitempty"`
	Value            *float64  `json:"value,omitempty"`
	RaisedAt         time.Time `json:"raised_at"`
}

// NewAlert stamps a fresh id and the raise time.
func NewAlert(message, target string, raisedAt time.Time) Alert {
	return Alert{
		ID:           uuid.NewString(),
		Message:      message,
		TargetNodeID: target,
		Severity:     SeverityWarning,
		RaisedAt:     raisedAt,
	}
}

// AlertEnvelope is the push channel frame: {"type":"alert","payload":{...}}.
type AlertEnvelope struct {
	Type  string `json:"type"`
	Alert Alert  `json:"payload"`
}

const EnvelopeAlert = "alert"
