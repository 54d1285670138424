package model

// Response schemas for the telemetry API. Required fields carry validate
// tags and are checked after decoding; optional numeric fields are pointers
// so an absent value can be told apart from zero and rendered as missing.

// Partial is implemented by payloads that can report absent optional fields.
type Partial interface {
	Missing() []string
}

type Reading struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type OperationalParameters struct {
	FuelConsumption *Reading `json:"fuel_consumption,omitempty"`
	KilnTemp        *Reading `json:"kiln_temp,omitempty"`
}

type KilnTrendPoint struct {
	Time     string   `json:"time" validate:"required"`
	Temp     *float64 `json:"temp" validate:"required"`
	Pressure *float64 `json:"pressure,omitempty"`
	Oxygen   *float64 `json:"oxygen,omitempty"`
}

type KilnAlert struct {
	ID        int    `json:"id"`
	Type      string `json:"type" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Timestamp string `json:"timestamp"`
}

type KilnHealth struct {
	Status                string                 `json:"status" validate:"required"`
	OperationalParameters *OperationalParameters `json:"operational_parameters,omitempty"`
	Trends                []KilnTrendPoint       `json:"trends" validate:"required,dive"`
	RecentAlerts          []KilnAlert            `json:"recent_alerts,omitempty" validate:"omitempty,dive"`
}

func (k *KilnHealth) Missing() []string {
	var missing []string
	if k.OperationalParameters == nil {
		missing = append(missing, "operational_parameters")
	}
	if k.RecentAlerts == nil {
		missing = append(missing, "recent_alerts")
	}
	for _, p := range k.Trends {
		if p.Pressure == nil || p.Oxygen == nil {
			missing = append(missing, "trends.pressure/oxygen")
			break
		}
	}
	return missing
}

// TempSeries extracts the temperature trend.
func (k *KilnHealth) TempSeries() MetricSeries {
	out := make(MetricSeries, 0, len(k.Trends))
	for _, p := range k.Trends {
		out = append(out, MetricPoint{Label: p.Time, Value: *p.Temp})
	}
	return out
}

// OxygenSeries extracts the oxygen trend, skipping points without a reading.
func (k *KilnHealth) OxygenSeries() MetricSeries {
	out := make(MetricSeries, 0, len(k.Trends))
	for _, p := range k.Trends {
		if p.Oxygen != nil {
			out = append(out, MetricPoint{Label: p.Time, Value: *p.Oxygen})
		}
	}
	return out
}

// PressureSeries extracts the draft pressure trend, skipping gaps.
func (k *KilnHealth) PressureSeries() MetricSeries {
	out := make(MetricSeries, 0, len(k.Trends))
	for _, p := range k.Trends {
		if p.Pressure != nil {
			out = append(out, MetricPoint{Label: p.Time, Value: *p.Pressure})
		}
	}
	return out
}

type FuelConsumption struct {
	CurrentRate  float64 `json:"currentRate"`
	Trend        string  `json:"trend" validate:"omitempty,oneof=up down stable"`
	DailyAverage float64 `json:"dailyAverage"`
}

type EnergyEfficiency struct {
	SEC    float64 `json:"sec"`
	Trend  string  `json:"trend" validate:"omitempty,oneof=up down stable"`
	Target float64 `json:"target"`
}

type CostAnalysis struct {
	EstimatedDailyCost float64 `json:"estimatedDailyCost"`
	SavingsToday       float64 `json:"savingsToday"`
}

type EmissionsMonitoring struct {
	CurrentCO2 float64 `json:"currentCO2"`
	Trend      string  `json:"trend" validate:"omitempty,oneof=up down stable"`
	Limit      float64 `json:"limit"`
}

type EnergyTrendPoint struct {
	Name        string   `json:"name" validate:"required"`
	Consumption *float64 `json:"consumption" validate:"required"`
}

type EnergyCockpit struct {
	FuelConsumption     *FuelConsumption     `json:"fuel_consumption,omitempty"`
	EnergyEfficiency    *EnergyEfficiency    `json:"energy_efficiency,omitempty"`
	CostAnalysis        *CostAnalysis        `json:"cost_analysis,omitempty"`
	EmissionsMonitoring *EmissionsMonitoring `json:"emissions_monitoring,omitempty"`
	Trends              []EnergyTrendPoint   `json:"trends" validate:"required,dive"`
}

func (e *EnergyCockpit) Missing() []string {
	var missing []string
	if e.FuelConsumption == nil {
		missing = append(missing, "fuel_consumption")
	}
	if e.EnergyEfficiency == nil {
		missing = append(missing, "energy_efficiency")
	}
	if e.CostAnalysis == nil {
		missing = append(missing, "cost_analysis")
	}
	if e.EmissionsMonitoring == nil {
		missing = append(missing, "emissions_monitoring")
	}
	return missing
}

// ConsumptionSeries extracts the energy consumption trend.
func (e *EnergyCockpit) ConsumptionSeries() MetricSeries {
	out := make(MetricSeries, 0, len(e.Trends))
	for _, p := range e.Trends {
		out = append(out, MetricPoint{Label: p.Name, Value: *p.Consumption})
	}
	return out
}

type QualityTrendPoint struct {
	Name string   `json:"name" validate:"required"`
	FCaO *float64 `json:"fcao" validate:"required"`
}

type CorrelationPoint struct {
	Temp float64 `json:"temp"`
	FCaO float64 `json:"fcao"`
}

type PredictiveQuality struct {
	PredictedFCaO      *float64            `json:"predicted_fcao,omitempty"`
	ConfidenceInterval string              `json:"confidence_interval,omitempty"`
	TargetFCaORange    string              `json:"target_fcao_range,omitempty"`
	TargetFCaOMin      *float64            `json:"target_fcao_min" validate:"required"`
	TargetFCaOMax      *float64            `json:"target_fcao_max" validate:"required"`
	Trends             []QualityTrendPoint `json:"trends" validate:"required,dive"`
	CorrelationData    []CorrelationPoint  `json:"correlation_data,omitempty"`
}

func (q *PredictiveQuality) Missing() []string {
	var missing []string
	if q.PredictedFCaO == nil {
		missing = append(missing, "predicted_fcao")
	}
	if q.CorrelationData == nil {
		missing = append(missing, "correlation_data")
	}
	return missing
}

// FCaOSeries extracts the free-lime trend.
func (q *PredictiveQuality) FCaOSeries() MetricSeries {
	out := make(MetricSeries, 0, len(q.Trends))
	for _, p := range q.Trends {
		out = append(out, MetricPoint{Label: p.Name, Value: *p.FCaO})
	}
	return out
}

// TargetBand returns the inclusive f-CaO target band.
func (q *PredictiveQuality) TargetBand() (lo, hi float64) {
	return *q.TargetFCaOMin, *q.TargetFCaOMax
}

type VarianceRow struct {
	MetricName string   `json:"metric_name" validate:"required"`
	Value      *float64 `json:"value" validate:"required"`
	Timestamp  string   `json:"timestamp" validate:"required"`
	IsAnomaly  bool     `json:"is_anomaly"`
	Target     *float64 `json:"target,omitempty"`
	Deviation  *float64 `json:"deviation,omitempty"`
}

type AgentAction struct {
	ID        int    `json:"id"`
	Status    string `json:"status" validate:"required,oneof=success failed pending"`
	Action    string `json:"action" validate:"required"`
	Parameter string `json:"parameter,omitempty"`
	Value     string `json:"value,omitempty"`
	Timestamp string `json:"timestamp" validate:"required"`
}

const (
	RecommendationPending  = "pending"
	RecommendationApproved = "approved"
	RecommendationRejected = "rejected"
)

type Recommendation struct {
	ID             int      `json:"id"`
	Status         string   `json:"status" validate:"required,oneof=pending approved rejected"`
	Recommendation string   `json:"recommendation" validate:"required"`
	Confidence     *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Timestamp      string   `json:"timestamp,omitempty"`
}

// AgentData bundles the action log with the pending recommendations.
type AgentData struct {
	Actions         []AgentAction
	Recommendations []Recommendation
}

// ActionResult is the body returned by approve/reject.
type ActionResult struct {
	Message string `json:"message" validate:"required"`
}

type Settings struct {
	DarkMode             *bool  `json:"darkMode,omitempty"`
	Language             string `json:"language" validate:"required"`
	NotificationsEnabled *bool  `json:"notificationsEnabled,omitempty"`
	UserName             string `json:"userName,omitempty"`
	UserEmail            string `json:"userEmail,omitempty" validate:"omitempty,email"`
}

func (s *Settings) Missing() []string {
	var missing []string
	if s.DarkMode == nil {
		missing = append(missing, "darkMode")
	}
	if s.NotificationsEnabled == nil {
		missing = append(missing, "notificationsEnabled")
	}
	return missing
}

// NotificationsOn treats an absent flag as enabled.
func (s *Settings) NotificationsOn() bool {
	return s == nil || s.NotificationsEnabled == nil || *s.NotificationsEnabled
}

// SettingsPatch is a partial update merged into the stored settings.
type SettingsPatch struct {
	DarkMode             *bool   `json:"darkMode,omitempty"`
	Language             *string `json:"language,omitempty" validate:"omitempty,min=2,max=8"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
	UserName             *string `json:"userName,omitempty" validate:"omitempty,max=120"`
	UserEmail            *string `json:"userEmail,omitempty" validate:"omitempty,email"`
}

// Apply merges the non-nil fields of p into s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.DarkMode != nil {
		v := *p.DarkMode
		s.DarkMode = &v
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.NotificationsEnabled != nil {
		v := *p.NotificationsEnabled
		s.NotificationsEnabled = &v
	}
	if p.UserName != nil {
		s.UserName = *p.UserName
	}
	if p.UserEmail != nil {
		s.UserEmail = *p.UserEmail
	}
}

const (
	NodeCompleted = "completed"
	NodeRunning   = "running"
	NodePending   = "pending"
	NodeFailed    = "failed"
)

type ProcessNode struct {
	ID      string `json:"id" validate:"required"`
	Label   string `json:"label" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=completed running pending failed"`
	Message string `json:"message,omitempty"`
}

var plantStages = []ProcessNode{
	{ID: "1", Label: "Quarry & Crushing", Status: NodeCompleted, Message: "OK"},
	{ID: "2", Label: "Raw Grinding", Status: NodeCompleted, Message: "OK"},
	{ID: "3", Label: "Blending & Homogenization", Status: NodeCompleted, Message: "OK"},
	{ID: "4", Label: "Preheating", Status: NodeRunning, Message: "Cyclone temp 850°C"},
	{ID: "5", Label: "Kiln Burning", Status: NodeRunning, Message: "Stable flame"},
	{ID: "6", Label: "Clinker Cooling", Status: NodeRunning, Message: "Grate speed nominal"},
	{ID: "7", Label: "Cement Grinding", Status: NodePending, Message: "Awaiting clinker"},
	{ID: "8", Label: "Silo Storage", Status: NodePending, Message: "Idle"},
}

// PlantStages returns a fresh copy of the built-in process flow, used by the
// API simulator and by the dashboard when the API is unreachable.
func PlantStages() []ProcessNode {
	out := make([]ProcessNode, len(plantStages))
	copy(out, plantStages)
	return out
}

// Overview aggregates every section for the landing view.
type Overview struct {
	KilnHealth        *KilnHealth        `json:"kiln_health" validate:"required"`
	EnergyCockpit     *EnergyCockpit     `json:"energy_cockpit" validate:"required"`
	PredictiveQuality *PredictiveQuality `json:"predictive_quality" validate:"required"`
	ActionLog         []AgentAction      `json:"action_log,omitempty" validate:"omitempty,dive"`
	Recommendations   []Recommendation   `json:"recommendations,omitempty" validate:"omitempty,dive"`
	ProcessFlow       []ProcessNode      `json:"process_flow,omitempty" validate:"omitempty,dive"`
	VarianceAnalysis  []VarianceRow      `json:"variance_analysis,omitempty" validate:"omitempty,dive"`
}

func (o *Overview) Missing() []string {
	var missing []string
	if o.ActionLog == nil {
		missing = append(missing, "action_log")
	}
	if o.Recommendations == nil {
		missing = append(missing, "recommendations")
	}
	if o.ProcessFlow == nil {
		missing = append(missing, "process_flow")
	}
	if o.VarianceAnalysis == nil {
		missing = append(missing, "variance_analysis")
	}
	return missing
}

// PendingRecommendations filters recommendations still awaiting a decision.
func PendingRecommendations(recs []Recommendation) []Recommendation {
	var out []Recommendation
	for _, r := range recs {
		if r.Status == RecommendationPending {
			out = append(out, r)
		}
	}
	return out
}
