package domain

import "time"

// Report lifecycle statuses. A report enters the system as under_review and
// only a moderation decision mutates it afterwards.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusValid       = "valid"
	StatusDuplicate   = "duplicate"
	StatusInvalid     = "invalid"
)

// Moderation decision values.
const (
	DecisionValid     = "valid"
	DecisionDuplicate = "duplicate"
	DecisionInvalid   = "invalid"
)

// Observation sources.
const (
	SourceSensor = "sensor"
	SourceReport = "report"
)

// Zone is a geographic monitoring area. Zone metadata is read-only reference
// data loaded at startup.
type Zone struct {
	ZoneID       string `json:"zone_id"`
	Name         string `json:"name"`
	GeometryStub string `json:"geometry_stub"`
	Tags         string `json:"tags"`
}

// Observation is a single noise measurement, produced by the sensor/report
// ingestion pipeline and immutable once loaded. A zero Timestamp marks a row
// whose stored timestamp could not be parsed; such rows are excluded from
// time-based computations instead of failing them.
type Observation struct {
	ObsID       string    `json:"obs_id"`
	ZoneID      string    `json:"zone_id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	ValueDB     float64   `json:"value_db"`
	CategoryTag string    `json:"category_tag"`
}

// Report is a crowd-sourced noise incident report after normalization.
// Status is the only mutable field, written exclusively by moderation.
type Report struct {
	ReportID        string    `json:"report_id"`
	ZoneID          string    `json:"zone_id"`
	Timestamp       time.Time `json:"timestamp"`
	Category        string    `json:"category"`
	TimeWindow      string    `json:"time_window"`
	DescriptionStub string    `json:"description_stub"`
	Status          string    `json:"status"`
}

// Decision is one entry of the append-only moderation audit trail. Decisions
// are never mutated or deleted; re-moderating a report appends another one.
type Decision struct {
	DecisionID string    `json:"decision_id"`
	ReportID   string    `json:"report_id"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// Hotspot is one row of the derived severity ranking. The whole table is
// replaced on every recompute; individual rows are never mutated.
type Hotspot struct {
	HotspotID            string  `json:"hotspot_id"`
	ZoneID               string  `json:"zone_id"`
	TimeWindow           string  `json:"time_window"`
	SeverityScore        float64 `json:"severity_score"`
	AvgNoiseDB           float64 `json:"avg_noise_db"`
	ReportCount          int     `json:"report_count"`
	ValidatedReportCount int     `json:"validated_report_count"`
	Rationale            string  `json:"rationale"`
}

// ValidDecision reports whether d is one of the three moderation decisions.
func ValidDecision(d string) bool {
	switch d {
	case DecisionValid, DecisionDuplicate, DecisionInvalid:
		return true
	default:
		return false
	}
}
