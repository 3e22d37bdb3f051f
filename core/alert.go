package core

import (
	"time"

	"github.com/google/uuid"
)

// Alert is a detection produced for a technique-within-stage that rolled
// above the detection rate.
type Alert struct {
	AlertID        string    `json:"alert_id"`
	RuleName       string    `json:"rule_name"`
	Severity       Severity  `json:"severity"`
	Timestamp      time.Time `json:"timestamp"`
	DetectionDelay int       `json:"detection_delay_minutes"`
	Technique      string    `json:"technique"`
	StageID        string    `json:"stage_id"`
	SourceAsset    string    `json:"source_asset"`
	CorrelationID  string    `json:"correlation_id"`
	Fields         FieldSet  `json:"fields"`
}

// NewAlert creates an alert with a generated UUID
func NewAlert() *Alert {
	return &Alert{
		AlertID: uuid.New().String(),
		Fields:  make(FieldSet),
	}
}

// DetectionOutcome is the result of one detection roll for a
// technique-within-stage.
type DetectionOutcome struct {
	StageID   string `json:"stage_id"`
	Technique string `json:"technique"`
	Detected  bool   `json:"detected"`
	// DetectionDelayMinutes is set only when Detected is true
	DetectionDelayMinutes int        `json:"detection_delay_minutes,omitempty"`
	Alert                 *Alert     `json:"alert,omitempty"`
	Reason                MissReason `json:"reason,omitempty"`
}

// MissedActivity records a technique whose synthesized activity produced no
// alert, with a reason code so the investigation guide stays explainable.
type MissedActivity struct {
	StageID   string     `json:"stage_id"`
	StageName string     `json:"stage_name"`
	Technique string     `json:"technique"`
	Reason    MissReason `json:"reason"`
	LogCount  int        `json:"logs"`
}
