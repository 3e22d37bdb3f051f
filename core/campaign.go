package core

import (
	"time"

	"github.com/google/uuid"
)

// TimeWindow is an absolute [Start, End) interval
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Campaign is a concrete multi-stage attack campaign instantiated from a
// scenario template. Immutable once built.
type Campaign struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        ScenarioType `json:"type"`
	ThreatActor string       `json:"threat_actor"`
	Objectives  []string     `json:"objectives"`
	Duration    TimeWindow   `json:"duration"`
}

// Stage is one phase of a campaign bound to a tactic and its techniques.
// CorrelationKey is shared by every event and alert derived from the stage.
//
// Invariants: StartTime < EndTime and StartTime >= the owning campaign's
// Duration.Start. Stages of the same campaign may overlap in time.
type Stage struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Tactic         string    `json:"tactic"`
	Techniques     []string  `json:"techniques"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Objectives     []string  `json:"objectives"`
	CorrelationKey string    `json:"correlation_key"`
}

// Window returns the stage's time window
func (s *Stage) Window() TimeWindow {
	return TimeWindow{Start: s.StartTime, End: s.EndTime}
}

// NewStageID generates a unique stage identifier
func NewStageID() string {
	return "stage-" + uuid.New().String()
}

// NewCampaignID generates a unique campaign identifier
func NewCampaignID() string {
	return "campaign-" + uuid.New().String()
}
