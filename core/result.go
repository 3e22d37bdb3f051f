package core

import "time"

// CorrelationCluster groups events a correlation rule matched as plausibly
// belonging to one incident.
type CorrelationCluster struct {
	RuleID          string   `json:"rule_id"`
	RuleName        string   `json:"rule_name"`
	MatchedEventIDs []string `json:"matched_event_ids"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// TimelineEntryType distinguishes timeline entry kinds
type TimelineEntryType string

const (
	TimelineStageStart TimelineEntryType = "stage_start"
	TimelineLog        TimelineEntryType = "log"
	TimelineAlert      TimelineEntryType = "alert"
)

// TimelineEntry is one row of the assembled campaign timeline
type TimelineEntry struct {
	Timestamp     time.Time         `json:"timestamp"`
	Type          TimelineEntryType `json:"type"`
	Name          string            `json:"name"`
	StageID       string            `json:"stage_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Detail        string            `json:"detail,omitempty"`
}

// InvestigationStep is one suggested analyst action with a ready-made query
type InvestigationStep struct {
	Step      int    `json:"step"`
	Action    string `json:"action"`
	Query     string `json:"query"`
	Rationale string `json:"rationale"`
}

// StageLog holds the synthesized events for one stage
type StageLog struct {
	StageID   string              `json:"stage_id"`
	StageName string              `json:"stage_name"`
	Events    []*SynthesizedEvent `json:"events"`
}

// CampaignResult is the aggregate produced by one campaign build. The
// orchestrator always returns a complete, typed result: recoverable failures
// shrink collections, they never null them out.
type CampaignResult struct {
	Campaign            *Campaign             `json:"campaign"`
	Complexity          Complexity            `json:"complexity"`
	Stages              []*Stage              `json:"stages"`
	Topology            *NetworkTopology      `json:"topology"`
	MovementPaths       []LateralMovementPath `json:"movement_paths"`
	StageLogs           []StageLog            `json:"stage_logs"`
	DetectedAlerts      []*Alert              `json:"detected_alerts"`
	MissedActivities    []MissedActivity      `json:"missed_activities"`
	CorrelationClusters []CorrelationCluster  `json:"correlation_clusters"`
	Timeline            []TimelineEntry       `json:"timeline"`
	InvestigationGuide  []InvestigationStep   `json:"investigation_guide"`
	// Partial is set when cancellation abandoned remaining stages
	Partial bool `json:"partial,omitempty"`
}

// AllEvents flattens the per-stage logs into one slice
func (r *CampaignResult) AllEvents() []*SynthesizedEvent {
	var events []*SynthesizedEvent
	for _, sl := range r.StageLogs {
		events = append(events, sl.Events...)
	}
	return events
}
