// Package detect simulates which synthesized events a monitoring stack
// would plausibly have detected.
package detect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mirage/core"
	"mirage/metrics"
	"mirage/synth"
)

// DefaultDetectionRate is the probability a technique's activity is detected
const DefaultDetectionRate = 0.4

// Detection delay bounds in minutes
const (
	minDetectionDelay = 2
	maxDetectionDelay = 30
)

// Simulator rolls a detection outcome per technique-within-stage. Rolls are
// independent; there is no cross-stage memory.
type Simulator struct {
	filler        synth.ContentFiller
	detectionRate float64
	logger        *zap.SugaredLogger
}

// NewSimulator creates a detection simulator. Rates outside [0,1] are
// clamped; a negative rate selects the default.
func NewSimulator(filler synth.ContentFiller, detectionRate float64, logger *zap.SugaredLogger) *Simulator {
	if detectionRate < 0 {
		detectionRate = DefaultDetectionRate
	}
	return &Simulator{
		filler:        filler,
		detectionRate: core.Clamp01(detectionRate),
		logger:        logger,
	}
}

// SimulateStage rolls one outcome per stage technique over the stage's
// synthesized events. Collaborator failures downgrade a detection to a
// MissedActivity; nothing here is fatal.
func (s *Simulator) SimulateStage(ctx context.Context, stage *core.Stage, events []*core.SynthesizedEvent, rnd core.Rand) []core.DetectionOutcome {
	byTechnique := make(map[string][]*core.SynthesizedEvent)
	for _, ev := range events {
		byTechnique[ev.Technique] = append(byTechnique[ev.Technique], ev)
	}

	outcomes := make([]core.DetectionOutcome, 0, len(stage.Techniques))
	for _, technique := range stage.Techniques {
		outcomes = append(outcomes, s.roll(ctx, stage, technique, byTechnique[technique], rnd))
	}
	return outcomes
}

// roll runs the Pending → Detected | Missed state machine for one
// technique-within-stage.
func (s *Simulator) roll(ctx context.Context, stage *core.Stage, technique string, events []*core.SynthesizedEvent, rnd core.Rand) core.DetectionOutcome {
	outcome := core.DetectionOutcome{StageID: stage.ID, Technique: technique}

	if len(events) == 0 {
		outcome.Reason = core.MissNoLogs
		metrics.MissedActivities.WithLabelValues(string(core.MissNoLogs)).Inc()
		return outcome
	}

	// The roll still consumes a random draw at rate 0 or 1 so replays stay
	// aligned across rate changes.
	draw := rnd.Float64()
	if s.detectionRate == 0 || draw >= s.detectionRate {
		outcome.Reason = core.MissBelowDetectionThreshold
		metrics.MissedActivities.WithLabelValues(string(core.MissBelowDetectionThreshold)).Inc()
		return outcome
	}

	delay := minDetectionDelay + rnd.Intn(maxDetectionDelay-minDetectionDelay+1)

	fields, err := s.filler.FillAlertContent(ctx, synth.AlertRequest{
		Stage:     stage,
		Technique: technique,
		Events:    events,
	})
	if err != nil {
		s.logger.Warnw("Alert generation failed, downgrading to missed activity",
			"technique", technique,
			"stage", stage.Name,
			"error", &core.AlertGenerationError{StageID: stage.ID, Technique: technique, Err: err})
		outcome.Reason = core.MissAlertGenerationFailed
		metrics.MissedActivities.WithLabelValues(string(core.MissAlertGenerationFailed)).Inc()
		return outcome
	}

	last := events[len(events)-1]
	alert := core.NewAlert()
	alert.RuleName = RuleName(last.Dataset, technique)
	alert.Severity = SeverityFor(technique)
	alert.Timestamp = last.Timestamp.Add(minuteDuration(delay))
	alert.DetectionDelay = delay
	alert.Technique = technique
	alert.StageID = stage.ID
	alert.SourceAsset = last.SourceAsset
	alert.CorrelationID = last.CorrelationID
	alert.Fields = fields

	outcome.Detected = true
	outcome.DetectionDelayMinutes = delay
	outcome.Alert = alert
	metrics.AlertsGenerated.WithLabelValues(string(alert.Severity)).Inc()
	return outcome
}

// RuleName combines the event's log-category label with the technique's
// short name.
func RuleName(category, technique string) string {
	return fmt.Sprintf("%s - %s", categoryLabel(category), techniqueShortName(technique))
}

func categoryLabel(category string) string {
	switch category {
	case synth.CategoryAuthentication:
		return "Authentication Logs"
	case synth.CategoryProcess:
		return "Process Activity"
	case synth.CategoryNetwork:
		return "Network Traffic"
	case synth.CategoryFile:
		return "File Access"
	case synth.CategoryEmail:
		return "Email Gateway"
	case synth.CategoryWeb:
		return "Web Server Logs"
	default:
		return "Endpoint Telemetry"
	}
}
