package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/synth"
)

type stubFiller struct {
	alertErr error
}

func (f *stubFiller) FillContent(ctx context.Context, req synth.ContentRequest) (core.FieldSet, error) {
	return core.FieldSet{"stub": true}, nil
}

func (f *stubFiller) FillAlertContent(ctx context.Context, req synth.AlertRequest) (core.FieldSet, error) {
	if f.alertErr != nil {
		return nil, f.alertErr
	}
	return core.FieldSet{"title": "stub alert"}, nil
}

func detectionStage() *core.Stage {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &core.Stage{
		ID:             "stage-detect",
		Name:           "Impact",
		Tactic:         "TA0040",
		Techniques:     []string{"T1486", "T1490"},
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		CorrelationKey: "campaign-x-s06",
	}
}

func eventsFor(stage *core.Stage, technique string, n int) []*core.SynthesizedEvent {
	var events []*core.SynthesizedEvent
	for i := 0; i < n; i++ {
		ev := core.NewSynthesizedEvent()
		ev.Timestamp = stage.StartTime.Add(time.Duration(i) * 5 * time.Minute)
		ev.StageID = stage.ID
		ev.Technique = technique
		ev.SourceAsset = "database-11"
		ev.CorrelationID = stage.CorrelationKey
		ev.Dataset = synth.CategoryProcess
		events = append(events, ev)
	}
	return events
}

func TestSimulateStage_RateOneDetectsEveryTechniqueWithLogs(t *testing.T) {
	stage := detectionStage()
	events := append(eventsFor(stage, "T1486", 3), eventsFor(stage, "T1490", 3)...)
	sim := NewSimulator(&stubFiller{}, 1.0, zap.NewNop().Sugar())

	outcomes := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(1))
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Detected, "technique %s", o.Technique)
		require.NotNil(t, o.Alert)
		assert.Equal(t, stage.ID, o.Alert.StageID)
		assert.Equal(t, stage.CorrelationKey, o.Alert.CorrelationID)
		assert.GreaterOrEqual(t, o.Alert.DetectionDelay, 2)
		assert.LessOrEqual(t, o.Alert.DetectionDelay, 30)
		assert.True(t, o.Alert.Severity.IsValid())
	}
}

func TestSimulateStage_RateZeroNeverDetects(t *testing.T) {
	stage := detectionStage()
	events := append(eventsFor(stage, "T1486", 3), eventsFor(stage, "T1490", 3)...)
	sim := NewSimulator(&stubFiller{}, 0.0, zap.NewNop().Sugar())

	outcomes := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(1))
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.False(t, o.Detected)
		assert.Equal(t, core.MissBelowDetectionThreshold, o.Reason)
	}
}

func TestSimulateStage_NoLogsMissReason(t *testing.T) {
	stage := detectionStage()
	// Only T1486 has events; T1490 has none
	events := eventsFor(stage, "T1486", 2)
	sim := NewSimulator(&stubFiller{}, 1.0, zap.NewNop().Sugar())

	outcomes := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(1))
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Detected)
	assert.False(t, outcomes[1].Detected)
	assert.Equal(t, core.MissNoLogs, outcomes[1].Reason)
}

func TestSimulateStage_AlertGenerationFailureDowngradesToMiss(t *testing.T) {
	stage := detectionStage()
	events := eventsFor(stage, "T1486", 3)
	sim := NewSimulator(&stubFiller{alertErr: errors.New("filler down")}, 1.0, zap.NewNop().Sugar())

	outcomes := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(1))
	require.NotEmpty(t, outcomes)
	assert.False(t, outcomes[0].Detected)
	assert.Equal(t, core.MissAlertGenerationFailed, outcomes[0].Reason)
}

func TestSimulateStage_AlertTimestampAfterLastEvent(t *testing.T) {
	stage := detectionStage()
	events := eventsFor(stage, "T1486", 4)
	last := events[len(events)-1].Timestamp
	sim := NewSimulator(&stubFiller{}, 1.0, zap.NewNop().Sugar())

	outcomes := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(2))
	require.True(t, outcomes[0].Detected)
	delay := outcomes[0].Alert.Timestamp.Sub(last)
	assert.GreaterOrEqual(t, delay, 2*time.Minute)
	assert.LessOrEqual(t, delay, 30*time.Minute)
}

func TestSimulateStage_SameSeedSameOutcomes(t *testing.T) {
	stage := detectionStage()
	events := append(eventsFor(stage, "T1486", 3), eventsFor(stage, "T1490", 3)...)
	sim := NewSimulator(&stubFiller{}, 0.5, zap.NewNop().Sugar())

	a := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(77))
	b := sim.SimulateStage(context.Background(), stage, events, core.NewSeededRand(77))
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Detected, b[i].Detected)
		assert.Equal(t, a[i].Reason, b[i].Reason)
		assert.Equal(t, a[i].DetectionDelayMinutes, b[i].DetectionDelayMinutes)
	}
}

func TestNewSimulator_ClampsAndDefaultsRate(t *testing.T) {
	assert.Equal(t, DefaultDetectionRate, NewSimulator(&stubFiller{}, -1, zap.NewNop().Sugar()).detectionRate)
	assert.Equal(t, 1.0, NewSimulator(&stubFiller{}, 3.5, zap.NewNop().Sugar()).detectionRate)
	assert.Equal(t, 0.25, NewSimulator(&stubFiller{}, 0.25, zap.NewNop().Sugar()).detectionRate)
}

func TestSeverityFor_TableAndDefault(t *testing.T) {
	assert.Equal(t, core.SeverityCritical, SeverityFor("T1003"))
	assert.Equal(t, core.SeverityCritical, SeverityFor("T1486"))
	assert.Equal(t, core.SeverityHigh, SeverityFor("T1566"))
	assert.Equal(t, core.SeverityLow, SeverityFor("T1018"))
	assert.Equal(t, core.SeverityMedium, SeverityFor("T9999"))
}

func TestRuleName_CombinesCategoryAndTechnique(t *testing.T) {
	assert.Equal(t, "Process Activity - Data Encryption", RuleName(synth.CategoryProcess, "T1486"))
	assert.Equal(t, "Authentication Logs - Credential Dumping", RuleName(synth.CategoryAuthentication, "T1003"))
	assert.Equal(t, "Endpoint Telemetry - T9999", RuleName("unknown", "T9999"))
}
