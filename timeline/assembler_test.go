package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/core"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func stageAt(name string, start time.Time) *core.Stage {
	return &core.Stage{
		ID:             "stage-" + name,
		Name:           name,
		Tactic:         "TA0001",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		CorrelationKey: "c-" + name,
	}
}

func logAt(technique string, at time.Time) *core.SynthesizedEvent {
	ev := core.NewSynthesizedEvent()
	ev.Timestamp = at
	ev.Technique = technique
	ev.RawData = "raw " + technique
	return ev
}

func alertAt(rule string, at time.Time) *core.Alert {
	al := core.NewAlert()
	al.RuleName = rule
	al.Timestamp = at
	al.Severity = core.SeverityHigh
	return al
}

func TestAssemble_SortedAscendingRegardlessOfInputOrder(t *testing.T) {
	stages := []*core.Stage{
		stageAt("late", t0.Add(3*time.Hour)),
		stageAt("early", t0),
	}
	events := []*core.SynthesizedEvent{
		logAt("T1059", t0.Add(4*time.Hour)),
		logAt("T1566", t0.Add(30*time.Minute)),
	}
	alerts := []*core.Alert{
		alertAt("Late Alert", t0.Add(5*time.Hour)),
		alertAt("Early Alert", t0.Add(45*time.Minute)),
	}

	entries := Assemble(stages, events, alerts)
	require.Len(t, entries, 6)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp),
			"entry %d out of order", i)
	}
}

func TestAssemble_StableOnEqualTimestamps(t *testing.T) {
	// Stage marker, log, and alert share one timestamp; source order
	// (stages, then logs, then alerts) must survive the sort.
	stages := []*core.Stage{stageAt("tie", t0)}
	events := []*core.SynthesizedEvent{logAt("T1059", t0)}
	alerts := []*core.Alert{alertAt("Tie Alert", t0)}

	entries := Assemble(stages, events, alerts)
	require.Len(t, entries, 3)
	assert.Equal(t, core.TimelineStageStart, entries[0].Type)
	assert.Equal(t, core.TimelineLog, entries[1].Type)
	assert.Equal(t, core.TimelineAlert, entries[2].Type)
}

func TestAssemble_CarriesCorrelationIDs(t *testing.T) {
	st := stageAt("access", t0)
	ev := logAt("T1566", t0.Add(time.Minute))
	ev.StageID = st.ID
	ev.CorrelationID = st.CorrelationKey

	entries := Assemble([]*core.Stage{st}, []*core.SynthesizedEvent{ev}, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, st.CorrelationKey, entries[0].CorrelationID)
	assert.Equal(t, st.CorrelationKey, entries[1].CorrelationID)
}

func TestAssemble_EmptyInputsYieldEmptyTimeline(t *testing.T) {
	assert.Empty(t, Assemble(nil, nil, nil))
}
