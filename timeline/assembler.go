// Package timeline merges campaign activity into one ordered view and
// derives the analyst investigation guide from it.
package timeline

import (
	"fmt"
	"sort"

	"mirage/core"
)

// Assemble merges stage-start markers, synthesized log events, and generated
// alerts into one timeline sorted ascending by timestamp, stable on ties.
func Assemble(stages []*core.Stage, events []*core.SynthesizedEvent, alerts []*core.Alert) []core.TimelineEntry {
	entries := make([]core.TimelineEntry, 0, len(stages)+len(events)+len(alerts))

	for _, st := range stages {
		entries = append(entries, core.TimelineEntry{
			Timestamp:     st.StartTime,
			Type:          core.TimelineStageStart,
			Name:          st.Name,
			StageID:       st.ID,
			CorrelationID: st.CorrelationKey,
			Detail:        fmt.Sprintf("stage begins (%s)", st.Tactic),
		})
	}
	for _, ev := range events {
		entries = append(entries, core.TimelineEntry{
			Timestamp:     ev.Timestamp,
			Type:          core.TimelineLog,
			Name:          ev.Technique,
			StageID:       ev.StageID,
			CorrelationID: ev.CorrelationID,
			Detail:        ev.RawData,
		})
	}
	for _, al := range alerts {
		entries = append(entries, core.TimelineEntry{
			Timestamp:     al.Timestamp,
			Type:          core.TimelineAlert,
			Name:          al.RuleName,
			StageID:       al.StageID,
			CorrelationID: al.CorrelationID,
			Detail:        fmt.Sprintf("severity %s, detected after %dm", al.Severity, al.DetectionDelay),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}
