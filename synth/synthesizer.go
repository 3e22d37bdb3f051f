package synth

import (
	"context"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/metrics"
)

// DefaultLogsPerStage is the number of events synthesized per technique
const DefaultLogsPerStage = 8

// Synthesizer expands stages into candidate log events. Collaborator
// failures cost the affected technique its events and nothing more.
type Synthesizer struct {
	filler       ContentFiller
	logsPerStage int
	logger       *zap.SugaredLogger
	narratives   *lru.Cache[string, string]
}

// NewSynthesizer creates a synthesizer. logsPerStage <= 0 selects the
// default of 8.
func NewSynthesizer(filler ContentFiller, logsPerStage int, logger *zap.SugaredLogger) *Synthesizer {
	if logsPerStage <= 0 {
		logsPerStage = DefaultLogsPerStage
	}
	// Narratives are deterministic per technique/stage pair, so caching
	// them is safe across stages and campaigns.
	cache, _ := lru.New[string, string](256)
	return &Synthesizer{
		filler:       filler,
		logsPerStage: logsPerStage,
		logger:       logger,
		narratives:   cache,
	}
}

// SynthesizeStage produces the candidate events for one stage. Never fails;
// a collaborator error yields zero events for that technique.
func (s *Synthesizer) SynthesizeStage(ctx context.Context, campaign *core.Campaign, stage *core.Stage, targets []core.Asset, rnd core.Rand) []*core.SynthesizedEvent {
	if len(targets) == 0 {
		s.logger.Warnw("No target assets for stage, skipping synthesis",
			"stage", stage.Name, "stage_id", stage.ID)
		return nil
	}

	var events []*core.SynthesizedEvent
	for _, technique := range stage.Techniques {
		target := targets[rnd.Intn(len(targets))]

		fields, err := s.filler.FillContent(ctx, ContentRequest{
			Technique:   technique,
			Tactic:      stage.Tactic,
			StageName:   stage.Name,
			Narrative:   s.narrative(technique, stage),
			TargetAsset: target,
		})
		if err != nil {
			metrics.ContentFillFailures.Inc()
			s.logger.Warnw("Content fill failed, technique yields no events",
				"technique", technique,
				"stage", stage.Name,
				"error", &core.ContentFillError{Technique: technique, Err: err})
			continue
		}
		if len(fields) == 0 {
			metrics.ContentFillFailures.Inc()
			s.logger.Warnw("Content fill returned no fields, technique yields no events",
				"technique", technique, "stage", stage.Name)
			continue
		}

		events = append(events, s.expand(stage, technique, target, fields, rnd)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	metrics.EventsSynthesized.WithLabelValues(string(campaign.Type)).Add(float64(len(events)))
	return events
}

// expand wraps one filled content set into logsPerStage events spread
// across the stage window, all tagged with the stage's correlation key.
func (s *Synthesizer) expand(stage *core.Stage, technique string, target core.Asset, fields core.FieldSet, rnd core.Rand) []*core.SynthesizedEvent {
	category := TechniqueCategory(technique)
	window := stage.Window()

	out := make([]*core.SynthesizedEvent, 0, s.logsPerStage)
	for i := 0; i < s.logsPerStage; i++ {
		ev := core.NewSynthesizedEvent()
		ev.Timestamp = window.Start.Add(time.Duration(rnd.Float64() * float64(window.Duration())))
		ev.StageID = stage.ID
		ev.Technique = technique
		ev.SourceAsset = target.Hostname
		ev.CorrelationID = stage.CorrelationKey
		ev.Dataset = category

		ev.Fields = fields.Clone()
		ev.Fields[core.FieldTimestamp] = ev.Timestamp
		ev.Fields[core.FieldCorrelationID] = stage.CorrelationKey
		ev.Fields["sequence"] = i
		if err := ev.Fields.ValidateReserved(); err != nil {
			s.logger.Warnw("Collaborator returned invalid reserved field, event dropped",
				"technique", technique, "error", err)
			continue
		}

		ev.RawData = fmt.Sprintf("[%s] %s technique %s on %s", category, stage.Name, technique, target.Hostname)
		out = append(out, ev)
	}
	return out
}

// narrative builds (and caches) the short stage narrative handed to the
// collaborator.
func (s *Synthesizer) narrative(technique string, stage *core.Stage) string {
	key := technique + "|" + stage.Name
	if n, ok := s.narratives.Get(key); ok {
		return n
	}
	n := fmt.Sprintf("%s phase (%s): adversary applies %s toward %s",
		stage.Name, stage.Tactic, technique, firstOr(stage.Objectives, "campaign objectives"))
	s.narratives.Add(key, n)
	return n
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}
