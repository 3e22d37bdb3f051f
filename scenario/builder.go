package scenario

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"mirage/core"
)

// BuildRequest describes one campaign instantiation
type BuildRequest struct {
	Type       core.ScenarioType
	Complexity core.Complexity
	// Window, when set, overrides the template's overall duration range
	Window *core.TimeWindow
	// Pattern selects stage time distribution; defaults to uniform
	Pattern core.TimePattern
	// Anchor pins the campaign end when Window is nil; zero means now.
	// Tests pin it for reproducible boundaries.
	Anchor time.Time
}

// Builder instantiates campaigns from catalog templates. It is a pure
// function of its inputs plus the supplied random source.
type Builder struct {
	catalog *Catalog
	logger  *zap.SugaredLogger
}

// NewBuilder creates a campaign builder over the given catalog
func NewBuilder(catalog *Catalog, logger *zap.SugaredLogger) *Builder {
	return &Builder{catalog: catalog, logger: logger}
}

// Build instantiates a campaign and its stages. The only fatal failure is an
// unregistered scenario type.
func (b *Builder) Build(req BuildRequest, rnd core.Rand) (*core.Campaign, []*core.Stage, error) {
	tmpl, err := b.catalog.Get(req.Type)
	if err != nil {
		return nil, nil, err
	}

	window := b.campaignWindow(req, tmpl, rnd)

	actor := core.Choice(rnd, tmpl.ThreatActors)
	campaign := &core.Campaign{
		ID:          core.NewCampaignID(),
		Name:        fmt.Sprintf("%s (%s)", tmpl.Name, actor),
		Type:        tmpl.Type,
		ThreatActor: actor,
		Objectives:  append([]string(nil), tmpl.Objectives...),
		Duration:    window,
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = core.PatternUniform
	}
	if !pattern.IsValid() {
		b.logger.Warnw("Unknown time pattern, falling back to uniform", "pattern", pattern)
		pattern = core.PatternUniform
	}

	stages := make([]*core.Stage, 0, len(tmpl.Stages))
	for i, st := range tmpl.Stages {
		start, end := b.placeStage(pattern, window, i, len(tmpl.Stages), st.Duration, rnd)
		stages = append(stages, &core.Stage{
			ID:             core.NewStageID(),
			Name:           st.Name,
			Tactic:         st.Tactic,
			Techniques:     append([]string(nil), st.Techniques...),
			StartTime:      start,
			EndTime:        end,
			Objectives:     append([]string(nil), st.Objectives...),
			CorrelationKey: fmt.Sprintf("%s-s%02d", campaign.ID, i+1),
		})
	}

	b.logger.Infow("Campaign built",
		"campaign_id", campaign.ID,
		"scenario", campaign.Type,
		"stages", len(stages),
		"pattern", pattern,
		"start", window.Start,
		"end", window.End)

	return campaign, stages, nil
}

// campaignWindow draws the absolute campaign duration from the explicit
// window or the template's overall range.
func (b *Builder) campaignWindow(req BuildRequest, tmpl *Template, rnd core.Rand) core.TimeWindow {
	if req.Window != nil && req.Window.End.After(req.Window.Start) {
		return *req.Window
	}
	anchor := req.Anchor
	if anchor.IsZero() {
		anchor = time.Now().UTC()
	}
	total := core.DurationBetween(rnd, tmpl.Overall.Min, tmpl.Overall.Max)
	return core.TimeWindow{Start: anchor.Add(-total), End: anchor}
}

// placeStage assigns stage i an absolute window inside the campaign per the
// chosen distribution pattern. The stage invariants (start < end,
// start >= campaign start) always hold; stages may overlap.
func (b *Builder) placeStage(pattern core.TimePattern, camp core.TimeWindow, i, n int, dr DurationRange, rnd core.Rand) (time.Time, time.Time) {
	total := camp.Duration()
	dur := core.DurationBetween(rnd, dr.Min, dr.Max)

	var start time.Time
	switch pattern {
	case core.PatternUniform:
		slot := total / time.Duration(n)
		jitter := time.Duration(rnd.Float64() * float64(slot) * 0.1)
		start = camp.Start.Add(slot*time.Duration(i) + jitter)

	case core.PatternRandom:
		start = camp.Start.Add(time.Duration(rnd.Float64() * float64(total)))

	case core.PatternBusinessHours:
		start = b.weightedDayStart(camp, rnd, func(t time.Time) bool {
			wd := t.Weekday()
			return wd != time.Saturday && wd != time.Sunday
		}, 9, 17)

	case core.PatternWeekendHeavy:
		start = b.weightedDayStart(camp, rnd, func(t time.Time) bool {
			wd := t.Weekday()
			return wd == time.Saturday || wd == time.Sunday
		}, 0, 23)

	case core.PatternAttackSimulation:
		// Front-loaded access, slow dwell in the middle, fast exfiltration
		// at the tail.
		frac := float64(i) / float64(n)
		switch {
		case frac < 0.34:
			start = camp.Start.Add(time.Duration(rnd.Float64() * float64(total) * 0.10))
		case frac < 0.80:
			start = camp.Start.Add(time.Duration((0.15 + rnd.Float64()*0.55) * float64(total)))
			dur = core.DurationBetween(rnd, dr.Max/2, dr.Max)
		default:
			start = camp.Start.Add(time.Duration((0.85 + rnd.Float64()*0.10) * float64(total)))
			dur = core.DurationBetween(rnd, dr.Min, dr.Min*2)
		}

	default:
		start = camp.Start
	}

	return clampStage(start, dur, camp)
}

// weightedDayStart picks a day matching the predicate (80% of rolls) and an
// hour in [fromHour, toHour] on it, staying inside the campaign window.
func (b *Builder) weightedDayStart(camp core.TimeWindow, rnd core.Rand, dayOK func(time.Time) bool, fromHour, toHour int) time.Time {
	days := int(camp.Duration().Hours()/24) + 1

	for attempt := 0; attempt < 8; attempt++ {
		day := camp.Start.AddDate(0, 0, rnd.Intn(days))
		if !dayOK(day) && rnd.Float64() < 0.8 {
			continue
		}
		hour := fromHour
		if toHour > fromHour {
			hour += rnd.Intn(toHour - fromHour)
		}
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, rnd.Intn(60), 0, 0, day.Location())
		if camp.Contains(candidate) {
			return candidate
		}
	}
	// Short or awkward windows: fall back to a plain uniform draw
	return camp.Start.Add(time.Duration(rnd.Float64() * float64(camp.Duration())))
}

// clampStage enforces the stage invariants against the campaign window
func clampStage(start time.Time, dur time.Duration, camp core.TimeWindow) (time.Time, time.Time) {
	if start.Before(camp.Start) {
		start = camp.Start
	}
	latest := camp.End.Add(-time.Minute)
	if start.After(latest) {
		start = latest
	}
	end := start.Add(dur)
	if end.After(camp.End) {
		end = camp.End
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}
	return start, end
}
