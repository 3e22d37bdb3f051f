package correlate

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"mirage/core"
	"mirage/metrics"
)

// Engine evaluates the rule registry over an immutable, already-materialized
// event list. Rules run in parallel; events are never mutated.
type Engine struct {
	rules  []Rule
	logger *zap.SugaredLogger
}

// NewEngine creates a correlation engine over the given rules
func NewEngine(rules []Rule, logger *zap.SugaredLogger) *Engine {
	return &Engine{rules: rules, logger: logger}
}

// Correlate matches all events against every rule. A rule matching nothing
// emits no cluster; a rule failing outright loses only its own clusters.
// Output is ordered by rule ID so identical inputs produce identical output.
func (e *Engine) Correlate(ctx context.Context, events []*core.SynthesizedEvent) []core.CorrelationCluster {
	if len(events) == 0 || len(e.rules) == 0 {
		return nil
	}

	pool := core.NewWorkerPool(ctx, 4, len(e.rules), e.logger)
	pool.Start()
	defer pool.Stop()

	var mu sync.Mutex
	var clusters []core.CorrelationCluster
	var wg sync.WaitGroup

	for _, rule := range e.rules {
		rule := rule
		wg.Add(1)
		task := func() {
			defer wg.Done()
			found := e.evaluateRule(rule, events)
			if len(found) == 0 {
				return
			}
			mu.Lock()
			clusters = append(clusters, found...)
			mu.Unlock()
		}
		if err := pool.Submit(task); err != nil {
			// Queue full or pool stopped: evaluate inline rather than drop
			task()
		}
	}
	wg.Wait()

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].RuleID < clusters[j].RuleID
	})
	for _, c := range clusters {
		metrics.CorrelationClusters.WithLabelValues(c.RuleID).Inc()
	}
	return clusters
}

// evaluateRule finds maximal event subsets matching one rule. Panics are
// converted to an empty result for that rule only.
func (e *Engine) evaluateRule(rule Rule, events []*core.SynthesizedEvent) (clusters []core.CorrelationCluster) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorw("Correlation rule evaluation failed, emitting no clusters",
				"rule", rule.ID, "panic", r)
			clusters = nil
		}
	}()

	matched := e.filterEvents(rule, events)
	if len(matched) < rule.MinimumEvents {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	// Slide a window over the sorted matches; each maximal in-window run
	// meeting the minimum becomes one cluster. A second run must start past
	// the end of the previous cluster so clusters never share events.
	start := 0
	for start < len(matched) {
		end := start
		for end+1 < len(matched) &&
			matched[end+1].Timestamp.Sub(matched[start].Timestamp) <= rule.TimeWindow {
			end++
		}
		size := end - start + 1
		if size >= rule.MinimumEvents {
			subset := matched[start : end+1]
			clusters = append(clusters, core.CorrelationCluster{
				RuleID:          rule.ID,
				RuleName:        rule.Name,
				MatchedEventIDs: eventIDs(subset),
				ConfidenceScore: e.score(rule, subset),
			})
			start = end + 1
		} else {
			start++
		}
	}
	return clusters
}

// filterEvents keeps events whose technique is in the rule set and whose
// command line satisfies the rule's field pattern, if any.
func (e *Engine) filterEvents(rule Rule, events []*core.SynthesizedEvent) []*core.SynthesizedEvent {
	techniques := make(map[string]bool, len(rule.Techniques))
	for _, t := range rule.Techniques {
		techniques[t] = true
	}

	var matched []*core.SynthesizedEvent
	for _, ev := range events {
		if !techniques[ev.Technique] {
			continue
		}
		if rule.FieldPattern != nil {
			cmdline := ev.StringField("command_line")
			if cmdline != "" {
				ok, err := rule.FieldPattern.MatchString(cmdline)
				if err != nil || !ok {
					continue
				}
			}
		}
		matched = append(matched, ev)
	}
	return matched
}

// score computes the weighted confidence for one cluster: temporal proximity,
// asset overlap, and technique-set coverage, clipped to [0,1].
func (e *Engine) score(rule Rule, subset []*core.SynthesizedEvent) float64 {
	spread := subset[len(subset)-1].Timestamp.Sub(subset[0].Timestamp)
	temporal := 1.0
	if rule.TimeWindow > 0 {
		temporal = 1 - float64(spread)/float64(rule.TimeWindow)
	}

	assetCounts := make(map[string]int)
	techniquesSeen := make(map[string]bool)
	for _, ev := range subset {
		assetCounts[ev.SourceAsset]++
		techniquesSeen[ev.Technique] = true
	}
	maxAsset := 0
	for _, n := range assetCounts {
		if n > maxAsset {
			maxAsset = n
		}
	}
	assetOverlap := float64(maxAsset) / float64(len(subset))
	techniqueMatch := float64(len(techniquesSeen)) / float64(len(rule.Techniques))

	score := rule.Weights.Temporal*core.Clamp01(temporal) +
		rule.Weights.Asset*core.Clamp01(assetOverlap) +
		rule.Weights.Technique*core.Clamp01(techniqueMatch)
	return core.Clamp01(score)
}

func eventIDs(events []*core.SynthesizedEvent) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.EventID
	}
	return ids
}
