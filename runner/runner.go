// Package runner sequences the full campaign pipeline: build, topology,
// movement planning, synthesis, detection, correlation, and assembly.
package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/correlate"
	"mirage/detect"
	"mirage/metrics"
	"mirage/scenario"
	"mirage/storage"
	"mirage/synth"
	"mirage/timeline"
	"mirage/topology"
)

// Request describes one campaign build
type Request struct {
	Scenario   core.ScenarioType
	Complexity core.Complexity
	Pattern    core.TimePattern
	// Window pins the campaign interval; nil draws from the template
	Window *core.TimeWindow
	// Anchor pins "now" for reproducible builds; zero means wall clock
	Anchor time.Time
	// Seed selects the random sequence; 0 seeds from the wall clock
	Seed int64
	// DetectionRate in [0,1]; negative selects the default 0.4
	DetectionRate float64
	// LogsPerStage per technique; <=0 selects the default 8
	LogsPerStage int
	// TargetCount bounds how many assets stages are aimed at; <=0 means 3
	TargetCount int
	// EventCount caps synthesized events per stage; <=0 means uncapped
	EventCount int
	// Space tags persisted batches for the caller's namespace
	Space string
}

// Runner is the campaign orchestrator. Each Run owns its own random source
// and shares no mutable state with other runs.
type Runner struct {
	builder *scenario.Builder
	planner *topology.Planner
	filler  synth.ContentFiller
	rules   []correlate.Rule
	sinks   []storage.ResultSink
	logger  *zap.SugaredLogger
	tracer  trace.Tracer
}

// New creates a runner over the given catalog, collaborator, and sinks
func New(catalog *scenario.Catalog, filler synth.ContentFiller, sinks []storage.ResultSink, logger *zap.SugaredLogger) *Runner {
	return &Runner{
		builder: scenario.NewBuilder(catalog, logger),
		planner: topology.NewPlanner(logger),
		filler:  filler,
		rules:   correlate.DefaultRules(),
		sinks:   sinks,
		logger:  logger,
		tracer:  otel.Tracer("mirage/runner"),
	}
}

// Run builds one campaign end to end. Only an unknown scenario type is
// fatal; every other failure shrinks the result. Cancellation is honored at
// stage boundaries and yields a partial result.
func (r *Runner) Run(ctx context.Context, req Request) (*core.CampaignResult, error) {
	started := time.Now()
	ctx, span := r.tracer.Start(ctx, "campaign.run",
		trace.WithAttributes(
			attribute.String("scenario", string(req.Scenario)),
			attribute.String("complexity", string(req.Complexity)),
		))
	defer span.End()

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := core.NewSeededRand(seed)

	campaign, stages, err := r.builder.Build(scenario.BuildRequest{
		Type:       req.Scenario,
		Complexity: req.Complexity,
		Window:     req.Window,
		Pattern:    req.Pattern,
		Anchor:     req.Anchor,
	}, rnd)
	if err != nil {
		return nil, err
	}

	result := &core.CampaignResult{
		Campaign:            campaign,
		Complexity:          req.Complexity,
		Stages:              stages,
		StageLogs:           []core.StageLog{},
		DetectedAlerts:      []*core.Alert{},
		MissedActivities:    []core.MissedActivity{},
		CorrelationClusters: []core.CorrelationCluster{},
		Timeline:            []core.TimelineEntry{},
		InvestigationGuide:  []core.InvestigationStep{},
	}

	result.Topology = topology.NewGenerator(rnd).Generate(req.Complexity)
	result.MovementPaths = r.planner.Plan(result.Topology, movementTechniques(stages))
	targets := pickTargets(result.Topology, req.TargetCount)

	synthesizer := synth.NewSynthesizer(r.filler, req.LogsPerStage, r.logger)
	simulator := detect.NewSimulator(r.filler, req.DetectionRate, r.logger)

	for _, stage := range stages {
		if ctx.Err() != nil {
			r.logger.Warnw("Campaign build cancelled, returning partial result",
				"campaign_id", campaign.ID,
				"completed_stages", len(result.StageLogs),
				"total_stages", len(stages))
			result.Partial = true
			break
		}
		r.runStage(ctx, campaign, stage, targets, synthesizer, simulator, rnd, req.EventCount, result)
	}

	if !result.Partial {
		result.CorrelationClusters = r.correlateAll(ctx, result)
	}

	result.Timeline = timeline.Assemble(result.Stages[:len(result.StageLogs)], result.AllEvents(), result.DetectedAlerts)
	result.InvestigationGuide = timeline.BuildGuide(campaign, result.DetectedAlerts, result.CorrelationClusters)

	r.persist(ctx, req.Space, result)

	metrics.CampaignsBuilt.WithLabelValues(string(req.Scenario), string(req.Complexity)).Inc()
	metrics.CampaignBuildDuration.Observe(time.Since(started).Seconds())

	r.logger.Infow("Campaign run complete",
		"campaign_id", campaign.ID,
		"seed", seed,
		"stages", len(result.StageLogs),
		"events", len(result.AllEvents()),
		"alerts", len(result.DetectedAlerts),
		"missed", len(result.MissedActivities),
		"clusters", len(result.CorrelationClusters),
		"partial", result.Partial,
		"took", time.Since(started))
	return result, nil
}

// runStage synthesizes and detection-rolls one stage, appending to the
// result. Failures inside never escape the stage.
func (r *Runner) runStage(ctx context.Context, campaign *core.Campaign, stage *core.Stage, targets []core.Asset, synthesizer *synth.Synthesizer, simulator *detect.Simulator, rnd core.Rand, eventCap int, result *core.CampaignResult) {
	ctx, span := r.tracer.Start(ctx, "stage.simulate",
		trace.WithAttributes(attribute.String("stage", stage.Name)))
	defer span.End()

	events := synthesizer.SynthesizeStage(ctx, campaign, stage, targets, rnd)
	if eventCap > 0 && len(events) > eventCap {
		events = events[:eventCap]
	}
	result.StageLogs = append(result.StageLogs, core.StageLog{
		StageID:   stage.ID,
		StageName: stage.Name,
		Events:    events,
	})

	for _, outcome := range simulator.SimulateStage(ctx, stage, events, rnd) {
		if outcome.Detected {
			result.DetectedAlerts = append(result.DetectedAlerts, outcome.Alert)
			continue
		}
		logCount := 0
		for _, ev := range events {
			if ev.Technique == outcome.Technique {
				logCount++
			}
		}
		result.MissedActivities = append(result.MissedActivities, core.MissedActivity{
			StageID:   stage.ID,
			StageName: stage.Name,
			Technique: outcome.Technique,
			Reason:    outcome.Reason,
			LogCount:  logCount,
		})
	}
}

// correlateAll runs the correlation engine, absorbing any failure into an
// empty cluster list.
func (r *Runner) correlateAll(ctx context.Context, result *core.CampaignResult) (clusters []core.CorrelationCluster) {
	ctx, span := r.tracer.Start(ctx, "correlate")
	defer span.End()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Correlation step failed, clusters empty", "panic", rec)
			clusters = []core.CorrelationCluster{}
		}
	}()

	clusters = correlate.NewEngine(r.rules, r.logger).Correlate(ctx, result.AllEvents())
	if clusters == nil {
		clusters = []core.CorrelationCluster{}
	}
	return clusters
}

// persist hands the result to every configured sink as two batches: routed
// log events and alert records. Sink failures are logged, never fatal.
func (r *Runner) persist(ctx context.Context, space string, result *core.CampaignResult) {
	if len(r.sinks) == 0 {
		return
	}
	events := result.AllEvents()
	for _, sink := range r.sinks {
		if err := sink.WriteEvents(ctx, space, events); err != nil {
			metrics.SinkWriteFailures.WithLabelValues(sink.Name()).Inc()
			r.logger.Errorw("Event batch write failed", "sink", sink.Name(), "error", err)
		}
		if err := sink.WriteAlerts(ctx, space, result.DetectedAlerts); err != nil {
			metrics.SinkWriteFailures.WithLabelValues(sink.Name()).Inc()
			r.logger.Errorw("Alert batch write failed", "sink", sink.Name(), "error", err)
		}
	}
}

// movementTechniques collects techniques from lateral-movement stages, or
// every stage technique when no movement stage exists.
func movementTechniques(stages []*core.Stage) []string {
	var movement, all []string
	for _, st := range stages {
		all = append(all, st.Techniques...)
		if st.Tactic == "TA0008" {
			movement = append(movement, st.Techniques...)
		}
	}
	if len(movement) > 0 {
		return movement
	}
	return all
}

// pickTargets selects campaign targets: critical assets first, then
// internal peripherals up to count.
func pickTargets(topo *core.NetworkTopology, count int) []core.Asset {
	if count <= 0 {
		count = 3
	}
	targets := append([]core.Asset(nil), topo.CriticalAssets...)
	for _, asset := range topo.AllAssets() {
		if len(targets) >= count {
			break
		}
		if asset.Criticality != "critical" {
			targets = append(targets, asset)
		}
	}
	if len(targets) > count {
		targets = targets[:count]
	}
	return targets
}
