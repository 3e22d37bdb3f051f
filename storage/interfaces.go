// Package storage persists campaign results into external backends. The
// engine treats every sink as a best-effort batch collaborator.
package storage

import (
	"context"

	"mirage/core"
)

// ResultSink receives a campaign's output as two batches: log events routed
// per dataset/category and alert records on one alert stream. Every batch
// carries the caller's space tag.
type ResultSink interface {
	Name() string
	WriteEvents(ctx context.Context, space string, events []*core.SynthesizedEvent) error
	WriteAlerts(ctx context.Context, space string, alerts []*core.Alert) error
}

// RunRecord summarizes one campaign build for the run registry
type RunRecord struct {
	CampaignID string
	Scenario   string
	Complexity string
	Seed       int64
	Stages     int
	Events     int
	Alerts     int
	Missed     int
	Clusters   int
	Partial    bool
	StartedAt  int64
	FinishedAt int64
}
