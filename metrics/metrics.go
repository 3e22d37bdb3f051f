// Package metrics exposes Prometheus instrumentation for the simulation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CampaignsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_campaigns_built_total",
			Help: "Total number of campaign builds completed",
		},
		[]string{"scenario", "complexity"},
	)

	EventsSynthesized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_events_synthesized_total",
			Help: "Total number of synthesized log events",
		},
		[]string{"scenario"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_alerts_generated_total",
			Help: "Total number of detected alerts generated",
		},
		[]string{"severity"},
	)

	MissedActivities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_missed_activities_total",
			Help: "Total number of missed activity records",
		},
		[]string{"reason"},
	)

	ContentFillFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirage_content_fill_failures_total",
			Help: "Total number of content filler failures or timeouts",
		},
	)

	CorrelationClusters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_correlation_clusters_total",
			Help: "Total number of correlation clusters emitted",
		},
		[]string{"rule"},
	)

	CampaignBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mirage_campaign_build_duration_seconds",
			Help:    "Time taken to build one campaign end to end",
			Buckets: prometheus.DefBuckets,
		},
	)

	SinkBatchesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_sink_batches_written_total",
			Help: "Total number of batches handed to persistence sinks",
		},
		[]string{"sink", "stream"},
	)

	SinkWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirage_sink_write_failures_total",
			Help: "Total number of failed sink writes",
		},
		[]string{"sink"},
	)
)
