package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mirage/core"
)

// ResultSummary is the cached shape of a completed run
type ResultSummary struct {
	CampaignID string `json:"campaign_id"`
	Scenario   string `json:"scenario"`
	Stages     int    `json:"stages"`
	Events     int    `json:"events"`
	Alerts     int    `json:"alerts"`
	Missed     int    `json:"missed"`
	Clusters   int    `json:"clusters"`
	Partial    bool   `json:"partial"`
}

// ResultCache keeps recent run summaries in Redis keyed by scenario and
// seed, so repeated seeded builds can short-circuit reporting queries.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewResultCache creates a Redis-backed result cache
func NewResultCache(addr, password string, db int, ttl time.Duration, logger *zap.SugaredLogger) *ResultCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// Ping tests the Redis connection
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *ResultCache) Close() error {
	return c.client.Close()
}

func cacheKey(scenario core.ScenarioType, seed int64) string {
	return fmt.Sprintf("mirage:run:%s:%d", scenario, seed)
}

// Put stores a run summary under its scenario/seed key
func (c *ResultCache) Put(ctx context.Context, seed int64, result *core.CampaignResult) error {
	summary := ResultSummary{
		CampaignID: result.Campaign.ID,
		Scenario:   string(result.Campaign.Type),
		Stages:     len(result.StageLogs),
		Events:     len(result.AllEvents()),
		Alerts:     len(result.DetectedAlerts),
		Missed:     len(result.MissedActivities),
		Clusters:   len(result.CorrelationClusters),
		Partial:    result.Partial,
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal result summary: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(result.Campaign.Type, seed), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result summary: %w", err)
	}
	return nil
}

// Get fetches a cached summary, returning found=false on a miss
func (c *ResultCache) Get(ctx context.Context, scenario core.ScenarioType, seed int64) (ResultSummary, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(scenario, seed)).Bytes()
	if err == redis.Nil {
		return ResultSummary{}, false, nil
	}
	if err != nil {
		return ResultSummary{}, false, fmt.Errorf("failed to read result cache: %w", err)
	}
	var summary ResultSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		// A corrupt entry behaves like a miss
		c.logger.Warnw("Dropping corrupt cache entry", "scenario", scenario, "seed", seed, "error", err)
		return ResultSummary{}, false, nil
	}
	return summary, true, nil
}
