package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"mirage/core"
)

// RunRegistry records campaign builds in SQLite so seeded runs can be found
// and replayed later.
type RunRegistry struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewRunRegistry opens (or creates) the registry database at path
func NewRunRegistry(path string, logger *zap.SugaredLogger) (*RunRegistry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run registry: %w", err)
	}

	// WAL must be set by PRAGMA; connection string params are unreliable
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	// Single writer under WAL
	db.SetMaxOpenConns(1)

	r := &RunRegistry{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *RunRegistry) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS campaign_runs (
			campaign_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			complexity TEXT NOT NULL,
			seed INTEGER NOT NULL,
			stages INTEGER NOT NULL,
			events INTEGER NOT NULL,
			alerts INTEGER NOT NULL,
			missed INTEGER NOT NULL,
			clusters INTEGER NOT NULL,
			partial INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate run registry: %w", err)
	}
	return nil
}

// Record stores one run summary
func (r *RunRegistry) Record(ctx context.Context, rec RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO campaign_runs (
			campaign_id, scenario, complexity, seed, stages, events,
			alerts, missed, clusters, partial, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CampaignID, rec.Scenario, rec.Complexity, rec.Seed,
		rec.Stages, rec.Events, rec.Alerts, rec.Missed, rec.Clusters,
		boolToInt(rec.Partial), rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordResult summarizes and stores a campaign result
func (r *RunRegistry) RecordResult(ctx context.Context, result *core.CampaignResult, seed int64, startedAt time.Time) error {
	return r.Record(ctx, RunRecord{
		CampaignID: result.Campaign.ID,
		Scenario:   string(result.Campaign.Type),
		Complexity: string(result.Complexity),
		Seed:       seed,
		Stages:     len(result.StageLogs),
		Events:     len(result.AllEvents()),
		Alerts:     len(result.DetectedAlerts),
		Missed:     len(result.MissedActivities),
		Clusters:   len(result.CorrelationClusters),
		Partial:    result.Partial,
		StartedAt:  startedAt.Unix(),
		FinishedAt: time.Now().Unix(),
	})
}

// Recent returns the most recent run summaries, newest first
func (r *RunRegistry) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id, scenario, complexity, seed, stages, events,
		       alerts, missed, clusters, partial, started_at, finished_at
		FROM campaign_runs
		ORDER BY finished_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var partial int
		if err := rows.Scan(&rec.CampaignID, &rec.Scenario, &rec.Complexity,
			&rec.Seed, &rec.Stages, &rec.Events, &rec.Alerts, &rec.Missed,
			&rec.Clusters, &partial, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		rec.Partial = partial != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the registry database
func (r *RunRegistry) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
