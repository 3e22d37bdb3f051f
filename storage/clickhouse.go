package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/metrics"
)

// ClickHouseOptions configures the analytic sink connection
type ClickHouseOptions struct {
	Addr        string
	Database    string
	Username    string
	Password    string
	MaxPoolSize int
}

// ClickHouseSink writes campaign output into ClickHouse. Log events are
// routed per dataset into a per-category stream; alerts land on one alert
// stream.
type ClickHouseSink struct {
	conn   driver.Conn
	logger *zap.SugaredLogger
}

// NewClickHouseSink opens a ClickHouse connection and ensures tables exist
func NewClickHouseSink(ctx context.Context, opts ClickHouseOptions, logger *zap.SugaredLogger) (*ClickHouseSink, error) {
	poolSize := opts.MaxPoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 10 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns: poolSize,
		MaxIdleConns: poolSize / 2,
		DialContext: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			d.Timeout = 10 * time.Second
			d.KeepAlive = 30 * time.Second
			return d.DialContext(ctx, "tcp", addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	sink := &ClickHouseSink{conn: conn, logger: logger}
	if err := sink.ensureTables(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

// Name implements ResultSink
func (s *ClickHouseSink) Name() string { return "clickhouse" }

// Close releases the connection
func (s *ClickHouseSink) Close() error { return s.conn.Close() }

func (s *ClickHouseSink) ensureTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS campaign_events (
			event_id String,
			timestamp DateTime64(3),
			space String,
			stream String,
			stage_id String,
			technique String,
			source_asset String,
			correlation_id String,
			dataset String,
			fields String,
			raw_data String
		) ENGINE = MergeTree()
		ORDER BY (space, stream, timestamp)`,
		`CREATE TABLE IF NOT EXISTS campaign_alerts (
			alert_id String,
			timestamp DateTime64(3),
			space String,
			stream String,
			rule_name String,
			severity String,
			technique String,
			stage_id String,
			source_asset String,
			correlation_id String,
			detection_delay_minutes Int32,
			fields String
		) ENGINE = MergeTree()
		ORDER BY (space, timestamp)`,
	}
	for _, stmt := range statements {
		if err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create sink table: %w", err)
		}
	}
	return nil
}

// WriteEvents inserts one batch of log events, each routed into the logical
// stream for its dataset/category.
func (s *ClickHouseSink) WriteEvents(ctx context.Context, space string, events []*core.SynthesizedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO campaign_events (
			event_id, timestamp, space, stream, stage_id, technique,
			source_asset, correlation_id, dataset, fields, raw_data
		)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event batch: %w", err)
	}

	for _, ev := range events {
		if err := batch.Append(
			ev.EventID,
			ev.Timestamp,
			space,
			"logs-"+ev.Dataset,
			ev.StageID,
			ev.Technique,
			ev.SourceAsset,
			ev.CorrelationID,
			ev.Dataset,
			marshalFields(ev.Fields),
			ev.RawData,
		); err != nil {
			return fmt.Errorf("failed to append event %s: %w", ev.EventID, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send event batch: %w", err)
	}
	metrics.SinkBatchesWritten.WithLabelValues(s.Name(), "events").Inc()
	s.logger.Debugw("Event batch written", "count", len(events), "space", space)
	return nil
}

// WriteAlerts inserts one batch of alert records on the alert stream
func (s *ClickHouseSink) WriteAlerts(ctx context.Context, space string, alerts []*core.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO campaign_alerts (
			alert_id, timestamp, space, stream, rule_name, severity,
			technique, stage_id, source_asset, correlation_id,
			detection_delay_minutes, fields
		)`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert batch: %w", err)
	}

	for _, al := range alerts {
		if err := batch.Append(
			al.AlertID,
			al.Timestamp,
			space,
			"alerts",
			al.RuleName,
			string(al.Severity),
			al.Technique,
			al.StageID,
			al.SourceAsset,
			al.CorrelationID,
			int32(al.DetectionDelay),
			marshalFields(al.Fields),
		); err != nil {
			return fmt.Errorf("failed to append alert %s: %w", al.AlertID, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send alert batch: %w", err)
	}
	metrics.SinkBatchesWritten.WithLabelValues(s.Name(), "alerts").Inc()
	s.logger.Debugw("Alert batch written", "count", len(alerts), "space", space)
	return nil
}

func marshalFields(fields core.FieldSet) string {
	if len(fields) == 0 {
		return ""
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(data)
}
