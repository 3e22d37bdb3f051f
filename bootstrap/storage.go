package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"mirage/config"
	"mirage/storage"
)

// StorageComponents holds every persistence backend the engine can use.
// Only the run registry is mandatory; the rest degrade to nil when
// disabled or unreachable.
type StorageComponents struct {
	Sinks    []storage.ResultSink
	Registry *storage.RunRegistry
	Cache    *storage.ResultCache
	Archiver *storage.Archiver
}

// InitStorage wires up all configured backends. A ClickHouse or Redis
// failure degrades that backend with a warning instead of aborting; only
// the SQLite run registry is fatal when it cannot open.
func InitStorage(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*StorageComponents, error) {
	comps := &StorageComponents{}

	registry, err := InitRunRegistry(cfg, sugar)
	if err != nil {
		return nil, err
	}
	comps.Registry = registry

	if cfg.ClickHouse.Enabled {
		sink, err := InitClickHouse(ctx, cfg, sugar)
		if err != nil {
			sugar.Warnw("ClickHouse unavailable, event persistence disabled", "error", err)
		} else {
			comps.Sinks = append(comps.Sinks, sink)
		}
	}

	if cfg.Redis.Enabled {
		cache := storage.NewResultCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, sugar)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := cache.Ping(pingCtx)
		cancel()
		if err != nil {
			sugar.Warnw("Redis unavailable, result cache disabled", "addr", cfg.Redis.Addr, "error", err)
			_ = cache.Close()
		} else {
			comps.Cache = cache
			sugar.Info("Connected to Redis result cache")
		}
	}

	if cfg.Archive.Enabled {
		archiver, err := storage.NewArchiver(cfg.Archive.Region, cfg.Archive.Bucket, cfg.Archive.Prefix, sugar)
		if err != nil {
			sugar.Warnw("S3 archiver unavailable, archiving disabled", "error", err)
		} else {
			comps.Archiver = archiver
			sugar.Infow("S3 archiver ready", "bucket", cfg.Archive.Bucket)
		}
	}

	return comps, nil
}

// InitClickHouse connects with retry and ensures tables exist.
func InitClickHouse(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*storage.ClickHouseSink, error) {
	const maxRetries = 3
	retryDelays := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

	opts := storage.ClickHouseOptions{
		Addr:        cfg.ClickHouse.Addr,
		Database:    cfg.ClickHouse.Database,
		Username:    cfg.ClickHouse.Username,
		Password:    cfg.ClickHouse.Password,
		MaxPoolSize: cfg.ClickHouse.MaxPoolSize,
	}

	var sink *storage.ClickHouseSink
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			sugar.Infow("Retrying ClickHouse connection",
				"attempt", attempt,
				"max_retries", maxRetries,
				"delay", retryDelays[attempt-1])
			time.Sleep(retryDelays[attempt-1])
		}
		sink, lastErr = storage.NewClickHouseSink(ctx, opts, sugar)
		if lastErr == nil {
			break
		}
		sugar.Warnw("ClickHouse connection attempt failed",
			"attempt", attempt+1,
			"error", lastErr)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse after %d attempts: %w", maxRetries+1, lastErr)
	}

	sugar.Info("Connected to ClickHouse successfully")
	return sink, nil
}

// InitRunRegistry opens the SQLite run registry, creating its directory
// first.
func InitRunRegistry(cfg *config.Config, sugar *zap.SugaredLogger) (*storage.RunRegistry, error) {
	dir := filepath.Dir(cfg.SQLite.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	registry, err := storage.NewRunRegistry(cfg.SQLite.Path, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to open run registry: %w", err)
	}
	sugar.Infow("Run registry ready", "path", cfg.SQLite.Path)
	return registry, nil
}

// Close releases every open backend.
func (s *StorageComponents) Close() {
	for _, sink := range s.Sinks {
		if closer, ok := sink.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	if s.Cache != nil {
		_ = s.Cache.Close()
	}
	if s.Registry != nil {
		_ = s.Registry.Close()
	}
}
