package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.Simulation.DetectionRate)
	assert.Equal(t, 8, cfg.Simulation.LogsPerStage)
	assert.Equal(t, 3, cfg.Simulation.TargetCount)
	assert.Equal(t, "medium", cfg.Simulation.Complexity)
	assert.Equal(t, 5*time.Second, cfg.Filler.Timeout)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 8085, cfg.API.Port)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MIRAGE_SIMULATION_DETECTION_RATE", "0.75")
	t.Setenv("MIRAGE_SIMULATION_LOGS_PER_STAGE", "12")
	t.Setenv("MIRAGE_SIMULATION_COMPLEXITY", "expert")
	t.Setenv("MIRAGE_REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Simulation.DetectionRate)
	assert.Equal(t, 12, cfg.Simulation.LogsPerStage)
	assert.Equal(t, "expert", cfg.Simulation.Complexity)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
}

func TestLoadConfig_RejectsOutOfRangeDetectionRate(t *testing.T) {
	t.Setenv("MIRAGE_SIMULATION_DETECTION_RATE", "1.7")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_RejectsBadComplexity(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Simulation.Complexity = "nightmare"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complexity")
}

func TestValidate_RequiresPositiveFillerTimeout(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Filler.Timeout = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_ArchiveNeedsBucketWhenEnabled(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Archive.Enabled = true
	cfg.Archive.Bucket = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")

	cfg.Archive.Bucket = "campaign-archive"
	assert.NoError(t, cfg.Validate())
}
