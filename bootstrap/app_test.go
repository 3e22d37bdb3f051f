package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage/config"
	"mirage/core"
	"mirage/synth"
)

func TestBuildFiller_AppliesDeadline(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Filler.Timeout = 50 * time.Millisecond

	filler := BuildFiller(cfg)
	require.NotNil(t, filler)

	// The built-in template filler responds immediately, so a generous
	// deadline never trips.
	fields, err := filler.FillContent(context.Background(), synth.ContentRequest{
		Technique:   "T1059",
		TargetAsset: core.Asset{Hostname: "workstation-10"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, fields)
}

func TestInitRunRegistry_CreatesDataDirectory(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "dir", "runs.db")

	registry, err := InitRunRegistry(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	records, err := registry.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInitTracing_RegistersProvider(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
