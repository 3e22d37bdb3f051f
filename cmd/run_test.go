package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/core"
)

func runToFile(t *testing.T, args ...string) *core.CampaignResult {
	t.Helper()
	out := filepath.Join(t.TempDir(), "result.json")
	c := NewRunCmd()
	c.SetArgs(append(args, "-o", out, "--quiet"))
	require.NoError(t, c.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result core.CampaignResult
	require.NoError(t, json.Unmarshal(data, &result))
	return &result
}

func TestRunCmd_ConfigEventCountCapsStages(t *testing.T) {
	t.Setenv("MIRAGE_SIMULATION_EVENT_COUNT", "2")
	result := runToFile(t, "-s", "apt", "--seed", "7", "--logs-per-stage", "5", "--detection-rate", "0")
	require.NotEmpty(t, result.StageLogs)
	for _, sl := range result.StageLogs {
		assert.LessOrEqual(t, len(sl.Events), 2)
	}
}

func TestRunCmd_ExplicitEventsFlagOverridesConfig(t *testing.T) {
	t.Setenv("MIRAGE_SIMULATION_EVENT_COUNT", "2")
	result := runToFile(t, "-s", "apt", "--seed", "7", "--logs-per-stage", "5", "--detection-rate", "0", "--events", "0")
	uncapped := 0
	for _, sl := range result.StageLogs {
		if len(sl.Events) > uncapped {
			uncapped = len(sl.Events)
		}
	}
	assert.Greater(t, uncapped, 2, "an explicit --events 0 means uncapped")
}
