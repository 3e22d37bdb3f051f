package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage/core"
)

func testTopo(t *testing.T) *core.NetworkTopology {
	t.Helper()
	return NewGenerator(core.NewSeededRand(1)).Generate(core.ComplexityMedium)
}

func TestPlan_EmptyTechniquesYieldsNoPaths(t *testing.T) {
	planner := NewPlanner(zap.NewNop().Sugar())
	assert.Empty(t, planner.Plan(testTopo(t), nil))
}

func TestPlan_NonEmptyTechniquesAlwaysYieldsAPath(t *testing.T) {
	planner := NewPlanner(zap.NewNop().Sugar())

	// Even a technique with no applicability class falls back to one path
	paths := planner.Plan(testTopo(t), []string{"T9999"})
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"T9999"}, paths[0].Techniques)
	assert.Greater(t, paths[0].SuccessProbability, 0.0)
}

func TestPlan_CredentialTechniquesApplyToEveryEdge(t *testing.T) {
	topo := testTopo(t)
	planner := NewPlanner(zap.NewNop().Sugar())

	paths := planner.Plan(topo, []string{"T1021", "T1078"})
	assert.Len(t, paths, len(topo.TrustRelationships))
	for _, p := range paths {
		assert.NotEmpty(t, p.SourceAsset)
		assert.NotEmpty(t, p.TargetAsset)
		assert.NotEqual(t, p.SourceAsset, p.TargetAsset)
	}
}

func TestPlan_ExploitationTechniquesNeedABoundary(t *testing.T) {
	topo := testTopo(t)
	planner := NewPlanner(zap.NewNop().Sugar())

	paths := planner.Plan(topo, []string{"T1210"})
	boundaries := 0
	for _, e := range topo.TrustRelationships {
		if e.CrossesBoundary {
			boundaries++
		}
	}
	assert.Len(t, paths, boundaries)
}

func TestPlan_ProbabilitiesBoundedAndSortedDescending(t *testing.T) {
	planner := NewPlanner(zap.NewNop().Sugar())
	paths := planner.Plan(testTopo(t), []string{"T1003", "T1210", "T1021"})
	require.NotEmpty(t, paths)

	for i, p := range paths {
		assert.GreaterOrEqual(t, p.SuccessProbability, 0.0)
		assert.LessOrEqual(t, p.SuccessProbability, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, p.SuccessProbability, paths[i-1].SuccessProbability,
				"paths must be ranked by success probability")
		}
	}
}

func TestPlan_StrongControlsReduceSuccess(t *testing.T) {
	topo := testTopo(t)
	planner := NewPlanner(zap.NewNop().Sugar())

	base := planner.Plan(topo, []string{"T1021"})
	require.NotEmpty(t, base)

	hardened := *topo
	hardened.SecurityControls = append([]core.SecurityControl{}, topo.SecurityControls...)
	hardened.SecurityControls = append(hardened.SecurityControls,
		core.SecurityControl{Name: "everything-edr", Type: "edr", Coverage: "internal", Strength: 0.95},
		core.SecurityControl{Name: "everything-pam", Type: "mfa", Coverage: "critical", Strength: 0.95},
	)
	reduced := planner.Plan(&hardened, []string{"T1021"})
	require.Equal(t, len(base), len(reduced))

	assert.Less(t, reduced[0].SuccessProbability, base[0].SuccessProbability,
		"stronger controls must reduce the best path's success probability")
}
