package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/core"
)

func TestGenerate_SkeletonIsFixedAcrossComplexities(t *testing.T) {
	for _, complexity := range []core.Complexity{
		core.ComplexityLow, core.ComplexityMedium, core.ComplexityHigh, core.ComplexityExpert,
	} {
		t.Run(string(complexity), func(t *testing.T) {
			topo := NewGenerator(core.NewSeededRand(1)).Generate(complexity)

			require.Len(t, topo.Subnets, 3)
			assert.Equal(t, "dmz", topo.Subnets[0].Name)
			assert.Equal(t, "internal", topo.Subnets[1].Name)
			assert.Equal(t, "critical", topo.Subnets[2].Name)

			require.Len(t, topo.CriticalAssets, 2)
			roles := []string{topo.CriticalAssets[0].Role, topo.CriticalAssets[1].Role}
			assert.Contains(t, roles, "domain-controller")
			assert.Contains(t, roles, "database")

			assert.NotEmpty(t, topo.TrustRelationships)
			assert.GreaterOrEqual(t, len(topo.SecurityControls), 2)
		})
	}
}

func TestGenerate_PeripheralCountScalesWithComplexity(t *testing.T) {
	low := NewGenerator(core.NewSeededRand(1)).Generate(core.ComplexityLow)
	expert := NewGenerator(core.NewSeededRand(1)).Generate(core.ComplexityExpert)

	assert.Greater(t, len(expert.AllAssets()), len(low.AllAssets()))
	assert.GreaterOrEqual(t, len(expert.SecurityControls), len(low.SecurityControls))
}

func TestGenerate_ControlStrengthsAreProbabilities(t *testing.T) {
	topo := NewGenerator(core.NewSeededRand(7)).Generate(core.ComplexityExpert)
	for _, c := range topo.SecurityControls {
		assert.GreaterOrEqual(t, c.Strength, 0.0, "control %s", c.Name)
		assert.LessOrEqual(t, c.Strength, 1.0, "control %s", c.Name)
	}
}

func TestGenerate_AssetsHaveAddressesInSubnetRange(t *testing.T) {
	topo := NewGenerator(core.NewSeededRand(3)).Generate(core.ComplexityMedium)
	for _, subnet := range topo.Subnets {
		require.NotEmpty(t, subnet.Assets, "subnet %s", subnet.Name)
		for _, asset := range subnet.Assets {
			assert.NotEmpty(t, asset.ID)
			assert.NotEmpty(t, asset.Hostname)
			assert.Equal(t, subnet.Name, asset.Subnet)
			assert.Regexp(t, `^10\.[123]0\.0\.\d+$`, asset.IP)
		}
	}
}
