// Package topology generates the simulated network skeleton a campaign moves
// across and plans lateral-movement paths over it.
package topology

import (
	"fmt"

	"github.com/google/uuid"

	"mirage/core"
)

// Generator produces network topologies. The skeleton is fixed (3 subnets,
// 2 critical assets, a dmz→internal→critical trust chain); complexity only
// scales peripheral asset and control counts so downstream investigation
// guides stay structurally predictable.
type Generator struct {
	rnd core.Rand
}

// NewGenerator creates a topology generator over the given random source
func NewGenerator(rnd core.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate builds a topology for the given complexity. It has no failure
// modes.
func (g *Generator) Generate(complexity core.Complexity) *core.NetworkTopology {
	scale := complexity.Scale()

	dmz := core.Subnet{
		Name:       "dmz",
		CIDR:       "10.10.0.0/24",
		Zone:       core.ZoneDMZ,
		TrustLevel: 0.2,
	}
	internal := core.Subnet{
		Name:       "internal",
		CIDR:       "10.20.0.0/24",
		Zone:       core.ZoneInternal,
		TrustLevel: 0.5,
	}
	critical := core.Subnet{
		Name:       "critical",
		CIDR:       "10.30.0.0/24",
		Zone:       core.ZoneCritical,
		TrustLevel: 0.9,
	}

	// Peripheral assets scale with complexity
	for i := 0; i < 1+scale; i++ {
		dmz.Assets = append(dmz.Assets, g.asset("web", "dmz", "10.10.0", 10+i, "low"))
	}
	for i := 0; i < 2*scale; i++ {
		internal.Assets = append(internal.Assets, g.asset("workstation", "internal", "10.20.0", 10+i, "medium"))
	}
	for i := 0; i < scale; i++ {
		internal.Assets = append(internal.Assets, g.asset("server", "internal", "10.20.0", 100+i, "medium"))
	}

	// Exactly 2 critical assets, always
	dc := g.asset("domain-controller", "critical", "10.30.0", 10, "critical")
	db := g.asset("database", "critical", "10.30.0", 11, "critical")
	critical.Assets = []core.Asset{dc, db}

	topo := &core.NetworkTopology{
		Subnets:        []core.Subnet{dmz, internal, critical},
		CriticalAssets: []core.Asset{dc, db},
		TrustRelationships: []core.TrustRelationship{
			{Source: "dmz", Target: "internal", TrustLevel: 0.4, CrossesBoundary: true},
			{Source: "internal", Target: "critical", TrustLevel: 0.2, CrossesBoundary: true},
			{Source: "internal", Target: "internal", TrustLevel: 0.7, CrossesBoundary: false},
		},
		SecurityControls: g.controls(scale),
	}
	return topo
}

func (g *Generator) asset(role, subnet, prefix string, host int, criticality string) core.Asset {
	return core.Asset{
		ID:          uuid.New().String(),
		Hostname:    fmt.Sprintf("%s-%02d", role, host),
		IP:          fmt.Sprintf("%s.%d", prefix, host),
		Role:        role,
		Subnet:      subnet,
		Criticality: criticality,
	}
}

func (g *Generator) controls(scale int) []core.SecurityControl {
	controls := []core.SecurityControl{
		{Name: "perimeter-firewall", Type: "firewall", Coverage: "dmz", Strength: 0.5 + g.rnd.Float64()*0.2},
		{Name: "segmentation-acl", Type: "firewall", Coverage: "internal", Strength: 0.3 + g.rnd.Float64()*0.2},
	}
	extras := []core.SecurityControl{
		{Name: "endpoint-edr", Type: "edr", Coverage: "internal", Strength: 0.4 + g.rnd.Float64()*0.3},
		{Name: "network-ids", Type: "ids", Coverage: "dmz", Strength: 0.3 + g.rnd.Float64()*0.3},
		{Name: "dlp-gateway", Type: "dlp", Coverage: "critical", Strength: 0.4 + g.rnd.Float64()*0.2},
		{Name: "privileged-access-mfa", Type: "mfa", Coverage: "critical", Strength: 0.6 + g.rnd.Float64()*0.2},
	}
	if scale > len(extras) {
		scale = len(extras)
	}
	controls = append(controls, extras[:scale]...)
	return controls
}
