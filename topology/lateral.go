package topology

import (
	"sort"

	"go.uber.org/zap"

	"mirage/core"
)

// Technique applicability classes for trust edges. Credential-access
// techniques work on any edge; exploitation techniques need a trust boundary
// to cross.
var (
	credentialAccessTechniques = map[string]bool{
		"T1003": true, // OS credential dumping
		"T1110": true, // brute force
		"T1555": true, // credentials from password stores
		"T1078": true, // valid accounts
		"T1021": true, // remote services with stolen creds
	}
	exploitationTechniques = map[string]bool{
		"T1210": true, // exploitation of remote services
		"T1190": true, // exploit public-facing application
		"T1068": true, // exploitation for privilege escalation
	}
)

// Tactic base success rates before control-strength reduction
const (
	baseRateCredentialAccess = 0.60
	baseRateExploitation     = 0.50
	baseRateDefault          = 0.45
)

// Planner walks trust-relationship edges and emits ranked movement paths
type Planner struct {
	logger *zap.SugaredLogger
}

// NewPlanner creates a lateral-movement planner
func NewPlanner(logger *zap.SugaredLogger) *Planner {
	return &Planner{logger: logger}
}

// Plan emits one path per trust edge with at least one applicable technique,
// ranked by success probability. A non-empty technique set always yields at
// least one path; an empty set yields zero (logged, non-fatal).
func (p *Planner) Plan(topo *core.NetworkTopology, techniques []string) []core.LateralMovementPath {
	if len(techniques) == 0 {
		p.logger.Warnw("Degenerate topology walk: empty technique set, no movement paths")
		return nil
	}

	var paths []core.LateralMovementPath
	for _, edge := range topo.TrustRelationships {
		applicable, rate := applicableTechniques(techniques, edge)
		if len(applicable) == 0 {
			continue
		}
		src, dst := edgeAssets(topo, edge)
		if src == "" || dst == "" {
			continue
		}
		paths = append(paths, core.LateralMovementPath{
			SourceAsset:        src,
			TargetAsset:        dst,
			Techniques:         applicable,
			SuccessProbability: core.Clamp01(rate * (1 - controlStrength(topo, edge.Target))),
		})
	}

	// Guarantee at least one candidate for a non-empty technique set: fall
	// back to the weakest edge with the first technique at default rate.
	if len(paths) == 0 && len(topo.TrustRelationships) > 0 {
		edge := weakestEdge(topo)
		src, dst := edgeAssets(topo, edge)
		paths = append(paths, core.LateralMovementPath{
			SourceAsset:        src,
			TargetAsset:        dst,
			Techniques:         techniques[:1],
			SuccessProbability: core.Clamp01(baseRateDefault * (1 - controlStrength(topo, edge.Target))),
		})
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].SuccessProbability > paths[j].SuccessProbability
	})
	return paths
}

// applicableTechniques filters techniques usable on the edge and returns the
// best tactic base rate among them.
func applicableTechniques(techniques []string, edge core.TrustRelationship) ([]string, float64) {
	var out []string
	rate := 0.0
	for _, t := range techniques {
		switch {
		case credentialAccessTechniques[t]:
			out = append(out, t)
			if baseRateCredentialAccess > rate {
				rate = baseRateCredentialAccess
			}
		case exploitationTechniques[t] && edge.CrossesBoundary:
			out = append(out, t)
			if baseRateExploitation > rate {
				rate = baseRateExploitation
			}
		}
	}
	return out, rate
}

// edgeAssets picks representative endpoints for a subnet-level trust edge
func edgeAssets(topo *core.NetworkTopology, edge core.TrustRelationship) (string, string) {
	srcSubnet := topo.SubnetByName(edge.Source)
	dstSubnet := topo.SubnetByName(edge.Target)
	if srcSubnet == nil || dstSubnet == nil || len(srcSubnet.Assets) == 0 || len(dstSubnet.Assets) == 0 {
		return "", ""
	}
	if edge.Source == edge.Target && len(srcSubnet.Assets) > 1 {
		return srcSubnet.Assets[0].Hostname, srcSubnet.Assets[1].Hostname
	}
	return srcSubnet.Assets[0].Hostname, dstSubnet.Assets[0].Hostname
}

// controlStrength returns the strongest control covering the target subnet
func controlStrength(topo *core.NetworkTopology, subnet string) float64 {
	strength := 0.0
	for _, c := range topo.SecurityControls {
		if c.Coverage == subnet && c.Strength > strength {
			strength = c.Strength
		}
	}
	return strength
}

func weakestEdge(topo *core.NetworkTopology) core.TrustRelationship {
	edge := topo.TrustRelationships[0]
	for _, e := range topo.TrustRelationships[1:] {
		if e.TrustLevel < edge.TrustLevel {
			edge = e
		}
	}
	return edge
}
