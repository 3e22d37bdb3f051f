package core

// Zone identifies a network segment's trust zone
type Zone string

const (
	ZoneDMZ      Zone = "dmz"
	ZoneInternal Zone = "internal"
	ZoneCritical Zone = "critical"
)

// Asset is a host inside the simulated network
type Asset struct {
	ID          string `json:"id"`
	Hostname    string `json:"hostname"`
	IP          string `json:"ip"`
	Role        string `json:"role"`
	Subnet      string `json:"subnet"`
	Criticality string `json:"criticality"`
}

// Subnet is one network segment of the simulated topology
type Subnet struct {
	Name       string  `json:"name"`
	CIDR       string  `json:"cidr"`
	Zone       Zone    `json:"zone"`
	TrustLevel float64 `json:"trust_level"`
	Assets     []Asset `json:"assets"`
}

// TrustRelationship is a directed trust edge between two subnets
type TrustRelationship struct {
	Source          string  `json:"source"`
	Target          string  `json:"target"`
	TrustLevel      float64 `json:"trust_level"`
	CrossesBoundary bool    `json:"crosses_boundary"`
}

// SecurityControl is a defensive control covering part of the topology
type SecurityControl struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Coverage string  `json:"coverage"`
	Strength float64 `json:"strength"`
}

// NetworkTopology is the read-only graph skeleton a campaign moves across.
// Generated once per campaign build.
type NetworkTopology struct {
	Subnets            []Subnet            `json:"subnets"`
	CriticalAssets     []Asset             `json:"critical_assets"`
	TrustRelationships []TrustRelationship `json:"trust_relationships"`
	SecurityControls   []SecurityControl   `json:"security_controls"`
}

// AllAssets returns every asset across all subnets
func (t *NetworkTopology) AllAssets() []Asset {
	var assets []Asset
	for _, sn := range t.Subnets {
		assets = append(assets, sn.Assets...)
	}
	return assets
}

// SubnetByName returns the subnet with the given name, or nil
func (t *NetworkTopology) SubnetByName(name string) *Subnet {
	for i := range t.Subnets {
		if t.Subnets[i].Name == name {
			return &t.Subnets[i]
		}
	}
	return nil
}

// LateralMovementPath is one ranked candidate movement between two assets
type LateralMovementPath struct {
	SourceAsset        string   `json:"source_asset"`
	TargetAsset        string   `json:"target_asset"`
	Techniques         []string `json:"techniques"`
	SuccessProbability float64  `json:"success_probability"`
}
