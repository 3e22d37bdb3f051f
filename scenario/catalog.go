// Package scenario holds the campaign template catalog and the builder that
// instantiates concrete campaigns from it.
package scenario

import (
	"time"

	"mirage/core"
)

// DurationRange bounds a randomly drawn duration
type DurationRange struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
}

// StageTemplate describes one stage of a campaign template
type StageTemplate struct {
	Name       string        `json:"name"`
	Tactic     string        `json:"tactic"`
	Techniques []string      `json:"techniques"`
	Objectives []string      `json:"objectives"`
	Duration   DurationRange `json:"duration"`
}

// Template is an immutable campaign blueprint. Loaded once, never mutated.
type Template struct {
	Name         string            `json:"name"`
	Type         core.ScenarioType `json:"type"`
	ThreatActors []string          `json:"threat_actors"`
	Objectives   []string          `json:"objectives"`
	Stages       []StageTemplate   `json:"stages"`
	Overall      DurationRange     `json:"overall"`
}

// Catalog is an explicitly constructed, immutable template table. Each
// campaign build receives its own reference; nothing here is global state.
type Catalog struct {
	templates map[core.ScenarioType]*Template
}

// NewCatalog returns a catalog preloaded with the built-in templates
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[core.ScenarioType]*Template)}
	for _, t := range builtinTemplates() {
		c.templates[t.Type] = t
	}
	return c
}

// Register adds or replaces a template
func (c *Catalog) Register(t *Template) {
	c.templates[t.Type] = t
}

// Get returns the template for the scenario type, or UnknownScenarioError
func (c *Catalog) Get(t core.ScenarioType) (*Template, error) {
	tmpl, ok := c.templates[t]
	if !ok {
		return nil, &core.UnknownScenarioError{ScenarioType: t}
	}
	return tmpl, nil
}

// Types lists the registered scenario types
func (c *Catalog) Types() []core.ScenarioType {
	types := make([]core.ScenarioType, 0, len(c.templates))
	for t := range c.templates {
		types = append(types, t)
	}
	return types
}

func builtinTemplates() []*Template {
	return []*Template{
		{
			Name:         "Advanced Persistent Threat",
			Type:         core.ScenarioAPT,
			ThreatActors: []string{"Midnight Hydra", "Cobalt Vesper", "Silent Mantis"},
			Objectives:   []string{"long-term espionage", "intellectual property theft"},
			Overall:      DurationRange{Min: 72 * time.Hour, Max: 14 * 24 * time.Hour},
			Stages: []StageTemplate{
				{
					Name:       "Reconnaissance",
					Tactic:     "TA0043",
					Techniques: []string{"T1595", "T1592"},
					Objectives: []string{"map external attack surface"},
					Duration:   DurationRange{Min: 4 * time.Hour, Max: 24 * time.Hour},
				},
				{
					Name:       "Initial Access",
					Tactic:     "TA0001",
					Techniques: []string{"T1566", "T1190"},
					Objectives: []string{"establish foothold"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 8 * time.Hour},
				},
				{
					Name:       "Persistence",
					Tactic:     "TA0003",
					Techniques: []string{"T1053", "T1547"},
					Objectives: []string{"survive reboots and credential rotation"},
					Duration:   DurationRange{Min: 2 * time.Hour, Max: 12 * time.Hour},
				},
				{
					Name:       "Credential Access",
					Tactic:     "TA0006",
					Techniques: []string{"T1003", "T1555"},
					Objectives: []string{"harvest domain credentials"},
					Duration:   DurationRange{Min: 2 * time.Hour, Max: 10 * time.Hour},
				},
				{
					Name:       "Lateral Movement",
					Tactic:     "TA0008",
					Techniques: []string{"T1021", "T1210"},
					Objectives: []string{"reach critical assets"},
					Duration:   DurationRange{Min: 6 * time.Hour, Max: 48 * time.Hour},
				},
				{
					Name:       "Collection",
					Tactic:     "TA0009",
					Techniques: []string{"T1005", "T1560"},
					Objectives: []string{"stage sensitive data"},
					Duration:   DurationRange{Min: 4 * time.Hour, Max: 24 * time.Hour},
				},
				{
					Name:       "Exfiltration",
					Tactic:     "TA0010",
					Techniques: []string{"T1041", "T1567"},
					Objectives: []string{"move staged data out"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 6 * time.Hour},
				},
			},
		},
		{
			Name:         "Ransomware Intrusion",
			Type:         core.ScenarioRansomware,
			ThreatActors: []string{"LockVine", "CrimsonKey", "Hollow Cipher"},
			Objectives:   []string{"encrypt production systems", "extort payment"},
			Overall:      DurationRange{Min: 6 * time.Hour, Max: 48 * time.Hour},
			Stages: []StageTemplate{
				{
					Name:       "Initial Access",
					Tactic:     "TA0001",
					Techniques: []string{"T1566", "T1078"},
					Objectives: []string{"compromise an endpoint"},
					Duration:   DurationRange{Min: 30 * time.Minute, Max: 2 * time.Hour},
				},
				{
					Name:       "Execution",
					Tactic:     "TA0002",
					Techniques: []string{"T1059"},
					Objectives: []string{"run loader"},
					Duration:   DurationRange{Min: 15 * time.Minute, Max: 1 * time.Hour},
				},
				{
					Name:       "Privilege Escalation",
					Tactic:     "TA0004",
					Techniques: []string{"T1068", "T1078"},
					Objectives: []string{"obtain admin rights"},
					Duration:   DurationRange{Min: 30 * time.Minute, Max: 3 * time.Hour},
				},
				{
					Name:       "Discovery",
					Tactic:     "TA0007",
					Techniques: []string{"T1018", "T1083", "T1046"},
					Objectives: []string{"enumerate shares and backups"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 4 * time.Hour},
				},
				{
					Name:       "Lateral Movement",
					Tactic:     "TA0008",
					Techniques: []string{"T1021", "T1110"},
					Objectives: []string{"spread to file servers"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 8 * time.Hour},
				},
				{
					Name:       "Impact",
					Tactic:     "TA0040",
					Techniques: []string{"T1486", "T1490"},
					Objectives: []string{"encrypt data", "destroy recovery points"},
					Duration:   DurationRange{Min: 30 * time.Minute, Max: 4 * time.Hour},
				},
			},
		},
		{
			Name:         "Malicious Insider",
			Type:         core.ScenarioInsider,
			ThreatActors: []string{"Disgruntled Administrator", "Departing Engineer"},
			Objectives:   []string{"exfiltrate proprietary data before departure"},
			Overall:      DurationRange{Min: 7 * 24 * time.Hour, Max: 30 * 24 * time.Hour},
			Stages: []StageTemplate{
				{
					Name:       "Collection",
					Tactic:     "TA0009",
					Techniques: []string{"T1005", "T1039"},
					Objectives: []string{"gather documents within granted access"},
					Duration:   DurationRange{Min: 24 * time.Hour, Max: 7 * 24 * time.Hour},
				},
				{
					Name:       "Defense Evasion",
					Tactic:     "TA0005",
					Techniques: []string{"T1070", "T1562"},
					Objectives: []string{"clear traces of bulk access"},
					Duration:   DurationRange{Min: 2 * time.Hour, Max: 24 * time.Hour},
				},
				{
					Name:       "Exfiltration",
					Tactic:     "TA0010",
					Techniques: []string{"T1567", "T1052"},
					Objectives: []string{"copy data to personal storage"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 12 * time.Hour},
				},
			},
		},
		{
			Name:         "Supply Chain Compromise",
			Type:         core.ScenarioSupplyChain,
			ThreatActors: []string{"Vector Moth", "Quiet Relay"},
			Objectives:   []string{"distribute a trojanized update", "harvest downstream access"},
			Overall:      DurationRange{Min: 5 * 24 * time.Hour, Max: 21 * 24 * time.Hour},
			Stages: []StageTemplate{
				{
					Name:       "Initial Access",
					Tactic:     "TA0001",
					Techniques: []string{"T1195"},
					Objectives: []string{"land via compromised update channel"},
					Duration:   DurationRange{Min: 2 * time.Hour, Max: 24 * time.Hour},
				},
				{
					Name:       "Execution",
					Tactic:     "TA0002",
					Techniques: []string{"T1059", "T1204"},
					Objectives: []string{"activate implant on update install"},
					Duration:   DurationRange{Min: 1 * time.Hour, Max: 8 * time.Hour},
				},
				{
					Name:       "Persistence",
					Tactic:     "TA0003",
					Techniques: []string{"T1547", "T1543"},
					Objectives: []string{"blend into the vendor service"},
					Duration:   DurationRange{Min: 4 * time.Hour, Max: 48 * time.Hour},
				},
				{
					Name:       "Command and Control",
					Tactic:     "TA0011",
					Techniques: []string{"T1071", "T1573"},
					Objectives: []string{"establish covert channel"},
					Duration:   DurationRange{Min: 12 * time.Hour, Max: 5 * 24 * time.Hour},
				},
				{
					Name:       "Exfiltration",
					Tactic:     "TA0010",
					Techniques: []string{"T1041"},
					Objectives: []string{"siphon credentials and keys"},
					Duration:   DurationRange{Min: 2 * time.Hour, Max: 24 * time.Hour},
				},
			},
		},
	}
}
