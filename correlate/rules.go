// Package correlate matches synthesized events against static correlation
// rules and emits confidence-scored incident clusters.
package correlate

import (
	"time"

	"github.com/dlclark/regexp2"
)

// ConfidenceWeights scales the three scoring terms. Weights should sum to
// roughly 1; the final score is clipped to [0,1] regardless.
type ConfidenceWeights struct {
	Temporal  float64 `json:"temporal"`
	Asset     float64 `json:"asset"`
	Technique float64 `json:"technique"`
}

// Rule describes one correlation rule: a required technique co-occurrence
// set, a time window, a minimum event count, and scoring weights. An
// optional command-line pattern (regexp2, for lookaround support) narrows
// process-backed matches.
type Rule struct {
	ID            string
	Name          string
	Techniques    []string
	TimeWindow    time.Duration
	MinimumEvents int
	Weights       ConfidenceWeights
	FieldPattern  *regexp2.Regexp
}

// DefaultRules returns the built-in rule registry. Constructed per engine,
// never shared mutable state.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:            "COR-001",
			Name:          "Credential Theft Chain",
			Techniques:    []string{"T1003", "T1110", "T1555", "T1078"},
			TimeWindow:    2 * time.Hour,
			MinimumEvents: 3,
			Weights:       ConfidenceWeights{Temporal: 0.4, Asset: 0.3, Technique: 0.3},
		},
		{
			ID:            "COR-002",
			Name:          "Lateral Movement Burst",
			Techniques:    []string{"T1021", "T1210", "T1078"},
			TimeWindow:    90 * time.Minute,
			MinimumEvents: 4,
			Weights:       ConfidenceWeights{Temporal: 0.5, Asset: 0.2, Technique: 0.3},
		},
		{
			ID:            "COR-003",
			Name:          "Exfiltration Staging",
			Techniques:    []string{"T1005", "T1560", "T1041", "T1567"},
			TimeWindow:    6 * time.Hour,
			MinimumEvents: 3,
			Weights:       ConfidenceWeights{Temporal: 0.3, Asset: 0.4, Technique: 0.3},
		},
		{
			ID:            "COR-004",
			Name:          "Phishing To Execution",
			Techniques:    []string{"T1566", "T1204", "T1059"},
			TimeWindow:    1 * time.Hour,
			MinimumEvents: 2,
			Weights:       ConfidenceWeights{Temporal: 0.5, Asset: 0.3, Technique: 0.2},
		},
		{
			ID:            "COR-005",
			Name:          "Ransomware Impact Chain",
			Techniques:    []string{"T1486", "T1490", "T1059"},
			TimeWindow:    3 * time.Hour,
			MinimumEvents: 3,
			Weights:       ConfidenceWeights{Temporal: 0.4, Asset: 0.4, Technique: 0.2},
			// Shadow-copy or recovery tampering in the command line, but not
			// the bare enumeration form.
			FieldPattern: regexp2.MustCompile(`(?i)^(?!.*\blist\b)(?=.*(vssadmin|wbadmin|cipher|bcdedit)).*$`, 0),
		},
		{
			ID:            "COR-006",
			Name:          "Discovery Sweep",
			Techniques:    []string{"T1018", "T1083", "T1046"},
			TimeWindow:    45 * time.Minute,
			MinimumEvents: 5,
			Weights:       ConfidenceWeights{Temporal: 0.6, Asset: 0.2, Technique: 0.2},
		},
	}
}
