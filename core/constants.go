package core

// ScenarioType identifies a campaign template family
type ScenarioType string

const (
	ScenarioAPT         ScenarioType = "apt"
	ScenarioRansomware  ScenarioType = "ransomware"
	ScenarioInsider     ScenarioType = "insider"
	ScenarioSupplyChain ScenarioType = "supply_chain"
)

// String returns the string representation
func (s ScenarioType) String() string {
	return string(s)
}

// IsValid checks if the scenario type is one of the registered families
func (s ScenarioType) IsValid() bool {
	switch s {
	case ScenarioAPT, ScenarioRansomware, ScenarioInsider, ScenarioSupplyChain:
		return true
	default:
		return false
	}
}

// Complexity controls how much peripheral detail a simulation generates
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
	ComplexityExpert Complexity = "expert"
)

// IsValid checks if the complexity level is known
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityExpert:
		return true
	default:
		return false
	}
}

// Scale returns a multiplier used to size peripheral asset and control counts
func (c Complexity) Scale() int {
	switch c {
	case ComplexityLow:
		return 1
	case ComplexityMedium:
		return 2
	case ComplexityHigh:
		return 3
	case ComplexityExpert:
		return 4
	default:
		return 2
	}
}

// TimePattern selects how stage windows are distributed inside a campaign
type TimePattern string

const (
	PatternUniform          TimePattern = "uniform"
	PatternBusinessHours    TimePattern = "business_hours"
	PatternAttackSimulation TimePattern = "attack_simulation"
	PatternWeekendHeavy     TimePattern = "weekend_heavy"
	PatternRandom           TimePattern = "random"
)

// IsValid checks if the time pattern is known
func (p TimePattern) IsValid() bool {
	switch p {
	case PatternUniform, PatternBusinessHours, PatternAttackSimulation, PatternWeekendHeavy, PatternRandom:
		return true
	default:
		return false
	}
}

// Severity represents alert severity
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// EventType distinguishes synthesized log entries from generated alerts
type EventType string

const (
	EventTypeLog   EventType = "log"
	EventTypeAlert EventType = "alert"
)

// MissReason explains why a technique produced no detected alert
type MissReason string

const (
	MissBelowDetectionThreshold MissReason = "below_detection_threshold"
	MissNoLogs                  MissReason = "no_logs"
	MissAlertGenerationFailed   MissReason = "alert_generation_failed"
)
