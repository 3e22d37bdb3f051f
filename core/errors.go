package core

import (
	"errors"
	"fmt"
)

// UnknownScenarioError is returned when no template is registered for the
// requested scenario type. This is the only error fatal to a campaign build.
type UnknownScenarioError struct {
	ScenarioType ScenarioType
}

// Error implements the error interface
func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario type %q: no campaign template registered", e.ScenarioType)
}

// IsUnknownScenario reports whether err wraps an UnknownScenarioError
func IsUnknownScenario(err error) bool {
	var use *UnknownScenarioError
	return errors.As(err, &use)
}

// ContentFillError is a recoverable collaborator failure during event
// synthesis. The affected technique yields zero events.
type ContentFillError struct {
	Technique string
	Err       error
}

func (e *ContentFillError) Error() string {
	return fmt.Sprintf("content fill failed for technique %s: %v", e.Technique, e.Err)
}

func (e *ContentFillError) Unwrap() error { return e.Err }

// AlertGenerationError is a recoverable collaborator failure during alert
// generation. The affected detection is downgraded to a MissedActivity.
type AlertGenerationError struct {
	StageID   string
	Technique string
	Err       error
}

func (e *AlertGenerationError) Error() string {
	return fmt.Sprintf("alert generation failed for technique %s in stage %s: %v", e.Technique, e.StageID, e.Err)
}

func (e *AlertGenerationError) Unwrap() error { return e.Err }

// CorrelationError is a recoverable failure evaluating one correlation rule.
// The rule's cluster list stays empty.
type CorrelationError struct {
	RuleID string
	Err    error
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("correlation rule %s failed: %v", e.RuleID, e.Err)
}

func (e *CorrelationError) Unwrap() error { return e.Err }

// Worker pool errors
var (
	// ErrWorkerPoolNotRunning is returned when submitting to a stopped pool
	ErrWorkerPoolNotRunning = errors.New("worker pool is not running")

	// ErrWorkerPoolQueueFull is returned when the task queue is full
	ErrWorkerPoolQueueFull = errors.New("worker pool queue is full")
)
