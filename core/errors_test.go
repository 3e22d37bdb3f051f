package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnknownScenario(t *testing.T) {
	err := &UnknownScenarioError{ScenarioType: "wormable"}
	assert.True(t, IsUnknownScenario(err))
	assert.True(t, IsUnknownScenario(fmt.Errorf("building campaign: %w", err)))
	assert.False(t, IsUnknownScenario(errors.New("something else")))
	assert.Contains(t, err.Error(), "wormable")
}

func TestRecoverableErrors_Unwrap(t *testing.T) {
	inner := errors.New("collaborator down")

	fill := &ContentFillError{Technique: "T1059", Err: inner}
	assert.ErrorIs(t, fill, inner)
	assert.Contains(t, fill.Error(), "T1059")

	gen := &AlertGenerationError{StageID: "stage-1", Technique: "T1486", Err: inner}
	assert.ErrorIs(t, gen, inner)
	assert.Contains(t, gen.Error(), "stage-1")

	corr := &CorrelationError{RuleID: "COR-005", Err: inner}
	assert.ErrorIs(t, corr, inner)
	assert.Contains(t, corr.Error(), "COR-005")
}
