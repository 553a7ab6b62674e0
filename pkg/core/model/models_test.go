package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 0, SeverityCritical.Rank())
	assert.Equal(t, 1, SeverityWarning.Rank())
	assert.Equal(t, 2, SeverityInfo.Rank())
	assert.Greater(t, Severity("unknown").Rank(), SeverityInfo.Rank())
}

func TestSortWarningsBySeverity(t *testing.T) {
	warnings := []Warning{
		{Type: WarningHours, Severity: SeverityWarning, Message: "hours"},
		{Type: WarningSupervision, Severity: SeverityCritical, Message: "supervision"},
		{Type: WarningCapacity, Severity: SeverityInfo, Message: "capacity"},
		{Type: WarningConflict, Severity: SeverityCritical, Message: "conflict"},
	}

	sorted := SortWarningsBySeverity(warnings)

	require.Len(t, sorted, 4)
	assert.Equal(t, "supervision", sorted[0].Message)
	assert.Equal(t, "conflict", sorted[1].Message)
	assert.Equal(t, "hours", sorted[2].Message)
	assert.Equal(t, "capacity", sorted[3].Message)

	// Input is left in rule order
	assert.Equal(t, "hours", warnings[0].Message)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, WarningAbsence.IsValid())
	assert.False(t, WarningType("overtime").IsValid())
	assert.True(t, SeverityInfo.IsValid())
	assert.False(t, Severity("fatal").IsValid())
	assert.True(t, SwapAbsorb.IsValid())
	assert.False(t, SwapType("three_way").IsValid())
	assert.True(t, SwapRolledBack.IsValid())
	assert.False(t, SwapStatus("pending").IsValid())
	assert.True(t, ResolutionIgnored.IsValid())
	assert.False(t, ResolutionMethod("deleted").IsValid())
}

func TestSwapStatusIsTerminal(t *testing.T) {
	assert.True(t, SwapRolledBack.IsTerminal())
	assert.True(t, SwapFailed.IsTerminal())
	assert.False(t, SwapProposed.IsTerminal())
	assert.False(t, SwapValidated.IsTerminal())
	assert.False(t, SwapExecuted.IsTerminal())
}

func TestViolationFilter_Matches(t *testing.T) {
	resolved := true
	unresolved := false
	record := ViolationRecord{ID: "v1", Type: WarningHours, Severity: SeverityCritical}

	assert.True(t, ViolationFilter{}.Matches(record))
	assert.True(t, ViolationFilter{Severity: SeverityCritical}.Matches(record))
	assert.False(t, ViolationFilter{Severity: SeverityWarning}.Matches(record))
	assert.True(t, ViolationFilter{Type: WarningHours}.Matches(record))
	assert.False(t, ViolationFilter{Type: WarningAbsence}.Matches(record))
	assert.True(t, ViolationFilter{Resolved: &unresolved}.Matches(record))
	assert.False(t, ViolationFilter{Resolved: &resolved}.Matches(record))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))

	svcErr := &ServiceError{Op: "executeSwap", StatusCode: 409, Message: "target already assigned"}
	wrapped := fmt.Errorf("failed to execute swap: %w", svcErr)
	assert.Equal(t, "target already assigned", UserMessage(wrapped))

	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ServiceError{Op: "validateSwap", Message: cause.Error(), Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "validateSwap failed")
}

func TestRollbackWindowExpiredError_Message(t *testing.T) {
	err := &RollbackWindowExpiredError{
		SwapID:     "swap-1",
		ExecutedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Window:     24 * time.Hour,
	}

	assert.Contains(t, err.Error(), "swap-1")
	assert.Contains(t, err.Error(), "2025-03-10T09:00:00Z")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []string{"sourceWeek", "targetWeek"}, Message: "missing required fields"}

	assert.Equal(t, "validation failed: missing required fields (sourceWeek, targetWeek)", err.Error())
}
