package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/compliance"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newTestEngine(t *testing.T) (*Engine, *db.MemoryStore, *clock) {
	t.Helper()

	store := db.NewMemoryStore()
	err := store.Load(context.Background(), &db.Seed{
		Faculty: []db.Faculty{
			{ID: "f1", Name: "Dr. Adams"},
			{ID: "f2", Name: "Dr. Baker"},
			{ID: "f3", Name: "Dr. Cole"},
			{ID: "f4", Name: "Dr. Diaz"},
		},
		Assignments: []db.Assignment{
			{ID: "a1", FacultyID: "f1", Week: "2025-03-10", Rotation: "ICU"},
			{ID: "a2", FacultyID: "f2", Week: "2025-03-24", Rotation: "Clinic"},
			{ID: "a3", FacultyID: "f3", Week: "2025-03-10", Rotation: "Wards"},
			{ID: "a4", FacultyID: "f2", Week: "2025-02-17", Rotation: "Nights"},
			{ID: "a5", FacultyID: "f4", Week: "2025-03-17", Rotation: "Clinic"},
		},
		Absences: []db.Absence{
			{ID: "ab1", FacultyID: "f3", StartDate: "2025-03-26", EndDate: "2025-03-28", Type: "vacation"},
		},
		Violations: []db.Violation{
			{ID: "v1", Type: model.WarningHours, Severity: model.SeverityCritical, PersonID: "f1"},
			{ID: "v2", Type: model.WarningSupervision, Severity: model.SeverityWarning, PersonID: "f2", Resolved: true},
			{ID: "v3", Type: model.WarningHours, Severity: model.SeverityWarning, PersonID: "f3"},
		},
	})
	require.NoError(t, err)

	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	engine := New(store, zap.NewNop(), Options{Now: c.Now, Compliance: compliance.DefaultConfig()})
	return engine, store, c
}

func weeksOf(t *testing.T, store *db.MemoryStore, facultyID string) []string {
	t.Helper()

	assignments, err := store.GetFacultyAssignments(context.Background(), facultyID)
	require.NoError(t, err)

	weeks := make([]string, len(assignments))
	for i, a := range assignments {
		weeks[i] = a.Week
	}
	return weeks
}

func TestValidateSwap(t *testing.T) {
	tests := []struct {
		name             string
		proposal         model.SwapProposal
		expectValid      bool
		expectError      string
		expectExternal   string
		expectBackToBack bool
	}{
		{
			name:        "one to one between free weeks",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-03-10", TargetFacultyID: "f2", TargetWeek: "2025-03-24", SwapType: model.SwapOneToOne},
			expectValid: true,
		},
		{
			name:        "target already assigned that week",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-03-10", TargetFacultyID: "f3", SwapType: model.SwapAbsorb},
			expectError: "already assigned",
		},
		{
			name:           "target on leave during the week",
			proposal:       model.SwapProposal{SourceFacultyID: "f2", SourceWeek: "2025-03-24", TargetFacultyID: "f3", SwapType: model.SwapAbsorb},
			expectExternal: "vacation",
		},
		{
			name:             "back to back weeks are a warning",
			proposal:         model.SwapProposal{SourceFacultyID: "f2", SourceWeek: "2025-03-24", TargetFacultyID: "f4", SwapType: model.SwapAbsorb},
			expectValid:      true,
			expectBackToBack: true,
		},
		{
			name:        "source has no assignment",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-04-07", TargetFacultyID: "f2", SwapType: model.SwapAbsorb},
			expectError: "no assignment in week 2025-04-07",
		},
		{
			name:        "target has no assignment for one to one",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-03-10", TargetFacultyID: "f2", TargetWeek: "2025-03-31", SwapType: model.SwapOneToOne},
			expectError: "Dr. Baker has no assignment",
		},
		{
			name:        "same person",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-03-10", TargetFacultyID: "f1", SwapType: model.SwapAbsorb},
			expectError: "different people",
		},
		{
			name:        "unknown faculty",
			proposal:    model.SwapProposal{SourceFacultyID: "f1", SourceWeek: "2025-03-10", TargetFacultyID: "nobody", SwapType: model.SwapAbsorb},
			expectError: "Unknown faculty member nobody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := newTestEngine(t)

			result, err := engine.ValidateSwap(context.Background(), tt.proposal)
			require.NoError(t, err)

			assert.Equal(t, tt.expectValid, result.Valid)
			assert.Equal(t, tt.expectBackToBack, result.BackToBackConflict)
			if tt.expectError != "" {
				require.NotEmpty(t, result.Errors)
				assert.Contains(t, result.Errors[0], tt.expectError)
			} else {
				assert.Empty(t, result.Errors)
			}
			if tt.expectExternal != "" {
				assert.Contains(t, result.ExternalConflict, tt.expectExternal)
			} else {
				assert.Empty(t, result.ExternalConflict)
			}
		})
	}
}

func TestValidateSwap_MissingFields(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.ValidateSwap(context.Background(), model.SwapProposal{SourceFacultyID: "f1"})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestExecuteSwap_MovesAssignments(t *testing.T) {
	engine, store, c := newTestEngine(t)
	ctx := access.WithIdentity(context.Background(), access.Identity{UserID: "coord-1", Tier: access.TierCoordinator})

	result, err := engine.ExecuteSwap(ctx, model.SwapProposal{
		SourceFacultyID: "f1", SourceWeek: "2025-03-10",
		TargetFacultyID: "f2", TargetWeek: "2025-03-24",
		SwapType: model.SwapOneToOne,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.SwapID)

	assert.Equal(t, []string{"2025-03-24"}, weeksOf(t, store, "f1"))
	assert.Equal(t, []string{"2025-02-17", "2025-03-10"}, weeksOf(t, store, "f2"))

	swap, err := store.GetSwap(context.Background(), result.SwapID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapExecuted, swap.Status)
	assert.Equal(t, "coord-1", swap.CreatedBy)
	require.NotNil(t, swap.ExecutedAt)
	assert.Equal(t, c.now, *swap.ExecutedAt)
}

func TestExecuteSwap_RejectedAtCommit(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	result, err := engine.ExecuteSwap(context.Background(), model.SwapProposal{
		SourceFacultyID: "f1", SourceWeek: "2025-03-10",
		TargetFacultyID: "f3", SwapType: model.SwapAbsorb,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already assigned")

	swaps, err := store.ListSwaps(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, swaps)
	assert.Equal(t, []string{"2025-03-10"}, weeksOf(t, store, "f1"))
}

func TestExecuteSwap_RecordsBackToBackWarning(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	result, err := engine.ExecuteSwap(context.Background(), model.SwapProposal{
		SourceFacultyID: "f2", SourceWeek: "2025-03-24",
		TargetFacultyID: "f4", SwapType: model.SwapAbsorb,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "back-to-back")

	violations, err := engine.ListViolations(context.Background(), model.ViolationFilter{Type: model.WarningConflict})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "f4", violations[0].PersonID)
	assert.Equal(t, model.SeverityWarning, violations[0].Severity)
}

func TestRollbackSwap(t *testing.T) {
	engine, store, c := newTestEngine(t)
	ctx := context.Background()

	executed, err := engine.ExecuteSwap(ctx, model.SwapProposal{
		SourceFacultyID: "f1", SourceWeek: "2025-03-10",
		TargetFacultyID: "f2", TargetWeek: "2025-03-24",
		SwapType: model.SwapOneToOne,
	})
	require.NoError(t, err)
	require.True(t, executed.Success)

	c.now = c.now.Add(23 * time.Hour)
	result, err := engine.RollbackSwap(ctx, executed.SwapID, model.RollbackSwapRequest{Reason: "entered in error"})
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []string{"2025-03-10"}, weeksOf(t, store, "f1"))
	assert.Equal(t, []string{"2025-02-17", "2025-03-24"}, weeksOf(t, store, "f2"))

	swaps, err := engine.ListSwaps(ctx, model.SwapFilter{Status: model.SwapRolledBack})
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, "entered in error", swaps[0].Message)

	// A rolled back swap cannot be rolled back again
	_, err = engine.RollbackSwap(ctx, executed.SwapID, model.RollbackSwapRequest{})
	assert.ErrorIs(t, err, model.ErrIllegalTransition)
}

func TestRollbackSwap_WindowExpired(t *testing.T) {
	engine, store, c := newTestEngine(t)
	ctx := context.Background()

	executed, err := engine.ExecuteSwap(ctx, model.SwapProposal{
		SourceFacultyID: "f1", SourceWeek: "2025-03-10",
		TargetFacultyID: "f2", SwapType: model.SwapAbsorb,
	})
	require.NoError(t, err)
	require.True(t, executed.Success)

	c.now = c.now.Add(24 * time.Hour)
	_, err = engine.RollbackSwap(ctx, executed.SwapID, model.RollbackSwapRequest{})

	var expired *model.RollbackWindowExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, executed.SwapID, expired.SwapID)

	swap, err := store.GetSwap(ctx, executed.SwapID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapExecuted, swap.Status)
}

func TestRollbackSwap_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.RollbackSwap(context.Background(), "missing", model.RollbackSwapRequest{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestBatchResolveViolations(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := access.WithIdentity(context.Background(), access.Identity{UserID: "coord-1", Tier: access.TierCoordinator})

	result, err := engine.BatchResolveViolations(ctx, model.BatchResolveRequest{
		ConflictIDs:      []string{"v1", "v2", "missing"},
		ResolutionMethod: model.ResolutionAutoResolved,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Results, 3)
	assert.Equal(t, model.BatchItemResult{ConflictID: "v1", Success: true, Message: "resolved"}, result.Results[0])
	assert.Equal(t, "violation already resolved", result.Results[1].Message)
	assert.Equal(t, "violation not found", result.Results[2].Message)

	v1, err := store.GetViolation(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, v1.Resolved)
	assert.Equal(t, "coord-1", v1.ResolvedBy)
	assert.Equal(t, model.ResolutionAutoResolved, v1.ResolutionMethod)
}

func TestBatchResolveViolations_Invalid(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	var validationErr *model.ValidationError

	_, err := engine.BatchResolveViolations(context.Background(), model.BatchResolveRequest{ResolutionMethod: model.ResolutionAutoResolved})
	require.ErrorAs(t, err, &validationErr)

	_, err = engine.BatchResolveViolations(context.Background(), model.BatchResolveRequest{ConflictIDs: []string{"v1"}, ResolutionMethod: "deleted"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"resolutionMethod"}, validationErr.Fields)
}

func TestBatchIgnoreViolations(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	_, err := engine.BatchIgnoreViolations(context.Background(), model.BatchIgnoreRequest{ConflictIDs: []string{"v1"}})
	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)

	result, err := engine.BatchIgnoreViolations(context.Background(), model.BatchIgnoreRequest{
		ConflictIDs: []string{"v1", "v2", "v3"},
		Reason:      "covered by moonlighting policy",
	})
	require.NoError(t, err)
	assert.Equal(t, &model.BatchIgnoreResult{Success: 2, Failed: 1}, result)

	v3, err := store.GetViolation(context.Background(), "v3")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionIgnored, v3.ResolutionMethod)
	assert.Equal(t, "covered by moonlighting policy", v3.ResolutionReason)
}

func TestBatchResolveViolations_CancelledContext(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.BatchResolveViolations(ctx, model.BatchResolveRequest{
		ConflictIDs:      []string{"v1", "v3"},
		ResolutionMethod: model.ResolutionAutoResolved,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, "not attempted", result.Results[0].Message)
}

func TestListViolations(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	unresolved := false

	violations, err := engine.ListViolations(context.Background(), model.ViolationFilter{Resolved: &unresolved})
	require.NoError(t, err)

	ids := make([]string, len(violations))
	for i, v := range violations {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"v1", "v3"}, ids)

	violations, err = engine.ListViolations(context.Background(), model.ViolationFilter{Severity: model.SeverityWarning})
	require.NoError(t, err)
	assert.Len(t, violations, 2)
}

func TestUpdateAssignment(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	updated, err := engine.UpdateAssignment(ctx, "a1", model.AssignmentUpdate{FacultyID: "f2"})
	require.NoError(t, err)
	assert.Equal(t, "f2", updated.FacultyID)
	assert.Empty(t, weeksOf(t, store, "f1"))

	// f3 already works 2025-03-10
	_, err = engine.UpdateAssignment(ctx, "a1", model.AssignmentUpdate{FacultyID: "f3"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = engine.UpdateAssignment(ctx, "missing", model.AssignmentUpdate{FacultyID: "f3"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = engine.UpdateAssignment(ctx, "a1", model.AssignmentUpdate{FacultyID: "nobody"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	var validationErr *model.ValidationError
	_, err = engine.UpdateAssignment(ctx, "a1", model.AssignmentUpdate{})
	assert.ErrorAs(t, err, &validationErr)
}
