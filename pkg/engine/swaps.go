package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/compliance"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

// weekSession is the session name used when evaluating whole block weeks
const weekSession = "week"

// ValidateSwap dry-runs a swap against the current schedule
func (e *Engine) ValidateSwap(ctx context.Context, proposal model.SwapProposal) (*model.SwapValidationResult, error) {
	if err := swaps.CheckProposal(proposal); err != nil {
		return nil, err
	}
	return e.check(ctx, proposal)
}

// ExecuteSwap checks the swap again and commits it. A swap that fails the
// checks is reported with success=false rather than an error.
func (e *Engine) ExecuteSwap(ctx context.Context, proposal model.SwapProposal) (*model.ExecuteSwapResult, error) {
	if err := swaps.CheckProposal(proposal); err != nil {
		return nil, err
	}

	result, err := e.check(ctx, proposal)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		e.logger.Info("Rejected swap at commit", zap.Strings("errors", result.Errors), zap.String("external_conflict", result.ExternalConflict))
		return &model.ExecuteSwapResult{Success: false, Message: summarize(result)}, nil
	}

	executedAt := e.now()
	swap := &db.Swap{
		ID:              uuid.New().String(),
		SourceFacultyID: proposal.SourceFacultyID,
		SourceWeek:      proposal.SourceWeek,
		TargetFacultyID: proposal.TargetFacultyID,
		TargetWeek:      proposal.TargetWeek,
		SwapType:        proposal.SwapType,
		Reason:          proposal.Reason,
		Status:          model.SwapExecuted,
		CreatedBy:       actor(ctx),
		ExecutedAt:      &executedAt,
	}
	if err := e.store.ApplySwap(ctx, swap); err != nil {
		if errors.Is(err, db.ErrStaleSwap) {
			return &model.ExecuteSwapResult{Success: false, Message: "The schedule changed while the swap was being executed, please validate again"}, nil
		}
		return nil, fmt.Errorf("failed to apply swap: %w", err)
	}

	e.logger.Info("Swap executed",
		zap.String("swap_id", swap.ID),
		zap.String("source_faculty_id", swap.SourceFacultyID),
		zap.String("target_faculty_id", swap.TargetFacultyID))

	// Back-to-back weeks are allowed but tracked for review
	for _, warning := range result.Warnings {
		violation := &db.Violation{
			ID:       uuid.New().String(),
			Type:     model.WarningConflict,
			Severity: model.SeverityWarning,
			PersonID: proposal.TargetFacultyID,
			Date:     proposal.SourceWeek,
			Message:  warning,
		}
		if err := e.store.InsertViolation(ctx, violation); err != nil {
			e.logger.Warn("Failed to record swap warning", zap.String("swap_id", swap.ID), zap.Error(err))
		}
	}

	message := "Swap executed"
	if len(result.Warnings) > 0 {
		message += " with warnings: " + strings.Join(result.Warnings, "; ")
	}
	return &model.ExecuteSwapResult{Success: true, SwapID: swap.ID, Message: message}, nil
}

// RollbackSwap reverts an executed swap inside the rollback window
func (e *Engine) RollbackSwap(ctx context.Context, swapID string, req model.RollbackSwapRequest) (*model.RollbackSwapResult, error) {
	swap, err := e.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.Status != model.SwapExecuted || swap.ExecutedAt == nil {
		return nil, fmt.Errorf("swap %s is %s: %w", swapID, swap.Status, model.ErrIllegalTransition)
	}

	now := e.now()
	if now.Sub(*swap.ExecutedAt) >= e.window {
		return nil, &model.RollbackWindowExpiredError{SwapID: swapID, ExecutedAt: *swap.ExecutedAt, Window: e.window}
	}

	if err := e.store.RevertSwap(ctx, swapID, now, req.Reason); err != nil {
		if errors.Is(err, db.ErrStaleSwap) {
			return &model.RollbackSwapResult{Success: false, Message: "The swapped assignments have changed since execution and cannot be restored automatically"}, nil
		}
		return nil, fmt.Errorf("failed to revert swap: %w", err)
	}

	e.logger.Info("Swap rolled back", zap.String("swap_id", swapID), zap.String("reason", req.Reason))
	return &model.RollbackSwapResult{Success: true, Message: "Swap rolled back"}, nil
}

func (e *Engine) ListSwaps(ctx context.Context, filter model.SwapFilter) ([]model.SwapRequest, error) {
	records, err := e.store.ListSwaps(ctx, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps: %w", err)
	}

	result := make([]model.SwapRequest, len(records))
	for i, record := range records {
		result[i] = record.ToModel()
	}
	return result, nil
}

// check runs every swap check against the stored schedule
func (e *Engine) check(ctx context.Context, proposal model.SwapProposal) (*model.SwapValidationResult, error) {
	result := &model.SwapValidationResult{Errors: []string{}, Warnings: []string{}}

	if proposal.SourceFacultyID == proposal.TargetFacultyID {
		result.Errors = append(result.Errors, "Source and target must be different people")
		return result, nil
	}

	source, err := e.loadPerson(ctx, proposal.SourceFacultyID)
	if err != nil {
		return nil, err
	}
	target, err := e.loadPerson(ctx, proposal.TargetFacultyID)
	if err != nil {
		return nil, err
	}
	for _, p := range []*person{source, target} {
		if p.faculty == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Unknown faculty member %s", p.id))
		}
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	sourceAssignment, ok := source.assignmentIn(proposal.SourceWeek)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("%s has no assignment in week %s", source.name(), proposal.SourceWeek))
	}

	var targetAssignment db.Assignment
	if proposal.SwapType == model.SwapOneToOne {
		targetAssignment, ok = target.assignmentIn(proposal.TargetWeek)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s has no assignment in week %s", target.name(), proposal.TargetWeek))
		}
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	// The target takes the source week, and for one-to-one the source takes the target week
	e.checkIncoming(result, target, proposal.SourceWeek, targetAssignment.ID)
	if proposal.SwapType == model.SwapOneToOne {
		e.checkIncoming(result, source, proposal.TargetWeek, sourceAssignment.ID)
	}

	result.Valid = len(result.Errors) == 0 && result.ExternalConflict == ""
	return result, nil
}

// checkIncoming checks p taking on week, ignoring the assignment p gives away
func (e *Engine) checkIncoming(result *model.SwapValidationResult, p *person, week, givingUp string) {
	held := make([]model.ExistingAssignment, 0, len(p.assignments))
	for _, a := range p.assignments {
		if a.ID == givingUp {
			continue
		}
		held = append(held, model.ExistingAssignment{Date: a.Week, Session: weekSession, RotationName: a.Rotation})
	}

	absences := make([]model.Absence, len(p.absences))
	for i, a := range p.absences {
		absences[i] = a.ToModel()
	}

	assignmentCtx := model.AssignmentContext{
		PersonID:            p.id,
		PersonName:          p.faculty.Name,
		Date:                week,
		Session:             weekSession,
		ExistingAssignments: held,
	}
	for _, w := range e.evaluator.GenerateWarnings(assignmentCtx) {
		if w.Type == model.WarningConflict && w.Severity == model.SeverityCritical {
			result.Errors = append(result.Errors, w.Message)
		}
	}

	start, ok := compliance.ParseDate(week)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid week %q", week))
		return
	}

	// Leave on any day of the week is a conflict with the absence system
	if result.ExternalConflict == "" {
		for day := 0; day < 7; day++ {
			dayCtx := model.AssignmentContext{
				PersonID:   p.id,
				PersonName: p.faculty.Name,
				Date:       start.AddDate(0, 0, day).Format(compliance.DateLayout),
				Session:    weekSession,
				Absences:   absences,
			}
			if found := firstOfType(e.evaluator.GenerateWarnings(dayCtx), model.WarningAbsence); found != nil {
				result.ExternalConflict = found.Message
				break
			}
		}
	}

	for _, a := range p.assignments {
		if a.ID == givingUp {
			continue
		}
		other, ok := compliance.ParseDate(a.Week)
		if !ok {
			continue
		}
		if gap := other.Sub(start); gap == 7*24*time.Hour || gap == -7*24*time.Hour {
			result.BackToBackConflict = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s would work back-to-back weeks %s and %s", p.name(), week, a.Week))
		}
	}
}

func firstOfType(warnings []model.Warning, warningType model.WarningType) *model.Warning {
	for i := range warnings {
		if warnings[i].Type == warningType {
			return &warnings[i]
		}
	}
	return nil
}

func summarize(result *model.SwapValidationResult) string {
	messages := append([]string(nil), result.Errors...)
	if result.ExternalConflict != "" {
		messages = append(messages, result.ExternalConflict)
	}
	return strings.Join(messages, "; ")
}

// person is a faculty member with their schedule loaded
type person struct {
	id          string
	faculty     *db.Faculty
	assignments []db.Assignment
	absences    []db.Absence
}

func (e *Engine) loadPerson(ctx context.Context, id string) (*person, error) {
	p := &person{id: id}

	faculty, err := e.store.GetFaculty(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	p.faculty = faculty

	if p.assignments, err = e.store.GetFacultyAssignments(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	if p.absences, err = e.store.GetAbsences(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get absences: %w", err)
	}
	return p, nil
}

func (p *person) name() string {
	if p.faculty != nil && p.faculty.Name != "" {
		return p.faculty.Name
	}
	return p.id
}

func (p *person) assignmentIn(week string) (db.Assignment, bool) {
	for _, a := range p.assignments {
		if a.Week == week {
			return a, true
		}
	}
	return db.Assignment{}, false
}
