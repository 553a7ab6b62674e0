package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// UpdateAssignment moves an assignment to another faculty member. It is the
// administrative escape hatch around the swap workflow and is not reversible
// through rollback.
func (e *Engine) UpdateAssignment(ctx context.Context, assignmentID string, update model.AssignmentUpdate) (*model.Assignment, error) {
	if update.FacultyID == "" {
		return nil, &model.ValidationError{Fields: []string{"facultyId"}, Message: "missing required fields"}
	}

	assignment, err := e.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.FacultyID == update.FacultyID {
		result := assignment.ToModel()
		return &result, nil
	}

	if _, err := e.store.GetFaculty(ctx, update.FacultyID); err != nil {
		return nil, err
	}

	held, err := e.store.GetFacultyAssignments(ctx, update.FacultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	for _, a := range held {
		if a.Week == assignment.Week {
			return nil, fmt.Errorf("%s is already assigned in week %s: %w", update.FacultyID, a.Week, ErrConflict)
		}
	}

	if err := e.store.UpdateAssignmentFaculty(ctx, assignmentID, update.FacultyID); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	e.logger.Info("Assignment reassigned",
		zap.String("assignment_id", assignmentID),
		zap.String("from_faculty_id", assignment.FacultyID),
		zap.String("to_faculty_id", update.FacultyID))

	assignment.FacultyID = update.FacultyID
	result := assignment.ToModel()
	return &result, nil
}
