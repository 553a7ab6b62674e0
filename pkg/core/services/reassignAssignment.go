package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// AssignmentEditor edits assignments directly, outside the swap workflow
type AssignmentEditor interface {
	UpdateAssignment(ctx context.Context, assignmentID string, update model.AssignmentUpdate) (*model.Assignment, error)
}

// ReassignAssignment moves an assignment to another faculty member. Only
// admins may do this and the change cannot be rolled back as a swap.
func ReassignAssignment(ctx context.Context, editor AssignmentEditor, identity access.Identity, logger *zap.Logger, assignmentID, facultyID string) (*model.Assignment, error) {
	if assignmentID == "" || facultyID == "" {
		return nil, &model.ValidationError{Fields: []string{"assignmentId", "facultyId"}, Message: "missing required fields"}
	}
	if err := access.Require(identity, access.ActionEditAssignment); err != nil {
		return nil, err
	}

	logger.Info("Reassigning assignment", zap.String("assignment_id", assignmentID), zap.String("faculty_id", facultyID))

	assignment, err := editor.UpdateAssignment(ctx, assignmentID, model.AssignmentUpdate{FacultyID: facultyID})
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return assignment, nil
}
