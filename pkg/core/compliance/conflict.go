package compliance

import (
	"fmt"
	"strings"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// ConflictRule detects double-booking: an existing assignment on the same date and session.
// A different session on the same date is not a conflict. Sessions compare case-insensitively.
type ConflictRule struct{}

func NewConflictRule() *ConflictRule {
	return &ConflictRule{}
}

func (r *ConflictRule) Name() string {
	return "Conflict"
}

func (r *ConflictRule) Type() model.WarningType {
	return model.WarningConflict
}

func (r *ConflictRule) Evaluate(ctx model.AssignmentContext) *model.Warning {
	for _, existing := range ctx.ExistingAssignments {
		if !sameDate(existing.Date, ctx.Date) || !strings.EqualFold(existing.Session, ctx.Session) {
			continue
		}

		rotation := ""
		if existing.RotationName != "" {
			rotation = fmt.Sprintf(" (%s)", existing.RotationName)
		}
		return &model.Warning{
			Type:     model.WarningConflict,
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("%s is already assigned to %s on %s%s", displayName(ctx), existing.Session, existing.Date, rotation),
		}
	}
	return nil
}
