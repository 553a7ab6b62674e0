package compliance

import (
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// AbsenceRule flags assignments that fall inside a leave period.
// Ranges are inclusive of both start and end dates. Entries with unparseable
// dates are skipped.
type AbsenceRule struct{}

func NewAbsenceRule() *AbsenceRule {
	return &AbsenceRule{}
}

func (r *AbsenceRule) Name() string {
	return "Absence"
}

func (r *AbsenceRule) Type() model.WarningType {
	return model.WarningAbsence
}

func (r *AbsenceRule) Evaluate(ctx model.AssignmentContext) *model.Warning {
	if len(ctx.Absences) == 0 {
		return nil
	}

	date, ok := ParseDate(ctx.Date)
	if !ok {
		return nil
	}

	for _, absence := range ctx.Absences {
		start, okStart := ParseDate(absence.StartDate)
		end, okEnd := ParseDate(absence.EndDate)
		if !okStart || !okEnd {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}

		return &model.Warning{
			Type:     model.WarningAbsence,
			Severity: model.SeverityCritical,
			Message: fmt.Sprintf("%s has a %s absence from %s to %s",
				displayName(ctx), absence.Type, absence.StartDate, absence.EndDate),
		}
	}
	return nil
}
