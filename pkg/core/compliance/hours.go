package compliance

import (
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// HoursRule flags assignments that would push a person past their weekly hour limit.
//
// Activation:
//   - Requires both WeeklyHours and MaxWeeklyHours
//
// Policy:
//   - projected = WeeklyHours + session duration (SessionHours, or a matching override)
//   - No warning when projected <= MaxWeeklyHours
//   - Critical when the overage exceeds CriticalOverageHours, otherwise a warning
type HoursRule struct {
	cfg Config
}

// NewHoursRule creates a new HoursRule using the session and threshold settings in cfg
func NewHoursRule(cfg Config) *HoursRule {
	return &HoursRule{cfg: cfg}
}

func (r *HoursRule) Name() string {
	return "Hours"
}

func (r *HoursRule) Type() model.WarningType {
	return model.WarningHours
}

func (r *HoursRule) Evaluate(ctx model.AssignmentContext) *model.Warning {
	if ctx.WeeklyHours == nil || ctx.MaxWeeklyHours == nil {
		return nil
	}

	projected := *ctx.WeeklyHours + r.cfg.sessionHoursFor(ctx.Date, ctx.Session)
	limit := *ctx.MaxWeeklyHours
	if projected <= limit {
		return nil
	}

	overage := projected - limit
	severity := model.SeverityWarning
	if overage > r.cfg.CriticalOverageHours {
		severity = model.SeverityCritical
	}

	return &model.Warning{
		Type:     model.WarningHours,
		Severity: severity,
		Message: fmt.Sprintf("%s would reach %s hours this week, %s hours over the %s hour limit",
			displayName(ctx), formatHours(projected), formatHours(overage), formatHours(limit)),
	}
}

// displayName picks the most readable identifier for the person in a context
func displayName(ctx model.AssignmentContext) string {
	if ctx.PersonName != "" {
		return ctx.PersonName
	}
	if ctx.PersonID != "" {
		return ctx.PersonID
	}
	return "This person"
}
