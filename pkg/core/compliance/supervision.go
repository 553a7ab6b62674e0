package compliance

import (
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// SupervisionRule flags assignments that need supervision but have no supervisor.
// It only runs when RequiresSupervision is set to true; a missing HasSupervisor
// counts as no supervisor.
type SupervisionRule struct{}

func NewSupervisionRule() *SupervisionRule {
	return &SupervisionRule{}
}

func (r *SupervisionRule) Name() string {
	return "Supervision"
}

func (r *SupervisionRule) Type() model.WarningType {
	return model.WarningSupervision
}

func (r *SupervisionRule) Evaluate(ctx model.AssignmentContext) *model.Warning {
	if ctx.RequiresSupervision == nil || !*ctx.RequiresSupervision {
		return nil
	}
	if ctx.HasSupervisor != nil && *ctx.HasSupervisor {
		return nil
	}

	return &model.Warning{
		Type:     model.WarningSupervision,
		Severity: model.SeverityCritical,
		Message:  fmt.Sprintf("%s requires supervision but no supervisor is assigned for %s %s", displayName(ctx), ctx.Date, ctx.Session),
	}
}
