package compliance

import (
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// CapacityRule warns when the rotation already holds as many people as it allows.
// It needs both RotationCapacity and CurrentRotationCount.
type CapacityRule struct{}

func NewCapacityRule() *CapacityRule {
	return &CapacityRule{}
}

func (r *CapacityRule) Name() string {
	return "Capacity"
}

func (r *CapacityRule) Type() model.WarningType {
	return model.WarningCapacity
}

func (r *CapacityRule) Evaluate(ctx model.AssignmentContext) *model.Warning {
	if ctx.RotationCapacity == nil || ctx.CurrentRotationCount == nil {
		return nil
	}
	if *ctx.CurrentRotationCount < *ctx.RotationCapacity {
		return nil
	}

	return &model.Warning{
		Type:     model.WarningCapacity,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("Rotation is at capacity (%d/%d)", *ctx.CurrentRotationCount, *ctx.RotationCapacity),
	}
}
