package swaps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// Validator performs dry runs of swap proposals. Results are advisory: nothing
// is reserved, and the schedule may change before the swap is executed.
type Validator struct {
	service  SwapService
	identity access.Identity
	logger   *zap.Logger
}

func NewValidator(service SwapService, identity access.Identity, logger *zap.Logger) *Validator {
	return &Validator{
		service:  service,
		identity: identity,
		logger:   logger,
	}
}

// Validate checks required fields and permissions locally, then asks the
// schedule service for the deeper checks
func (v *Validator) Validate(ctx context.Context, proposal model.SwapProposal) (*model.SwapValidationResult, error) {
	if err := CheckProposal(proposal); err != nil {
		return nil, err
	}
	if err := access.Require(v.identity, access.ActionValidateSwap); err != nil {
		return nil, err
	}

	v.logger.Debug("Validating swap",
		zap.String("source_faculty_id", proposal.SourceFacultyID),
		zap.String("source_week", proposal.SourceWeek),
		zap.String("target_faculty_id", proposal.TargetFacultyID),
		zap.String("swap_type", string(proposal.SwapType)))

	result, err := v.service.ValidateSwap(ctx, proposal)
	if err != nil {
		v.logger.Warn("Swap validation call failed", zap.Error(err))
		return nil, serviceError("validateSwap", err)
	}

	v.logger.Debug("Swap validation complete",
		zap.Bool("valid", result.Valid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

// ValidateRequest validates a working copy and moves it between proposed and
// validated according to the result
func (v *Validator) ValidateRequest(ctx context.Context, swap *model.SwapRequest) (*model.SwapValidationResult, error) {
	if swap.Status != model.SwapProposed && swap.Status != model.SwapValidated {
		return nil, fmt.Errorf("cannot validate swap in status %s: %w", swap.Status, model.ErrIllegalTransition)
	}

	result, err := v.Validate(ctx, swap.SwapProposal)
	if err != nil {
		return nil, err
	}

	if result.Valid {
		swap.Status = model.SwapValidated
	} else {
		swap.Status = model.SwapProposed
	}
	return result, nil
}
