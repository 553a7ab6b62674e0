package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
	"github.com/jakechorley/residency-scheduler/pkg/notify"
)

// SwapOutcome is the working copy of a swap after an operation, with
// whichever results that operation produced
type SwapOutcome struct {
	Swap       *model.SwapRequest
	Validation *model.SwapValidationResult
	Execution  *model.ExecuteSwapResult
	Rollback   *model.RollbackSwapResult
}

// ValidateSwap dry-runs a proposal against the schedule service. The result is
// advisory; the service checks again at execute time.
func ValidateSwap(ctx context.Context, service swaps.SwapService, identity access.Identity, logger *zap.Logger, proposal model.SwapProposal) (*SwapOutcome, error) {
	swap := swaps.NewSwapRequest(proposal)
	logger.Debug("Validating swap", zap.String("swap_id", swap.ID))

	validation, err := swaps.NewValidator(service, identity, logger).ValidateRequest(ctx, swap)
	if err != nil {
		return nil, fmt.Errorf("failed to validate swap: %w", err)
	}

	logger.Info("Swap validated",
		zap.Bool("valid", validation.Valid),
		zap.Int("error_count", len(validation.Errors)),
		zap.Int("warning_count", len(validation.Warnings)),
		zap.Bool("back_to_back", validation.BackToBackConflict))

	return &SwapOutcome{Swap: swap, Validation: validation}, nil
}

// ExecuteSwap commits a proposal. When opts.RequireValidation is set the
// proposal is validated first and an invalid proposal is not sent for
// execution.
func ExecuteSwap(ctx context.Context, service swaps.SwapService, identity access.Identity, notifier notify.Notifier, logger *zap.Logger, proposal model.SwapProposal, opts swaps.Options) (*SwapOutcome, error) {
	swap := swaps.NewSwapRequest(proposal)
	outcome := &SwapOutcome{Swap: swap}

	if opts.RequireValidation {
		validation, err := swaps.NewValidator(service, identity, logger).ValidateRequest(ctx, swap)
		if err != nil {
			return nil, fmt.Errorf("failed to validate swap: %w", err)
		}
		outcome.Validation = validation
		if !validation.Valid {
			logger.Info("Swap not executed, validation failed", zap.Strings("errors", validation.Errors))
			return outcome, nil
		}
	}

	result, err := swaps.NewExecutor(service, identity, logger, opts).Execute(ctx, swap)
	if err != nil {
		if swap.Status == model.SwapFailed {
			sendNotification(ctx, notifier, notify.SwapFailed(swap), logger)
		}
		return nil, fmt.Errorf("failed to execute swap: %w", err)
	}
	outcome.Execution = result

	if result.Success {
		sendNotification(ctx, notifier, notify.SwapExecuted(swap), logger)
	} else {
		sendNotification(ctx, notifier, notify.SwapFailed(swap), logger)
	}
	return outcome, nil
}

// RollbackSwap reverses an executed swap by id. The swap is looked up among
// executed swaps so the rollback window can be checked before calling the
// service.
func RollbackSwap(ctx context.Context, service swaps.SwapService, identity access.Identity, notifier notify.Notifier, logger *zap.Logger, swapID, reason string, opts swaps.Options) (*SwapOutcome, error) {
	executed, err := service.ListSwaps(ctx, model.SwapFilter{Status: model.SwapExecuted})
	if err != nil {
		return nil, fmt.Errorf("failed to list executed swaps: %w", err)
	}

	var swap *model.SwapRequest
	for i := range executed {
		if executed[i].ID == swapID {
			swap = &executed[i]
			break
		}
	}
	if swap == nil {
		return nil, fmt.Errorf("no executed swap with id %s", swapID)
	}

	result, err := swaps.NewExecutor(service, identity, logger, opts).Rollback(ctx, swap, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back swap: %w", err)
	}

	if result.Success {
		sendNotification(ctx, notifier, notify.SwapRolledBack(swap, reason), logger)
	}
	return &SwapOutcome{Swap: swap, Rollback: result}, nil
}

// ListSwaps lists swaps known to the schedule service
func ListSwaps(ctx context.Context, service swaps.SwapService, identity access.Identity, logger *zap.Logger, filter model.SwapFilter) ([]model.SwapRequest, error) {
	if err := access.Require(identity, access.ActionListSwaps); err != nil {
		return nil, err
	}

	logger.Debug("Listing swaps", zap.String("status", string(filter.Status)))
	result, err := service.ListSwaps(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps: %w", err)
	}

	logger.Debug("Listed swaps", zap.Int("count", len(result)))
	return result, nil
}
