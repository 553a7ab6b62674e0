package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

func (e *Engine) ListViolations(ctx context.Context, filter model.ViolationFilter) ([]model.ViolationRecord, error) {
	records, err := e.store.ListViolations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	result := make([]model.ViolationRecord, 0, len(records))
	for _, record := range records {
		if v := record.ToModel(); filter.Matches(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

// BatchResolveViolations resolves each violation independently and reports
// the outcome per item in submission order
func (e *Engine) BatchResolveViolations(ctx context.Context, req model.BatchResolveRequest) (*model.BatchResolutionResult, error) {
	if len(req.ConflictIDs) == 0 {
		return nil, &model.ValidationError{Fields: []string{"conflictIds"}, Message: "no violations selected"}
	}
	if !req.ResolutionMethod.IsValid() {
		return nil, &model.ValidationError{Fields: []string{"resolutionMethod"}, Message: "invalid resolution method"}
	}

	result := &model.BatchResolutionResult{
		Total:   len(req.ConflictIDs),
		Results: make([]model.BatchItemResult, 0, len(req.ConflictIDs)),
		Method:  req.ResolutionMethod,
	}
	for _, id := range req.ConflictIDs {
		item := e.resolveOne(ctx, id, req.ResolutionMethod, "")
		if item.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	e.logger.Info("Resolved violations",
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

// BatchIgnoreViolations marks each violation ignored with a shared reason.
// Only aggregate counts are returned.
func (e *Engine) BatchIgnoreViolations(ctx context.Context, req model.BatchIgnoreRequest) (*model.BatchIgnoreResult, error) {
	if len(req.ConflictIDs) == 0 {
		return nil, &model.ValidationError{Fields: []string{"conflictIds"}, Message: "no violations selected"}
	}
	if req.Reason == "" {
		return nil, &model.ValidationError{Fields: []string{"reason"}, Message: "a reason is required to ignore violations"}
	}

	result := &model.BatchIgnoreResult{}
	for _, id := range req.ConflictIDs {
		if e.resolveOne(ctx, id, model.ResolutionIgnored, req.Reason).Success {
			result.Success++
		} else {
			result.Failed++
		}
	}

	e.logger.Info("Ignored violations", zap.Int("success", result.Success), zap.Int("failed", result.Failed), zap.String("reason", req.Reason))
	return result, nil
}

func (e *Engine) resolveOne(ctx context.Context, id string, method model.ResolutionMethod, reason string) model.BatchItemResult {
	if err := ctx.Err(); err != nil {
		return model.BatchItemResult{ConflictID: id, Message: "not attempted"}
	}

	err := e.store.ResolveViolation(ctx, id, db.Resolution{
		Method:     method,
		Reason:     reason,
		ResolvedBy: actor(ctx),
		ResolvedAt: e.now(),
	})
	switch {
	case err == nil:
		return model.BatchItemResult{ConflictID: id, Success: true, Message: "resolved"}
	case errors.Is(err, db.ErrNotFound):
		return model.BatchItemResult{ConflictID: id, Message: "violation not found"}
	case errors.Is(err, db.ErrAlreadyResolved):
		return model.BatchItemResult{ConflictID: id, Message: "violation already resolved"}
	default:
		e.logger.Warn("Failed to resolve violation", zap.String("violation_id", id), zap.Error(err))
		return model.BatchItemResult{ConflictID: id, Message: err.Error()}
	}
}
