package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/conflicts"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/notify"
)

// ViolationSummary is a violation listing with counts per severity
type ViolationSummary struct {
	Records    []model.ViolationRecord
	BySeverity map[model.Severity]int
}

// ListViolations lists violations matching filter, most severe first
func ListViolations(ctx context.Context, service conflicts.ViolationService, identity access.Identity, logger *zap.Logger, filter model.ViolationFilter) (*ViolationSummary, error) {
	if err := access.Require(identity, access.ActionListViolations); err != nil {
		return nil, err
	}

	records, err := service.ListViolations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	// The service may not filter every field
	records = conflicts.FilterViolations(records, filter)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Severity.Rank() < records[j].Severity.Rank()
	})

	summary := &ViolationSummary{Records: records, BySeverity: map[model.Severity]int{}}
	for _, r := range records {
		summary.BySeverity[r.Severity]++
	}

	logger.Debug("Listed violations", zap.Int("count", len(records)))
	return summary, nil
}

// ResolveRequest selects violations by id, or by filter when IDs is empty
type ResolveRequest struct {
	IDs    []string
	Filter model.ViolationFilter
	Method model.ResolutionMethod
	Reason string
}

// ResolveViolations resolves or ignores a batch of violations in chunks. A
// partially successful batch is returned without an error; its RetryableIDs
// can be passed to RetryResolution.
func ResolveViolations(ctx context.Context, service conflicts.ViolationService, identity access.Identity, notifier notify.Notifier, logger *zap.Logger, req ResolveRequest, opts conflicts.Options) (*model.BatchResolutionResult, error) {
	resolver := conflicts.NewResolver(service, identity, logger, opts)

	ids := req.IDs
	if len(ids) == 0 {
		logger.Debug("Selecting violations by filter",
			zap.String("severity", string(req.Filter.Severity)),
			zap.String("type", string(req.Filter.Type)))

		selected, err := resolver.SelectIDs(ctx, req.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to select violations: %w", err)
		}
		ids = selected
	}

	result, err := resolver.Resolve(ctx, ids, req.Method, req.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve violations: %w", err)
	}

	sendNotification(ctx, notifier, notify.BatchCompleted(result), logger)
	return result, nil
}

// RetryResolution re-submits the retryable ids of an earlier batch with the
// same method and reason
func RetryResolution(ctx context.Context, service conflicts.ViolationService, identity access.Identity, notifier notify.Notifier, logger *zap.Logger, previous *model.BatchResolutionResult, opts conflicts.Options) (*model.BatchResolutionResult, error) {
	result, err := conflicts.NewResolver(service, identity, logger, opts).Retry(ctx, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to retry resolution: %w", err)
	}

	sendNotification(ctx, notifier, notify.BatchCompleted(result), logger)
	return result, nil
}

// SaveReport writes a batch result as JSON so a later run can retry it
func SaveReport(path string, result *model.BatchResolutionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// LoadReport reads a batch result written by SaveReport
func LoadReport(path string) (*model.BatchResolutionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var result model.BatchResolutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &result, nil
}
