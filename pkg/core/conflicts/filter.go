package conflicts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// ErrNoViolations is returned when a selection matches nothing
var ErrNoViolations = errors.New("no violations match the filter")

// FilterViolations returns the records that pass filter, in their original order
func FilterViolations(records []model.ViolationRecord, filter model.ViolationFilter) []model.ViolationRecord {
	filtered := make([]model.ViolationRecord, 0, len(records))
	for _, record := range records {
		if filter.Matches(record) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// SelectIDs lists violations from the service and returns the ids that pass filter.
// Already resolved violations are skipped unless the filter asks for them.
func (r *Resolver) SelectIDs(ctx context.Context, filter model.ViolationFilter) ([]string, error) {
	records, err := r.service.ListViolations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	if filter.Resolved == nil {
		unresolved := false
		filter.Resolved = &unresolved
	}

	selected := FilterViolations(records, filter)
	if len(selected) == 0 {
		return nil, ErrNoViolations
	}

	ids := make([]string, len(selected))
	for i, record := range selected {
		ids[i] = record.ID
	}
	return ids, nil
}
