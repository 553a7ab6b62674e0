package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

const swapColumns = `
	id, source_faculty_id, source_week, target_faculty_id, target_week, swap_type, reason, status,
	source_assignment_id, target_assignment_id, created_by, executed_at, rolled_back_at, rollback_reason`

// lockAssignment selects the assignment for faculty and week and locks it for the transaction
func lockAssignment(ctx context.Context, tx pgx.Tx, facultyID, week string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT id FROM assignment
		WHERE faculty_id = $1 AND week = $2
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, facultyID, week).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", db.ErrStaleSwap
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock assignment: %w", err)
	}
	return id, nil
}

// moveAssignment reassigns id from one faculty member to another, failing if it has moved since
func moveAssignment(ctx context.Context, tx pgx.Tx, id, from, to string) error {
	tag, err := tx.Exec(ctx, `UPDATE assignment SET faculty_id = $3 WHERE id = $1 AND faculty_id = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to move assignment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s: %w", id, db.ErrStaleSwap)
	}
	return nil
}

func (d *DB) ApplySwap(ctx context.Context, swap *db.Swap) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := lockAssignment(ctx, tx, swap.SourceFacultyID, swap.SourceWeek)
		if err != nil {
			return fmt.Errorf("source assignment: %w", err)
		}

		var targetID string
		if swap.SwapType == model.SwapOneToOne {
			targetID, err = lockAssignment(ctx, tx, swap.TargetFacultyID, swap.TargetWeek)
			if err != nil {
				return fmt.Errorf("target assignment: %w", err)
			}
		}

		if err := moveAssignment(ctx, tx, sourceID, swap.SourceFacultyID, swap.TargetFacultyID); err != nil {
			return err
		}
		if targetID != "" {
			if err := moveAssignment(ctx, tx, targetID, swap.TargetFacultyID, swap.SourceFacultyID); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO swap (`+swapColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, swap.ID, swap.SourceFacultyID, swap.SourceWeek, swap.TargetFacultyID, nullable(swap.TargetWeek),
			string(swap.SwapType), nullable(swap.Reason), string(swap.Status),
			sourceID, nullable(targetID), nullable(swap.CreatedBy), swap.ExecutedAt, swap.RolledBackAt, nullable(swap.RollbackReason))
		if err != nil {
			return fmt.Errorf("failed to insert swap: %w", err)
		}

		swap.SourceAssignmentID = sourceID
		swap.TargetAssignmentID = targetID
		return nil
	})
}

func (d *DB) RevertSwap(ctx context.Context, swapID string, rolledBackAt time.Time, reason string) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		swap, err := scanSwap(tx.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap WHERE id = $1 FOR UPDATE`, swapID))
		if err != nil {
			return notFound(err, "swap", swapID)
		}
		if swap.Status != model.SwapExecuted {
			return fmt.Errorf("swap %s is %s: %w", swapID, swap.Status, model.ErrIllegalTransition)
		}

		if err := moveAssignment(ctx, tx, swap.SourceAssignmentID, swap.TargetFacultyID, swap.SourceFacultyID); err != nil {
			return err
		}
		if swap.TargetAssignmentID != "" {
			if err := moveAssignment(ctx, tx, swap.TargetAssignmentID, swap.SourceFacultyID, swap.TargetFacultyID); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE swap SET status = $2, rolled_back_at = $3, rollback_reason = $4
			WHERE id = $1
		`, swapID, string(model.SwapRolledBack), rolledBackAt, nullable(reason))
		if err != nil {
			return fmt.Errorf("failed to update swap: %w", err)
		}
		return nil
	})
}

func (d *DB) GetSwap(ctx context.Context, id string) (*db.Swap, error) {
	swap, err := scanSwap(d.pool.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "swap", id)
	}
	return swap, nil
}

// ListSwaps returns swaps with the given status, or all swaps when status is
// empty, most recently executed first
func (d *DB) ListSwaps(ctx context.Context, status string) ([]db.Swap, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+swapColumns+`
		FROM swap
		WHERE $1 = '' OR status = $1
		ORDER BY executed_at DESC NULLS LAST, id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query swaps: %w", err)
	}
	defer rows.Close()

	var swaps []db.Swap
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swap: %w", err)
		}
		swaps = append(swaps, *swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swaps: %w", err)
	}

	return swaps, nil
}

func scanSwap(row pgx.Row) (*db.Swap, error) {
	var s db.Swap
	var sourceWeek time.Time
	var targetWeek *time.Time
	var swapType, status string
	var reason, sourceAssignmentID, targetAssignmentID, createdBy, rollbackReason *string

	err := row.Scan(&s.ID, &s.SourceFacultyID, &sourceWeek, &s.TargetFacultyID, &targetWeek, &swapType, &reason, &status,
		&sourceAssignmentID, &targetAssignmentID, &createdBy, &s.ExecutedAt, &s.RolledBackAt, &rollbackReason)
	if err != nil {
		return nil, err
	}

	s.SourceWeek = sourceWeek.Format(dateLayout)
	if targetWeek != nil {
		s.TargetWeek = targetWeek.Format(dateLayout)
	}
	s.SwapType = model.SwapType(swapType)
	s.Status = model.SwapStatus(status)
	s.Reason = deref(reason)
	s.SourceAssignmentID = deref(sourceAssignmentID)
	s.TargetAssignmentID = deref(targetAssignmentID)
	s.CreatedBy = deref(createdBy)
	s.RollbackReason = deref(rollbackReason)
	return &s, nil
}

// nullable stores empty strings as NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
