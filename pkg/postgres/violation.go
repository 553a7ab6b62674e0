package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

const violationColumns = `
	id, type, severity, person_id, date, message, resolved, resolution_method, resolution_reason, resolved_by, resolved_at`

func (d *DB) InsertViolation(ctx context.Context, v *db.Violation) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO violation (`+violationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, v.ID, string(v.Type), string(v.Severity), nullable(v.PersonID), nullable(v.Date), nullable(v.Message),
		v.Resolved, nullable(string(v.ResolutionMethod)), nullable(v.ResolutionReason), nullable(v.ResolvedBy), v.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}
	return nil
}

func (d *DB) GetViolation(ctx context.Context, id string) (*db.Violation, error) {
	v, err := scanViolation(d.pool.QueryRow(ctx, `SELECT `+violationColumns+` FROM violation WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "violation", id)
	}
	return v, nil
}

// ListViolations returns every violation ordered by severity, then id
func (d *DB) ListViolations(ctx context.Context) ([]db.Violation, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+violationColumns+`
		FROM violation
		ORDER BY CASE severity WHEN 'critical' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var violations []db.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		violations = append(violations, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violations: %w", err)
	}

	return violations, nil
}

// ResolveViolation marks an unresolved violation as resolved
func (d *DB) ResolveViolation(ctx context.Context, id string, resolution db.Resolution) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE violation
		SET resolved = TRUE, resolution_method = $2, resolution_reason = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND NOT resolved
	`, id, string(resolution.Method), nullable(resolution.Reason), nullable(resolution.ResolvedBy), resolution.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve violation: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing updated: tell missing and already resolved apart
	if _, err := d.GetViolation(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("violation %s: %w", id, db.ErrAlreadyResolved)
}

func scanViolation(row pgx.Row) (*db.Violation, error) {
	var v db.Violation
	var violationType, severity string
	var personID, message, method, reason, resolvedBy *string
	var date *time.Time

	err := row.Scan(&v.ID, &violationType, &severity, &personID, &date, &message, &v.Resolved,
		&method, &reason, &resolvedBy, &v.ResolvedAt)
	if err != nil {
		return nil, err
	}

	v.Type = model.WarningType(violationType)
	v.Severity = model.Severity(severity)
	v.PersonID = deref(personID)
	if date != nil {
		v.Date = date.Format(dateLayout)
	}
	v.Message = deref(message)
	v.ResolutionMethod = model.ResolutionMethod(deref(method))
	v.ResolutionReason = deref(reason)
	v.ResolvedBy = deref(resolvedBy)
	return &v, nil
}
