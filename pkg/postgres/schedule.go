package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/residency-scheduler/pkg/db"
)

func (d *DB) GetFaculty(ctx context.Context, id string) (*db.Faculty, error) {
	var f db.Faculty
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, pgy_level, max_weekly_hours, requires_supervision
		FROM faculty
		WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.PGYLevel, &f.MaxWeeklyHours, &f.RequiresSupervision)
	if err != nil {
		return nil, notFound(err, "faculty", id)
	}
	return &f, nil
}

func (d *DB) GetAssignment(ctx context.Context, id string) (*db.Assignment, error) {
	var a db.Assignment
	var week time.Time
	var rotation *string
	err := d.pool.QueryRow(ctx, `
		SELECT id, faculty_id, week, rotation
		FROM assignment
		WHERE id = $1
	`, id).Scan(&a.ID, &a.FacultyID, &week, &rotation)
	if err != nil {
		return nil, notFound(err, "assignment", id)
	}
	a.Week = week.Format(dateLayout)
	if rotation != nil {
		a.Rotation = *rotation
	}
	return &a, nil
}

// GetFacultyAssignments returns the faculty member's assignments ordered by week
func (d *DB) GetFacultyAssignments(ctx context.Context, facultyID string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, faculty_id, week, rotation
		FROM assignment
		WHERE faculty_id = $1
		ORDER BY week, id
	`, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var week time.Time
		var rotation *string
		if err := rows.Scan(&a.ID, &a.FacultyID, &week, &rotation); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Week = week.Format(dateLayout)
		if rotation != nil {
			a.Rotation = *rotation
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func (d *DB) GetAbsences(ctx context.Context, facultyID string) ([]db.Absence, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, faculty_id, start_date, end_date, type
		FROM absence
		WHERE faculty_id = $1
		ORDER BY start_date
	`, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []db.Absence
	for rows.Next() {
		var a db.Absence
		var start, end time.Time
		if err := rows.Scan(&a.ID, &a.FacultyID, &start, &end, &a.Type); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		a.StartDate = start.Format(dateLayout)
		a.EndDate = end.Format(dateLayout)
		absences = append(absences, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating absences: %w", err)
	}

	return absences, nil
}

func (d *DB) UpdateAssignmentFaculty(ctx context.Context, assignmentID, facultyID string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE assignment SET faculty_id = $2 WHERE id = $1`, assignmentID, facultyID)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s: %w", assignmentID, db.ErrNotFound)
	}
	return nil
}
