package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/residency-scheduler/pkg/db"
)

// LoadSeed upserts seed content. Existing swaps are untouched.
func (d *DB) LoadSeed(ctx context.Context, seed *db.Seed) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for _, f := range seed.Faculty {
			batch.Queue(`
				INSERT INTO faculty (id, name, pgy_level, max_weekly_hours, requires_supervision)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, pgy_level = EXCLUDED.pgy_level,
					max_weekly_hours = EXCLUDED.max_weekly_hours, requires_supervision = EXCLUDED.requires_supervision
			`, f.ID, f.Name, f.PGYLevel, f.MaxWeeklyHours, f.RequiresSupervision)
		}

		for _, a := range seed.Assignments {
			batch.Queue(`
				INSERT INTO assignment (id, faculty_id, week, rotation)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET faculty_id = EXCLUDED.faculty_id, week = EXCLUDED.week, rotation = EXCLUDED.rotation
			`, a.ID, a.FacultyID, a.Week, nullable(a.Rotation))
		}

		for _, a := range seed.Absences {
			batch.Queue(`
				INSERT INTO absence (id, faculty_id, start_date, end_date, type)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO NOTHING
			`, a.ID, a.FacultyID, a.StartDate, a.EndDate, a.Type)
		}

		for _, v := range seed.Violations {
			batch.Queue(`
				INSERT INTO violation (id, type, severity, person_id, date, message, resolved)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO NOTHING
			`, v.ID, string(v.Type), string(v.Severity), nullable(v.PersonID), nullable(v.Date), nullable(v.Message), v.Resolved)
		}

		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to load seed statement %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to load seed: %w", err)
		}
		return nil
	})
}
