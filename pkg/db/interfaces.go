package db

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyResolved is returned when resolving a violation that is already resolved
	ErrAlreadyResolved = errors.New("violation already resolved")

	// ErrStaleSwap is returned when the assignments a swap moves no longer
	// belong to the expected faculty
	ErrStaleSwap = errors.New("assignments changed since the swap was checked")
)

// ScheduleStore reads faculty, assignments and absences
type ScheduleStore interface {
	GetFaculty(ctx context.Context, id string) (*Faculty, error)
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	GetFacultyAssignments(ctx context.Context, facultyID string) ([]Assignment, error)
	GetAbsences(ctx context.Context, facultyID string) ([]Absence, error)
	UpdateAssignmentFaculty(ctx context.Context, assignmentID, facultyID string) error
}

// SwapStore persists swaps. ApplySwap and RevertSwap move assignments and
// update the swap record atomically.
type SwapStore interface {
	ApplySwap(ctx context.Context, swap *Swap) error
	RevertSwap(ctx context.Context, swapID string, rolledBackAt time.Time, reason string) error
	GetSwap(ctx context.Context, id string) (*Swap, error)
	ListSwaps(ctx context.Context, status string) ([]Swap, error)
}

// ViolationStore persists violation records
type ViolationStore interface {
	InsertViolation(ctx context.Context, v *Violation) error
	GetViolation(ctx context.Context, id string) (*Violation, error)
	ListViolations(ctx context.Context) ([]Violation, error)
	ResolveViolation(ctx context.Context, id string, resolution Resolution) error
}

// Store is implemented by MemoryStore and postgres.DB
type Store interface {
	ScheduleStore
	SwapStore
	ViolationStore
}
