package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// MemoryStore is an in-process Store used for local runs and tests
type MemoryStore struct {
	mu          sync.RWMutex
	faculty     map[string]Faculty
	assignments map[string]Assignment
	absences    []Absence
	swaps       map[string]Swap
	violations  map[string]Violation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		faculty:     map[string]Faculty{},
		assignments: map[string]Assignment{},
		swaps:       map[string]Swap{},
		violations:  map[string]Violation{},
	}
}

func (m *MemoryStore) GetFaculty(ctx context.Context, id string) (*Faculty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.faculty[id]
	if !ok {
		return nil, fmt.Errorf("faculty %s: %w", id, ErrNotFound)
	}
	return &f, nil
}

func (m *MemoryStore) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assignments[id]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return &a, nil
}

// GetFacultyAssignments returns the faculty member's assignments ordered by week
func (m *MemoryStore) GetFacultyAssignments(ctx context.Context, facultyID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Assignment
	for _, a := range m.assignments {
		if a.FacultyID == facultyID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Week != result[j].Week {
			return result[i].Week < result[j].Week
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) GetAbsences(ctx context.Context, facultyID string) ([]Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Absence
	for _, a := range m.absences {
		if a.FacultyID == facultyID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MemoryStore) UpdateAssignmentFaculty(ctx context.Context, assignmentID, facultyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assignments[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	a.FacultyID = facultyID
	m.assignments[assignmentID] = a
	return nil
}

// findAssignment must be called with the lock held
func (m *MemoryStore) findAssignment(facultyID, week string) (Assignment, bool) {
	for _, a := range m.assignments {
		if a.FacultyID == facultyID && a.Week == week {
			return a, true
		}
	}
	return Assignment{}, false
}

func (m *MemoryStore) ApplySwap(ctx context.Context, swap *Swap) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.swaps[swap.ID]; exists {
		return fmt.Errorf("swap %s already exists", swap.ID)
	}

	source, ok := m.findAssignment(swap.SourceFacultyID, swap.SourceWeek)
	if !ok {
		return fmt.Errorf("source assignment: %w", ErrStaleSwap)
	}

	var target Assignment
	if swap.SwapType == model.SwapOneToOne {
		target, ok = m.findAssignment(swap.TargetFacultyID, swap.TargetWeek)
		if !ok {
			return fmt.Errorf("target assignment: %w", ErrStaleSwap)
		}
	}

	// All checks pass before anything is written
	source.FacultyID = swap.TargetFacultyID
	m.assignments[source.ID] = source
	swap.SourceAssignmentID = source.ID

	if target.ID != "" {
		target.FacultyID = swap.SourceFacultyID
		m.assignments[target.ID] = target
		swap.TargetAssignmentID = target.ID
	}

	m.swaps[swap.ID] = *swap
	return nil
}

func (m *MemoryStore) RevertSwap(ctx context.Context, swapID string, rolledBackAt time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	swap, ok := m.swaps[swapID]
	if !ok {
		return fmt.Errorf("swap %s: %w", swapID, ErrNotFound)
	}
	if swap.Status != model.SwapExecuted {
		return fmt.Errorf("swap %s is %s: %w", swapID, swap.Status, model.ErrIllegalTransition)
	}

	source, ok := m.assignments[swap.SourceAssignmentID]
	if !ok || source.FacultyID != swap.TargetFacultyID {
		return fmt.Errorf("source assignment: %w", ErrStaleSwap)
	}

	var target Assignment
	if swap.TargetAssignmentID != "" {
		target, ok = m.assignments[swap.TargetAssignmentID]
		if !ok || target.FacultyID != swap.SourceFacultyID {
			return fmt.Errorf("target assignment: %w", ErrStaleSwap)
		}
	}

	source.FacultyID = swap.SourceFacultyID
	m.assignments[source.ID] = source
	if target.ID != "" {
		target.FacultyID = swap.TargetFacultyID
		m.assignments[target.ID] = target
	}

	swap.Status = model.SwapRolledBack
	swap.RolledBackAt = &rolledBackAt
	swap.RollbackReason = reason
	m.swaps[swapID] = swap
	return nil
}

func (m *MemoryStore) GetSwap(ctx context.Context, id string) (*Swap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.swaps[id]
	if !ok {
		return nil, fmt.Errorf("swap %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

// ListSwaps returns swaps with the given status, or all swaps when status is
// empty, most recently executed first
func (m *MemoryStore) ListSwaps(ctx context.Context, status string) ([]Swap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Swap
	for _, s := range m.swaps {
		if status == "" || string(s.Status) == status {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].ExecutedAt, result[j].ExecutedAt
		if ti != nil && tj != nil && !ti.Equal(*tj) {
			return ti.After(*tj)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) InsertViolation(ctx context.Context, v *Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.violations[v.ID]; exists {
		return fmt.Errorf("violation %s already exists", v.ID)
	}
	m.violations[v.ID] = *v
	return nil
}

func (m *MemoryStore) GetViolation(ctx context.Context, id string) (*Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.violations[id]
	if !ok {
		return nil, fmt.Errorf("violation %s: %w", id, ErrNotFound)
	}
	return &v, nil
}

// ListViolations returns every violation ordered by severity, then id
func (m *MemoryStore) ListViolations(ctx context.Context) ([]Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Violation, 0, len(m.violations))
	for _, v := range m.violations {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].Severity.Rank(), result[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) ResolveViolation(ctx context.Context, id string, resolution Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.violations[id]
	if !ok {
		return fmt.Errorf("violation %s: %w", id, ErrNotFound)
	}
	if v.Resolved {
		return fmt.Errorf("violation %s: %w", id, ErrAlreadyResolved)
	}

	resolvedAt := resolution.ResolvedAt
	v.Resolved = true
	v.ResolutionMethod = resolution.Method
	v.ResolutionReason = resolution.Reason
	v.ResolvedBy = resolution.ResolvedBy
	v.ResolvedAt = &resolvedAt
	m.violations[id] = v
	return nil
}
