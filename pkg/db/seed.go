package db

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content of a store, loaded from YAML
type Seed struct {
	Faculty     []Faculty    `yaml:"faculty"`
	Assignments []Assignment `yaml:"assignments"`
	Absences    []Absence    `yaml:"absences"`
	Violations  []Violation  `yaml:"violations"`
}

// LoadSeed reads a seed file
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Load replaces the schedule content of the store with seed. Swaps are kept.
func (m *MemoryStore) Load(ctx context.Context, seed *Seed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.faculty = make(map[string]Faculty, len(seed.Faculty))
	for _, f := range seed.Faculty {
		m.faculty[f.ID] = f
	}

	m.assignments = make(map[string]Assignment, len(seed.Assignments))
	for _, a := range seed.Assignments {
		if _, dup := m.assignments[a.ID]; dup {
			return fmt.Errorf("duplicate assignment id %s in seed", a.ID)
		}
		m.assignments[a.ID] = a
	}

	m.absences = append([]Absence(nil), seed.Absences...)

	m.violations = make(map[string]Violation, len(seed.Violations))
	for _, v := range seed.Violations {
		m.violations[v.ID] = v
	}
	return nil
}
