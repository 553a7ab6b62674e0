package model

import "sort"

// WarningType identifies which compliance rule produced a warning
type WarningType string

const (
	WarningHours       WarningType = "hours"
	WarningSupervision WarningType = "supervision"
	WarningConflict    WarningType = "conflict"
	WarningAbsence     WarningType = "absence"
	WarningCapacity    WarningType = "capacity"
)

func (t WarningType) IsValid() bool {
	switch t {
	case WarningHours, WarningSupervision, WarningConflict, WarningAbsence, WarningCapacity:
		return true
	}
	return false
}

// Severity is the impact level of a warning or violation
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) IsValid() bool {
	return s == SeverityCritical || s == SeverityWarning || s == SeverityInfo
}

// Rank orders severities for display: critical(0) < warning(1) < info(2).
// Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// SortWarningsBySeverity returns a copy of warnings ordered by severity rank.
// The sort is stable, so warnings of equal severity keep their rule order.
func SortWarningsBySeverity(warnings []Warning) []Warning {
	sorted := make([]Warning, len(warnings))
	copy(sorted, warnings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})
	return sorted
}

// SwapType distinguishes a paired exchange from a one-directional transfer
type SwapType string

const (
	SwapOneToOne SwapType = "one_to_one"
	SwapAbsorb   SwapType = "absorb"
)

func (t SwapType) IsValid() bool {
	return t == SwapOneToOne || t == SwapAbsorb
}

// SwapStatus is the lifecycle state of a swap request
type SwapStatus string

const (
	SwapProposed   SwapStatus = "proposed"
	SwapValidated  SwapStatus = "validated"
	SwapExecuted   SwapStatus = "executed"
	SwapRolledBack SwapStatus = "rolled_back"
	SwapFailed     SwapStatus = "failed"
)

func (s SwapStatus) IsValid() bool {
	switch s {
	case SwapProposed, SwapValidated, SwapExecuted, SwapRolledBack, SwapFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
// Executed swaps become terminal once their rollback window closes, which
// depends on time and is checked by the executor instead.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapRolledBack || s == SwapFailed
}

// ResolutionMethod is the policy applied to a batch of violations
type ResolutionMethod string

const (
	ResolutionAutoResolved ResolutionMethod = "auto_resolved"
	ResolutionIgnored      ResolutionMethod = "ignored"
)

func (m ResolutionMethod) IsValid() bool {
	return m == ResolutionAutoResolved || m == ResolutionIgnored
}
