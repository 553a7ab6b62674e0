package model

import "time"

// ExistingAssignment is an assignment the person already holds
type ExistingAssignment struct {
	Date         string `json:"date" yaml:"date"`
	Session      string `json:"session" yaml:"session"`
	RotationName string `json:"rotationName,omitempty" yaml:"rotationName,omitempty"`
}

// Absence is a leave period, inclusive of both ends
type Absence struct {
	StartDate string `json:"startDate" yaml:"startDate"`
	EndDate   string `json:"endDate" yaml:"endDate"`
	Type      string `json:"type" yaml:"type"`
}

// AssignmentContext describes a proposed or existing assignment for rule evaluation.
// Every optional field is nil when unknown; a rule only runs when its fields are present.
type AssignmentContext struct {
	PersonID   string `json:"personId" yaml:"personId"`
	PersonName string `json:"personName,omitempty" yaml:"personName,omitempty"`
	Date       string `json:"date" yaml:"date"`
	Session    string `json:"session" yaml:"session"`

	WeeklyHours    *float64 `json:"weeklyHours,omitempty" yaml:"weeklyHours,omitempty"`
	MaxWeeklyHours *float64 `json:"maxWeeklyHours,omitempty" yaml:"maxWeeklyHours,omitempty"`

	RequiresSupervision *bool `json:"requiresSupervision,omitempty" yaml:"requiresSupervision,omitempty"`
	HasSupervisor       *bool `json:"hasSupervisor,omitempty" yaml:"hasSupervisor,omitempty"`

	ExistingAssignments []ExistingAssignment `json:"existingAssignments,omitempty" yaml:"existingAssignments,omitempty"`
	Absences            []Absence            `json:"absences,omitempty" yaml:"absences,omitempty"`

	RotationCapacity     *int `json:"rotationCapacity,omitempty" yaml:"rotationCapacity,omitempty"`
	CurrentRotationCount *int `json:"currentRotationCount,omitempty" yaml:"currentRotationCount,omitempty"`
}

// Warning is a severity-tagged finding from the rule evaluator.
// Warnings are recomputed on every evaluation and never persisted.
type Warning struct {
	Type     WarningType `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
}

// SwapProposal holds the operator-supplied fields of a swap
type SwapProposal struct {
	SourceFacultyID string   `json:"sourceFacultyId" validate:"required"`
	SourceWeek      string   `json:"sourceWeek" validate:"required"`
	TargetFacultyID string   `json:"targetFacultyId" validate:"required"`
	TargetWeek      string   `json:"targetWeek,omitempty" validate:"required_if=SwapType one_to_one"`
	SwapType        SwapType `json:"swapType" enum:"one_to_one,absorb" validate:"required,oneof=one_to_one absorb"`
	Reason          string   `json:"reason,omitempty"`
}

// SwapRequest is the client's working copy of a swap.
// The persistence service owns the record; status only changes through the executor.
type SwapRequest struct {
	ID string `json:"id"`
	SwapProposal
	Status       SwapStatus `json:"status"`
	ExecutedAt   *time.Time `json:"executedAt,omitempty"`
	RolledBackAt *time.Time `json:"rolledBackAt,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// SwapValidationResult is the advisory outcome of a dry run
type SwapValidationResult struct {
	Valid              bool     `json:"valid"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	BackToBackConflict bool     `json:"backToBackConflict"`
	ExternalConflict   string   `json:"externalConflict,omitempty"`
}

// ExecuteSwapResult is the outcome of an execute mutation
type ExecuteSwapResult struct {
	Success bool   `json:"success"`
	SwapID  string `json:"swapId,omitempty"`
	Message string `json:"message,omitempty"`
}

// RollbackSwapRequest is the body of a rollback mutation
type RollbackSwapRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RollbackSwapResult is the outcome of a rollback mutation
type RollbackSwapResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SwapFilter narrows a swap listing
type SwapFilter struct {
	Status SwapStatus
}

// ViolationRecord is a detected rule breach awaiting resolution
type ViolationRecord struct {
	ID               string           `json:"id"`
	Type             WarningType      `json:"type"`
	Severity         Severity         `json:"severity"`
	Resolved         bool             `json:"resolved"`
	ResolutionMethod ResolutionMethod `json:"resolutionMethod,omitempty"`
	PersonID         string           `json:"personId,omitempty"`
	Date             string           `json:"date,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// ViolationFilter selects violations by severity, type and resolution state.
// Zero values match everything.
type ViolationFilter struct {
	Severity Severity
	Type     WarningType
	Resolved *bool
}

// Matches reports whether the record passes the filter
func (f ViolationFilter) Matches(v ViolationRecord) bool {
	if f.Severity != "" && v.Severity != f.Severity {
		return false
	}
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	if f.Resolved != nil && v.Resolved != *f.Resolved {
		return false
	}
	return true
}

// BatchResolveRequest is the body of a batch-resolve mutation
type BatchResolveRequest struct {
	ConflictIDs      []string         `json:"conflictIds"`
	ResolutionMethod ResolutionMethod `json:"resolutionMethod" enum:"auto_resolved,ignored"`
}

// BatchIgnoreRequest is the body of a batch-ignore mutation
type BatchIgnoreRequest struct {
	ConflictIDs []string `json:"conflictIds"`
	Reason      string   `json:"reason"`
}

// BatchItemResult is the outcome for a single violation in a batch
type BatchItemResult struct {
	ConflictID string `json:"conflictId"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// BatchResolutionResult reports a batch that may have partially completed.
// Total always equals Successful + Failed. Results is populated, in submission
// order, on the auto-resolve path only.
type BatchResolutionResult struct {
	Total        int               `json:"total"`
	Successful   int               `json:"successful"`
	Failed       int               `json:"failed"`
	Results      []BatchItemResult `json:"results,omitempty"`
	Method       ResolutionMethod  `json:"method,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	RetryableIDs []string          `json:"retryableIds,omitempty"`
}

// BatchIgnoreResult carries only aggregate counts
type BatchIgnoreResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Assignment is a faculty member's block-week assignment
type Assignment struct {
	ID        string `json:"id"`
	FacultyID string `json:"facultyId"`
	Week      string `json:"week"`
	Rotation  string `json:"rotation,omitempty"`
}

// AssignmentUpdate is the body of a direct assignment edit
type AssignmentUpdate struct {
	FacultyID string `json:"facultyId"`
}
