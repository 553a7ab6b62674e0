package db

import (
	"time"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// Faculty is a resident or faculty member who holds block-week assignments
type Faculty struct {
	ID                  string  `yaml:"id"`
	Name                string  `yaml:"name"`
	PGYLevel            int     `yaml:"pgyLevel,omitempty"`
	MaxWeeklyHours      float64 `yaml:"maxWeeklyHours,omitempty"`
	RequiresSupervision bool    `yaml:"requiresSupervision,omitempty"`
}

// Assignment places a faculty member on a rotation for the week starting Week
type Assignment struct {
	ID        string `yaml:"id"`
	FacultyID string `yaml:"facultyId"`
	Week      string `yaml:"week"`
	Rotation  string `yaml:"rotation,omitempty"`
}

func (a Assignment) ToModel() model.Assignment {
	return model.Assignment{ID: a.ID, FacultyID: a.FacultyID, Week: a.Week, Rotation: a.Rotation}
}

// Absence is leave, inclusive of both dates
type Absence struct {
	ID        string `yaml:"id"`
	FacultyID string `yaml:"facultyId"`
	StartDate string `yaml:"startDate"`
	EndDate   string `yaml:"endDate"`
	Type      string `yaml:"type"`
}

func (a Absence) ToModel() model.Absence {
	return model.Absence{StartDate: a.StartDate, EndDate: a.EndDate, Type: a.Type}
}

// Swap is a persisted swap. SourceAssignmentID and TargetAssignmentID record
// which assignments moved so the swap can be reverted exactly.
type Swap struct {
	ID                 string
	SourceFacultyID    string
	SourceWeek         string
	TargetFacultyID    string
	TargetWeek         string
	SwapType           model.SwapType
	Reason             string
	Status             model.SwapStatus
	SourceAssignmentID string
	TargetAssignmentID string
	CreatedBy          string
	ExecutedAt         *time.Time
	RolledBackAt       *time.Time
	RollbackReason     string
}

func (s Swap) ToModel() model.SwapRequest {
	return model.SwapRequest{
		ID: s.ID,
		SwapProposal: model.SwapProposal{
			SourceFacultyID: s.SourceFacultyID,
			SourceWeek:      s.SourceWeek,
			TargetFacultyID: s.TargetFacultyID,
			TargetWeek:      s.TargetWeek,
			SwapType:        s.SwapType,
			Reason:          s.Reason,
		},
		Status:       s.Status,
		ExecutedAt:   s.ExecutedAt,
		RolledBackAt: s.RolledBackAt,
		Message:      s.RollbackReason,
	}
}

// Violation is a detected rule breach
type Violation struct {
	ID               string                 `yaml:"id"`
	Type             model.WarningType      `yaml:"type"`
	Severity         model.Severity         `yaml:"severity"`
	PersonID         string                 `yaml:"personId,omitempty"`
	Date             string                 `yaml:"date,omitempty"`
	Message          string                 `yaml:"message,omitempty"`
	Resolved         bool                   `yaml:"resolved,omitempty"`
	ResolutionMethod model.ResolutionMethod `yaml:"resolutionMethod,omitempty"`
	ResolutionReason string                 `yaml:"resolutionReason,omitempty"`
	ResolvedBy       string                 `yaml:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time             `yaml:"resolvedAt,omitempty"`
}

func (v Violation) ToModel() model.ViolationRecord {
	return model.ViolationRecord{
		ID:               v.ID,
		Type:             v.Type,
		Severity:         v.Severity,
		Resolved:         v.Resolved,
		ResolutionMethod: v.ResolutionMethod,
		PersonID:         v.PersonID,
		Date:             v.Date,
		Message:          v.Message,
	}
}

// Resolution marks a violation as resolved
type Resolution struct {
	Method     model.ResolutionMethod
	Reason     string
	ResolvedBy string
	ResolvedAt time.Time
}
