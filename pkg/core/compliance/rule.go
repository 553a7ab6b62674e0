package compliance

import "github.com/jakechorley/residency-scheduler/pkg/core/model"

// Rule defines a single compliance check run by the Evaluator
type Rule interface {
	// Name returns a human-readable identifier for this rule
	Name() string

	// Type returns the warning category this rule reports under
	Type() model.WarningType

	// Evaluate inspects the context and returns a warning, or nil if the rule
	// is not triggered. A rule whose input fields are absent from the context
	// must return nil.
	Evaluate(ctx model.AssignmentContext) *model.Warning
}

// SessionOverride changes the duration of sessions that match AppliesTo
type SessionOverride struct {
	// AppliesTo reports whether the override covers the given date and session
	AppliesTo func(date, session string) bool

	// Hours is the session duration to use instead of the default
	Hours float64
}

const (
	// DefaultSessionHours is the duration of a standard half-day session
	DefaultSessionHours = 4.0

	// DefaultCriticalOverageHours is how far past the weekly limit a projection
	// may go before the hours warning becomes critical
	DefaultCriticalOverageHours = 8.0
)

// Config contains the tunables for rule evaluation
type Config struct {
	// SessionHours is the number of hours added by a single session
	SessionHours float64

	// CriticalOverageHours is the overage above which an hours warning is critical
	CriticalOverageHours float64

	// SessionOverrides replace SessionHours for matching sessions; the first match wins
	SessionOverrides []SessionOverride
}

// DefaultConfig returns the standard evaluation settings
func DefaultConfig() Config {
	return Config{
		SessionHours:         DefaultSessionHours,
		CriticalOverageHours: DefaultCriticalOverageHours,
	}
}

// sessionHoursFor returns the duration of the session on the given date
func (c Config) sessionHoursFor(date, session string) float64 {
	for _, override := range c.SessionOverrides {
		if override.AppliesTo != nil && override.AppliesTo(date, session) {
			return override.Hours
		}
	}
	return c.SessionHours
}
