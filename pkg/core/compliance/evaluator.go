package compliance

import "github.com/jakechorley/residency-scheduler/pkg/core/model"

// Evaluator runs the compliance rules against an assignment context.
// It has no side effects and is safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an Evaluator with the rules in their fixed order:
// hours, supervision, conflict, absence, capacity
func NewEvaluator(cfg Config) *Evaluator {
	if cfg.SessionHours <= 0 {
		cfg.SessionHours = DefaultSessionHours
	}
	if cfg.CriticalOverageHours < 0 {
		cfg.CriticalOverageHours = DefaultCriticalOverageHours
	}

	return &Evaluator{
		rules: []Rule{
			NewHoursRule(cfg),
			NewSupervisionRule(),
			NewConflictRule(),
			NewAbsenceRule(),
			NewCapacityRule(),
		},
	}
}

// Rules returns the rules in evaluation order
func (e *Evaluator) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// GenerateWarnings evaluates every rule and returns the triggered warnings in rule order.
// Each rule contributes at most one warning. The result is empty, never nil, when
// nothing is triggered.
func (e *Evaluator) GenerateWarnings(ctx model.AssignmentContext) []model.Warning {
	warnings := make([]model.Warning, 0, len(e.rules))
	for _, rule := range e.rules {
		if warning := rule.Evaluate(ctx); warning != nil {
			warnings = append(warnings, *warning)
		}
	}
	return warnings
}

var defaultEvaluator = NewEvaluator(DefaultConfig())

// GenerateWarnings evaluates ctx with the default configuration
func GenerateWarnings(ctx model.AssignmentContext) []model.Warning {
	return defaultEvaluator.GenerateWarnings(ctx)
}
