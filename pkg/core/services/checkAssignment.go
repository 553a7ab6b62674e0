package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/residency-scheduler/internal/config"
	"github.com/jakechorley/residency-scheduler/pkg/core/compliance"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// CheckAssignmentResult holds the warnings for one assignment context
type CheckAssignmentResult struct {
	Context  model.AssignmentContext
	Warnings []model.Warning
	Blocking bool
}

// CheckAssignment runs the compliance rules against an assignment context.
// Warnings are returned in rule order; Blocking is set when any is critical.
func CheckAssignment(evaluator *compliance.Evaluator, assignmentCtx model.AssignmentContext, logger *zap.Logger) *CheckAssignmentResult {
	logger.Debug("Checking assignment",
		zap.String("person_id", assignmentCtx.PersonID),
		zap.String("date", assignmentCtx.Date),
		zap.String("session", assignmentCtx.Session))

	warnings := evaluator.GenerateWarnings(assignmentCtx)

	result := &CheckAssignmentResult{Context: assignmentCtx, Warnings: warnings}
	for _, w := range warnings {
		if w.Severity == model.SeverityCritical {
			result.Blocking = true
		}
	}

	logger.Debug("Assignment checked", zap.Int("warning_count", len(warnings)), zap.Bool("blocking", result.Blocking))
	return result
}

// LoadAssignmentContext reads an assignment context from a YAML file
func LoadAssignmentContext(path string) (*model.AssignmentContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment context: %w", err)
	}

	var assignmentCtx model.AssignmentContext
	if err := yaml.Unmarshal(data, &assignmentCtx); err != nil {
		return nil, fmt.Errorf("failed to parse assignment context: %w", err)
	}
	if assignmentCtx.PersonID == "" || assignmentCtx.Date == "" || assignmentCtx.Session == "" {
		return nil, errors.New("assignment context requires personId, date and session")
	}
	return &assignmentCtx, nil
}

// BuildEvaluator creates the rule evaluator from the compliance config
func BuildEvaluator(cfg config.ComplianceConfig, logger *zap.Logger) (*compliance.Evaluator, error) {
	evalCfg, err := BuildComplianceConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return compliance.NewEvaluator(evalCfg), nil
}

// BuildComplianceConfig applies defaults to the configured rule tunables
func BuildComplianceConfig(cfg config.ComplianceConfig, logger *zap.Logger) (compliance.Config, error) {
	evalCfg := compliance.DefaultConfig()
	if cfg.SessionHours > 0 {
		evalCfg.SessionHours = cfg.SessionHours
	}
	if cfg.CriticalOverageHours != nil {
		evalCfg.CriticalOverageHours = *cfg.CriticalOverageHours
	}

	overrides, err := BuildSessionOverrides(cfg.SessionOverrides, logger)
	if err != nil {
		return compliance.Config{}, err
	}
	evalCfg.SessionOverrides = overrides
	return evalCfg, nil
}

// BuildSessionOverrides converts configured overrides into date-matching
// session overrides. A rule without a DTSTART is anchored on the date being
// checked.
func BuildSessionOverrides(configOverrides []config.SessionOverride, logger *zap.Logger) ([]compliance.SessionOverride, error) {
	result := make([]compliance.SessionOverride, 0, len(configOverrides))

	for i, override := range configOverrides {
		option, err := rrule.StrToROption(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}

		// Each call builds its own rule so the evaluator stays safe for concurrent use
		ruleOption := *option
		session := override.Session
		appliesTo := func(date, s string) bool {
			if session != "" && !strings.EqualFold(session, s) {
				return false
			}
			day, ok := compliance.ParseDate(date)
			if !ok {
				return false
			}

			opt := ruleOption
			if opt.Dtstart.IsZero() {
				opt.Dtstart = day
			}
			rule, err := rrule.NewRRule(opt)
			if err != nil {
				return false
			}
			return len(rule.Between(day, day.Add(24*time.Hour-time.Second), true)) > 0
		}

		result = append(result, compliance.SessionOverride{AppliesTo: appliesTo, Hours: override.Hours})

		logger.Debug("Converted session override",
			zap.Int("index", i),
			zap.String("rrule", override.RRule),
			zap.String("session", override.Session),
			zap.Float64("hours", override.Hours))
	}

	return result, nil
}
