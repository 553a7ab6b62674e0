package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// violationFilterFlags binds the violation filter to command flags
func violationFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("severity", "", "Filter by severity: critical, warning or info")
	cmd.Flags().String("type", "", "Filter by type: hours, supervision, conflict, absence or capacity")
	cmd.Flags().String("resolved", "", "Filter by resolution state: true or false")
}

func violationFilterFromFlags(cmd *cobra.Command) (model.ViolationFilter, error) {
	severity, _ := cmd.Flags().GetString("severity")
	warningType, _ := cmd.Flags().GetString("type")
	resolved, _ := cmd.Flags().GetString("resolved")

	filter := model.ViolationFilter{
		Severity: model.Severity(severity),
		Type:     model.WarningType(warningType),
	}
	if filter.Severity != "" && !filter.Severity.IsValid() {
		return filter, fmt.Errorf("invalid severity %q", severity)
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return filter, fmt.Errorf("invalid type %q", warningType)
	}
	if resolved != "" {
		value, err := strconv.ParseBool(resolved)
		if err != nil {
			return filter, fmt.Errorf("invalid resolved value %q", resolved)
		}
		filter.Resolved = &value
	}
	return filter, nil
}
