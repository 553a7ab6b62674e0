package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// CheckAssignmentCmd creates the checkAssignment command
func CheckAssignmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checkAssignment <context_file>",
		Short: "Run the compliance rules against an assignment context YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("checkAssignment command", zap.String("file", args[0]))

			assignmentCtx, err := services.LoadAssignmentContext(args[0])
			if err != nil {
				return err
			}

			evaluator, err := services.BuildEvaluator(app.Cfg.Compliance, app.Logger)
			if err != nil {
				return err
			}

			result := services.CheckAssignment(evaluator, *assignmentCtx, app.Logger)

			fmt.Printf("\nAssignment: %s on %s (%s)\n\n", assignmentCtx.PersonID, assignmentCtx.Date, assignmentCtx.Session)
			renderWarnings(os.Stdout, result.Warnings)
			if result.Blocking {
				fmt.Println("\n⚠️  This assignment has critical warnings")
			}
			fmt.Println()
			return nil
		},
	}
}
