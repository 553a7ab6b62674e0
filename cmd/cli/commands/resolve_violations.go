package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// ResolveViolationsCmd creates the resolveViolations command
func ResolveViolationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolveViolations [violation_id...]",
		Short: "Resolve or ignore violations by id, or every unresolved violation matching the filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString("method")
			reason, _ := cmd.Flags().GetString("reason")
			reportOut, _ := cmd.Flags().GetString("report-out")

			filter, err := violationFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			app.Logger.Debug("resolveViolations command",
				zap.Int("id_count", len(args)),
				zap.String("method", method),
				zap.String("report_out", reportOut))

			result, err := services.ResolveViolations(app.Ctx, app.Client, app.Identity, app.Notifier, app.Logger, services.ResolveRequest{
				IDs:    args,
				Filter: filter,
				Method: model.ResolutionMethod(method),
				Reason: reason,
			}, app.BatchOptions())
			if err != nil {
				return err
			}

			fmt.Println()
			renderBatch(os.Stdout, result)

			if reportOut != "" {
				if err := services.SaveReport(reportOut, result); err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", reportOut)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("method", string(model.ResolutionAutoResolved), "Resolution method: auto_resolved or ignored")
	cmd.Flags().String("reason", "", "Reason, required when ignoring")
	cmd.Flags().String("report-out", "", "Write the batch result to this JSON file for retryResolution")
	violationFilterFlags(cmd)
	return cmd
}
