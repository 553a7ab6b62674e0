package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// RetryResolutionCmd creates the retryResolution command
func RetryResolutionCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retryResolution <report_file>",
		Short: "Retry the failed violations from an earlier resolveViolations report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportOut, _ := cmd.Flags().GetString("report-out")

			previous, err := services.LoadReport(args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug("retryResolution command",
				zap.String("report", args[0]),
				zap.Int("retryable_count", len(previous.RetryableIDs)))

			result, err := services.RetryResolution(app.Ctx, app.Client, app.Identity, app.Notifier, app.Logger, previous, app.BatchOptions())
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

	cmd.Flags().String("report-out", "", "Write the retry result to this JSON file")
	return cmd
}
