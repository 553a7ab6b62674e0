package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// ListViolationsCmd creates the listViolations command
func ListViolationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listViolations",
		Short: "List violations, most severe first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := violationFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			summary, err := services.ListViolations(app.Ctx, app.Client, app.Identity, app.Logger, filter)
			if err != nil {
				return err
			}

			fmt.Println()
			renderViolations(os.Stdout, summary.Records)
			fmt.Printf("\n%d critical, %d warning, %d info\n\n",
				summary.BySeverity[model.SeverityCritical],
				summary.BySeverity[model.SeverityWarning],
				summary.BySeverity[model.SeverityInfo])
			return nil
		},
	}

	violationFilterFlags(cmd)
	return cmd
}
