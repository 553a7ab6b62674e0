package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// ValidateSwapCmd creates the validateSwap command
func ValidateSwapCmd(app *AppContext) *cobra.Command {
	var proposal model.SwapProposal

	cmd := &cobra.Command{
		Use:   "validateSwap",
		Short: "Dry-run a swap against the schedule service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("validateSwap command",
				zap.String("source", proposal.SourceFacultyID),
				zap.String("target", proposal.TargetFacultyID))

			outcome, err := services.ValidateSwap(app.Ctx, app.Client, app.Identity, app.Logger, proposal)
			if err != nil {
				return err
			}

			fmt.Println()
			renderValidation(os.Stdout, outcome.Validation)
			fmt.Println()
			return nil
		},
	}

	proposalFlags(cmd, &proposal)
	return cmd
}
