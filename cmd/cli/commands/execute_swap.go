package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
)

// ExecuteSwapCmd creates the executeSwap command
func ExecuteSwapCmd(app *AppContext) *cobra.Command {
	var proposal model.SwapProposal

	cmd := &cobra.Command{
		Use:   "executeSwap",
		Short: "Execute a swap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("executeSwap command",
				zap.String("source", proposal.SourceFacultyID),
				zap.String("target", proposal.TargetFacultyID),
				zap.Bool("require_validation", app.Cfg.Swaps.RequireValidation))

			outcome, err := services.ExecuteSwap(app.Ctx, app.Client, app.Identity, app.Notifier, app.Logger, proposal, app.SwapOptions())
			if err != nil {
				return err
			}

			fmt.Println()
			if outcome.Execution == nil {
				renderValidation(os.Stdout, outcome.Validation)
				fmt.Println("\nSwap was not executed.")
				return nil
			}

			if !outcome.Execution.Success {
				fmt.Printf("✗ Swap rejected: %s\n\n", outcome.Execution.Message)
				return nil
			}

			fmt.Printf("✓ Swap executed\n\n")
			fmt.Printf("Swap ID:  %s\n", outcome.Swap.ID)
			fmt.Printf("Message:  %s\n", outcome.Execution.Message)
			if outcome.Swap.ExecutedAt != nil {
				deadline := outcome.Swap.ExecutedAt.Add(swaps.RollbackWindow)
				fmt.Printf("Rollback: available until %s\n", formatTime(&deadline))
			}
			fmt.Println()
			return nil
		},
	}

	proposalFlags(cmd, &proposal)
	return cmd
}
