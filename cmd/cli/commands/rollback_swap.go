package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// RollbackSwapCmd creates the rollbackSwap command
func RollbackSwapCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollbackSwap <swap_id>",
		Short: "Roll back a swap executed in the last 24 hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")

			app.Logger.Debug("rollbackSwap command", zap.String("swap_id", args[0]), zap.String("reason", reason))

			outcome, err := services.RollbackSwap(app.Ctx, app.Client, app.Identity, app.Notifier, app.Logger, args[0], reason, app.SwapOptions())
			if err != nil {
				return err
			}

			if !outcome.Rollback.Success {
				fmt.Printf("\n✗ Rollback rejected: %s\n\n", outcome.Rollback.Message)
				return nil
			}
			fmt.Printf("\n✓ Swap %s rolled back\n\n", outcome.Swap.ID)
			return nil
		},
	}

	cmd.Flags().String("reason", "", "Reason for the rollback")
	return cmd
}
