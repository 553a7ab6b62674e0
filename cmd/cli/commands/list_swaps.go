package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// ListSwapsCmd creates the listSwaps command
func ListSwapsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listSwaps",
		Short: "List swaps, optionally by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			filter := model.SwapFilter{Status: model.SwapStatus(status)}
			if status != "" && !filter.Status.IsValid() {
				return fmt.Errorf("invalid status %q", status)
			}

			result, err := services.ListSwaps(app.Ctx, app.Client, app.Identity, app.Logger, filter)
			if err != nil {
				return err
			}

			fmt.Println()
			renderSwaps(os.Stdout, result)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only show swaps with this status")
	return cmd
}
