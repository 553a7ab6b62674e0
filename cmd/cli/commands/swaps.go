package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// proposalFlags binds the swap proposal fields to command flags
func proposalFlags(cmd *cobra.Command, proposal *model.SwapProposal) {
	swapType := cmd.Flags().String("type", string(model.SwapOneToOne), "Swap type: one_to_one or absorb")
	cmd.Flags().StringVar(&proposal.SourceFacultyID, "source", "", "Faculty member giving up the week")
	cmd.Flags().StringVar(&proposal.SourceWeek, "source-week", "", "Week being given up (YYYY-MM-DD)")
	cmd.Flags().StringVar(&proposal.TargetFacultyID, "target", "", "Faculty member taking the week")
	cmd.Flags().StringVar(&proposal.TargetWeek, "target-week", "", "Week given in return, one_to_one only (YYYY-MM-DD)")
	cmd.Flags().StringVar(&proposal.Reason, "reason", "", "Reason for the swap")

	// Copy the type into the proposal once flags are parsed
	previous := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		proposal.SwapType = model.SwapType(*swapType)
		if previous != nil {
			return previous(cmd, args)
		}
		return nil
	}
}
