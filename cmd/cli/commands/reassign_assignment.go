package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// ReassignAssignmentCmd creates the reassignAssignment command
func ReassignAssignmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reassignAssignment <assignment_id> <faculty_id>",
		Short: "Move an assignment to another faculty member (admin only, not reversible by rollback)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignment, err := services.ReassignAssignment(app.Ctx, app.Client, app.Identity, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assignment %s (%s, week %s) now belongs to %s\n\n",
				assignment.ID, assignment.Rotation, assignment.Week, assignment.FacultyID)
			return nil
		},
	}
}
