package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/residency-scheduler/pkg/core/services"
)

// PublishViolationsCmd creates the publishViolations command
func PublishViolationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishViolations",
		Short: "Publish the current violations to a Google Sheet tab",
		Long: `Publishes violations, most severe first, to a tab named after today's date in the
reports spreadsheet. Re-running on the same day replaces the tab contents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spreadsheetID, _ := cmd.Flags().GetString("spreadsheet")
			if spreadsheetID == "" {
				spreadsheetID = app.Cfg.Reports.SpreadsheetID
			}
			if spreadsheetID == "" {
				return errors.New("no spreadsheet: set reports.spreadsheetID or pass --spreadsheet")
			}

			filter, err := violationFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			summary, err := services.ListViolations(app.Ctx, app.Client, app.Identity, app.Logger, filter)
			if err != nil {
				return err
			}

			oauthCfg, token, err := app.GoogleAuth()
			if err != nil {
				return err
			}
			sheets, err := sheetsclient.NewClient(app.Ctx, oauthCfg, token)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			tabTitle, err := sheets.PublishViolations(app.Ctx, spreadsheetID, &sheetsclient.ViolationReport{
				GeneratedAt: time.Now(),
				Records:     summary.Records,
			})
			if err != nil {
				return fmt.Errorf("failed to publish violations: %w", err)
			}

			app.Logger.Info("Published violations",
				zap.String("spreadsheet_id", spreadsheetID),
				zap.String("tab", tabTitle),
				zap.Int("count", len(summary.Records)))

			fmt.Printf("\n✓ Published %d violations to tab %q\n\n", len(summary.Records), tabTitle)
			return nil
		},
	}

	cmd.Flags().String("spreadsheet", "", "Spreadsheet ID (defaults to reports.spreadsheetID)")
	violationFilterFlags(cmd)
	return cmd
}
