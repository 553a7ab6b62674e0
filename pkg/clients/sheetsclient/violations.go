package sheetsclient

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// ViolationReport is a snapshot of violations to publish as one tab
type ViolationReport struct {
	GeneratedAt time.Time
	Records     []model.ViolationRecord
}

var violationHeader = []interface{}{"ID", "Severity", "Type", "Person", "Date", "Resolved", "Resolution", "Message"}

// PublishViolations writes the report to a tab named after the report date, in
// the format "Violations Mon Jan 02 2006". The tab is created if missing,
// otherwise its contents are replaced. Returns the tab title.
func (c *Client) PublishViolations(ctx context.Context, spreadsheetID string, report *ViolationReport) (string, error) {
	tabTitle := violationTabTitle(report.GeneratedAt)

	titles, err := c.api.sheetTitles(ctx, spreadsheetID)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	if slices.Contains(titles, tabTitle) {
		// Clear the old snapshot so fewer rows don't leave stale ones behind
		if err := c.api.clearValues(ctx, spreadsheetID, fmt.Sprintf("%s!A1:ZZ", tabTitle)); err != nil {
			return "", fmt.Errorf("failed to clear tab: %w", err)
		}
	} else {
		if err := c.api.addSheet(ctx, spreadsheetID, tabTitle); err != nil {
			return "", fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.api.updateValues(ctx, spreadsheetID, fmt.Sprintf("%s!A1", tabTitle), violationRows(report)); err != nil {
		return "", fmt.Errorf("failed to write violations: %w", err)
	}

	return tabTitle, nil
}

func violationTabTitle(generatedAt time.Time) string {
	return "Violations " + generatedAt.Format("Mon Jan 02 2006")
}

// violationRows builds the sheet rows: a generated-at line, a blank row, the header, then one row per record
func violationRows(report *ViolationReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.Records)+3)
	rows = append(rows,
		[]interface{}{"Generated", report.GeneratedAt.UTC().Format(time.RFC3339)},
		[]interface{}{},
		violationHeader,
	)

	for _, v := range report.Records {
		resolved := "no"
		if v.Resolved {
			resolved = "yes"
		}
		rows = append(rows, []interface{}{
			v.ID,
			string(v.Severity),
			string(v.Type),
			v.PersonID,
			v.Date,
			resolved,
			string(v.ResolutionMethod),
			v.Message,
		})
	}
	return rows
}
