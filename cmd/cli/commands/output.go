package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

func newTable(out io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

func renderWarnings(out io.Writer, warnings []model.Warning) {
	if len(warnings) == 0 {
		fmt.Fprintln(out, "No warnings.")
		return
	}
	tw := newTable(out, table.Row{"Severity", "Type", "Message"})
	for _, w := range model.SortWarningsBySeverity(warnings) {
		tw.AppendRow(table.Row{w.Severity, w.Type, w.Message})
	}
	tw.Render()
}

func renderValidation(out io.Writer, result *model.SwapValidationResult) {
	if result.Valid {
		fmt.Fprintln(out, "✓ Swap is valid")
	} else {
		fmt.Fprintln(out, "✗ Swap is not valid")
	}

	tw := newTable(out, table.Row{"Kind", "Message"})
	for _, e := range result.Errors {
		tw.AppendRow(table.Row{"error", e})
	}
	if result.ExternalConflict != "" {
		tw.AppendRow(table.Row{"external conflict", result.ExternalConflict})
	}
	for _, w := range result.Warnings {
		tw.AppendRow(table.Row{"warning", w})
	}
	if tw.Length() > 0 {
		tw.Render()
	}
}

func renderSwaps(out io.Writer, swaps []model.SwapRequest) {
	tw := newTable(out, table.Row{"ID", "Status", "Source", "Source Week", "Target", "Target Week", "Type", "Executed"})
	for _, s := range swaps {
		tw.AppendRow(table.Row{
			s.ID, s.Status, s.SourceFacultyID, s.SourceWeek,
			s.TargetFacultyID, s.TargetWeek, s.SwapType, formatTime(s.ExecutedAt),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(swaps)})
	tw.Render()
}

func renderViolations(out io.Writer, violations []model.ViolationRecord) {
	tw := newTable(out, table.Row{"ID", "Severity", "Type", "Person", "Date", "Resolved", "Message"})
	for _, v := range violations {
		resolved := ""
		if v.Resolved {
			resolved = string(v.ResolutionMethod)
		}
		tw.AppendRow(table.Row{v.ID, v.Severity, v.Type, v.PersonID, v.Date, resolved, v.Message})
	}
	tw.Render()
}

func renderBatch(out io.Writer, result *model.BatchResolutionResult) {
	fmt.Fprintf(out, "%d of %d succeeded, %d failed\n", result.Successful, result.Total, result.Failed)

	if len(result.Results) > 0 {
		tw := newTable(out, table.Row{"Violation", "Result", "Message"})
		for _, item := range result.Results {
			status := "✓"
			if !item.Success {
				status = "✗"
			}
			tw.AppendRow(table.Row{item.ConflictID, status, item.Message})
		}
		tw.Render()
	}

	if len(result.RetryableIDs) > 0 {
		fmt.Fprintf(out, "Retryable: %s\n", strings.Join(result.RetryableIDs, ", "))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
