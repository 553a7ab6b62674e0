package compliance

import (
	"strconv"
	"time"
)

// DateLayout is the ISO calendar date format used throughout the schedule
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date. RFC3339 timestamps are accepted and truncated to their date.
func ParseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// sameDate compares two date strings by calendar day.
// Unparseable values only match when they are identical.
func sameDate(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	if !okA || !okB {
		return a == b
	}
	return ta.Equal(tb)
}

// formatHours renders an hour count without trailing zeros (82, 82.5)
func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
