package services

import (
	"time"
)

// dateOnly truncates a timestamp to its UTC calendar date. Business days
// are keyed on these midnight timestamps everywhere.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDateOr parses a YYYY-MM-DD string, falling back when empty. The
// binding layer has already validated the format.
func parseDateOr(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return t
}

// monthStart returns the first day of the month containing t, in UTC.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
