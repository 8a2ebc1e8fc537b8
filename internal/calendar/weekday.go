// Package calendar produces the expected reporting dates for a period.
package calendar

import "time"

// WeekdaysInMonth returns every business day (Monday through Friday) of the
// given month in ascending order. Dates are UTC midnights so they compare
// cleanly as map keys.
func WeekdaysInMonth(month time.Month, year int) []time.Time {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var weekdays []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		weekdays = append(weekdays, d)
	}
	return weekdays
}

// FormatLong renders a date the way the reports label days, e.g.
// "Thursday, February 01, 2024".
func FormatLong(date time.Time) string {
	return date.Format("Monday, January 02, 2006")
}

// FormatCompact renders a date as a file-name-safe stamp, e.g. "20240201".
func FormatCompact(date time.Time) string {
	return date.Format("20060102")
}
