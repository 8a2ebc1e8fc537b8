package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Source spreadsheets encode dates three incompatible ways: a cell excelize
// already types as a date, a serial day-count numeral, or a plain date
// string. Normalization tries them in exactly that order.
var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	"01-02-06",
	"January 2, 2006",
	"Monday, January 02, 2006",
	time.RFC3339,
}

// DateValue resolves a single cell to a calendar date (UTC midnight).
func DateValue(f *excelize.File, sheetName, cell string) (time.Time, error) {
	cellType, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to inspect cell %s!%s: %w", sheetName, cell, err)
	}

	if cellType == excelize.CellTypeDate {
		formatted, err := f.GetCellValue(sheetName, cell)
		if err == nil {
			if d, perr := parseDateString(formatted); perr == nil {
				return d, nil
			}
		}
	}

	raw, err := CellValue(f, sheetName, cell)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(raw)
}

// NormalizeDate interprets a raw cell value as a date: serial day count
// first, then every known date-string layout.
func NormalizeDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return Midnight(t), nil
	}

	return parseDateString(s)
}

func parseDateString(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date value %q", s)
}

// Midnight strips the time component so dates compare cleanly as map keys.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
