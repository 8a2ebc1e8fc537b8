package exporter

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrDuplicateOutput marks an attempt to write a report over an existing
// file. Outputs are never overwritten; the operator clears the output
// folders between runs.
var ErrDuplicateOutput = errors.New("output file already exists")

// Worksheet geometry shared by every generated workbook. The combiner
// relies on it when it reads by-agency reports back in.
const (
	titleRow     = 1
	headerRow    = 3
	dataStartRow = 4
)

const dateNumberFormat = "mm/dd/yyyy"

// Options control one report workbook.
type Options struct {
	SheetName string
	Title     string

	// WithTotals appends a row of SUM formulas over the numeric
	// non-identity columns.
	WithTotals bool
}

// WriteReport writes one report workbook: a merged styled title, a header
// row naming each schema column, one row per record, an optional totals
// row, and a trailing generation timestamp.
func WriteReport[T any](path string, columns []Column[T], rows []T, opts Options) error {
	f, err := BuildReport(columns, rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	return SaveNew(f, path)
}

// BuildReport renders the workbook in memory without saving it.
func BuildReport[T any](columns []Column[T], rows []T, opts Options) (*excelize.File, error) {
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = "Report"
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}

	if err := renderReport(f, sheetName, columns, rows, opts); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func renderReport[T any](f *excelize.File, sheetName string, columns []Column[T], rows []T, opts Options) error {
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 20},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#ADD8E6"}, Pattern: 1},
		Border: thinBorder(),
	})
	if err != nil {
		return err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return err
	}
	dateFormat := dateNumberFormat
	dateStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder(), CustomNumFmt: &dateFormat})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#90EE90"}, Pattern: 1},
		Border: thinBorder(),
	})
	if err != nil {
		return err
	}
	timestampStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	if err != nil {
		return err
	}

	// Title row, merged across the report width.
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", titleRow), opts.Title); err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", titleRow), fmt.Sprintf("%s%d", lastCol, titleRow)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", titleRow), fmt.Sprintf("%s%d", lastCol, titleRow), titleStyle); err != nil {
		return err
	}

	// Header row.
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.Header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	// Data rows.
	for rowIdx, record := range rows {
		rowNum := dataStartRow + rowIdx
		for colIdx, col := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				return err
			}
			value := col.Value(record)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			style := cellStyle
			if _, isDate := value.(time.Time); isDate {
				style = dateStyle
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}

	lastDataRow := dataStartRow + len(rows) - 1
	totalsRow := lastDataRow + 1

	if opts.WithTotals && len(rows) > 0 {
		hasTotals := false
		for colIdx, col := range columns {
			if !col.Numeric || col.Identity {
				continue
			}
			colName, err := excelize.ColumnNumberToName(colIdx + 1)
			if err != nil {
				return err
			}
			cell := fmt.Sprintf("%s%d", colName, totalsRow)
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", colName, dataStartRow, colName, lastDataRow)
			if err := f.SetCellFormula(sheetName, cell, formula); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, totalStyle); err != nil {
				return err
			}
			hasTotals = true
		}
		if hasTotals {
			cell := fmt.Sprintf("A%d", totalsRow)
			if err := f.SetCellValue(sheetName, cell, "Totals"); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, totalStyle); err != nil {
				return err
			}
		}
	}

	// Generation timestamp, two rows clear of the data region.
	timestampCell := fmt.Sprintf("A%d", totalsRow+2)
	stamp := fmt.Sprintf("Generated: %s", time.Now().Format("1/2/2006 3:04:05 PM"))
	if err := f.SetCellValue(sheetName, timestampCell, stamp); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, timestampCell, timestampCell, timestampStyle); err != nil {
		return err
	}

	// excelize has no auto-fit; size each column to its header plus slack.
	for i, col := range columns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(len(col.Header)) + 6
		if width < 14 {
			width = 14
		}
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return err
		}
	}

	return nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
}

// SaveNew saves a workbook to a path that must not exist yet. An existing
// file is left untouched.
func SaveNew(f *excelize.File, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s (remove output files before proceeding)", ErrDuplicateOutput, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check output path %s: %w", path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
