// Package sheet reads raw cell data out of fixed-layout worksheets.
package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Row is one worksheet row keyed by column letter ("A", "B", ... "AA").
// Cells the sheet never wrote are present with an empty value, so lookups
// across the sheet's full used range are always defined.
type Row map[string]string

// Empty reports whether the named column holds no value.
func (r Row) Empty(column string) bool {
	return r[column] == ""
}

// RowIterator yields the non-empty rows of a worksheet starting at a fixed
// row. It is a forward-only, single-pass iterator: fully empty rows are
// dropped silently and scanning continues past them.
type RowIterator struct {
	grid    [][]string
	width   int
	nextIdx int
}

// NewRowIterator prepares iteration over sheetName beginning at startRow
// (1-based). A sheet with no rows at all has no known extent and is an
// error.
func NewRowIterator(f *excelize.File, sheetName string, startRow int) (*RowIterator, error) {
	grid, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", sheetName, err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("sheet %s has no dimension", sheetName)
	}

	width := 0
	for _, raw := range grid {
		if len(raw) > width {
			width = len(raw)
		}
	}

	if startRow < 1 {
		startRow = 1
	}
	return &RowIterator{grid: grid, width: width, nextIdx: startRow - 1}, nil
}

// Next returns the next row carrying at least one value, or false when the
// sheet is exhausted.
func (it *RowIterator) Next() (Row, bool) {
	for it.nextIdx < len(it.grid) {
		raw := it.grid[it.nextIdx]
		it.nextIdx++

		empty := true
		for _, v := range raw {
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		row := make(Row, it.width)
		for col := 1; col <= it.width; col++ {
			name, err := excelize.ColumnNumberToName(col)
			if err != nil {
				continue
			}
			if col-1 < len(raw) {
				row[name] = raw[col-1]
			} else {
				row[name] = ""
			}
		}
		return row, true
	}
	return nil, false
}

// CellValue resolves a single cell address ("B12") to its raw stored value.
func CellValue(f *excelize.File, sheetName, cell string) (string, error) {
	v, err := f.GetCellValue(sheetName, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to read cell %s!%s: %w", sheetName, cell, err)
	}
	return v, nil
}
