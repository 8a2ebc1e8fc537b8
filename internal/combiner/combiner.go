// Package combiner places per-agency report workbooks side by side in one
// combined workbook, aligning their rows by report date.
package combiner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/diyradiolab/FoodPantryParser/internal/exporter"
	"github.com/diyradiolab/FoodPantryParser/internal/sheet"
)

// GeneratedSentinel marks the timestamp row that terminates every report's
// data region.
const GeneratedSentinel = "Generated:"

// sourceStartRow is the first data row of a by-agency report; the header
// sits on the row above it.
const sourceStartRow = 4

// Options configure one combine run.
type Options struct {
	SheetName         string
	Pattern           string
	HighlightZeroRows bool
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.SheetName == "" {
		opts.SheetName = "Combined Data"
	}
	if opts.Pattern == "" {
		opts.Pattern = "*.xlsx"
	}
	return opts
}

// Result is what a combine run learned while aligning the sources.
type Result struct {
	Sources            []string
	UniversalZeroDates []time.Time
	GrandTotals        map[string]float64
}

// Combiner merges a folder of by-agency report workbooks into one combined
// workbook. Sources are processed in directory-listing order; a source with
// no worksheet, no data region, or unlocatable header columns is logged and
// skipped without aborting the rest.
type Combiner struct {
	logger *zap.Logger
}

// New creates a combiner.
func New(logger *zap.Logger) *Combiner {
	return &Combiner{logger: logger}
}

// combineState is the working memory of a single combine invocation. It is
// created at the start of Combine, threaded through the stages, and
// discarded when Combine returns; nothing here outlives the run.
type combineState struct {
	// dateToSumOrders records, per report date, each source's SumOrders
	// value. A date where every known source recorded exactly zero is a
	// universal zero day.
	dateToSumOrders map[time.Time]map[string]float64

	// grandTotals accumulates every Sum column across all sources, keyed
	// by header name.
	grandTotals map[string]float64

	// placedRows maps every copied date row to its output row so the
	// highlighting pass can revisit exact placement.
	placedRows []placedRow

	sources []string

	totalsLabelRow int
	totalsLabelCol int
	maxUsedCol     int
}

type placedRow struct {
	destRow int
	dateCol int
	date    time.Time
}

// Combine reads every workbook matching opts.Pattern in sourceDir and
// writes the combined workbook to outputPath.
func (c *Combiner) Combine(sourceDir, outputPath string, opts Options) (*Result, error) {
	o := opts.withDefaults()

	if _, err := os.Stat(sourceDir); err != nil {
		return nil, fmt.Errorf("source folder %s is not readable: %w", sourceDir, err)
	}

	files, err := filepath.Glob(filepath.Join(sourceDir, o.Pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sourceDir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no report workbooks found in %s", sourceDir)
	}

	c.logger.Info("combining report workbooks",
		zap.Int("files", len(files)),
		zap.String("source_dir", sourceDir))

	state := &combineState{
		dateToSumOrders: make(map[time.Time]map[string]float64),
		grandTotals:     make(map[string]float64),
	}

	dest := excelize.NewFile()
	defer dest.Close()
	if err := dest.SetSheetName("Sheet1", o.SheetName); err != nil {
		return nil, err
	}

	currentColumn := 1
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		width, err := c.placeSource(dest, o.SheetName, path, name, currentColumn, state)
		if err != nil {
			c.logger.Warn("skipping source workbook",
				zap.String("source", name),
				zap.Error(err))
			continue
		}
		state.sources = append(state.sources, name)
		currentColumn += width + 1
	}

	if len(state.sources) == 0 {
		return nil, fmt.Errorf("no usable report workbooks in %s", sourceDir)
	}

	zeroDates := state.universalZeroDates()
	c.logger.Info("universal zero days detected", zap.Int("count", len(zeroDates)))

	// Annotate the totals label with the universal-zero-day count.
	if state.totalsLabelRow > 0 {
		cell, err := excelize.CoordinatesToCellName(state.totalsLabelCol, state.totalsLabelRow)
		if err != nil {
			return nil, err
		}
		label := fmt.Sprintf("TOTALS (%d)", len(zeroDates))
		if err := dest.SetCellValue(o.SheetName, cell, label); err != nil {
			return nil, err
		}
	}

	if o.HighlightZeroRows {
		if err := c.highlightZeroRows(dest, o.SheetName, state, zeroDates); err != nil {
			return nil, err
		}
	}

	if err := exporter.SaveNew(dest, outputPath); err != nil {
		return nil, err
	}

	c.logger.Info("combined workbook written",
		zap.String("output", outputPath),
		zap.Strings("sources", state.sources))

	return &Result{
		Sources:            state.sources,
		UniversalZeroDates: zeroDates,
		GrandTotals:        state.grandTotals,
	}, nil
}

// sourceLayout is what locating the header row of one source yields.
type sourceLayout struct {
	grid        [][]string
	width       int
	lastDataRow int
	dateCol     int
	sumCols     []int
	sumOrders   int
	headers     map[int]string
}

// placeSource copies one source workbook's date and Sum columns into the
// next free column block of the combined sheet. It returns the block width
// in columns.
func (c *Combiner) placeSource(dest *excelize.File, destSheet, path, name string, startCol int, state *combineState) (int, error) {
	src, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open: %w", err)
	}
	defer src.Close()

	layout, err := c.readSource(src, name)
	if err != nil {
		return 0, err
	}

	c.recordSumOrders(layout, name, state)
	c.accumulateTotals(layout, state)

	return c.copyBlock(dest, destSheet, layout, name, startCol, state)
}

func (c *Combiner) readSource(src *excelize.File, name string) (*sourceLayout, error) {
	sheetName := src.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheets")
	}

	grid, err := src.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(grid) < sourceStartRow {
		return nil, fmt.Errorf("no data region")
	}

	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	layout := &sourceLayout{
		grid:      grid,
		width:     width,
		dateCol:   -1,
		sumOrders: -1,
		headers:   make(map[int]string),
	}

	headerRow := grid[sourceStartRow-2]
	for i := 0; i < len(headerRow); i++ {
		header := strings.TrimSpace(headerRow[i])
		if header == "" {
			continue
		}
		col := i + 1
		layout.headers[col] = header
		switch {
		case strings.EqualFold(header, "ReportDate"):
			layout.dateCol = col
		case strings.EqualFold(header, "SumOrders"):
			layout.sumOrders = col
			layout.sumCols = append(layout.sumCols, col)
		case strings.HasPrefix(strings.ToLower(header), "sum"):
			layout.sumCols = append(layout.sumCols, col)
		}
	}

	if layout.dateCol == -1 || layout.sumOrders == -1 {
		return nil, fmt.Errorf("header row is missing ReportDate or SumOrders")
	}

	// The data region ends one row above the first Generated: marker found
	// scanning up from the bottom.
	layout.lastDataRow = len(grid)
scan:
	for r := len(grid); r >= sourceStartRow; r-- {
		for _, cell := range grid[r-1] {
			if strings.HasPrefix(cell, GeneratedSentinel) {
				layout.lastDataRow = r - 1
				break scan
			}
		}
	}

	c.logger.Debug("source layout resolved",
		zap.String("source", name),
		zap.Int("date_col", layout.dateCol),
		zap.Ints("sum_cols", layout.sumCols),
		zap.Int("last_data_row", layout.lastDataRow))

	return layout, nil
}

// recordSumOrders fills the cross-source date table used for
// universal-zero-day detection.
func (c *Combiner) recordSumOrders(layout *sourceLayout, name string, state *combineState) {
	for r := sourceStartRow; r <= layout.lastDataRow; r++ {
		date, ok := c.rowDate(layout, r)
		if !ok {
			continue
		}

		value := 0.0
		if raw := cellAt(layout.grid, r, layout.sumOrders); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				c.logger.Warn("SumOrders cell is not numeric",
					zap.String("source", name),
					zap.Int("row", r),
					zap.String("value", raw))
			} else {
				value = v
			}
		}

		if state.dateToSumOrders[date] == nil {
			state.dateToSumOrders[date] = make(map[string]float64)
		}
		state.dateToSumOrders[date][name] = value
	}
}

func (c *Combiner) accumulateTotals(layout *sourceLayout, state *combineState) {
	for _, col := range layout.sumCols {
		header := layout.headers[col]
		for r := sourceStartRow; r <= layout.lastDataRow; r++ {
			raw := cellAt(layout.grid, r, col)
			if raw == "" {
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				state.grandTotals[header] += v
			}
		}
	}
}

// copyBlock writes one source's block into the combined sheet. Identity
// columns (agency name and number) are dropped: only the date column and
// the Sum columns are carried into the combined view.
func (c *Combiner) copyBlock(dest *excelize.File, destSheet string, layout *sourceLayout, name string, startCol int, state *combineState) (int, error) {
	copyCols := make([]int, 0, len(layout.sumCols)+1)
	for col := 1; col <= layout.width; col++ {
		if col == layout.dateCol || contains(layout.sumCols, col) {
			copyCols = append(copyCols, col)
		}
	}

	headerStyle, err := dest.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	dateFormat := "mm/dd/yyyy"
	dateStyle, err := dest.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return 0, err
	}
	totalStyle, err := dest.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}

	// Source name banner across the block.
	bannerStart, err := excelize.CoordinatesToCellName(startCol, 1)
	if err != nil {
		return 0, err
	}
	bannerEnd, err := excelize.CoordinatesToCellName(startCol+len(copyCols)-1, 1)
	if err != nil {
		return 0, err
	}
	if err := dest.SetCellValue(destSheet, bannerStart, name); err != nil {
		return 0, err
	}
	if len(copyCols) > 1 {
		if err := dest.MergeCell(destSheet, bannerStart, bannerEnd); err != nil {
			return 0, err
		}
	}
	if err := dest.SetCellStyle(destSheet, bannerStart, bannerEnd, headerStyle); err != nil {
		return 0, err
	}

	const destHeaderRow = 2

	for i, srcCol := range copyCols {
		destCol := startCol + i

		headerCell, err := excelize.CoordinatesToCellName(destCol, destHeaderRow)
		if err != nil {
			return 0, err
		}
		if err := dest.SetCellValue(destSheet, headerCell, layout.headers[srcCol]); err != nil {
			return 0, err
		}
		if err := dest.SetCellStyle(destSheet, headerCell, headerCell, headerStyle); err != nil {
			return 0, err
		}

		for r := sourceStartRow; r <= layout.lastDataRow; r++ {
			destRow := destHeaderRow + (r - sourceStartRow) + 1
			cell, err := excelize.CoordinatesToCellName(destCol, destRow)
			if err != nil {
				return 0, err
			}

			raw := cellAt(layout.grid, r, srcCol)
			if srcCol == layout.dateCol {
				if date, ok := c.rowDate(layout, r); ok {
					if err := dest.SetCellValue(destSheet, cell, date); err != nil {
						return 0, err
					}
					if err := dest.SetCellStyle(destSheet, cell, cell, dateStyle); err != nil {
						return 0, err
					}
					state.placedRows = append(state.placedRows, placedRow{destRow: destRow, dateCol: destCol, date: date})
					continue
				}
			}
			if raw == "" {
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				if err := dest.SetCellValue(destSheet, cell, v); err != nil {
					return 0, err
				}
			} else if err := dest.SetCellValue(destSheet, cell, raw); err != nil {
				return 0, err
			}
		}
	}

	// Per-source totals row, two rows below the last data row.
	totalsRow := destHeaderRow + (layout.lastDataRow - sourceStartRow) + 2
	if state.totalsLabelRow == 0 {
		state.totalsLabelRow = totalsRow
		state.totalsLabelCol = startCol
		labelCell, err := excelize.CoordinatesToCellName(startCol, totalsRow)
		if err != nil {
			return 0, err
		}
		if err := dest.SetCellValue(destSheet, labelCell, "TOTALS"); err != nil {
			return 0, err
		}
		if err := dest.SetCellStyle(destSheet, labelCell, labelCell, totalStyle); err != nil {
			return 0, err
		}
	}

	for i, srcCol := range copyCols {
		if !contains(layout.sumCols, srcCol) {
			continue
		}
		total := 0.0
		for r := sourceStartRow; r <= layout.lastDataRow; r++ {
			if raw := cellAt(layout.grid, r, srcCol); raw != "" {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					total += v
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(startCol+i, totalsRow)
		if err != nil {
			return 0, err
		}
		if err := dest.SetCellValue(destSheet, cell, total); err != nil {
			return 0, err
		}
		if err := dest.SetCellStyle(destSheet, cell, cell, totalStyle); err != nil {
			return 0, err
		}
	}

	if last := startCol + len(copyCols) - 1; last > state.maxUsedCol {
		state.maxUsedCol = last
	}

	c.logger.Info("placed source block",
		zap.String("source", name),
		zap.Int("rows", layout.lastDataRow-sourceStartRow+1),
		zap.Int("columns", len(copyCols)))

	return len(copyCols), nil
}

// rowDate normalizes one date cell. Serial day counts and date strings are
// both accepted; blank alignment rows simply report false.
func (c *Combiner) rowDate(layout *sourceLayout, r int) (time.Time, bool) {
	raw := cellAt(layout.grid, r, layout.dateCol)
	if raw == "" {
		return time.Time{}, false
	}
	date, err := sheet.NormalizeDate(raw)
	if err != nil {
		c.logger.Warn("invalid date cell", zap.Int("row", r), zap.String("value", raw))
		return time.Time{}, false
	}
	return date, true
}

// universalZeroDates returns, sorted, every date where each known source
// recorded a SumOrders of exactly zero.
func (s *combineState) universalZeroDates() []time.Time {
	var zeroDates []time.Time
	for date, bySource := range s.dateToSumOrders {
		allZero := true
		for _, source := range s.sources {
			v, ok := bySource[source]
			if !ok || v != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			zeroDates = append(zeroDates, date)
		}
	}
	sort.Slice(zeroDates, func(i, j int) bool { return zeroDates[i].Before(zeroDates[j]) })
	return zeroDates
}

// highlightZeroRows flags every output row whose date is a universal zero
// day.
func (c *Combiner) highlightZeroRows(dest *excelize.File, destSheet string, state *combineState, zeroDates []time.Time) error {
	if len(zeroDates) == 0 {
		return nil
	}

	zero := make(map[time.Time]bool, len(zeroDates))
	for _, d := range zeroDates {
		zero[d] = true
	}

	dateFormat := "mm/dd/yyyy"
	highlightDateStyle, err := dest.NewStyle(&excelize.Style{
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FFB6C1"}, Pattern: 1},
		CustomNumFmt: &dateFormat,
	})
	if err != nil {
		return err
	}
	highlightStyle, err := dest.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFB6C1"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	// Date cells need their number format back after restyling.
	dateCols := make(map[[2]int]bool)
	for _, row := range state.placedRows {
		dateCols[[2]int{row.destRow, row.dateCol}] = true
	}

	marked := make(map[int]bool)
	for _, row := range state.placedRows {
		if !zero[row.date] || marked[row.destRow] {
			continue
		}
		marked[row.destRow] = true

		for col := 1; col <= state.maxUsedCol; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row.destRow)
			if err != nil {
				return err
			}
			style := highlightStyle
			if dateCols[[2]int{row.destRow, col}] {
				style = highlightDateStyle
			}
			if err := dest.SetCellStyle(destSheet, cell, cell, style); err != nil {
				return err
			}
		}
		c.logger.Debug("highlighted universal zero row", zap.Int("row", row.destRow))
	}
	return nil
}

func cellAt(grid [][]string, row, col int) string {
	if row-1 >= len(grid) {
		return ""
	}
	r := grid[row-1]
	if col-1 >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

func contains(cols []int, col int) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}
