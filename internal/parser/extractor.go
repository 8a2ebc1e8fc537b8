// Package parser extracts typed order records from daily order form
// workbooks.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/diyradiolab/FoodPantryParser/internal/config"
	"github.com/diyradiolab/FoodPantryParser/internal/model"
	"github.com/diyradiolab/FoodPantryParser/internal/sheet"
)

// AcknowledgmentSentinel is the start of the signature line printed at the
// foot of every order form. A key-column cell beginning with it carries no
// order data.
const AcknowledgmentSentinel = "I acknowledge receipt"

// ErrMissingOrderDate marks a form whose order date cell cannot be read.
// Callers may skip the file and continue with the rest of the batch.
var ErrMissingOrderDate = errors.New("order date cell is missing or unreadable")

// Extractor turns one order form workbook into an OrderSheet. The form's
// variable-length data region is bounded below by the acknowledgment
// sentinel or by a run of more than SkipThreshold key-empty rows.
type Extractor struct {
	layout config.TemplateConfig
}

// New creates an extractor for the given template layout.
func New(layout config.TemplateConfig) *Extractor {
	return &Extractor{layout: layout}
}

// ParseFile opens the workbook at path and extracts its order sheet. The
// file is closed before returning on every path.
func (e *Extractor) ParseFile(path string) (*model.OrderSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return e.ParseSheet(f, path)
}

// ParseSheet extracts the order sheet from the first worksheet of an
// already-open workbook.
func (e *Extractor) ParseSheet(f *excelize.File, sourcePath string) (*model.OrderSheet, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook %s has no worksheets", sourcePath)
	}

	orderDate, err := sheet.DateValue(f, sheetName, e.layout.OrderDateCell)
	if err != nil {
		return nil, fmt.Errorf("%w: cell %s of %s: %v", ErrMissingOrderDate, e.layout.OrderDateCell, sourcePath, err)
	}

	orderSheet := &model.OrderSheet{
		SourceID:   uuid.New().String(),
		SourcePath: sourcePath,
		OrderDate:  orderDate,
	}

	if orderSheet.NewClients, err = e.declaredCount(f, sheetName, e.layout.NewClientsCell, "new clients"); err != nil {
		return nil, err
	}
	if orderSheet.Vouchers, err = e.declaredCount(f, sheetName, e.layout.VouchersCell, "vouchers"); err != nil {
		return nil, err
	}

	it, err := sheet.NewRowIterator(f, sheetName, e.layout.DataStartRow)
	if err != nil {
		return nil, err
	}

	consecutiveSkips := 0
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		if e.shouldStop(consecutiveSkips) {
			break
		}
		if e.isSkippableRow(row) {
			consecutiveSkips++
			continue
		}

		order, err := e.orderFromRow(row, orderDate)
		if err != nil {
			return nil, fmt.Errorf("bad order row in %s: %w", sourcePath, err)
		}
		orderSheet.Orders = append(orderSheet.Orders, order)
		consecutiveSkips = 0
	}

	return orderSheet, nil
}

// shouldStop is deliberately "more than", not "at least": a run of exactly
// SkipThreshold blank rows followed by real data still extracts.
func (e *Extractor) shouldStop(consecutiveSkips int) bool {
	return consecutiveSkips > e.layout.SkipThreshold
}

func (e *Extractor) isSkippableRow(row sheet.Row) bool {
	key := row[e.layout.KeyColumn]
	return key == "" || strings.HasPrefix(key, AcknowledgmentSentinel)
}

func (e *Extractor) orderFromRow(row sheet.Row, orderDate time.Time) (*model.Order, error) {
	order := &model.Order{OrderDate: orderDate}

	number, err := strconv.ParseInt(strings.TrimSpace(row[e.layout.AgencyNumberColumn]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("agency number %q is not an integer", row[e.layout.AgencyNumberColumn])
	}
	order.AgencyNumber = number

	// Agency names are grouped by exact string match downstream; no
	// trimming or normalization happens here.
	order.AgencyName = row[e.layout.AgencyNameColumn]

	if order.Adults, err = countCell(row[e.layout.AdultsColumn], "adults"); err != nil {
		return nil, err
	}
	if order.Children, err = countCell(row[e.layout.ChildrenColumn], "children"); err != nil {
		return nil, err
	}

	// Marker columns are presence-only; the cell text is never inspected.
	order.HasVoucher = !row.Empty(e.layout.VoucherColumn)
	order.IsNewClient = !row.Empty(e.layout.NewClientColumn)

	if !row.Empty(e.layout.LocationColumn) {
		isCity, err := model.IsCity(row[e.layout.LocationColumn])
		if err != nil {
			return nil, err
		}
		order.IsCity = isCity
	}

	return order, nil
}

func (e *Extractor) declaredCount(f *excelize.File, sheetName, cell, what string) (int, error) {
	raw, err := sheet.CellValue(f, sheetName, cell)
	if err != nil {
		return 0, err
	}
	n, err := countCell(raw, what)
	if err != nil {
		return 0, fmt.Errorf("declared %s cell %s: %w", what, cell, err)
	}
	return n, nil
}

// countCell coerces a numeric cell to an integer. An empty cell counts as
// zero; any other non-numeric content is an input error.
func countCell(raw, what string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s value %q is not numeric", what, raw)
	}
	return int(v), nil
}
