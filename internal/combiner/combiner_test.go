package combiner_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/diyradiolab/FoodPantryParser/internal/combiner"
	"github.com/diyradiolab/FoodPantryParser/internal/exporter"
	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

var (
	dayOne = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	dayTwo = time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)
)

func agencyReport(name string, date time.Time, sumOrders int) *model.DailyReport {
	return &model.DailyReport{
		AgencyNumber: 1,
		AgencyName:   name,
		ReportDate:   date,
		SumOrders:    sumOrders,
		SumAdults:    sumOrders * 2,
	}
}

func writeAgencyWorkbook(t *testing.T, dir, name string, reports []*model.DailyReport) {
	t.Helper()
	path := filepath.Join(dir, name+".xlsx")
	err := exporter.WriteReport(path, exporter.DailyReportColumns(), reports, exporter.Options{
		SheetName: "Report",
		Title:     "Monthly Agency Report - " + name,
	})
	if err != nil {
		t.Fatalf("writeAgencyWorkbook(%s) failed: %v", name, err)
	}
}

func TestCombineDetectsUniversalZeroDay(t *testing.T) {
	dir := t.TempDir()
	writeAgencyWorkbook(t, dir, "AgencyA", []*model.DailyReport{
		agencyReport("AgencyA", dayOne, 0),
		agencyReport("AgencyA", dayTwo, 2),
	})
	writeAgencyWorkbook(t, dir, "AgencyB", []*model.DailyReport{
		agencyReport("AgencyB", dayOne, 0),
		agencyReport("AgencyB", dayTwo, 1),
	})

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	result, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{HighlightZeroRows: true})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("Sources=%v, want 2 entries", result.Sources)
	}
	// Day one is zero for every source; day two is not.
	if len(result.UniversalZeroDates) != 1 {
		t.Fatalf("UniversalZeroDates=%v, want exactly day one", result.UniversalZeroDates)
	}
	if !result.UniversalZeroDates[0].Equal(dayOne) {
		t.Fatalf("universal zero date=%v, want %v", result.UniversalZeroDates[0], dayOne)
	}

	if result.GrandTotals["SumOrders"] != 3 {
		t.Fatalf("GrandTotals[SumOrders]=%v, want 3", result.GrandTotals["SumOrders"])
	}
}

func TestCombineDropsIdentityColumns(t *testing.T) {
	dir := t.TempDir()
	writeAgencyWorkbook(t, dir, "AgencyA", []*model.DailyReport{
		agencyReport("AgencyA", dayOne, 2),
	})

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	if _, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{}); err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	banner, _ := f.GetCellValue("Combined Data", "A1")
	if banner != "AgencyA" {
		t.Fatalf("banner A1=%q, want AgencyA", banner)
	}

	// Combined view starts at the date column: agency name/number columns
	// do not survive the combine.
	header, _ := f.GetCellValue("Combined Data", "A2")
	if header != "ReportDate" {
		t.Fatalf("header A2=%q, want ReportDate", header)
	}
	header, _ = f.GetCellValue("Combined Data", "B2")
	if header != "SumOrders" {
		t.Fatalf("header B2=%q, want SumOrders", header)
	}

	sum, _ := f.GetCellValue("Combined Data", "B3")
	if sum != "2" {
		t.Fatalf("first data cell B3=%q, want 2", sum)
	}
}

func TestCombineAlignsBlocksSideBySide(t *testing.T) {
	dir := t.TempDir()
	writeAgencyWorkbook(t, dir, "AgencyA", []*model.DailyReport{
		agencyReport("AgencyA", dayOne, 1),
		agencyReport("AgencyA", dayTwo, 2),
	})
	writeAgencyWorkbook(t, dir, "AgencyB", []*model.DailyReport{
		agencyReport("AgencyB", dayOne, 3),
		agencyReport("AgencyB", dayTwo, 4),
	})

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	if _, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{}); err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	// Each block carries ReportDate plus 6 Sum columns; one spacer column
	// separates blocks, so the second banner lands on column I.
	banner, _ := f.GetCellValue("Combined Data", "I1")
	if banner != "AgencyB" {
		t.Fatalf("second banner I1=%q, want AgencyB", banner)
	}

	// Rows for the same date must sit side by side.
	aOrders, _ := f.GetCellValue("Combined Data", "B3")
	bOrders, _ := f.GetCellValue("Combined Data", "J3")
	if aOrders != "1" || bOrders != "3" {
		t.Fatalf("day-one row misaligned: AgencyA=%q AgencyB=%q", aOrders, bOrders)
	}
}

func TestCombineSkipsUnusableSource(t *testing.T) {
	dir := t.TempDir()
	writeAgencyWorkbook(t, dir, "AgencyA", []*model.DailyReport{
		agencyReport("AgencyA", dayOne, 1),
	})

	// A workbook with no recognizable header row.
	junk := excelize.NewFile()
	if err := junk.SetCellValue("Sheet1", "A1", "not a report"); err != nil {
		t.Fatalf("SetCellValue failed: %v", err)
	}
	if err := junk.SaveAs(filepath.Join(dir, "junk.xlsx")); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	junk.Close()

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	result, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{})
	if err != nil {
		t.Fatalf("Combine should skip the junk workbook, got %v", err)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "AgencyA" {
		t.Fatalf("Sources=%v, want only AgencyA", result.Sources)
	}
}

func TestCombineReadsDataBelowStaleTimestamp(t *testing.T) {
	dir := t.TempDir()

	// A report amended after generation: rows were appended below the
	// original timestamp line and a new one written underneath. The data
	// region must reach down to the lowest marker.
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	cells := map[string]string{
		"A3":  "ReportDate",
		"B3":  "SumOrders",
		"A4":  "2/1/2024",
		"B4":  "1",
		"A5":  "2/2/2024",
		"B5":  "2",
		"A7":  "Generated: 1/1/2024 9:00:00 AM",
		"A9":  "2/5/2024",
		"B9":  "3",
		"A10": "2/6/2024",
		"B10": "4",
		"A12": "Generated: 2/1/2024 9:00:00 AM",
	}
	for cell, value := range cells {
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			t.Fatalf("SetCellValue %s failed: %v", cell, err)
		}
	}
	if err := f.SaveAs(filepath.Join(dir, "AgencyA.xlsx")); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	f.Close()

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	result, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if got := result.GrandTotals["SumOrders"]; got != 10 {
		t.Fatalf("GrandTotals[SumOrders]=%v, want 10 (rows below the stale timestamp dropped)", got)
	}
}

func TestCombineRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeAgencyWorkbook(t, dir, "AgencyA", []*model.DailyReport{
		agencyReport("AgencyA", dayOne, 1),
	})

	out := filepath.Join(t.TempDir(), "combined.xlsx")
	if err := os.WriteFile(out, []byte("keep"), 0644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := combiner.New(zap.NewNop()).Combine(dir, out, combiner.Options{}); err == nil {
		t.Fatalf("expected duplicate output error")
	}
}
