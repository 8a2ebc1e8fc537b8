package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/diyradiolab/FoodPantryParser/internal/config"
)

type formRow struct {
	agencyName   string
	agencyNumber int
	adults       int
	children     int
	voucher      string
	newClient    string
	location     string
}

// writeOrderForm creates an order form workbook on disk matching the
// default template contract.
func writeOrderForm(t *testing.T, path string, date time.Time, rows []formRow) {
	t.Helper()
	layout := config.DefaultConfig().Template

	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)

	if !date.IsZero() {
		if err := f.SetCellValue(sheetName, layout.OrderDateCell, date); err != nil {
			t.Fatalf("set order date: %v", err)
		}
	}
	if err := f.SetCellValue(sheetName, layout.NewClientsCell, 3); err != nil {
		t.Fatalf("set new clients: %v", err)
	}
	if err := f.SetCellValue(sheetName, layout.VouchersCell, 1); err != nil {
		t.Fatalf("set vouchers: %v", err)
	}

	for i, row := range rows {
		r := layout.DataStartRow + i
		set := func(col string, v interface{}) {
			cell, err := excelize.JoinCellName(col, r)
			if err != nil {
				t.Fatalf("join cell: %v", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
		set(layout.KeyColumn, i+1)
		set(layout.AgencyNameColumn, row.agencyName)
		set(layout.AgencyNumberColumn, row.agencyNumber)
		set(layout.AdultsColumn, row.adults)
		set(layout.ChildrenColumn, row.children)
		if row.voucher != "" {
			set(layout.VoucherColumn, row.voucher)
		}
		if row.newClient != "" {
			set(layout.NewClientColumn, row.newClient)
		}
		if row.location != "" {
			set(layout.LocationColumn, row.location)
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = filepath.Join(root, "data")
	cfg.Data.OutputDir = filepath.Join(root, "out")
	if err := os.MkdirAll(cfg.Data.DataDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(cfg.Data.OutputDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return cfg
}

func alwaysYes(string) bool { return true }

func TestGeneratorEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	writeOrderForm(t, filepath.Join(cfg.Data.DataDir, "feb05.xlsx"),
		time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC),
		[]formRow{
			{agencyName: "Pantry A", agencyNumber: 101, adults: 2, children: 1, voucher: "x", location: "City"},
			{agencyName: "Pantry B", agencyNumber: 202, adults: 4, location: "County"},
		})
	writeOrderForm(t, filepath.Join(cfg.Data.DataDir, "feb06.xlsx"),
		time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC),
		[]formRow{
			{agencyName: "Pantry A", agencyNumber: 101, adults: 1, children: 3, newClient: "yes", location: "City"},
		})

	g := New(cfg, zap.NewNop(), time.February, 2024, alwaysYes)
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, rel := range []string{
		"February2024.xlsx",
		"all.xlsx",
		"February2024AgencyReports.xlsx",
		"info.txt",
		filepath.Join("ByAgency", "Pantry A.xlsx"),
		filepath.Join("ByAgency", "Pantry B.xlsx"),
		filepath.Join("ByDate", "20240205.xlsx"),
		filepath.Join("ByDate", "20240206.xlsx"),
	} {
		if _, err := os.Stat(filepath.Join(cfg.Data.OutputDir, rel)); err != nil {
			t.Errorf("expected output %s: %v", rel, err)
		}
	}

	info, err := os.ReadFile(filepath.Join(cfg.Data.OutputDir, "info.txt"))
	if err != nil {
		t.Fatalf("read info.txt: %v", err)
	}
	text := string(info)
	for _, want := range []string{
		"Number of order forms processed: 2",
		"Total Vouchers: 2",
		"Total New Clients: 6",
		"Total Orders: 3",
		"Total Persons: 11",
		"Total City Orders: 2",
		"Total City Persons: 7",
		"Wednesday, February 07, 2024",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("info.txt missing %q:\n%s", want, text)
		}
	}

	// A month of weekdays, zero-filled for days the agency had no orders.
	f, err := excelize.OpenFile(filepath.Join(cfg.Data.OutputDir, "ByAgency", "Pantry A.xlsx"))
	if err != nil {
		t.Fatalf("open agency report: %v", err)
	}
	defer f.Close()
	rowsGrid, err := f.GetRows("Report")
	if err != nil {
		t.Fatalf("read agency report: %v", err)
	}
	// Title row, blank row, header row, one row per February weekday, two
	// clear rows, then the timestamp row.
	if got, want := len(rowsGrid), 3+21+3; got != want {
		t.Fatalf("agency report rows = %d, want %d", got, want)
	}
	last := rowsGrid[len(rowsGrid)-1]
	if len(last) == 0 || !strings.HasPrefix(last[0], "Generated:") {
		t.Errorf("last row should be the timestamp, got %v", last)
	}
}

func TestGeneratorSkipsFormWithoutOrderDate(t *testing.T) {
	cfg := testConfig(t)

	writeOrderForm(t, filepath.Join(cfg.Data.DataDir, "good.xlsx"),
		time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC),
		[]formRow{{agencyName: "Pantry A", agencyNumber: 101, adults: 2, location: "City"}})
	writeOrderForm(t, filepath.Join(cfg.Data.DataDir, "undated.xlsx"),
		time.Time{},
		[]formRow{{agencyName: "Pantry B", agencyNumber: 202, adults: 4, location: "County"}})

	g := New(cfg, zap.NewNop(), time.February, 2024, alwaysYes)
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(cfg.Data.OutputDir, "ByDate"))
	if err != nil {
		t.Fatalf("read ByDate: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ByDate files = %d, want 1", len(entries))
	}

	info, err := os.ReadFile(filepath.Join(cfg.Data.OutputDir, "info.txt"))
	if err != nil {
		t.Fatalf("read info.txt: %v", err)
	}
	if !strings.Contains(string(info), "Number of order forms processed: 1") {
		t.Errorf("summary should count only the readable form:\n%s", info)
	}
}

func TestGeneratorClearsStaleOutputFolders(t *testing.T) {
	cfg := testConfig(t)

	stale := filepath.Join(cfg.Data.OutputDir, "ByDate", "20240101.xlsx")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	writeOrderForm(t, filepath.Join(cfg.Data.DataDir, "feb05.xlsx"),
		time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC),
		[]formRow{{agencyName: "Pantry A", agencyNumber: 101, adults: 2, location: "City"}})

	g := New(cfg, zap.NewNop(), time.February, 2024, alwaysYes)
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale ByDate file should have been cleared")
	}
}

func TestGeneratorAbortsWhenOperatorDeclines(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(filepath.Join(cfg.Data.OutputDir, "ByDate"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	g := New(cfg, zap.NewNop(), time.February, 2024, func(string) bool { return false })
	if err := g.Execute(); err == nil {
		t.Fatal("expected run to abort when the operator declines")
	}
}

func TestGeneratorFailsWithNoSourceFiles(t *testing.T) {
	cfg := testConfig(t)

	g := New(cfg, zap.NewNop(), time.February, 2024, alwaysYes)
	if err := g.Execute(); err == nil {
		t.Fatal("expected error for empty data folder")
	}
}
