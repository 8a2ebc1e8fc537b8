// Package generator drives one full reporting run: discover the source
// order forms, extract orders, aggregate both views, export every report
// workbook, and combine the by-agency outputs.
package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/diyradiolab/FoodPantryParser/internal/calendar"
	"github.com/diyradiolab/FoodPantryParser/internal/combiner"
	"github.com/diyradiolab/FoodPantryParser/internal/config"
	"github.com/diyradiolab/FoodPantryParser/internal/exporter"
	"github.com/diyradiolab/FoodPantryParser/internal/model"
	"github.com/diyradiolab/FoodPantryParser/internal/parser"
	"github.com/diyradiolab/FoodPantryParser/internal/report"
)

// ConfirmFunc asks the operator a yes/no question. Non-interactive runs
// pass a function that always answers yes.
type ConfirmFunc func(prompt string) bool

// Generator owns one reporting run for one (month, year) period.
type Generator struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	extractor *parser.Extractor
	confirm   ConfirmFunc

	month time.Month
	year  int

	outputDir   string
	byDateDir   string
	byAgencyDir string

	expectedDates []time.Time
}

// New creates a generator for the given period.
func New(cfg *config.AppConfig, logger *zap.Logger, month time.Month, year int, confirm ConfirmFunc) *Generator {
	outputDir := cfg.Data.OutputDir
	return &Generator{
		cfg:           cfg,
		logger:        logger,
		extractor:     parser.New(cfg.Template),
		confirm:       confirm,
		month:         month,
		year:          year,
		outputDir:     outputDir,
		byDateDir:     filepath.Join(outputDir, "ByDate"),
		byAgencyDir:   filepath.Join(outputDir, "ByAgency"),
		expectedDates: calendar.WeekdaysInMonth(month, year),
	}
}

// Execute runs the whole pipeline. A fatal error aborts the run; files
// whose order date cannot be read are logged and skipped.
func (g *Generator) Execute() error {
	if err := g.manageDirectories(); err != nil {
		return err
	}

	files, err := g.discoverFiles()
	if err != nil {
		return err
	}

	sheets, err := g.parseAll(files)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		return fmt.Errorf("no readable order forms in %s", g.cfg.Data.DataDir)
	}

	if err := g.writeCalendarReport(); err != nil {
		return err
	}

	allOrders := flattenOrders(sheets)

	if err := g.writeAllOrdersReport(allOrders); err != nil {
		return err
	}
	if err := g.writeByAgencyReports(allOrders); err != nil {
		return err
	}
	if err := g.combineByAgencyReports(); err != nil {
		return err
	}
	if err := g.writeByDateReports(sheets); err != nil {
		return err
	}

	g.logger.Info("reporting run finished",
		zap.String("period", g.periodLabel()),
		zap.Int("forms", len(sheets)),
		zap.Int("orders", len(allOrders)))
	return nil
}

// manageDirectories enforces the output contract: the ByDate and ByAgency
// folders start every run empty, so stale reports never collide with the
// duplicate-output check.
func (g *Generator) manageDirectories() error {
	_, byDateErr := os.Stat(g.byDateDir)
	_, byAgencyErr := os.Stat(g.byAgencyDir)
	if byDateErr == nil || byAgencyErr == nil {
		prompt := "The ByDate and ByAgency folders already exist and will be deleted with everything in them. Continue?"
		if !g.confirm(prompt) {
			return fmt.Errorf("run aborted: move %s and %s out of the way first", g.byDateDir, g.byAgencyDir)
		}
	}

	for _, dir := range []string{g.byDateDir, g.byAgencyDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		g.logger.Info("output folder ready", zap.String("dir", dir))
	}
	return nil
}

func (g *Generator) discoverFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(g.cfg.Data.DataDir, "*.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", g.cfg.Data.DataDir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no order forms found in %s", g.cfg.Data.DataDir)
	}
	g.logger.Info("order forms discovered", zap.Int("count", len(files)))
	return files, nil
}

// parseAll extracts every source file once; both aggregation passes reuse
// the result. A file with an unreadable order date is skipped with a logged
// cause; any other extraction failure aborts the run.
func (g *Generator) parseAll(files []string) ([]*model.OrderSheet, error) {
	sheets := make([]*model.OrderSheet, 0, len(files))
	for _, file := range files {
		orderSheet, err := g.extractor.ParseFile(file)
		if err != nil {
			if errors.Is(err, parser.ErrMissingOrderDate) {
				g.logger.Warn("skipping order form",
					zap.String("file", file),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		g.logger.Debug("order form parsed",
			zap.String("file", file),
			zap.String("source_id", orderSheet.SourceID),
			zap.Time("order_date", orderSheet.OrderDate),
			zap.Int("orders", len(orderSheet.Orders)))
		sheets = append(sheets, orderSheet)
	}
	return sheets, nil
}

func (g *Generator) writeCalendarReport() error {
	path := filepath.Join(g.outputDir, g.periodLabel()+".xlsx")
	err := exporter.WriteReport(path, exporter.DateColumns(), g.expectedDates, exporter.Options{
		SheetName: "Weekdays",
		Title:     "Weekdays Report",
	})
	if err != nil {
		return fmt.Errorf("weekday report: %w", err)
	}
	g.logger.Info("weekday report written", zap.String("path", path))
	return nil
}

func (g *Generator) writeAllOrdersReport(allOrders []*model.Order) error {
	path := filepath.Join(g.outputDir, "all.xlsx")
	err := exporter.WriteReport(path, exporter.OrderColumns(), allOrders, exporter.Options{
		SheetName: "Report",
		Title:     "All Orders",
	})
	if err != nil {
		return fmt.Errorf("all-orders report: %w", err)
	}
	g.logger.Info("all-orders report written", zap.Int("orders", len(allOrders)))
	return nil
}

func (g *Generator) writeByAgencyReports(allOrders []*model.Order) error {
	// Grouping is by exact name; tell the operator about names that look
	// like the same agency spelled two ways.
	for _, pair := range report.AuditAgencyNames(allOrders) {
		g.logger.Warn("agency names look like duplicates; fix the source files if they are the same agency",
			zap.String("name_a", pair.A),
			zap.String("name_b", pair.B))
	}

	months, err := report.ByAgency(allOrders, g.expectedDates)
	if err != nil {
		return err
	}

	for _, month := range months {
		path := filepath.Join(g.byAgencyDir, month.AgencyName+".xlsx")
		title := fmt.Sprintf("Monthly Agency Report - %s - %d/%d", month.AgencyName, int(g.month), g.year)
		err := exporter.WriteReport(path, exporter.DailyReportColumns(), month.Reports, exporter.Options{
			SheetName: "Report",
			Title:     title,
		})
		if err != nil {
			return fmt.Errorf("by-agency report for %s: %w", month.AgencyName, err)
		}
		g.logger.Info("agency report written", zap.String("agency", month.AgencyName))
	}
	return nil
}

func (g *Generator) combineByAgencyReports() error {
	path := filepath.Join(g.outputDir, g.periodLabel()+"AgencyReports.xlsx")
	result, err := combiner.New(g.logger).Combine(g.byAgencyDir, path, combiner.Options{
		HighlightZeroRows: true,
	})
	if err != nil {
		return fmt.Errorf("combine by-agency reports: %w", err)
	}
	g.logger.Info("agency reports combined",
		zap.Int("sources", len(result.Sources)),
		zap.Int("universal_zero_days", len(result.UniversalZeroDates)))
	return nil
}

func (g *Generator) writeByDateReports(sheets []*model.OrderSheet) error {
	summary := report.NewPeriodSummary()

	for _, orderSheet := range sheets {
		summary.AddSheet(orderSheet)

		reports := report.DayReports(orderSheet)
		if len(reports) == 0 {
			g.logger.Warn("order form has no orders",
				zap.String("file", orderSheet.SourcePath))
			continue
		}

		path := filepath.Join(g.byDateDir, calendar.FormatCompact(orderSheet.OrderDate)+".xlsx")
		title := fmt.Sprintf("Daily Report Totals (%s)", calendar.FormatLong(orderSheet.OrderDate))
		err := exporter.WriteReport(path, exporter.DailyReportColumns(), reports, exporter.Options{
			SheetName:  "Report",
			Title:      title,
			WithTotals: true,
		})
		if err != nil {
			return fmt.Errorf("by-date report for %s: %w", orderSheet.SourcePath, err)
		}
		g.logger.Info("daily report written",
			zap.String("date", calendar.FormatLong(orderSheet.OrderDate)))
	}

	return g.writeSummary(summary)
}

func (g *Generator) writeSummary(summary *report.PeriodSummary) error {
	text := summary.Render(g.expectedDates)
	path := filepath.Join(g.outputDir, "info.txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	g.logger.Info("period summary written",
		zap.Int("forms", summary.FilesProcessed),
		zap.Int("total_orders", summary.TotalOrders),
		zap.Int("total_persons", summary.TotalPersons),
		zap.Int("total_vouchers", summary.TotalVouchers),
		zap.Int("total_new_clients", summary.TotalNewClients),
		zap.Int("missing_dates", len(summary.MissingDates(g.expectedDates))))
	return nil
}

func (g *Generator) periodLabel() string {
	return fmt.Sprintf("%s%d", g.month.String(), g.year)
}

func flattenOrders(sheets []*model.OrderSheet) []*model.Order {
	var all []*model.Order
	for _, s := range sheets {
		all = append(all, s.Orders...)
	}
	return all
}
