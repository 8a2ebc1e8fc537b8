package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/diyradiolab/FoodPantryParser/internal/calendar"
	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

// PeriodSummary accumulates the whole-period counters as source sheets are
// processed. Voucher and new-client totals come from the counts declared on
// each form, not from the per-row derived flags, so operators can cross
// check the two.
type PeriodSummary struct {
	FilesProcessed   int
	TotalVouchers    int
	TotalNewClients  int
	TotalOrders      int
	TotalPersons     int
	TotalCityOrders  int
	TotalCityPersons int

	orderDates map[time.Time]bool
}

// NewPeriodSummary creates an empty summary.
func NewPeriodSummary() *PeriodSummary {
	return &PeriodSummary{orderDates: make(map[time.Time]bool)}
}

// AddSheet folds one source sheet into the running totals.
func (s *PeriodSummary) AddSheet(orderSheet *model.OrderSheet) {
	s.FilesProcessed++
	s.TotalVouchers += orderSheet.Vouchers
	s.TotalNewClients += orderSheet.NewClients

	for _, o := range orderSheet.Orders {
		s.TotalOrders++
		s.TotalPersons += o.Persons()
		if o.IsCity {
			s.TotalCityOrders++
			s.TotalCityPersons += o.Persons()
		}
		s.orderDates[o.OrderDate] = true
	}
}

// MissingDates returns the expected dates no order was ever recorded for,
// in calendar order. Missing dates are diagnostic, never an error.
func (s *PeriodSummary) MissingDates(expectedDates []time.Time) []time.Time {
	var missing []time.Time
	for _, date := range expectedDates {
		if !s.orderDates[date] {
			missing = append(missing, date)
		}
	}
	return missing
}

// Render produces the plain-text period summary written alongside the
// spreadsheets.
func (s *PeriodSummary) Render(expectedDates []time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of order forms processed: %d\n", s.FilesProcessed)
	fmt.Fprintf(&b, "Total Vouchers: %d\n", s.TotalVouchers)
	fmt.Fprintf(&b, "Total New Clients: %d\n", s.TotalNewClients)
	fmt.Fprintf(&b, "Total Orders: %d\n", s.TotalOrders)
	fmt.Fprintf(&b, "Total Persons: %d\n", s.TotalPersons)
	fmt.Fprintf(&b, "Total City Orders: %d\n", s.TotalCityOrders)
	fmt.Fprintf(&b, "Total City Persons: %d\n", s.TotalCityPersons)
	b.WriteString("\n")
	b.WriteString("Dates without any orders\n")
	for _, date := range s.MissingDates(expectedDates) {
		b.WriteString(calendar.FormatLong(date))
		b.WriteString("\n")
	}
	return b.String()
}
