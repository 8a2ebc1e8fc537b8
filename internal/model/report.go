package model

import "time"

// DailyReport is one aggregate cell in the (agency x date) matrix. All sums
// start at zero; a report for an expected date with no orders keeps them
// there.
type DailyReport struct {
	AgencyNumber  int64
	AgencyName    string
	ReportDate    time.Time
	SumOrders     int
	SumAdults     int
	SumChildren   int
	SumVouchers   int
	SumNewClients int
}

// NewDailyReport creates a zero-valued report for the given date.
func NewDailyReport(date time.Time) *DailyReport {
	return &DailyReport{ReportDate: date}
}

// SumAdultsChildren is derived, never stored independently.
func (r *DailyReport) SumAdultsChildren() int {
	return r.SumAdults + r.SumChildren
}

// Add folds one order into the report's accumulators.
func (r *DailyReport) Add(o *Order) {
	r.SumOrders++
	r.SumAdults += o.Adults
	r.SumChildren += o.Children
	if o.HasVoucher {
		r.SumVouchers++
	}
	if o.IsNewClient {
		r.SumNewClients++
	}
}
