// Package exporter writes the generated report workbooks.
package exporter

import (
	"time"

	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

// Column is one output column of a report shape. Report layouts are
// declared as ordered column lists, never discovered by reflecting over
// struct fields, so the written header names are an explicit contract (the
// workbook combiner matches on them).
type Column[T any] struct {
	Header string
	Value  func(T) interface{}

	// Numeric marks a column eligible for the totals row. Identity marks
	// an identifier-typed column that must never be summed even when its
	// values are numbers.
	Numeric  bool
	Identity bool
}

// DailyReportColumns is the layout shared by the by-agency and by-date
// workbooks. Header names are load-bearing: the combiner locates
// "ReportDate" and "Sum"-prefixed columns by text.
func DailyReportColumns() []Column[*model.DailyReport] {
	return []Column[*model.DailyReport]{
		{Header: "AgencyNumber", Value: func(r *model.DailyReport) interface{} { return r.AgencyNumber }, Numeric: true, Identity: true},
		{Header: "AgencyName", Value: func(r *model.DailyReport) interface{} { return r.AgencyName }},
		{Header: "ReportDate", Value: func(r *model.DailyReport) interface{} { return r.ReportDate }},
		{Header: "SumOrders", Value: func(r *model.DailyReport) interface{} { return r.SumOrders }, Numeric: true},
		{Header: "SumAdults", Value: func(r *model.DailyReport) interface{} { return r.SumAdults }, Numeric: true},
		{Header: "SumChildren", Value: func(r *model.DailyReport) interface{} { return r.SumChildren }, Numeric: true},
		{Header: "SumAdultsChildren", Value: func(r *model.DailyReport) interface{} { return r.SumAdultsChildren() }, Numeric: true},
		{Header: "SumVouchers", Value: func(r *model.DailyReport) interface{} { return r.SumVouchers }, Numeric: true},
		{Header: "SumNewClients", Value: func(r *model.DailyReport) interface{} { return r.SumNewClients }, Numeric: true},
	}
}

// OrderColumns is the layout of the all-orders workbook.
func OrderColumns() []Column[*model.Order] {
	return []Column[*model.Order]{
		{Header: "OrderDate", Value: func(o *model.Order) interface{} { return o.OrderDate }},
		{Header: "AgencyNumber", Value: func(o *model.Order) interface{} { return o.AgencyNumber }, Numeric: true, Identity: true},
		{Header: "AgencyName", Value: func(o *model.Order) interface{} { return o.AgencyName }},
		{Header: "Adults", Value: func(o *model.Order) interface{} { return o.Adults }, Numeric: true},
		{Header: "Children", Value: func(o *model.Order) interface{} { return o.Children }, Numeric: true},
		{Header: "HasVoucher", Value: func(o *model.Order) interface{} { return o.HasVoucher }},
		{Header: "IsNewClient", Value: func(o *model.Order) interface{} { return o.IsNewClient }},
		{Header: "IsCity", Value: func(o *model.Order) interface{} { return o.IsCity }},
	}
}

// DateColumns is the layout of the weekday calendar workbook.
func DateColumns() []Column[time.Time] {
	return []Column[time.Time]{
		{Header: "Date", Value: func(d time.Time) interface{} { return d }},
	}
}
