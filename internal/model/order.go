package model

import "time"

// Order is one household's service record for a single day. Orders are
// built once during extraction and never mutated afterwards.
type Order struct {
	OrderDate    time.Time
	AgencyNumber int64
	AgencyName   string
	Adults       int
	Children     int
	HasVoucher   bool
	IsNewClient  bool
	IsCity       bool
}

// Persons returns the household size recorded on the order.
func (o *Order) Persons() int {
	return o.Adults + o.Children
}

// OrderSheet wraps one source workbook: the order date shared by every row
// in the file, the new-client and voucher counts declared on the form
// itself, and the orders extracted from the data region.
//
// The declared counts come from dedicated summary cells on the form and are
// independent of the per-row derived counts; the period summary uses them
// as a cross-check.
type OrderSheet struct {
	SourceID   string
	SourcePath string
	OrderDate  time.Time
	NewClients int
	Vouchers   int
	Orders     []*Order
}
