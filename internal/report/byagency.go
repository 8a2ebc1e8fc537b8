// Package report folds extracted orders into the two aggregate views: by
// agency across the month, and by date across agencies.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

// AgencyMonth is the monthly by-agency view for one agency: exactly one
// DailyReport per expected date, zero-filled for dates with no orders.
type AgencyMonth struct {
	AgencyName string
	Reports    []*model.DailyReport
}

// ByAgency groups the period's flat order list by exact agency name and
// emits one AgencyMonth per agency, in lexicographic name order. Every
// expected date gets a report whether or not orders exist for it.
//
// An agency name that cannot become an output file name is rejected before
// any report is produced for it.
func ByAgency(orders []*model.Order, expectedDates []time.Time) ([]*AgencyMonth, error) {
	groups := make(map[string][]*model.Order)
	for _, o := range orders {
		groups[o.AgencyName] = append(groups[o.AgencyName], o)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	months := make([]*AgencyMonth, 0, len(names))
	for _, name := range names {
		if HasIllegalFilenameChars(name) {
			return nil, fmt.Errorf("agency name %q has characters illegal in a file name", name)
		}

		group := groups[name]
		byDate := make(map[time.Time][]*model.Order)
		for _, o := range group {
			byDate[o.OrderDate] = append(byDate[o.OrderDate], o)
		}

		month := &AgencyMonth{AgencyName: name}
		for _, date := range expectedDates {
			r := model.NewDailyReport(date)
			r.AgencyName = name
			r.AgencyNumber = group[0].AgencyNumber
			for _, o := range byDate[date] {
				r.Add(o)
			}
			month.Reports = append(month.Reports, r)
		}
		months = append(months, month)
	}

	return months, nil
}

// illegalFilenameChars is the superset of characters rejected by the
// filesystems the reports land on.
const illegalFilenameChars = `<>:"/\|?*`

// HasIllegalFilenameChars reports whether name cannot be used verbatim as
// an output file name.
func HasIllegalFilenameChars(name string) bool {
	if strings.ContainsAny(name, illegalFilenameChars) {
		return true
	}
	for _, r := range name {
		if r < 0x20 {
			return true
		}
	}
	return false
}
