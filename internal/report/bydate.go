package report

import (
	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

// DayReports builds the daily-total view for one source sheet: one report
// per agency encountered that day, in first-encounter order. The first
// order for an agency seeds its report; later orders for the same agency
// accumulate into it. Agencies with no orders that day do not appear.
func DayReports(orderSheet *model.OrderSheet) []*model.DailyReport {
	var reports []*model.DailyReport
	byName := make(map[string]*model.DailyReport)

	for _, o := range orderSheet.Orders {
		r, ok := byName[o.AgencyName]
		if !ok {
			r = model.NewDailyReport(o.OrderDate)
			r.AgencyName = o.AgencyName
			r.AgencyNumber = o.AgencyNumber
			byName[o.AgencyName] = r
			reports = append(reports, r)
		}
		r.Add(o)
	}

	return reports
}
