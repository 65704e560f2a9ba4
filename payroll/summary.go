/*
summary.go - Fixed-shape roll-up and per-project breakdown

PURPOSE:
  Reduces the row set into the Summary record and the per-project breakdown.
  Both are pure, order-independent reductions (summation only), so they are
  deterministic regardless of row order.

MAPPING TABLE:
  Each category maps to its summary field through summaryFields, an explicit
  exhaustive table rather than a switch. Unknown category codes accumulate
  into OtherQuantity - dropping them would hide data-entry and configuration
  errors. A test walks AllCategories against the table so a new category
  cannot ship without a summary field.
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY - Category roll-up
// =============================================================================

// summaryFields maps each category to the accumulator for its Summary field.
// Exhaustive over AllCategories; verified by test.
var summaryFields = map[Category]func(*Summary, decimal.Decimal){
	CategoryOrdinary:   func(s *Summary, q decimal.Decimal) { s.OrdinaryHours = s.OrdinaryHours.Add(q) },
	CategoryOvertime:   func(s *Summary, q decimal.Decimal) { s.OvertimeHours = s.OvertimeHours.Add(q) },
	CategoryEveningOB:  func(s *Summary, q decimal.Decimal) { s.EveningOBHours = s.EveningOBHours.Add(q) },
	CategoryNightOB:    func(s *Summary, q decimal.Decimal) { s.NightOBHours = s.NightOBHours.Add(q) },
	CategoryWeekendOB:  func(s *Summary, q decimal.Decimal) { s.WeekendOBHours = s.WeekendOBHours.Add(q) },
	CategoryHolidayOB:  func(s *Summary, q decimal.Decimal) { s.HolidayOBHours = s.HolidayOBHours.Add(q) },
	CategoryStandby:    func(s *Summary, q decimal.Decimal) { s.StandbyHours = s.StandbyHours.Add(q) },
	CategoryDispatch:   func(s *Summary, q decimal.Decimal) { s.DispatchHours = s.DispatchHours.Add(q) },
	CategoryTravelTime: func(s *Summary, q decimal.Decimal) { s.TravelTimeHours = s.TravelTimeHours.Add(q) },
	CategoryMileage:    func(s *Summary, q decimal.Decimal) { s.MileageKm = s.MileageKm.Add(q) },
	CategoryPerDiem:    func(s *Summary, q decimal.Decimal) { s.PerDiemDays = s.PerDiemDays.Add(q) },
	CategoryWeather:    func(s *Summary, q decimal.Decimal) { s.WeatherHours = s.WeatherHours.Add(q) },
	CategoryPiecework:  func(s *Summary, q decimal.Decimal) { s.PieceworkUnits = s.PieceworkUnits.Add(q) },
	CategorySick:       func(s *Summary, q decimal.Decimal) { s.SickHours = s.SickHours.Add(q) },
	CategoryVacation:   func(s *Summary, q decimal.Decimal) { s.VacationHours = s.VacationHours.Add(q) },
}

// Summarize reduces a row set into the fixed-shape Summary.
func Summarize(rows []WageTypeRow) Summary {
	var s Summary
	for _, row := range rows {
		if accumulate, ok := summaryFields[row.Category]; ok {
			accumulate(&s, row.Quantity)
		} else {
			s.OtherQuantity = s.OtherQuantity.Add(row.Quantity)
		}
		if row.Unit == UnitHours {
			s.TotalWorkedHours = s.TotalWorkedHours.Add(row.Quantity)
		}
		s.TotalGrossAmount = s.TotalGrossAmount.Add(row.Amount)
	}
	return s
}

// =============================================================================
// PROJECT BREAKDOWN
// =============================================================================

// BuildBreakdown groups rows by project and reduces each group into
// per-category subtotals plus totals. Rows without a project fall into a
// single unassigned bucket (zero-value ProjectID), sorted first.
func BuildBreakdown(rows []WageTypeRow) []ProjectBreakdown {
	type subKey struct {
		project  ProjectID
		category Category
	}
	subs := make(map[subKey]*CategorySubtotal)
	projects := make(map[ProjectID]*ProjectBreakdown)
	var projectOrder []ProjectID

	for _, row := range rows {
		pb, ok := projects[row.ProjectID]
		if !ok {
			pb = &ProjectBreakdown{ProjectID: row.ProjectID}
			projects[row.ProjectID] = pb
			projectOrder = append(projectOrder, row.ProjectID)
		}

		sk := subKey{project: row.ProjectID, category: row.Category}
		st, ok := subs[sk]
		if !ok {
			st = &CategorySubtotal{Category: row.Category, Name: row.CategoryName, Unit: row.Unit}
			subs[sk] = st
		}
		st.Quantity = st.Quantity.Add(row.Quantity)
		st.Amount = st.Amount.Add(row.Amount)

		pb.TotalAmount = pb.TotalAmount.Add(row.Amount)
		if row.Unit == UnitHours {
			pb.TotalHours = pb.TotalHours.Add(row.Quantity)
		}
	}

	sort.Slice(projectOrder, func(i, j int) bool { return projectOrder[i] < projectOrder[j] })

	out := make([]ProjectBreakdown, 0, len(projectOrder))
	for _, pid := range projectOrder {
		pb := projects[pid]
		// Emit subtotals in ledger category order.
		var cats []Category
		for sk := range subs {
			if sk.project == pid {
				cats = append(cats, sk.category)
			}
		}
		sort.Slice(cats, func(i, j int) bool { return categoryRank(cats[i]) < categoryRank(cats[j]) })
		for _, c := range cats {
			pb.Subtotals = append(pb.Subtotals, *subs[subKey{project: pid, category: c}])
		}
		out = append(out, *pb)
	}
	return out
}
