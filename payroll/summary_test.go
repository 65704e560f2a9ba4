package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

func hourRow(date payroll.Date, project payroll.ProjectID, cat payroll.Category, hours float64, amount float64) payroll.WageTypeRow {
	return payroll.WageTypeRow{
		Date:         date,
		ProjectID:    project,
		Category:     cat,
		CategoryName: cat.DisplayName(),
		Quantity:     decimal.NewFromFloat(hours),
		Unit:         payroll.UnitHours,
		Amount:       decimal.NewFromFloat(amount),
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummarize_TotalsMatchRows(t *testing.T) {
	// GIVEN: Rows across categories and units
	// WHEN: Summarized
	// THEN: total_worked_hours = sum of hour-unit quantities,
	//       total_gross_amount = sum of all amounts

	d := payroll.NewDate(2025, time.March, 5)
	rows := []payroll.WageTypeRow{
		hourRow(d, "P1", payroll.CategoryOrdinary, 8, 1600),
		hourRow(d, "P1", payroll.CategoryEveningOB, 2, 480),
		{Date: d, ProjectID: "P1", Category: payroll.CategoryMileage,
			Quantity: decimal.NewFromInt(42), Unit: payroll.UnitKm, Amount: decimal.NewFromInt(105)},
	}

	s := payroll.Summarize(rows)

	assert.True(t, s.OrdinaryHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, s.EveningOBHours.Equal(decimal.NewFromInt(2)))
	assert.True(t, s.MileageKm.Equal(decimal.NewFromInt(42)))
	assert.True(t, s.TotalWorkedHours.Equal(decimal.NewFromInt(10)), "km rows are not worked hours")
	assert.True(t, s.TotalGrossAmount.Equal(decimal.NewFromInt(2185)))
}

func TestSummarize_EveryKnownCategoryHasAField(t *testing.T) {
	// GIVEN: One row per known category
	// WHEN: Summarized one at a time
	// THEN: Nothing lands in the catch-all bucket - the mapping table is
	//       exhaustive over AllCategories

	d := payroll.NewDate(2025, time.March, 5)
	for _, cat := range payroll.AllCategories {
		s := payroll.Summarize([]payroll.WageTypeRow{hourRow(d, "P1", cat, 1, 0)})
		assert.True(t, s.OtherQuantity.IsZero(), "category %s fell into the other bucket", cat)
	}
}

func TestSummarize_UnknownCategoryGoesToOtherBucket(t *testing.T) {
	// Unknown codes are accumulated, not dropped: dropping would hide
	// data-entry and configuration errors.
	d := payroll.NewDate(2025, time.March, 5)
	s := payroll.Summarize([]payroll.WageTypeRow{
		hourRow(d, "P1", payroll.Category("LEGACY_93"), 4, 100),
	})

	assert.True(t, s.OtherQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, s.TotalGrossAmount.Equal(decimal.NewFromInt(100)))
}

func TestSummarize_OrderIndependent(t *testing.T) {
	d := payroll.NewDate(2025, time.March, 5)
	rows := []payroll.WageTypeRow{
		hourRow(d, "P1", payroll.CategoryOrdinary, 8, 1600),
		hourRow(d, "P2", payroll.CategoryNightOB, 3, 720),
		hourRow(d.AddDays(1), "P1", payroll.CategorySick, 8, 0),
	}
	reversed := []payroll.WageTypeRow{rows[2], rows[1], rows[0]}

	assert.Equal(t, payroll.Summarize(rows), payroll.Summarize(reversed))
}

// =============================================================================
// PROJECT BREAKDOWN
// =============================================================================

func TestBuildBreakdown_GroupsByProjectWithUnassignedBucket(t *testing.T) {
	// GIVEN: Rows on P1, P2, and with no project
	// WHEN: Broken down
	// THEN: Three groups; the unassigned bucket sorts first; subtotals and
	//       grand totals match the rows

	d := payroll.NewDate(2025, time.March, 5)
	rows := []payroll.WageTypeRow{
		hourRow(d, "P1", payroll.CategoryOrdinary, 8, 1600),
		hourRow(d.AddDays(1), "P1", payroll.CategoryOrdinary, 4, 800),
		hourRow(d, "P2", payroll.CategoryWeekendOB, 6, 1800),
		hourRow(d, "", payroll.CategoryTravelTime, 1, 200),
	}

	groups := payroll.BuildBreakdown(rows)
	require.Len(t, groups, 3)

	assert.True(t, groups[0].ProjectID.IsZero(), "unassigned bucket first")
	assert.True(t, groups[0].TotalAmount.Equal(decimal.NewFromInt(200)))

	assert.Equal(t, payroll.ProjectID("P1"), groups[1].ProjectID)
	require.Len(t, groups[1].Subtotals, 1, "same category across dates merges")
	assert.True(t, groups[1].Subtotals[0].Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, groups[1].TotalAmount.Equal(decimal.NewFromInt(2400)))
	assert.True(t, groups[1].TotalHours.Equal(decimal.NewFromInt(12)))

	assert.Equal(t, payroll.ProjectID("P2"), groups[2].ProjectID)
	assert.True(t, groups[2].TotalAmount.Equal(decimal.NewFromInt(1800)))
}

func TestBuildBreakdown_EmptyRows(t *testing.T) {
	assert.Empty(t, payroll.BuildBreakdown(nil))
}
