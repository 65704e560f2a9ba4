package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEVIATION FINDER - Days whose totals cross configured thresholds
// =============================================================================

// Default daily-hours thresholds. A day over the high mark or under the low
// mark (but above zero) is flagged for review.
var (
	DefaultHighThreshold = decimal.NewFromInt(10)
	DefaultLowThreshold  = decimal.NewFromInt(3)
)

// maxDeviations bounds the returned list to the most significant days.
const maxDeviations = 5

// FindDeviations scans per-day worked-hour totals for days exceeding high or
// undershooting low (zero-hour days are not deviations, they are absences).
// The result is bounded to the top maxDeviations by absolute deviation from
// the crossed threshold; exact ties break by date ascending.
func FindDeviations(rows []WageTypeRow, high, low decimal.Decimal) []Deviation {
	totals := make(map[Date]decimal.Decimal)
	for _, row := range rows {
		if row.Unit != UnitHours {
			continue
		}
		totals[row.Date] = totals[row.Date].Add(row.Quantity)
	}

	var out []Deviation
	for date, total := range totals {
		switch {
		case total.GreaterThan(high):
			out = append(out, Deviation{
				Date: date, TotalHours: total, Threshold: high,
				Kind: DeviationOver, Magnitude: total.Sub(high),
			})
		case total.IsPositive() && total.LessThan(low):
			out = append(out, Deviation{
				Date: date, TotalHours: total, Threshold: low,
				Kind: DeviationUnder, Magnitude: low.Sub(total),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Magnitude.Equal(out[j].Magnitude) {
			return out[i].Magnitude.GreaterThan(out[j].Magnitude)
		}
		return out[i].Date.Before(out[j].Date)
	})

	if len(out) > maxDeviations {
		out = out[:maxDeviations]
	}
	return out
}
