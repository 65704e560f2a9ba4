/*
rates.go - Per-organization rate configuration

PURPOSE:
  RateTable is the immutable pricing configuration one computation runs
  against: a base hourly rate per worker, a multiplier per premium category,
  fixed unit prices for allowance categories, and a holiday predicate.

KEY DECISIONS:
  - Passed by value into every call. The engine never reads rates from
    ambient/global state, which keeps it referentially transparent and
    trivially parallelizable across workers.
  - Missing premium multipliers default to 1.0 (treated as ordinary time),
    so a sparse configuration degrades gracefully instead of failing.
  - A missing base rate for the computed worker IS fatal: no row can be
    priced without it.

SEE ALSO:
  - factory/ratetable.go: Builds RateTable values from YAML/JSON documents
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE TABLE - Immutable per-organization pricing configuration
// =============================================================================

// RateTable maps categories to prices for one organization. Treated as
// read-only for the duration of a computation; the engine never mutates it.
type RateTable struct {
	OrgID    OrgID
	Currency string // informational; the engine is single-currency (SEK)

	// BaseRates holds the base hourly rate (SEK/hour) per worker.
	BaseRates map[WorkerID]decimal.Decimal

	// Multipliers scale the base rate per premium category, e.g.
	// evening 1.2, weekend 1.5, major holiday 2.0. Missing entries
	// default to 1.0.
	Multipliers map[Category]decimal.Decimal

	// AllowancePrices holds fixed unit prices for unit-count categories
	// (mileage SEK/km, per-diem SEK/day, piecework SEK/piece). Missing
	// entries price at zero, which compliance surfaces rather than hides.
	AllowancePrices map[Category]decimal.Decimal

	// IsHoliday reports whether a date carries the major-holiday premium.
	IsHoliday HolidayFunc
}

// Multiplier returns the category's rate multiplier, defaulting to 1.0 for
// unconfigured categories.
func (r RateTable) Multiplier(c Category) decimal.Decimal {
	if m, ok := r.Multipliers[c]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// BaseRate returns the worker's base hourly rate.
func (r RateTable) BaseRate(w WorkerID) (decimal.Decimal, error) {
	rate, ok := r.BaseRates[w]
	if !ok {
		return decimal.Zero, &RateConfigError{
			OrgID:  r.OrgID,
			Detail: "no base rate for worker " + string(w),
			Err:    ErrMissingBaseRate,
		}
	}
	return rate, nil
}

// AllowancePrice returns the fixed unit price for an allowance category,
// zero when unconfigured.
func (r RateTable) AllowancePrice(c Category) decimal.Decimal {
	if p, ok := r.AllowancePrices[c]; ok {
		return p
	}
	return decimal.Zero
}

// holiday is nil-safe so a zero-value table behaves like NoHolidays.
func (r RateTable) holiday(d Date) bool {
	if r.IsHoliday == nil {
		return false
	}
	return r.IsHoliday(d)
}

// Validate checks the table is usable for the given worker. A nil-map table
// is the "missing configuration" case from the error taxonomy: fatal.
func (r RateTable) Validate(w WorkerID) error {
	if r.BaseRates == nil {
		return &RateConfigError{OrgID: r.OrgID, Detail: "no base rates configured", Err: ErrMissingRateTable}
	}
	if _, err := r.BaseRate(w); err != nil {
		return err
	}
	return nil
}
