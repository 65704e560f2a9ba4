/*
aggregate.go - Folding classified segments into the wage-type ledger

PURPOSE:
  Turns classified segments and allowance records into WageTypeRows, one row
  per (date, project, category). This is where quantities become money.

KEY DECISIONS:
  - The ordinary row is a RESIDUAL: total classified time per (date, project)
    minus every non-ordinary segment. It is never computed independently, so
    the classifier's coverage invariant carries through to the ledger:
    ordinary + the directly-rowed categories always equals total worked time.
    Snapshot-sourced segments carrying categories outside the premium set
    (overtime, travel, absence) keep their category this way instead of
    being repriced as ordinary time.
  - Row key uniqueness (one row per date/project/category) is guaranteed by
    construction: rows are built from a map. A duplicate key in the output
    would be a grouping bug, not a runtime condition.
  - Amounts round to 2 decimals, half away from zero (standard Swedish
    accounting rounding); decimal.Round implements exactly that.
  - Allowances bypass the hour sweep: they are unit-count rows priced from
    the org's fixed allowance rates. Hour-unit allowances without a
    configured price fall back to base rate x category multiplier.

SEE ALSO:
  - classify.go: Produces the input segments
  - overtime.go: The per-day overtime split applied to the residual
*/
package payroll

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// rowKey is the ledger grouping key. At most one row exists per key in any
// computation.
type rowKey struct {
	Date      Date
	ProjectID ProjectID
	Category  Category
}

// rowAccum collects quantities and source tags for one key before pricing.
type rowAccum struct {
	Quantity decimal.Decimal
	Unit     Unit
	Sources  []string
}

func (a *rowAccum) addSource(tag string) {
	if tag == "" {
		return
	}
	for _, s := range a.Sources {
		if s == tag {
			return
		}
	}
	a.Sources = append(a.Sources, tag)
}

// Aggregate folds classified segments and allowances into priced ledger
// rows for one worker. Overtime reclassification uses the given policy;
// pass NoOvertimeAccrual{} for the plain single-day model.
func Aggregate(segments []ClassifiedSegment, allowances []Allowance, rates RateTable, worker WorkerID, overtime OvertimeAccrualPolicy) ([]WageTypeRow, error) {
	base, err := rates.BaseRate(worker)
	if err != nil {
		return nil, err
	}
	if overtime == nil {
		overtime = NoOvertimeAccrual{}
	}

	accums := make(map[rowKey]*rowAccum)
	var order []rowKey

	touch := func(key rowKey, unit Unit) *rowAccum {
		a, ok := accums[key]
		if !ok {
			a = &rowAccum{Unit: unit}
			accums[key] = a
			order = append(order, key)
		}
		return a
	}

	// Non-ordinary segments become rows directly; all segments feed the
	// per-day totals the ordinary residual is derived from.
	type dayKey struct {
		Date      Date
		ProjectID ProjectID
	}
	totals := make(map[dayKey]decimal.Decimal)
	direct := make(map[dayKey]decimal.Decimal)
	daySources := make(map[dayKey][]string)
	var dayOrder []dayKey

	for _, seg := range segments {
		dk := dayKey{Date: seg.Date, ProjectID: seg.ProjectID}
		if _, seen := totals[dk]; !seen {
			dayOrder = append(dayOrder, dk)
		}
		totals[dk] = totals[dk].Add(seg.Hours)
		if seg.SourceTag != "" {
			daySources[dk] = appendUnique(daySources[dk], seg.SourceTag)
		}

		if seg.Category != CategoryOrdinary {
			direct[dk] = direct[dk].Add(seg.Hours)
			key := rowKey{Date: seg.Date, ProjectID: seg.ProjectID, Category: seg.Category}
			a := touch(key, UnitHours)
			a.Quantity = a.Quantity.Add(seg.Hours)
			a.addSource(seg.SourceTag)
		}
	}

	// Residual ordinary per (date, project): total minus the directly-rowed
	// segments, then the overtime policy may carve a portion into qualified
	// overtime.
	for _, dk := range dayOrder {
		ordinary := totals[dk].Sub(direct[dk])
		if !ordinary.IsPositive() {
			continue
		}

		ot := overtime.Overtime(dk.Date, ordinary)
		if ot.IsPositive() {
			ordinary = ordinary.Sub(ot)
			a := touch(rowKey{Date: dk.Date, ProjectID: dk.ProjectID, Category: CategoryOvertime}, UnitHours)
			a.Quantity = a.Quantity.Add(ot)
			for _, s := range daySources[dk] {
				a.addSource(s)
			}
		}
		if ordinary.IsPositive() {
			a := touch(rowKey{Date: dk.Date, ProjectID: dk.ProjectID, Category: CategoryOrdinary}, UnitHours)
			a.Quantity = a.Quantity.Add(ordinary)
			for _, s := range daySources[dk] {
				a.addSource(s)
			}
		}
	}

	// Allowances: independent unit-count rows, summed into the same keyed
	// ledger so key uniqueness holds across both input kinds.
	for _, al := range allowances {
		key := rowKey{Date: al.Date, ProjectID: al.ProjectID, Category: al.Category}
		a := touch(key, al.Unit)
		a.Quantity = a.Quantity.Add(al.Quantity)
		a.addSource(al.SourceTag)
		a.addSource(al.Comment)
	}

	rows := make([]WageTypeRow, 0, len(order))
	for _, key := range order {
		a := accums[key]
		price := unitPrice(key.Category, a.Unit, base, rates)
		rows = append(rows, WageTypeRow{
			Date:         key.Date,
			ProjectID:    key.ProjectID,
			Category:     key.Category,
			CategoryName: key.Category.DisplayName(),
			Quantity:     a.Quantity,
			Unit:         a.Unit,
			UnitPrice:    price,
			Amount:       a.Quantity.Mul(price).Round(2),
			Source:       strings.Join(a.Sources, "; "),
			Attestation:  AttestCreated,
		})
	}

	sortRows(rows)
	return rows, nil
}

// unitPrice resolves the SEK price of one unit for a row. Hour-unit
// categories price from the base rate and multiplier; unit-count categories
// price from the fixed allowance rates.
func unitPrice(c Category, unit Unit, base decimal.Decimal, rates RateTable) decimal.Decimal {
	if p, ok := rates.AllowancePrices[c]; ok {
		return p.Round(2)
	}
	if unit == UnitHours {
		return base.Mul(rates.Multiplier(c)).Round(2)
	}
	return decimal.Zero
}

// sortRows gives rows a stable, deterministic order: date, then project
// (unassigned first), then category ledger order.
func sortRows(rows []WageTypeRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].ProjectID != rows[j].ProjectID {
			return rows[i].ProjectID < rows[j].ProjectID
		}
		return categoryRank(rows[i].Category) < categoryRank(rows[j].Category)
	})
}

func categoryRank(c Category) int {
	if r, ok := categoryOrder[c]; ok {
		return r
	}
	return len(AllCategories) // unknown codes sort last
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
