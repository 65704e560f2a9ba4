/*
snapshot.go - Row synthesis from pre-aggregated day records

PURPOSE:
  The second tier of the two-tier construction strategy. When detailed
  worked intervals are unavailable (e.g. only per-day approved totals were
  migrated from a legacy system), rows are synthesized from coarse per-day
  aggregates instead of the hour sweep. The caller chooses the tier based
  on data availability; nothing here is an implicit fallback inside the
  aggregator.

  The ordinary portion is the same residual split as the interval path:
  ordinary = total - sum(broken-out portions).
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// AggregateSnapshot is one pre-aggregated day record for a worker: total
// worked hours plus the non-ordinary portions (OB, overtime, travel,
// absence) already broken out by whatever produced the aggregate. Each
// broken-out portion keeps its category in the ledger; only the remainder
// is ordinary time.
type AggregateSnapshot struct {
	WorkerID     WorkerID
	Date         Date
	ProjectID    ProjectID
	TotalHours   decimal.Decimal
	BrokenOutHours map[Category]decimal.Decimal
	SourceTag    string
}

// SegmentsFromSnapshot expands day aggregates into classified segments so
// the rest of the pipeline (aggregation, summary, compliance) is shared
// with the interval path.
func SegmentsFromSnapshot(snapshots []AggregateSnapshot) []ClassifiedSegment {
	var segments []ClassifiedSegment
	for _, snap := range snapshots {
		brokenOut := decimal.Zero
		// Emit broken-out portions in ledger order for determinism.
		for _, cat := range AllCategories {
			if cat == CategoryOrdinary {
				continue
			}
			hours, ok := snap.BrokenOutHours[cat]
			if !ok || !hours.IsPositive() {
				continue
			}
			brokenOut = brokenOut.Add(hours)
			segments = append(segments, ClassifiedSegment{
				IntervalID: snap.SourceTag,
				ProjectID:  snap.ProjectID,
				Date:       snap.Date,
				Category:   cat,
				Hours:      hours,
				SourceTag:  snap.SourceTag,
			})
		}

		ordinary := snap.TotalHours.Sub(brokenOut)
		if ordinary.IsPositive() {
			segments = append(segments, ClassifiedSegment{
				IntervalID: snap.SourceTag,
				ProjectID:  snap.ProjectID,
				Date:       snap.Date,
				Category:   CategoryOrdinary,
				Hours:      ordinary,
				SourceTag:  snap.SourceTag,
			})
		}
	}
	return segments
}
