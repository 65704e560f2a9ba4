/*
engine.go - The payroll engine facade

PURPOSE:
  Orchestrates one computation end to end: intervals + rules -> classified
  segments -> ledger rows -> summary -> project breakdown -> deviations ->
  compliance warnings. One pass, strictly one-directional, no I/O.

GUARANTEES:
  - Idempotent: identical inputs produce structurally identical output.
    There is no randomness and no clock access; GeneratedAt is supplied by
    the caller.
  - Partial results: malformed intervals are skipped and reported in the
    Skipped side-channel; the batch continues. Only broken rate
    configuration is fatal.
  - Concurrency-safe by purity: an Engine holds only configuration, so one
    instance may serve concurrent Compute calls for different workers with
    no coordination. Batch processing fans out one call per worker.
*/
package payroll

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE - Facade over the computation pipeline
// =============================================================================

// Engine bundles the pluggable pieces of the pipeline. The zero value is
// not usable; construct with NewEngine.
type Engine struct {
	// Overtime reclassifies residual ordinary hours; defaults to the
	// single-day no-accrual placeholder.
	Overtime OvertimeAccrualPolicy

	// Compliance runs the advisory rule set over computed rows.
	Compliance *ComplianceChecker

	// Daily-hours deviation thresholds.
	HighThreshold decimal.Decimal
	LowThreshold  decimal.Decimal
}

// NewEngine returns an engine with default policies: no overtime accrual,
// the standard compliance rule set, and 10h/3h deviation thresholds.
func NewEngine() *Engine {
	return &Engine{
		Overtime:      NoOvertimeAccrual{},
		Compliance:    NewComplianceChecker(),
		HighThreshold: DefaultHighThreshold,
		LowThreshold:  DefaultLowThreshold,
	}
}

// ComputeInput is the immutable snapshot one computation runs over. The
// caller pre-filters intervals and allowances to approved records within
// the period; the engine does not re-query anything.
type ComputeInput struct {
	WorkerID    WorkerID
	Period      Period
	Intervals   []WorkedInterval
	Allowances  []Allowance
	Rates       RateTable
	GeneratedAt time.Time
}

// Compute runs the full pipeline over detailed worked intervals.
//
// An empty period (no intervals, no allowances) is a legitimate result with
// empty rows and an all-zero summary, not an error. Missing or invalid rate
// configuration is fatal for the whole call.
func (e *Engine) Compute(in ComputeInput) (*PayrollResult, error) {
	if !in.Period.Valid() {
		return nil, ErrInvalidPeriod
	}
	if err := in.Rates.Validate(in.WorkerID); err != nil {
		return nil, err
	}

	var segments []ClassifiedSegment
	var skipped []SkippedInterval
	for _, interval := range in.Intervals {
		segs, err := Classify(interval, in.Rates)
		if err != nil {
			// Per-record failure: skip this interval, keep the batch.
			var cerr *ClassificationError
			reason := err.Error()
			if errors.As(err, &cerr) {
				reason = cerr.Reason
			}
			skipped = append(skipped, SkippedInterval{IntervalID: interval.ID, Reason: reason})
			continue
		}
		segments = append(segments, segs...)
	}

	return e.assemble(in, segments, skipped)
}

// ComputeFromSnapshot runs the pipeline over pre-aggregated day records
// instead of detailed intervals. Selected by the caller when only coarse
// aggregates exist for the period.
func (e *Engine) ComputeFromSnapshot(in ComputeInput, snapshots []AggregateSnapshot) (*PayrollResult, error) {
	if !in.Period.Valid() {
		return nil, ErrInvalidPeriod
	}
	if err := in.Rates.Validate(in.WorkerID); err != nil {
		return nil, err
	}
	return e.assemble(in, SegmentsFromSnapshot(snapshots), nil)
}

// assemble is the shared tail of both tiers: rows, summary, breakdown,
// deviations, warnings.
func (e *Engine) assemble(in ComputeInput, segments []ClassifiedSegment, skipped []SkippedInterval) (*PayrollResult, error) {
	rows, err := Aggregate(segments, in.Allowances, in.Rates, in.WorkerID, e.Overtime)
	if err != nil {
		return nil, err
	}

	checker := e.Compliance
	if checker == nil {
		checker = NewComplianceChecker()
	}

	return &PayrollResult{
		WorkerID:    in.WorkerID,
		Period:      in.Period,
		GeneratedAt: in.GeneratedAt,
		Rows:        rows,
		Summary:     Summarize(rows),
		Breakdown:   BuildBreakdown(rows),
		Deviations:  FindDeviations(rows, e.HighThreshold, e.LowThreshold),
		Warnings:    checker.Check(rows),
		Skipped:     skipped,
	}, nil
}
