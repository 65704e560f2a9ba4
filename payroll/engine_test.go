package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func marchPeriod() payroll.Period {
	return payroll.Period{
		Start: payroll.NewDate(2025, time.March, 1),
		End:   payroll.NewDate(2025, time.March, 31),
	}
}

func computeInput(intervals []payroll.WorkedInterval, allowances []payroll.Allowance) payroll.ComputeInput {
	return payroll.ComputeInput{
		WorkerID:    "w-1",
		Period:      marchPeriod(),
		Intervals:   intervals,
		Allowances:  allowances,
		Rates:       testRates(),
		GeneratedAt: time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// EMPTY PERIOD
// =============================================================================

func TestCompute_EmptyPeriod_IsNotAnError(t *testing.T) {
	// GIVEN: Zero intervals and zero allowances, valid rates
	// WHEN: Computed
	// THEN: Empty rows, all-zero summary, empty breakdown/deviations/
	//       warnings - and no error

	result, err := payroll.NewEngine().Compute(computeInput(nil, nil))
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Breakdown)
	assert.Empty(t, result.Deviations)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Skipped)
	assert.True(t, result.Summary.TotalWorkedHours.IsZero())
	assert.True(t, result.Summary.TotalGrossAmount.IsZero())
}

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

func TestCompute_MissingRateTable_Fatal(t *testing.T) {
	in := computeInput(nil, nil)
	in.Rates = payroll.RateTable{}

	_, err := payroll.NewEngine().Compute(in)
	require.Error(t, err)
	assert.True(t, payroll.IsConfigError(err))
	assert.ErrorIs(t, err, payroll.ErrMissingRateTable)
}

func TestCompute_MissingWorkerBaseRate_Fatal(t *testing.T) {
	in := computeInput(nil, nil)
	in.WorkerID = "w-unknown"

	_, err := payroll.NewEngine().Compute(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrMissingBaseRate)
}

func TestCompute_InvalidPeriod_Fatal(t *testing.T) {
	in := computeInput(nil, nil)
	in.Period = payroll.Period{
		Start: payroll.NewDate(2025, time.March, 31),
		End:   payroll.NewDate(2025, time.March, 1),
	}

	_, err := payroll.NewEngine().Compute(in)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

// =============================================================================
// PER-RECORD FAILURES
// =============================================================================

func TestCompute_MalformedInterval_SkippedNotFatal(t *testing.T) {
	// GIVEN: One good interval and one with end == start
	// WHEN: Computed
	// THEN: The good interval produces rows; the bad one lands in the
	//       Skipped side-channel; no error is raised

	good := interval("i-good", mar(5, 8, 0), mar(5, 16, 0))
	good.ProjectID = "P1"
	bad := interval("i-bad", mar(6, 8, 0), mar(6, 8, 0))

	result, err := payroll.NewEngine().Compute(computeInput(
		[]payroll.WorkedInterval{good, bad}, nil))
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "i-bad", result.Skipped[0].IntervalID)
	assert.NotEmpty(t, result.Skipped[0].Reason)

	require.Len(t, result.Rows, 1)
	assert.True(t, result.Summary.TotalWorkedHours.Equal(decimal.NewFromInt(8)))
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestCompute_Idempotent(t *testing.T) {
	// GIVEN: A mixed batch of intervals and allowances
	// WHEN: Computed twice with identical inputs
	// THEN: Structurally identical results

	sat := interval("i-1", mar(1, 22, 0), mar(2, 2, 0)) // weekend, crosses midnight
	sat.ProjectID = "P1"
	weekday := interval("i-2", mar(5, 12, 0), mar(5, 23, 0))
	weekday.ProjectID = "P2"
	standby := interval("i-3", mar(6, 18, 0), mar(6, 22, 0))
	standby.Standby = true
	standby.ProjectID = "P1"
	allowances := []payroll.Allowance{
		{Category: payroll.CategoryMileage, Date: payroll.NewDate(2025, time.March, 5),
			ProjectID: "P2", Quantity: decimal.NewFromInt(18), Unit: payroll.UnitKm},
	}

	in := computeInput([]payroll.WorkedInterval{sat, weekday, standby}, allowances)
	first, err := payroll.NewEngine().Compute(in)
	require.NoError(t, err)
	second, err := payroll.NewEngine().Compute(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// =============================================================================
// END-TO-END SCENARIO
// =============================================================================

func TestCompute_FullScenario(t *testing.T) {
	// A week of mixed work: weekday days, one evening run-over, a Saturday
	// shift, standby with no dispatch, and allowances.
	var intervals []payroll.WorkedInterval
	for day := 3; day <= 6; day++ { // Mon-Thu
		iv := interval("", mar(day, 7, 0), mar(day, 15, 30))
		iv.ID = "shift-" + payroll.NewDate(2025, time.March, day).String()
		iv.ProjectID = "P1"
		iv.SourceTag = "id06:SE5561234567"
		intervals = append(intervals, iv)
	}
	late := interval("shift-late", mar(7, 12, 0), mar(7, 20, 0)) // Friday, 2h evening
	late.ProjectID = "P1"
	intervals = append(intervals, late)
	sat := interval("shift-sat", mar(8, 8, 0), mar(8, 12, 0)) // Saturday
	sat.ProjectID = "P2"
	intervals = append(intervals, sat)
	standby := interval("shift-standby", mar(8, 18, 0), mar(8, 23, 0))
	standby.Standby = true
	standby.ProjectID = "P2"
	intervals = append(intervals, standby)

	allowances := []payroll.Allowance{
		{Category: payroll.CategoryPerDiem, Date: payroll.NewDate(2025, time.March, 7),
			ProjectID: "P1", Quantity: decimal.NewFromInt(1), Unit: payroll.UnitDays},
	}

	result, err := payroll.NewEngine().Compute(computeInput(intervals, allowances))
	require.NoError(t, err)

	// 4x8.5h ordinary + 6h ordinary Friday = 40h ordinary; 2h evening;
	// 4h weekend; 5h standby.
	s := result.Summary
	assert.True(t, s.OrdinaryHours.Equal(decimal.NewFromInt(40)), "ordinary %s", s.OrdinaryHours)
	assert.True(t, s.EveningOBHours.Equal(decimal.NewFromInt(2)))
	assert.True(t, s.WeekendOBHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, s.StandbyHours.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.PerDiemDays.Equal(decimal.NewFromInt(1)))
	assert.True(t, s.TotalWorkedHours.Equal(decimal.NewFromInt(51)))

	// Summary consistency: total worked hours equals the sum of hour-unit
	// row quantities.
	hourSum := decimal.Zero
	for _, row := range result.Rows {
		if row.Unit == payroll.UnitHours {
			hourSum = hourSum.Add(row.Quantity)
		}
	}
	assert.True(t, s.TotalWorkedHours.Equal(hourSum))

	// Breakdown covers both projects.
	require.Len(t, result.Breakdown, 2)

	// The standby shift has no dispatch row: exactly that finding.
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, payroll.RuleStandbyWithoutDispatch, result.Warnings[0].Rule)

	// Rows are clean of duplicates and all attested as created.
	type key struct {
		d payroll.Date
		p payroll.ProjectID
		c payroll.Category
	}
	seen := make(map[key]bool)
	for _, row := range result.Rows {
		k := key{row.Date, row.ProjectID, row.Category}
		require.False(t, seen[k])
		seen[k] = true
		assert.Equal(t, payroll.AttestCreated, row.Attestation)
	}
}

// =============================================================================
// SNAPSHOT TIER
// =============================================================================

func TestComputeFromSnapshot_SynthesizesRows(t *testing.T) {
	// GIVEN: A pre-aggregated day (10h total, 2h night premium broken out)
	// WHEN: Computed from the snapshot tier
	// THEN: Ordinary is the residual 8h; deviations and compliance run the
	//       same as in the interval tier

	snapshots := []payroll.AggregateSnapshot{{
		WorkerID:   "w-1",
		Date:       payroll.NewDate(2025, time.March, 5),
		ProjectID:  "P1",
		TotalHours: decimal.NewFromInt(11),
		BrokenOutHours: map[payroll.Category]decimal.Decimal{
			payroll.CategoryNightOB: decimal.NewFromInt(2),
		},
		SourceTag: "lonespec#2025-03",
	}}

	result, err := payroll.NewEngine().ComputeFromSnapshot(computeInput(nil, nil), snapshots)
	require.NoError(t, err)

	byCat := rowsByCategory(result.Rows)
	assert.True(t, byCat[payroll.CategoryOrdinary].Quantity.Equal(decimal.NewFromInt(9)))
	assert.True(t, byCat[payroll.CategoryNightOB].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, result.Summary.TotalWorkedHours.Equal(decimal.NewFromInt(11)))

	// 11h > 10h threshold: the deviation finder sees snapshot rows too.
	require.Len(t, result.Deviations, 1)
	assert.Equal(t, payroll.DeviationOver, result.Deviations[0].Kind)
}

func TestComputeFromSnapshot_NonPremiumPortionsKeepTheirCategory(t *testing.T) {
	// GIVEN: A day aggregate breaking out qualified overtime and sick hours
	//        alongside the total
	// WHEN: Computed from the snapshot tier
	// THEN: Each broken-out portion rows under its own category and only the
	//       remainder is ordinary time

	snapshots := []payroll.AggregateSnapshot{{
		WorkerID:   "w-1",
		Date:       payroll.NewDate(2025, time.March, 5),
		ProjectID:  "P1",
		TotalHours: decimal.NewFromInt(10),
		BrokenOutHours: map[payroll.Category]decimal.Decimal{
			payroll.CategoryOvertime: decimal.NewFromInt(2),
			payroll.CategorySick:     decimal.NewFromInt(1),
		},
		SourceTag: "lonespec#2025-03",
	}}

	result, err := payroll.NewEngine().ComputeFromSnapshot(computeInput(nil, nil), snapshots)
	require.NoError(t, err)

	byCat := rowsByCategory(result.Rows)
	assert.True(t, byCat[payroll.CategoryOvertime].Quantity.Equal(decimal.NewFromInt(2)),
		"overtime got %s", byCat[payroll.CategoryOvertime].Quantity)
	assert.True(t, byCat[payroll.CategorySick].Quantity.Equal(decimal.NewFromInt(1)),
		"sick got %s", byCat[payroll.CategorySick].Quantity)
	assert.True(t, byCat[payroll.CategoryOrdinary].Quantity.Equal(decimal.NewFromInt(7)),
		"ordinary got %s", byCat[payroll.CategoryOrdinary].Quantity)

	// Overtime prices at its multiplier, not as repriced ordinary time.
	assert.True(t, byCat[payroll.CategoryOvertime].UnitPrice.Equal(decimal.NewFromInt(300)))
	assert.True(t, result.Summary.OvertimeHours.Equal(decimal.NewFromInt(2)))
}

// =============================================================================
// CONCURRENT USE
// =============================================================================

func TestCompute_ConcurrentInvocations(t *testing.T) {
	// One engine instance, many workers in parallel. Purity means no
	// coordination is needed; the race detector keeps us honest.
	engine := payroll.NewEngine()
	rates := testRates()
	for i := 0; i < 8; i++ {
		rates.BaseRates[payroll.WorkerID(string(rune('a'+i)))] = decimal.NewFromInt(150)
	}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		worker := payroll.WorkerID(string(rune('a' + i)))
		go func() {
			in := payroll.ComputeInput{
				WorkerID: worker,
				Period:   marchPeriod(),
				Intervals: []payroll.WorkedInterval{
					{ID: "i-" + string(worker), WorkerID: worker,
						Start: mar(5, 7, 0), End: mar(5, 19, 0)},
				},
				Rates: rates,
			}
			_, err := engine.Compute(in)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
