package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func marchPeriod() payroll.Period {
	return payroll.Period{
		Start: payroll.NewDate(2025, time.March, 1),
		End:   payroll.NewDate(2025, time.March, 31),
	}
}

// =============================================================================
// WORKERS AND RATE TABLES
// =============================================================================

func TestStore_WorkerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveWorker(ctx, sqlite.Worker{
		ID: "w-1", OrgID: "org-1", Name: "Anna Andersson", PersonalNumber: "850315-1234",
	})
	require.NoError(t, err)

	w, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, "Anna Andersson", w.Name)
	assert.Equal(t, payroll.OrgID("org-1"), w.OrgID)

	_, err = store.GetWorker(ctx, "w-missing")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	// Save is an upsert: renames don't duplicate.
	require.NoError(t, store.SaveWorker(ctx, sqlite.Worker{ID: "w-1", OrgID: "org-1", Name: "Anna Svensson"}))
	workers, err := store.ListWorkers(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "Anna Svensson", workers[0].Name)
}

func TestStore_RateTableRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := json.RawMessage(`{"org_id":"org-1","base_rates":{"w-1":200}}`)
	require.NoError(t, store.SaveRateTable(ctx, "org-1", doc))

	got, err := store.GetRateTable(ctx, "org-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	_, err = store.GetRateTable(ctx, "org-none")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

// =============================================================================
// SOURCE INPUTS
// =============================================================================

func TestStore_IntervalsFilteredByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := payroll.WorkedInterval{
		ID: "i-1", WorkerID: "w-1", ProjectID: "P1",
		Start:     time.Date(2025, time.March, 5, 7, 0, 0, 0, time.UTC),
		End:       time.Date(2025, time.March, 5, 16, 0, 0, 0, time.UTC),
		SourceTag: "timesheet#123", Standby: true,
	}
	outOfPeriod := payroll.WorkedInterval{
		ID: "i-2", WorkerID: "w-1",
		Start: time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.April, 2, 16, 0, 0, 0, time.UTC),
	}
	otherWorker := payroll.WorkedInterval{
		ID: "i-3", WorkerID: "w-2",
		Start: time.Date(2025, time.March, 5, 7, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 5, 16, 0, 0, 0, time.UTC),
	}
	for _, iv := range []payroll.WorkedInterval{in, outOfPeriod, otherWorker} {
		require.NoError(t, store.AddInterval(ctx, iv))
	}

	got, err := store.ListIntervals(ctx, "w-1", marchPeriod())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
}

func TestStore_AllowanceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	al := payroll.Allowance{
		ID: "a-1", WorkerID: "w-1", ProjectID: "P1",
		Date:     payroll.NewDate(2025, time.March, 5),
		Category: payroll.CategoryMileage,
		Quantity: decimal.NewFromFloat(42.5),
		Unit:     payroll.UnitKm,
		Comment:  "site visit",
	}
	require.NoError(t, store.AddAllowance(ctx, al))

	got, err := store.ListAllowances(ctx, "w-1", marchPeriod())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, al.ID, got[0].ID)
	assert.True(t, got[0].Quantity.Equal(al.Quantity))
	assert.Equal(t, al.Date, got[0].Date)
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func sampleRun(id string) (sqlite.Run, *payroll.PayrollResult) {
	d := payroll.NewDate(2025, time.March, 5)
	rows := []payroll.WageTypeRow{{
		Date: d, ProjectID: "P1", Category: payroll.CategoryOrdinary,
		CategoryName: payroll.CategoryOrdinary.DisplayName(),
		Quantity:     decimal.NewFromInt(8), Unit: payroll.UnitHours,
		UnitPrice: decimal.NewFromInt(200), Amount: decimal.NewFromInt(1600),
		Attestation: payroll.AttestCreated,
	}}
	result := &payroll.PayrollResult{
		WorkerID:    "w-1",
		Period:      marchPeriod(),
		GeneratedAt: time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC),
		Rows:        rows,
		Summary:     payroll.Summarize(rows),
		Warnings: []payroll.ComplianceWarning{{
			Rule: payroll.RuleOBWithoutProject, Description: "x",
			RowIndexes: []int{0}, Severity: payroll.SeverityWarning,
		}},
	}
	run := sqlite.Run{
		ID: id, WorkerID: "w-1", OrgID: "org-1",
		PeriodStart: result.Period.Start, PeriodEnd: result.Period.End,
		GeneratedAt: result.GeneratedAt,
	}
	return run, result
}

func TestStore_RunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, result := sampleRun("run-1")
	require.NoError(t, store.SaveRun(ctx, run, result))

	gotRun, gotResult, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.AttestCreated, gotRun.Status, "new runs start as created")
	assert.Equal(t, run.PeriodStart, gotRun.PeriodStart)

	require.Len(t, gotResult.Rows, 1)
	assert.True(t, gotResult.Rows[0].Amount.Equal(decimal.NewFromInt(1600)))
	require.Len(t, gotResult.Warnings, 1)
	assert.Equal(t, []int{0}, gotResult.Warnings[0].RowIndexes)

	runs, err := store.ListRuns(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestStore_RunsAreAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, result := sampleRun("run-1")
	require.NoError(t, store.SaveRun(ctx, run, result))
	assert.Error(t, store.SaveRun(ctx, run, result), "same run id cannot be written twice")

	// Re-computation is a NEW run.
	run2, result2 := sampleRun("run-2")
	require.NoError(t, store.SaveRun(ctx, run2, result2))
	runs, err := store.ListRuns(ctx, "w-1")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

// =============================================================================
// ATTESTATION CHAIN
// =============================================================================

func TestStore_AttestationChain(t *testing.T) {
	// GIVEN: A created run
	// WHEN: Advancing created -> reviewed -> locked
	// THEN: Each single step succeeds; skipping, repeating, or touching a
	//       locked run fails

	store := newTestStore(t)
	ctx := context.Background()

	run, result := sampleRun("run-1")
	require.NoError(t, store.SaveRun(ctx, run, result))

	// Skipping a step is rejected.
	err := store.UpdateRunStatus(ctx, "run-1", payroll.AttestLocked, "")
	assert.ErrorIs(t, err, sqlite.ErrInvalidTransition)

	require.NoError(t, store.UpdateRunStatus(ctx, "run-1", payroll.AttestReviewed, "foreman-7"))
	require.NoError(t, store.UpdateRunStatus(ctx, "run-1", payroll.AttestLocked, "payroll-admin"))

	gotRun, _, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.AttestLocked, gotRun.Status)
	assert.Equal(t, "payroll-admin", gotRun.Signature)

	// Locked is final.
	err = store.UpdateRunStatus(ctx, "run-1", payroll.AttestReviewed, "")
	assert.ErrorIs(t, err, sqlite.ErrRunLocked)

	err = store.UpdateRunStatus(ctx, "run-missing", payroll.AttestReviewed, "")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}
