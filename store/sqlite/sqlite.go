/*
Package sqlite provides SQLite-backed persistence for the hosting service.

PURPOSE:
  Persists everything the pure engine does not: source worked intervals and
  allowances, per-org rate documents, workers, and computed payroll runs.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  workers:          Worker records (name, masked-at-render personal number)
  rate_tables:      One rate document per org (raw JSON, compiled on use)
  worked_intervals: Source shift segments, pre-approved upstream
  allowances:       Unit-count records (travel, mileage, per-diem, ...)
  payroll_runs:     One row per computation, result bundle as JSON
  wage_type_rows:   Relational copy of each run's ledger rows

RUN IMMUTABILITY:
  Computed runs are append-only: re-running a period inserts a NEW run,
  never updates an old one. The only mutation on payroll_runs is the
  attestation status column, which moves strictly created -> reviewed ->
  locked; a locked run rejects all further transitions.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrRunLocked is returned when mutating a locked payroll run.
	ErrRunLocked = errors.New("payroll run is locked")

	// ErrInvalidTransition is returned for attestation transitions that skip
	// a step or move backwards.
	ErrInvalidTransition = errors.New("invalid attestation transition")
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// Worker is the hosting service's worker record. The engine only ever sees
// the WorkerID.
type Worker struct {
	ID             payroll.WorkerID
	OrgID          payroll.OrgID
	Name           string
	PersonalNumber string
	CreatedAt      time.Time
}

// Run is one persisted computation: metadata plus the full result bundle.
type Run struct {
	ID          string
	WorkerID    payroll.WorkerID
	OrgID       payroll.OrgID
	PeriodStart payroll.Date
	PeriodEnd   payroll.Date
	Status      payroll.AttestStatus
	Signature   string
	GeneratedAt time.Time
	CreatedAt   time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		personal_number TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_workers_org ON workers(org_id);

	-- One rate document per org; compiled into a RateTable on use.
	CREATE TABLE IF NOT EXISTS rate_tables (
		org_id TEXT PRIMARY KEY,
		doc_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS worked_intervals (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		project_id TEXT,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		source_tag TEXT,
		standby INTEGER NOT NULL DEFAULT 0,
		dispatch INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_intervals_worker_start
		ON worked_intervals(worker_id, start_at);

	CREATE TABLE IF NOT EXISTS allowances (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		project_id TEXT,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		source_tag TEXT,
		comment TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_allowances_worker_date
		ON allowances(worker_id, date);

	-- Append-only: re-computation inserts a new run. Only the attestation
	-- status and signature columns ever change.
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		org_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL,
		signature TEXT,
		generated_at TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_worker_period
		ON payroll_runs(worker_id, period_start, period_end);

	CREATE TABLE IF NOT EXISTS wage_type_rows (
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		date TEXT NOT NULL,
		project_id TEXT,
		category TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		amount TEXT NOT NULL,
		source TEXT,
		PRIMARY KEY (run_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_rows_run ON wage_type_rows(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset drops all data. Dev/demo only; the scenario loader calls this.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"workers", "rate_tables", "worked_intervals", "allowances", "payroll_runs", "wage_type_rows"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Store) SaveWorker(ctx context.Context, w Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, org_id, name, personal_number, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET org_id=excluded.org_id, name=excluded.name,
			personal_number=excluded.personal_number`,
		w.ID, w.OrgID, w.Name, w.PersonalNumber, w.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetWorker(ctx context.Context, id payroll.WorkerID) (*Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var w Worker
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, personal_number, created_at FROM workers WHERE id = ?`, id).
		Scan(&w.ID, &w.OrgID, &w.Name, &w.PersonalNumber, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

func (s *Store) ListWorkers(ctx context.Context, org payroll.OrgID) ([]Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, personal_number, created_at
		FROM workers WHERE org_id = ? ORDER BY id`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Worker
	for rows.Next() {
		var w Worker
		var createdAt string
		if err := rows.Scan(&w.ID, &w.OrgID, &w.Name, &w.PersonalNumber, &createdAt); err != nil {
			return nil, err
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, w)
	}
	return out, rows.Err()
}

// =============================================================================
// RATE TABLES
// =============================================================================

// SaveRateTable stores the raw rate document for an org, replacing any
// previous one. Compilation happens at compute time via the factory so the
// stored form stays exactly what the admin wrote.
func (s *Store) SaveRateTable(ctx context.Context, org payroll.OrgID, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_tables (org_id, doc_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(org_id) DO UPDATE SET doc_json=excluded.doc_json, updated_at=excluded.updated_at`,
		org, string(doc), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetRateTable(ctx context.Context, org payroll.OrgID) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc_json FROM rate_tables WHERE org_id = ?`, org).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

// =============================================================================
// WORKED INTERVALS
// =============================================================================

func (s *Store) AddInterval(ctx context.Context, iv payroll.WorkedInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worked_intervals (id, worker_id, project_id, start_at, end_at, source_tag, standby, dispatch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.WorkerID, iv.ProjectID,
		iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339),
		iv.SourceTag, boolToInt(iv.Standby), boolToInt(iv.Dispatch))
	return err
}

// ListIntervals returns a worker's intervals starting within the period,
// chronologically.
func (s *Store) ListIntervals(ctx context.Context, worker payroll.WorkerID, period payroll.Period) ([]payroll.WorkedInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// End bound is exclusive of the day after the period's last day.
	from := period.Start.Time().Format(time.RFC3339)
	to := period.End.AddDays(1).Time().Format(time.RFC3339)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, project_id, start_at, end_at, source_tag, standby, dispatch
		FROM worked_intervals
		WHERE worker_id = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at`, worker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.WorkedInterval
	for rows.Next() {
		var iv payroll.WorkedInterval
		var start, end string
		var standby, dispatch int
		if err := rows.Scan(&iv.ID, &iv.WorkerID, &iv.ProjectID, &start, &end, &iv.SourceTag, &standby, &dispatch); err != nil {
			return nil, err
		}
		if iv.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("interval %s: bad start: %w", iv.ID, err)
		}
		if iv.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("interval %s: bad end: %w", iv.ID, err)
		}
		iv.Standby = standby != 0
		iv.Dispatch = dispatch != 0
		out = append(out, iv)
	}
	return out, rows.Err()
}

// =============================================================================
// ALLOWANCES
// =============================================================================

func (s *Store) AddAllowance(ctx context.Context, al payroll.Allowance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allowances (id, worker_id, project_id, date, category, quantity, unit, source_tag, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		al.ID, al.WorkerID, al.ProjectID, al.Date.String(), al.Category,
		al.Quantity.String(), al.Unit, al.SourceTag, al.Comment)
	return err
}

func (s *Store) ListAllowances(ctx context.Context, worker payroll.WorkerID, period payroll.Period) ([]payroll.Allowance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, project_id, date, category, quantity, unit, source_tag, comment
		FROM allowances
		WHERE worker_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id`, worker, period.Start.String(), period.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Allowance
	for rows.Next() {
		var al payroll.Allowance
		var date, quantity string
		if err := rows.Scan(&al.ID, &al.WorkerID, &al.ProjectID, &date, &al.Category, &quantity, &al.Unit, &al.SourceTag, &al.Comment); err != nil {
			return nil, err
		}
		if al.Date, err = payroll.ParseDate(date); err != nil {
			return nil, fmt.Errorf("allowance %s: %w", al.ID, err)
		}
		if al.Quantity, err = decimalFromString(quantity); err != nil {
			return nil, fmt.Errorf("allowance %s: %w", al.ID, err)
		}
		out = append(out, al)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

// SaveRun persists a computed run and its rows in one transaction.
// Append-only: a run id is never overwritten.
func (s *Store) SaveRun(ctx context.Context, run Run, result *payroll.PayrollResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = payroll.AttestCreated
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, worker_id, org_id, period_start, period_end, status, signature, generated_at, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.WorkerID, run.OrgID,
		run.PeriodStart.String(), run.PeriodEnd.String(),
		run.Status, run.Signature,
		run.GeneratedAt.Format(time.RFC3339), string(resultJSON),
		run.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	for i, row := range result.Rows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO wage_type_rows (run_id, row_index, date, project_id, category, quantity, unit, unit_price, amount, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, row.Date.String(), row.ProjectID, row.Category,
			row.Quantity.String(), row.Unit, row.UnitPrice.String(), row.Amount.String(), row.Source)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun returns one run and its result bundle.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, *payroll.PayrollResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run Run
	var periodStart, periodEnd, generatedAt, createdAt, resultJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, worker_id, org_id, period_start, period_end, status, signature, generated_at, result_json, created_at
		FROM payroll_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.WorkerID, &run.OrgID, &periodStart, &periodEnd,
			&run.Status, &run.Signature, &generatedAt, &resultJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if run.PeriodStart, err = payroll.ParseDate(periodStart); err != nil {
		return nil, nil, err
	}
	if run.PeriodEnd, err = payroll.ParseDate(periodEnd); err != nil {
		return nil, nil, err
	}
	run.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	var result payroll.PayrollResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, nil, fmt.Errorf("unmarshal result for run %s: %w", id, err)
	}
	return &run, &result, nil
}

// ListRuns returns run metadata for a worker, newest first. Results are not
// loaded; use GetRun for the bundle.
func (s *Store) ListRuns(ctx context.Context, worker payroll.WorkerID) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, org_id, period_start, period_end, status, signature, generated_at, created_at
		FROM payroll_runs WHERE worker_id = ? ORDER BY created_at DESC, id`, worker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var periodStart, periodEnd, generatedAt, createdAt string
		if err := rows.Scan(&run.ID, &run.WorkerID, &run.OrgID, &periodStart, &periodEnd,
			&run.Status, &run.Signature, &generatedAt, &createdAt); err != nil {
			return nil, err
		}
		if run.PeriodStart, err = payroll.ParseDate(periodStart); err != nil {
			return nil, err
		}
		if run.PeriodEnd, err = payroll.ParseDate(periodEnd); err != nil {
			return nil, err
		}
		run.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, run)
	}
	return out, rows.Err()
}

// attestOrder defines the one-way attestation chain.
var attestOrder = map[payroll.AttestStatus]int{
	payroll.AttestCreated:  0,
	payroll.AttestReviewed: 1,
	payroll.AttestLocked:   2,
}

// UpdateRunStatus advances a run's attestation status. The chain is strictly
// created -> reviewed -> locked, one step at a time; a locked run rejects
// everything.
func (s *Store) UpdateRunStatus(ctx context.Context, id string, status payroll.AttestStatus, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current payroll.AttestStatus
	err := s.db.QueryRowContext(ctx, `SELECT status FROM payroll_runs WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if current == payroll.AttestLocked {
		return ErrRunLocked
	}
	next, ok := attestOrder[status]
	if !ok || next != attestOrder[current]+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE payroll_runs SET status = ?, signature = ? WHERE id = ?`,
		status, signature, id)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decimalFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad decimal %q: %w", s, err)
	}
	return d, nil
}
