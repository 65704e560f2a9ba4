/*
handlers.go - HTTP API handlers for the payroll service

PURPOSE:
  Exposes the wage-type engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the pure engine and the store.

ENDPOINTS:
  Workers:
    GET    /api/workers                  List workers for an org
    POST   /api/workers                  Create/update worker
    GET    /api/workers/{id}             Get worker details
    GET    /api/workers/{id}/intervals   List worked intervals in a period
    POST   /api/workers/{id}/intervals   Record a worked interval
    GET    /api/workers/{id}/allowances  List allowances in a period
    POST   /api/workers/{id}/allowances  Record an allowance

  Rates:
    GET    /api/orgs/{orgID}/rates       Get the org's rate document
    PUT    /api/orgs/{orgID}/rates       Replace the org's rate document

  Payroll:
    POST   /api/payroll/compute          Compute and persist one run
    GET    /api/payroll/runs             List runs for a worker
    GET    /api/payroll/runs/{id}        Get run with full result
    POST   /api/payroll/runs/{id}/attest Advance attestation status
    GET    /api/payroll/runs/{id}/export/{format}
                                         Export: fortnox, visma, csv, pdf, xlsx

  Scenarios:
    GET    /api/scenarios                List demo scenarios
    POST   /api/scenarios/{name}/load    Load a demo scenario
    POST   /api/scenarios/reset          Wipe the database (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, factory, export)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (attestation transition rejected, locked run)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Personal numbers are masked in every response regardless.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and a default engine.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: payroll.NewEngine(),
	}
}

// Health responds 200 with service status.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns workers for an org.
// GET /api/workers?org_id=org-1
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	org := payroll.OrgID(r.URL.Query().Get("org_id"))
	if org == "" {
		writeError(w, http.StatusBadRequest, "org_id query parameter is required", nil)
		return
	}

	workers, err := h.Store.ListWorkers(r.Context(), org)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = toWorkerDTO(worker)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := payroll.WorkerID(chi.URLParam(r, "id"))

	worker, err := h.Store.GetWorker(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

// CreateWorker creates or updates a worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.OrgID == "" {
		writeError(w, http.StatusBadRequest, "id and org_id are required", nil)
		return
	}

	worker := sqlite.Worker{
		ID:             payroll.WorkerID(req.ID),
		OrgID:          payroll.OrgID(req.OrgID),
		Name:           req.Name,
		PersonalNumber: req.PersonalNumber,
	}
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// =============================================================================
// RATE TABLE HANDLERS
// =============================================================================

// GetRateTable returns the org's raw rate document.
// GET /api/orgs/{orgID}/rates
func (h *Handler) GetRateTable(w http.ResponseWriter, r *http.Request) {
	org := payroll.OrgID(chi.URLParam(r, "orgID"))

	doc, err := h.Store.GetRateTable(r.Context(), org)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No rate table for org", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rate table", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// PutRateTable replaces the org's rate document. The document is compiled
// first so broken configuration is rejected at write time, not at the next
// payroll run.
// PUT /api/orgs/{orgID}/rates
func (h *Handler) PutRateTable(w http.ResponseWriter, r *http.Request) {
	org := payroll.OrgID(chi.URLParam(r, "orgID"))

	var doc json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := factory.ParseRateTableJSON(doc); err != nil {
		writeError(w, http.StatusBadRequest, "Rate document does not compile", err)
		return
	}

	if err := h.Store.SaveRateTable(r.Context(), org, doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate table", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"org_id": string(org)})
}

// =============================================================================
// SOURCE INPUT HANDLERS
// =============================================================================

// AddInterval records one worked interval.
// POST /api/workers/{id}/intervals
func (h *Handler) AddInterval(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req CreateIntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use RFC3339)", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use RFC3339)", err)
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start", nil)
		return
	}

	iv := payroll.WorkedInterval{
		ID:        req.ID,
		WorkerID:  payroll.WorkerID(workerID),
		ProjectID: payroll.ProjectID(req.ProjectID),
		Start:     start,
		End:       end,
		SourceTag: req.SourceTag,
		Standby:   req.Standby,
		Dispatch:  req.Dispatch,
	}
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}

	if err := h.Store.AddInterval(r.Context(), iv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save interval", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIntervalDTO(iv))
}

// ListIntervals returns a worker's intervals inside a period.
// GET /api/workers/{id}/intervals?from=2025-03-01&to=2025-03-31
func (h *Handler) ListIntervals(w http.ResponseWriter, r *http.Request) {
	workerID := payroll.WorkerID(chi.URLParam(r, "id"))

	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	intervals, err := h.Store.ListIntervals(r.Context(), workerID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list intervals", err)
		return
	}

	dtos := make([]IntervalDTO, len(intervals))
	for i, iv := range intervals {
		dtos[i] = toIntervalDTO(iv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddAllowance records one allowance.
// POST /api/workers/{id}/allowances
func (h *Handler) AddAllowance(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")

	var req CreateAllowanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || !qty.IsPositive() {
		writeError(w, http.StatusBadRequest, "quantity must be a positive decimal string", err)
		return
	}

	al := payroll.Allowance{
		ID:        req.ID,
		WorkerID:  payroll.WorkerID(workerID),
		ProjectID: payroll.ProjectID(req.ProjectID),
		Date:      date,
		Category:  payroll.Category(req.Category),
		Quantity:  qty,
		Unit:      payroll.Unit(req.Unit),
		SourceTag: req.SourceTag,
		Comment:   req.Comment,
	}
	if al.ID == "" {
		al.ID = uuid.NewString()
	}

	if err := h.Store.AddAllowance(r.Context(), al); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save allowance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAllowanceDTO(al))
}

// ListAllowances returns a worker's allowances inside a period.
func (h *Handler) ListAllowances(w http.ResponseWriter, r *http.Request) {
	workerID := payroll.WorkerID(chi.URLParam(r, "id"))

	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	allowances, err := h.Store.ListAllowances(r.Context(), workerID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allowances", err)
		return
	}

	dtos := make([]AllowanceDTO, len(allowances))
	for i, al := range allowances {
		dtos[i] = toAllowanceDTO(al)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ComputeRun computes one (worker, period) run and persists it. Every call
// produces a NEW immutable run; re-computation never touches old runs.
// POST /api/payroll/compute
func (h *Handler) ComputeRun(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	ctx := r.Context()
	workerID := payroll.WorkerID(req.WorkerID)
	orgID := payroll.OrgID(req.OrgID)

	if _, err := h.Store.GetWorker(ctx, workerID); errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load worker", err)
		return
	}

	doc, err := h.Store.GetRateTable(ctx, orgID)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "No rate table configured for org", nil)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate table", err)
		return
	}
	rates, err := factory.ParseRateTableJSON(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored rate document does not compile", err)
		return
	}

	intervals, err := h.Store.ListIntervals(ctx, workerID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load intervals", err)
		return
	}
	allowances, err := h.Store.ListAllowances(ctx, workerID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load allowances", err)
		return
	}

	generatedAt := time.Now().UTC()
	result, err := h.Engine.Compute(payroll.ComputeInput{
		WorkerID:    workerID,
		Period:      period,
		Intervals:   intervals,
		Allowances:  allowances,
		Rates:       *rates,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		observeCompute(resultError, time.Since(started))
		if payroll.IsConfigError(err) {
			writeError(w, http.StatusBadRequest, "Rate configuration rejected", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Computation failed", err)
		return
	}

	run := sqlite.Run{
		ID:          uuid.NewString(),
		WorkerID:    workerID,
		OrgID:       orgID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Status:      payroll.AttestCreated,
		GeneratedAt: generatedAt,
	}
	if err := h.Store.SaveRun(ctx, run, result); err != nil {
		observeCompute(resultError, time.Since(started))
		writeError(w, http.StatusInternalServerError, "Failed to persist run", err)
		return
	}

	observeCompute(resultSuccess, time.Since(started))
	for _, warning := range result.Warnings {
		incWarning(string(warning.Rule))
	}

	writeJSON(w, http.StatusCreated, ComputeResponse{
		Run:    toRunDTO(run),
		Result: toResultDTO(result),
	})
}

// ListRuns returns run metadata for a worker, newest first.
// GET /api/payroll/runs?worker_id=w-1
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	workerID := payroll.WorkerID(r.URL.Query().Get("worker_id"))
	if workerID == "" {
		writeError(w, http.StatusBadRequest, "worker_id query parameter is required", nil)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run with its full result bundle.
// GET /api/payroll/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, result, err := h.Store.GetRun(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	writeJSON(w, http.StatusOK, ComputeResponse{
		Run:    toRunDTO(*run),
		Result: toResultDTO(result),
	})
}

// AttestRun advances a run one step along created -> reviewed -> locked.
// POST /api/payroll/runs/{id}/attest
func (h *Handler) AttestRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AttestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := payroll.AttestStatus(req.Status)
	err := h.Store.UpdateRunStatus(r.Context(), id, status, req.Signature)
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		incAttest(req.Status, resultError)
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	case errors.Is(err, sqlite.ErrRunLocked):
		incAttest(req.Status, resultError)
		writeError(w, http.StatusConflict, "Run is locked", err)
		return
	case errors.Is(err, sqlite.ErrInvalidTransition):
		incAttest(req.Status, resultError)
		writeError(w, http.StatusConflict, "Invalid attestation transition", err)
		return
	case err != nil:
		incAttest(req.Status, resultError)
		writeError(w, http.StatusInternalServerError, "Failed to update status", err)
		return
	}

	incAttest(req.Status, resultSuccess)
	run, _, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ExportRun renders a stored run in the requested format.
// GET /api/payroll/runs/{id}/export/{format}
//
// Formats: fortnox and visma return mapped accounting lines as JSON; csv,
// pdf and xlsx return a downloadable wage statement.
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	run, result, err := h.Store.GetRun(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		incExport(format, resultError)
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		incExport(format, resultError)
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	workerName := string(run.WorkerID)
	personalNumber := ""
	if worker, werr := h.Store.GetWorker(r.Context(), run.WorkerID); werr == nil {
		workerName = worker.Name
		personalNumber = worker.PersonalNumber
	}

	switch format {
	case "fortnox":
		incExport(format, resultSuccess)
		writeJSON(w, http.StatusOK, export.AccountingExport(export.SystemFortnox, result))
	case "visma":
		incExport(format, resultSuccess)
		writeJSON(w, http.StatusOK, export.AccountingExport(export.SystemVisma, result))
	case "csv":
		data, err := export.StatementCSV(result)
		if err != nil {
			incExport(format, resultError)
			writeError(w, http.StatusInternalServerError, "CSV export failed", err)
			return
		}
		incExport(format, resultSuccess)
		serveFile(w, data, "text/csv", "payroll-"+id+".csv")
	case "pdf":
		data, err := export.StatementPDF(result, workerName, personalNumber)
		if err != nil {
			incExport(format, resultError)
			writeError(w, http.StatusInternalServerError, "PDF export failed", err)
			return
		}
		incExport(format, resultSuccess)
		serveFile(w, data, "application/pdf", "payroll-"+id+".pdf")
	case "xlsx":
		data, err := export.StatementXLSX(result)
		if err != nil {
			incExport(format, resultError)
			writeError(w, http.StatusInternalServerError, "XLSX export failed", err)
			return
		}
		incExport(format, resultSuccess)
		serveFile(w, data,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"payroll-"+id+".xlsx")
	default:
		incExport(format, resultError)
		writeError(w, http.StatusBadRequest, "Unknown export format: "+format, nil)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(start, end string) (payroll.Period, error) {
	from, err := payroll.ParseDate(start)
	if err != nil {
		return payroll.Period{}, err
	}
	to, err := payroll.ParseDate(end)
	if err != nil {
		return payroll.Period{}, err
	}
	p := payroll.Period{Start: from, End: to}
	if !p.Valid() {
		return payroll.Period{}, payroll.ErrInvalidPeriod
	}
	return p, nil
}

func periodFromQuery(r *http.Request) (payroll.Period, error) {
	return parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
}

func serveFile(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
