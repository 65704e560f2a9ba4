/*
handlers_test.go - HTTP-level tests for the payroll API

Tests run against the real router with an in-memory SQLite store, covering:
- Rate document upload and validation
- Interval and allowance recording
- Compute -> run -> attest -> export flow
- Scenario loading
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(NewRouter(NewHandler(store)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// seedOrg uploads a rate doc and creates one worker via the API.
func seedOrg(t *testing.T, baseURL string) {
	t.Helper()
	rates := map[string]any{
		"org_id":    "org-1",
		"currency":  "SEK",
		"base_rates": map[string]float64{"w-1": 200},
		"multipliers": map[string]float64{
			"OB_KVALL": 1.2, "OB_NATT": 1.2, "OB_HELG": 1.5, "OB_STORHELG": 2.0,
		},
		"allowance_prices": map[string]float64{"MILERSATTNING": 2.5},
	}
	resp := doJSON(t, http.MethodPut, baseURL+"/api/orgs/org-1/rates", rates)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, baseURL+"/api/workers", CreateWorkerRequest{
		ID: "w-1", OrgID: "org-1", Name: "Johan Berg", PersonalNumber: "850315-1234",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestPutRateTable_RejectsBrokenDocument(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/orgs/org-1/rates",
		map[string]any{"org_id": "org-1"}) // no base_rates
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorker_MasksPersonalNumber(t *testing.T) {
	server := newTestServer(t)
	seedOrg(t, server.URL)

	worker := decode[WorkerDTO](t, doJSON(t, http.MethodGet, server.URL+"/api/workers/w-1", nil))
	assert.Equal(t, "850315-****", worker.PersonalNumber)
}

func TestAddInterval_RejectsEndBeforeStart(t *testing.T) {
	server := newTestServer(t)
	seedOrg(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers/w-1/intervals", IntervalDTO{
		Start: "2025-03-05T16:00:00Z",
		End:   "2025-03-05T07:00:00Z",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComputeFlow(t *testing.T) {
	// GIVEN: A seeded org with one day shift and one evening stretch
	server := newTestServer(t)
	seedOrg(t, server.URL)

	intervals := []IntervalDTO{
		{ID: "i-1", ProjectID: "P1", Start: "2025-03-05T07:00:00Z", End: "2025-03-05T16:00:00Z", SourceTag: "timesheet#1"},
		{ID: "i-2", ProjectID: "P1", Start: "2025-03-05T18:00:00Z", End: "2025-03-05T21:00:00Z", SourceTag: "timesheet#2"},
	}
	for _, iv := range intervals {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/workers/w-1/intervals", iv)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// WHEN: Computing the period
	resp := doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-1", OrgID: "org-1",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	computed := decode[ComputeResponse](t, resp)

	// THEN: 9h ordinary + 3h evening premium, persisted as a created run
	assert.Equal(t, "created", computed.Run.Status)
	assert.Equal(t, "9", computed.Result.Summary.OrdinaryHours)
	assert.Equal(t, "3", computed.Result.Summary.EveningOBHours)
	assert.Equal(t, "12", computed.Result.Summary.TotalWorkedHours)

	// The run is retrievable with identical content.
	got := decode[ComputeResponse](t, doJSON(t, http.MethodGet,
		server.URL+"/api/payroll/runs/"+computed.Run.ID, nil))
	assert.Equal(t, computed.Result.Summary, got.Result.Summary)
	assert.Len(t, got.Result.Rows, len(computed.Result.Rows))

	runs := decode[[]RunDTO](t, doJSON(t, http.MethodGet,
		server.URL+"/api/payroll/runs?worker_id=w-1", nil))
	require.Len(t, runs, 1)
}

func TestCompute_WithoutRateTable(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers", CreateWorkerRequest{
		ID: "w-1", OrgID: "org-unconfigured", Name: "X",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-1", OrgID: "org-unconfigured",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAttestFlow(t *testing.T) {
	server := newTestServer(t)
	seedOrg(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-1", OrgID: "org-1",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	runID := decode[ComputeResponse](t, resp).Run.ID

	// Skipping reviewed is rejected.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/runs/"+runID+"/attest",
		AttestRequest{Status: "locked", Signature: "admin"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/runs/"+runID+"/attest",
		AttestRequest{Status: "reviewed", Signature: "foreman-7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/runs/"+runID+"/attest",
		AttestRequest{Status: "locked", Signature: "payroll-admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[RunDTO](t, resp)
	assert.Equal(t, "locked", run.Status)
	assert.Equal(t, "payroll-admin", run.Signature)

	// Locked is final.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/runs/"+runID+"/attest",
		AttestRequest{Status: "reviewed"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestExportRun(t *testing.T) {
	server := newTestServer(t)
	seedOrg(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers/w-1/intervals", IntervalDTO{
		ID: "i-1", ProjectID: "P1",
		Start: "2025-03-05T07:00:00Z", End: "2025-03-05T16:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-1", OrgID: "org-1",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	runID := decode[ComputeResponse](t, resp).Run.ID
	base := server.URL + "/api/payroll/runs/" + runID + "/export/"

	lines := decode[[]export.AccountingLine](t, doJSON(t, http.MethodGet, base+"fortnox", nil))
	require.NotEmpty(t, lines)
	assert.Equal(t, "ARB", lines[0].Code, "ordinary time keeps the ARB code in Fortnox")

	csvResp := doJSON(t, http.MethodGet, base+"csv", nil)
	defer csvResp.Body.Close()
	require.Equal(t, http.StatusOK, csvResp.StatusCode)
	assert.Equal(t, "text/csv", csvResp.Header.Get("Content-Type"))

	resp = doJSON(t, http.MethodGet, base+"wordperfect", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestScenarios(t *testing.T) {
	server := newTestServer(t)

	list := decode[[]ScenarioDTO](t, doJSON(t, http.MethodGet, server.URL+"/api/scenarios/", nil))
	require.NotEmpty(t, list)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/full-week/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	current := decode[ScenarioDTO](t, doJSON(t, http.MethodGet, server.URL+"/api/scenarios/current", nil))
	assert.Equal(t, "full-week", current.ID)

	// Scenario data computes cleanly and flags the unanswered standby.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-demo-1", OrgID: "org-demo",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	computed := decode[ComputeResponse](t, resp)
	var rules []string
	for _, w := range computed.Result.Warnings {
		rules = append(rules, w.Rule)
	}
	assert.Contains(t, rules, "STANDBY_WITHOUT_DISPATCH")

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/nope/load", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)
	seedOrg(t, server.URL)

	// One computation so the compute counter has a series to report.
	resp0 := doJSON(t, http.MethodPost, server.URL+"/api/payroll/compute", ComputeRequest{
		WorkerID: "w-1", OrgID: "org-1",
		PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp0.StatusCode)
	resp0.Body.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "payroll_compute_total")
}
