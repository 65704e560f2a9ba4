/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	Swedish construction payroll data. Each scenario creates workers, a rate
	document, worked intervals, and allowances that demonstrate specific
	engine behavior.

AVAILABLE SCENARIOS:

	full-week:    Mon-Fri day work, one evening stretch, a Saturday shift,
	              and a standby weekend with no matching dispatch
	night-shift:  Shifts crossing midnight, premium split at 22:00/06:00
	allowances:   Mileage, per diem, travel time, and a weather hindrance
	              missing its source reference
	storhelg:     Work on julafton at the double major-holiday premium

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save the demo org's rate document
 3. Create workers
 4. Insert worked intervals and allowances

USAGE VIA API:

	POST /api/scenarios/full-week/load

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Route wiring
  - factory/ratetable.go: DefaultRateDoc used by every scenario
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// demoOrg is the org every scenario populates.
const demoOrg = "org-demo"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "full-week",
		Name:        "Full Week",
		Description: "Ordinary week with evening work, a Saturday shift, and unanswered standby",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "Midnight-crossing shifts split at the 22:00 and 06:00 boundaries",
	},
	{
		ID:          "allowances",
		Name:        "Allowances",
		Description: "Mileage, per diem, travel time, and a weather hindrance without source",
	},
	{
		ID:          "storhelg",
		Name:        "Storhelg",
		Description: "Work on julafton paid at the major-holiday premium",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario by name.
// POST /api/scenarios/{name}/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch name {
	case "full-week":
		err = h.loadFullWeekScenario(ctx)
	case "night-shift":
		err = h.loadNightShiftScenario(ctx)
	case "allowances":
		err = h.loadAllowancesScenario(ctx)
	case "storhelg":
		err = h.loadStorhelgScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = name
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": name})
}

// ResetDatabase wipes all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedDemoOrg saves the rate document and a worker; every loader starts here.
func (h *Handler) seedDemoOrg(ctx context.Context) error {
	doc := factory.DefaultRateDoc(demoOrg, map[string]float64{
		"w-demo-1": 205,
		"w-demo-2": 218.50,
	})
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := h.Store.SaveRateTable(ctx, demoOrg, raw); err != nil {
		return err
	}

	workers := []sqlite.Worker{
		{ID: "w-demo-1", OrgID: demoOrg, Name: "Johan Berg", PersonalNumber: "850315-1234"},
		{ID: "w-demo-2", OrgID: demoOrg, Name: "Sara Lindqvist", PersonalNumber: "920708-5678"},
	}
	for _, worker := range workers {
		if err := h.Store.SaveWorker(ctx, worker); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFullWeekScenario(ctx context.Context) error {
	if err := h.seedDemoOrg(ctx); err != nil {
		return err
	}

	// Mon 2025-03-03 .. Fri 2025-03-07, 07:00-16:00 on project P100.
	for day := 3; day <= 7; day++ {
		iv := payroll.WorkedInterval{
			ID:        fmt.Sprintf("demo-day-%d", day),
			WorkerID:  "w-demo-1",
			ProjectID: "P100",
			Start:     time.Date(2025, time.March, day, 7, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.March, day, 16, 0, 0, 0, time.UTC),
			SourceTag: fmt.Sprintf("timesheet#%d", day),
		}
		if err := h.Store.AddInterval(ctx, iv); err != nil {
			return err
		}
	}

	extras := []payroll.WorkedInterval{
		// Wednesday evening stretch into OB Kväll.
		{
			ID: "demo-evening", WorkerID: "w-demo-1", ProjectID: "P100",
			Start:     time.Date(2025, time.March, 5, 17, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.March, 5, 20, 0, 0, 0, time.UTC),
			SourceTag: "timesheet#5",
		},
		// Saturday shift, weekend premium.
		{
			ID: "demo-saturday", WorkerID: "w-demo-1", ProjectID: "P100",
			Start:     time.Date(2025, time.March, 8, 8, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.March, 8, 12, 0, 0, 0, time.UTC),
			SourceTag: "timesheet#8",
		},
		// Standby weekend with no matching dispatch; compliance flags this.
		{
			ID: "demo-standby", WorkerID: "w-demo-1", ProjectID: "P100",
			Start:   time.Date(2025, time.March, 9, 6, 0, 0, 0, time.UTC),
			End:     time.Date(2025, time.March, 9, 18, 0, 0, 0, time.UTC),
			Standby: true,
		},
	}
	for _, iv := range extras {
		if err := h.Store.AddInterval(ctx, iv); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadNightShiftScenario(ctx context.Context) error {
	if err := h.seedDemoOrg(ctx); err != nil {
		return err
	}

	// Three nights 20:00-04:30, each crossing midnight.
	for day := 3; day <= 5; day++ {
		iv := payroll.WorkedInterval{
			ID:        fmt.Sprintf("demo-night-%d", day),
			WorkerID:  "w-demo-2",
			ProjectID: "P200",
			Start:     time.Date(2025, time.March, day, 20, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.March, day+1, 4, 30, 0, 0, time.UTC),
			SourceTag: "id06:SE556677-8899",
		}
		if err := h.Store.AddInterval(ctx, iv); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadAllowancesScenario(ctx context.Context) error {
	if err := h.seedDemoOrg(ctx); err != nil {
		return err
	}

	iv := payroll.WorkedInterval{
		ID: "demo-work", WorkerID: "w-demo-1", ProjectID: "P100",
		Start:     time.Date(2025, time.March, 4, 7, 0, 0, 0, time.UTC),
		End:       time.Date(2025, time.March, 4, 16, 0, 0, 0, time.UTC),
		SourceTag: "timesheet#301",
	}
	if err := h.Store.AddInterval(ctx, iv); err != nil {
		return err
	}

	allowances := []payroll.Allowance{
		{
			ID: "demo-mileage", WorkerID: "w-demo-1", ProjectID: "P100",
			Date:     payroll.NewDate(2025, time.March, 4),
			Category: payroll.CategoryMileage,
			Quantity: decimal.NewFromInt(42), Unit: payroll.UnitKm,
			SourceTag: "expense#17",
		},
		{
			ID: "demo-perdiem", WorkerID: "w-demo-1", ProjectID: "P100",
			Date:     payroll.NewDate(2025, time.March, 4),
			Category: payroll.CategoryPerDiem,
			Quantity: decimal.NewFromInt(1), Unit: payroll.UnitDays,
			SourceTag: "expense#18",
		},
		{
			ID: "demo-travel", WorkerID: "w-demo-1", ProjectID: "P100",
			Date:     payroll.NewDate(2025, time.March, 4),
			Category: payroll.CategoryTravelTime,
			Quantity: decimal.NewFromFloat(1.5), Unit: payroll.UnitHours,
			SourceTag: "timesheet#301",
		},
		// No source tag: the weather rule flags this row.
		{
			ID: "demo-weather", WorkerID: "w-demo-1", ProjectID: "P100",
			Date:     payroll.NewDate(2025, time.March, 5),
			Category: payroll.CategoryWeather,
			Quantity: decimal.NewFromInt(4), Unit: payroll.UnitHours,
		},
	}
	for _, al := range allowances {
		if err := h.Store.AddAllowance(ctx, al); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadStorhelgScenario(ctx context.Context) error {
	if err := h.seedDemoOrg(ctx); err != nil {
		return err
	}

	iv := payroll.WorkedInterval{
		ID: "demo-julafton", WorkerID: "w-demo-2", ProjectID: "P300",
		Start:     time.Date(2025, time.December, 24, 8, 0, 0, 0, time.UTC),
		End:       time.Date(2025, time.December, 24, 14, 0, 0, 0, time.UTC),
		SourceTag: "timesheet#1224",
	}
	return h.Store.AddInterval(ctx, iv)
}
