/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Workers:
    WorkerDTO, CreateWorkerRequest

  Source inputs:
    IntervalDTO, CreateIntervalRequest
    AllowanceDTO, CreateAllowanceRequest

  Payroll:
    ComputeRequest, RunDTO, ResultDTO, RowDTO, SummaryDTO,
    BreakdownDTO, DeviationDTO, WarningDTO, AttestRequest

  Scenarios:
    ScenarioDTO

MONEY FIELDS:
  Decimal quantities and amounts are serialized as JSON strings ("61.73"),
  never floats. Clients that do arithmetic must parse them with a decimal
  library; display-only clients can use them verbatim.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: The domain model these mirror
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO represents a worker in API responses. The personal number is
// always masked before it leaves the service.
type WorkerDTO struct {
	ID             string `json:"id"`
	OrgID          string `json:"org_id"`
	Name           string `json:"name"`
	PersonalNumber string `json:"personal_number,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateWorkerRequest is the request to create a worker.
type CreateWorkerRequest struct {
	ID             string `json:"id"`
	OrgID          string `json:"org_id"`
	Name           string `json:"name"`
	PersonalNumber string `json:"personal_number,omitempty"`
}

// =============================================================================
// SOURCE INPUTS
// =============================================================================

// IntervalDTO represents one worked interval.
type IntervalDTO struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	ProjectID string `json:"project_id,omitempty"`
	Start     string `json:"start"` // RFC3339
	End       string `json:"end"`   // RFC3339
	SourceTag string `json:"source_tag,omitempty"`
	Standby   bool   `json:"standby,omitempty"`
	Dispatch  bool   `json:"dispatch,omitempty"`
}

// CreateIntervalRequest is the request to record a worked interval.
type CreateIntervalRequest IntervalDTO

// AllowanceDTO represents one unit-count allowance record.
type AllowanceDTO struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	ProjectID string `json:"project_id,omitempty"`
	Date      string `json:"date"` // YYYY-MM-DD
	Category  string `json:"category"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	SourceTag string `json:"source_tag,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// CreateAllowanceRequest is the request to record an allowance.
type CreateAllowanceRequest AllowanceDTO

// =============================================================================
// PAYROLL RUNS
// =============================================================================

// ComputeRequest asks the service to compute one (worker, period) run.
type ComputeRequest struct {
	WorkerID    string `json:"worker_id"`
	OrgID       string `json:"org_id"`
	PeriodStart string `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string `json:"period_end"`   // YYYY-MM-DD
}

// RunDTO is run metadata; the result bundle travels separately.
type RunDTO struct {
	ID          string `json:"id"`
	WorkerID    string `json:"worker_id"`
	OrgID       string `json:"org_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Status      string `json:"status"`
	Signature   string `json:"signature,omitempty"`
	GeneratedAt string `json:"generated_at"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ComputeResponse wraps a freshly stored run and its full result.
type ComputeResponse struct {
	Run    RunDTO    `json:"run"`
	Result ResultDTO `json:"result"`
}

// RowDTO is one wage-type ledger line.
type RowDTO struct {
	Date         string `json:"date"`
	ProjectID    string `json:"project_id,omitempty"`
	Category     string `json:"category"`
	CategoryName string `json:"category_name"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit"`
	UnitPrice    string `json:"unit_price"`
	Amount       string `json:"amount"`
	Source       string `json:"source,omitempty"`
	Attestation  string `json:"attestation"`
}

// SummaryDTO mirrors payroll.Summary with string-encoded decimals.
type SummaryDTO struct {
	OrdinaryHours   string `json:"ordinary_hours"`
	OvertimeHours   string `json:"overtime_hours"`
	EveningOBHours  string `json:"evening_ob_hours"`
	NightOBHours    string `json:"night_ob_hours"`
	WeekendOBHours  string `json:"weekend_ob_hours"`
	HolidayOBHours  string `json:"holiday_ob_hours"`
	StandbyHours    string `json:"standby_hours"`
	DispatchHours   string `json:"dispatch_hours"`
	TravelTimeHours string `json:"travel_time_hours"`
	WeatherHours    string `json:"weather_hours"`
	SickHours       string `json:"sick_hours"`
	VacationHours   string `json:"vacation_hours"`
	MileageKm       string `json:"mileage_km"`
	PerDiemDays     string `json:"per_diem_days"`
	PieceworkUnits  string `json:"piecework_units"`
	OtherQuantity   string `json:"other_quantity"`

	TotalWorkedHours string `json:"total_worked_hours"`
	TotalGrossAmount string `json:"total_gross_amount"`
}

// SubtotalDTO is one category line inside a project breakdown.
type SubtotalDTO struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Amount   string `json:"amount"`
}

// BreakdownDTO holds per-category subtotals for one project.
type BreakdownDTO struct {
	ProjectID   string        `json:"project_id,omitempty"`
	Subtotals   []SubtotalDTO `json:"subtotals"`
	TotalAmount string        `json:"total_amount"`
	TotalHours  string        `json:"total_hours"`
}

// DeviationDTO flags one day that crossed an hours threshold.
type DeviationDTO struct {
	Date       string `json:"date"`
	TotalHours string `json:"total_hours"`
	Threshold  string `json:"threshold"`
	Kind       string `json:"kind"`
	Magnitude  string `json:"magnitude"`
}

// WarningDTO is one advisory compliance finding.
type WarningDTO struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
	RowIndexes  []int  `json:"row_indexes"`
	Severity    string `json:"severity"`
}

// SkippedDTO records one malformed interval that was dropped.
type SkippedDTO struct {
	IntervalID string `json:"interval_id"`
	Reason     string `json:"reason"`
}

// ResultDTO is the complete computed bundle for one worker and period.
type ResultDTO struct {
	WorkerID    string         `json:"worker_id"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	GeneratedAt string         `json:"generated_at"`
	Rows        []RowDTO       `json:"rows"`
	Summary     SummaryDTO     `json:"summary"`
	Breakdown   []BreakdownDTO `json:"breakdown,omitempty"`
	Deviations  []DeviationDTO `json:"deviations,omitempty"`
	Warnings    []WarningDTO   `json:"warnings,omitempty"`
	Skipped     []SkippedDTO   `json:"skipped,omitempty"`
}

// AttestRequest advances a run's attestation status.
type AttestRequest struct {
	Status    string `json:"status"` // "reviewed" or "locked"
	Signature string `json:"signature"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toWorkerDTO(w sqlite.Worker) WorkerDTO {
	return WorkerDTO{
		ID:             string(w.ID),
		OrgID:          string(w.OrgID),
		Name:           w.Name,
		PersonalNumber: export.MaskPersonalNumber(w.PersonalNumber),
		CreatedAt:      w.CreatedAt.Format(time.RFC3339),
	}
}

func toIntervalDTO(iv payroll.WorkedInterval) IntervalDTO {
	return IntervalDTO{
		ID:        iv.ID,
		WorkerID:  string(iv.WorkerID),
		ProjectID: string(iv.ProjectID),
		Start:     iv.Start.Format(time.RFC3339),
		End:       iv.End.Format(time.RFC3339),
		SourceTag: iv.SourceTag,
		Standby:   iv.Standby,
		Dispatch:  iv.Dispatch,
	}
}

func toAllowanceDTO(al payroll.Allowance) AllowanceDTO {
	return AllowanceDTO{
		ID:        al.ID,
		WorkerID:  string(al.WorkerID),
		ProjectID: string(al.ProjectID),
		Date:      al.Date.String(),
		Category:  string(al.Category),
		Quantity:  al.Quantity.String(),
		Unit:      string(al.Unit),
		SourceTag: al.SourceTag,
		Comment:   al.Comment,
	}
}

func toRunDTO(run sqlite.Run) RunDTO {
	return RunDTO{
		ID:          run.ID,
		WorkerID:    string(run.WorkerID),
		OrgID:       string(run.OrgID),
		PeriodStart: run.PeriodStart.String(),
		PeriodEnd:   run.PeriodEnd.String(),
		Status:      string(run.Status),
		Signature:   run.Signature,
		GeneratedAt: run.GeneratedAt.Format(time.RFC3339),
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}
}

func toRowDTO(row payroll.WageTypeRow) RowDTO {
	return RowDTO{
		Date:         row.Date.String(),
		ProjectID:    string(row.ProjectID),
		Category:     string(row.Category),
		CategoryName: row.CategoryName,
		Quantity:     row.Quantity.String(),
		Unit:         string(row.Unit),
		UnitPrice:    row.UnitPrice.String(),
		Amount:       row.Amount.String(),
		Source:       row.Source,
		Attestation:  string(row.Attestation),
	}
}

func toSummaryDTO(s payroll.Summary) SummaryDTO {
	return SummaryDTO{
		OrdinaryHours:    s.OrdinaryHours.String(),
		OvertimeHours:    s.OvertimeHours.String(),
		EveningOBHours:   s.EveningOBHours.String(),
		NightOBHours:     s.NightOBHours.String(),
		WeekendOBHours:   s.WeekendOBHours.String(),
		HolidayOBHours:   s.HolidayOBHours.String(),
		StandbyHours:     s.StandbyHours.String(),
		DispatchHours:    s.DispatchHours.String(),
		TravelTimeHours:  s.TravelTimeHours.String(),
		WeatherHours:     s.WeatherHours.String(),
		SickHours:        s.SickHours.String(),
		VacationHours:    s.VacationHours.String(),
		MileageKm:        s.MileageKm.String(),
		PerDiemDays:      s.PerDiemDays.String(),
		PieceworkUnits:   s.PieceworkUnits.String(),
		OtherQuantity:    s.OtherQuantity.String(),
		TotalWorkedHours: s.TotalWorkedHours.String(),
		TotalGrossAmount: s.TotalGrossAmount.String(),
	}
}

func toResultDTO(result *payroll.PayrollResult) ResultDTO {
	dto := ResultDTO{
		WorkerID:    string(result.WorkerID),
		PeriodStart: result.Period.Start.String(),
		PeriodEnd:   result.Period.End.String(),
		GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
		Rows:        make([]RowDTO, len(result.Rows)),
		Summary:     toSummaryDTO(result.Summary),
	}
	for i, row := range result.Rows {
		dto.Rows[i] = toRowDTO(row)
	}
	for _, b := range result.Breakdown {
		bd := BreakdownDTO{
			ProjectID:   string(b.ProjectID),
			TotalAmount: b.TotalAmount.String(),
			TotalHours:  b.TotalHours.String(),
		}
		for _, sub := range b.Subtotals {
			bd.Subtotals = append(bd.Subtotals, SubtotalDTO{
				Category: string(sub.Category),
				Name:     sub.Name,
				Quantity: sub.Quantity.String(),
				Unit:     string(sub.Unit),
				Amount:   sub.Amount.String(),
			})
		}
		dto.Breakdown = append(dto.Breakdown, bd)
	}
	for _, d := range result.Deviations {
		dto.Deviations = append(dto.Deviations, DeviationDTO{
			Date:       d.Date.String(),
			TotalHours: d.TotalHours.String(),
			Threshold:  d.Threshold.String(),
			Kind:       string(d.Kind),
			Magnitude:  d.Magnitude.String(),
		})
	}
	for _, w := range result.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			Rule:        string(w.Rule),
			Description: w.Description,
			RowIndexes:  w.RowIndexes,
			Severity:    string(w.Severity),
		})
	}
	for _, sk := range result.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedDTO{IntervalID: sk.IntervalID, Reason: sk.Reason})
	}
	return dto
}
