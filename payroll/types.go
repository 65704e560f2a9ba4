/*
Package payroll implements the wage-type classification and compliance engine.

PURPOSE:
  This package contains the pure computation core: given raw worked-time
  intervals, allowance records, and an organization's rate configuration, it
  partitions each interval into rate-differentiated sub-intervals, folds them
  into a wage-type ledger with computed amounts, and runs a rule-based
  compliance pass over the result.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantity: A value with a unit (e.g., 7.5 hours, 42 km, 1 day)
  - Category: Typed enumeration of Swedish wage-type codes
  - WorkedInterval: One source shift segment (immutable input)
  - WageTypeRow: One ledger line (immutable output)
  - PayrollResult: The complete computed bundle for one worker and period

DESIGN PRINCIPLES:
  1. Purity: No I/O, no clocks, no global state. Same inputs, same outputs.
  2. Precision: Uses decimal.Decimal to avoid floating-point money errors.
  3. Immutability: Inputs are never mutated; outputs are regenerated from
     scratch on every run, never patched.
  4. Type Safety: Strong typing for worker/project IDs and categories.

USAGE:
  engine := payroll.NewEngine()
  result, err := engine.Compute(payroll.ComputeInput{
      WorkerID:  "w-1",
      Period:    payroll.Period{Start: start, End: end},
      Intervals: intervals,
      Rates:     rates,
  })

SEE ALSO:
  - classify.go: Hour-sweep interval classification
  - aggregate.go: Ledger row construction
  - compliance.go: Advisory rule checks
  - engine.go: The facade tying everything together
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITY - Value with unit
// =============================================================================

type Unit string

const (
	UnitHours  Unit = "hours"
	UnitPieces Unit = "pieces"
	UnitKm     Unit = "km"
	UnitDays   Unit = "days"
)

type Quantity struct {
	Value decimal.Decimal
	Unit  Unit
}

func NewQuantity(value float64, unit Unit) Quantity {
	return Quantity{Value: decimal.NewFromFloat(value), Unit: unit}
}

func Hours(value float64) Quantity { return NewQuantity(value, UnitHours) }

func (q Quantity) Add(o Quantity) Quantity { return Quantity{Value: q.Value.Add(o.Value), Unit: q.Unit} }
func (q Quantity) IsZero() bool            { return q.Value.IsZero() }
func (q Quantity) IsPositive() bool        { return q.Value.IsPositive() }

// =============================================================================
// CATEGORY - Typed enumeration of wage-type codes
// =============================================================================

// Category identifies a wage type. Codes follow Swedish payroll conventions
// (OB = obekväm arbetstid, inconvenient working hours).
type Category string

const (
	CategoryOrdinary     Category = "ARB"           // Ordinary working time
	CategoryOvertime     Category = "OT_KVAL"       // Qualified overtime
	CategoryEveningOB    Category = "OB_KVALL"      // Evening premium (18:00-22:00)
	CategoryNightOB      Category = "OB_NATT"       // Night premium (22:00-06:00)
	CategoryWeekendOB    Category = "OB_HELG"       // Weekend premium
	CategoryHolidayOB    Category = "OB_STORHELG"   // Major-holiday premium
	CategoryStandby      Category = "BEREDSKAP"     // On-call standby
	CategoryDispatch     Category = "UTRYCKNING"    // Call-out dispatch
	CategoryTravelTime   Category = "RESTID"        // Travel time
	CategoryMileage      Category = "MILERSATTNING" // Mileage allowance
	CategoryPerDiem      Category = "TRAKTAMENTE"   // Per-diem allowance
	CategoryWeather      Category = "VADERHINDER"   // Weather hindrance
	CategoryPiecework    Category = "ACKORD"        // Piecework
	CategorySick         Category = "SJUK"          // Sick absence
	CategoryVacation     Category = "SEMESTER"      // Vacation absence
)

// AllCategories lists every known category in ledger display order.
// Tests use this to verify the summary mapping is exhaustive.
var AllCategories = []Category{
	CategoryOrdinary, CategoryOvertime,
	CategoryEveningOB, CategoryNightOB, CategoryWeekendOB, CategoryHolidayOB,
	CategoryStandby, CategoryDispatch,
	CategoryTravelTime, CategoryMileage, CategoryPerDiem,
	CategoryWeather, CategoryPiecework,
	CategorySick, CategoryVacation,
}

// categoryNames maps codes to human-readable ledger labels.
var categoryNames = map[Category]string{
	CategoryOrdinary:   "Arbetstid",
	CategoryOvertime:   "Övertid kvalificerad",
	CategoryEveningOB:  "OB Kväll",
	CategoryNightOB:    "OB Natt",
	CategoryWeekendOB:  "OB Helg",
	CategoryHolidayOB:  "OB Storhelg",
	CategoryStandby:    "Beredskap",
	CategoryDispatch:   "Utryckning",
	CategoryTravelTime: "Restid",
	CategoryMileage:    "Milersättning",
	CategoryPerDiem:    "Traktamente",
	CategoryWeather:    "Väderhinder",
	CategoryPiecework:  "Ackord",
	CategorySick:       "Sjukfrånvaro",
	CategoryVacation:   "Semester",
}

// DisplayName returns the ledger label for a category, falling back to the
// raw code for categories this engine does not know about.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// premiumCategories are the interval-derived categories that displace
// ordinary time. The residual ordinary row is total worked time minus the
// sum of these, which preserves the classifier's coverage invariant.
var premiumCategories = map[Category]bool{
	CategoryEveningOB: true,
	CategoryNightOB:   true,
	CategoryWeekendOB: true,
	CategoryHolidayOB: true,
	CategoryStandby:   true,
	CategoryDispatch:  true,
}

// IsPremium reports whether the category is an inconvenient-hours or on-call
// premium derived from interval classification.
func (c Category) IsPremium() bool { return premiumCategories[c] }

// categoryOrder gives a deterministic sort order for ledger rows.
var categoryOrder = func() map[Category]int {
	m := make(map[Category]int, len(AllCategories))
	for i, c := range AllCategories {
		m[c] = i
	}
	return m
}()

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type OrgID string

// ProjectID identifies a project. The zero value means "no project"
// (time not booked against any project).
type ProjectID string

func (p ProjectID) IsZero() bool { return p == "" }

// =============================================================================
// SOURCE INPUTS - Immutable snapshots read from collaborator stores
// =============================================================================

// WorkedInterval is one source shift segment. End must be after Start; the
// interval may cross midnight. The engine never mutates intervals.
type WorkedInterval struct {
	ID        string
	WorkerID  WorkerID
	ProjectID ProjectID // zero value = unassigned
	Start     time.Time
	End       time.Time
	SourceTag string // free-text origin, e.g. "timesheet#123" or "id06:SE123"
	Standby   bool   // on-call standby shift
	Dispatch  bool   // call-out dispatch shift
}

// Duration returns the interval length.
func (w WorkedInterval) Duration() time.Duration { return w.End.Sub(w.Start) }

// Allowance is a non-interval input: a unit-count record (travel time,
// mileage, per-diem, weather hindrance, piecework, absence) priced directly
// from the organization's allowance rates, bypassing the hour sweep.
type Allowance struct {
	ID        string
	WorkerID  WorkerID
	ProjectID ProjectID
	Date      Date
	Category  Category
	Quantity  decimal.Decimal
	Unit      Unit
	SourceTag string
	Comment   string
}

// =============================================================================
// CLASSIFIED SEGMENT - Classifier output
// =============================================================================

// ClassifiedSegment is one (date, category) slice of a worked interval.
// For any interval, the classifier guarantees the segment durations sum to
// the interval's total duration: no gaps, no overlaps.
type ClassifiedSegment struct {
	IntervalID string
	ProjectID  ProjectID
	Date       Date
	Category   Category
	Hours      decimal.Decimal
	// SourceTag is carried from the originating interval so ledger rows can
	// reference their origin (e.g. "timesheet#123", "id06:SE123").
	SourceTag string
}

// =============================================================================
// WAGE TYPE ROW - The unit of the ledger
// =============================================================================

// AttestStatus is the sign-off state of a computed row. Transitions are
// owned by the hosting service; the engine always emits AttestCreated.
type AttestStatus string

const (
	AttestCreated  AttestStatus = "created"
	AttestReviewed AttestStatus = "reviewed"
	AttestLocked   AttestStatus = "locked"
)

// WageTypeRow is one ledger line: a pay category, quantity, and computed
// amount for a date and project. Rows are append-only outputs of one
// computation; a re-run regenerates them from scratch.
type WageTypeRow struct {
	Date         Date
	ProjectID    ProjectID // zero value = unassigned
	Category     Category
	CategoryName string
	Quantity     decimal.Decimal
	Unit         Unit
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
	Source       string
	Attestation  AttestStatus
	Signature    string
}

// =============================================================================
// DERIVED OUTPUTS
// =============================================================================

// Summary is the fixed-shape category roll-up for one computation. Hour
// fields are in hours, Mileage in km, PerDiem in days, amounts in SEK.
type Summary struct {
	OrdinaryHours   decimal.Decimal
	OvertimeHours   decimal.Decimal
	EveningOBHours  decimal.Decimal
	NightOBHours    decimal.Decimal
	WeekendOBHours  decimal.Decimal
	HolidayOBHours  decimal.Decimal
	StandbyHours    decimal.Decimal
	DispatchHours   decimal.Decimal
	TravelTimeHours decimal.Decimal
	WeatherHours    decimal.Decimal
	SickHours       decimal.Decimal
	VacationHours   decimal.Decimal

	MileageKm      decimal.Decimal
	PerDiemDays    decimal.Decimal
	PieceworkUnits decimal.Decimal

	// OtherQuantity accumulates quantities of unknown category codes so
	// configuration mistakes surface instead of silently vanishing.
	OtherQuantity decimal.Decimal

	TotalWorkedHours decimal.Decimal
	TotalGrossAmount decimal.Decimal
}

// CategorySubtotal is one per-category line inside a project breakdown.
type CategorySubtotal struct {
	Category Category
	Name     string
	Quantity decimal.Decimal
	Unit     Unit
	Amount   decimal.Decimal
}

// ProjectBreakdown holds the per-category subtotals for one project.
// Rows without a project fall into a single unassigned bucket.
type ProjectBreakdown struct {
	ProjectID   ProjectID
	Subtotals   []CategorySubtotal
	TotalAmount decimal.Decimal
	TotalHours  decimal.Decimal
}

// DeviationKind says which threshold a day crossed.
type DeviationKind string

const (
	DeviationOver  DeviationKind = "over"
	DeviationUnder DeviationKind = "under"
)

// Deviation flags one day whose worked-hours total crossed a threshold.
type Deviation struct {
	Date       Date
	TotalHours decimal.Decimal
	Threshold  decimal.Decimal
	Kind       DeviationKind
	// Magnitude is the absolute excess or deficit relative to the threshold,
	// used for top-N truncation.
	Magnitude decimal.Decimal
}

// Severity of a compliance warning. Findings are advisory; they never block
// row generation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RuleType names a compliance rule.
type RuleType string

const (
	RuleOBWithoutProject        RuleType = "OB_WITHOUT_PROJECT"
	RuleTimeWithoutProjectOrID06 RuleType = "TIME_WITHOUT_PROJECT_OR_ID06"
	RuleWeatherWithoutSource    RuleType = "WEATHER_HINDRANCE_WITHOUT_SOURCE"
	RuleStandbyWithoutDispatch  RuleType = "STANDBY_WITHOUT_DISPATCH"
	RuleTravelTimeExcessive     RuleType = "TRAVEL_TIME_EXCESSIVE"
	RulePieceworkWithoutProject RuleType = "PIECEWORK_WITHOUT_PROJECT"
)

// ComplianceWarning is one advisory finding. RowIndexes point into the row
// list of the same PayrollResult so a UI can highlight the exact rows.
type ComplianceWarning struct {
	Rule        RuleType
	Description string
	RowIndexes  []int
	Severity    Severity
}

// SkippedInterval records one malformed source interval that was dropped.
// Per-record failures never abort the batch.
type SkippedInterval struct {
	IntervalID string
	Reason     string
}

// PayrollResult is the complete computed bundle for one worker and period.
type PayrollResult struct {
	WorkerID    WorkerID
	Period      Period
	GeneratedAt time.Time // supplied by the caller, never read from a clock here

	Rows       []WageTypeRow
	Summary    Summary
	Breakdown  []ProjectBreakdown
	Deviations []Deviation
	Warnings   []ComplianceWarning
	Skipped    []SkippedInterval
}
