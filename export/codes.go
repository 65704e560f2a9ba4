/*
Package export renders computed payroll results for downstream consumers.

PURPOSE:
  The engine's output feeds external systems: the accounting export maps
  category codes to Fortnox/Visma wage-type codes via static lookup tables,
  and the statement renderers (CSV, PDF, Excel) produce the human-facing
  salary basis. Everything here is presentational - no renderer feeds
  anything back into the engine.

  Personal numbers are masked at render time only; the engine's data model
  never sees them.
*/
package export

import (
	"sort"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ACCOUNTING SYSTEM CODE TABLES
// =============================================================================

// AccountingSystem selects which external chart of wage-type codes to map to.
type AccountingSystem string

const (
	SystemFortnox AccountingSystem = "fortnox"
	SystemVisma   AccountingSystem = "visma"
)

// fortnoxCodes maps engine categories to Fortnox salary codes. Maintained
// here as a static table; the engine itself never sees external codes.
var fortnoxCodes = map[payroll.Category]string{
	payroll.CategoryOrdinary:   "ARB",
	payroll.CategoryOvertime:   "ÖT2",
	payroll.CategoryEveningOB:  "OB1",
	payroll.CategoryNightOB:    "OB2",
	payroll.CategoryWeekendOB:  "OB3",
	payroll.CategoryHolidayOB:  "OB4",
	payroll.CategoryStandby:    "BE2",
	payroll.CategoryDispatch:   "ÖT1",
	payroll.CategoryTravelTime: "RES",
	payroll.CategoryMileage:    "BIL",
	payroll.CategoryPerDiem:    "TRA",
	payroll.CategoryWeather:    "PER",
	payroll.CategoryPiecework:  "ACK",
	payroll.CategorySick:       "SJK",
	payroll.CategoryVacation:   "SEM",
}

// vismaCodes maps engine categories to Visma Lön wage-type numbers.
var vismaCodes = map[payroll.Category]string{
	payroll.CategoryOrdinary:   "1101",
	payroll.CategoryOvertime:   "1213",
	payroll.CategoryEveningOB:  "1141",
	payroll.CategoryNightOB:    "1142",
	payroll.CategoryWeekendOB:  "1143",
	payroll.CategoryHolidayOB:  "1144",
	payroll.CategoryStandby:    "1161",
	payroll.CategoryDispatch:   "1162",
	payroll.CategoryTravelTime: "1171",
	payroll.CategoryMileage:    "5610",
	payroll.CategoryPerDiem:    "5620",
	payroll.CategoryWeather:    "1181",
	payroll.CategoryPiecework:  "1191",
	payroll.CategorySick:       "1311",
	payroll.CategoryVacation:   "1401",
}

// ExternalCode returns the accounting-system wage-type code for a category.
// Unknown categories map to ok=false; the export caller decides whether to
// reject or pass the raw code through.
func ExternalCode(system AccountingSystem, c payroll.Category) (string, bool) {
	switch system {
	case SystemVisma:
		code, ok := vismaCodes[c]
		return code, ok
	default:
		code, ok := fortnoxCodes[c]
		return code, ok
	}
}

// =============================================================================
// ACCOUNTING EXPORT
// =============================================================================

// AccountingLine is one exported wage-type line for the accounting system.
type AccountingLine struct {
	Code      string `json:"code"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	ProjectID string `json:"project_id,omitempty"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	Amount    string `json:"amount"`
	// Unmapped marks lines whose category has no external code; they are
	// exported with the raw category code so nothing vanishes silently.
	Unmapped bool `json:"unmapped,omitempty"`
}

// AccountingExport converts a result's rows into accounting lines, sorted
// by code then date for stable output.
func AccountingExport(system AccountingSystem, result *payroll.PayrollResult) []AccountingLine {
	lines := make([]AccountingLine, 0, len(result.Rows))
	for _, row := range result.Rows {
		code, ok := ExternalCode(system, row.Category)
		if !ok {
			code = string(row.Category)
		}
		lines = append(lines, AccountingLine{
			Code:      code,
			Category:  string(row.Category),
			Date:      row.Date.String(),
			ProjectID: string(row.ProjectID),
			Quantity:  row.Quantity.String(),
			Unit:      string(row.Unit),
			Amount:    row.Amount.StringFixed(2),
			Unmapped:  !ok,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Code != lines[j].Code {
			return lines[i].Code < lines[j].Code
		}
		return lines[i].Date < lines[j].Date
	})
	return lines
}
