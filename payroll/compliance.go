/*
compliance.go - Rule-based compliance pass over the ledger

PURPOSE:
  Scans a computed row set for policy violations ahead of attestation and
  payroll lock. Findings are advisory data for a human approver: they never
  abort the computation, never mutate rows, and are never auto-corrected.

RULE MODEL:
  Each rule is an independent pure function over the full row set producing
  at most one warning carrying the INDICES of every offending row. Rules run
  in a fixed order and all of them always run (no short-circuiting), so one
  computation surfaces every applicable issue at once.

  Indices point into the original row slice, not copies, so downstream UI
  can highlight the exact ledger lines.
*/
package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPLIANCE CHECKER
// =============================================================================

// DefaultTravelCeiling is the per-shift travel-time ceiling in hours.
var DefaultTravelCeiling = decimal.NewFromInt(8)

// ComplianceChecker runs the fixed rule set over a row set.
type ComplianceChecker struct {
	// TravelCeiling is the maximum travel-time hours allowed on a single
	// (date, project) before TRAVEL_TIME_EXCESSIVE fires.
	TravelCeiling decimal.Decimal
}

func NewComplianceChecker() *ComplianceChecker {
	return &ComplianceChecker{TravelCeiling: DefaultTravelCeiling}
}

type complianceRule func(rows []WageTypeRow) *ComplianceWarning

// rules returns the rule set in its fixed evaluation order.
func (c *ComplianceChecker) rules() []complianceRule {
	return []complianceRule{
		obWithoutProject,
		timeWithoutProjectOrID06,
		weatherWithoutSource,
		standbyWithoutDispatch,
		c.travelTimeExcessive,
		pieceworkWithoutProject,
	}
}

// Check runs every rule and collects the findings. Rows are never mutated.
func (c *ComplianceChecker) Check(rows []WageTypeRow) []ComplianceWarning {
	var warnings []ComplianceWarning
	for _, rule := range c.rules() {
		if w := rule(rows); w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

// =============================================================================
// RULES
// =============================================================================

// obWithoutProject: premium-category hours must be booked on a project so
// the OB cost can be attributed.
func obWithoutProject(rows []WageTypeRow) *ComplianceWarning {
	var idx []int
	for i, row := range rows {
		if row.Category.IsPremium() && row.ProjectID.IsZero() {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RuleOBWithoutProject,
		Description: fmt.Sprintf("%d premium-pay row(s) have no project", len(idx)),
		RowIndexes:  idx,
		Severity:    SeverityWarning,
	}
}

// timeWithoutProjectOrID06: worked time must be traceable to either a
// project or an ID06 site identifier.
func timeWithoutProjectOrID06(rows []WageTypeRow) *ComplianceWarning {
	var idx []int
	for i, row := range rows {
		if row.Unit == UnitHours && row.ProjectID.IsZero() && !hasID06Tag(row.Source) {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RuleTimeWithoutProjectOrID06,
		Description: fmt.Sprintf("%d time row(s) missing both project and ID06 tag", len(idx)),
		RowIndexes:  idx,
		Severity:    SeverityWarning,
	}
}

// weatherWithoutSource: weather-hindrance rows need a source or comment for
// the downstream claim.
func weatherWithoutSource(rows []WageTypeRow) *ComplianceWarning {
	var idx []int
	for i, row := range rows {
		if row.Category == CategoryWeather && strings.TrimSpace(row.Source) == "" {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RuleWeatherWithoutSource,
		Description: fmt.Sprintf("%d weather-hindrance row(s) have no source reference", len(idx)),
		RowIndexes:  idx,
		Severity:    SeverityInfo,
	}
}

// standbyWithoutDispatch: a standby row on a (date, project) without any
// dispatch row for the same key suggests an unreported call-out or a
// standby shift booked on the wrong day.
func standbyWithoutDispatch(rows []WageTypeRow) *ComplianceWarning {
	type key struct {
		date    Date
		project ProjectID
	}
	dispatched := make(map[key]bool)
	for _, row := range rows {
		if row.Category == CategoryDispatch {
			dispatched[key{row.Date, row.ProjectID}] = true
		}
	}

	var idx []int
	for i, row := range rows {
		if row.Category == CategoryStandby && !dispatched[key{row.Date, row.ProjectID}] {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RuleStandbyWithoutDispatch,
		Description: fmt.Sprintf("%d standby row(s) have no matching dispatch row", len(idx)),
		RowIndexes:  idx,
		Severity:    SeverityWarning,
	}
}

// travelTimeExcessive: travel-time beyond the per-shift ceiling.
func (c *ComplianceChecker) travelTimeExcessive(rows []WageTypeRow) *ComplianceWarning {
	ceiling := c.TravelCeiling
	if ceiling.IsZero() {
		ceiling = DefaultTravelCeiling
	}

	var idx []int
	for i, row := range rows {
		if row.Category == CategoryTravelTime && row.Quantity.GreaterThan(ceiling) {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RuleTravelTimeExcessive,
		Description: fmt.Sprintf("%d travel-time row(s) exceed the %s hour ceiling", len(idx), ceiling.String()),
		RowIndexes:  idx,
		Severity:    SeverityWarning,
	}
}

// pieceworkWithoutProject: piecework must be attributed to a project.
func pieceworkWithoutProject(rows []WageTypeRow) *ComplianceWarning {
	var idx []int
	for i, row := range rows {
		if row.Category == CategoryPiecework && row.ProjectID.IsZero() {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	return &ComplianceWarning{
		Rule:        RulePieceworkWithoutProject,
		Description: fmt.Sprintf("%d piecework row(s) have no project", len(idx)),
		RowIndexes:  idx,
		Severity:    SeverityInfo,
	}
}

// hasID06Tag reports whether a source string carries an ID06 site
// identifier, e.g. "id06:SE1234567890".
func hasID06Tag(source string) bool {
	return strings.Contains(strings.ToLower(source), "id06")
}
