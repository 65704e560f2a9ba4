/*
Package factory provides rate-table document to Go conversion.

PURPOSE:
  Converts YAML or JSON rate documents into payroll.RateTable values. This
  enables pay-rule configuration without code changes - an org admin can
  maintain rates in a document, and the factory compiles the proper
  immutable engine configuration, including the holiday predicate.

WHY DOCUMENTS?
  - Non-developers can maintain an org's pay rules
  - Easy integration with an admin UI
  - Version control for rate definitions
  - Database storage of rate configs (stored as the raw document)

DOCUMENT SCHEMA (YAML shown; JSON field names identical):
  org_id: org-1
  currency: SEK
  base_rates:
    w-1: 200
    w-2: 215.50
  multipliers:
    OB_KVALL: 1.2
    OB_NATT: 1.2
    OB_HELG: 1.5
    OB_STORHELG: 2.0
    OT_KVAL: 1.5
  allowance_prices:
    MILERSATTNING: 2.5
    TRAKTAMENTE: 290
  holidays:
    - date: "2025-06-06"        # one-off
    - month: 12                  # recurring every year
      day: 24
    - month: 1
      day: 1

USAGE:
  table, err := factory.ParseRateTableYAML(doc)
  result, err := engine.Compute(payroll.ComputeInput{Rates: *table, ...})

SEE ALSO:
  - payroll/rates.go: The compiled RateTable type
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RateTableDoc is the document representation of an org's rate table.
type RateTableDoc struct {
	OrgID           string             `json:"org_id" yaml:"org_id"`
	Currency        string             `json:"currency,omitempty" yaml:"currency,omitempty"`
	BaseRates       map[string]float64 `json:"base_rates" yaml:"base_rates"`
	Multipliers     map[string]float64 `json:"multipliers,omitempty" yaml:"multipliers,omitempty"`
	AllowancePrices map[string]float64 `json:"allowance_prices,omitempty" yaml:"allowance_prices,omitempty"`
	Holidays        []HolidayDoc       `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

// HolidayDoc is either a one-off date ("2025-06-06") or a recurring
// month/day pair that applies every year.
type HolidayDoc struct {
	Date  string `json:"date,omitempty" yaml:"date,omitempty"`
	Month int    `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int    `json:"day,omitempty" yaml:"day,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRateTableYAML compiles a YAML rate document.
func ParseRateTableYAML(doc []byte) (*payroll.RateTable, error) {
	var rd RateTableDoc
	if err := yaml.Unmarshal(doc, &rd); err != nil {
		return nil, fmt.Errorf("failed to parse rate table YAML: %w", err)
	}
	return FromDoc(rd)
}

// ParseRateTableJSON compiles a JSON rate document. The API and the store
// use this form.
func ParseRateTableJSON(doc []byte) (*payroll.RateTable, error) {
	var rd RateTableDoc
	if err := json.Unmarshal(doc, &rd); err != nil {
		return nil, fmt.Errorf("failed to parse rate table JSON: %w", err)
	}
	return FromDoc(rd)
}

// FromDoc compiles a document into an immutable RateTable.
func FromDoc(rd RateTableDoc) (*payroll.RateTable, error) {
	if len(rd.BaseRates) == 0 {
		return nil, &payroll.RateConfigError{
			OrgID:  payroll.OrgID(rd.OrgID),
			Detail: "document has no base_rates",
			Err:    payroll.ErrMissingRateTable,
		}
	}

	currency := rd.Currency
	if currency == "" {
		currency = "SEK"
	}

	table := &payroll.RateTable{
		OrgID:           payroll.OrgID(rd.OrgID),
		Currency:        currency,
		BaseRates:       make(map[payroll.WorkerID]decimal.Decimal, len(rd.BaseRates)),
		Multipliers:     make(map[payroll.Category]decimal.Decimal, len(rd.Multipliers)),
		AllowancePrices: make(map[payroll.Category]decimal.Decimal, len(rd.AllowancePrices)),
	}

	for worker, rate := range rd.BaseRates {
		if rate <= 0 {
			return nil, &payroll.RateConfigError{
				OrgID:  table.OrgID,
				Detail: fmt.Sprintf("non-positive base rate for worker %s", worker),
				Err:    payroll.ErrMissingRateTable,
			}
		}
		table.BaseRates[payroll.WorkerID(worker)] = decimal.NewFromFloat(rate)
	}
	for cat, m := range rd.Multipliers {
		table.Multipliers[payroll.Category(cat)] = decimal.NewFromFloat(m)
	}
	for cat, p := range rd.AllowancePrices {
		table.AllowancePrices[payroll.Category(cat)] = decimal.NewFromFloat(p)
	}

	predicate, err := compileHolidays(rd.Holidays)
	if err != nil {
		return nil, err
	}
	table.IsHoliday = predicate

	return table, nil
}

// compileHolidays builds the holiday predicate from one-off and recurring
// entries. An empty list compiles to payroll.NoHolidays.
func compileHolidays(docs []HolidayDoc) (payroll.HolidayFunc, error) {
	if len(docs) == 0 {
		return payroll.NoHolidays, nil
	}

	oneOff := make(map[payroll.Date]bool)
	type monthDay struct {
		month time.Month
		day   int
	}
	recurring := make(map[monthDay]bool)

	for _, h := range docs {
		switch {
		case h.Date != "":
			d, err := payroll.ParseDate(h.Date)
			if err != nil {
				return nil, fmt.Errorf("holiday %q: %w", h.Date, err)
			}
			oneOff[d] = true
		case h.Month >= 1 && h.Month <= 12 && h.Day >= 1 && h.Day <= 31:
			recurring[monthDay{time.Month(h.Month), h.Day}] = true
		default:
			return nil, fmt.Errorf("holiday entry needs a date or a month/day pair: %+v", h)
		}
	}

	return func(d payroll.Date) bool {
		return oneOff[d] || recurring[monthDay{d.Month, d.Day}]
	}, nil
}

// =============================================================================
// CANNED DOCUMENTS
// =============================================================================

// SwedishMajorHolidays returns the recurring storhelg entries most Swedish
// construction agreements pay double for. Movable feasts (midsummer eve,
// easter) are date-specific and must come from the org's own document.
func SwedishMajorHolidays() []HolidayDoc {
	return []HolidayDoc{
		{Month: 1, Day: 1, Name: "Nyårsdagen"},
		{Month: 1, Day: 6, Name: "Trettondedag jul"},
		{Month: 5, Day: 1, Name: "Första maj"},
		{Month: 6, Day: 6, Name: "Nationaldagen"},
		{Month: 12, Day: 24, Name: "Julafton"},
		{Month: 12, Day: 25, Name: "Juldagen"},
		{Month: 12, Day: 26, Name: "Annandag jul"},
		{Month: 12, Day: 31, Name: "Nyårsafton"},
	}
}

// DefaultRateDoc returns a starter document with the standard multiplier
// set, used by demo scenarios and as an admin-UI template.
func DefaultRateDoc(orgID string, baseRates map[string]float64) RateTableDoc {
	return RateTableDoc{
		OrgID:     orgID,
		Currency:  "SEK",
		BaseRates: baseRates,
		Multipliers: map[string]float64{
			string(payroll.CategoryEveningOB): 1.2,
			string(payroll.CategoryNightOB):   1.2,
			string(payroll.CategoryWeekendOB): 1.5,
			string(payroll.CategoryHolidayOB): 2.0,
			string(payroll.CategoryOvertime):  1.5,
		},
		AllowancePrices: map[string]float64{
			string(payroll.CategoryMileage): 2.5,
			string(payroll.CategoryPerDiem): 290,
		},
		Holidays: SwedishMajorHolidays(),
	}
}
