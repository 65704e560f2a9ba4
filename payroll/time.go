package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day key for ledger rows and segments
// =============================================================================

// Date is a calendar day, comparable and usable as a map key. Wall-clock
// instants from source intervals are reduced to Dates in the interval's own
// location; the engine never converts time zones.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf reduces an instant to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// MustParseDate parses "2006-01-02" and panics on malformed input.
// Intended for fixtures and canned configuration, not request paths.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }
func (d Date) After(o Date) bool  { return d.Time().After(o.Time()) }
func (d Date) Equal(o Date) bool  { return d == o }
func (d Date) IsZero() bool       { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.Time().Format("2006-01-02") }

// =============================================================================
// PERIOD - Inclusive date range for one payroll computation
// =============================================================================

// Period is the inclusive [Start, End] date range of one computation.
type Period struct {
	Start Date
	End   Date
}

// Contains reports whether the date falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Valid reports whether End is on or after Start.
func (p Period) Valid() bool { return !p.End.Before(p.Start) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// HOLIDAY PREDICATE - Pluggable major-holiday lookup
// =============================================================================

// HolidayFunc reports whether a date is a major holiday (storhelg) for the
// organization. Statutory calendars are configuration, not engine logic;
// factory builds these from holiday lists.
type HolidayFunc func(Date) bool

// NoHolidays is the predicate for organizations with no holiday premium.
func NoHolidays(Date) bool { return false }
