/*
classify.go - Hour-granularity interval classification

PURPOSE:
  Partitions one worked interval into typed sub-segments, one per
  (date, category) pair the interval touches. This is the only place in the
  engine that looks at clock time.

ALGORITHM:
  Sweep the interval from start to end in slices that never cross an hour
  boundary. Premium boundaries (18:00, 22:00, 06:00, midnight) are all
  hour-aligned, so classifying each slice by its start instant is exact.
  For each slice, the first matching rule in classificationRules wins;
  no rule matching means ordinary time.

PRIORITY ORDER (rule table, evaluated top to bottom):
  major_holiday > weekend > night (22:00-06:00) > evening (18:00-22:00) > ordinary

  The order is data, not branching logic: each rule is an independent
  (predicate, category) pair, testable on its own.

COVERAGE INVARIANT:
  The sum of all segment durations for an interval equals end - start,
  exactly. Durations are accumulated as whole nanoseconds per
  (date, category) and converted to decimal hours once per segment, so
  timestamps with fractional seconds still sum without drift.

EDGE CASES:
  - Intervals crossing midnight yield segments on every date they touch.
  - Standby and dispatch shifts bypass the premium sweep entirely: the
    whole interval is on-call time, split only by date.
  - end <= start is a per-record ClassificationError; callers skip the
    interval and continue with the batch.
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLASSIFICATION RULE TABLE
// =============================================================================

type hourRule struct {
	Name     string
	Category Category
	// Applies reports whether the rule captures the hour starting at the
	// given date and hour-of-day.
	Applies func(d Date, hour int, rates RateTable) bool
}

// classificationRules is the priority order. First match wins; falling
// through every rule means ordinary time.
var classificationRules = []hourRule{
	{
		Name:     "major_holiday",
		Category: CategoryHolidayOB,
		Applies:  func(d Date, _ int, rates RateTable) bool { return rates.holiday(d) },
	},
	{
		Name:     "weekend",
		Category: CategoryWeekendOB,
		Applies:  func(d Date, _ int, _ RateTable) bool { return d.IsWeekend() },
	},
	{
		Name:     "night",
		Category: CategoryNightOB,
		Applies:  func(_ Date, hour int, _ RateTable) bool { return hour >= 22 || hour < 6 },
	},
	{
		Name:     "evening",
		Category: CategoryEveningOB,
		Applies:  func(_ Date, hour int, _ RateTable) bool { return hour >= 18 && hour < 22 },
	},
}

// classifyHour returns the single highest-priority category for an hour.
func classifyHour(d Date, hour int, rates RateTable) Category {
	for _, rule := range classificationRules {
		if rule.Applies(d, hour, rates) {
			return rule.Category
		}
	}
	return CategoryOrdinary
}

// =============================================================================
// CLASSIFIER
// =============================================================================

const nanosPerHour = 60 * 60 * 1000 * 1000 * 1000

var decNanosPerHour = decimal.NewFromInt(nanosPerHour)

// Classify partitions one worked interval into classified segments covering
// it exactly. Returns a ClassificationError when end is not after start.
func Classify(interval WorkedInterval, rates RateTable) ([]ClassifiedSegment, error) {
	if !interval.End.After(interval.Start) {
		return nil, &ClassificationError{
			IntervalID: interval.ID,
			Reason:     "end is not after start",
		}
	}

	// Standby and dispatch shifts are a single on-call category for the
	// whole interval; only the date split applies.
	fixed := Category("")
	switch {
	case interval.Standby:
		fixed = CategoryStandby
	case interval.Dispatch:
		fixed = CategoryDispatch
	}

	type segKey struct {
		date     Date
		category Category
	}
	nanos := make(map[segKey]int64)
	var order []segKey // insertion order keeps output deterministic

	cur := interval.Start
	for cur.Before(interval.End) {
		sliceEnd := nextHourBoundary(cur)
		if sliceEnd.After(interval.End) {
			sliceEnd = interval.End
		}

		date := DateOf(cur)
		category := fixed
		if category == "" {
			category = classifyHour(date, cur.Hour(), rates)
		}

		key := segKey{date: date, category: category}
		if _, seen := nanos[key]; !seen {
			order = append(order, key)
		}
		nanos[key] += sliceEnd.Sub(cur).Nanoseconds()

		cur = sliceEnd
	}

	segments := make([]ClassifiedSegment, 0, len(order))
	for _, key := range order {
		segments = append(segments, ClassifiedSegment{
			IntervalID: interval.ID,
			ProjectID:  interval.ProjectID,
			Date:       key.date,
			Category:   key.category,
			Hours:      decimal.NewFromInt(nanos[key]).Div(decNanosPerHour),
			SourceTag:  interval.SourceTag,
		})
	}
	return segments, nil
}

// nextHourBoundary returns the first instant strictly after t that lies on
// an hour boundary in t's location.
func nextHourBoundary(t time.Time) time.Time {
	b := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	return b.Add(time.Hour)
}
