/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All engine error types in one place. Two error classes exist:

  1. Per-record errors (malformed interval) - the offending record is
     skipped, the rest of the batch continues. Reported via the Skipped
     side-channel of PayrollResult, never raised from Compute.
  2. Configuration errors (missing/invalid rate table) - fatal to the
     whole computation; no meaningful rows can exist without rates.

  Compliance findings are NOT errors. They are data, returned for human
  review, and never abort anything.

USAGE:
  if payroll.IsConfigError(err) {
      // surface to operator: the org's rate setup is broken
  }
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInterval is returned when an interval's end is not after its
	// start. Per-record: callers skip the interval and continue.
	ErrInvalidInterval = errors.New("invalid interval: end not after start")

	// ErrMissingRateTable is returned when Compute is called without rate
	// configuration. Fatal to the whole computation.
	ErrMissingRateTable = errors.New("missing rate table")

	// ErrMissingBaseRate is returned when the rate table has no base hourly
	// rate for the worker being computed. Fatal to the whole computation.
	ErrMissingBaseRate = errors.New("missing base rate for worker")

	// ErrInvalidPeriod is returned when a period end precedes its start.
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ClassificationError describes why one interval could not be classified.
type ClassificationError struct {
	IntervalID string
	Reason     string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify interval %s: %s", e.IntervalID, e.Reason)
}

func (e *ClassificationError) Unwrap() error { return ErrInvalidInterval }

// RateConfigError describes a broken rate-table configuration.
type RateConfigError struct {
	OrgID  OrgID
	Detail string
	Err    error
}

func (e *RateConfigError) Error() string {
	return fmt.Sprintf("rate configuration for org %s: %s", e.OrgID, e.Detail)
}

func (e *RateConfigError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRecordError reports whether the error is a per-record failure that
// should skip one input and continue the batch.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrInvalidInterval)
}

// IsConfigError reports whether the error is fatal rate-table configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingRateTable) || errors.Is(err, ErrMissingBaseRate)
}
