/*
errors.go - Centralized error types for the calculation core

PURPOSE:
  All error types in one place. The taxonomy follows the engine's failure
  semantics: a calculation fails for ONE employee when a required
  legislated row cannot be resolved or a required fact is absent; no
  computational step fails once inputs are well-formed. A batch caller is
  expected to catch per-employee failures, skip, and continue - one bad
  employee must never abort the whole month's run.

ERROR CATEGORIES:
  1. Missing-resolution errors - no applicable rates/contributions/threshold
  2. Malformed-input errors - required facts absent

USAGE:
  snapshot, err := calc.Calculate(input)
  if calc.IsMissingResolution(err) {
      // legislation gap for this employee's year; report, skip, continue
  }

SEE ALSO:
  - engine.go: Raises these
  - legislation/registry.go: Wraps the same sentinels with year context
*/
package calc

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingRates is returned when no legislated rates row applies to
	// the calculation year.
	ErrMissingRates = errors.New("no rates for year")

	// ErrMissingContributions is returned when no contribution row applies
	// to the year and insured-type code.
	ErrMissingContributions = errors.New("no contribution rates for year and insured type")

	// ErrMissingThreshold is returned by resolvers when a personnel group
	// has no minimum-insurable-income row. The engine itself treats a nil
	// threshold as "no group minimum", so this surfaces only from lookups
	// that were expected to succeed.
	ErrMissingThreshold = errors.New("no insurable-income threshold for personnel group")

	// ErrMissingContract is returned when an employee has no contract
	// resolved for the month.
	ErrMissingContract = errors.New("no contract for employee")

	// ErrMissingTimesheet is returned when an employee has no timesheet
	// resolved for the month.
	ErrMissingTimesheet = errors.New("no timesheet for employee and month")

	// ErrMissingCalendar is returned when the month has no working
	// calendar configured.
	ErrMissingCalendar = errors.New("no working calendar for month")

	// ErrInvalidEGN is returned when a national identifier cannot be decoded.
	ErrInvalidEGN = errors.New("invalid national identifier")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingLegislationError reports which legislated row could not be
// resolved for a calculation.
type MissingLegislationError struct {
	What string // "rates", "contributions", "threshold"
	Year int
	Key  string // insured type or personnel group, if keyed
}

func (e *MissingLegislationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("missing %s for year %d, key %q", e.What, e.Year, e.Key)
	}
	return fmt.Sprintf("missing %s for year %d", e.What, e.Year)
}

func (e *MissingLegislationError) Unwrap() error {
	switch e.What {
	case "contributions":
		return ErrMissingContributions
	case "threshold":
		return ErrMissingThreshold
	default:
		return ErrMissingRates
	}
}

// CalculationError wraps a per-employee failure with its identity so batch
// callers can report which employee was skipped.
type CalculationError struct {
	EmployeeID string
	Year       int
	Month      int
	Err        error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("payroll %d-%02d for employee %s: %v", e.Year, e.Month, e.EmployeeID, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsMissingResolution returns true for legislation-resolution failures.
func IsMissingResolution(err error) bool {
	return errors.Is(err, ErrMissingRates) ||
		errors.Is(err, ErrMissingContributions) ||
		errors.Is(err, ErrMissingThreshold)
}

// IsMissingInput returns true for absent required facts.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingContract) ||
		errors.Is(err, ErrMissingTimesheet) ||
		errors.Is(err, ErrMissingCalendar)
}
