/*
errors.go - Centralized error types for the rules engine

PURPOSE:
  All engine error types in one place. Callers decide what to do with them:
  an invalid schedule blocks the action, a convergence error is a logic
  defect to surface, missing holiday data is recovered with a warning.

ERROR CATEGORIES:
  1. Schedule errors - malformed input, rejected synchronously
  2. Calendar errors - iteration ceilings hit (logic defects, never loops)
  3. Holiday warnings - recoverable degraded-data conditions

USAGE:
  if errors.Is(err, engine.ErrInvalidSchedule) { ... }

  var conv *engine.CalendarConvergenceError
  if errors.As(err, &conv) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSchedule is returned for non-positive rent, out-of-range
	// day-of-month, unrecognized weekday or frequency.
	ErrInvalidSchedule = errors.New("invalid rent schedule")

	// ErrCalendarConvergence is returned when a bounded calendar walk hits
	// its iteration ceiling. This indicates a defect, not bad user input.
	ErrCalendarConvergence = errors.New("calendar search did not converge")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidScheduleError reports which schedule field failed validation.
type InvalidScheduleError struct {
	Field  string
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid rent schedule: %s %s", e.Field, e.Reason)
}

func (e *InvalidScheduleError) Unwrap() error { return ErrInvalidSchedule }

// CalendarConvergenceError reports where a bounded walk gave up.
type CalendarConvergenceError struct {
	Op         string // e.g. "countCycles", "addWorkingDays"
	From       TimePoint
	Iterations int
}

func (e *CalendarConvergenceError) Error() string {
	return fmt.Sprintf("calendar search did not converge: %s from %s after %d iterations",
		e.Op, e.From, e.Iterations)
}

func (e *CalendarConvergenceError) Unwrap() error { return ErrCalendarConvergence }

// =============================================================================
// WARNINGS - Recoverable conditions
// =============================================================================

// MissingHolidayDataWarning is emitted when the holiday provider has no table
// for a requested year and a nearest known year was substituted. Computation
// proceeds with the fallback data; this is degraded, not fatal.
type MissingHolidayDataWarning struct {
	RequestedYear int
	FallbackYear  int
}

func (w MissingHolidayDataWarning) String() string {
	return fmt.Sprintf("no holiday data for %d, using nearest known year %d",
		w.RequestedYear, w.FallbackYear)
}

// WarnFunc receives recoverable warnings. The zero value (nil) drops them.
type WarnFunc func(MissingHolidayDataWarning)
