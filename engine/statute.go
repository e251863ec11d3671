package engine

import "time"

// =============================================================================
// STATUTE - Configurable statutory constants
// =============================================================================

// Statute carries the statutory thresholds the compliance engine applies.
// These are legislation, not engine logic: the 5/21/90/28/14-day thresholds,
// the 17:00 service cutoff and the blackout window all change by amendment,
// so they are configuration rather than literals. DefaultStatute returns the
// current Residential Tenancies Act values; factory.LoadStatute merges
// overrides from a config file.
type Statute struct {
	// StrikeThresholdWorkingDays is how many working days a due date must be
	// overdue before a strike may be issued against it.
	StrikeThresholdWorkingDays int

	// ArrearsTerminationDays is the calendar-day arrears age that makes the
	// tenancy tribunal-eligible immediately, with no strikes needed.
	ArrearsTerminationDays int

	// StrikeWindowDays is the rolling calendar-day window, ending at the
	// evaluation date, within which strikes remain active.
	StrikeWindowDays int

	// FilingWindowDays is how many calendar days after the third strike's
	// service date a tribunal application may be filed.
	FilingWindowDays int

	// RemedyWindowDays is how many calendar days after service a remedy
	// notice gives the tenant to pay.
	RemedyWindowDays int

	// ServiceCutoffHour: notices sent at or after this local hour take legal
	// effect the next working day.
	ServiceCutoffHour int

	// Blackout window (inclusive, wraps the year boundary): no working days
	// inside it.
	BlackoutStart MonthDay
	BlackoutEnd   MonthDay
}

// MonthDay is a recurring calendar day (no year).
type MonthDay struct {
	Month time.Month
	Day   int
}

// DefaultStatute returns the thresholds currently in force.
func DefaultStatute() Statute {
	return Statute{
		StrikeThresholdWorkingDays: 5,
		ArrearsTerminationDays:     21,
		StrikeWindowDays:           90,
		FilingWindowDays:           28,
		RemedyWindowDays:           14,
		ServiceCutoffHour:          17,
		BlackoutStart:              MonthDay{Month: time.December, Day: 25},
		BlackoutEnd:                MonthDay{Month: time.January, Day: 15},
	}
}

// InBlackout reports whether a date falls inside the blackout window.
// The window may wrap the year boundary (Dec 25 - Jan 15 does).
func (s Statute) InBlackout(date TimePoint) bool {
	d := MonthDay{Month: date.Month(), Day: date.DayOfMonth()}
	start, end := s.BlackoutStart, s.BlackoutEnd
	if start.beforeOrEqual(end) {
		return start.beforeOrEqual(d) && d.beforeOrEqual(end)
	}
	// Wrapping window: inside if on/after start or on/before end.
	return start.beforeOrEqual(d) || d.beforeOrEqual(end)
}

func (md MonthDay) beforeOrEqual(other MonthDay) bool {
	if md.Month != other.Month {
		return md.Month < other.Month
	}
	return md.Day <= other.Day
}
