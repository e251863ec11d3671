/*
grid.go - Due-date grid generation

PURPOSE:
  Generates the due-date grid for a rent schedule. The grid is anchored at
  "ground zero": the first due date on or after the tracking start. All cycle
  math (elapsed cycles, paid-until dates, per-cycle strike eligibility) walks
  this grid.

MONTH-END CLAMPING:
  A monthly schedule due on day 31 falls due on the last day of shorter
  months: Jan 31 -> Feb 28 -> Mar 31. The clamp is against the ANCHOR day,
  not the previous due date, so the grid recovers the full day after a short
  month.

BOUNDED WALKS:
  Every grid loop has an iteration ceiling. Hitting it returns a
  CalendarConvergenceError rather than spinning; a century of weekly cycles
  stays well under the ceiling.

SEE ALSO:
  - balance.go: Uses the grid for cyclesElapsed and paid-until math
  - compliance.go: Uses the grid for per-due-date strike eligibility
*/
package engine

import "time"

// maxGridIterations bounds every grid walk. Weekly cycles over a hundred
// years sit near 5,200; anything past the ceiling is a defect.
const maxGridIterations = 6000

// Grid generates due dates for one validated schedule.
type Grid struct {
	schedule RentSchedule
}

// NewGrid validates the schedule and returns its due-date grid.
func NewGrid(s RentSchedule) (*Grid, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Grid{schedule: s}, nil
}

// FirstDueDate returns the earliest date on or after start that matches the
// anchor. If start itself matches, start IS cycle 1.
func (g *Grid) FirstDueDate(start TimePoint) TimePoint {
	switch g.schedule.Frequency {
	case Weekly, Fortnightly:
		ahead := (int(*g.schedule.DueAnchor.Weekday) - int(start.Weekday()) + 7) % 7
		return start.AddDays(ahead)
	default: // Monthly
		candidate := g.clampToMonth(start.Year(), start.Month())
		if candidate.AfterOrEqual(start) {
			return candidate
		}
		y, m := start.Year(), start.Month()+1
		return g.clampToMonth(y, m) // time.Month overflow normalizes in time.Date
	}
}

// GroundZero is the anchor due date for all cycle math: the first due date on
// or after the schedule's tracking start.
func (g *Grid) GroundZero() TimePoint {
	return g.FirstDueDate(g.schedule.TrackingStart)
}

// Advance returns the due date one cycle after the given due date.
func (g *Grid) Advance(date TimePoint) TimePoint {
	switch g.schedule.Frequency {
	case Weekly:
		return date.AddDays(7)
	case Fortnightly:
		return date.AddDays(14)
	default: // Monthly: next month, anchor day clamped to that month's length
		return g.clampToMonth(date.Year(), date.Month()+1)
	}
}

// CountCycles returns the number of due dates in [from, to]. Zero when the
// range is empty or 'to' precedes the first due date.
func (g *Grid) CountCycles(from, to TimePoint) (int, error) {
	if to.Before(from) {
		return 0, nil
	}
	count := 0
	current := g.FirstDueDate(from)
	for i := 0; i < maxGridIterations; i++ {
		if current.After(to) {
			return count, nil
		}
		count++
		current = g.Advance(current)
	}
	return 0, &CalendarConvergenceError{Op: "countCycles", From: from, Iterations: maxGridIterations}
}

// DueDateForCycle returns the nth due date (1-based) counted from ground zero.
func (g *Grid) DueDateForCycle(n int) (TimePoint, error) {
	if n < 1 {
		return TimePoint{}, &InvalidScheduleError{Field: "cycle", Reason: "must be >= 1"}
	}
	if n > maxGridIterations {
		return TimePoint{}, &CalendarConvergenceError{Op: "dueDateForCycle", From: g.GroundZero(), Iterations: maxGridIterations}
	}
	date := g.GroundZero()
	for i := 1; i < n; i++ {
		date = g.Advance(date)
	}
	return date, nil
}

// Cycles materializes the due cycles from ground zero through 'to'.
// Used by reporting; the calculators work cycle-by-cycle instead.
func (g *Grid) Cycles(to TimePoint) ([]DueCycle, error) {
	var cycles []DueCycle
	current := g.GroundZero()
	for i := 0; i < maxGridIterations; i++ {
		if current.After(to) {
			return cycles, nil
		}
		cycles = append(cycles, DueCycle{CycleNumber: len(cycles) + 1, DueDate: current})
		current = g.Advance(current)
	}
	return nil, &CalendarConvergenceError{Op: "cycles", From: g.GroundZero(), Iterations: maxGridIterations}
}

// clampToMonth places the monthly anchor day inside the given month, clamped
// to the month's last day. Out-of-range months (e.g. December+1) normalize
// the way time.Date does.
func (g *Grid) clampToMonth(year int, month time.Month) TimePoint {
	day := *g.schedule.DueAnchor.DayOfMonth
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewTimePoint(year, month, day)
}
