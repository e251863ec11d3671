/*
workday.go - Business-day calendar

PURPOSE:
  Classifies dates as working or non-working days and counts/advances over
  working days. A date is NOT a working day when it is a weekend, falls
  inside the statutory blackout window, or is a national holiday or the
  region's single annual anniversary holiday.

HOLIDAY DATA:
  Holiday data is year-keyed and comes from an injectable HolidayProvider,
  so tables can be swapped (or loaded from config) without code changes.
  A year the provider has no data for is a recoverable condition: the
  calendar substitutes the nearest known year's table (remapped onto the
  requested year) and reports a MissingHolidayDataWarning through the
  calendar's warn func. Computation always proceeds.

COUNTING CONVENTION:
  CountWorkingDays counts over (start, end]: the start date itself is
  excluded, the end date included. "Five working days overdue" means five
  working days have passed SINCE the due date.

SEE ALSO:
  - statute.go: Blackout window configuration
  - compliance.go: Working-days-overdue and official service dates
  - nz/holidays.go: The built-in New Zealand holiday tables
*/
package engine

// maxWorkdayIterations bounds AddWorkingDays walks. The blackout window plus
// a holiday cluster can swallow a few weeks, never hundreds of days per
// working day requested.
const maxWorkdayIterations = 5000

// =============================================================================
// HOLIDAY PROVIDER - Injectable year-keyed holiday data
// =============================================================================

// YearHolidays is one year's holiday table: national holidays plus each
// region's single annual anniversary day.
type YearHolidays struct {
	National []TimePoint
	Regional map[Region]TimePoint
}

// HolidayProvider supplies year-keyed holiday tables.
type HolidayProvider interface {
	// HolidaysFor returns the table for a year, ok=false when absent.
	HolidaysFor(year int) (YearHolidays, bool)

	// Years returns every year the provider has data for, ascending.
	Years() []int
}

// EmptyHolidayProvider has no holiday data: weekends and the blackout window
// still apply. Useful in tests and as a degraded default.
type EmptyHolidayProvider struct{}

func (EmptyHolidayProvider) HolidaysFor(year int) (YearHolidays, bool) { return YearHolidays{}, false }
func (EmptyHolidayProvider) Years() []int                             { return nil }

// =============================================================================
// CALENDAR - Working-day classification and arithmetic
// =============================================================================

// Calendar classifies working days for a statute and holiday table.
// It is stateless and safe for concurrent use; Warn (optional) receives
// missing-year fallback warnings.
type Calendar struct {
	Provider HolidayProvider
	Statute  Statute
	Warn     WarnFunc
}

// NewCalendar builds a calendar over the given provider with the default
// statute.
func NewCalendar(provider HolidayProvider) *Calendar {
	return &Calendar{Provider: provider, Statute: DefaultStatute()}
}

// IsWorkingDay reports whether the date is a working day for the region.
func (c *Calendar) IsWorkingDay(date TimePoint, region Region) bool {
	if date.IsWeekend() {
		return false
	}
	if c.Statute.InBlackout(date) {
		return false
	}
	table := c.tableFor(date.Year())
	for _, h := range table.National {
		if h.Equal(date) {
			return false
		}
	}
	if anniversary, ok := table.Regional[region]; ok && anniversary.Equal(date) {
		return false
	}
	return true
}

// CountWorkingDays counts working days over (start, end]. Zero when end is
// on or before start.
func (c *Calendar) CountWorkingDays(start, end TimePoint, region Region) int {
	count := 0
	for d := start.AddDays(1); d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWorkingDay(d, region) {
			count++
		}
	}
	return count
}

// AddWorkingDays walks forward from date until n working days have passed.
func (c *Calendar) AddWorkingDays(date TimePoint, n int, region Region) (TimePoint, error) {
	current := date
	remaining := n
	for i := 0; i < maxWorkdayIterations; i++ {
		if remaining <= 0 {
			return current, nil
		}
		current = current.AddDays(1)
		if c.IsWorkingDay(current, region) {
			remaining--
		}
	}
	return TimePoint{}, &CalendarConvergenceError{Op: "addWorkingDays", From: date, Iterations: maxWorkdayIterations}
}

// tableFor resolves the holiday table for a year, falling back to the
// nearest known year when the provider has no data. Fallback holidays are
// remapped onto the requested year by month and day (Feb 29 clamps to 28),
// and a warning is emitted.
func (c *Calendar) tableFor(year int) YearHolidays {
	if c.Provider == nil {
		return YearHolidays{}
	}
	if table, ok := c.Provider.HolidaysFor(year); ok {
		return table
	}
	fallback, ok := nearestYear(c.Provider.Years(), year)
	if !ok {
		return YearHolidays{}
	}
	if c.Warn != nil {
		c.Warn(MissingHolidayDataWarning{RequestedYear: year, FallbackYear: fallback})
	}
	table, _ := c.Provider.HolidaysFor(fallback)
	return remapYear(table, year)
}

// nearestYear picks the known year closest to the requested one, preferring
// the earlier year on ties.
func nearestYear(years []int, year int) (int, bool) {
	best, found := 0, false
	for _, y := range years {
		if !found || abs(y-year) < abs(best-year) {
			best, found = y, true
		}
	}
	return best, found
}

func remapYear(table YearHolidays, year int) YearHolidays {
	out := YearHolidays{Regional: make(map[Region]TimePoint, len(table.Regional))}
	for _, h := range table.National {
		out.National = append(out.National, remapDate(h, year))
	}
	for region, h := range table.Regional {
		out.Regional[region] = remapDate(h, year)
	}
	return out
}

func remapDate(h TimePoint, year int) TimePoint {
	day := h.DayOfMonth()
	if last := DaysInMonth(year, h.Month()); day > last {
		day = last
	}
	return NewTimePoint(year, h.Month(), day)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
