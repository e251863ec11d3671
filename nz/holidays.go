/*
Package nz supplies New Zealand calendar data and statutory defaults for the
rules engine.

PURPOSE:
  The engine is jurisdiction-agnostic: it asks an injectable HolidayProvider
  which days are holidays and a Statute for its thresholds. This package is
  the built-in New Zealand answer: the national public-holiday tables for
  recent years, each region's single annual anniversary day, and the
  Residential Tenancies Act thresholds.

DATA NOTES:
  - Tables are year-keyed observed dates (Mondayised where the Act does).
  - New Year's Day, the day after, Christmas and Boxing Day sit inside the
    statutory blackout window anyway; they are listed for completeness so the
    tables stand alone if the blackout is reconfigured.
  - A year outside the table range falls back to the nearest known year via
    the engine's calendar, with a warning. Extend the tables here or load a
    file through factory.LoadHolidayTable.

SEE ALSO:
  - engine/workday.go: HolidayProvider interface and fallback behavior
  - factory/config.go: File-based holiday tables
*/
package nz

import (
	"sort"
	"time"

	"github.com/ronven594/rentally-sub000/engine"
)

// Regions with a distinct anniversary day in the built-in tables.
const (
	Auckland   engine.Region = "auckland"
	Wellington engine.Region = "wellington"
	Canterbury engine.Region = "canterbury"
	Otago      engine.Region = "otago"
)

// Statute returns the Residential Tenancies Act thresholds. These match the
// engine defaults; the alias exists so callers configure jurisdiction in one
// place.
func Statute() engine.Statute {
	return engine.DefaultStatute()
}

// Provider is the built-in year-keyed New Zealand holiday table.
type Provider struct{}

var _ engine.HolidayProvider = Provider{}

// NewCalendar returns a business-day calendar over the built-in tables with
// the RTA statute.
func NewCalendar() *engine.Calendar {
	return &engine.Calendar{Provider: Provider{}, Statute: Statute()}
}

func (Provider) HolidaysFor(year int) (engine.YearHolidays, bool) {
	table, ok := tables[year]
	return table, ok
}

func (Provider) Years() []int {
	years := make([]int, 0, len(tables))
	for y := range tables {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func d(year int, month time.Month, day int) engine.TimePoint {
	return engine.NewTimePoint(year, month, day)
}

// tables holds observed national holidays and regional anniversary days.
var tables = map[int]engine.YearHolidays{
	2024: {
		National: []engine.TimePoint{
			d(2024, time.January, 1),   // New Year's Day
			d(2024, time.January, 2),   // Day after New Year's Day
			d(2024, time.February, 6),  // Waitangi Day
			d(2024, time.March, 29),    // Good Friday
			d(2024, time.April, 1),     // Easter Monday
			d(2024, time.April, 25),    // Anzac Day
			d(2024, time.June, 3),      // King's Birthday
			d(2024, time.June, 28),     // Matariki
			d(2024, time.October, 28),  // Labour Day
			d(2024, time.December, 25), // Christmas Day
			d(2024, time.December, 26), // Boxing Day
		},
		Regional: map[engine.Region]engine.TimePoint{
			Auckland:   d(2024, time.January, 29),
			Wellington: d(2024, time.January, 22),
			Canterbury: d(2024, time.November, 15),
			Otago:      d(2024, time.March, 25),
		},
	},
	2025: {
		National: []engine.TimePoint{
			d(2025, time.January, 1),
			d(2025, time.January, 2),
			d(2025, time.February, 6),
			d(2025, time.April, 18), // Good Friday
			d(2025, time.April, 21), // Easter Monday
			d(2025, time.April, 25),
			d(2025, time.June, 2),     // King's Birthday
			d(2025, time.June, 20),    // Matariki
			d(2025, time.October, 27), // Labour Day
			d(2025, time.December, 25),
			d(2025, time.December, 26),
		},
		Regional: map[engine.Region]engine.TimePoint{
			Auckland:   d(2025, time.January, 27),
			Wellington: d(2025, time.January, 20),
			Canterbury: d(2025, time.November, 14),
			Otago:      d(2025, time.March, 24),
		},
	},
	2026: {
		National: []engine.TimePoint{
			d(2026, time.January, 1),
			d(2026, time.January, 2),
			d(2026, time.February, 6),
			d(2026, time.April, 3), // Good Friday
			d(2026, time.April, 6), // Easter Monday
			d(2026, time.April, 27), // Anzac Day observed (25th is a Saturday)
			d(2026, time.June, 1),     // King's Birthday
			d(2026, time.July, 10),    // Matariki
			d(2026, time.October, 26), // Labour Day
			d(2026, time.December, 25),
			d(2026, time.December, 28), // Boxing Day observed
		},
		Regional: map[engine.Region]engine.TimePoint{
			Auckland:   d(2026, time.January, 26),
			Wellington: d(2026, time.January, 19),
			Canterbury: d(2026, time.November, 13),
			Otago:      d(2026, time.March, 23),
		},
	},
	2027: {
		National: []engine.TimePoint{
			d(2027, time.January, 1),
			d(2027, time.January, 4), // Day after New Year's observed
			d(2027, time.February, 8), // Waitangi Day observed (6th is a Saturday)
			d(2027, time.March, 26), // Good Friday
			d(2027, time.March, 29), // Easter Monday
			d(2027, time.April, 26), // Anzac Day observed (25th is a Sunday)
			d(2027, time.June, 7),     // King's Birthday
			d(2027, time.June, 25),    // Matariki
			d(2027, time.October, 25), // Labour Day
			d(2027, time.December, 27), // Christmas Day observed
			d(2027, time.December, 28), // Boxing Day observed
		},
		Regional: map[engine.Region]engine.TimePoint{
			Auckland:   d(2027, time.February, 1),
			Wellington: d(2027, time.January, 25),
			Canterbury: d(2027, time.November, 12),
			Otago:      d(2027, time.March, 22),
		},
	},
}
