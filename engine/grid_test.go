package engine_test

import (
	"testing"
	"time"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func weeklySchedule(rent int64, anchor time.Weekday, start engine.TimePoint) engine.RentSchedule {
	return engine.RentSchedule{
		Frequency:     engine.Weekly,
		RentAmount:    decimal.NewFromInt(rent),
		DueAnchor:     engine.WeekdayAnchor(anchor),
		TrackingStart: start,
	}
}

func monthlySchedule(rent int64, day int, start engine.TimePoint) engine.RentSchedule {
	return engine.RentSchedule{
		Frequency:     engine.Monthly,
		RentAmount:    decimal.NewFromInt(rent),
		DueAnchor:     engine.DayOfMonthAnchor(day),
		TrackingStart: start,
	}
}

func date(year int, month time.Month, day int) engine.TimePoint {
	return engine.NewTimePoint(year, month, day)
}

// =============================================================================
// FIRST DUE DATE
// =============================================================================

func TestGrid_FirstDueDate_Weekly_NextMatchingWeekday(t *testing.T) {
	// GIVEN: Rent due Wednesdays, tracking starts Monday 2025-01-06
	// THEN: First due date is Wednesday 2025-01-08
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	assert.True(t, grid.GroundZero().Equal(date(2025, time.January, 8)))
}

func TestGrid_FirstDueDate_StartMatchingAnchor_IsCycleOne(t *testing.T) {
	// GIVEN: Tracking starts on the anchor weekday itself
	// THEN: The start date IS cycle 1
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 8)))
	require.NoError(t, err)

	assert.True(t, grid.GroundZero().Equal(date(2025, time.January, 8)))
}

func TestGrid_FirstDueDate_Monthly_ClampsShortMonth(t *testing.T) {
	// GIVEN: Rent due on day 31, tracking starts in February
	// THEN: The first due date clamps to February's last day
	grid, err := engine.NewGrid(monthlySchedule(2000, 31, date(2025, time.February, 10)))
	require.NoError(t, err)

	assert.True(t, grid.GroundZero().Equal(date(2025, time.February, 28)))
}

func TestGrid_FirstDueDate_Monthly_PastAnchorRollsToNextMonth(t *testing.T) {
	// GIVEN: Rent due on day 5, tracking starts on the 10th
	grid, err := engine.NewGrid(monthlySchedule(2000, 5, date(2025, time.March, 10)))
	require.NoError(t, err)

	assert.True(t, grid.GroundZero().Equal(date(2025, time.April, 5)))
}

// =============================================================================
// ADVANCE
// =============================================================================

func TestGrid_Advance_Monthly_ClampRecoversAfterShortMonth(t *testing.T) {
	// GIVEN: Monthly rent anchored on day 31
	// WHEN: Advancing Jan 31 -> Feb -> Mar
	// THEN: Feb clamps to 28, Mar recovers the full 31
	grid, err := engine.NewGrid(monthlySchedule(2000, 31, date(2025, time.January, 1)))
	require.NoError(t, err)

	feb := grid.Advance(date(2025, time.January, 31))
	assert.True(t, feb.Equal(date(2025, time.February, 28)), "got %s", feb)

	mar := grid.Advance(feb)
	assert.True(t, mar.Equal(date(2025, time.March, 31)), "got %s", mar)
}

func TestGrid_Advance_Monthly_LeapFebruary(t *testing.T) {
	grid, err := engine.NewGrid(monthlySchedule(2000, 31, date(2024, time.January, 1)))
	require.NoError(t, err)

	feb := grid.Advance(date(2024, time.January, 31))
	assert.True(t, feb.Equal(date(2024, time.February, 29)), "got %s", feb)
}

func TestGrid_Advance_Monthly_DecemberRollsToJanuary(t *testing.T) {
	grid, err := engine.NewGrid(monthlySchedule(2000, 15, date(2025, time.January, 1)))
	require.NoError(t, err)

	jan := grid.Advance(date(2025, time.December, 15))
	assert.True(t, jan.Equal(date(2026, time.January, 15)), "got %s", jan)
}

func TestGrid_Advance_Fortnightly_FourteenDays(t *testing.T) {
	s := weeklySchedule(800, time.Friday, date(2025, time.January, 1))
	s.Frequency = engine.Fortnightly
	grid, err := engine.NewGrid(s)
	require.NoError(t, err)

	next := grid.Advance(date(2025, time.January, 3))
	assert.True(t, next.Equal(date(2025, time.January, 17)))
}

// =============================================================================
// CYCLE COUNTING
// =============================================================================

func TestGrid_CountCycles_InclusiveRange(t *testing.T) {
	// GIVEN: Weekly Wednesdays from Jan 8
	// THEN: [Jan 8, Jan 16] contains Jan 8 and Jan 15 -> 2 cycles
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	n, err := grid.CountCycles(date(2025, time.January, 8), date(2025, time.January, 16))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGrid_CountCycles_EmptyRange(t *testing.T) {
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	n, err := grid.CountCycles(date(2025, time.January, 16), date(2025, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGrid_DueDateForCycle_RepeatedAdvance(t *testing.T) {
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	fifth, err := grid.DueDateForCycle(5)
	require.NoError(t, err)
	assert.True(t, fifth.Equal(date(2025, time.February, 5)))
}

func TestGrid_DueDateForCycle_ZeroRejected(t *testing.T) {
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	_, err = grid.DueDateForCycle(0)
	assert.ErrorIs(t, err, engine.ErrInvalidSchedule)
}

func TestGrid_BoundedWalk_ConvergenceError(t *testing.T) {
	// GIVEN: A cycle number past the iteration ceiling
	// THEN: CalendarConvergenceError, never an unbounded loop
	grid, err := engine.NewGrid(weeklySchedule(400, time.Wednesday, date(2025, time.January, 6)))
	require.NoError(t, err)

	_, err = grid.DueDateForCycle(1_000_000)
	assert.ErrorIs(t, err, engine.ErrCalendarConvergence)

	var conv *engine.CalendarConvergenceError
	assert.ErrorAs(t, err, &conv)
}

// =============================================================================
// SCHEDULE VALIDATION
// =============================================================================

func TestNewGrid_RejectsInvalidSchedules(t *testing.T) {
	start := date(2025, time.January, 6)

	tests := []struct {
		name     string
		schedule engine.RentSchedule
	}{
		{"zero rent", weeklySchedule(0, time.Wednesday, start)},
		{"negative rent", weeklySchedule(-400, time.Wednesday, start)},
		{"day of month out of range", monthlySchedule(2000, 32, start)},
		{"monthly without day anchor", engine.RentSchedule{
			Frequency:     engine.Monthly,
			RentAmount:    decimal.NewFromInt(2000),
			DueAnchor:     engine.WeekdayAnchor(time.Monday),
			TrackingStart: start,
		}},
		{"unknown frequency", engine.RentSchedule{
			Frequency:     engine.Frequency("daily"),
			RentAmount:    decimal.NewFromInt(400),
			DueAnchor:     engine.WeekdayAnchor(time.Monday),
			TrackingStart: start,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NewGrid(tt.schedule)
			assert.ErrorIs(t, err, engine.ErrInvalidSchedule)
		})
	}
}

func TestParseWeekday(t *testing.T) {
	wd, err := engine.ParseWeekday("wednesday")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, wd)

	_, err = engine.ParseWeekday("Wodinsday")
	assert.ErrorIs(t, err, engine.ErrInvalidSchedule)
}
