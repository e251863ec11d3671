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

func testComplianceEngine() *engine.ComplianceEngine {
	return engine.NewComplianceEngine(testCalendar())
}

// oneUnpaidCycle is a weekly tenancy with exactly one due date elapsed:
// $450 due Thursdays, tracking from 2026-01-12, due date 2026-01-15.
func oneUnpaidCycle() engine.RentSchedule {
	return weeklySchedule(450, time.Thursday, date(2026, time.January, 12))
}

func strike(id string, served, dueFor engine.TimePoint) engine.StrikeNotice {
	return engine.StrikeNotice{
		NoticeID:            id,
		Type:                engine.NoticeStrike,
		OfficialServiceDate: served,
		DueDateFor:          dueFor,
		AmountOwed:          decimal.NewFromInt(450),
	}
}

// =============================================================================
// WORKING DAYS OVERDUE AND STRIKE ELIGIBILITY
// =============================================================================

func TestEvaluate_FiveWorkingDaysOverdue_ActionRequired(t *testing.T) {
	// GIVEN: One unpaid due date 2026-01-15 (Thu), region Auckland
	// WHEN: Evaluated as of 2026-01-22
	// THEN: Five working days overdue, strike available, ActionRequired
	eng := testComplianceEngine()

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, nil, "auckland", date(2026, time.January, 22))
	require.NoError(t, err)

	assert.Equal(t, 5, status.WorkingDaysOverdue)
	assert.Equal(t, engine.StatusActionRequired, status.Status)
	assert.True(t, status.CanIssueStrike)
	require.Len(t, status.EligibleDueDates, 1)
	assert.True(t, status.EligibleDueDates[0].Equal(date(2026, time.January, 15)))
	require.NotNil(t, status.NextStrikeNumber)
	assert.Equal(t, 1, *status.NextStrikeNumber)
	assert.Nil(t, status.TerminationBasis)
}

func TestEvaluate_FourWorkingDaysOverdue_Compliant(t *testing.T) {
	// One working day short of the threshold: no strike yet.
	eng := testComplianceEngine()

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, nil, "auckland", date(2026, time.January, 21))
	require.NoError(t, err)

	assert.Equal(t, 4, status.WorkingDaysOverdue)
	assert.Equal(t, engine.StatusCompliant, status.Status)
	assert.False(t, status.CanIssueStrike)
	assert.Empty(t, status.EligibleDueDates)
}

func TestEvaluate_StruckDueDate_NeverEligibleTwice(t *testing.T) {
	// GIVEN: A strike already recorded for the only overdue due date
	// THEN: That due date is no longer eligible, even months later
	eng := testComplianceEngine()
	due := date(2026, time.January, 15)
	notices := []engine.StrikeNotice{strike("n1", date(2026, time.January, 23), due)}

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, notices, "auckland", date(2026, time.February, 20))
	require.NoError(t, err)

	assert.Empty(t, status.EligibleDueDates, "strikes key on due date, not elapsed time")
	assert.False(t, status.CanIssueStrike)
}

func TestEvaluate_EachMissedCycleIsItsOwnOccasion(t *testing.T) {
	// GIVEN: Three unpaid weekly due dates, the first already struck
	// THEN: Only the later two that cleared the threshold are eligible
	eng := testComplianceEngine()
	s := oneUnpaidCycle()
	asOf := date(2026, time.February, 12)
	// Due dates elapsed by asOf: Jan 15, 22, 29, Feb 5, 12.
	notices := []engine.StrikeNotice{
		strike("n1", date(2026, time.January, 23), date(2026, time.January, 15)),
	}

	status, err := eng.Evaluate(s, nil, notices, "auckland", asOf)
	require.NoError(t, err)

	// Feb 5 is only 4 working days overdue by Feb 12 (Waitangi Day and a
	// weekend intervene) and Feb 12 is 0, so neither is eligible yet.
	want := []engine.TimePoint{
		date(2026, time.January, 22),
		date(2026, time.January, 29),
	}
	require.Len(t, status.EligibleDueDates, len(want))
	for i, w := range want {
		assert.True(t, status.EligibleDueDates[i].Equal(w), "eligible[%d] = %s", i, status.EligibleDueDates[i])
	}
}

// =============================================================================
// ROLLING WINDOW
// =============================================================================

func TestEvaluate_WindowBoundary_Exactly90DaysIsActive(t *testing.T) {
	// GIVEN: A strike served exactly 90 days before asOf, another at 91
	eng := testComplianceEngine()
	asOf := date(2026, time.June, 15)

	at90 := asOf.AddDays(-90)
	at91 := asOf.AddDays(-91)
	notices := []engine.StrikeNotice{
		strike("n1", at90, date(2026, time.January, 15)),
		strike("n2", at91, date(2026, time.January, 22)),
	}

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, notices, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, 1, status.ActiveStrikeCount, "90 days in, 91 days out")
}

func TestEvaluate_ExpiredStrikes_CountRestarts(t *testing.T) {
	// GIVEN: Three old strikes all aged out of the window
	// THEN: The next strike would be number 1, not blocked
	eng := testComplianceEngine()
	s := oneUnpaidCycle()
	asOf := date(2026, time.September, 10)
	old := []engine.StrikeNotice{
		strike("n1", date(2026, time.January, 23), date(2026, time.January, 15)),
		strike("n2", date(2026, time.February, 2), date(2026, time.January, 22)),
		strike("n3", date(2026, time.February, 9), date(2026, time.January, 29)),
	}

	status, err := eng.Evaluate(s, nil, old, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, 0, status.ActiveStrikeCount)
	assert.True(t, status.CanIssueStrike)
	require.NotNil(t, status.NextStrikeNumber)
	assert.Equal(t, 1, *status.NextStrikeNumber)
}

// =============================================================================
// STATUS PRIORITY
// =============================================================================

func TestEvaluate_ThreeActiveStrikes_TribunalEligible(t *testing.T) {
	// GIVEN: Three strikes against three distinct due dates, all served
	//        within 90 days of asOf, arrears still younger than 21 days
	// THEN: TribunalEligible on the three-strikes basis
	eng := testComplianceEngine()
	asOf := date(2026, time.January, 22)
	notices := []engine.StrikeNotice{
		strike("n1", date(2025, time.November, 20), date(2025, time.October, 16)),
		strike("n2", date(2025, time.December, 10), date(2025, time.November, 13)),
		strike("n3", date(2026, time.January, 16), date(2025, time.December, 11)),
	}

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, notices, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusTribunalEligible, status.Status)
	require.NotNil(t, status.TerminationBasis)
	assert.Equal(t, engine.BasisThreeStrikes, *status.TerminationBasis)
	assert.Equal(t, 3, status.ActiveStrikeCount)
	assert.False(t, status.CanIssueStrike, "no fourth strike while three are active")
}

func TestEvaluate_FilingWindowElapsed_NoLongerTribunalEligible(t *testing.T) {
	// GIVEN: Three strikes still inside the 90-day window, but 38 days since
	//        the third was served, and the tenant has since caught up to the
	//        current cycle (arrears age 0)
	// THEN: The filing window has lapsed; the strikes alone do not keep the
	//       tenancy tribunal-eligible
	eng := testComplianceEngine()
	asOf := date(2026, time.April, 9)
	// 13 cycles elapsed by Apr 9; 12 paid in full leaves only Apr 9 unpaid.
	payments := []engine.Payment{pay("p1", 5400, date(2026, time.April, 8))}
	notices := []engine.StrikeNotice{
		strike("n1", date(2026, time.January, 23), date(2026, time.January, 15)),
		strike("n2", date(2026, time.February, 2), date(2026, time.January, 22)),
		strike("n3", date(2026, time.March, 2), date(2026, time.January, 29)),
	}

	status, err := eng.Evaluate(oneUnpaidCycle(), payments, notices, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, 3, status.ActiveStrikeCount)
	assert.Equal(t, engine.StatusCompliant, status.Status)
	assert.Nil(t, status.TerminationBasis)
}

func TestEvaluate_TwentyOneDaysArrears_ImmediateTribunalEligible(t *testing.T) {
	// GIVEN: Arrears 21 calendar days old and no strikes at all
	eng := testComplianceEngine()
	asOf := date(2026, time.February, 5) // Jan 15 + 21 days

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, nil, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, 21, status.DaysInArrears)
	assert.Equal(t, engine.StatusTribunalEligible, status.Status)
	require.NotNil(t, status.TerminationBasis)
	assert.Equal(t, engine.BasisArrears21Days, *status.TerminationBasis)
}

func TestEvaluate_ArrearsBasisOutranksThreeStrikes(t *testing.T) {
	// Both tribunal paths apply; the arrears basis wins by priority.
	eng := testComplianceEngine()
	asOf := date(2026, time.February, 10)
	notices := []engine.StrikeNotice{
		strike("n1", date(2026, time.January, 23), date(2026, time.January, 15)),
		strike("n2", date(2026, time.February, 2), date(2026, time.January, 22)),
		strike("n3", date(2026, time.February, 9), date(2026, time.January, 29)),
	}

	status, err := eng.Evaluate(oneUnpaidCycle(), nil, notices, "auckland", asOf)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusTribunalEligible, status.Status)
	require.NotNil(t, status.TerminationBasis)
	assert.Equal(t, engine.BasisArrears21Days, *status.TerminationBasis)
}

func TestEvaluate_PaidUp_Compliant(t *testing.T) {
	eng := testComplianceEngine()
	payments := []engine.Payment{pay("p1", 900, date(2026, time.January, 14))}

	status, err := eng.Evaluate(oneUnpaidCycle(), payments, nil, "auckland", date(2026, time.January, 22))
	require.NoError(t, err)

	assert.Equal(t, engine.StatusCompliant, status.Status)
	assert.Equal(t, 0, status.WorkingDaysOverdue)
	assert.Equal(t, 0, status.DaysInArrears)
}

// =============================================================================
// OFFICIAL SERVICE DATE
// =============================================================================

func TestOfficialServiceDate_BeforeCutoffOnWorkingDay_SameDay(t *testing.T) {
	eng := testComplianceEngine()
	sent := engine.NewTimePointAt(2026, time.February, 9, 16, 59) // Mon 16:59

	tl, err := eng.OfficialServiceDate(sent, "auckland")
	require.NoError(t, err)

	assert.True(t, tl.OfficialServiceDate.Equal(date(2026, time.February, 9)))
	assert.True(t, tl.RemedyExpiry.Equal(date(2026, time.February, 23)), "OSD+14")
	assert.True(t, tl.TribunalDeadline.Equal(date(2026, time.March, 9)), "OSD+28")
}

func TestOfficialServiceDate_AtCutoff_NextWorkingDay(t *testing.T) {
	eng := testComplianceEngine()
	sent := engine.NewTimePointAt(2026, time.February, 9, 17, 0) // Mon 17:00 exactly

	tl, err := eng.OfficialServiceDate(sent, "auckland")
	require.NoError(t, err)

	assert.True(t, tl.OfficialServiceDate.Equal(date(2026, time.February, 10)))
}

func TestOfficialServiceDate_NonWorkingDay_NextWorkingDay(t *testing.T) {
	eng := testComplianceEngine()

	// Saturday morning send: served Monday.
	sat := engine.NewTimePointAt(2026, time.February, 7, 9, 0)
	tl, err := eng.OfficialServiceDate(sat, "auckland")
	require.NoError(t, err)
	assert.True(t, tl.OfficialServiceDate.Equal(date(2026, time.February, 9)))

	// Thursday evening before Waitangi Day (Fri): served the following Monday.
	thu := engine.NewTimePointAt(2026, time.February, 5, 18, 30)
	tl, err = eng.OfficialServiceDate(thu, "auckland")
	require.NoError(t, err)
	assert.True(t, tl.OfficialServiceDate.Equal(date(2026, time.February, 9)))
}
