/*
compliance.go - Strike eligibility and tribunal standing

PURPOSE:
  Derives a tenancy's legal standing from the balance snapshot and the
  strike-notice log. Implements the statutory "3 separate occasions" rule:
  strikes key on specific due dates, never on elapsed time alone.

PER-DUE-DATE ELIGIBILITY:
  Every distinct unpaid due date carries its OWN working-days-overdue count.
  A due date becomes strike-eligible once that count reaches the statutory
  threshold AND no strike was ever recorded against that due date. Two
  strikes can never target the same missed cycle. (This model superseded an
  older cumulative working-day threshold; only the per-due-date model exists
  here.)

ROLLING WINDOW:
  Active strikes are those served within the rolling window ending at the
  evaluation date. The window is evaluated against "now", not against the
  first strike: it grows as new strikes land and shrinks as old ones age
  out. If every strike expires, the next one restarts the count at 1.

STATUS PRIORITY (highest wins):
  a. TribunalEligible - arrears at least 21 calendar days old (no strikes needed)
  b. TribunalEligible - 3 active strikes, filing window after the 3rd still open
  c. ActionRequired   - a strike can be issued right now
  d. Compliant

OFFICIAL SERVICE DATE:
  A notice sent before the 17:00 cutoff on a working day is served that day;
  otherwise it is served the next working day. Every window and deadline is
  measured from the OSD, so it is computed before any of them.

SEE ALSO:
  - balance.go: The snapshot this engine consumes
  - workday.go: Working-day counting
  - statute.go: All thresholds used here
*/
package engine

import (
	"sort"

	"github.com/samber/lo"
)

// ComplianceEngine evaluates legal standing over a business-day calendar.
// Stateless; the strike-notice log passed to Evaluate is the only durable
// state anywhere in the compliance model.
type ComplianceEngine struct {
	Calendar *Calendar
}

func NewComplianceEngine(calendar *Calendar) *ComplianceEngine {
	return &ComplianceEngine{Calendar: calendar}
}

// Evaluate recomputes compliance standing from scratch. Nothing here is
// cached; identical inputs yield an identical status.
func (e *ComplianceEngine) Evaluate(
	schedule RentSchedule,
	payments []Payment,
	notices []StrikeNotice,
	region Region,
	asOf TimePoint,
) (ComplianceStatus, error) {
	statute := e.Calendar.Statute

	snapshot, err := Calculate(schedule, payments, asOf)
	if err != nil {
		return ComplianceStatus{}, err
	}

	status := ComplianceStatus{
		AsOf:          asOf,
		Region:        region,
		DaysInArrears: snapshot.DaysOverdue,
		Snapshot:      snapshot,
	}

	if snapshot.IsOverdue && snapshot.OldestUnpaidDueDate != nil {
		status.WorkingDaysOverdue = e.Calendar.CountWorkingDays(*snapshot.OldestUnpaidDueDate, asOf, region)
	}

	strikes := lo.Filter(notices, func(n StrikeNotice, _ int) bool {
		return n.Type == NoticeStrike
	})

	status.EligibleDueDates, err = e.eligibleDueDates(schedule, snapshot, strikes, region, asOf)
	if err != nil {
		return ComplianceStatus{}, err
	}

	active := activeStrikes(strikes, asOf, statute.StrikeWindowDays)
	status.ActiveStrikeCount = len(active)
	status.CanIssueStrike = len(status.EligibleDueDates) > 0 && len(active) < 3
	if status.CanIssueStrike {
		next := len(active) + 1
		status.NextStrikeNumber = &next
	}

	status.Status, status.TerminationBasis = e.resolveStatus(status, active, asOf)
	return status, nil
}

// eligibleDueDates walks every unpaid due date from ground zero through asOf
// and keeps those at least the statutory number of working days overdue with
// no strike already recorded against them. Payments settle cycles
// oldest-first, so the unpaid cycles are exactly those past CyclesPaidInFull.
func (e *ComplianceEngine) eligibleDueDates(
	schedule RentSchedule,
	snapshot BalanceSnapshot,
	strikes []StrikeNotice,
	region Region,
	asOf TimePoint,
) ([]TimePoint, error) {
	if !snapshot.IsOverdue {
		return nil, nil
	}

	grid, err := NewGrid(schedule)
	if err != nil {
		return nil, err
	}

	var eligible []TimePoint
	for n := snapshot.CyclesPaidInFull + 1; n <= snapshot.CyclesElapsed; n++ {
		due, err := grid.DueDateForCycle(n)
		if err != nil {
			return nil, err
		}
		overdueBy := e.Calendar.CountWorkingDays(due, asOf, region)
		if overdueBy < e.Calendar.Statute.StrikeThresholdWorkingDays {
			continue
		}
		struck := lo.SomeBy(strikes, func(s StrikeNotice) bool {
			return s.DueDateFor.Equal(due)
		})
		if !struck {
			eligible = append(eligible, due)
		}
	}
	return eligible, nil
}

// activeStrikes returns strikes served within the rolling window ending at
// asOf, oldest first. A strike served exactly windowDays before asOf is
// still active; one day older is not.
func activeStrikes(strikes []StrikeNotice, asOf TimePoint, windowDays int) []StrikeNotice {
	active := lo.Filter(strikes, func(s StrikeNotice, _ int) bool {
		age := DaysBetween(s.OfficialServiceDate, asOf)
		return age >= 0 && age <= windowDays
	})
	sort.Slice(active, func(i, j int) bool {
		return active[i].OfficialServiceDate.Before(active[j].OfficialServiceDate)
	})
	return active
}

func (e *ComplianceEngine) resolveStatus(
	status ComplianceStatus,
	active []StrikeNotice,
	asOf TimePoint,
) (Status, *TerminationBasis) {
	statute := e.Calendar.Statute

	if status.DaysInArrears >= statute.ArrearsTerminationDays {
		basis := BasisArrears21Days
		return StatusTribunalEligible, &basis
	}

	if len(active) >= 3 {
		third := active[2]
		deadline := third.OfficialServiceDate.AddDays(statute.FilingWindowDays)
		if asOf.BeforeOrEqual(deadline) {
			basis := BasisThreeStrikes
			return StatusTribunalEligible, &basis
		}
	}

	if status.CanIssueStrike {
		return StatusActionRequired, nil
	}
	return StatusCompliant, nil
}

// =============================================================================
// OFFICIAL SERVICE DATE
// =============================================================================

// ServiceTimeline is the legally-effective delivery date of a notice plus the
// deadlines measured from it.
type ServiceTimeline struct {
	OfficialServiceDate TimePoint
	RemedyExpiry        TimePoint
	TribunalDeadline    TimePoint
}

// OfficialServiceDate derives when a notice takes legal effect from its send
// timestamp: same day when sent before the cutoff on a working day, otherwise
// the next working day. Deadlines are calendar days from the OSD.
func (e *ComplianceEngine) OfficialServiceDate(sentAt TimePoint, region Region) (ServiceTimeline, error) {
	statute := e.Calendar.Statute
	date := sentAt.Day()

	osd := date
	if !e.Calendar.IsWorkingDay(date, region) || sentAt.Hour() >= statute.ServiceCutoffHour {
		next, err := e.Calendar.AddWorkingDays(date, 1, region)
		if err != nil {
			return ServiceTimeline{}, err
		}
		osd = next
	}

	return ServiceTimeline{
		OfficialServiceDate: osd,
		RemedyExpiry:        osd.AddDays(statute.RemedyWindowDays),
		TribunalDeadline:    osd.AddDays(statute.FilingWindowDays),
	}, nil
}
