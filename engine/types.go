/*
Package engine is the deterministic rent-arrears and compliance core.

PURPOSE:
  This package contains the calendar/financial rules engine for a residential
  tenancy: a due-date grid, a business-day calendar, a pure balance
  calculator, a strike/tribunal-eligibility compliance engine, and a
  settings-change reconciler.

KEY CONCEPTS IN THIS FILE (types.go):
  - RentSchedule: The tenancy's payment contract (frequency, amount, anchor)
  - Payment: An immutable, append-only payment record
  - BalanceSnapshot: Derived financial state as of a date
  - StrikeNotice: An append-only legal notice record keyed to one due date
  - ComplianceStatus: Derived legal standing as of a date

DESIGN PRINCIPLES:
  1. Determinism: identical inputs always produce identical outputs; the
     engine never reads a clock, every call takes an explicit as-of date
  2. Precision: money is decimal.Decimal, rounded to the cent at every step
  3. Derivation: every output type is a pure function of its inputs; nothing
     derived is ever stored back as ground truth
  4. Immutability: payments and notices are append-only audit logs, only
     windowed and filtered at read time

SEE ALSO:
  - grid.go: Due-date generation with month-end clamping
  - workday.go: Business-day calendar (weekends, holidays, blackout)
  - balance.go: The pure balance calculator
  - compliance.go: Strike eligibility, rolling windows, tribunal paths
  - reconcile.go: Mid-tenancy settings-change reconciliation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE - The tenancy's payment contract
// =============================================================================

// Frequency is how often rent falls due.
type Frequency string

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
)

// DueAnchor pins the due-date grid: a weekday for weekly/fortnightly
// schedules, a day of month (clamped in shorter months) for monthly ones.
// Exactly one of the two fields is set.
type DueAnchor struct {
	Weekday    *time.Weekday
	DayOfMonth *int
}

func WeekdayAnchor(wd time.Weekday) DueAnchor {
	return DueAnchor{Weekday: &wd}
}

func DayOfMonthAnchor(day int) DueAnchor {
	return DueAnchor{DayOfMonth: &day}
}

// RentSchedule describes one tenancy's rent terms. The engine never mutates
// a schedule; mid-tenancy edits go through Reconcile, which returns a new one.
type RentSchedule struct {
	Frequency      Frequency
	RentAmount     decimal.Decimal
	DueAnchor      DueAnchor
	TrackingStart  TimePoint
	OpeningArrears decimal.Decimal
}

// Validate rejects malformed schedules. A schedule that fails validation must
// never reach the calculators; nothing is defaulted silently.
func (s RentSchedule) Validate() error {
	if !s.RentAmount.IsPositive() {
		return &InvalidScheduleError{Field: "rentAmount", Reason: "must be positive"}
	}
	if s.OpeningArrears.IsNegative() {
		return &InvalidScheduleError{Field: "openingArrears", Reason: "must not be negative"}
	}
	if s.TrackingStart.IsZero() {
		return &InvalidScheduleError{Field: "trackingStart", Reason: "required"}
	}
	switch s.Frequency {
	case Weekly, Fortnightly:
		if s.DueAnchor.Weekday == nil {
			return &InvalidScheduleError{Field: "dueAnchor", Reason: "weekday required for weekly/fortnightly"}
		}
	case Monthly:
		if s.DueAnchor.DayOfMonth == nil {
			return &InvalidScheduleError{Field: "dueAnchor", Reason: "day of month required for monthly"}
		}
		if d := *s.DueAnchor.DayOfMonth; d < 1 || d > 31 {
			return &InvalidScheduleError{Field: "dueAnchor", Reason: "day of month must be 1-31"}
		}
	default:
		return &InvalidScheduleError{Field: "frequency", Reason: "unrecognized frequency"}
	}
	return nil
}

// =============================================================================
// PAYMENT - Append-only payment record
// =============================================================================

type Payment struct {
	ID     string
	Amount decimal.Decimal
	Date   TimePoint
}

// =============================================================================
// DUE CYCLE - One rent period (derived, never stored)
// =============================================================================

type DueCycle struct {
	CycleNumber int // 1-based
	DueDate     TimePoint
}

// =============================================================================
// BALANCE SNAPSHOT - Derived financial state as of a date
// =============================================================================

// BalanceSnapshot is fully determined by (schedule, payments, asOf).
// There is no hidden state; recomputing with the same inputs yields a
// byte-identical snapshot.
type BalanceSnapshot struct {
	AsOf TimePoint

	TotalRentDue   decimal.Decimal
	TotalPayments  decimal.Decimal
	OpeningArrears decimal.Decimal
	CurrentBalance decimal.Decimal

	CyclesElapsed    int
	CyclesPaidInFull int
	CyclesUnpaid     int

	FirstDueDate TimePoint
	NextDueDate  TimePoint

	// PaidUntil is nil until at least one cycle is covered in full. It is
	// capped at AsOf; surplus beyond AsOf is reported as CreditAmount, not
	// as a future paid-until date.
	PaidUntil *TimePoint

	// OldestUnpaidDueDate is nil when the tenancy is not overdue.
	OldestUnpaidDueDate *TimePoint

	DaysOverdue  int
	IsOverdue    bool
	HasCredit    bool
	CreditAmount decimal.Decimal
}

// =============================================================================
// STRIKE NOTICE - Append-only legal notice record
// =============================================================================

type NoticeType string

const (
	NoticeStrike NoticeType = "strike"
	NoticeRemedy NoticeType = "remedy"
)

// StrikeNotice records one served notice against one specific due date.
// The log is append-only; the engine only windows and filters it.
// The calling layer must guarantee at most one strike per due date.
type StrikeNotice struct {
	NoticeID            string
	Type                NoticeType
	OfficialServiceDate TimePoint
	DueDateFor          TimePoint
	AmountOwed          decimal.Decimal
}

// =============================================================================
// COMPLIANCE STATUS - Derived legal standing as of a date
// =============================================================================

type Status string

const (
	StatusCompliant        Status = "compliant"
	StatusActionRequired   Status = "action_required"
	StatusTribunalEligible Status = "tribunal_eligible"
)

type TerminationBasis string

const (
	BasisArrears21Days TerminationBasis = "arrears_21_days"
	BasisThreeStrikes  TerminationBasis = "three_strikes"
)

// ComplianceStatus is recomputed fresh on every evaluation; the only durable
// state behind it is the strike-notice log.
type ComplianceStatus struct {
	AsOf   TimePoint
	Region Region

	Status             Status
	DaysInArrears      int
	WorkingDaysOverdue int

	ActiveStrikeCount int
	NextStrikeNumber  *int
	TerminationBasis  *TerminationBasis

	// EligibleDueDates lists unpaid due dates that are at least the statutory
	// number of working days overdue and have no strike recorded against them.
	EligibleDueDates []TimePoint
	CanIssueStrike   bool

	Snapshot BalanceSnapshot
}

// Region identifies which regional anniversary holiday applies.
type Region string
