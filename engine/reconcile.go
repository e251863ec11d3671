/*
reconcile.go - Mid-tenancy settings-change reconciliation

PURPOSE:
  When rent amount, frequency or due anchor change mid-tenancy, the old
  due-date grid no longer describes reality. Reconcile closes the old grid
  and opens a fresh one: tracking restarts just after the change date and
  the pre-change debt is carried forward as opening arrears.

POLICY (cash-preserving):
  Exactly one reconciliation policy exists here. The pre-change CASH balance
  is the invariant: whatever dollars were owed before the change are owed
  after it, folded into the new schedule's opening arrears. Unpaid-cycle
  counts are re-derived from those already-rounded dollars under the new
  rent, never carried across grids. (The alternative - preserving the
  unpaid-cycle COUNT and repricing the debt at the new rent - changes what
  the tenant owes and was rejected; see DESIGN.md.)

IDEMPOTENCE:
  apply -> recompute -> unchanged. Recomputing the balance at the change
  date under the new schedule (with no payments) reproduces the pre-change
  balance to the cent. The contract is verified inside the call; a violation
  is a defect, not a degraded result.

CREDIT:
  Opening arrears cannot be negative. A pre-change credit is surfaced as
  CarriedCredit for the caller to record against the new schedule (e.g. as
  the first payment); it is never silently dropped.
*/
package engine

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TrackedPayments windows a payment log to a schedule's tracking period.
// Payments dated before TrackingStart are already netted into OpeningArrears
// when Reconcile folds a pre-change balance forward; passing them to
// Calculate again would subtract them a second time. Callers window the
// stored log with this before every balance or compliance computation.
func TrackedPayments(schedule RentSchedule, payments []Payment) []Payment {
	return lo.Filter(payments, func(p Payment, _ int) bool {
		return p.Date.AfterOrEqual(schedule.TrackingStart)
	})
}

// ScheduleChange is a partial overlay on a schedule. Nil fields keep the old
// value.
type ScheduleChange struct {
	RentAmount *decimal.Decimal
	Frequency  *Frequency
	DueAnchor  *DueAnchor
}

// ReconcileResult is the outcome of a settings change.
type ReconcileResult struct {
	NewSchedule RentSchedule

	// PreChangeBalance is the balance under the old schedule at the change
	// date, before the new grid takes over.
	PreChangeBalance decimal.Decimal

	// CarriedCredit is a non-negative surplus the caller must re-apply to
	// the new schedule. Zero unless the tenancy was in credit.
	CarriedCredit decimal.Decimal
}

// Reconcile produces the post-change schedule. The new grid starts the day
// after effectiveDate, so recomputing as of effectiveDate yields zero elapsed
// cycles and a balance equal to the carried opening arrears.
func Reconcile(
	schedule RentSchedule,
	payments []Payment,
	change ScheduleChange,
	effectiveDate TimePoint,
) (ReconcileResult, error) {
	pre, err := Calculate(schedule, payments, effectiveDate)
	if err != nil {
		return ReconcileResult{}, err
	}

	next := schedule
	if change.RentAmount != nil {
		next.RentAmount = RoundCents(*change.RentAmount)
	}
	if change.Frequency != nil {
		next.Frequency = *change.Frequency
	}
	if change.DueAnchor != nil {
		next.DueAnchor = *change.DueAnchor
	}

	next.TrackingStart = effectiveDate.AddDays(1)
	next.OpeningArrears = pre.CurrentBalance
	carried := decimal.Zero
	if next.OpeningArrears.IsNegative() {
		carried = RoundCents(next.OpeningArrears.Neg())
		next.OpeningArrears = decimal.Zero
	}

	if err := next.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	// Idempotence contract: apply, recompute, unchanged (to the cent).
	// A pre-change credit reconciles to zero arrears plus CarriedCredit.
	post, err := Calculate(next, nil, effectiveDate)
	if err != nil {
		return ReconcileResult{}, err
	}
	want := pre.CurrentBalance
	if want.IsNegative() {
		want = decimal.Zero
	}
	if !withinCent(post.CurrentBalance, want) {
		return ReconcileResult{}, fmt.Errorf("reconciliation drift: recomputed %s, want %s",
			post.CurrentBalance, want)
	}

	return ReconcileResult{
		NewSchedule:      next,
		PreChangeBalance: pre.CurrentBalance,
		CarriedCredit:    carried,
	}, nil
}
