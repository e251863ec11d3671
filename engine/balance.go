/*
balance.go - Pure balance calculation

PURPOSE:
  Computes a tenancy's financial position as of a date. This is the central
  calculation that answers "how much rent is owed right now?"

DETERMINISM:
  Calculate is a pure function of (schedule, payments, asOf). It never reads
  a clock, never caches, and returns identical output for identical inputs.
  Recomputation is cheap (a bounded grid walk), so callers recompute on every
  query rather than store derived balances.

ALGORITHM:
  1. groundZero = first due date on/after trackingStart
  2. cyclesElapsed = due dates in [groundZero, asOf] (0 before groundZero)
  3. totalRentDue = cyclesElapsed * rentAmount
  4. totalPayments = sum of payment amounts
  5. currentBalance = totalRentDue + openingArrears - totalPayments
  6. Payments settle opening arrears first, then whole cycles oldest-first
  7. paidUntil = due date of the last fully-covered cycle, capped at asOf;
     surplus past asOf is reported as credit, not a future paid-until
  8. Overdue state from the oldest unpaid due date

  Every monetary step rounds to the cent immediately.

SEE ALSO:
  - grid.go: Due-date generation
  - compliance.go: Consumes the snapshot for legal standing
  - reconcile.go: Uses Calculate as its subroutine
*/
package engine

import "github.com/shopspring/decimal"

// Calculate computes the balance snapshot for a schedule as of a date.
// Payments dated after asOf still count: the payment log is append-only and
// the caller controls which slice it passes. A log that spans a settings
// change must be windowed with TrackedPayments first; the folded portion
// already lives in OpeningArrears.
func Calculate(schedule RentSchedule, payments []Payment, asOf TimePoint) (BalanceSnapshot, error) {
	grid, err := NewGrid(schedule)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	groundZero := grid.GroundZero()

	// 2. Elapsed cycles: none before ground zero.
	cyclesElapsed := 0
	if asOf.AfterOrEqual(groundZero) {
		cyclesElapsed, err = grid.CountCycles(groundZero, asOf)
		if err != nil {
			return BalanceSnapshot{}, err
		}
	}

	// 3-5. Money, rounded to the cent at every step.
	rent := RoundCents(schedule.RentAmount)
	openingArrears := RoundCents(schedule.OpeningArrears)
	totalRentDue := RoundCents(rent.Mul(decimal.NewFromInt(int64(cyclesElapsed))))

	totalPayments := decimal.Zero
	for _, p := range payments {
		totalPayments = RoundCents(totalPayments.Add(RoundCents(p.Amount)))
	}

	currentBalance := RoundCents(totalRentDue.Add(openingArrears).Sub(totalPayments))

	// 6. Opening arrears absorb payments before any cycle does.
	paymentsForRent := RoundCents(totalPayments.Sub(openingArrears))
	if paymentsForRent.IsNegative() {
		paymentsForRent = decimal.Zero
	}
	cyclesPaidInFull := int(paymentsForRent.Div(rent).IntPart())
	// Coverage past the next cycle is credit, not a future paid-until; the
	// grid is never walked beyond it.
	if cyclesPaidInFull > cyclesElapsed+1 {
		cyclesPaidInFull = cyclesElapsed + 1
	}
	cyclesUnpaid := cyclesElapsed - cyclesPaidInFull
	if cyclesUnpaid < 0 {
		cyclesUnpaid = 0
	}

	snapshot := BalanceSnapshot{
		AsOf:             asOf,
		TotalRentDue:     totalRentDue,
		TotalPayments:    totalPayments,
		OpeningArrears:   openingArrears,
		CurrentBalance:   currentBalance,
		CyclesElapsed:    cyclesElapsed,
		CyclesPaidInFull: cyclesPaidInFull,
		CyclesUnpaid:     cyclesUnpaid,
		FirstDueDate:     groundZero,
		CreditAmount:     decimal.Zero,
	}

	// Next due date: first due date strictly after asOf.
	next, err := grid.DueDateForCycle(cyclesElapsed + 1)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	snapshot.NextDueDate = next

	// 7. Paid-until, capped at asOf. Coverage past asOf is credit.
	if cyclesPaidInFull > 0 {
		paidUntil, err := grid.DueDateForCycle(cyclesPaidInFull)
		if err != nil {
			return BalanceSnapshot{}, err
		}
		if paidUntil.After(asOf) {
			paidUntil = asOf
		}
		snapshot.PaidUntil = &paidUntil
	}

	// 8. Overdue state.
	snapshot.IsOverdue = currentBalance.IsPositive()
	if currentBalance.IsNegative() {
		snapshot.HasCredit = true
		snapshot.CreditAmount = RoundCents(currentBalance.Neg())
	}

	if snapshot.IsOverdue {
		oldest, err := oldestUnpaidDueDate(grid, schedule, cyclesPaidInFull)
		if err != nil {
			return BalanceSnapshot{}, err
		}
		snapshot.OldestUnpaidDueDate = &oldest
		if days := DaysBetween(oldest, asOf); days > 0 {
			snapshot.DaysOverdue = days
		}
	}

	return snapshot, nil
}

// oldestUnpaidDueDate finds the earliest date money is owed from. Opening
// arrears predate the grid, so with no cycles covered the debt starts at the
// tracking start itself.
func oldestUnpaidDueDate(grid *Grid, schedule RentSchedule, cyclesPaidInFull int) (TimePoint, error) {
	if schedule.OpeningArrears.IsPositive() && cyclesPaidInFull == 0 {
		return schedule.TrackingStart, nil
	}
	return grid.DueDateForCycle(cyclesPaidInFull + 1)
}
