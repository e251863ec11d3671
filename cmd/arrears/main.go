/*
main.go - Arrears reporting CLI

PURPOSE:
  Command-line reports over a rentally database: balance and compliance
  standing for one tenancy, a portfolio overview, and XLSX statement
  export. Reads the same SQLite file the server writes; all numbers are
  recomputed from stored inputs at the requested as-of date.

COMMANDS:
  balance     --tenancy t-1 [--as-of 2026-01-21]   Balance snapshot
  compliance  --tenancy t-1 [--as-of 2026-01-21]   Compliance status
  statement   --tenancy t-1 --out s.xlsx           Write an XLSX statement
  list                                             Portfolio overview

GLOBAL FLAGS:
  --db        SQLite database path (default: rentally.db)
  --holidays  Optional holiday table file (default: built-in NZ data)

SEE ALSO:
  - excel/statement.go: XLSX rendering
  - cmd/rentally-server: The HTTP server over the same database
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/excel"
	"github.com/ronven594/rentally-sub000/factory"
	"github.com/ronven594/rentally-sub000/nz"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

var printer = message.NewPrinter(language.English)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	dbPath := kingpin.Flag("db", "SQLite database path").Default("rentally.db").String()
	holidayPath := kingpin.Flag("holidays", "Holiday table file (default: built-in NZ data)").String()

	cmdBalance := kingpin.Command("balance", "Show a tenancy's balance snapshot")
	balanceTenancy := cmdBalance.Flag("tenancy", "Tenancy ID").Required().String()
	balanceAsOf := cmdBalance.Flag("as-of", "As-of date (YYYY-MM-DD, default today)").String()

	cmdCompliance := kingpin.Command("compliance", "Show a tenancy's compliance status")
	complianceTenancy := cmdCompliance.Flag("tenancy", "Tenancy ID").Required().String()
	complianceAsOf := cmdCompliance.Flag("as-of", "As-of date (YYYY-MM-DD, default today)").String()

	cmdStatement := kingpin.Command("statement", "Write an XLSX arrears statement")
	statementTenancy := cmdStatement.Flag("tenancy", "Tenancy ID").Required().String()
	statementAsOf := cmdStatement.Flag("as-of", "As-of date (YYYY-MM-DD, default today)").String()
	statementOut := cmdStatement.Flag("out", "Output file").Required().String()

	cmdList := kingpin.Command("list", "List all tenancies with balances")
	listAsOf := cmdList.Flag("as-of", "As-of date (YYYY-MM-DD, default today)").String()

	cmd := kingpin.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	calendar := nz.NewCalendar()
	if *holidayPath != "" {
		table, err := factory.LoadHolidayTable(*holidayPath)
		if err != nil {
			log.Fatalf("load holiday table: %v", err)
		}
		calendar.Provider = table
	}
	eng := engine.NewComplianceEngine(calendar)

	switch cmd {
	case cmdBalance.FullCommand():
		balanceReport(store, *balanceTenancy, parseAsOf(*balanceAsOf))
	case cmdCompliance.FullCommand():
		complianceReport(store, eng, *complianceTenancy, parseAsOf(*complianceAsOf))
	case cmdStatement.FullCommand():
		writeStatement(store, *statementTenancy, parseAsOf(*statementAsOf), *statementOut)
	case cmdList.FullCommand():
		listReport(store, parseAsOf(*listAsOf))
	}
}

// parseAsOf defaults to today in the local timezone; the UTC date lags the
// New Zealand date for half of every day.
func parseAsOf(s string) engine.TimePoint {
	if s == "" {
		return engine.FromTime(time.Now())
	}
	asOf, err := engine.ParseDate(s)
	if err != nil {
		log.Fatalf("invalid as-of date: %v", err)
	}
	return asOf
}

// loadInputs fetches a tenancy and the tracked window of its payment log.
// Payments from before the tracking start are already folded into opening
// arrears by reconciliation and must not subtract again.
func loadInputs(store *sqlite.Store, tenancyID string) (sqlite.Tenancy, []engine.Payment) {
	ctx := context.Background()
	t, err := store.GetTenancy(ctx, tenancyID)
	if err != nil {
		log.Fatalf("tenancy %s: %v", tenancyID, err)
	}
	payments, err := store.ListPayments(ctx, tenancyID)
	if err != nil {
		log.Fatalf("payments for %s: %v", tenancyID, err)
	}
	return t, engine.TrackedPayments(t.Schedule, payments)
}

func balanceReport(store *sqlite.Store, tenancyID string, asOf engine.TimePoint) {
	t, payments := loadInputs(store, tenancyID)

	snap, err := engine.Calculate(t.Schedule, payments, asOf)
	if err != nil {
		log.Fatalf("calculate balance: %v", err)
	}

	fmt.Printf("Tenancy %s as of %s\n\n", t.ID, asOf)
	fmtLine("Total rent due", money(snap.TotalRentDue))
	fmtLine("Total payments", money(snap.TotalPayments))
	fmtLine("Opening arrears", money(snap.OpeningArrears))
	fmtLine("Current balance", money(snap.CurrentBalance))
	fmtLine("Cycles elapsed", fmt.Sprint(snap.CyclesElapsed))
	fmtLine("Cycles paid in full", fmt.Sprint(snap.CyclesPaidInFull))
	fmtLine("Cycles unpaid", fmt.Sprint(snap.CyclesUnpaid))
	fmtLine("Next due date", snap.NextDueDate.String())
	if snap.IsOverdue {
		fmtLine("Oldest unpaid due date", snap.OldestUnpaidDueDate.String())
		fmtLine("Days overdue", fmt.Sprint(snap.DaysOverdue))
	}
	if snap.HasCredit {
		fmtLine("Credit", money(snap.CreditAmount))
	}
}

func complianceReport(store *sqlite.Store, eng *engine.ComplianceEngine, tenancyID string, asOf engine.TimePoint) {
	t, payments := loadInputs(store, tenancyID)

	records, err := store.ListNotices(context.Background(), tenancyID)
	if err != nil {
		log.Fatalf("notices for %s: %v", tenancyID, err)
	}
	notices := make([]engine.StrikeNotice, len(records))
	for i, rec := range records {
		notices[i] = rec.Notice
	}

	status, err := eng.Evaluate(t.Schedule, payments, notices, t.Region, asOf)
	if err != nil {
		log.Fatalf("evaluate compliance: %v", err)
	}

	fmt.Printf("Tenancy %s (%s) as of %s\n\n", t.ID, t.Region, asOf)
	fmtLine("Status", string(status.Status))
	fmtLine("Balance", money(status.Snapshot.CurrentBalance))
	fmtLine("Days in arrears", fmt.Sprint(status.DaysInArrears))
	fmtLine("Working days overdue", fmt.Sprint(status.WorkingDaysOverdue))
	fmtLine("Active strikes", fmt.Sprint(status.ActiveStrikeCount))
	if status.TerminationBasis != nil {
		fmtLine("Termination basis", string(*status.TerminationBasis))
	}
	if status.CanIssueStrike {
		fmtLine("Next strike number", fmt.Sprint(*status.NextStrikeNumber))
		fmt.Println("\nStrike-eligible due dates:")
		for _, d := range status.EligibleDueDates {
			fmt.Printf("  %s\n", d)
		}
	}
}

func writeStatement(store *sqlite.Store, tenancyID string, asOf engine.TimePoint, out string) {
	t, payments := loadInputs(store, tenancyID)

	snap, err := engine.Calculate(t.Schedule, payments, asOf)
	if err != nil {
		log.Fatalf("calculate balance: %v", err)
	}

	data, err := excel.StatementXLSX(excel.StatementInput{
		TenancyID: t.ID,
		Address:   t.Address,
		Region:    t.Region,
		Schedule:  t.Schedule,
		Payments:  payments,
		Snapshot:  snap,
	})
	if err != nil {
		log.Fatalf("render statement: %v", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", out, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
}

func listReport(store *sqlite.Store, asOf engine.TimePoint) {
	ctx := context.Background()
	tenancies, err := store.ListTenancies(ctx)
	if err != nil {
		log.Fatalf("list tenancies: %v", err)
	}

	fmt.Printf("%-12s %-12s %-12s %12s %10s\n", "Tenancy", "Region", "Frequency", "Balance", "Overdue")
	for _, t := range tenancies {
		payments, err := store.ListPayments(ctx, t.ID)
		if err != nil {
			log.Fatalf("payments for %s: %v", t.ID, err)
		}
		snap, err := engine.Calculate(t.Schedule, engine.TrackedPayments(t.Schedule, payments), asOf)
		if err != nil {
			log.Fatalf("calculate balance for %s: %v", t.ID, err)
		}
		overdue := ""
		if snap.IsOverdue {
			overdue = fmt.Sprintf("%dd", snap.DaysOverdue)
		}
		fmt.Printf("%-12s %-12s %-12s %12s %10s\n",
			t.ID, t.Region, t.Schedule.Frequency, money(snap.CurrentBalance), overdue)
	}
}

func fmtLine(label, value string) {
	fmt.Printf("  %-24s %14s\n", label, value)
}

// money renders a decimal as grouped dollars ("$1,350.00"). The integer and
// cent parts are split off the decimal itself; no float round trip.
func money(d decimal.Decimal) string {
	cents := engine.RoundCents(d)
	sign := ""
	if cents.IsNegative() {
		sign = "-"
		cents = cents.Neg()
	}
	dollars := cents.IntPart()
	fraction := cents.Sub(decimal.NewFromInt(dollars)).Mul(decimal.NewFromInt(100)).IntPart()
	return printer.Sprintf("%s$%d.%02d", sign, dollars, fraction)
}
