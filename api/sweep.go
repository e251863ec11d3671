/*
sweep.go - Background compliance sweep

PURPOSE:
  Periodically re-evaluates every tenancy's compliance status and logs the
  ones needing landlord action (a strike can be issued, or tribunal
  criteria are met). The engine is pure and nothing derived is stored, so
  the sweep is purely advisory: it surfaces state changes that would
  otherwise only be seen when someone queries the tenancy.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Evaluates each tenancy as of today in its own region
  - Logs transitions only at evaluation time; no results are persisted

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweep is active (default: true)

USAGE:
  sweep := NewComplianceSweep(store, engine)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - handlers.go: GetCompliance endpoint (on-demand evaluation)
  - engine/compliance.go: Evaluation logic
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

// ComplianceSweep re-evaluates all tenancies on an interval.
type ComplianceSweep struct {
	Store         *sqlite.Store
	Engine        *engine.ComplianceEngine
	CheckInterval time.Duration
	Enabled       bool

	// Now supplies the sweep's as-of date; defaults to the local date, same
	// as the handlers' default.
	Now func() engine.TimePoint

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewComplianceSweep creates a new sweep.
func NewComplianceSweep(store *sqlite.Store, eng *engine.ComplianceEngine) *ComplianceSweep {
	return &ComplianceSweep{
		Store:         store,
		Engine:        eng,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           func() engine.TimePoint { return engine.FromTime(time.Now()) },
		stop:          make(chan bool),
	}
}

// Start begins the sweep.
func (cs *ComplianceSweep) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Sweep] Disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Sweep] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the sweep.
func (cs *ComplianceSweep) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		log.Println("[Sweep] Stopped")
	}
}

func (cs *ComplianceSweep) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.sweep()

	for {
		select {
		case <-cs.ticker.C:
			cs.sweep()
		case <-cs.stop:
			return
		}
	}
}

func (cs *ComplianceSweep) sweep() {
	ctx := context.Background()
	asOf := cs.Now()

	tenancies, err := cs.Store.ListTenancies(ctx)
	if err != nil {
		log.Printf("[Sweep] Error listing tenancies: %v", err)
		return
	}

	actionable := 0
	for _, t := range tenancies {
		payments, err := cs.Store.ListPayments(ctx, t.ID)
		if err != nil {
			log.Printf("[Sweep] Error listing payments for %s: %v", t.ID, err)
			continue
		}
		records, err := cs.Store.ListNotices(ctx, t.ID)
		if err != nil {
			log.Printf("[Sweep] Error listing notices for %s: %v", t.ID, err)
			continue
		}

		status, err := cs.Engine.Evaluate(t.Schedule, engine.TrackedPayments(t.Schedule, payments), engineNotices(records), t.Region, asOf)
		if err != nil {
			log.Printf("[Sweep] Error evaluating %s: %v", t.ID, err)
			continue
		}

		switch status.Status {
		case engine.StatusActionRequired:
			actionable++
			log.Printf("[Sweep] %s: strike available (%d eligible due dates, %d active strikes, $%s owed)",
				t.ID, len(status.EligibleDueDates), status.ActiveStrikeCount,
				status.Snapshot.CurrentBalance.StringFixed(2))
		case engine.StatusTribunalEligible:
			actionable++
			basis := ""
			if status.TerminationBasis != nil {
				basis = string(*status.TerminationBasis)
			}
			log.Printf("[Sweep] %s: tribunal eligible (basis=%s, %d days in arrears, $%s owed)",
				t.ID, basis, status.DaysInArrears,
				status.Snapshot.CurrentBalance.StringFixed(2))
		}
	}

	if actionable > 0 {
		log.Printf("[Sweep] Completed: %d of %d tenancies need attention", actionable, len(tenancies))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (cs *ComplianceSweep) RunNow() {
	cs.sweep()
}
