/*
Package sqlite provides SQLite-backed persistence for tenancies, payments
and strike notices.

PURPOSE:
  The rules engine is pure; this package holds the inputs it consumes
  (schedule, payment log, notice log) and nothing derived. Balances and
  compliance statuses are recomputed on every query, never written back,
  so there is no cache to invalidate and no stored state to drift.

APPEND-ONLY ENFORCEMENT:
  - payments: no UPDATE or DELETE statements exist; the ledger records
    what was received and nothing else
  - notices: rows are only inserted; the lifecycle state column is the one
    mutable field, and callers validate transitions through the notice
    package before UpdateNoticeState is called

PER-DUE-DATE DEDUPLICATION:
  Notice delivery upstream is at-least-once, so duplicates die here: a
  partial unique index allows at most one strike notice per
  (tenancy, due date). The compliance engine assumes exactly one.

KEY TABLES:
  tenancies: One row per tenancy with its current schedule
  payments:  Immutable payment log
  notices:   Notice log with lifecycle state

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/types.go: Payment and StrikeNotice value types stored here
  - notice/lifecycle.go: Transition validation callers run before updates
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/notice"
)

var (
	// ErrNotFound is returned when a tenancy or notice does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateStrike is returned when a second strike targets a due date
	// that already has one. Expected under at-least-once delivery retries.
	ErrDuplicateStrike = errors.New("strike already recorded for due date")
)

// Tenancy is one stored tenancy: identity plus the schedule the engine
// consumes.
type Tenancy struct {
	ID       string
	Address  string
	Region   engine.Region
	Schedule engine.RentSchedule
}

// NoticeRecord is a stored notice: the engine's immutable fact plus the
// delivery lifecycle state tracked around it.
type NoticeRecord struct {
	TenancyID string
	State     notice.State
	Notice    engine.StrikeNotice
}

// Store implements persistence over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenancies (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL,
		frequency TEXT NOT NULL,
		rent_amount TEXT NOT NULL,
		anchor_weekday INTEGER,
		anchor_day INTEGER,
		tracking_start TEXT NOT NULL,
		opening_arrears TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Payments (append-only ledger)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		tenancy_id TEXT NOT NULL REFERENCES tenancies(id),
		amount TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- For balance calculation (hot path: full payment history per tenancy)
	CREATE INDEX IF NOT EXISTS idx_payments_tenancy_date
		ON payments(tenancy_id, paid_on);

	-- Notices (insert-only rows; state is the one mutable column)
	CREATE TABLE IF NOT EXISTS notices (
		id TEXT PRIMARY KEY,
		tenancy_id TEXT NOT NULL REFERENCES tenancies(id),
		notice_type TEXT NOT NULL,
		state TEXT NOT NULL,
		official_service_date TEXT NOT NULL,
		due_date_for TEXT NOT NULL,
		amount_owed TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: Enforce one strike per missed due date. A due date is a
	-- single strike occasion no matter how many delivery retries arrive.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_strike_due_date
		ON notices(tenancy_id, due_date_for)
		WHERE notice_type = 'strike';

	-- For compliance evaluation (notices in service-date order)
	CREATE INDEX IF NOT EXISTS idx_notices_tenancy_served
		ON notices(tenancy_id, official_service_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TENANCY STORE
// =============================================================================

// CreateTenancy inserts a new tenancy. The schedule is validated first so a
// row can never hold an unusable grid.
func (s *Store) CreateTenancy(ctx context.Context, t Tenancy) error {
	if err := t.Schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	weekday, day := anchorColumns(t.Schedule.DueAnchor)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenancies
		(id, address, region, frequency, rent_amount, anchor_weekday, anchor_day,
		 tracking_start, opening_arrears, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Address, string(t.Region), string(t.Schedule.Frequency),
		t.Schedule.RentAmount.String(), weekday, day,
		t.Schedule.TrackingStart.String(), t.Schedule.OpeningArrears.String(),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenancy: %w", err)
	}
	return nil
}

// GetTenancy retrieves a tenancy by ID.
func (s *Store) GetTenancy(ctx context.Context, id string) (Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, address, region, frequency, rent_amount,
		       anchor_weekday, anchor_day, tracking_start, opening_arrears
		FROM tenancies WHERE id = ?`, id)
	return scanTenancy(row)
}

// ListTenancies returns all tenancies.
func (s *Store) ListTenancies(ctx context.Context) ([]Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, region, frequency, rent_amount,
		       anchor_weekday, anchor_day, tracking_start, opening_arrears
		FROM tenancies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenancies []Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows)
		if err != nil {
			return nil, err
		}
		tenancies = append(tenancies, t)
	}
	return tenancies, rows.Err()
}

// UpdateSchedule replaces a tenancy's schedule after settings-change
// reconciliation. The payment and notice logs are untouched: history under
// the old schedule is already folded into the new opening arrears.
func (s *Store) UpdateSchedule(ctx context.Context, id string, schedule engine.RentSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	weekday, day := anchorColumns(schedule.DueAnchor)
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenancies
		SET frequency = ?, rent_amount = ?, anchor_weekday = ?, anchor_day = ?,
		    tracking_start = ?, opening_arrears = ?, updated_at = ?
		WHERE id = ?`,
		string(schedule.Frequency), schedule.RentAmount.String(), weekday, day,
		schedule.TrackingStart.String(), schedule.OpeningArrears.String(),
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tenancy %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// PAYMENT STORE (append-only)
// =============================================================================

// AddPayment appends a payment to the ledger.
func (s *Store) AddPayment(ctx context.Context, tenancyID string, p engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, tenancy_id, amount, paid_on, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, tenancyID, p.Amount.String(), p.Date.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

// ListPayments returns a tenancy's full payment history, oldest first.
func (s *Store) ListPayments(ctx context.Context, tenancyID string) ([]engine.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, paid_on FROM payments
		WHERE tenancy_id = ?
		ORDER BY paid_on ASC, id ASC`, tenancyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []engine.Payment
	for rows.Next() {
		var p engine.Payment
		var amount, paidOn string
		if err := rows.Scan(&p.ID, &amount, &paidOn); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		if p.Date, err = engine.ParseDate(paidOn); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// NOTICE STORE
// =============================================================================

// AddNotice records a notice. A second strike against an already-struck due
// date returns ErrDuplicateStrike.
func (s *Store) AddNotice(ctx context.Context, rec NoticeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notices
		(id, tenancy_id, notice_type, state, official_service_date, due_date_for,
		 amount_owed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Notice.NoticeID, rec.TenancyID, string(rec.Notice.Type), string(rec.State),
		rec.Notice.OfficialServiceDate.String(), rec.Notice.DueDateFor.String(),
		rec.Notice.AmountOwed.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_unique_strike_due_date") {
			return fmt.Errorf("tenancy %s, due date %s: %w",
				rec.TenancyID, rec.Notice.DueDateFor, ErrDuplicateStrike)
		}
		return fmt.Errorf("failed to record notice: %w", err)
	}
	return nil
}

// ListNotices returns a tenancy's notices oldest-served first, the order the
// compliance engine consumes them in.
func (s *Store) ListNotices(ctx context.Context, tenancyID string) ([]NoticeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, notice_type, state, official_service_date, due_date_for, amount_owed
		FROM notices
		WHERE tenancy_id = ?
		ORDER BY official_service_date ASC, id ASC`, tenancyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []NoticeRecord
	for rows.Next() {
		rec := NoticeRecord{TenancyID: tenancyID}
		var ntype, state, served, dueFor, owed string
		if err := rows.Scan(&rec.Notice.NoticeID, &ntype, &state, &served, &dueFor, &owed); err != nil {
			return nil, err
		}
		rec.Notice.Type = engine.NoticeType(ntype)
		rec.State = notice.State(state)
		if rec.Notice.OfficialServiceDate, err = engine.ParseDate(served); err != nil {
			return nil, fmt.Errorf("notice %s: %w", rec.Notice.NoticeID, err)
		}
		if rec.Notice.DueDateFor, err = engine.ParseDate(dueFor); err != nil {
			return nil, fmt.Errorf("notice %s: %w", rec.Notice.NoticeID, err)
		}
		if rec.Notice.AmountOwed, err = decimal.NewFromString(owed); err != nil {
			return nil, fmt.Errorf("notice %s: %w", rec.Notice.NoticeID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateNoticeState writes a lifecycle state the caller has already validated
// through notice.Validator. The guard on the current state keeps concurrent
// writers from racing past the lifecycle.
func (s *Store) UpdateNoticeState(ctx context.Context, noticeID string, from, to notice.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE notices SET state = ? WHERE id = ? AND state = ?`,
		string(to), noticeID, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notice %s in state %s: %w", noticeID, from, ErrNotFound)
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenancy(row rowScanner) (Tenancy, error) {
	var t Tenancy
	var region, frequency, rent, start, arrears string
	var weekday, day sql.NullInt64

	err := row.Scan(&t.ID, &t.Address, &region, &frequency, &rent,
		&weekday, &day, &start, &arrears)
	if errors.Is(err, sql.ErrNoRows) {
		return Tenancy{}, ErrNotFound
	}
	if err != nil {
		return Tenancy{}, err
	}

	t.Region = engine.Region(region)
	t.Schedule.Frequency = engine.Frequency(frequency)
	if t.Schedule.RentAmount, err = decimal.NewFromString(rent); err != nil {
		return Tenancy{}, fmt.Errorf("tenancy %s: %w", t.ID, err)
	}
	if t.Schedule.OpeningArrears, err = decimal.NewFromString(arrears); err != nil {
		return Tenancy{}, fmt.Errorf("tenancy %s: %w", t.ID, err)
	}
	if t.Schedule.TrackingStart, err = engine.ParseDate(start); err != nil {
		return Tenancy{}, fmt.Errorf("tenancy %s: %w", t.ID, err)
	}
	if weekday.Valid {
		wd := time.Weekday(weekday.Int64)
		t.Schedule.DueAnchor.Weekday = &wd
	}
	if day.Valid {
		d := int(day.Int64)
		t.Schedule.DueAnchor.DayOfMonth = &d
	}
	return t, nil
}

func anchorColumns(anchor engine.DueAnchor) (weekday, day sql.NullInt64) {
	if anchor.Weekday != nil {
		weekday = sql.NullInt64{Int64: int64(*anchor.Weekday), Valid: true}
	}
	if anchor.DayOfMonth != nil {
		day = sql.NullInt64{Int64: int64(*anchor.DayOfMonth), Valid: true}
	}
	return weekday, day
}
