/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore (accounts, attendance records, extra payments,
  weekly reports) on SQLite. The SQL is plain enough that a PostgreSQL port
  only needs dialect changes.

KEY TABLES:
  accounts:           workers and administrators; admin_id points at the owner
  attendance_records: at most one row per (account_id, date)
  extra_payments:     append-only, positive amount, sign from payment_type
  weekly_reports:     append-only snapshots

UNIQUENESS:
  The ledger's one-record-per-day rule is enforced by a unique index, and an
  exit is written with a conditional UPDATE (exit_time IS NULL). Two
  concurrent requests for the same day can therefore never both succeed:
  the loser gets ErrDuplicateEntry / ErrDuplicateExit.

CASCADE:
  Child tables reference accounts with ON DELETE CASCADE, and DeleteAccount
  also deletes children explicitly inside its transaction so the behaviour
  does not depend on the foreign_keys pragma.

ENCODING:
  Dates are TEXT "YYYY-MM-DD", timestamps TEXT RFC3339Nano in UTC, money and
  hours TEXT decimal strings (no float rounding on the way in or out).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite allows a single writer anyway.
  Inside WithTx the callback gets a store bound to the *sql.Tx that takes no
  further locks.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
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

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  queries
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every new connection to :memory: is a fresh, empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, q: queries{db: db, now: time.Now}}
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

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL COLLATE NOCASE UNIQUE,
		email TEXT COLLATE NOCASE UNIQUE,
		phone TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('worker', 'administrator')),
		billing_variant TEXT NOT NULL,
		hourly_rate TEXT NOT NULL DEFAULT '0',
		daily_wage TEXT NOT NULL DEFAULT '0',
		standard_hours TEXT NOT NULL DEFAULT '0',
		admin_id INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_admin
		ON accounts(admin_id, role);

	-- One record per account per day. The ledger relies on this index to
	-- reject a concurrent second entry.
	CREATE TABLE IF NOT EXISTS attendance_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		entry_time TEXT,
		exit_time TEXT,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		blocks INTEGER NOT NULL DEFAULT 0,
		hours TEXT NOT NULL DEFAULT '0',
		earning TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_account_date
		ON attendance_records(account_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance_records(date);

	CREATE TABLE IF NOT EXISTS extra_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		reason TEXT NOT NULL,
		payment_type TEXT NOT NULL CHECK (payment_type IN ('bonus', 'overtime', 'deduction', 'advance')),
		date TEXT NOT NULL,
		added_by INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_extra_payments_account_date
		ON extra_payments(account_id, date DESC);

	CREATE TABLE IF NOT EXISTS weekly_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		total_earnings TEXT NOT NULL,
		extra_payments TEXT NOT NULL,
		final_amount TEXT NOT NULL,
		generated_by INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_weekly_reports_account
		ON weekly_reports(account_id, id DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(queries{db: sqlTx, now: s.q.now}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset removes every row. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"weekly_reports", "extra_payments", "attendance_records", "accounts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// LOCKED DELEGATES
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a *generic.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreateAccount(ctx, a)
}

func (s *Store) GetAccount(ctx context.Context, id generic.AccountID) (*generic.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.GetAccount(ctx, id)
}

func (s *Store) FindAccountByLogin(ctx context.Context, login string) (*generic.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.FindAccountByLogin(ctx, login)
}

func (s *Store) UpdateAccount(ctx context.Context, a generic.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.UpdateAccount(ctx, a)
}

// DeleteAccount runs its cascade in its own transaction.
func (s *Store) DeleteAccount(ctx context.Context, id generic.AccountID) error {
	return s.WithTx(ctx, func(st generic.Store) error {
		return st.DeleteAccount(ctx, id)
	})
}

func (s *Store) ListWorkers(ctx context.Context, adminID generic.AccountID) ([]generic.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ListWorkers(ctx, adminID)
}

func (s *Store) CountAdministrators(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.CountAdministrators(ctx)
}

func (s *Store) GetRecord(ctx context.Context, accountID generic.AccountID, date generic.Date) (*generic.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.GetRecord(ctx, accountID, date)
}

func (s *Store) InsertRecord(ctx context.Context, r *generic.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.InsertRecord(ctx, r)
}

func (s *Store) CompleteRecord(ctx context.Context, r generic.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CompleteRecord(ctx, r)
}

func (s *Store) ListRecords(ctx context.Context, accountID generic.AccountID, offset, limit int) ([]generic.AttendanceRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ListRecords(ctx, accountID, offset, limit)
}

func (s *Store) RecordsInRange(ctx context.Context, accountIDs []generic.AccountID, r generic.DateRange) ([]generic.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.RecordsInRange(ctx, accountIDs, r)
}

func (s *Store) CreatePayment(ctx context.Context, p *generic.ExtraPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreatePayment(ctx, p)
}

func (s *Store) PaymentsInRange(ctx context.Context, accountID generic.AccountID, r generic.DateRange) ([]generic.ExtraPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.PaymentsInRange(ctx, accountID, r)
}

func (s *Store) CreateReport(ctx context.Context, r *generic.WeeklyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreateReport(ctx, r)
}

func (s *Store) ReportsFor(ctx context.Context, accountID generic.AccountID) ([]generic.WeeklyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ReportsFor(ctx, accountID)
}

// =============================================================================
// QUERIES (unlocked; bound to *sql.DB or *sql.Tx)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db  execer
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- accounts ---

const accountColumns = `id, username, email, phone, password_hash, role, billing_variant,
	hourly_rate, daily_wage, standard_hours, admin_id, is_active, created_at, updated_at`

func (q queries) CreateAccount(ctx context.Context, a *generic.Account) error {
	now := q.now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts
		(username, email, phone, password_hash, role, billing_variant,
		 hourly_rate, daily_wage, standard_hours, admin_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.Username, nullString(a.Email), nullString(a.Phone), a.PasswordHash, a.Role,
		a.Billing.Variant, a.Billing.HourlyRate.String(), a.Billing.DailyWage.String(),
		a.Billing.StandardHours.String(), nullAccountID(a.AdminID), a.IsActive,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrConflict
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read account id: %w", err)
	}
	a.ID = generic.AccountID(id)
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (q queries) GetAccount(ctx context.Context, id generic.AccountID) (*generic.Account, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (q queries) FindAccountByLogin(ctx context.Context, login string) (*generic.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE username = ? OR email = ? OR phone = ?
		ORDER BY id LIMIT 1
	`, login, login, login)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (q queries) UpdateAccount(ctx context.Context, a generic.Account) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET
			username = ?, email = ?, phone = ?, password_hash = ?, billing_variant = ?,
			hourly_rate = ?, daily_wage = ?, standard_hours = ?, admin_id = ?, is_active = ?,
			updated_at = ?
		WHERE id = ?
	`,
		a.Username, nullString(a.Email), nullString(a.Phone), a.PasswordHash, a.Billing.Variant,
		a.Billing.HourlyRate.String(), a.Billing.DailyWage.String(), a.Billing.StandardHours.String(),
		nullAccountID(a.AdminID), a.IsActive, formatTime(q.now().UTC()), a.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrConflict
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectOneRow(res, generic.ErrNotFound)
}

func (q queries) DeleteAccount(ctx context.Context, id generic.AccountID) error {
	for _, table := range []string{"weekly_reports", "extra_payments", "attendance_records"} {
		if _, err := q.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOneRow(res, generic.ErrNotFound)
}

func (q queries) ListWorkers(ctx context.Context, adminID generic.AccountID) ([]generic.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE admin_id = ? AND role = ?
		ORDER BY id
	`, adminID, generic.RoleWorker)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []generic.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, a)
	}
	return workers, rows.Err()
}

func (q queries) CountAdministrators(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE role = ?", generic.RoleAdministrator,
	).Scan(&n)
	return n, err
}

func scanAccount(row rowScanner) (generic.Account, error) {
	var (
		a                       generic.Account
		email, phone            sql.NullString
		hourly, daily, stdHours string
		adminID                 sql.NullInt64
		createdAt, updatedAt    string
	)
	err := row.Scan(
		&a.ID, &a.Username, &email, &phone, &a.PasswordHash, &a.Role, &a.Billing.Variant,
		&hourly, &daily, &stdHours, &adminID, &a.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Email = email.String
	a.Phone = phone.String
	a.Billing.HourlyRate = parseDecimal(hourly)
	a.Billing.DailyWage = parseDecimal(daily)
	a.Billing.StandardHours = parseDecimal(stdHours)
	if adminID.Valid {
		id := generic.AccountID(adminID.Int64)
		a.AdminID = &id
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

// --- attendance records ---

const recordColumns = `id, account_id, date, entry_time, exit_time, total_minutes, blocks,
	hours, earning, created_at, updated_at`

func (q queries) GetRecord(ctx context.Context, accountID generic.AccountID, date generic.Date) (*generic.AttendanceRecord, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE account_id = ? AND date = ?
	`, accountID, date.String())
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (q queries) InsertRecord(ctx context.Context, r *generic.AttendanceRecord) error {
	now := q.now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO attendance_records
		(account_id, date, entry_time, exit_time, total_minutes, blocks, hours, earning, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.AccountID, r.Date.String(), nullTime(r.EntryTime), nullTime(r.ExitTime),
		r.Minutes, r.Blocks, decimalString(r.Hours), decimalString(r.Earning),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read record id: %w", err)
	}
	r.ID = id
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

// CompleteRecord only touches a row whose exit is still empty.
func (q queries) CompleteRecord(ctx context.Context, r generic.AttendanceRecord) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE attendance_records SET
			exit_time = ?, total_minutes = ?, blocks = ?, hours = ?, earning = ?, updated_at = ?
		WHERE account_id = ? AND date = ? AND entry_time IS NOT NULL AND exit_time IS NULL
	`,
		nullTime(r.ExitTime), r.Minutes, r.Blocks, decimalString(r.Hours), decimalString(r.Earning),
		formatTime(q.now().UTC()), r.AccountID, r.Date.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete attendance record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}
	existing, err := q.GetRecord(ctx, r.AccountID, r.Date)
	if err != nil {
		return err
	}
	if existing.State() == generic.StateCompleted {
		return generic.ErrDuplicateExit
	}
	return generic.ErrNoEntryYet
}

func (q queries) ListRecords(ctx context.Context, accountID generic.AccountID, offset, limit int) ([]generic.AttendanceRecord, int, error) {
	var total int
	if err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance_records WHERE account_id = ?", accountID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	records, err := q.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE account_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if records == nil {
		records = []generic.AttendanceRecord{}
	}
	return records, total, nil
}

func (q queries) RecordsInRange(ctx context.Context, accountIDs []generic.AccountID, r generic.DateRange) ([]generic.AttendanceRecord, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	query := `SELECT ` + recordColumns + ` FROM attendance_records
		WHERE account_id IN (` + placeholders(len(accountIDs)) + `)`
	cond, rangeArgs := rangeClause(r)
	query += cond + ` ORDER BY date DESC, id DESC`
	return q.queryRecords(ctx, query, append(args, rangeArgs...)...)
}

func (q queries) queryRecords(ctx context.Context, query string, args ...any) ([]generic.AttendanceRecord, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []generic.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(row rowScanner) (generic.AttendanceRecord, error) {
	var (
		r                    generic.AttendanceRecord
		date                 string
		entry, exit          sql.NullString
		hours, earning       string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&r.ID, &r.AccountID, &date, &entry, &exit, &r.Minutes, &r.Blocks,
		&hours, &earning, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan attendance record: %w", err)
	}
	r.Date = parseDate(date)
	r.EntryTime = parseNullTime(entry)
	r.ExitTime = parseNullTime(exit)
	r.Hours = parseDecimal(hours)
	r.Earning = parseDecimal(earning)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

// --- extra payments ---

func (q queries) CreatePayment(ctx context.Context, p *generic.ExtraPayment) error {
	now := q.now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO extra_payments
		(account_id, amount, reason, payment_type, date, added_by, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.AccountID, p.Amount.String(), p.Reason, p.Type, p.Date.String(), p.AddedBy, p.Notes,
		formatTime(now),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.ErrNotFound
		}
		return fmt.Errorf("failed to create extra payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read payment id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (q queries) PaymentsInRange(ctx context.Context, accountID generic.AccountID, r generic.DateRange) ([]generic.ExtraPayment, error) {
	cond, rangeArgs := rangeClause(r)
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, amount, reason, payment_type, date, added_by, notes, created_at
		FROM extra_payments
		WHERE account_id = ?`+cond+`
		ORDER BY date DESC, id DESC
	`, append([]any{accountID}, rangeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query extra payments: %w", err)
	}
	defer rows.Close()

	var payments []generic.ExtraPayment
	for rows.Next() {
		var (
			p                     generic.ExtraPayment
			amount, date, created string
		)
		if err := rows.Scan(&p.ID, &p.AccountID, &amount, &p.Reason, &p.Type, &date,
			&p.AddedBy, &p.Notes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan extra payment: %w", err)
		}
		p.Amount = parseDecimal(amount)
		p.Date = parseDate(date)
		p.CreatedAt = parseTime(created)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// --- weekly reports ---

func (q queries) CreateReport(ctx context.Context, r *generic.WeeklyReport) error {
	now := q.now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO weekly_reports
		(account_id, week_start, week_end, total_hours, total_earnings, extra_payments,
		 final_amount, generated_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.AccountID, r.Period.Start.String(), r.Period.End.String(),
		r.TotalHours.String(), r.TotalEarnings.String(), r.ExtraPayments.String(),
		r.FinalAmount.String(), r.GeneratedBy, formatTime(now),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.ErrNotFound
		}
		return fmt.Errorf("failed to create weekly report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read report id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	return nil
}

func (q queries) ReportsFor(ctx context.Context, accountID generic.AccountID) ([]generic.WeeklyReport, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, week_start, week_end, total_hours, total_earnings,
		       extra_payments, final_amount, generated_by, created_at
		FROM weekly_reports
		WHERE account_id = ?
		ORDER BY id DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly reports: %w", err)
	}
	defer rows.Close()

	var reports []generic.WeeklyReport
	for rows.Next() {
		var (
			r                              generic.WeeklyReport
			start, end                     string
			hours, earnings, extras, final string
			created                        string
		)
		if err := rows.Scan(&r.ID, &r.AccountID, &start, &end, &hours, &earnings,
			&extras, &final, &r.GeneratedBy, &created); err != nil {
			return nil, fmt.Errorf("failed to scan weekly report: %w", err)
		}
		r.Period = generic.Period{Start: parseDate(start), End: parseDate(end)}
		r.TotalHours = parseDecimal(hours)
		r.TotalEarnings = parseDecimal(earnings)
		r.ExtraPayments = parseDecimal(extras)
		r.FinalAmount = parseDecimal(final)
		r.CreatedAt = parseTime(created)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func rangeClause(r generic.DateRange) (string, []any) {
	var (
		cond string
		args []any
	)
	if r.From != nil {
		cond += " AND date >= ?"
		args = append(args, r.From.String())
	}
	if r.To != nil {
		cond += " AND date <= ?"
		args = append(args, r.To.String())
	}
	return cond, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func expectOneRow(res sql.Result, otherwise error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return otherwise
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullAccountID(id *generic.AccountID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func parseDate(s string) generic.Date {
	d, _ := generic.ParseDate(s)
	return d
}

func decimalString(d decimal.Decimal) string { return d.String() }

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
