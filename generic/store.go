/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between domain logic and the database. Domain
  packages depend only on these interfaces; store/sqlite implements them for
  production and generic/store implements them in memory for tests.

KEY INTERFACES:
  AccountStore:    accounts and worker ownership
  AttendanceStore: one record per (account, date)
  PaymentStore:    extra payments (insert + read only)
  ReportStore:     weekly report snapshots (insert + read only)
  TxStore:         all of the above plus WithTx for atomic transitions

UNIQUENESS:
  InsertRecord must fail with ErrDuplicateEntry when a record for the same
  (account, date) exists. CompleteRecord must fail with ErrDuplicateExit when
  the stored record already has an exit time. Implementations enforce this in
  the store itself (unique index, conditional update) so concurrent callers
  cannot both succeed.

CASCADE:
  DeleteAccount removes the account's records, payments and reports in the
  same transaction.

SEE ALSO:
  - store/sqlite/sqlite.go: production implementation
  - generic/store/memory.go: in-memory implementation for tests
*/
package generic

import "context"

type AccountStore interface {
	// CreateAccount assigns a.ID. Duplicate username/email/phone returns ErrConflict.
	CreateAccount(ctx context.Context, a *Account) error

	// GetAccount returns ErrNotFound when absent.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// FindAccountByLogin matches username, email or phone. ErrNotFound when absent.
	FindAccountByLogin(ctx context.Context, login string) (*Account, error)

	// UpdateAccount overwrites mutable fields. Duplicate fields return ErrConflict.
	UpdateAccount(ctx context.Context, a Account) error

	// DeleteAccount removes the account and everything it owns.
	DeleteAccount(ctx context.Context, id AccountID) error

	// ListWorkers returns workers owned by adminID, ordered by id.
	ListWorkers(ctx context.Context, adminID AccountID) ([]Account, error)

	// CountAdministrators is used for first-run seeding.
	CountAdministrators(ctx context.Context) (int, error)
}

type AttendanceStore interface {
	// GetRecord returns nil, nil when no record exists for the day.
	GetRecord(ctx context.Context, accountID AccountID, date Date) (*AttendanceRecord, error)

	// InsertRecord assigns r.ID. Fails with ErrDuplicateEntry if the day exists.
	InsertRecord(ctx context.Context, r *AttendanceRecord) error

	// CompleteRecord stores exit and derived fields. Fails with ErrDuplicateExit
	// if the record already has an exit time.
	CompleteRecord(ctx context.Context, r AttendanceRecord) error

	// ListRecords pages through an account's records, newest date first.
	ListRecords(ctx context.Context, accountID AccountID, offset, limit int) ([]AttendanceRecord, int, error)

	// RecordsInRange returns records for the accounts within r, newest date first.
	RecordsInRange(ctx context.Context, accountIDs []AccountID, r DateRange) ([]AttendanceRecord, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *ExtraPayment) error
	PaymentsInRange(ctx context.Context, accountID AccountID, r DateRange) ([]ExtraPayment, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *WeeklyReport) error
	ReportsFor(ctx context.Context, accountID AccountID) ([]WeeklyReport, error)
}

// Store is the full persistence surface.
type Store interface {
	AccountStore
	AttendanceStore
	PaymentStore
	ReportStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
