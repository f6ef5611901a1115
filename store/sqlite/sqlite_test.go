package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createAccount(t *testing.T, s *sqlite.Store, a generic.Account) generic.Account {
	t.Helper()
	if a.PasswordHash == "" {
		a.PasswordHash = "x"
	}
	if a.Billing.Variant == "" {
		a.Billing = generic.HourlyBilling(dec("12.50"))
	}
	a.IsActive = true
	require.NoError(t, s.CreateAccount(context.Background(), &a))
	return a
}

var day = generic.NewDate(2025, time.March, 10)

// =============================================================================
// ACCOUNT TESTS
// =============================================================================

func TestAccounts_RoundTripAndLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAccount(t, s, generic.Account{Username: "boss", Email: "boss@example.com", Role: generic.RoleAdministrator})
	worker := createAccount(t, s, generic.Account{
		Username: "Ana",
		Phone:    "+15550001111",
		Role:     generic.RoleWorker,
		Billing:  generic.DailyWageBilling(dec("800"), dec("7.5")),
		AdminID:  &admin.ID,
	})

	got, err := s.GetAccount(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Username)
	assert.Empty(t, got.Email)
	assert.Equal(t, generic.BillingDailyWage, got.Billing.Variant)
	assert.True(t, dec("800").Equal(got.Billing.DailyWage))
	assert.True(t, dec("7.5").Equal(got.Billing.StandardHours))
	require.NotNil(t, got.AdminID)
	assert.Equal(t, admin.ID, *got.AdminID)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	// Username and email match case-insensitively, phone exactly.
	for _, login := range []string{"ana", "BOSS@example.com", "+15550001111"} {
		_, err := s.FindAccountByLogin(ctx, login)
		assert.NoError(t, err, login)
	}
	_, err = s.FindAccountByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = s.GetAccount(ctx, 999)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestAccounts_UniqueFieldsConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createAccount(t, s, generic.Account{Username: "ana", Email: "ana@example.com", Role: generic.RoleWorker})

	dup := generic.Account{Username: "ANA", PasswordHash: "x", Role: generic.RoleWorker, Billing: generic.HourlyBilling(dec("1"))}
	assert.ErrorIs(t, s.CreateAccount(ctx, &dup), generic.ErrConflict)

	// Two accounts without email do not collide.
	createAccount(t, s, generic.Account{Username: "bob", Role: generic.RoleWorker})
	carl := createAccount(t, s, generic.Account{Username: "carl", Role: generic.RoleWorker})

	carl.Email = "ana@example.com"
	assert.ErrorIs(t, s.UpdateAccount(ctx, carl), generic.ErrConflict)
}

func TestAccounts_ListWorkersAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createAccount(t, s, generic.Account{Username: "a", Role: generic.RoleAdministrator})
	b := createAccount(t, s, generic.Account{Username: "b", Role: generic.RoleAdministrator})
	createAccount(t, s, generic.Account{Username: "w1", Role: generic.RoleWorker, AdminID: &a.ID})
	createAccount(t, s, generic.Account{Username: "w2", Role: generic.RoleWorker, AdminID: &a.ID})
	createAccount(t, s, generic.Account{Username: "w3", Role: generic.RoleWorker, AdminID: &b.ID})

	workers, err := s.ListWorkers(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "w1", workers[0].Username)

	n, err := s.CountAdministrators(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteAccount_CascadesOwnedRows(t *testing.T) {
	// GIVEN: a worker with a record, a payment and a report
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAccount(t, s, generic.Account{Username: "boss", Role: generic.RoleAdministrator})
	w := createAccount(t, s, generic.Account{Username: "ana", Role: generic.RoleWorker, AdminID: &admin.ID})

	entry := day.Time().Add(9 * time.Hour)
	require.NoError(t, s.InsertRecord(ctx, &generic.AttendanceRecord{AccountID: w.ID, Date: day, EntryTime: &entry}))
	require.NoError(t, s.CreatePayment(ctx, &generic.ExtraPayment{
		AccountID: w.ID, Amount: dec("5"), Reason: "r", Type: generic.PaymentBonus, Date: day, AddedBy: admin.ID,
	}))
	rep := generic.NewWeeklyReport(w.ID, admin.ID, generic.SingleDay(day), nil, nil)
	require.NoError(t, s.CreateReport(ctx, &rep))

	// WHEN
	require.NoError(t, s.DeleteAccount(ctx, w.ID))

	// THEN: nothing of the worker survives
	records, err := s.RecordsInRange(ctx, []generic.AccountID{w.ID}, generic.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, records)
	payments, err := s.PaymentsInRange(ctx, w.ID, generic.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, payments)
	reports, err := s.ReportsFor(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)

	assert.ErrorIs(t, s.DeleteAccount(ctx, w.ID), generic.ErrNotFound)
}

// =============================================================================
// ATTENDANCE TESTS
// =============================================================================

func TestRecords_InsertCompleteAndGuards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := createAccount(t, s, generic.Account{Username: "ana", Role: generic.RoleWorker})

	rec, err := s.GetRecord(ctx, w.ID, day)
	require.NoError(t, err)
	assert.Nil(t, rec, "no record yet")

	// Exit without a row
	exit := day.Time().Add(17 * time.Hour)
	err = s.CompleteRecord(ctx, generic.AttendanceRecord{AccountID: w.ID, Date: day, ExitTime: &exit})
	assert.ErrorIs(t, err, generic.ErrNoEntryYet)

	entry := day.Time().Add(9 * time.Hour)
	r := &generic.AttendanceRecord{AccountID: w.ID, Date: day, EntryTime: &entry}
	require.NoError(t, s.InsertRecord(ctx, r))
	assert.NotZero(t, r.ID)

	dup := &generic.AttendanceRecord{AccountID: w.ID, Date: day, EntryTime: &entry}
	assert.ErrorIs(t, s.InsertRecord(ctx, dup), generic.ErrDuplicateEntry)

	r.ExitTime = &exit
	r.Minutes, r.Blocks = 480, 16
	r.Hours, r.Earning = dec("8.00"), dec("100.00")
	require.NoError(t, s.CompleteRecord(ctx, *r))
	assert.ErrorIs(t, s.CompleteRecord(ctx, *r), generic.ErrDuplicateExit)

	got, err := s.GetRecord(ctx, w.ID, day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, generic.StateCompleted, got.State())
	assert.True(t, entry.Equal(*got.EntryTime))
	assert.True(t, exit.Equal(*got.ExitTime))
	assert.Equal(t, int64(16), got.Blocks)
	assert.True(t, dec("100").Equal(got.Earning))
}

func TestRecords_ConcurrentInsertsOneWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := createAccount(t, s, generic.Account{Username: "ana", Role: generic.RoleWorker})
	entry := day.Time().Add(9 * time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertRecord(ctx, &generic.AttendanceRecord{AccountID: w.ID, Date: day, EntryTime: &entry})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, generic.ErrDuplicateEntry)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestRecords_PagingAndRanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createAccount(t, s, generic.Account{Username: "a", Role: generic.RoleWorker})
	b := createAccount(t, s, generic.Account{Username: "b", Role: generic.RoleWorker})
	for i := 0; i < 5; i++ {
		d := day.AddDays(i)
		entry := d.Time().Add(9 * time.Hour)
		require.NoError(t, s.InsertRecord(ctx, &generic.AttendanceRecord{AccountID: a.ID, Date: d, EntryTime: &entry}))
	}
	entry := day.Time().Add(9 * time.Hour)
	require.NoError(t, s.InsertRecord(ctx, &generic.AttendanceRecord{AccountID: b.ID, Date: day, EntryTime: &entry}))

	page, total, err := s.ListRecords(ctx, a.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "2025-03-12", page[0].Date.String())
	assert.Equal(t, "2025-03-11", page[1].Date.String())

	from, to := day.AddDays(1), day.AddDays(3)
	ranged, err := s.RecordsInRange(ctx, []generic.AccountID{a.ID}, generic.DateRange{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	both, err := s.RecordsInRange(ctx, []generic.AccountID{a.ID, b.ID}, generic.DateRange{To: &day})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	none, err := s.RecordsInRange(ctx, nil, generic.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

// =============================================================================
// PAYMENT & REPORT TESTS
// =============================================================================

func TestPayments_OrderAndForeignKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAccount(t, s, generic.Account{Username: "boss", Role: generic.RoleAdministrator})
	w := createAccount(t, s, generic.Account{Username: "ana", Role: generic.RoleWorker, AdminID: &admin.ID})

	for i, typ := range []generic.PaymentType{generic.PaymentBonus, generic.PaymentAdvance, generic.PaymentOvertime} {
		require.NoError(t, s.CreatePayment(ctx, &generic.ExtraPayment{
			AccountID: w.ID, Amount: dec("10.50"), Reason: "r", Type: typ, Date: day.AddDays(i), AddedBy: admin.ID,
		}))
	}

	payments, err := s.PaymentsInRange(ctx, w.ID, generic.DateRange{})
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, generic.PaymentOvertime, payments[0].Type, "newest date first")
	assert.True(t, dec("10.50").Equal(payments[0].Amount))
	assert.Equal(t, admin.ID, payments[0].AddedBy)

	err = s.CreatePayment(ctx, &generic.ExtraPayment{
		AccountID: 999, Amount: dec("1"), Reason: "r", Type: generic.PaymentBonus, Date: day, AddedBy: admin.ID,
	})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestReports_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAccount(t, s, generic.Account{Username: "boss", Role: generic.RoleAdministrator})
	w := createAccount(t, s, generic.Account{Username: "ana", Role: generic.RoleWorker, AdminID: &admin.ID})

	week := generic.Period{Start: day, End: day.AddDays(6)}
	first := generic.WeeklyReport{
		AccountID: w.ID, Period: week,
		TotalHours: dec("7.50"), TotalEarnings: dec("750.00"), ExtraPayments: dec("100.00"), FinalAmount: dec("850.00"),
		GeneratedBy: admin.ID,
	}
	second := first
	require.NoError(t, s.CreateReport(ctx, &first))
	require.NoError(t, s.CreateReport(ctx, &second))

	reports, err := s.ReportsFor(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID, "newest first")
	assert.Equal(t, "2025-03-16", reports[0].Period.End.String())
	assert.True(t, dec("850").Equal(reports[0].FinalAmount))
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(st generic.Store) error {
		a := generic.Account{Username: "ghost", PasswordHash: "x", Role: generic.RoleWorker, Billing: generic.HourlyBilling(dec("1"))}
		if err := st.CreateAccount(ctx, &a); err != nil {
			return err
		}
		return generic.ErrConflict
	})
	assert.ErrorIs(t, err, generic.ErrConflict)

	_, err = s.FindAccountByLogin(ctx, "ghost")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createAccount(t, s, generic.Account{Username: "boss", Role: generic.RoleAdministrator})

	require.NoError(t, s.Reset(ctx))

	n, err := s.CountAdministrators(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Ping(ctx))
}
