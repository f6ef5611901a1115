// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements generic.TxStore. WithTx snapshots the whole state and
// restores it if fn fails, so a failed transition leaves nothing behind.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

type dayKey struct {
	AccountID generic.AccountID
	Date      string
}

type memState struct {
	nextID   int64
	accounts map[generic.AccountID]generic.Account
	records  map[dayKey]generic.AttendanceRecord
	payments []generic.ExtraPayment
	reports  []generic.WeeklyReport
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{state: &memState{
		accounts: make(map[generic.AccountID]generic.Account),
		records:  make(map[dayKey]generic.AttendanceRecord),
		now:      time.Now,
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:   s.nextID,
		accounts: make(map[generic.AccountID]generic.Account, len(s.accounts)),
		records:  make(map[dayKey]generic.AttendanceRecord, len(s.records)),
		payments: append([]generic.ExtraPayment(nil), s.payments...),
		reports:  append([]generic.WeeklyReport(nil), s.reports...),
		now:      s.now,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// WithTx runs fn against the store; any error rolls every write back.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	backup := m.state.clone()
	if err := fn(m.state); err != nil {
		m.state = backup
		return err
	}
	return nil
}

// =============================================================================
// LOCKED DELEGATES
// =============================================================================

func (m *Memory) CreateAccount(ctx context.Context, a *generic.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateAccount(ctx, a)
}

func (m *Memory) GetAccount(ctx context.Context, id generic.AccountID) (*generic.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetAccount(ctx, id)
}

func (m *Memory) FindAccountByLogin(ctx context.Context, login string) (*generic.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FindAccountByLogin(ctx, login)
}

func (m *Memory) UpdateAccount(ctx context.Context, a generic.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateAccount(ctx, a)
}

func (m *Memory) DeleteAccount(ctx context.Context, id generic.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteAccount(ctx, id)
}

func (m *Memory) ListWorkers(ctx context.Context, adminID generic.AccountID) ([]generic.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListWorkers(ctx, adminID)
}

func (m *Memory) CountAdministrators(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CountAdministrators(ctx)
}

func (m *Memory) GetRecord(ctx context.Context, accountID generic.AccountID, date generic.Date) (*generic.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetRecord(ctx, accountID, date)
}

func (m *Memory) InsertRecord(ctx context.Context, r *generic.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.InsertRecord(ctx, r)
}

func (m *Memory) CompleteRecord(ctx context.Context, r generic.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CompleteRecord(ctx, r)
}

func (m *Memory) ListRecords(ctx context.Context, accountID generic.AccountID, offset, limit int) ([]generic.AttendanceRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListRecords(ctx, accountID, offset, limit)
}

func (m *Memory) RecordsInRange(ctx context.Context, accountIDs []generic.AccountID, r generic.DateRange) ([]generic.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.RecordsInRange(ctx, accountIDs, r)
}

func (m *Memory) CreatePayment(ctx context.Context, p *generic.ExtraPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreatePayment(ctx, p)
}

func (m *Memory) PaymentsInRange(ctx context.Context, accountID generic.AccountID, r generic.DateRange) ([]generic.ExtraPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PaymentsInRange(ctx, accountID, r)
}

func (m *Memory) CreateReport(ctx context.Context, r *generic.WeeklyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateReport(ctx, r)
}

func (m *Memory) ReportsFor(ctx context.Context, accountID generic.AccountID) ([]generic.WeeklyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ReportsFor(ctx, accountID)
}

// =============================================================================
// STATE (unlocked, also the Store handed to WithTx callbacks)
// =============================================================================

func (s *memState) conflicts(a generic.Account) bool {
	for _, other := range s.accounts {
		if other.ID == a.ID {
			continue
		}
		if strings.EqualFold(other.Username, a.Username) ||
			(a.Email != "" && strings.EqualFold(other.Email, a.Email)) ||
			(a.Phone != "" && other.Phone == a.Phone) {
			return true
		}
	}
	return false
}

func (s *memState) CreateAccount(_ context.Context, a *generic.Account) error {
	if s.conflicts(*a) {
		return generic.ErrConflict
	}
	a.ID = generic.AccountID(s.id())
	now := s.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.accounts[a.ID] = *a
	return nil
}

func (s *memState) GetAccount(_ context.Context, id generic.AccountID) (*generic.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, generic.ErrNotFound
	}
	return &a, nil
}

func (s *memState) FindAccountByLogin(_ context.Context, login string) (*generic.Account, error) {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Username, login) ||
			(a.Email != "" && strings.EqualFold(a.Email, login)) ||
			(a.Phone != "" && a.Phone == login) {
			found := a
			return &found, nil
		}
	}
	return nil, generic.ErrNotFound
}

func (s *memState) UpdateAccount(_ context.Context, a generic.Account) error {
	existing, ok := s.accounts[a.ID]
	if !ok {
		return generic.ErrNotFound
	}
	if s.conflicts(a) {
		return generic.ErrConflict
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()
	s.accounts[a.ID] = a
	return nil
}

func (s *memState) DeleteAccount(_ context.Context, id generic.AccountID) error {
	if _, ok := s.accounts[id]; !ok {
		return generic.ErrNotFound
	}
	delete(s.accounts, id)
	for k := range s.records {
		if k.AccountID == id {
			delete(s.records, k)
		}
	}
	payments := s.payments[:0]
	for _, p := range s.payments {
		if p.AccountID != id {
			payments = append(payments, p)
		}
	}
	s.payments = payments
	reports := s.reports[:0]
	for _, r := range s.reports {
		if r.AccountID != id {
			reports = append(reports, r)
		}
	}
	s.reports = reports
	return nil
}

func (s *memState) ListWorkers(_ context.Context, adminID generic.AccountID) ([]generic.Account, error) {
	var workers []generic.Account
	for _, a := range s.accounts {
		if a.OwnedBy(adminID) {
			workers = append(workers, a)
		}
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}

func (s *memState) CountAdministrators(_ context.Context) (int, error) {
	n := 0
	for _, a := range s.accounts {
		if a.Role == generic.RoleAdministrator {
			n++
		}
	}
	return n, nil
}

func (s *memState) GetRecord(_ context.Context, accountID generic.AccountID, date generic.Date) (*generic.AttendanceRecord, error) {
	r, ok := s.records[dayKey{AccountID: accountID, Date: date.String()}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memState) InsertRecord(_ context.Context, r *generic.AttendanceRecord) error {
	k := dayKey{AccountID: r.AccountID, Date: r.Date.String()}
	if _, exists := s.records[k]; exists {
		return generic.ErrDuplicateEntry
	}
	r.ID = s.id()
	now := s.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.records[k] = *r
	return nil
}

func (s *memState) CompleteRecord(_ context.Context, r generic.AttendanceRecord) error {
	k := dayKey{AccountID: r.AccountID, Date: r.Date.String()}
	existing, ok := s.records[k]
	if !ok {
		return generic.ErrNoEntryYet
	}
	if existing.ExitTime != nil {
		return generic.ErrDuplicateExit
	}
	existing.ExitTime = r.ExitTime
	existing.Minutes = r.Minutes
	existing.Blocks = r.Blocks
	existing.Hours = r.Hours
	existing.Earning = r.Earning
	existing.UpdatedAt = s.now().UTC()
	s.records[k] = existing
	return nil
}

func sortNewestFirst(records []generic.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
}

func (s *memState) ListRecords(_ context.Context, accountID generic.AccountID, offset, limit int) ([]generic.AttendanceRecord, int, error) {
	var all []generic.AttendanceRecord
	for _, r := range s.records {
		if r.AccountID == accountID {
			all = append(all, r)
		}
	}
	sortNewestFirst(all)
	total := len(all)
	if offset >= total {
		return []generic.AttendanceRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memState) RecordsInRange(_ context.Context, accountIDs []generic.AccountID, dr generic.DateRange) ([]generic.AttendanceRecord, error) {
	wanted := make(map[generic.AccountID]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []generic.AttendanceRecord
	for _, r := range s.records {
		if wanted[r.AccountID] && dr.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memState) CreatePayment(_ context.Context, p *generic.ExtraPayment) error {
	if _, ok := s.accounts[p.AccountID]; !ok {
		return generic.ErrNotFound
	}
	p.ID = s.id()
	p.CreatedAt = s.now().UTC()
	s.payments = append(s.payments, *p)
	return nil
}

func (s *memState) PaymentsInRange(_ context.Context, accountID generic.AccountID, dr generic.DateRange) ([]generic.ExtraPayment, error) {
	var out []generic.ExtraPayment
	for _, p := range s.payments {
		if p.AccountID == accountID && dr.Contains(p.Date) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memState) CreateReport(_ context.Context, r *generic.WeeklyReport) error {
	if _, ok := s.accounts[r.AccountID]; !ok {
		return generic.ErrNotFound
	}
	r.ID = s.id()
	r.CreatedAt = s.now().UTC()
	s.reports = append(s.reports, *r)
	return nil
}

func (s *memState) ReportsFor(_ context.Context, accountID generic.AccountID) ([]generic.WeeklyReport, error) {
	var out []generic.WeeklyReport
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].AccountID == accountID {
			out = append(out, s.reports[i])
		}
	}
	return out, nil
}
