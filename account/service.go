/*
Package account manages identities: registration, login, profiles and the
workers an administrator manages.

PURPOSE:
  Everything the ledger and payroll need to know about a person lives on
  generic.Account. This package is the only writer of accounts.

RULES:
  - username, email and phone are each unique; a clash is ErrConflict
  - login accepts any of username, email or phone
  - an inactive account cannot log in
  - billing parameters must match the deployment's variant
  - a worker's admin_id, when set, must point at an administrator
  - deleting a worker removes its records, payments and reports atomically

SEE ALSO:
  - access/scope.go: which worker ids an administrator may touch
  - factory/billing.go: deployment billing defaults
*/
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/access"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/validation"
)

type Service struct {
	store   generic.TxStore
	scope   *access.Scope
	billing *factory.Billing
	hasher  Hasher
}

func NewService(store generic.TxStore, billing *factory.Billing, hasher Hasher) *Service {
	return &Service{
		store:   store,
		scope:   access.NewScope(store),
		billing: billing,
		hasher:  hasher,
	}
}

// =============================================================================
// INPUTS
// =============================================================================

// RegisterInput is a self-service signup.
type RegisterInput struct {
	Username      string             `json:"username" validate:"required,min=3,max=80"`
	Email         string             `json:"email" validate:"omitempty,email,max=120"`
	Phone         string             `json:"phone" validate:"omitempty,e164"`
	Password      string             `json:"password" validate:"required,min=6,max=72"`
	Role          generic.Role       `json:"role" validate:"omitempty,oneof=worker administrator"`
	HourlyRate    *decimal.Decimal   `json:"hourly_rate"`
	DailyWage     *decimal.Decimal   `json:"daily_wage"`
	StandardHours *decimal.Decimal   `json:"standard_hours"`
	AdminID       *generic.AccountID `json:"admin_id"`
}

// WorkerInput is an administrator creating a worker under themself.
type WorkerInput struct {
	Username      string           `json:"username" validate:"required,min=3,max=80"`
	Email         string           `json:"email" validate:"omitempty,email,max=120"`
	Phone         string           `json:"phone" validate:"omitempty,e164"`
	Password      string           `json:"password" validate:"required,min=6,max=72"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate"`
	DailyWage     *decimal.Decimal `json:"daily_wage"`
	StandardHours *decimal.Decimal `json:"standard_hours"`
}

// WorkerUpdate changes only the fields that are set.
type WorkerUpdate struct {
	Username      *string          `json:"username" validate:"omitempty,min=3,max=80"`
	Email         *string          `json:"email" validate:"omitempty,email,max=120"`
	Phone         *string          `json:"phone" validate:"omitempty,e164"`
	Password      *string          `json:"password" validate:"omitempty,min=6,max=72"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate"`
	DailyWage     *decimal.Decimal `json:"daily_wage"`
	StandardHours *decimal.Decimal `json:"standard_hours"`
	IsActive      *bool            `json:"is_active"`
}

// Seed describes the administrator created on first start.
type Seed struct {
	Username string
	Email    string
	Password string
}

// =============================================================================
// REGISTRATION & LOGIN
// =============================================================================

func (s *Service) Register(ctx context.Context, in RegisterInput) (*generic.Account, error) {
	normalize(&in.Username, &in.Email, &in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = generic.RoleWorker
	}

	billing := s.billing.ParamsFor(in.HourlyRate, in.DailyWage, in.StandardHours)
	if err := s.billing.CheckAccount(billing); err != nil {
		return nil, err
	}

	if in.AdminID != nil {
		if role != generic.RoleWorker {
			return nil, &generic.ValidationError{Field: "admin_id", Message: "only workers can have an administrator"}
		}
		admin, err := s.store.GetAccount(ctx, *in.AdminID)
		if err != nil && !errors.Is(err, generic.ErrNotFound) {
			return nil, fmt.Errorf("load administrator: %w", err)
		}
		if admin == nil || admin.Role != generic.RoleAdministrator {
			return nil, &generic.ValidationError{Field: "admin_id", Message: "must reference an administrator"}
		}
	}

	return s.create(ctx, generic.Account{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     role,
		Billing:  billing,
		AdminID:  in.AdminID,
	}, in.Password)
}

// Authenticate resolves login (username, email or phone) and checks the
// password. Every failure mode is ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*generic.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, generic.ErrInvalidCredentials
	}
	acct, err := s.store.FindAccountByLogin(ctx, login)
	if errors.Is(err, generic.ErrNotFound) {
		return nil, generic.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	ok, err := s.hasher.Verify(acct.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok || !acct.IsActive {
		return nil, generic.ErrInvalidCredentials
	}
	return acct, nil
}

func (s *Service) Profile(ctx context.Context, caller *generic.Caller) (*generic.Account, error) {
	return s.scope.Self(ctx, caller)
}

// EnsureAdministrator creates seed as an administrator when the store has
// none. It reports whether an account was created.
func (s *Service) EnsureAdministrator(ctx context.Context, seed Seed) (bool, error) {
	n, err := s.store.CountAdministrators(ctx)
	if err != nil {
		return false, fmt.Errorf("count administrators: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	normalize(&seed.Username, &seed.Email, nil)
	if seed.Username == "" || len(seed.Password) < 6 {
		return false, &generic.ValidationError{Field: "seed", Message: "administrator seed needs a username and a password of at least 6 characters"}
	}
	_, err = s.create(ctx, generic.Account{
		Username: seed.Username,
		Email:    seed.Email,
		Role:     generic.RoleAdministrator,
		Billing:  s.billing.ParamsFor(nil, nil, nil),
	}, seed.Password)
	if err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// WORKER MANAGEMENT (administrator scope)
// =============================================================================

func (s *Service) ListWorkers(ctx context.Context, caller *generic.Caller) ([]generic.Account, error) {
	return s.scope.ManagedWorkers(ctx, caller)
}

func (s *Service) CreateWorker(ctx context.Context, caller *generic.Caller, in WorkerInput) (*generic.Account, error) {
	if err := access.RequireAdministrator(caller); err != nil {
		return nil, err
	}
	normalize(&in.Username, &in.Email, &in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	billing := s.billing.ParamsFor(in.HourlyRate, in.DailyWage, in.StandardHours)
	if err := s.billing.CheckAccount(billing); err != nil {
		return nil, err
	}
	adminID := caller.AccountID
	return s.create(ctx, generic.Account{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     generic.RoleWorker,
		Billing:  billing,
		AdminID:  &adminID,
	}, in.Password)
}

func (s *Service) UpdateWorker(ctx context.Context, caller *generic.Caller, workerID generic.AccountID, in WorkerUpdate) (*generic.Account, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	normalize(in.Username, in.Email, in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Username != nil {
		worker.Username = *in.Username
	}
	if in.Email != nil {
		worker.Email = *in.Email
	}
	if in.Phone != nil {
		worker.Phone = *in.Phone
	}
	if in.IsActive != nil {
		worker.IsActive = *in.IsActive
	}
	if in.HourlyRate != nil {
		worker.Billing.HourlyRate = *in.HourlyRate
	}
	if in.DailyWage != nil {
		worker.Billing.DailyWage = *in.DailyWage
	}
	if in.StandardHours != nil {
		worker.Billing.StandardHours = *in.StandardHours
	}
	if err := s.billing.CheckAccount(worker.Billing); err != nil {
		return nil, err
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		worker.PasswordHash = hash
	}

	err = s.store.WithTx(ctx, func(st generic.Store) error {
		return st.UpdateAccount(ctx, *worker)
	})
	if err != nil {
		return nil, fmt.Errorf("update worker %d: %w", workerID, err)
	}
	return s.store.GetAccount(ctx, worker.ID)
}

// DeleteWorker removes the worker together with its attendance records,
// extra payments and weekly reports.
func (s *Service) DeleteWorker(ctx context.Context, caller *generic.Caller, workerID generic.AccountID) error {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(st generic.Store) error {
		return st.DeleteAccount(ctx, worker.ID)
	})
	if err != nil {
		return fmt.Errorf("delete worker %d: %w", workerID, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) create(ctx context.Context, a generic.Account, password string) (*generic.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash
	a.IsActive = true
	err = s.store.WithTx(ctx, func(st generic.Store) error {
		return st.CreateAccount(ctx, &a)
	})
	if err != nil {
		return nil, fmt.Errorf("create account %q: %w", a.Username, err)
	}
	return &a, nil
}

func normalize(username, email, phone *string) {
	if username != nil {
		*username = strings.TrimSpace(*username)
	}
	if email != nil {
		*email = strings.ToLower(strings.TrimSpace(*email))
	}
	if phone != nil {
		*phone = strings.TrimSpace(*phone)
	}
}
