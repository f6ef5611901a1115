/*
Package access decides which accounts and records a caller may touch.

PURPOSE:
  Every read or write on attendance records, extra payments and weekly
  reports passes through Scope first. The rules are small but easy to get
  wrong in handlers, so they live in one place.

RULES:
  1. No caller                          -> ErrUnauthenticated
  2. Worker operations by non-workers   -> ErrForbidden
  3. Admin operations by non-admins     -> ErrForbidden
  4. Worker records                     -> only record.account_id == caller.id
  5. Admin over a worker                -> only worker.admin_id == caller.id,
                                           otherwise ErrNotFound

WHY NOT FOUND:
  A cross-tenant worker id answers exactly like a nonexistent one so that an
  administrator cannot probe for other tenants' workers.

SEE ALSO:
  - generic/types.go: Caller
  - api/session.go: builds the Caller from cookie or bearer token
*/
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/attendance-engine/generic"
)

// Scope evaluates authorization against the account store.
type Scope struct {
	accounts generic.AccountStore
}

func NewScope(accounts generic.AccountStore) *Scope {
	return &Scope{accounts: accounts}
}

// RequireCaller fails when no identity has been established.
func RequireCaller(caller *generic.Caller) error {
	if caller == nil || caller.AccountID == 0 {
		return generic.ErrUnauthenticated
	}
	return nil
}

// RequireWorker admits only worker callers. Administrators never clock in.
func RequireWorker(caller *generic.Caller) error {
	if err := RequireCaller(caller); err != nil {
		return err
	}
	if !caller.IsWorker() {
		return fmt.Errorf("%w: worker role required", generic.ErrForbidden)
	}
	return nil
}

// RequireAdministrator admits only administrator callers.
func RequireAdministrator(caller *generic.Caller) error {
	if err := RequireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdministrator() {
		return fmt.Errorf("%w: administrator role required", generic.ErrForbidden)
	}
	return nil
}

// CanRead reports whether caller may see data owned by owner.
func CanRead(caller *generic.Caller, owner generic.Account) bool {
	if caller == nil {
		return false
	}
	if owner.ID == caller.AccountID {
		return true
	}
	return caller.IsAdministrator() && owner.OwnedBy(caller.AccountID)
}

// Self loads the caller's own account.
func (s *Scope) Self(ctx context.Context, caller *generic.Caller) (*generic.Account, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	acct, err := s.accounts.GetAccount(ctx, caller.AccountID)
	if errors.Is(err, generic.ErrNotFound) {
		// Session outlived its account.
		return nil, generic.ErrUnauthenticated
	}
	return acct, err
}

// OwnedWorker loads workerID if caller administers it. Missing, non-worker
// and foreign ids all return ErrWorkerNotOwned, which is an ErrNotFound.
func (s *Scope) OwnedWorker(ctx context.Context, caller *generic.Caller, workerID generic.AccountID) (*generic.Account, error) {
	if err := RequireAdministrator(caller); err != nil {
		return nil, err
	}
	worker, err := s.accounts.GetAccount(ctx, workerID)
	if errors.Is(err, generic.ErrNotFound) {
		return nil, generic.ErrWorkerNotOwned
	}
	if err != nil {
		return nil, err
	}
	if !worker.OwnedBy(caller.AccountID) {
		return nil, generic.ErrWorkerNotOwned
	}
	return worker, nil
}

// ManagedWorkers lists the workers caller administers.
func (s *Scope) ManagedWorkers(ctx context.Context, caller *generic.Caller) ([]generic.Account, error) {
	if err := RequireAdministrator(caller); err != nil {
		return nil, err
	}
	return s.accounts.ListWorkers(ctx, caller.AccountID)
}
