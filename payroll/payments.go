package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/validation"
)

// PaymentInput is what an administrator submits for an extra payment.
//
// Amount is always positive. Deductions and advances are subtracted when
// totals are computed; callers never send negative numbers.
type PaymentInput struct {
	Amount decimal.Decimal     `json:"amount"`
	Reason string              `json:"reason" validate:"required,max=255"`
	Type   generic.PaymentType `json:"payment_type" validate:"required,oneof=bonus overtime deduction advance"`
	Date   generic.Date        `json:"date"`
	Notes  string              `json:"notes" validate:"max=1000"`
}

func (in PaymentInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return &generic.ValidationError{Field: "amount", Message: "must be greater than zero; the payment type decides the sign"}
	}
	if in.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "is required"}
	}
	return nil
}

// AddExtraPayment records a payment against a worker the caller administers.
func (s *Service) AddExtraPayment(ctx context.Context, caller *generic.Caller, workerID generic.AccountID, in PaymentInput) (*generic.ExtraPayment, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	payment := &generic.ExtraPayment{
		AccountID: worker.ID,
		Amount:    generic.RoundMoney(in.Amount),
		Reason:    in.Reason,
		Type:      in.Type,
		Date:      in.Date,
		AddedBy:   caller.AccountID,
		Notes:     in.Notes,
	}
	err = s.store.WithTx(ctx, func(st generic.Store) error {
		return st.CreatePayment(ctx, payment)
	})
	if err != nil {
		return nil, fmt.Errorf("create extra payment: %w", err)
	}
	return payment, nil
}

// ExtraPayments lists a worker's payments, newest date first.
func (s *Service) ExtraPayments(ctx context.Context, caller *generic.Caller, workerID generic.AccountID) ([]generic.ExtraPayment, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.PaymentsInRange(ctx, worker.ID, generic.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("list extra payments: %w", err)
	}
	if payments == nil {
		payments = []generic.ExtraPayment{}
	}
	return payments, nil
}
