package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound     = errors.New("advance account not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPeriod       = errors.New("invalid period, expected YYYY-MM")
	ErrOverpaymentRejected = errors.New("payment would exceed remaining balance")
	ErrNoTransactions      = errors.New("no advance transactions for employee")
	ErrTransientStore      = errors.New("transient store failure")
)

// DeferredNote is the default note on a Defer audit row.
const DeferredNote = "Deferred"

// SameMonthPaymentNote marks the installment synthesized when a fresh
// advance starts amortizing in its own month instead of waiting for the
// monthly pass.
const SameMonthPaymentNote = "Same-month installment"

type AccountRepository interface {
	GetForUpdate(ctx context.Context, empNo string) (*model.AdvanceAccount, error)
	Get(ctx context.Context, empNo string) (*model.AdvanceAccount, error)
	Create(ctx context.Context, acc *model.AdvanceAccount) (*model.AdvanceAccount, error)
	UpdateBalance(ctx context.Context, empNo string, balance decimal.Decimal) error
	UpdateInstallment(ctx context.Context, empNo string, installment decimal.Decimal) error
	ListAll(ctx context.Context) ([]*model.AccountBalance, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.AdvanceTransaction) (*model.AdvanceTransaction, error)
	FindPayment(ctx context.Context, empNo, period string) (*model.AdvanceTransaction, error)
	HasDefer(ctx context.Context, empNo, period string) (bool, error)
	AmendPayment(ctx context.Context, id int64, amount decimal.Decimal, note string) error
	SumAmounts(ctx context.Context, empNo string) (decimal.Decimal, error)
	ListByEmployee(ctx context.Context, empNo string) ([]*model.AdvanceTransaction, error)
}

// LedgerService owns the advance ledger: the append-only transaction
// log, the materialized balance, and the four mutation intents. Every
// mutation runs inside one store transaction holding the account row
// lock, and every write is followed by a balance recompute in the same
// unit of work, so balance == sum(transactions) holds at every read.
type LedgerService struct {
	accounts AccountRepository
	txns     TransactionRepository
}

func NewLedgerService(accounts AccountRepository, txns TransactionRepository) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		txns:     txns,
	}
}

// GrantAdvance creates the account on first use, records the Advance,
// and lets a same-month advance begin amortizing immediately: when the
// advance's own period has no Payment row yet and the balance is
// positive, a Payment of -min(balance, installment) is synthesized.
func (s *LedgerService) GrantAdvance(ctx context.Context, req model.GrantAdvanceRequest) (*model.GrantAdvanceResult, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: advance amount must be positive", ErrInvalidAmount)
	}
	if !req.MonthlyInstallment.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: monthly installment must be positive", ErrInvalidAmount)
	}

	occurredOn := req.OccurredOn
	if occurredOn.IsZero() {
		occurredOn = time.Now()
	}
	period := model.PeriodOf(occurredOn)

	var result *model.GrantAdvanceResult
	err := s.accounts.WithinTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetForUpdate(ctx, req.EmpNo)
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			acc, err = s.accounts.Create(ctx, &model.AdvanceAccount{
				EmpNo:              req.EmpNo,
				Balance:            decimal.Zero,
				MonthlyInstallment: req.MonthlyInstallment,
			})
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lock account: %w", err)
		default:
			if err := s.accounts.UpdateInstallment(ctx, req.EmpNo, req.MonthlyInstallment); err != nil {
				return fmt.Errorf("update installment: %w", err)
			}
			acc.MonthlyInstallment = req.MonthlyInstallment
		}

		if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
			EmpNo:      req.EmpNo,
			OccurredOn: occurredOn,
			Period:     period,
			Kind:       model.TxnKindAdvance,
			Amount:     req.Amount,
			Note:       req.Note,
		}); err != nil {
			return fmt.Errorf("append advance: %w", err)
		}

		balance, err := s.refreshBalance(ctx, req.EmpNo)
		if err != nil {
			return err
		}

		inserted := false
		_, err = s.txns.FindPayment(ctx, req.EmpNo, period)
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			if balance.GreaterThan(decimal.Zero) {
				payment := decimal.Min(balance, acc.MonthlyInstallment).Neg()
				if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
					EmpNo:      req.EmpNo,
					OccurredOn: occurredOn,
					Period:     period,
					Kind:       model.TxnKindPayment,
					Amount:     payment,
					Note:       SameMonthPaymentNote,
				}); err != nil {
					return fmt.Errorf("append same-month payment: %w", err)
				}
				if balance, err = s.refreshBalance(ctx, req.EmpNo); err != nil {
					return err
				}
				inserted = true
			}
		case err != nil:
			return fmt.Errorf("probe payment: %w", err)
		}

		result = &model.GrantAdvanceResult{
			EmpNo:           req.EmpNo,
			Balance:         balance,
			PaymentInserted: inserted,
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

// IncreaseAdvance tops up an existing advance. It never touches any
// period's Payment row.
func (s *LedgerService) IncreaseAdvance(ctx context.Context, req model.IncreaseAdvanceRequest) (decimal.Decimal, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: increase amount must be positive", ErrInvalidAmount)
	}

	occurredOn := req.OccurredOn
	if occurredOn.IsZero() {
		occurredOn = time.Now()
	}

	var balance decimal.Decimal
	err := s.accounts.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetForUpdate(ctx, req.EmpNo); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
			EmpNo:      req.EmpNo,
			OccurredOn: occurredOn,
			Period:     model.PeriodOf(occurredOn),
			Kind:       model.TxnKindIncrease,
			Amount:     req.Amount,
			Note:       req.Note,
		}); err != nil {
			return fmt.Errorf("append increase: %w", err)
		}

		var err error
		balance, err = s.refreshBalance(ctx, req.EmpNo)
		return err
	})
	if err != nil {
		return decimal.Zero, s.classify(err)
	}
	return balance, nil
}

// SetPayment records or amends the deduction for one period. A zero
// amount is an intentional skip and leaves a Defer audit row behind,
// exactly once per period. The overpayment guard compares against the
// balance read under the account lock before any write.
func (s *LedgerService) SetPayment(ctx context.Context, req model.SetPaymentRequest) (*model.SetPaymentResult, error) {
	if req.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be zero or negative", ErrInvalidAmount)
	}
	periodStart, err := model.PeriodStart(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, req.Period)
	}

	var result *model.SetPaymentResult
	err = s.accounts.WithinTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetForUpdate(ctx, req.EmpNo)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if req.Amount.Abs().GreaterThan(acc.Balance) {
			return fmt.Errorf("%w: |%s| > balance %s", ErrOverpaymentRejected, req.Amount, acc.Balance)
		}

		created := false
		existing, err := s.txns.FindPayment(ctx, req.EmpNo, req.Period)
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
				EmpNo:      req.EmpNo,
				OccurredOn: periodStart,
				Period:     req.Period,
				Kind:       model.TxnKindPayment,
				Amount:     req.Amount,
				Note:       req.Note,
			}); err != nil {
				return fmt.Errorf("append payment: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("probe payment: %w", err)
		default:
			if err := s.txns.AmendPayment(ctx, existing.ID, req.Amount, req.Note); err != nil {
				return fmt.Errorf("amend payment: %w", err)
			}
		}

		deferred := req.Amount.IsZero()
		if deferred {
			if err := s.ensureDeferMarker(ctx, req.EmpNo, req.Period, periodStart, req.Note); err != nil {
				return err
			}
		}

		balance, err := s.refreshBalance(ctx, req.EmpNo)
		if err != nil {
			return err
		}

		result = &model.SetPaymentResult{
			EmpNo:    req.EmpNo,
			Period:   req.Period,
			Created:  created,
			Deferred: deferred,
			Balance:  balance,
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

// UpdateInstallment changes the default deduction for future periods
// and, unless the targeted period carries a Defer marker, rewrites that
// period's Payment to the new installment. An explicit defer always
// wins over an installment-driven recompute.
func (s *LedgerService) UpdateInstallment(ctx context.Context, req model.UpdateInstallmentRequest) (*model.UpdateInstallmentResult, error) {
	if !req.MonthlyInstallment.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: monthly installment must be positive", ErrInvalidAmount)
	}

	period := req.Period
	if period == "" {
		period = model.CurrentPeriod()
	}
	periodStart, err := model.PeriodStart(period)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	var result *model.UpdateInstallmentResult
	err = s.accounts.WithinTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetForUpdate(ctx, req.EmpNo)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if err := s.accounts.UpdateInstallment(ctx, req.EmpNo, req.MonthlyInstallment); err != nil {
			return fmt.Errorf("update installment: %w", err)
		}

		adjusted := false
		balance := acc.Balance

		if req.ApplyToMonth {
			hasDefer, err := s.txns.HasDefer(ctx, req.EmpNo, period)
			if err != nil {
				return fmt.Errorf("probe defer: %w", err)
			}

			if !hasDefer {
				amount := req.MonthlyInstallment.Neg()
				if amount.Abs().GreaterThan(acc.Balance) {
					return fmt.Errorf("%w: |%s| > balance %s", ErrOverpaymentRejected, amount, acc.Balance)
				}

				existing, err := s.txns.FindPayment(ctx, req.EmpNo, period)
				switch {
				case errors.Is(err, repository.ErrTransactionNotFound):
					if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
						EmpNo:      req.EmpNo,
						OccurredOn: periodStart,
						Period:     period,
						Kind:       model.TxnKindPayment,
						Amount:     amount,
						Note:       req.Note,
					}); err != nil {
						return fmt.Errorf("append payment: %w", err)
					}
				case err != nil:
					return fmt.Errorf("probe payment: %w", err)
				default:
					if err := s.txns.AmendPayment(ctx, existing.ID, amount, req.Note); err != nil {
						return fmt.Errorf("amend payment: %w", err)
					}
				}

				if balance, err = s.refreshBalance(ctx, req.EmpNo); err != nil {
					return err
				}
				adjusted = true
			}
		}

		result = &model.UpdateInstallmentResult{
			EmpNo:              req.EmpNo,
			MonthlyInstallment: req.MonthlyInstallment,
			Period:             period,
			PaymentAdjusted:    adjusted,
			Balance:            balance,
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, empNo string) (*model.AccountBalance, error) {
	acc, err := s.accounts.Get(ctx, empNo)
	if err != nil {
		return nil, s.classify(err)
	}
	return &model.AccountBalance{
		EmpNo:              acc.EmpNo,
		Balance:            acc.Balance,
		MonthlyInstallment: acc.MonthlyInstallment,
	}, nil
}

func (s *LedgerService) GetHistory(ctx context.Context, empNo string) ([]*model.AdvanceTransaction, error) {
	txns, err := s.txns.ListByEmployee(ctx, empNo)
	if err != nil {
		return nil, s.classify(err)
	}
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}
	return txns, nil
}

func (s *LedgerService) GetAllBalances(ctx context.Context) ([]*model.AccountBalance, error) {
	balances, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, s.classify(err)
	}
	if balances == nil {
		balances = []*model.AccountBalance{}
	}
	return balances, nil
}

// refreshBalance rewrites the materialized balance from the transaction
// sum. It reads through the open transaction, so writes made earlier in
// the same unit of work are already counted.
func (s *LedgerService) refreshBalance(ctx context.Context, empNo string) (decimal.Decimal, error) {
	balance, err := s.txns.SumAmounts(ctx, empNo)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, empNo, balance); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}
	return balance, nil
}

// ensureDeferMarker inserts the Defer audit row for (empNo, period)
// unless one already exists. A Defer row is never duplicated or removed.
func (s *LedgerService) ensureDeferMarker(ctx context.Context, empNo, period string, periodStart time.Time, note string) error {
	hasDefer, err := s.txns.HasDefer(ctx, empNo, period)
	if err != nil {
		return fmt.Errorf("probe defer: %w", err)
	}
	if hasDefer {
		return nil
	}

	if note == "" {
		note = DeferredNote
	}
	if _, err := s.txns.Create(ctx, &model.AdvanceTransaction{
		EmpNo:      empNo,
		OccurredOn: periodStart,
		Period:     period,
		Kind:       model.TxnKindDefer,
		Amount:     decimal.Zero,
		Note:       note,
	}); err != nil {
		return fmt.Errorf("append defer marker: %w", err)
	}
	return nil
}

// classify maps repository errors onto the service's error kinds.
// Anything that is not a known domain failure is treated as transient:
// the operation rolled back completely, so the caller may retry.
func (s *LedgerService) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrOverpaymentRejected),
		errors.Is(err, ErrNoTransactions):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
}
