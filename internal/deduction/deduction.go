package deduction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/crewpay/payroll-ledger/pkg/logger"
	"github.com/crewpay/payroll-ledger/pkg/prom"
	"github.com/crewpay/payroll-ledger/pkg/worker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AutoDeductionNote is the standard note on scheduler-inserted payments.
const AutoDeductionNote = "Auto monthly deduction"

type AccountRepository interface {
	GetForUpdate(ctx context.Context, empNo string) (*model.AdvanceAccount, error)
	UpdateBalance(ctx context.Context, empNo string, balance decimal.Decimal) error
	ListPositiveBalance(ctx context.Context) ([]*model.AdvanceAccount, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.AdvanceTransaction) (*model.AdvanceTransaction, error)
	FindPayment(ctx context.Context, empNo, period string) (*model.AdvanceTransaction, error)
	SumAmounts(ctx context.Context, empNo string) (decimal.Decimal, error)
}

// Pass is the period-end deduction job as a plain callable: once per
// calendar period it makes sure every account with a positive balance
// carries exactly one Payment row for that period. Re-running a pass in
// the same period is a no-op because the per-(account, period) Payment
// row is the idempotency key.
type Pass struct {
	accounts AccountRepository
	txns     TransactionRepository
	pool     *worker.WorkerManager
	poolOnce sync.Once
}

func NewPass(accounts AccountRepository, txns TransactionRepository, workers int) *Pass {
	if workers <= 0 {
		workers = 4
	}
	return &Pass{
		accounts: accounts,
		txns:     txns,
		pool:     worker.NewWorkerManager(1024, workers, nil),
	}
}

// Run executes the pass for the current period and returns the number
// of accounts newly deducted.
func (p *Pass) Run(ctx context.Context) (int, error) {
	return p.RunForPeriod(ctx, model.CurrentPeriod())
}

// RunForPeriod fans the per-account work out over the pool. Accounts
// are independent (each is processed in its own store transaction under
// its own row lock), so parallelism here is safe. A failure on one
// account is logged and skipped; the next run re-attempts it through
// the same idempotency probe.
func (p *Pass) RunForPeriod(ctx context.Context, period string) (int, error) {
	p.poolOnce.Do(func() {
		p.pool.SetWorker(func(workerIndex int, job interface{}) {
			job.(func())()
		})
		go p.pool.Start() //nolint
	})

	runID := uuid.NewString()
	start := time.Now()

	accounts, err := p.accounts.ListPositiveBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	var deducted int64
	var wg sync.WaitGroup
	for _, acc := range accounts {
		empNo := acc.EmpNo
		wg.Add(1)
		p.pool.Enqueue(func() {
			defer wg.Done()
			ok, err := p.deductAccount(ctx, empNo, period)
			switch {
			case err != nil:
				// One bad account must not block the whole pass.
				logger.Warn("deduction: account skipped",
					"run_id", runID, "emp_no", empNo, "period", period, "error", err)
				observeOutcome("failed")
			case ok:
				atomic.AddInt64(&deducted, 1)
				observeOutcome("deducted")
			default:
				observeOutcome("skipped")
			}
		})
	}
	wg.Wait()

	took := time.Since(start)
	if prom.MetricSystemEnabled {
		if h, ok := prom.MetricCollectionHistogram[prom.SystemDeduction+prom.MetricDeductionRunDuration]; ok {
			h.Observe(took.Seconds())
		}
	}
	logger.Info("deduction: pass complete",
		"run_id", runID,
		"period", period,
		"candidates", len(accounts),
		"deducted", deducted,
		"took", took.String())

	return int(deducted), nil
}

// deductAccount inserts the period's Payment for one account, or does
// nothing. Every precondition is re-checked under the account lock, so
// a stale candidate list only costs a skip, never a double deduction.
func (p *Pass) deductAccount(ctx context.Context, empNo, period string) (bool, error) {
	inserted := false
	err := p.accounts.WithinTransaction(ctx, func(ctx context.Context) error {
		acc, err := p.accounts.GetForUpdate(ctx, empNo)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil
			}
			return fmt.Errorf("lock account: %w", err)
		}

		_, err = p.txns.FindPayment(ctx, empNo, period)
		switch {
		case err == nil:
			return nil // already has this period's payment
		case !errors.Is(err, repository.ErrTransactionNotFound):
			return fmt.Errorf("probe payment: %w", err)
		}

		if !acc.Balance.GreaterThan(decimal.Zero) || !acc.MonthlyInstallment.GreaterThan(decimal.Zero) {
			return nil
		}

		// Never deduct more than the remaining balance.
		amount := decimal.Min(acc.Balance, acc.MonthlyInstallment).Neg()
		if _, err := p.txns.Create(ctx, &model.AdvanceTransaction{
			EmpNo:      empNo,
			OccurredOn: occurredOnFor(period),
			Period:     period,
			Kind:       model.TxnKindPayment,
			Amount:     amount,
			Note:       AutoDeductionNote,
		}); err != nil {
			return fmt.Errorf("append payment: %w", err)
		}

		balance, err := p.txns.SumAmounts(ctx, empNo)
		if err != nil {
			return fmt.Errorf("sum transactions: %w", err)
		}
		if err := p.accounts.UpdateBalance(ctx, empNo, balance); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		inserted = true
		return nil
	})
	return inserted, err
}

// occurredOnFor dates a pass-inserted payment: today when deducting the
// running period, the period's first day for a catch-up run.
func occurredOnFor(period string) time.Time {
	if period == model.CurrentPeriod() {
		return time.Now()
	}
	if start, err := model.PeriodStart(period); err == nil {
		return start
	}
	return time.Now()
}

func observeOutcome(outcome string) {
	if !prom.MetricSystemEnabled {
		return
	}
	if c, ok := prom.MetricCollectionCounterVec[prom.SystemDeduction+prom.MetricDeductionAccountsProcessed]; ok {
		c.WithLabelValues(outcome).Inc()
	}
}
