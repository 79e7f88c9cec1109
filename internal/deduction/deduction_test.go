package deduction

import (
	"context"
	"testing"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/crewpay/payroll-ledger/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passEnv struct {
	accounts *repository.AccountRepository
	txns     *repository.TransactionRepository
	pass     *Pass
}

func setupPass(t *testing.T) *passEnv {
	db := helpers.SetupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	txns := repository.NewTransactionRepository(db)
	// A single worker keeps transactions serial on the in-memory store.
	return &passEnv{
		accounts: accounts,
		txns:     txns,
		pass:     NewPass(accounts, txns, 1),
	}
}

// seedAccount writes the ledger rows first and materializes the balance
// from their sum, the same order every production write path uses.
func (env *passEnv) seedAccount(t *testing.T, empNo string, installment int64, amounts ...int64) {
	t.Helper()
	ctx := context.Background()

	_, err := env.accounts.Create(ctx, &model.AdvanceAccount{
		EmpNo:              empNo,
		Balance:            decimal.Zero,
		MonthlyInstallment: decimal.NewFromInt(installment),
	})
	require.NoError(t, err)

	for _, amount := range amounts {
		kind := model.TxnKindAdvance
		if amount < 0 {
			kind = model.TxnKindPayment
		}
		_, err = env.txns.Create(ctx, &model.AdvanceTransaction{
			EmpNo:      empNo,
			OccurredOn: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			Period:     "2026-07",
			Kind:       kind,
			Amount:     decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
	}

	sum, err := env.txns.SumAmounts(ctx, empNo)
	require.NoError(t, err)
	require.NoError(t, env.accounts.UpdateBalance(ctx, empNo, sum))
}

func (env *passEnv) balance(t *testing.T, empNo string) decimal.Decimal {
	t.Helper()
	acc, err := env.accounts.Get(context.Background(), empNo)
	require.NoError(t, err)
	return acc.Balance
}

func TestPass_RunForPeriod(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 500, 5000, -500) // balance 4500
	env.seedAccount(t, "E002", 500, 120)        // final installment smaller than default
	env.seedAccount(t, "E003", 500, 1000, -1000)

	deducted, err := env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 2, deducted)

	t.Run("regular installment", func(t *testing.T) {
		assert.True(t, env.balance(t, "E001").Equal(decimal.NewFromInt(4000)))

		payment, err := env.txns.FindPayment(ctx, "E001", "2026-08")
		require.NoError(t, err)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(-500)))
		assert.Equal(t, AutoDeductionNote, payment.Note)
	})

	t.Run("final installment clamps to balance", func(t *testing.T) {
		assert.True(t, env.balance(t, "E002").IsZero())

		payment, err := env.txns.FindPayment(ctx, "E002", "2026-08")
		require.NoError(t, err)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(-120)))
	})

	t.Run("settled account untouched", func(t *testing.T) {
		_, err := env.txns.FindPayment(ctx, "E003", "2026-08")
		assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
	})
}

func TestPass_ZeroInstallmentSkipped(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 0, 5000)

	deducted, err := env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, deducted)

	assert.True(t, env.balance(t, "E001").Equal(decimal.NewFromInt(5000)))
	_, err = env.txns.FindPayment(ctx, "E001", "2026-08")
	assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
}

func TestPass_RunTwiceIsIdempotent(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 500, 5000)

	deducted, err := env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 1, deducted)

	deducted, err = env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, deducted, "second run in the same period must deduct nothing")

	assert.True(t, env.balance(t, "E001").Equal(decimal.NewFromInt(4500)))

	n, err := env.txns.CountByEmployee(ctx, "E001")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "one advance plus exactly one payment")
}

func TestPass_ManualPaymentBlocksAutoDeduction(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 500, 5000)

	// A clerk already recorded this period's payment by hand.
	_, err := env.txns.Create(ctx, &model.AdvanceTransaction{
		EmpNo:      "E001",
		OccurredOn: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Period:     "2026-08",
		Kind:       model.TxnKindPayment,
		Amount:     decimal.NewFromInt(-200),
	})
	require.NoError(t, err)
	sum, err := env.txns.SumAmounts(ctx, "E001")
	require.NoError(t, err)
	require.NoError(t, env.accounts.UpdateBalance(ctx, "E001", sum))

	deducted, err := env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, deducted)
	assert.True(t, env.balance(t, "E001").Equal(decimal.NewFromInt(4800)))
}

func TestPass_ZeroPaymentCountsAsDone(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 500, 5000)

	// A deferred period keeps its zero payment row; the pass must not
	// top it up.
	_, err := env.txns.Create(ctx, &model.AdvanceTransaction{
		EmpNo:      "E001",
		OccurredOn: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Period:     "2026-08",
		Kind:       model.TxnKindPayment,
		Amount:     decimal.Zero,
	})
	require.NoError(t, err)

	deducted, err := env.pass.RunForPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, deducted)
	assert.True(t, env.balance(t, "E001").Equal(decimal.NewFromInt(5000)))
}

func TestRunner_Trigger(t *testing.T) {
	env := setupPass(t)
	ctx := context.Background()

	env.seedAccount(t, "E001", 500, 5000)

	_, adapter := helpers.SetupTestRedis(t)
	runner := NewRunner(env.pass, adapter, time.Hour)

	t.Run("trigger runs the pass", func(t *testing.T) {
		n, err := runner.Trigger(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("held lock rejects the trigger", func(t *testing.T) {
		acquired, err := adapter.SetNX(runLockKey, []byte("held"), time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		_, err = runner.Trigger(ctx)
		assert.ErrorIs(t, err, ErrRunInProgress)

		require.NoError(t, adapter.Del(runLockKey))
	})

	t.Run("lock is released after the run", func(t *testing.T) {
		_, err := runner.Trigger(ctx)
		require.NoError(t, err)

		n, err := adapter.Exist(runLockKey)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
