package repository

import (
	"context"
	"testing"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTxn(t *testing.T, repo *TransactionRepository, empNo, period string, kind model.TxnKind, amount int64) *model.AdvanceTransaction {
	t.Helper()

	occurredOn, err := model.PeriodStart(period)
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), &model.AdvanceTransaction{
		EmpNo:      empNo,
		OccurredOn: occurredOn,
		Period:     period,
		Kind:       kind,
		Amount:     decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return created
}

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	t.Run("create advance transaction", func(t *testing.T) {
		txn := &model.AdvanceTransaction{
			EmpNo:      "E001",
			OccurredOn: time.Now(),
			Period:     "2026-08",
			Kind:       model.TxnKindAdvance,
			Amount:     decimal.NewFromInt(5000),
			Note:       "new advance",
		}

		created, err := repo.Create(ctx, txn)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.TxnKindAdvance, created.Kind)
		assert.True(t, created.Amount.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("create payment transaction", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.AdvanceTransaction{
			EmpNo:      "E001",
			OccurredOn: time.Now(),
			Period:     "2026-08",
			Kind:       model.TxnKindPayment,
			Amount:     decimal.NewFromInt(-500),
		})
		require.NoError(t, err)
		assert.True(t, created.Amount.IsNegative())
	})
}

func TestTransactionRepository_FindPayment(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	seedTxn(t, repo, "E001", "2026-07", model.TxnKindAdvance, 5000)
	payment := seedTxn(t, repo, "E001", "2026-07", model.TxnKindPayment, -500)
	seedTxn(t, repo, "E001", "2026-08", model.TxnKindDefer, 0)

	t.Run("finds the period's payment", func(t *testing.T) {
		found, err := repo.FindPayment(ctx, "E001", "2026-07")
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)
		assert.Equal(t, model.TxnKindPayment, found.Kind)
	})

	t.Run("defer row is not a payment", func(t *testing.T) {
		_, err := repo.FindPayment(ctx, "E001", "2026-08")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("no rows at all", func(t *testing.T) {
		_, err := repo.FindPayment(ctx, "E999", "2026-07")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionRepository_HasDefer(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	seedTxn(t, repo, "E001", "2026-08", model.TxnKindDefer, 0)
	seedTxn(t, repo, "E001", "2026-07", model.TxnKindPayment, -500)

	ok, err := repo.HasDefer(ctx, "E001", "2026-08")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasDefer(ctx, "E001", "2026-07")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionRepository_AmendPayment(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	payment := seedTxn(t, repo, "E001", "2026-08", model.TxnKindPayment, -500)
	advance := seedTxn(t, repo, "E001", "2026-08", model.TxnKindAdvance, 5000)

	t.Run("amend payment amount and note", func(t *testing.T) {
		err := repo.AmendPayment(ctx, payment.ID, decimal.NewFromInt(-300), "reduced")
		require.NoError(t, err)

		found, err := repo.FindPayment(ctx, "E001", "2026-08")
		require.NoError(t, err)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(-300)))
		assert.Equal(t, "reduced", found.Note)
	})

	t.Run("non-payment rows cannot be amended", func(t *testing.T) {
		err := repo.AmendPayment(ctx, advance.ID, decimal.NewFromInt(-1), "nope")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		err := repo.AmendPayment(ctx, 99999, decimal.NewFromInt(-1), "nope")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionRepository_SumAmounts(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	t.Run("empty ledger sums to zero", func(t *testing.T) {
		sum, err := repo.SumAmounts(ctx, "E001")
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("sum over mixed kinds", func(t *testing.T) {
		seedTxn(t, repo, "E001", "2026-06", model.TxnKindAdvance, 5000)
		seedTxn(t, repo, "E001", "2026-06", model.TxnKindPayment, -500)
		seedTxn(t, repo, "E001", "2026-07", model.TxnKindIncrease, 1000)
		seedTxn(t, repo, "E001", "2026-07", model.TxnKindPayment, -500)
		seedTxn(t, repo, "E001", "2026-08", model.TxnKindDefer, 0)
		seedTxn(t, repo, "E002", "2026-08", model.TxnKindAdvance, 999)

		sum, err := repo.SumAmounts(ctx, "E001")
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(5000)), "got %s", sum)
	})
}

func TestTransactionRepository_ListByEmployee(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	seedTxn(t, repo, "E001", "2026-06", model.TxnKindAdvance, 5000)
	seedTxn(t, repo, "E001", "2026-06", model.TxnKindPayment, -500)
	seedTxn(t, repo, "E001", "2026-07", model.TxnKindPayment, -500)
	seedTxn(t, repo, "E002", "2026-07", model.TxnKindAdvance, 100)

	t.Run("newest first", func(t *testing.T) {
		txns, err := repo.ListByEmployee(ctx, "E001")
		require.NoError(t, err)
		require.Len(t, txns, 3)

		assert.Equal(t, "2026-07", txns[0].Period)
		for i := 1; i < len(txns); i++ {
			assert.False(t, txns[i].OccurredOn.After(txns[i-1].OccurredOn))
		}
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.CountByEmployee(ctx, "E001")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("unknown employee lists empty", func(t *testing.T) {
		txns, err := repo.ListByEmployee(ctx, "E999")
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}
