package repository

import (
	"context"
	"testing"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("create account", func(t *testing.T) {
		acc := &model.AdvanceAccount{
			EmpNo:              "E001",
			Balance:            decimal.Zero,
			MonthlyInstallment: decimal.NewFromInt(500),
		}

		created, err := repo.Create(ctx, acc)
		require.NoError(t, err)
		assert.Equal(t, "E001", created.EmpNo)
		assert.True(t, created.Balance.IsZero())
		assert.True(t, created.MonthlyInstallment.Equal(decimal.NewFromInt(500)))
	})

	t.Run("get after create", func(t *testing.T) {
		acc, err := repo.Get(ctx, "E001")
		require.NoError(t, err)
		assert.Equal(t, "E001", acc.EmpNo)
	})

	t.Run("get missing account", func(t *testing.T) {
		_, err := repo.Get(ctx, "E999")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("get for update missing account", func(t *testing.T) {
		_, err := repo.GetForUpdate(ctx, "E999")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.AdvanceAccount{
		EmpNo:              "E001",
		Balance:            decimal.NewFromInt(5000),
		MonthlyInstallment: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	t.Run("update balance", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, "E001", decimal.NewFromInt(4500))
		require.NoError(t, err)

		acc, err := repo.Get(ctx, "E001")
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(4500)))
	})

	t.Run("update balance missing account", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, "E999", decimal.NewFromInt(100))
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("update installment", func(t *testing.T) {
		err := repo.UpdateInstallment(ctx, "E001", decimal.NewFromInt(750))
		require.NoError(t, err)

		acc, err := repo.Get(ctx, "E001")
		require.NoError(t, err)
		assert.True(t, acc.MonthlyInstallment.Equal(decimal.NewFromInt(750)))
	})

	t.Run("update installment missing account", func(t *testing.T) {
		err := repo.UpdateInstallment(ctx, "E999", decimal.NewFromInt(100))
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAccountRepository_Listing(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	seed := []struct {
		empNo   string
		balance int64
	}{
		{"E001", 4500},
		{"E002", 0},
		{"E003", 120},
	}
	for _, s := range seed {
		_, err := repo.Create(ctx, &model.AdvanceAccount{
			EmpNo:              s.empNo,
			Balance:            decimal.NewFromInt(s.balance),
			MonthlyInstallment: decimal.NewFromInt(500),
		})
		require.NoError(t, err)
	}

	t.Run("list positive balance skips settled accounts", func(t *testing.T) {
		accounts, err := repo.ListPositiveBalance(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)

		empNos := []string{accounts[0].EmpNo, accounts[1].EmpNo}
		assert.Contains(t, empNos, "E001")
		assert.Contains(t, empNos, "E003")
	})

	t.Run("list all includes settled accounts", func(t *testing.T) {
		balances, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, balances, 3)
	})
}

func TestAccountRepository_WithinTransaction(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("rollback on error discards writes", func(t *testing.T) {
		err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, &model.AdvanceAccount{
				EmpNo:              "E100",
				Balance:            decimal.NewFromInt(1000),
				MonthlyInstallment: decimal.NewFromInt(100),
			})
			require.NoError(t, err)
			return assert.AnError
		})
		require.Error(t, err)

		_, err = repo.Get(ctx, "E100")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, &model.AdvanceAccount{
				EmpNo:              "E101",
				Balance:            decimal.NewFromInt(1000),
				MonthlyInstallment: decimal.NewFromInt(100),
			})
			return err
		})
		require.NoError(t, err)

		acc, err := repo.Get(ctx, "E101")
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(1000)))
	})
}
