package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewEmployeeRepository(tdb.DB)
	ctx := context.Background()

	require.NoError(t, tdb.rawDB.Create(&EmployeeEntity{
		EmpNo:   "E001",
		Name:    "Aung Kyaw",
		BasePay: decimal.NewFromInt(1800),
	}).Error)
	require.NoError(t, tdb.rawDB.Create(&TradeEntity{TradeName: "Welder"}).Error)

	t.Run("get employee", func(t *testing.T) {
		emp, err := repo.Get(ctx, "E001")
		require.NoError(t, err)
		assert.Equal(t, "Aung Kyaw", emp.Name)
	})

	t.Run("get missing employee", func(t *testing.T) {
		_, err := repo.Get(ctx, "E999")
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})

	t.Run("list employees", func(t *testing.T) {
		employees, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, employees, 1)
	})

	t.Run("list trades", func(t *testing.T) {
		trades, err := repo.ListTrades(ctx)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "Welder", trades[0].TradeName)
	})
}
