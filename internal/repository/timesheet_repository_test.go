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

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestTimesheetRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTimesheetRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Timesheet{
		Date:    day(t, "2026-08-03"),
		JobNo:   "J-100",
		Ship:    "MV Orion",
		Site:    "Dock 2",
		SheetNo: "TS-0001",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	t.Run("get returns the sheet", func(t *testing.T) {
		ts, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "TS-0001", ts.SheetNo)
		assert.Equal(t, "MV Orion", ts.Ship)
	})

	t.Run("get missing sheet", func(t *testing.T) {
		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrTimesheetNotFound)
	})

	t.Run("entries attach to the sheet", func(t *testing.T) {
		tradeID := int64(1)
		entry, err := repo.CreateEntry(ctx, &model.TimesheetEntry{
			TimesheetID: created.ID,
			EmpNo:       "E001",
			TradeID:     &tradeID,
			FromTime:    "08:00",
			ToTime:      "17:00",
			TotalHours:  decimal.NewFromInt(8),
		})
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)

		entries, err := repo.ListEntries(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "E001", entries[0].EmpNo)
	})
}

func TestTimesheetRepository_SumHoursForDay(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTimesheetRepository(db)
	ctx := context.Background()

	monday := day(t, "2026-08-03")

	sheetA, err := repo.Create(ctx, &model.Timesheet{Date: monday, SheetNo: "TS-0001"})
	require.NoError(t, err)
	sheetB, err := repo.Create(ctx, &model.Timesheet{Date: monday, SheetNo: "TS-0002"})
	require.NoError(t, err)
	otherDay, err := repo.Create(ctx, &model.Timesheet{Date: day(t, "2026-08-04"), SheetNo: "TS-0003"})
	require.NoError(t, err)

	for _, seed := range []struct {
		sheetID int64
		empNo   string
		hours   int64
	}{
		{sheetA.ID, "E001", 8},
		{sheetB.ID, "E001", 4},
		{sheetA.ID, "E002", 8},
		{otherDay.ID, "E001", 8},
	} {
		_, err := repo.CreateEntry(ctx, &model.TimesheetEntry{
			TimesheetID: seed.sheetID,
			EmpNo:       seed.empNo,
			FromTime:    "08:00",
			ToTime:      "17:00",
			TotalHours:  decimal.NewFromInt(seed.hours),
		})
		require.NoError(t, err)
	}

	t.Run("sums across sheets on the same day", func(t *testing.T) {
		sum, err := repo.SumHoursForDay(ctx, "E001", monday)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(12)), "got %s", sum)
	})

	t.Run("nothing booked sums to zero", func(t *testing.T) {
		sum, err := repo.SumHoursForDay(ctx, "E999", monday)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestTimesheetRepository_Update(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTimesheetRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Timesheet{
		Date:    day(t, "2026-08-03"),
		SheetNo: "TS-0001",
	})
	require.NoError(t, err)

	entry, err := repo.CreateEntry(ctx, &model.TimesheetEntry{
		TimesheetID: created.ID,
		EmpNo:       "E001",
		FromTime:    "08:00",
		ToTime:      "17:00",
		TotalHours:  decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	t.Run("partial sheet update", func(t *testing.T) {
		err := repo.Update(ctx, created.ID, map[string]interface{}{"site": "Dock 5"})
		require.NoError(t, err)

		ts, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dock 5", ts.Site)
		assert.Equal(t, "TS-0001", ts.SheetNo)
	})

	t.Run("partial entry update", func(t *testing.T) {
		err := repo.UpdateEntry(ctx, entry.ID, map[string]interface{}{
			"to_time":     "13:00",
			"total_hours": decimal.NewFromInt(5),
		})
		require.NoError(t, err)

		entries, err := repo.ListEntries(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "13:00", entries[0].ToTime)
		assert.True(t, entries[0].TotalHours.Equal(decimal.NewFromInt(5)))
	})

	t.Run("missing sheet", func(t *testing.T) {
		err := repo.Update(ctx, 9999, map[string]interface{}{"site": "x"})
		assert.ErrorIs(t, err, ErrTimesheetNotFound)
	})

	t.Run("missing entry", func(t *testing.T) {
		err := repo.UpdateEntry(ctx, 9999, map[string]interface{}{"to_time": "09:00"})
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestTimesheetRepository_ListBetween(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTimesheetRepository(db)
	ctx := context.Background()

	for _, date := range []string{"2026-08-01", "2026-08-03", "2026-08-10"} {
		_, err := repo.Create(ctx, &model.Timesheet{Date: day(t, date), SheetNo: "TS-" + date})
		require.NoError(t, err)
	}

	sheets, err := repo.ListBetween(ctx, day(t, "2026-08-02"), day(t, "2026-08-09"))
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "TS-2026-08-03", sheets[0].SheetNo)
}
