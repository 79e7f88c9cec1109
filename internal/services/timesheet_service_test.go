package services

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

func setupTimesheetService(t *testing.T) (*TimesheetService, *repository.TimesheetRepository) {
	db := helpers.SetupTestDB(t)
	helpers.CreateTestEmployee(t, db, "E001", "Aung Kyaw", 1800)
	helpers.CreateTestEmployee(t, db, "E002", "Min Thu", 1650)

	sheets := repository.NewTimesheetRepository(db)
	employees := repository.NewEmployeeRepository(db)
	return NewTimesheetService(sheets, employees), sheets
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestTimesheetService_Create(t *testing.T) {
	service, _ := setupTimesheetService(t)
	ctx := context.Background()

	t.Run("plain day shift", func(t *testing.T) {
		created, err := service.Create(ctx, &model.Timesheet{
			Date:    mustDay(t, "2026-08-03"),
			SheetNo: "TS-0001",
			Entries: []*model.TimesheetEntry{{
				EmpNo:        "E001",
				FromTime:     "08:00",
				ToTime:       "17:00",
				BreakMinutes: 60,
				TotalHours:   decimal.NewFromInt(8),
			}},
		})
		require.NoError(t, err)
		require.Len(t, created, 1)

		ts, err := service.Get(ctx, created[0].ID)
		require.NoError(t, err)
		require.Len(t, ts.Entries, 1)
		assert.Equal(t, "Aung Kyaw", ts.Entries[0].EmployeeName)
		assert.Equal(t, "N/A", ts.Entries[0].TradeName)
	})

	t.Run("invalid time of day", func(t *testing.T) {
		_, err := service.Create(ctx, &model.Timesheet{
			Date:    mustDay(t, "2026-08-03"),
			SheetNo: "TS-0002",
			Entries: []*model.TimesheetEntry{{
				EmpNo:    "E001",
				FromTime: "8am",
				ToTime:   "17:00",
			}},
		})
		assert.ErrorIs(t, err, ErrInvalidTime)
	})
}

func TestTimesheetService_Create_OvernightSplit(t *testing.T) {
	service, _ := setupTimesheetService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &model.Timesheet{
		Date:    mustDay(t, "2026-08-03"),
		SheetNo: "TS-0010",
		Entries: []*model.TimesheetEntry{{
			EmpNo:        "E001",
			FromTime:     "20:00",
			ToTime:       "04:00",
			BreakMinutes: 60,
		}},
	})
	require.NoError(t, err)
	require.Len(t, created, 2, "overnight entry must synthesize a next-day sheet")

	assert.Equal(t, mustDay(t, "2026-08-03"), created[0].Date)
	assert.Equal(t, mustDay(t, "2026-08-04"), created[1].Date)
	assert.Equal(t, created[0].SheetNo, created[1].SheetNo)

	first, err := service.Get(ctx, created[0].ID)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	part1 := first.Entries[0]
	assert.Equal(t, "20:00", part1.FromTime)
	assert.Equal(t, "23:59", part1.ToTime)
	assert.Equal(t, 60, part1.BreakMinutes)
	// 239 worked minutes minus the 60 minute break
	assert.True(t, part1.TotalHours.Equal(decimal.NewFromFloat(2.98)), "got %s", part1.TotalHours)
	assert.Equal(t, "Split overnight entry (Part 1)", part1.Remarks)

	second, err := service.Get(ctx, created[1].ID)
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	part2 := second.Entries[0]
	assert.Equal(t, "00:00", part2.FromTime)
	assert.Equal(t, "04:00", part2.ToTime)
	assert.Equal(t, 0, part2.BreakMinutes)
	assert.True(t, part2.TotalHours.Equal(decimal.NewFromInt(4)), "got %s", part2.TotalHours)
	assert.Equal(t, "Split overnight entry (Part 2 from timesheet TS-0010)", part2.Remarks)
}

func TestTimesheetService_Create_DayLimit(t *testing.T) {
	service, _ := setupTimesheetService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, &model.Timesheet{
		Date:    mustDay(t, "2026-08-03"),
		SheetNo: "TS-0020",
		Entries: []*model.TimesheetEntry{{
			EmpNo:      "E001",
			FromTime:   "00:00",
			ToTime:     "20:00",
			TotalHours: decimal.NewFromInt(20),
		}},
	})
	require.NoError(t, err)

	t.Run("second sheet overshoots the day", func(t *testing.T) {
		_, err := service.Create(ctx, &model.Timesheet{
			Date:    mustDay(t, "2026-08-03"),
			SheetNo: "TS-0021",
			Entries: []*model.TimesheetEntry{{
				EmpNo:      "E001",
				FromTime:   "20:00",
				ToTime:     "23:59",
				TotalHours: decimal.NewFromInt(5),
			}},
		})
		assert.ErrorIs(t, err, ErrDayLimitExceeded)
	})

	t.Run("rejected sheet leaves nothing behind", func(t *testing.T) {
		sheets, err := service.List(ctx)
		require.NoError(t, err)
		require.Len(t, sheets, 1)
		assert.Equal(t, "TS-0020", sheets[0].SheetNo)
	})

	t.Run("other employees are unaffected", func(t *testing.T) {
		_, err := service.Create(ctx, &model.Timesheet{
			Date:    mustDay(t, "2026-08-03"),
			SheetNo: "TS-0022",
			Entries: []*model.TimesheetEntry{{
				EmpNo:      "E002",
				FromTime:   "08:00",
				ToTime:     "17:00",
				TotalHours: decimal.NewFromInt(8),
			}},
		})
		assert.NoError(t, err)
	})
}

func TestTimesheetService_Update(t *testing.T) {
	service, _ := setupTimesheetService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, &model.Timesheet{
		Date:    mustDay(t, "2026-08-03"),
		SheetNo: "TS-0030",
		Entries: []*model.TimesheetEntry{{
			EmpNo:      "E001",
			FromTime:   "08:00",
			ToTime:     "17:00",
			TotalHours: decimal.NewFromInt(8),
		}},
	})
	require.NoError(t, err)

	t.Run("partial sheet update", func(t *testing.T) {
		site := "Dock 5"
		err := service.Update(ctx, created[0].ID, model.TimesheetUpdate{Site: &site})
		require.NoError(t, err)

		ts, err := service.Get(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Dock 5", ts.Site)
		assert.Equal(t, "TS-0030", ts.SheetNo)
	})

	t.Run("entry update validates times", func(t *testing.T) {
		bad := "25:99"
		err := service.UpdateEntry(ctx, 1, model.TimesheetEntryUpdate{ToTime: &bad})
		assert.ErrorIs(t, err, ErrInvalidTime)
	})

	t.Run("missing sheet", func(t *testing.T) {
		site := "x"
		err := service.Update(ctx, 9999, model.TimesheetUpdate{Site: &site})
		assert.ErrorIs(t, err, ErrTimesheetNotFound)
	})
}

func TestTimesheetService_Summary(t *testing.T) {
	service, _ := setupTimesheetService(t)
	ctx := context.Background()

	// 2026-08-02 is a Sunday, 2026-08-03 a Monday.
	sunday := mustDay(t, "2026-08-02")
	monday := mustDay(t, "2026-08-03")

	_, err := service.Create(ctx, &model.Timesheet{
		Date:    sunday,
		SheetNo: "TS-0040",
		Entries: []*model.TimesheetEntry{{
			EmpNo:      "E001",
			FromTime:   "08:00",
			ToTime:     "14:00",
			TotalHours: decimal.NewFromInt(6),
		}},
	})
	require.NoError(t, err)

	_, err = service.Create(ctx, &model.Timesheet{
		Date:    monday,
		SheetNo: "TS-0041",
		Entries: []*model.TimesheetEntry{{
			EmpNo:      "E001",
			FromTime:   "08:00",
			ToTime:     "19:00",
			TotalHours: decimal.NewFromInt(10),
		}, {
			EmpNo:      "E002",
			FromTime:   "08:00",
			ToTime:     "16:00",
			TotalHours: decimal.NewFromInt(7),
		}},
	})
	require.NoError(t, err)

	report, err := service.Summary(ctx, sunday, monday)
	require.NoError(t, err)
	require.Len(t, report, 2)

	byEmp := map[string]*model.EmployeeSummary{}
	for _, r := range report {
		byEmp[r.EmpNo] = r
	}

	e1 := byEmp["E001"]
	require.NotNil(t, e1)
	assert.True(t, e1.TotalHours.Equal(decimal.NewFromInt(16)), "got %s", e1.TotalHours)
	assert.True(t, e1.HolidayOT.Equal(decimal.NewFromInt(6)), "sunday hours all count, got %s", e1.HolidayOT)
	assert.True(t, e1.NormalOT.Equal(decimal.NewFromInt(2)), "monday 10h is 2h over, got %s", e1.NormalOT)

	e2 := byEmp["E002"]
	require.NotNil(t, e2)
	assert.True(t, e2.TotalHours.Equal(decimal.NewFromInt(7)))
	assert.True(t, e2.HolidayOT.IsZero())
	assert.True(t, e2.NormalOT.IsZero())
}
